package model

import "gorm.io/gorm"

// allModels lists every model to be auto-migrated.
var allModels = []interface{}{
	&User{},
	&Guild{},
	&GuildMember{},
	&GuildInvitation{},
	&GuildJoinRequest{},
	&Role{},
	&RoleAssignment{},
	&Party{},
	&PartyMember{},
	&AuditLog{},
}

// seedRoles are the role definitions the engine depends on at runtime.
var seedRoles = []Role{
	{Name: RoleGuildMaster, Description: "Leader of a guild"},
	{Name: RolePartyLeader, Description: "Leader of a party"},
	{Name: RoleVerifiedLecturer, Description: "Verified lecturer authorization tier"},
}

// AutoMigrate creates or updates all tables and seeds the well-known roles.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels...); err != nil {
		return err
	}

	// Defense-in-depth backstop for the one-active-guild-per-user invariant.
	// The authoritative check lives in the join procedure, which runs under
	// a lock on the user row; MySQL lacks partial indexes and relies on
	// that serialization alone.
	if db.Dialector.Name() != "mysql" {
		if err := db.Exec(
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_membership
			 ON guild_members (auth_user_id) WHERE status = 'active'`,
		).Error; err != nil {
			return err
		}
	}

	for _, r := range seedRoles {
		role := r
		if err := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
