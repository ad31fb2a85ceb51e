package identity

import (
	"context"
	"errors"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"gorm.io/gorm"
)

// ErrUnknownEmail is returned when no user matches the given email.
var ErrUnknownEmail = errors.New("identity: no user with that email")

// Resolver maps an email address to a user ID, used to address invitations.
type Resolver interface {
	ResolveEmail(ctx context.Context, email string) (int64, error)
}

// DBResolver resolves emails against the local users table.
type DBResolver struct {
	db *gorm.DB
}

// NewDBResolver creates a Resolver backed by the users table.
func NewDBResolver(db *gorm.DB) *DBResolver {
	return &DBResolver{db: db}
}

func (r *DBResolver) ResolveEmail(ctx context.Context, email string) (int64, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnknownEmail
	}
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}
