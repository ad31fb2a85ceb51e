package guild

import (
	"context"
	"testing"
	"time"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvite_CreatesPendingInvitation(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	seedUser(t, db, "tessa")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "tessa@roguelearn.test", Message: "join us"})
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowPending, inv.Status)
	assert.NotEmpty(t, inv.PublicID)
	assert.Equal(t, "join us", inv.Message)
	assert.True(t, inv.ExpiresAt.After(time.Now()))
}

func TestInvite_UnknownEmail(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)

	_, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "nobody@roguelearn.test"})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestInvite_ByUserID(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	targetID := seedUser(t, db, "direct-target")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{InviteeID: targetID})
	require.NoError(t, err)
	assert.Equal(t, targetID, inv.InviteeID)
	assert.Equal(t, model.WorkflowPending, inv.Status)
}

func TestInvite_UnknownUserID(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)

	_, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{InviteeID: 99999})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestInvite_MissingTarget(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)

	_, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestInvite_RequiresAuthority(t *testing.T) {
	svc, db := newTestService(t)
	guildID, _ := seedGuild(t, svc, db, 10)
	plain := seedUser(t, db, "plain")
	seedUser(t, db, "target")
	require.NoError(t, admit(t, svc, guildID, plain))

	_, err := svc.Invite(context.Background(), guildID, plain, InviteInput{Email: "target@roguelearn.test"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestInvite_DuplicatePendingConflicts(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	seedUser(t, db, "dup")

	_, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "dup@roguelearn.test"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "dup@roguelearn.test"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestInvite_RevivesDeclinedRowInPlace(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	inviteeID := seedUser(t, db, "revive")

	first, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "revive@roguelearn.test", Message: "round one"})
	require.NoError(t, err)
	require.NoError(t, svc.DeclineInvitation(context.Background(), first.PublicID, guildID, inviteeID))

	second, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "revive@roguelearn.test", Message: "round two"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "terminal row is reset in place")
	assert.Equal(t, first.PublicID, second.PublicID)
	assert.Equal(t, model.WorkflowPending, second.Status)
	assert.Equal(t, "round two", second.Message)
	assert.Nil(t, second.RespondedAt)

	var rows int64
	require.NoError(t, db.Model(&model.GuildInvitation{}).
		Where("guild_id = ? AND invitee_id = ?", guildID, inviteeID).
		Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestInvite_CapBlocksWhenMembersPlusPendingReachLimit(t *testing.T) {
	svc, db := newTestService(t)
	svc.cfg.InviteSoftCap = 3
	guildID, masterID := seedGuild(t, svc, db, 10)

	seedUser(t, db, "inv1")
	seedUser(t, db, "inv2")
	seedUser(t, db, "inv3")
	_, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "inv1@roguelearn.test"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "inv2@roguelearn.test"})
	require.NoError(t, err)

	// 1 member + 2 pending = soft cap of 3.
	_, err = svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "inv3@roguelearn.test"})
	assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(err))
}

func TestInvite_LecturerGuildUsesFullCapacity(t *testing.T) {
	svc, db := newTestService(t)
	svc.cfg.InviteSoftCap = 2
	guildID, masterID := seedGuild(t, svc, db, 10)
	grantRole(t, db, masterID, model.RoleVerifiedLecturer)

	seedUser(t, db, "lec1")
	seedUser(t, db, "lec2")
	_, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "lec1@roguelearn.test"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "lec2@roguelearn.test"})
	require.NoError(t, err, "verified lecturer guilds are bounded by max_members, not the soft cap")
}

func TestAcceptInvitation_JoinsAndSettles(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	inviteeID := seedUser(t, db, "accepter")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "accepter@roguelearn.test"})
	require.NoError(t, err)
	require.NoError(t, svc.AcceptInvitation(context.Background(), inv.PublicID, guildID, inviteeID))

	var got model.GuildInvitation
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, model.WorkflowAccepted, got.Status)
	assert.NotNil(t, got.RespondedAt)
	assert.EqualValues(t, 2, activeCount(t, db, guildID))
}

func TestAcceptInvitation_Idempotent(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	inviteeID := seedUser(t, db, "twice")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "twice@roguelearn.test"})
	require.NoError(t, err)
	require.NoError(t, svc.AcceptInvitation(context.Background(), inv.PublicID, guildID, inviteeID))
	require.NoError(t, svc.AcceptInvitation(context.Background(), inv.PublicID, guildID, inviteeID))
	assert.EqualValues(t, 2, activeCount(t, db, guildID))
}

func TestAcceptInvitation_WrongUserForbidden(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	seedUser(t, db, "rightful")
	wrong := seedUser(t, db, "imposter")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "rightful@roguelearn.test"})
	require.NoError(t, err)
	err = svc.AcceptInvitation(context.Background(), inv.PublicID, guildID, wrong)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAcceptInvitation_ExpiredIsPersisted(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	inviteeID := seedUser(t, db, "late")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "late@roguelearn.test"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.GuildInvitation{}).
		Where("id = ?", inv.ID).
		Update("expires_at", time.Now().Add(-time.Hour)).Error)

	err = svc.AcceptInvitation(context.Background(), inv.PublicID, guildID, inviteeID)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	var got model.GuildInvitation
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, model.WorkflowExpired, got.Status, "lazy expiry must be written back")
	assert.EqualValues(t, 1, activeCount(t, db, guildID))
}

func TestAcceptInvitation_FullGuildLeavesInvitationPending(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 2)
	inviteeID := seedUser(t, db, "queued")
	filler := seedUser(t, db, "filler")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "queued@roguelearn.test"})
	require.NoError(t, err)
	require.NoError(t, admit(t, svc, guildID, filler))

	err = svc.AcceptInvitation(context.Background(), inv.PublicID, guildID, inviteeID)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	var got model.GuildInvitation
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, model.WorkflowPending, got.Status,
		"a failed accept rolls back whole; the invitation stays pending")
}

func TestAcceptInvitation_CancelsOtherPendingWorkflows(t *testing.T) {
	svc, db := newTestService(t)
	g1, m1 := seedGuild(t, svc, db, 10)
	g2, m2 := seedGuild(t, svc, db, 10)
	userID := seedUser(t, db, "popular")

	inv1, err := svc.Invite(context.Background(), g1, m1, InviteInput{Email: "popular@roguelearn.test"})
	require.NoError(t, err)
	inv2, err := svc.Invite(context.Background(), g2, m2, InviteInput{Email: "popular@roguelearn.test"})
	require.NoError(t, err)

	require.NoError(t, svc.AcceptInvitation(context.Background(), inv1.PublicID, g1, userID))

	var other model.GuildInvitation
	require.NoError(t, db.First(&other, inv2.ID).Error)
	assert.Equal(t, model.WorkflowDeclined, other.Status,
		"competing invitations are settled after a successful accept")
}

func TestDeclineInvitation(t *testing.T) {
	svc, db := newTestService(t)
	guildID, masterID := seedGuild(t, svc, db, 10)
	inviteeID := seedUser(t, db, "refuser")

	inv, err := svc.Invite(context.Background(), guildID, masterID, InviteInput{Email: "refuser@roguelearn.test"})
	require.NoError(t, err)
	require.NoError(t, svc.DeclineInvitation(context.Background(), inv.PublicID, guildID, inviteeID))

	var got model.GuildInvitation
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, model.WorkflowDeclined, got.Status)
	assert.EqualValues(t, 1, activeCount(t, db, guildID))

	err = svc.DeclineInvitation(context.Background(), inv.PublicID, guildID, inviteeID)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err), "decline is not idempotent")
}
