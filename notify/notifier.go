package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/cache"
	"go.uber.org/zap"
)

// Event type names published by the guild engine.
const (
	EventInvitationCreated   = "guild_invitation_created"
	EventInvitationAccepted  = "guild_invitation_accepted"
	EventJoinRequestApproved = "guild_join_request_approved"
)

// Event is the payload delivered to a user's notification channel.
type Event struct {
	Type    string    `json:"type"`
	GuildID int64     `json:"guild_id"`
	ActorID int64     `json:"actor_id"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier dispatches guild workflow events. Delivery is best-effort:
// implementations must never fail the calling operation.
type Notifier interface {
	InvitationCreated(ctx context.Context, inviteeID, guildID, inviterID int64, message string)
	InvitationAccepted(ctx context.Context, inviterID, guildID, inviteeID int64)
	JoinRequestApproved(ctx context.Context, requesterID, guildID, approverID int64)
}

// UserChannel is the pub/sub channel carrying a user's notifications.
func UserChannel(userID int64) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

// Gateway publishes events to per-user pub/sub channels. Publish errors are
// logged and swallowed.
type Gateway struct {
	ps     cache.PubSub
	logger *zap.Logger
}

// NewGateway creates a pub/sub backed notification Gateway.
func NewGateway(ps cache.PubSub, logger *zap.Logger) *Gateway {
	return &Gateway{ps: ps, logger: logger}
}

func (g *Gateway) publish(ctx context.Context, userID int64, ev Event) {
	ev.At = time.Now()
	payload, err := json.Marshal(ev)
	if err != nil {
		g.logger.Warn("notify: marshal failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if err := g.ps.Publish(ctx, UserChannel(userID), string(payload)); err != nil {
		g.logger.Warn("notify: publish failed",
			zap.String("type", ev.Type),
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

func (g *Gateway) InvitationCreated(ctx context.Context, inviteeID, guildID, inviterID int64, message string) {
	g.publish(ctx, inviteeID, Event{
		Type:    EventInvitationCreated,
		GuildID: guildID,
		ActorID: inviterID,
		Message: message,
	})
}

func (g *Gateway) InvitationAccepted(ctx context.Context, inviterID, guildID, inviteeID int64) {
	g.publish(ctx, inviterID, Event{
		Type:    EventInvitationAccepted,
		GuildID: guildID,
		ActorID: inviteeID,
	})
}

func (g *Gateway) JoinRequestApproved(ctx context.Context, requesterID, guildID, approverID int64) {
	g.publish(ctx, requesterID, Event{
		Type:    EventJoinRequestApproved,
		GuildID: guildID,
		ActorID: approverID,
	})
}
