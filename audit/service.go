package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action names recorded by the guild engine.
const (
	ActionGuildCreate        = "guild_create"
	ActionGuildDisband       = "guild_disband"
	ActionGuildJoin          = "guild_join"
	ActionGuildLeave         = "guild_leave"
	ActionGuildKick          = "guild_kick"
	ActionInvitationCreate   = "invitation_create"
	ActionInvitationRevive   = "invitation_revive"
	ActionInvitationAccept   = "invitation_accept"
	ActionInvitationDecline  = "invitation_decline"
	ActionJoinRequestCreate  = "join_request_create"
	ActionJoinRequestRevive  = "join_request_revive"
	ActionJoinRequestApprove = "join_request_approve"
	ActionJoinRequestDecline = "join_request_decline"
	ActionWorkflowExpire     = "workflow_expire"
)

// Entry holds one audit event to be logged.
type Entry struct {
	TraceID    string
	ActorID    *int64
	GuildID    *int64
	Action     string
	Detail     interface{}
	Error      string
	DurationMs int
}

// Service logs audit entries asynchronously in batches. Invitation and
// join-request rows are revived in place when a pair is re-invited, so the
// audit log is the only durable record of their prior terminal state.
type Service struct {
	db     *gorm.DB
	ch     chan *model.AuditLog
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Log enqueues an audit entry for async DB write.
func (svc *Service) Log(entry Entry) {
	detailJSON, _ := json.Marshal(entry.Detail)
	record := &model.AuditLog{
		TraceID:    entry.TraceID,
		ActorID:    entry.ActorID,
		GuildID:    entry.GuildID,
		Action:     entry.Action,
		Detail:     datatypes.JSON(detailJSON),
		Error:      entry.Error,
		DurationMs: entry.DurationMs,
	}
	select {
	case svc.ch <- record:
	default:
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action))
	}
}

// PurgeOlderThan deletes audit rows created before the retention cutoff.
func (svc *Service) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := svc.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.AuditLog{})
	return res.RowsAffected, res.Error
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
