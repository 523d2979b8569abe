// Package audit writes the structured audit trail. Events are appended on a
// side channel: a write failure is logged and never fails the operation that
// produced it.
package audit

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tierbill/tierbill/internal/models"
	"github.com/tierbill/tierbill/pkg/logctx"
	"github.com/tierbill/tierbill/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Record appends one audit event asynchronously.
func (s *Service) Record(ctx context.Context, actorID, operation, reason string, metadata map[string]any) {
	entry := &models.AuditLog{
		ID:        tool.GenerateUUIDV7(),
		ActorID:   actorID,
		Operation: operation,
		Reason:    reason,
		Metadata:  datatypes.JSONMap(metadata),
	}
	go func() {
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to save audit log",
				"operation", operation, "actor_id", actorID, "err", err)
		}
	}()
}
