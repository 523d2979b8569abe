package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is one structured audit event. Every payment-processor step and
// every ledger transition records one, regardless of outcome.
type AuditLog struct {
	ID        string            `gorm:"column:id;primary_key;type:uuid" json:"id"`
	ActorID   string            `gorm:"column:actor_id;type:varchar(64);not null;index" json:"actor_id"`
	Operation string            `gorm:"column:operation;type:varchar(64);not null;index" json:"operation"`
	Reason    string            `gorm:"column:reason;type:varchar(256)" json:"reason"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}
