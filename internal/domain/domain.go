package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	ActionReschedule AuditAction = "reschedule"
	ActionEnsure     AuditAction = "ensure"
	ActionArrive     AuditAction = "arrive"
	ActionDepart     AuditAction = "depart"
	ActionTopUp      AuditAction = "top_up"
	ActionRefresh    AuditAction = "refresh_stats"
)

type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OccurredAt time.Time `gorm:"autoCreateTime;index"`

	// Who
	Actor     string `gorm:"column:actor;type:varchar(100);index"`
	IPAddress string `gorm:"column:ip_address;type:varchar(45)"` // Supports IPv6

	// What
	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   string      `gorm:"column:resource_id;type:varchar(128);index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`
	Changes   string `gorm:"column:changes;type:jsonb"`
}

func (AuditLog) TableName() string {
	return "audit.logs"
}
