package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLevel is the severity attached to an audit event.
type AuditLevel string

const (
	AuditLevelInfo     AuditLevel = "info"
	AuditLevelWarning  AuditLevel = "warning"
	AuditLevelCritical AuditLevel = "critical"
)

// Audit event names.
const (
	EventAssignRoles       = "assign.roles"
	EventJoinServer        = "join.server"
	EventRolesEmpty        = "roles.empty"
	EventNotEnoughHours    = "member.no.enough.hours"
	EventAccountSuspended  = "account.suspended"
	EventAccountInactive   = "account.inactive"
	EventAccountNotActive  = "account.not_active"
	EventChatException     = "discord.exception"
	EventLinkedAccountDrop = "linked.account.removed"
	EventLinkRevoked       = "link.revoked"
)

// AuditEvent is an append-only record of a workflow step.
type AuditEvent struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Event     string         `gorm:"size:64;not null;index" json:"event"`
	Level     AuditLevel     `gorm:"size:16;not null" json:"level"`
	VID       int64          `gorm:"column:vid;index" json:"vid"`
	Nickname  string         `gorm:"size:255" json:"nickname,omitempty"`
	Fields    map[string]any `gorm:"-" json:"fields,omitempty"`
	Payload   string         `gorm:"type:text" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAuditEvent builds an event for the member. A nil member yields an anonymous event.
func NewAuditEvent(event string, level AuditLevel, m *Member, fields map[string]any) AuditEvent {
	ev := AuditEvent{
		ID:     uuid.NewString(),
		Event:  event,
		Level:  level,
		Fields: fields,
	}
	if m != nil {
		ev.VID = m.VID
		ev.Nickname = m.GenerateNickname()
	}
	return ev
}

// BeforeCreate fills the id and serializes Fields into Payload.
func (e *AuditEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if len(e.Fields) > 0 && e.Payload == "" {
		raw, err := json.Marshal(e.Fields)
		if err != nil {
			return err
		}
		e.Payload = string(raw)
	}
	return nil
}

// AfterFind restores Fields from Payload.
func (e *AuditEvent) AfterFind(_ *gorm.DB) error {
	if e.Payload == "" {
		return nil
	}
	return json.Unmarshal([]byte(e.Payload), &e.Fields)
}
