package models

import (
	"strings"
	"time"
)

// RoleSeparator joins guild role names inside Consentment.Roles.
const RoleSeparator = ":"

// Consentment records that a network identity agreed to link a chat account.
// At most one row per VID may be active.
type Consentment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	VID       int64      `gorm:"column:vid;not null;index;uniqueIndex:idx_consentments_active_vid,where:active = true" json:"vid"`
	ChatID    string     `gorm:"column:chat_id;size:64;not null;index" json:"chat_id"`
	Nickname  string     `gorm:"size:255" json:"nickname"`
	Roles     string     `gorm:"type:text" json:"roles"`
	Active    bool       `gorm:"not null;index" json:"active"`
	Division  string     `gorm:"size:16" json:"division"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// NewConsentment builds the active consent record for a member whose roles resolved to
// the given guild role names.
func NewConsentment(m *Member, roleNames []string) *Consentment {
	return &Consentment{
		VID:      m.VID,
		ChatID:   m.ChatID,
		Nickname: m.GenerateNickname(),
		Roles:    strings.Join(roleNames, RoleSeparator),
		Active:   true,
		Division: m.Division,
	}
}
