package models

import (
	"strings"
	"time"
)

// MemberSuffix is the role suffix granted to every eligible member.
const MemberSuffix = "Member"

// Role is a guild role identified by its name suffix. Staff roles use colon separated
// position tokens, e.g. "DIR:ADIR".
type Role struct {
	Suffix string `json:"suffix"`
}

// IsBase reports whether r is the base membership role.
func (r Role) IsBase() bool {
	return r.Suffix == MemberSuffix
}

// Tokens returns the staff position tokens encoded in the suffix.
func (r Role) Tokens() []string {
	return strings.Split(r.Suffix, ":")
}

// RoleCatalogEntry is the persisted row backing the role catalog.
type RoleCatalogEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Suffix    string    `gorm:"uniqueIndex;size:255;not null" json:"suffix"`
	Position  int       `gorm:"not null;default:0;index" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role converts the row into a domain Role.
func (e RoleCatalogEntry) Role() Role {
	return Role{Suffix: e.Suffix}
}

// RoleSuffixes returns the suffixes of roles in order.
func RoleSuffixes(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Suffix)
	}
	return out
}
