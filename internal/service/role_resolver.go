package service

import (
	"slices"

	"guildlink/internal/models"
)

// ResolveRoles returns the catalog roles that apply to m, in catalog order.
// The base membership role always applies; any other role applies when one of the
// member's staff tokens is among the role's suffix tokens.
func ResolveRoles(catalog []models.Role, m *models.Member) []models.Role {
	out := make([]models.Role, 0, len(catalog))
	for _, r := range catalog {
		if r.IsBase() || holdsAny(m, r) {
			out = append(out, r)
		}
	}
	return out
}

func holdsAny(m *models.Member, r models.Role) bool {
	if !m.IsStaff() {
		return false
	}
	tokens := r.Tokens()
	for _, s := range m.Staff {
		if slices.Contains(tokens, s) {
			return true
		}
	}
	return false
}
