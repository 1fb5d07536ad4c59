package models

import "strings"

// GuildRole is a role defined in the chat guild.
type GuildRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Guild is the chat community the member joins. It is fetched per operation.
type Guild struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Roles []GuildRole `json:"roles"`
}

// FindRole returns the guild role named suffix, ignoring case. Without an exact match it
// returns the first role whose last word is suffix.
func (g *Guild) FindRole(suffix string) (GuildRole, bool) {
	if g == nil || suffix == "" {
		return GuildRole{}, false
	}
	want := strings.ToLower(suffix)
	for _, r := range g.Roles {
		if strings.ToLower(r.Name) == want {
			return r, true
		}
	}
	for _, r := range g.Roles {
		if strings.HasSuffix(strings.ToLower(r.Name), " "+want) {
			return r, true
		}
	}
	return GuildRole{}, false
}
