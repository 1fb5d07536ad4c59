package testutil

import (
	"context"
	"sync"

	"guildlink/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// HoursToSeconds converts hours to the raw unit reported by the identity provider.
func HoursToSeconds(h float64) float64 {
	return h * 3600
}

// ActiveProfile returns a profile of an active, non-staff member with the given total hours
// and a random first and last name.
func ActiveProfile(vid int64, hours float64) models.Profile {
	return models.Profile{
		VID:        vid,
		FirstName:  gofakeit.FirstName() + " " + gofakeit.LastName(),
		Division:   gofakeit.CountryAbr(),
		Rating:     int(models.AccountStatusActive),
		HoursATC:   HoursToSeconds(hours / 2),
		HoursPilot: HoursToSeconds(hours / 2),
	}
}

// StaffProfile is ActiveProfile with staff positions, e.g. "DIR:ADIR".
func StaffProfile(vid int64, hours float64, staff string) models.Profile {
	p := ActiveProfile(vid, hours)
	p.Staff = &staff
	return p
}

// Guild returns a guild with one role per suffix named "<prefix> <suffix>".
func Guild(prefix string, suffixes ...string) *models.Guild {
	g := &models.Guild{ID: gofakeit.Numerify("##########"), Name: gofakeit.Company()}
	for _, s := range suffixes {
		g.Roles = append(g.Roles, models.GuildRole{ID: gofakeit.Numerify("r########"), Name: prefix + " " + s})
	}
	return g
}

// GuildStub is a GuildGateway whose calls are recorded and may be overridden.
type GuildStub struct {
	Guild *models.Guild

	ResolveGuildFn func(context.Context) (*models.Guild, error)
	AddMemberFn    func(context.Context, *models.Member, *models.Guild) error
	RemoveMemberFn func(context.Context, string, *models.Guild) error
	RoleNameFn     func(context.Context, *models.Guild, models.Role) (string, error)

	mu      sync.Mutex
	Added   []string
	Removed []string
}

func (s *GuildStub) ResolveGuild(ctx context.Context) (*models.Guild, error) {
	if s.ResolveGuildFn != nil {
		return s.ResolveGuildFn(ctx)
	}
	return s.Guild, nil
}

func (s *GuildStub) AddMember(ctx context.Context, m *models.Member, g *models.Guild) error {
	s.mu.Lock()
	s.Added = append(s.Added, m.ChatID)
	s.mu.Unlock()
	if s.AddMemberFn != nil {
		return s.AddMemberFn(ctx, m, g)
	}
	return nil
}

func (s *GuildStub) RemoveMember(ctx context.Context, chatID string, g *models.Guild) error {
	s.mu.Lock()
	s.Removed = append(s.Removed, chatID)
	s.mu.Unlock()
	if s.RemoveMemberFn != nil {
		return s.RemoveMemberFn(ctx, chatID, g)
	}
	return nil
}

func (s *GuildStub) RoleName(ctx context.Context, g *models.Guild, r models.Role) (string, error) {
	if s.RoleNameFn != nil {
		return s.RoleNameFn(ctx, g, r)
	}
	if gr, ok := g.FindRole(r.Suffix); ok {
		return gr.Name, nil
	}
	return r.Suffix, nil
}

// StaticCatalog is a RoleCatalog returning fixed suffixes.
type StaticCatalog []string

func (c StaticCatalog) Roles(context.Context) ([]models.Role, error) {
	out := make([]models.Role, 0, len(c))
	for _, s := range c {
		out = append(out, models.Role{Suffix: s})
	}
	return out, nil
}
