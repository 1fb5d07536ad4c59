package seed

import (
	"context"
	"fmt"

	"guildlink/internal/models"
	"guildlink/internal/repository"
	"guildlink/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoVIDBase is the first member id used by DemoConsentments.
const DemoVIDBase = 900000

// DemoConsentments inserts n active consentments with fake members for local development.
// Every fifth member is staff.
func DemoConsentments(ctx context.Context, repo repository.ConsentmentRepository, roles []models.Role, n int) error {
	for i := 0; i < n; i++ {
		p := models.Profile{
			VID:        int64(DemoVIDBase + i),
			FirstName:  gofakeit.FirstName() + " " + gofakeit.LastName(),
			Division:   gofakeit.CountryAbr(),
			Rating:     int(models.AccountStatusActive),
			HoursPilot: float64(gofakeit.Number(6, 2000) * 3600),
		}
		if i%5 == 0 && len(roles) > 1 {
			staff := roles[1+i%(len(roles)-1)].Tokens()[0]
			p.Staff = &staff
		}

		m := models.NewMember(p)
		m.BindChat(gofakeit.Numerify("##################"), "")

		if err := repo.Create(ctx, models.NewConsentment(m, models.RoleSuffixes(service.ResolveRoles(roles, m)))); err != nil {
			return fmt.Errorf("seed consentment %d: %w", i, err)
		}
	}
	return nil
}
