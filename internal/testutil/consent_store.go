// Package testutil provides shared test doubles and fixtures for guildlink tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"guildlink/internal/models"
)

// ConsentStoreStub is an in-memory consentment repository. It enforces one active row per VID
// like the partial unique index does.
type ConsentStoreStub struct {
	mu     sync.Mutex
	rows   []*models.Consentment
	nextID uint

	// Err, when set, is returned by every call.
	Err error
}

// NewConsentStoreStub returns an empty store.
func NewConsentStoreStub() *ConsentStoreStub {
	return &ConsentStoreStub{nextID: 1}
}

// Seed inserts rows as they are, bypassing the uniqueness check.
func (s *ConsentStoreStub) Seed(rows ...models.Consentment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range rows {
		row := rows[i]
		row.ID = s.nextID
		s.nextID++
		s.rows = append(s.rows, &row)
	}
}

// Create stores an active consentment.
func (s *ConsentStoreStub) Create(_ context.Context, c *models.Consentment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if c.Active {
		for _, row := range s.rows {
			if row.VID == c.VID && row.Active {
				return models.NewConflictError("An active consentment already exists for this member", nil)
			}
		}
	}
	now := time.Now().UTC()
	c.ID = s.nextID
	s.nextID++
	c.CreatedAt, c.UpdatedAt = now, now
	row := *c
	s.rows = append(s.rows, &row)
	return nil
}

// RemoveActive deactivates the VID's active rows.
func (s *ConsentStoreStub) RemoveActive(_ context.Context, vid int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	now := time.Now().UTC()
	for _, row := range s.rows {
		if row.VID == vid && row.Active {
			row.Active = false
			row.RevokedAt = &now
		}
	}
	return nil
}

// HasOtherActiveLink reports active rows of vid bound to another chat id.
func (s *ConsentStoreStub) HasOtherActiveLink(ctx context.Context, vid int64, chatID string) (bool, error) {
	rows, err := s.OtherActiveLinks(ctx, vid, chatID)
	return len(rows) > 0, err
}

// OtherActiveLinks returns active rows of vid bound to another chat id.
func (s *ConsentStoreStub) OtherActiveLinks(_ context.Context, vid int64, chatID string) ([]models.Consentment, error) {
	return s.filter(func(c *models.Consentment) bool {
		return c.VID == vid && c.Active && c.ChatID != chatID
	})
}

// ActiveLinks returns the active rows of vid.
func (s *ConsentStoreStub) ActiveLinks(_ context.Context, vid int64) ([]models.Consentment, error) {
	return s.filter(func(c *models.Consentment) bool {
		return c.VID == vid && c.Active
	})
}

// ListByVID returns every row of vid, newest first.
func (s *ConsentStoreStub) ListByVID(_ context.Context, vid int64) ([]models.Consentment, error) {
	out, err := s.filter(func(c *models.Consentment) bool { return c.VID == vid })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

// Active returns the active rows of vid without error handling, for assertions.
func (s *ConsentStoreStub) Active(vid int64) []models.Consentment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Consentment
	for _, row := range s.rows {
		if row.VID == vid && row.Active {
			out = append(out, *row)
		}
	}
	return out
}

func (s *ConsentStoreStub) filter(keep func(*models.Consentment) bool) ([]models.Consentment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Consentment{}
	for _, row := range s.rows {
		if keep(row) {
			out = append(out, *row)
		}
	}
	return out, nil
}
