package service

import (
	"context"
	"time"

	"guildlink/internal/cache"
	"guildlink/internal/models"
	"guildlink/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogService serves the role catalog from Redis, falling back to the database.
// Concurrent misses share one database read.
type CatalogService struct {
	repo repository.RoleCatalogRepository
	rdb  *redis.Client
	ttl  time.Duration
	sf   singleflight.Group
}

// NewCatalogService returns a catalog backed by repo. rdb may be nil.
func NewCatalogService(repo repository.RoleCatalogRepository, rdb *redis.Client, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = cache.RoleCatalogTTL
	}
	return &CatalogService{repo: repo, rdb: rdb, ttl: ttl}
}

// Roles returns the catalog in position order.
func (s *CatalogService) Roles(ctx context.Context) ([]models.Role, error) {
	v, err, _ := s.sf.Do(cache.RoleCatalogKey, func() (interface{}, error) {
		var roles []models.Role
		err := cache.Aside(ctx, s.rdb, cache.RoleCatalogKey, &roles, s.ttl, func() error {
			entries, err := s.repo.List(ctx)
			if err != nil {
				return err
			}
			roles = make([]models.Role, 0, len(entries))
			for _, e := range entries {
				roles = append(roles, e.Role())
			}
			return nil
		})
		return roles, err
	})
	if err != nil {
		return nil, err
	}
	// Callers must not share the singleflight result.
	return append([]models.Role(nil), v.([]models.Role)...), nil
}

// Replace stores a new catalog and drops the cached copy.
func (s *CatalogService) Replace(ctx context.Context, roles []models.Role) error {
	entries := make([]models.RoleCatalogEntry, 0, len(roles))
	for i, r := range roles {
		entries = append(entries, models.RoleCatalogEntry{Suffix: r.Suffix, Position: i})
	}
	if err := s.repo.Replace(ctx, entries); err != nil {
		return err
	}
	cache.InvalidateRoleCatalog(ctx, s.rdb)
	return nil
}
