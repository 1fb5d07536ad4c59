package repository

import (
	"context"

	"guildlink/internal/models"
	"guildlink/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleCatalogRepository stores the ordered role catalog.
type RoleCatalogRepository interface {
	List(ctx context.Context) ([]models.RoleCatalogEntry, error)
	// Replace upserts entries by suffix and deletes suffixes no longer listed.
	Replace(ctx context.Context, entries []models.RoleCatalogEntry) error
}

type roleCatalogRepository struct {
	db *gorm.DB
}

// NewRoleCatalogRepository creates a new role catalog repository
func NewRoleCatalogRepository(db *gorm.DB) RoleCatalogRepository {
	return &roleCatalogRepository{db: db}
}

func (r *roleCatalogRepository) List(ctx context.Context) ([]models.RoleCatalogEntry, error) {
	defer observability.TrackQuery("select", "role_catalog_entries")()

	var out []models.RoleCatalogEntry
	if err := readDB(r.db).WithContext(ctx).Order("position ASC, id ASC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *roleCatalogRepository) Replace(ctx context.Context, entries []models.RoleCatalogEntry) error {
	defer observability.TrackQuery("upsert", "role_catalog_entries")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		suffixes := make([]string, 0, len(entries))
		for i := range entries {
			entry := entries[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "suffix"}},
				DoUpdates: clause.AssignmentColumns([]string{"position", "updated_at"}),
			}).Create(&entry).Error; err != nil {
				return err
			}
			suffixes = append(suffixes, entry.Suffix)
		}

		stale := tx.Model(&models.RoleCatalogEntry{})
		if len(suffixes) > 0 {
			stale = stale.Where("suffix NOT IN ?", suffixes)
		} else {
			stale = stale.Where("1 = 1")
		}
		return stale.Delete(&models.RoleCatalogEntry{}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
