package repository

import (
	"context"
	"time"

	"guildlink/internal/models"
	"guildlink/internal/observability"

	"gorm.io/gorm"
)

// ConsentmentRepository persists link consent records.
type ConsentmentRepository interface {
	// Create stores an active consentment. A second active row for the same VID is a conflict.
	Create(ctx context.Context, c *models.Consentment) error
	// RemoveActive deactivates every active consentment of the VID.
	RemoveActive(ctx context.Context, vid int64) error
	// HasOtherActiveLink reports whether the VID has an active consentment for another chat id.
	HasOtherActiveLink(ctx context.Context, vid int64, chatID string) (bool, error)
	// OtherActiveLinks returns the active consentments of the VID bound to other chat ids.
	OtherActiveLinks(ctx context.Context, vid int64, chatID string) ([]models.Consentment, error)
	// ActiveLinks returns every active consentment of the VID.
	ActiveLinks(ctx context.Context, vid int64) ([]models.Consentment, error)
	// ListByVID returns the full consent history of the VID, newest first.
	ListByVID(ctx context.Context, vid int64) ([]models.Consentment, error)
}

type consentmentRepository struct {
	db *gorm.DB
}

// NewConsentmentRepository creates a new consentment repository
func NewConsentmentRepository(db *gorm.DB) ConsentmentRepository {
	return &consentmentRepository{db: db}
}

func (r *consentmentRepository) Create(ctx context.Context, c *models.Consentment) error {
	defer observability.TrackQuery("create", "consentments")()

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("An active consentment already exists for this member", err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *consentmentRepository) RemoveActive(ctx context.Context, vid int64) error {
	defer observability.TrackQuery("update", "consentments")()

	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&models.Consentment{}).
		Where("vid = ? AND active = ?", vid, true).
		Updates(map[string]interface{}{"active": false, "revoked_at": &now}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *consentmentRepository) HasOtherActiveLink(ctx context.Context, vid int64, chatID string) (bool, error) {
	defer observability.TrackQuery("count", "consentments")()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Consentment{}).
		Where("vid = ? AND active = ? AND chat_id <> ?", vid, true, chatID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *consentmentRepository) OtherActiveLinks(ctx context.Context, vid int64, chatID string) ([]models.Consentment, error) {
	defer observability.TrackQuery("select", "consentments")()

	var out []models.Consentment
	err := r.db.WithContext(ctx).
		Where("vid = ? AND active = ? AND chat_id <> ?", vid, true, chatID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *consentmentRepository) ActiveLinks(ctx context.Context, vid int64) ([]models.Consentment, error) {
	defer observability.TrackQuery("select", "consentments")()

	var out []models.Consentment
	err := r.db.WithContext(ctx).
		Where("vid = ? AND active = ?", vid, true).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *consentmentRepository) ListByVID(ctx context.Context, vid int64) ([]models.Consentment, error) {
	defer observability.TrackQuery("select", "consentments")()

	var out []models.Consentment
	err := readDB(r.db).WithContext(ctx).
		Where("vid = ?", vid).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
