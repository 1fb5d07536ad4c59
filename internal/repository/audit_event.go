package repository

import (
	"context"

	"guildlink/internal/models"
	"guildlink/internal/observability"

	"gorm.io/gorm"
)

// AuditEventRepository appends and reads audit events.
type AuditEventRepository interface {
	Create(ctx context.Context, event *models.AuditEvent) error
	ListByVID(ctx context.Context, vid int64, limit int) ([]models.AuditEvent, error)
}

type auditEventRepository struct {
	db *gorm.DB
}

// NewAuditEventRepository creates a new audit event repository
func NewAuditEventRepository(db *gorm.DB) AuditEventRepository {
	return &auditEventRepository{db: db}
}

func (r *auditEventRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	defer observability.TrackQuery("create", "audit_events")()

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *auditEventRepository) ListByVID(ctx context.Context, vid int64, limit int) ([]models.AuditEvent, error) {
	defer observability.TrackQuery("select", "audit_events")()

	var out []models.AuditEvent
	err := readDB(r.db).WithContext(ctx).
		Where("vid = ?", vid).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
