package database

import "guildlink/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Consentment{},
		&models.RoleCatalogEntry{},
		&models.AuditEvent{},
	}
}
