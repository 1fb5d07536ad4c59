// Package seed loads the role catalog and development fixtures.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"guildlink/internal/models"
	"guildlink/internal/validation"

	"gopkg.in/yaml.v3"
)

// RoleCatalogFile is the YAML layout of the role catalog, in catalog order:
//
//	roles:
//	  - Member
//	  - DIR:ADIR
type RoleCatalogFile struct {
	Roles []string `yaml:"roles"`
}

// CatalogReplacer stores a new role catalog.
type CatalogReplacer interface {
	Replace(ctx context.Context, roles []models.Role) error
}

// ParseRoleCatalog decodes and validates a catalog document.
func ParseRoleCatalog(raw []byte) ([]models.Role, error) {
	var file RoleCatalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("role catalog is empty")
	}

	seen := make(map[string]bool, len(file.Roles))
	roles := make([]models.Role, 0, len(file.Roles))
	for i, suffix := range file.Roles {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			return nil, fmt.Errorf("role catalog entry %d is empty", i)
		}
		if err := validation.ValidateRoleSuffix(suffix); err != nil {
			return nil, err
		}
		if seen[suffix] {
			return nil, fmt.Errorf("role catalog lists %q twice", suffix)
		}
		seen[suffix] = true
		roles = append(roles, models.Role{Suffix: suffix})
	}
	if !seen[models.MemberSuffix] {
		return nil, fmt.Errorf("role catalog must contain the %q role", models.MemberSuffix)
	}
	return roles, nil
}

// LoadRoleCatalog reads and validates the catalog file at path.
func LoadRoleCatalog(path string) ([]models.Role, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}
	return ParseRoleCatalog(raw)
}

// RoleCatalog replaces the stored catalog with the file at path and returns the role count.
func RoleCatalog(ctx context.Context, r CatalogReplacer, path string) (int, error) {
	roles, err := LoadRoleCatalog(path)
	if err != nil {
		return 0, err
	}
	if err := r.Replace(ctx, roles); err != nil {
		return 0, fmt.Errorf("store role catalog: %w", err)
	}
	return len(roles), nil
}
