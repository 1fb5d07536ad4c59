// Package service contains the account linking workflow.
package service

import (
	"context"

	"guildlink/internal/models"
	"guildlink/internal/repository"
)

// IdentityProvider reads the network profile of the authenticated member.
type IdentityProvider interface {
	FetchProfile(ctx context.Context, accessToken string) (models.Profile, error)
}

// RoleCatalog returns the configured guild roles in catalog order.
type RoleCatalog interface {
	Roles(ctx context.Context) ([]models.Role, error)
}

// GuildGateway mutates membership of the destination guild.
type GuildGateway interface {
	ResolveGuild(ctx context.Context) (*models.Guild, error)
	AddMember(ctx context.Context, m *models.Member, g *models.Guild) error
	RemoveMember(ctx context.Context, chatID string, g *models.Guild) error
	RoleName(ctx context.Context, g *models.Guild, r models.Role) (string, error)
}

// IdentityLocker serializes work on one member id. The returned func releases the lock.
type IdentityLocker interface {
	Lock(ctx context.Context, vid int64) (func(), error)
}

// ConsentStore persists consentments.
type ConsentStore = repository.ConsentmentRepository
