// Command main loads the role catalog and, outside production, demo consentments.
package main

import (
	"context"
	"flag"
	"log"

	"guildlink/internal/cache"
	"guildlink/internal/config"
	"guildlink/internal/database"
	"guildlink/internal/repository"
	"guildlink/internal/seed"
	"guildlink/internal/service"
)

func main() {
	file := flag.String("roles", "", "Role catalog file (defaults to ROLE_CATALOG_FILE)")
	demo := flag.Int("demo", 0, "Number of demo consentments to create")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *file != "" {
		cfg.RoleCatalogFile = *file
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Without Redis the running API keeps its cached catalog until the TTL expires.
	cache.InitRedis(cfg.RedisURL)

	ctx := context.Background()
	catalog := service.NewCatalogService(repository.NewRoleCatalogRepository(db), cache.GetClient(), 0)

	n, err := seed.RoleCatalog(ctx, catalog, cfg.RoleCatalogFile)
	if err != nil {
		log.Fatalf("Role catalog seeding failed: %v", err)
	}
	log.Printf("Loaded %d roles from %s", n, cfg.RoleCatalogFile)

	if *demo <= 0 {
		return
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to create demo consentments in production")
	}

	roles, err := catalog.Roles(ctx)
	if err != nil {
		log.Fatalf("Failed to read role catalog: %v", err)
	}
	if err := seed.DemoConsentments(ctx, repository.NewConsentmentRepository(db), roles, *demo); err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}
	log.Printf("Created %d demo consentments starting at vid %d", *demo, seed.DemoVIDBase)
}
