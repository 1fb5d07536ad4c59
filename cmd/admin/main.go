// Package main provides operator utilities for guildlink.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"guildlink/internal/config"
	"guildlink/internal/middleware"
	"guildlink/internal/models"
	"guildlink/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go list <vid>     - Show a member's consentments")
		fmt.Println("  go run ./cmd/admin/main.go revoke <vid>   - Revoke a member's link")
		fmt.Println("  go run ./cmd/admin/main.go watch          - Stream critical audit events")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "list":
		listConsentments(ctx, srv, vidArg("list"))
	case "revoke":
		revoke(ctx, srv, vidArg("revoke"))
	case "watch":
		watch(srv)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func vidArg(command string) int64 {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <vid>\n", command)
		os.Exit(1)
	}
	vid, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil || vid <= 0 {
		fmt.Printf("Invalid vid: %s\n", os.Args[2])
		os.Exit(1)
	}
	return vid
}

func listConsentments(ctx context.Context, srv *server.Server, vid int64) {
	rows, err := srv.Consentments().ListByVID(ctx, vid)
	if err != nil {
		log.Fatalf("Failed to fetch consentments: %v", err)
	}
	if len(rows) == 0 {
		fmt.Printf("No consentments for vid %d\n", vid)
		return
	}

	fmt.Println("─────────────────────────────────────")
	for _, c := range rows {
		state := "revoked"
		if c.Active {
			state = "active"
		}
		fmt.Printf("ID: %d | Chat: %s | %s | %s | Roles: %s\n",
			c.ID, c.ChatID, state, c.CreatedAt.Format("2006-01-02 15:04"), c.Roles)
	}
	fmt.Println("─────────────────────────────────────")
}

func revoke(ctx context.Context, srv *server.Server, vid int64) {
	report, err := srv.Authorization().Revoke(middleware.WithVID(ctx, vid), vid)
	if err != nil {
		log.Fatalf("Revoke failed: %v", err)
	}
	fmt.Printf("Revoked %d consentment(s) for vid %d\n", report.Revoked, vid)
	for _, id := range report.Removed {
		fmt.Printf("  removed from guild: %s\n", id)
	}
	for _, id := range report.Failed {
		fmt.Printf("  could not remove:   %s\n", id)
	}
}

func watch(srv *server.Server) {
	n := srv.Notifier()
	if n == nil {
		log.Fatal("Redis is required to watch audit events")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := n.StartAuditSubscriber(ctx, func(ev models.AuditEvent) {
		if ev.Level != models.AuditLevelCritical && ev.Level != models.AuditLevelWarning {
			return
		}
		fmt.Printf("[%s] %s vid=%d %s %v\n", ev.Level, ev.Event, ev.VID, ev.Nickname, ev.Fields)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	fmt.Println("Watching audit events, Ctrl+C to stop")
	<-ctx.Done()
}
