// Package main prints a summary of the database and recent push deliveries.
//
// The delivery log is locked by a running server, so stop it first.
//
// Usage:
//
//	DATA_PATH=~/WallpaperHub/data go run ./cmd/dbinspect
//	DATA_PATH=~/WallpaperHub/data go run ./cmd/dbinspect --wallpaper wp-abc123
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wallpaperhub/wallpaper-server/internal/deliverylog"
	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
	"github.com/wallpaperhub/wallpaper-server/internal/store/sqlite"
)

var (
	wallpaperID = flag.String("wallpaper", "", "Only show deliveries for this wallpaper")
	limit       = flag.Int("limit", 10, "Number of delivery reports to show")
)

func main() {
	flag.Parse()
	quiet := slog.New(slog.DiscardHandler)

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/WallpaperHub/data")
	}

	ctx := context.Background()

	s, err := sqlite.Open(filepath.Join(dataPath, "wallpapers.db"), quiet)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer s.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	approved, err := s.ListApprovedWallpapers(ctx, store.WallpaperFilter{})
	if err != nil {
		log.Fatalf("Failed to list wallpapers: %v", err)
	}
	pending, err := s.ListPendingWallpapers(ctx)
	if err != nil {
		log.Fatalf("Failed to list pending wallpapers: %v", err)
	}
	tokens, err := s.DistinctPushTokens(ctx)
	if err != nil {
		log.Fatalf("Failed to list push tokens: %v", err)
	}

	fmt.Printf("Approved wallpapers: %d\n", len(approved))
	fmt.Printf("Pending wallpapers: %d\n", len(pending))
	for i, p := range pending {
		if i == 5 {
			fmt.Printf("  ... and %d more\n", len(pending)-5)
			break
		}
		fmt.Printf("  %s %q by %s (%s)\n", p.ID, p.Title, p.Uploader.Username, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("Registered devices: %d\n", len(tokens))
	fmt.Println()

	reports, err := deliverylog.Open(filepath.Join(dataPath, "deliveries"), quiet)
	if err != nil {
		log.Fatalf("Failed to open delivery log: %v", err)
	}
	defer reports.Close()

	var recent []*domain.DeliveryReport
	if *wallpaperID != "" {
		recent, err = reports.ForWallpaper(ctx, *wallpaperID, *limit)
	} else {
		recent, err = reports.Recent(ctx, *limit)
	}
	if err != nil {
		log.Fatalf("Failed to read delivery log: %v", err)
	}

	fmt.Println("=== Recent Deliveries ===")
	for _, r := range recent {
		status := "ok"
		if !r.Delivered() {
			status = "INCOMPLETE"
		}
		fmt.Printf("%s %-9s %-10s messages=%d batches=%d failed=%d tickets ok/err=%d/%d\n",
			r.FinishedAt.Format("2006-01-02 15:04:05"), r.Kind, status,
			r.Messages, r.Batches, r.FailedBatches, r.TicketsOK, r.TicketsError)
		for _, e := range r.Errors {
			fmt.Printf("    %s\n", e)
		}
	}
	if len(recent) == 0 {
		fmt.Println("No deliveries recorded")
	}
}
