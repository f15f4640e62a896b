// Package main provides a tool to bootstrap admin accounts.
//
// Registration only creates artists, so the first admin is made here:
// either a new account or an existing user promoted by email.
//
// Usage:
//
//	DATA_PATH=~/WallpaperHub/data go run ./cmd/seed --username admin --email admin@example.com --password s3cret
//	DATA_PATH=~/WallpaperHub/data go run ./cmd/seed --promote artist@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wallpaperhub/wallpaper-server/internal/auth"
	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/id"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
	"github.com/wallpaperhub/wallpaper-server/internal/store/sqlite"
)

var (
	username = flag.String("username", "", "Username for a new admin")
	email    = flag.String("email", "", "Email for a new admin")
	password = flag.String("password", "", "Password for a new admin (or ADMIN_PASSWORD)")
	promote  = flag.String("promote", "", "Email of an existing user to promote to admin")
)

func main() {
	flag.Parse()
	quiet := slog.New(slog.DiscardHandler)

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/WallpaperHub/data")
	}
	dbPath := filepath.Join(dataPath, "wallpapers.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, quiet)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if *promote != "" {
		if err := promoteUser(ctx, s, *promote); err != nil {
			log.Fatalf("Failed to promote %s: %v", *promote, err)
		}
		return
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv("ADMIN_PASSWORD")
	}
	if *username == "" || *email == "" || pw == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := createAdmin(ctx, s, *username, *email, pw); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
}

func promoteUser(ctx context.Context, s *sqlite.Store, email string) error {
	user, err := s.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		fmt.Printf("%s is already an admin\n", user.Username)
		return nil
	}

	user.Role = domain.RoleAdmin
	user.Touch()
	if err := s.UpdateUser(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Promoted %s (%s) to admin\n", user.Username, user.ID)
	return nil
}

func createAdmin(ctx context.Context, s *sqlite.Store, username, email, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser)},
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	user.InitTimestamps()

	if err := s.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return errors.New("username or email already registered, use --promote")
		}
		return err
	}

	fmt.Printf("Created admin %s (%s)\n", user.Username, user.ID)
	return nil
}
