package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/radcr/radcr-backend/internal/config"
	"github.com/radcr/radcr-backend/internal/database"
	"github.com/radcr/radcr-backend/internal/logger"
	"github.com/radcr/radcr-backend/internal/model"
	"github.com/radcr/radcr-backend/internal/repository"
	"github.com/radcr/radcr-backend/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Registration never touches sessions, so no Redis connection is needed.
	authService := service.NewAuthService(cfg, repository.NewUserRepository(pool), nil)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 64 {
		fmt.Println("Error: Username must be between 3 and 64 characters")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 || len(password) > 128 {
		fmt.Println("Error: Password must be between 6 and 128 characters")
		return
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil || string(confirm) != password {
		fmt.Println("Error: Passwords do not match")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	u, err := authService.Register(ctx, model.RegisterRequest{Username: username, Password: password})
	if errors.Is(err, service.ErrUsernameTaken) {
		fmt.Printf("Error: username '%s' is already taken\n", username)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' created with ID: %d\n", u.Username, u.ID)
}
