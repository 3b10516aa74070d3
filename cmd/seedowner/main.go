// cmd/seedowner/main.go: creates or resets the demo owner account.
// Usage: SEED_EMAIL=demo@stockledger.local SEED_PASSWORD=... go run ./cmd/seedowner
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"stockledger/internal/config"
	"stockledger/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	email := strings.ToLower(getenv("SEED_EMAIL", "demo@stockledger.local"))
	name := getenv("SEED_NAME", "Demo Shop")
	password := getenv("SEED_PASSWORD", "stockledger-demo")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	result := db.WithContext(context.Background()).Exec(`
		INSERT INTO owners (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    name = EXCLUDED.name,
		    updated_at = NOW()
	`, uuid.New(), email, name, string(hash))
	if result.Error != nil {
		log.Fatal().Err(result.Error).Msg("insert error")
	}
	log.Info().Str("email", email).Msg("demo owner created or reset")
}
