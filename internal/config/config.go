// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Config holds server settings.
type Config struct {
	HTTPAddr        string
	DBPath          string
	UploadDir       string
	MaxUploadBytes  int64
	JWTSecret       []byte
	JWTIssuer       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
	Superadmin      SuperadminConfig
	OTelEndpoint    string
	OTelEnabled     bool
}

// SuperadminConfig seeds the first superadmin account. Empty email disables it.
type SuperadminConfig struct {
	Email    string
	Password string
	Name     string
}

type rawEnv struct {
	HTTPAddr           string        `env:"COURIER_HTTP_ADDR"            envDefault:":8080"`
	DBPath             string        `env:"COURIER_DB_PATH"              envDefault:"./courier.db"`
	UploadDir          string        `env:"COURIER_UPLOAD_DIR"           envDefault:"./uploads"`
	MaxUploadSize      string        `env:"COURIER_MAX_UPLOAD_SIZE"      envDefault:"10 MB"`
	JWTSecret          string        `env:"COURIER_JWT_SECRET"`
	JWTIssuer          string        `env:"COURIER_JWT_ISSUER"           envDefault:"courier-dispatch"`
	TokenTTL           time.Duration `env:"COURIER_TOKEN_TTL"            envDefault:"12h"`
	ShutdownTimeout    time.Duration `env:"COURIER_SHUTDOWN_TIMEOUT"     envDefault:"10s"`
	SuperadminEmail    string        `env:"COURIER_SUPERADMIN_EMAIL"`
	SuperadminPassword string        `env:"COURIER_SUPERADMIN_PASSWORD"`
	SuperadminName     string        `env:"COURIER_SUPERADMIN_NAME"      envDefault:"Superadmin"`
	OTelEndpoint       string        `env:"COURIER_OTEL_ENDPOINT"`
	OTelEnabled        string        `env:"COURIER_OTEL_ENABLED"`
}

// Load reads dotenvPath (if present) and then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var raw rawEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw rawEnv) (Config, error) {
	secret := strings.TrimSpace(raw.JWTSecret)
	if secret == "" {
		return Config{}, fmt.Errorf("COURIER_JWT_SECRET is required")
	}

	maxUpload, err := humanize.ParseBytes(raw.MaxUploadSize)
	if err != nil {
		return Config{}, fmt.Errorf("parse COURIER_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload == 0 {
		return Config{}, fmt.Errorf("COURIER_MAX_UPLOAD_SIZE must be positive")
	}
	if raw.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("COURIER_TOKEN_TTL must be positive")
	}

	superEmail := strings.ToLower(strings.TrimSpace(raw.SuperadminEmail))
	if superEmail != "" && raw.SuperadminPassword == "" {
		return Config{}, fmt.Errorf("COURIER_SUPERADMIN_PASSWORD is required when COURIER_SUPERADMIN_EMAIL is set")
	}

	return Config{
		HTTPAddr:        raw.HTTPAddr,
		DBPath:          raw.DBPath,
		UploadDir:       raw.UploadDir,
		MaxUploadBytes:  int64(maxUpload),
		JWTSecret:       []byte(secret),
		JWTIssuer:       raw.JWTIssuer,
		TokenTTL:        raw.TokenTTL,
		ShutdownTimeout: raw.ShutdownTimeout,
		Superadmin: SuperadminConfig{
			Email:    superEmail,
			Password: raw.SuperadminPassword,
			Name:     strings.TrimSpace(raw.SuperadminName),
		},
		OTelEndpoint: strings.TrimSpace(raw.OTelEndpoint),
		OTelEnabled:  !strings.EqualFold(strings.TrimSpace(raw.OTelEnabled), "false"),
	}, nil
}
