package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret          string        `envconfig:"JWT_SECRET" required:"true"`
	JWTRefreshSecret   string        `envconfig:"JWT_REFRESH_SECRET" required:"true"`
	TwoFactorJWTSecret string        `envconfig:"TWO_FA_JWT_SECRET"`
	JWTIssuer          string        `envconfig:"JWT_ISSUER" default:"agencyhub"`
	AccessTokenTTL     time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	SetupTokenTTL      time.Duration `envconfig:"SETUP_TOKEN_TTL" default:"30m"`
	VerifyTokenTTL     time.Duration `envconfig:"VERIFY_TOKEN_TTL" default:"10m"`
	ResetTokenTTL      time.Duration `envconfig:"RESET_TOKEN_TTL" default:"1h"`

	TwoFAAppName string `envconfig:"TWO_FA_APP_NAME" default:"AgencyHub"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" required:"true"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" required:"true"`

	SweepInterval time.Duration `envconfig:"ADMIN_EXPIRY_SWEEP_INTERVAL" default:"1h"`

	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	FromEmail    string `envconfig:"FROM_EMAIL" default:"onboarding@resend.dev"`
	FromName     string `envconfig:"FROM_NAME" default:"AgencyHub"`
	AppBaseURL   string `envconfig:"APP_BASE_URL"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %s", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) From() string {
	return c.FromName + " <" + c.FromEmail + ">"
}
