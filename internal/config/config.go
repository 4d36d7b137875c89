package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	Database    DatabaseConfig
	Geocoder    GeocoderConfig
	Search      SearchConfig
	Submissions SubmissionsConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Kafka       KafkaConfig
	FCM         FCMConfig
	Map         MapConfig

	// RequestTimeout bounds every HTTP request, store and geocoder calls included.
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Driver      string // mysql, postgres or sqlite
	URL         string
	AutoMigrate bool
}

type GeocoderConfig struct {
	Provider  string // google or nominatim
	APIKey    string
	BaseURL   string
	UserAgent string
	// RateLimit is the outbound requests per second; 0 disables the limiter.
	RateLimit float64
	Timeout   time.Duration
}

type SearchConfig struct {
	NearbyLimit int
	// Diagnoses are the tags offered to clients as filters.
	Diagnoses []string
}

type SubmissionsConfig struct {
	PageSize int
}

type AuthConfig struct {
	JWTSecret         string
	AdminEmail        string
	AdminPasswordHash string
	TokenTTL          time.Duration
}

// Enabled reports whether admin routes are guarded by JWT.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" && a.AdminPasswordHash != ""
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CORSConfig struct {
	AllowOrigins []string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type FCMConfig struct {
	CredentialsFile string
	Topic           string
}

type MapConfig struct {
	DefaultLat float64
	DefaultLng float64
}

// Load reads .env files (when present) and the process environment.
// APP_ENV=production reads .env.production, anything else .env.local; a plain
// .env is read afterwards. Variables already set in the environment win.
func Load() (*Config, error) {
	envFile := ".env.local"
	if os.Getenv("APP_ENV") == "production" {
		envFile = ".env.production"
	}
	_ = godotenv.Load(envFile)
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var p parser

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Driver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			URL:         os.Getenv("DATABASE_URL"),
			AutoMigrate: p.bool("DB_AUTO_MIGRATE", true),
		},
		Geocoder: GeocoderConfig{
			Provider:  strings.ToLower(getEnv("GEOCODER_PROVIDER", "google")),
			APIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
			BaseURL:   os.Getenv("GEOCODER_BASE_URL"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "resource-locator/1.0"),
			RateLimit: p.float("GEOCODER_RATE_LIMIT", 0),
			Timeout:   p.duration("GEOCODER_TIMEOUT", 8*time.Second),
		},
		Search: SearchConfig{
			NearbyLimit: p.int("SEARCH_NEARBY_LIMIT", 10),
			Diagnoses:   getList("SEARCH_DIAGNOSES", []string{"ADHD", "Autism", "Anxiety", "Depression"}),
		},
		Submissions: SubmissionsConfig{
			PageSize: p.int("SUBMISSIONS_PAGE_SIZE", 10),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenTTL:          p.duration("TOKEN_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RPS:   p.float("RATE_LIMIT_RPS", 5),
			Burst: p.int("RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowOrigins: getList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000", "http://localhost:8081"}),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "resource-locator.events"),
		},
		FCM: FCMConfig{
			CredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
			Topic:           getEnv("FCM_TOPIC", "admins"),
		},
		Map: MapConfig{
			DefaultLat: p.float("MAP_DEFAULT_CENTER_LAT", 34.0522),
			DefaultLng: p.float("MAP_DEFAULT_CENTER_LNG", -118.2437),
		},
		RequestTimeout: p.duration("REQUEST_TIMEOUT", 10*time.Second),
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	switch c.Geocoder.Provider {
	case "google", "nominatim":
	default:
		return fmt.Errorf("config: unsupported GEOCODER_PROVIDER %q", c.Geocoder.Provider)
	}
	if c.Search.NearbyLimit < 1 {
		return fmt.Errorf("config: SEARCH_NEARBY_LIMIT must be positive")
	}
	if c.Submissions.PageSize < 1 {
		return fmt.Errorf("config: SUBMISSIONS_PAGE_SIZE must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser collects the first conversion error so FromEnv reads linearly.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config: invalid %s=%q: %w", key, raw, err)
	}
}

func (p *parser) int(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return v
}
