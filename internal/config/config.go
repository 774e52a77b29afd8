package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string
	LogLevel string

	// Timezone is the zone in which recurrence rules are interpreted.
	// Occurrences are always persisted in UTC regardless of this value.
	Timezone string

	// SchedulerCheckInterval is the tick period of the background loop.
	SchedulerCheckInterval time.Duration
	// SchedulerLookahead is how far ahead the notify phase scans for
	// unnotified occurrences.
	SchedulerLookahead time.Duration
	// SchedulerEnabled gates the background loop. The HTTP surface,
	// including the backfill endpoint, keeps working when it is off.
	SchedulerEnabled bool

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	Google GoogleConfig
	Notion NotionConfig

	// CheckinBaseURL is the public URL prefix encoded into QR codes
	// attached to external records.
	CheckinBaseURL string

	CORSAllowedOrigins []string
}

// GoogleConfig carries the OAuth credentials used by the form
// provisioning client. All three must be set for the real client to be
// selected; otherwise a no-op provider is used.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// NotionConfig carries the record-store credentials. Both must be set
// for the real client to be selected.
type NotionConfig struct {
	Token      string
	DatabaseID string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "attendly"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),
		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		Timezone: getenv("SCHEDULE_TIMEZONE", "Asia/Seoul"),

		SchedulerCheckInterval: getenvDuration("SCHEDULER_CHECK_INTERVAL", time.Hour),
		SchedulerLookahead:     getenvDuration("SCHEDULER_LOOKAHEAD", time.Hour),
		SchedulerEnabled:       getenvBool("SCHEDULER_ENABLED", true),

		DBType:     getenv("DATABASE_TYPE", "sqlite"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "attendly"),
		DBUser:     getenv("DATABASE_USER", "attendly"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		Google: GoogleConfig{
			ClientID:     strings.TrimSpace(getenv("GOOGLE_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getenv("GOOGLE_CLIENT_SECRET", "")),
			RefreshToken: strings.TrimSpace(getenv("GOOGLE_REFRESH_TOKEN", "")),
		},
		Notion: NotionConfig{
			Token:      strings.TrimSpace(getenv("NOTION_API_TOKEN", "")),
			DatabaseID: strings.TrimSpace(getenv("NOTION_DATABASE_ID", "")),
		},

		CheckinBaseURL: getenv("CHECKIN_BASE_URL", "https://www.elrc.run/checkin"),

		CORSAllowedOrigins: getenvList("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"https://www.elrc.run",
		}),
	}
}

// Location resolves the configured recurrence time zone.
func Location(cfg Config) (*time.Location, error) {
	return time.LoadLocation(cfg.Timezone)
}

func (g GoogleConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

func (n NotionConfig) Configured() bool {
	return n.Token != "" && n.DatabaseID != ""
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: invalid duration %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func getenvList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getenvBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(Location),
	fx.Provide(LoadRules),
)
