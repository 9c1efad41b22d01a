package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr   string
	CronSecret string

	SentryDSN string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Providers  ProvidersConfig
	Sync       SyncConfig
	Enrichment EnrichmentConfig
	Resolver   ResolverConfig
	Telemetry  TelemetryConfig
	Scheduler  SchedulerConfig

	TrackedAirports []string
}

// ProvidersConfig carries per-source credentials. An empty key disables the source.
type ProvidersConfig struct {
	AviationStackKey string
	AeroDataBoxKey   string
}

// SyncConfig tunes the reconciliation pass.
type SyncConfig struct {
	// AirportPacing is the fixed delay between airports in the tracked loop.
	// It exists to respect third-party rate limits, not for correctness.
	AirportPacing time.Duration
}

// EnrichmentConfig tunes the batch registration-resolution pass.
type EnrichmentConfig struct {
	BatchSize     int
	MaxAttempts   int
	RetryCooldown time.Duration
	LookupPacing  time.Duration
}

// ResolverConfig carries the staleness thresholds. The values are empirical,
// not derived from any SLA; keep them overridable per environment.
type ResolverConfig struct {
	ActiveStaleAfter    time.Duration
	ScheduledStaleAfter time.Duration
	NextLegMinAge       time.Duration
	GhostMinAge         time.Duration
}

// TelemetryConfig bounds the live-position snapshot query.
type TelemetryConfig struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// SchedulerConfig enables internal interval triggers for self-hosted deploys.
// A zero interval disables the corresponding pass; external cron stays the default.
type SchedulerConfig struct {
	SyncInterval    time.Duration
	CleanupInterval time.Duration
	EnrichInterval  time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "flightwatch"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr:   getenv("HTTP_ADDR", ":8080"),
		CronSecret: strings.TrimSpace(getenv("CRON_SECRET", "")),

		SentryDSN: strings.TrimSpace(getenv("SENTRY_DSN", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "flightwatch"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		Providers: ProvidersConfig{
			AviationStackKey: strings.TrimSpace(getenv("AVIATIONSTACK_API_KEY", "")),
			AeroDataBoxKey:   strings.TrimSpace(getenv("AERODATABOX_API_KEY", "")),
		},
		Sync: SyncConfig{
			AirportPacing: getenvDuration("SYNC_AIRPORT_PACING", 2*time.Second),
		},
		Enrichment: EnrichmentConfig{
			BatchSize:     getenvInt("ENRICH_BATCH_SIZE", 20),
			MaxAttempts:   getenvInt("ENRICH_MAX_ATTEMPTS", 3),
			RetryCooldown: getenvDuration("ENRICH_RETRY_COOLDOWN", 24*time.Hour),
			LookupPacing:  getenvDuration("ENRICH_LOOKUP_PACING", 300*time.Millisecond),
		},
		Resolver: ResolverConfig{
			ActiveStaleAfter:    getenvDuration("RESOLVER_ACTIVE_STALE_AFTER", 4*time.Hour),
			ScheduledStaleAfter: getenvDuration("RESOLVER_SCHEDULED_STALE_AFTER", 12*time.Hour),
			NextLegMinAge:       getenvDuration("RESOLVER_NEXT_LEG_MIN_AGE", 4*time.Hour),
			GhostMinAge:         getenvDuration("RESOLVER_GHOST_MIN_AGE", 45*time.Minute),
		},
		Telemetry: TelemetryConfig{
			LatMin: getenvFloat("TELEMETRY_LAT_MIN", 0),
			LatMax: getenvFloat("TELEMETRY_LAT_MAX", 14),
			LonMin: getenvFloat("TELEMETRY_LON_MIN", -75),
			LonMax: getenvFloat("TELEMETRY_LON_MAX", -58),
		},
		Scheduler: SchedulerConfig{
			SyncInterval:    getenvDuration("SCHEDULER_SYNC_INTERVAL", 0),
			CleanupInterval: getenvDuration("SCHEDULER_CLEANUP_INTERVAL", 0),
			EnrichInterval:  getenvDuration("SCHEDULER_ENRICH_INTERVAL", 0),
		},

		TrackedAirports: getenvList("TRACKED_AIRPORTS", nil),
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid int for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("config: invalid float for %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration for %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getenvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
