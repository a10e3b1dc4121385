// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/WismutNaN/resource-queue/internal/model"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable; required ones are enforced by must() and
// missing values cause the program to exit with a fatal log message.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	JWTSecret string // secret used to verify host-issued JWTs

	// Database is optional: when DBHost is empty the service runs with
	// in-memory storage only.
	DBUser        string
	DBPass        string
	DBHost        string
	DBPort        string
	DBName        string
	DBMaxOpen     int
	DBMaxIdle     int
	DBMaxLifetime time.Duration

	// Booking policy.
	MaxBookingMinutes int           // ceiling for a single book/extend request
	MaxSessionMinutes int           // cap on total tenure reachable via extends
	MaxQueueLen       int           // wait queue capacity per resource
	QueueOnFreeBooks  bool          // joinQueue on a free resource books it instead of failing
	PurgeHistory      bool          // drop history when a resource is deleted
	SweepInterval     time.Duration // how often the sweeper scans for lapsed reservations
	ExpiryWarning     time.Duration // lead time for the about-to-expire warning
	HistoryKeep       int           // per-resource history retention for the memory recorder

	Presets []model.DurationPreset // booking lengths offered to clients
}

// Load reads configuration values from environment variables.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		JWTSecret: must("JWT_SECRET"),

		DBUser:        os.Getenv("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		DBMaxOpen:     envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:     envInt("DB_MAX_IDLE_CONNS", 25),
		DBMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		MaxBookingMinutes: envInt("MAX_BOOKING_MINUTES", 1440),
		MaxSessionMinutes: envInt("MAX_SESSION_MINUTES", 1440),
		MaxQueueLen:       envInt("MAX_QUEUE_LEN", 20),
		QueueOnFreeBooks:  envBool("QUEUE_ON_FREE_BOOKS", false),
		PurgeHistory:      envBool("PURGE_HISTORY_ON_DELETE", false),
		SweepInterval:     envDur("SWEEP_INTERVAL", 5*time.Second),
		ExpiryWarning:     envDur("EXPIRY_WARNING", 10*time.Minute),
		HistoryKeep:       envInt("HISTORY_KEEP", 200),

		Presets: parsePresets(os.Getenv("BOOKING_PRESETS")),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// parsePresets reads "minutes:label" pairs separated by commas, e.g.
// "30:30 min,60:1 hour". An empty or malformed value falls back to the
// default preset list.
func parsePresets(s string) []model.DurationPreset {
	if s == "" {
		return defaultPresets()
	}
	var out []model.DurationPreset
	for _, part := range strings.Split(s, ",") {
		mins, label, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(mins))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, model.DurationPreset{Minutes: n, Label: strings.TrimSpace(label)})
	}
	if len(out) == 0 {
		return defaultPresets()
	}
	return out
}

func defaultPresets() []model.DurationPreset {
	return []model.DurationPreset{
		{Label: "30 min", Minutes: 30},
		{Label: "1 hour", Minutes: 60},
		{Label: "2 hours", Minutes: 120},
		{Label: "4 hours", Minutes: 240},
		{Label: "8 hours", Minutes: 480},
		{Label: "Rest of the day", Minutes: 600},
	}
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
