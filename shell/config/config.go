package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names.
const (
	EnvHTTPAddr              = "HTTP_ADDR"
	EnvDatabaseURL           = "DATABASE_URL"
	EnvDBAdapter             = "DB_ADAPTER"
	EnvInternalAuthSecret    = "INTERNAL_AUTH_SECRET"
	EnvJWTSecret             = "JWT_SECRET"
	EnvAuthorityURL          = "AUTHORITY_URL"
	EnvCatalogURL            = "CATALOG_URL"
	EnvRedisAddr             = "REDIS_ADDR"
	EnvCatalogCacheTTL       = "CATALOG_CACHE_TTL"
	EnvKafkaBrokers          = "KAFKA_BROKERS"
	EnvKafkaTopicCopyStatus  = "KAFKA_TOPIC_COPY_STATUS"
	EnvKafkaTopicDueSoon     = "KAFKA_TOPIC_RENTAL_DUE_SOON"
	EnvKafkaGroupID          = "KAFKA_GROUP_ID"
	EnvOTelEnabled           = "OTEL_ENABLED"
	EnvOTelEndpoint          = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvServiceVersion        = "SERVICE_VERSION"
	EnvMaxActiveRentals      = "MAX_ACTIVE_RENTALS"
	EnvMaxActiveReservations = "MAX_ACTIVE_RESERVATIONS"
	EnvReservationWindowDays = "RESERVATION_WINDOW_DAYS"
	EnvDefaultExtensionDays  = "DEFAULT_EXTENSION_DAYS"
	EnvReminderDaysBeforeDue = "REMINDER_DAYS_BEFORE_DUE"
	EnvSweepInterval         = "SWEEP_INTERVAL"
	EnvReminderInterval      = "REMINDER_INTERVAL"
)

// Supported values of DB_ADAPTER.
const (
	AdapterPGXPool = "pgxpool"
	AdapterSQLDB   = "sqldb"
	AdapterSQLX    = "sqlx"
)

// ErrInvalidConfig is returned by Load when a variable is missing or malformed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings shared by all service binaries. Each binary uses the subset it needs.
type Config struct {
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string

	DatabaseURL string
	DBAdapter   string

	InternalAuthSecret string
	JWTSecret          string

	AuthorityURL    string
	CatalogURL      string
	RedisAddr       string
	CatalogCacheTTL time.Duration

	KafkaBrokers        []string
	KafkaTopicCopyState string
	KafkaTopicDueSoon   string
	KafkaGroupID        string

	OTelEnabled  bool
	OTelEndpoint string

	MaxActiveRentals      int
	MaxActiveReservations int
	ReservationWindowDays int
	DefaultExtensionDays  int
	ReminderDaysBeforeDue int
	SweepInterval         time.Duration
	ReminderInterval      time.Duration
}

// ReservationWindow is ReservationWindowDays as a duration.
func (c Config) ReservationWindow() time.Duration {
	return time.Duration(c.ReservationWindowDays) * 24 * time.Hour
}

// KafkaEnabled reports whether at least one broker is configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads the configuration for serviceName from the environment.
// Every variable named in required must be set to a non-empty value.
func Load(serviceName string, required ...string) (Config, error) {
	env := &envReader{}

	for _, key := range required {
		env.must(key)
	}

	cfg := Config{
		ServiceName:    serviceName,
		ServiceVersion: env.getenv(EnvServiceVersion, "dev"),
		HTTPAddr:       env.getenv(EnvHTTPAddr, ":8080"),

		DatabaseURL: env.getenv(EnvDatabaseURL, ""),
		DBAdapter:   env.oneOf(EnvDBAdapter, AdapterPGXPool, AdapterPGXPool, AdapterSQLDB, AdapterSQLX),

		InternalAuthSecret: env.getenv(EnvInternalAuthSecret, ""),
		JWTSecret:          env.getenv(EnvJWTSecret, ""),

		AuthorityURL:    env.getenv(EnvAuthorityURL, "http://localhost:8081"),
		CatalogURL:      env.getenv(EnvCatalogURL, ""),
		RedisAddr:       env.getenv(EnvRedisAddr, ""),
		CatalogCacheTTL: env.duration(EnvCatalogCacheTTL, 10*time.Minute),

		KafkaBrokers:        env.list(EnvKafkaBrokers),
		KafkaTopicCopyState: env.getenv(EnvKafkaTopicCopyStatus, "inventory.copy-status-changed"),
		KafkaTopicDueSoon:   env.getenv(EnvKafkaTopicDueSoon, "rental.due-soon"),
		KafkaGroupID:        env.getenv(EnvKafkaGroupID, serviceName),

		OTelEnabled:  env.boolean(EnvOTelEnabled, false),
		OTelEndpoint: env.getenv(EnvOTelEndpoint, "localhost:4317"),

		MaxActiveRentals:      env.positiveInt(EnvMaxActiveRentals, 5),
		MaxActiveReservations: env.positiveInt(EnvMaxActiveReservations, 3),
		ReservationWindowDays: env.positiveInt(EnvReservationWindowDays, 3),
		DefaultExtensionDays:  env.positiveInt(EnvDefaultExtensionDays, 7),
		ReminderDaysBeforeDue: env.positiveInt(EnvReminderDaysBeforeDue, 3),
		SweepInterval:         env.duration(EnvSweepInterval, time.Hour),
		ReminderInterval:      env.duration(EnvReminderInterval, 24*time.Hour),
	}

	if err := env.err(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

type envReader struct {
	errs []error
}

func (r *envReader) fail(key, reason string) {
	r.errs = append(r.errs, fmt.Errorf("%s: %s", key, reason))
}

func (r *envReader) err() error {
	if len(r.errs) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, r.errs...)...)
}

func (r *envReader) getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return def
}

func (r *envReader) must(key string) string {
	v := r.getenv(key, "")
	if v == "" {
		r.fail(key, "required env missing")
	}

	return v
}

func (r *envReader) oneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(r.getenv(key, def))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}

	r.fail(key, fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, "|"), v))

	return def
}

func (r *envReader) positiveInt(key string, def int) int {
	raw := r.getenv(key, "")
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		r.fail(key, fmt.Sprintf("must be a positive integer, got %q", raw))
		return def
	}

	return v
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	raw := r.getenv(key, "")
	if raw == "" {
		return def
	}

	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		r.fail(key, fmt.Sprintf("must be a positive duration, got %q", raw))
		return def
	}

	return v
}

func (r *envReader) boolean(key string, def bool) bool {
	raw := r.getenv(key, "")
	if raw == "" {
		return def
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, fmt.Sprintf("must be a boolean, got %q", raw))
		return def
	}

	return v
}

func (r *envReader) list(key string) []string {
	raw := r.getenv(key, "")
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
