package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers supported by the registration store.
const (
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Store         StoreConfig
	Firebase      FirebaseConfig
	Institution   InstitutionConfig
	Roles         RolesConfig
	Events        EventsConfig
	Stats         StatsConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects the backend holding profiles, registrations and mail documents.
type StoreConfig struct {
	Driver string
}

// FirebaseConfig locates the managed backend project.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// InstitutionConfig describes the institutional email domain accepted at sign-in.
type InstitutionConfig struct {
	EmailDomain string
	Timezone    string
}

// RolesConfig carries the raw allow-lists used to build the role resolver.
type RolesConfig struct {
	AdminEmails              []string
	EventCoordinatorEmails   []string
	StudentCoordinatorEmails []string
	// EventAssignments maps a lower-cased coordinator email to the event ids they manage.
	EventAssignments map[string][]int
}

// EventsConfig points at the static event catalog.
type EventsConfig struct {
	File string
}

// StatsConfig governs caching of the admin dashboard aggregates.
type StatsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NotificationsConfig tunes the confirmation mail worker pool.
type NotificationsConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	From       string
}

// RateLimitConfig limits sign-in and registration calls per client IP.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{Driver: strings.ToLower(v.GetString("STORE_DRIVER"))}

	cfg.Firebase = FirebaseConfig{
		ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		CredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
	}

	cfg.Institution = InstitutionConfig{
		EmailDomain: v.GetString("INSTITUTION_EMAIL_DOMAIN"),
		Timezone:    v.GetString("TIMEZONE"),
	}

	cfg.Roles = RolesConfig{
		AdminEmails:              splitAndTrim(v.GetString("ADMIN_EMAILS")),
		EventCoordinatorEmails:   splitAndTrim(v.GetString("EVENT_COORDINATOR_EMAILS")),
		StudentCoordinatorEmails: splitAndTrim(v.GetString("STUDENT_COORDINATOR_EMAILS")),
		EventAssignments:         parseAssignments(v.GetString("EVENT_COORDINATOR_ASSIGNMENTS")),
	}

	cfg.Events = EventsConfig{File: v.GetString("EVENTS_FILE")}

	cfg.Stats = StatsConfig{
		CacheEnabled: v.GetBool("STATS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("STATS_CACHE_TTL"), time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		Retries:    v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
		From:       v.GetString("NOTIFY_FROM"),
	}

	cfg.RateLimit = RateLimitConfig{
		PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		Burst:     v.GetInt("RATE_LIMIT_BURST"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "fest")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "fest-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")

	v.SetDefault("INSTITUTION_EMAIL_DOMAIN", "@psgtech.ac.in")
	v.SetDefault("TIMEZONE", "Asia/Kolkata")

	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("EVENT_COORDINATOR_EMAILS", "")
	v.SetDefault("STUDENT_COORDINATOR_EMAILS", "")
	v.SetDefault("EVENT_COORDINATOR_ASSIGNMENTS", "")

	v.SetDefault("EVENTS_FILE", "configs/events.yaml")

	v.SetDefault("STATS_CACHE_ENABLED", false)
	v.SetDefault("STATS_CACHE_TTL", "1m")

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")
	v.SetDefault("NOTIFY_FROM", "")

	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("RATE_LIMIT_BURST", 10)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// parseAssignments reads "coord@x.in:1;2, other@x.in:5" into email -> event ids.
// Unparseable ids are skipped.
func parseAssignments(raw string) map[string][]int {
	result := make(map[string][]int)
	for _, entry := range splitAndTrim(raw) {
		email, ids, found := strings.Cut(entry, ":")
		if !found {
			continue
		}
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		for _, rawID := range strings.Split(ids, ";") {
			id, err := strconv.Atoi(strings.TrimSpace(rawID))
			if err != nil {
				continue
			}
			result[email] = append(result[email], id)
		}
	}
	return result
}
