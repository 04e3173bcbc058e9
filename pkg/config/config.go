package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	HTTP         HTTPConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Auth         AuthConfig
	CORS         CORSConfig
	Log          LogConfig
	Pages        PagesConfig
	StatsRefresh StatsRefreshConfig
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
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

// CacheConfig toggles Redis caching of reference data (universities, faculties, categories).
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// AuthConfig describes the external identity provider and the session cookie.
type AuthConfig struct {
	ProviderURL    string
	ProviderAPIKey string
	JWTSecret      string
	Audience       string
	CookieName     string
	CookieSecure   bool
	RequestTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PagesConfig tunes page sizes for the HTML page tree and the JSON API.
type PagesConfig struct {
	SubjectsPerPage int
	ReviewsPerPage  int
	APIDefaultLimit int
}

// StatsRefreshConfig drives the background refresh of the subjects_with_stats view.
type StatsRefreshConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.HTTP = HTTPConfig{
		ReadTimeout:     parseDuration(v.GetString("HTTP_READ_TIMEOUT"), 15*time.Second),
		WriteTimeout:    parseDuration(v.GetString("HTTP_WRITE_TIMEOUT"), 30*time.Second),
		ShutdownTimeout: parseDuration(v.GetString("HTTP_SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

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

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.Auth = AuthConfig{
		ProviderURL:    strings.TrimRight(v.GetString("AUTH_PROVIDER_URL"), "/"),
		ProviderAPIKey: v.GetString("AUTH_PROVIDER_API_KEY"),
		JWTSecret:      v.GetString("AUTH_JWT_SECRET"),
		Audience:       v.GetString("AUTH_JWT_AUDIENCE"),
		CookieName:     v.GetString("AUTH_COOKIE_NAME"),
		CookieSecure:   v.GetBool("AUTH_COOKIE_SECURE"),
		RequestTimeout: parseDuration(v.GetString("AUTH_REQUEST_TIMEOUT"), 10*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Pages = PagesConfig{
		SubjectsPerPage: positiveOr(v.GetInt("SUBJECTS_PER_PAGE"), 12),
		ReviewsPerPage:  positiveOr(v.GetInt("REVIEWS_PER_PAGE"), 10),
		APIDefaultLimit: positiveOr(v.GetInt("API_DEFAULT_LIMIT"), 10),
	}

	cfg.StatsRefresh = StatsRefreshConfig{
		Enabled:    v.GetBool("ENABLE_STATS_REFRESH"),
		Workers:    positiveOr(v.GetInt("STATS_REFRESH_WORKERS"), 1),
		MaxRetries: positiveOr(v.GetInt("STATS_REFRESH_RETRIES"), 3),
		RetryDelay: parseDuration(v.GetString("STATS_REFRESH_RETRY_DELAY"), 5*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "30s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "unirate")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("AUTH_PROVIDER_URL", "http://localhost:9999")
	v.SetDefault("AUTH_PROVIDER_API_KEY", "")
	v.SetDefault("AUTH_JWT_SECRET", "dev_secret")
	v.SetDefault("AUTH_JWT_AUDIENCE", "authenticated")
	v.SetDefault("AUTH_COOKIE_NAME", "unirate_session")
	v.SetDefault("AUTH_COOKIE_SECURE", false)
	v.SetDefault("AUTH_REQUEST_TIMEOUT", "10s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUBJECTS_PER_PAGE", 12)
	v.SetDefault("REVIEWS_PER_PAGE", 10)
	v.SetDefault("API_DEFAULT_LIMIT", 10)

	v.SetDefault("ENABLE_STATS_REFRESH", true)
	v.SetDefault("STATS_REFRESH_WORKERS", 1)
	v.SetDefault("STATS_REFRESH_RETRIES", 3)
	v.SetDefault("STATS_REFRESH_RETRY_DELAY", "5s")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
