package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type DatabaseType string

const (
	MongoDB DatabaseType = "mongodb"
	SQLite  DatabaseType = "sqlite"
)

type CacheBackend string

const (
	CacheFile   CacheBackend = "file"
	CacheSQLite CacheBackend = "sqlite"
	CacheRedis  CacheBackend = "redis"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	JwtKey       []byte
	DatabaseType DatabaseType
	DatabaseName string
	// MongoDB config
	MongoURI string
	// SQLite config
	SQLitePath string

	GeminiAPIKey string
	GeminiModel  string
	AITimeout    time.Duration

	CacheBackend        CacheBackend
	CacheDir            string
	CacheTTL            time.Duration
	SmartSearchCacheMax int
	RedisAddr           string
	RedisPassword       string

	AllowedOrigins []string

	RestCountriesURL string
	WorldBankURL     string
	SyncOnStartup    bool
	PopulationYear   int
}

// IsProduction reports whether the service runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid integer: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s is not a valid boolean: %w", key, err)
	}
	return b, nil
}

// LoadConfig reads the environment, after loading .env when one exists
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	databaseName := getEnv("DATABASE_NAME", "worldatlas")

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is not set")
	}

	config := &Config{
		Port:           getEnv("PORT", "3001"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JwtKey:         []byte(jwtSecret),
		DatabaseType:   DatabaseType(getEnv("DATABASE_TYPE", string(MongoDB))),
		DatabaseName:   databaseName,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		CacheBackend:   CacheBackend(getEnv("CACHE_BACKEND", string(CacheFile))),
		CacheDir:       getEnv("CACHE_DIR", "cache"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		RestCountriesURL: getEnv("RESTCOUNTRIES_URL", "https://restcountries.com/v3.1"),
		WorldBankURL:     getEnv("WORLDBANK_URL", "https://api.worldbank.org/v2"),
	}

	var err error
	if config.AITimeout, err = getDuration("AI_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = getDuration("CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if config.SmartSearchCacheMax, err = getInt("SMART_SEARCH_CACHE_MAX", 200); err != nil {
		return nil, err
	}
	if config.SmartSearchCacheMax < 0 {
		return nil, fmt.Errorf("SMART_SEARCH_CACHE_MAX must not be negative")
	}
	if config.SyncOnStartup, err = getBool("SYNC_ON_STARTUP", false); err != nil {
		return nil, err
	}
	if config.PopulationYear, err = getInt("POPULATION_YEAR", 2023); err != nil {
		return nil, err
	}

	// Configure based on database type
	switch config.DatabaseType {
	case MongoDB:
		mongoURI := os.Getenv("MONGODB_URI")
		if mongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is not set")
		}
		config.MongoURI = mongoURI
	case SQLite:
		// Default to a data directory in the current directory
		config.SQLitePath = getEnv("SQLITE_PATH", filepath.Join("data", fmt.Sprintf("%s.db", databaseName)))
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", config.DatabaseType)
	}

	switch config.CacheBackend {
	case CacheFile, CacheRedis:
	case CacheSQLite:
		if config.DatabaseType != SQLite {
			return nil, fmt.Errorf("CACHE_BACKEND=sqlite requires DATABASE_TYPE=sqlite")
		}
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND: %s", config.CacheBackend)
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
