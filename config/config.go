package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const defaultModelURL = "https://api-inference.huggingface.co/models/google/flan-t5-small"

// Config holds the process-wide configuration, assembled once at startup.
// Store credentials and the Hugging Face API key are required in every
// environment except test; everything else carries a default.
type Config struct {
	AppName    string `json:"appname"`
	AppEnv     string `json:"appenv"`
	AppPort    uint16 `json:"appport"`
	GinMode    string `json:"ginmode"`
	DBHost     string `json:"dbhost"`
	DBPort     uint16 `json:"dbport"`
	DBUser     string `json:"dbuser"`
	DBPass     string `json:"dbpass"`
	DBName     string `json:"dbname"`
	HFAPIKey   string `json:"hfapikey"`
	HFModelURL string `json:"hfmodelurl"`
}

var (
	config  *Config
	loadErr error
	once    sync.Once
)

// LoadConfig reads the configuration from the environment exactly once and
// memoizes the result. A .env file is honored when present but never
// required; the composition injects the same variables directly. Missing
// required values are reported in a single error naming every absent
// variable so a bad deployment fails fast instead of at first query.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, reading configuration from environment")
		}

		config = &Config{
			AppName:    getEnv("APPNAME", "prescription-ai"),
			AppEnv:     getEnv("APPENV", "development"),
			AppPort:    getEnvUint16("APPPORT", 8000),
			GinMode:    getEnv("GINMODE", "release"),
			DBHost:     getEnv("DB_HOST", ""),
			DBPort:     getEnvUint16("DB_PORT", 3306),
			DBUser:     getEnv("DB_USER", ""),
			DBPass:     getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", ""),
			HFAPIKey:   getEnv("HF_API_KEY", ""),
			HFModelURL: getEnv("HF_MODEL_URL", defaultModelURL),
		}
		loadErr = config.validate()
	})
	return config, loadErr
}

// validate checks the required variables. The test environment is exempt
// because tests run against an in-memory store and a stubbed model endpoint.
func (c *Config) validate() error {
	if c.AppEnv == "test" {
		return nil
	}
	var missing []string
	for _, v := range []struct{ key, val string }{
		{"DB_HOST", c.DBHost},
		{"DB_USER", c.DBUser},
		{"DB_PASSWORD", c.DBPass},
		{"DB_NAME", c.DBName},
		{"HF_API_KEY", c.HFAPIKey},
	} {
		if v.val == "" {
			missing = append(missing, v.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvUint16(key string, fallback uint16) uint16 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return uint16(parsed)
}

const (
	connectAttempts  = 10
	connectBaseDelay = 1 * time.Second
	connectMaxDelay  = 8 * time.Second
)

// ConnectMySQL opens the backing store described by the configuration. The
// composition only guarantees start order, not readiness: the store may still
// be initializing when this process launches, so the connection is retried
// with a growing delay before giving up. In the test environment an in-memory
// SQLite database with foreign keys enabled is opened instead, so tests never
// need a reachable MySQL instance.
func ConnectMySQL() (*gorm.DB, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.AppEnv == "test" {
		dsn := fmt.Sprintf("file:testdb_config_%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var db *gorm.DB
	delay := connectBaseDelay
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			return db, nil
		}
		if attempt < connectAttempts {
			log.Printf("waiting for database %s:%d (%d/%d): %v", cfg.DBHost, cfg.DBPort, attempt, connectAttempts, err)
			time.Sleep(delay)
			delay *= 2
			if delay > connectMaxDelay {
				delay = connectMaxDelay
			}
		}
	}
	return nil, fmt.Errorf("database %s:%d unreachable after %d attempts: %w", cfg.DBHost, cfg.DBPort, connectAttempts, err)
}
