package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults for the viswords settings
const (
	DefaultSecretKey        = "viswords-secret-key-2025"
	DefaultArkAPIKey        = "您的豆包API密钥"
	DoubaoAPIURL            = "https://ark.cn-beijing.volces.com/api/v3"
	DoubaoModel             = "doubao-seed-1-6-lite-251015"
	DefaultDatabase         = "viswords.db"
	DefaultMaxContentLength = 16 * 1024 * 1024
	DefaultUploadFolder     = "uploads"
	DefaultCleanupSchedule  = "0 3 * * *"
)

// allowedExtensions is fixed and not read from the environment
var allowedExtensions = []string{"png", "jpg", "jpeg", "gif"}

// Config holds all configuration for the application
type Config struct {
	Environment string `validate:"required"`
	Port        string `validate:"required,numeric"`
	LogLevel    string
	SecretKey   string `validate:"required"`
	Ark         ArkConfig
	Database    DatabaseConfig
	Upload      UploadConfig
	RateLimit   RateLimitConfig
}

// ArkConfig holds the LLM provider settings surfaced to the application
type ArkConfig struct {
	APIKey string
	APIURL string `validate:"required,url"`
	Model  string `validate:"required"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string `validate:"required"`
	MaxOpenConns    int    `validate:"gte=1"`
	MaxIdleConns    int    `validate:"gte=1"`
	ConnMaxLifetime time.Duration
}

// UploadConfig holds file upload constraints
type UploadConfig struct {
	Folder            string   `validate:"required"`
	MaxContentLength  int64    `validate:"gt=0"`
	AllowedExtensions []string `validate:"min=1,dive,required"`

	// Retention is how long uploads are kept; zero keeps them forever
	Retention       time.Duration `validate:"gte=0"`
	CleanupSchedule string        `validate:"required,cron"`
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	RequestsPerSecond float64 `validate:"gt=0"`
	Burst             int     `validate:"gte=1"`
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return FromViper(newViper()), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8081")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("ARK_API_KEY", DefaultArkAPIKey)
	v.SetDefault("DATABASE", DefaultDatabase)
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)
	v.SetDefault("DB_MAX_IDLE_CONNS", 1)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("MAX_CONTENT_LENGTH", DefaultMaxContentLength)
	v.SetDefault("UPLOAD_FOLDER", DefaultUploadFolder)
	v.SetDefault("UPLOAD_RETENTION", time.Duration(0))
	v.SetDefault("UPLOAD_CLEANUP_SCHEDULE", DefaultCleanupSchedule)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	return v
}

// FromViper builds a Config from an already prepared viper instance.
// DOUBAO_API_URL, DOUBAO_MODEL and the allowed extensions are never read from it.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		SecretKey:   v.GetString("SECRET_KEY"),
		Ark: ArkConfig{
			APIKey: v.GetString("ARK_API_KEY"),
			APIURL: DoubaoAPIURL,
			Model:  DoubaoModel,
		},
		Database: DatabaseConfig{
			Path:            v.GetString("DATABASE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Upload: UploadConfig{
			Folder:            v.GetString("UPLOAD_FOLDER"),
			MaxContentLength:  parseSize(v.GetString("MAX_CONTENT_LENGTH")),
			AllowedExtensions: append([]string(nil), allowedExtensions...),
			Retention:         v.GetDuration("UPLOAD_RETENTION"),
			CleanupSchedule:   v.GetString("UPLOAD_CLEANUP_SCHEDULE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}
}

// parseSize accepts a plain byte count or a human readable size such as
// "16MB". Unparseable values become zero and fail validation.
func parseSize(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0
	}
	return int64(n)
}

// configValidator carries the custom tags used by Config
var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		return gronx.IsValid(fl.Field().String())
	})
	if err != nil {
		panic("config: failed to register cron validation: " + err.Error())
	}
	return v
}

// Validate checks the structural invariants of the configuration
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// InitApp is the hook for application specific initialization. It does nothing yet.
func (c *Config) InitApp(app any) {}

// AllowedFile reports whether filename carries one of the allowed upload extensions
func (c *Config) AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	for _, allowed := range c.Upload.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UsesPlaceholderCredentials reports whether the secret key or API key are still the built-in defaults
func (c *Config) UsesPlaceholderCredentials() bool {
	return c.SecretKey == DefaultSecretKey || c.Ark.APIKey == DefaultArkAPIKey
}

// IsProduction returns true when running with ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
