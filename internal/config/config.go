package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Inventory InventoryConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level       string
	Development bool
}

// InventoryConfig holds the stock table layout and editing session lifetime.
type InventoryConfig struct {
	// Sizes are the bag size columns in display order.
	Sizes      []string
	SessionTTL time.Duration
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	BaseURL       string
	APIVersion    string
	ManagerID     string
}

// Enabled reports whether notifications can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != ""
}

// SheetsConfig contains configuration required to export to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the sheet export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// A missing .env is fine when the environment is set directly.
		_ = godotenv.Load()
	}

	ttl, err := time.ParseDuration(getenvWithDefault("SESSION_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level:       getenvWithDefault("LOG_LEVEL", "info"),
			Development: getenvWithDefault("APP_ENV", "production") == "development",
		},
		Inventory: InventoryConfig{
			Sizes:      splitList(getenvWithDefault("SIZE_COLUMNS", "Ration,Seed,Number-12,Goli,Cut-tok")),
			SessionTTL: ttl,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			VerifyToken:   os.Getenv("META_VERIFY_TOKEN"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerID:     os.Getenv("WHATSAPP_MANAGER_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "coldstore"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if len(c.Inventory.Sizes) == 0 {
		return errors.New("SIZE_COLUMNS must list at least one size")
	}
	if c.Inventory.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	// WhatsApp is optional, but a partial setup is a mistake.
	if c.WhatsApp.Enabled() {
		switch {
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.VerifyToken == "":
			return errors.New("META_VERIFY_TOKEN must be provided")
		case c.WhatsApp.ManagerID == "":
			return errors.New("WHATSAPP_MANAGER_ID must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := cron.ParseStandard(c.Reporting.CronSchedule); err != nil {
		return fmt.Errorf("REPORT_CRON_SCHEDULE %q: %w", c.Reporting.CronSchedule, err)
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
