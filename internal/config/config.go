package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Payment   PaymentConfig   `yaml:"payment"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
	// Reservation creation rate limit, requests per second with a burst allowance
	CreateRateLimit float64 `yaml:"create_rate_limit"`
	CreateBurst     int     `yaml:"create_burst"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// StorageConfig selects the repository backend
type StorageConfig struct {
	Type string `yaml:"type"` // "postgres" or "memory"
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// PricingConfig holds the deposit share and the age depreciation used when no rule is stored.
// Rates are decimal strings, e.g. "0.30".
type PricingConfig struct {
	DepositRate    string `yaml:"deposit_rate"`
	AgePerYearRate string `yaml:"age_per_year_rate"`
	AgeMaxRate     string `yaml:"age_max_rate"`

	depositRate    decimal.Decimal
	agePerYearRate decimal.Decimal
	ageMaxRate     decimal.Decimal
}

// PaymentConfig selects the settlement provider
type PaymentConfig struct {
	Provider string `yaml:"provider"` // "mock"
	Name     string `yaml:"name"`
}

// EmailConfig contains SendGrid settings for fleet desk notifications.
// Email is disabled when the API key is empty.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	DeskEmail      string `yaml:"desk_email"`
	Workers        int    `yaml:"workers"`
	QueueSize      int    `yaml:"queue_size"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpirePending string `yaml:"expire_pending"`
	ReportOverdue string `yaml:"report_overdue"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applying environment overrides and defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Pricing
	if val := os.Getenv("DEPOSIT_RATE"); val != "" {
		c.Pricing.DepositRate = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("DESK_EMAIL"); val != "" {
		c.Email.DeskEmail = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}
	if c.Server.CreateRateLimit == 0 {
		c.Server.CreateRateLimit = 20
	}
	if c.Server.CreateBurst == 0 {
		c.Server.CreateBurst = 40
	}
	if c.Server.CreateRateLimit < 0 || c.Server.CreateBurst < 0 {
		return fmt.Errorf("create rate limit must not be negative")
	}

	// Storage validation
	if c.Storage.Type == "" {
		c.Storage.Type = "postgres"
	}
	switch c.Storage.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
		if c.Database.MaxOpenConns == 0 {
			c.Database.MaxOpenConns = 10
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	// Pricing defaults
	var err error
	if c.Pricing.depositRate, err = parseRate("deposit_rate", c.Pricing.DepositRate, "0.30"); err != nil {
		return err
	}
	if c.Pricing.agePerYearRate, err = parseRate("age_per_year_rate", c.Pricing.AgePerYearRate, "0.01"); err != nil {
		return err
	}
	if c.Pricing.ageMaxRate, err = parseRate("age_max_rate", c.Pricing.AgeMaxRate, "0.20"); err != nil {
		return err
	}

	// Payment defaults
	if c.Payment.Provider == "" {
		c.Payment.Provider = "mock"
	}

	// Email validation
	if c.Email.SendGridAPIKey != "" {
		if c.Email.FromEmail == "" {
			return fmt.Errorf("email from address is required when SendGrid is enabled")
		}
		if c.Email.DeskEmail == "" {
			return fmt.Errorf("desk email is required when SendGrid is enabled")
		}
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Fleet Desk"
	}
	if c.Email.Workers == 0 {
		c.Email.Workers = 2
	}
	if c.Email.QueueSize == 0 {
		c.Email.QueueSize = 100
	}

	// Scheduler defaults
	if c.Scheduler.ExpirePending == "" {
		c.Scheduler.ExpirePending = "0 15 0 * * *" // 00:15 UTC
	}
	if c.Scheduler.ReportOverdue == "" {
		c.Scheduler.ReportOverdue = "0 0 * * * *" // hourly
	}

	return nil
}

func parseRate(field, raw, fallback string) (decimal.Decimal, error) {
	if raw == "" {
		raw = fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid pricing %s %q: %w", field, raw, err)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("pricing %s must be between 0 and 1, got %s", field, raw)
	}
	return d, nil
}

// DepositRateValue is the validated deposit share of the quoted total
func (p PricingConfig) DepositRateValue() decimal.Decimal { return p.depositRate }

// AgeDepreciationValues returns the validated default per-year rate and cap
func (p PricingConfig) AgeDepreciationValues() (perYear, max decimal.Decimal) {
	return p.agePerYearRate, p.ageMaxRate
}

// EmailEnabled reports whether desk notifications should be sent
func (c *Config) EmailEnabled() bool {
	return c.Email.SendGridAPIKey != ""
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health listener address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
