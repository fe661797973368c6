// Package config has the configuration for the converter and the lookup server
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/giygas/drugbank-mapping/drugbank"
	"github.com/giygas/drugbank-mapping/export"
	"github.com/giygas/drugbank-mapping/mapping"
	"github.com/joho/godotenv"
)

// Environment is the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// Mode selects what the binary does
type Mode string

const (
	ModeConvert Mode = "convert"
	ModeServe   Mode = "serve"
)

// String returns the canonical name of the environment
func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the canonical names and their long forms
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

var refreshAtRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Config holds all application configuration
type Config struct {
	Mode Mode
	Env  Environment

	InputFile     string
	InputURL      string // downloaded to InputFile before each conversion, empty disables
	OutputFile    string
	OutputFormat  export.Format
	Schema        drugbank.Schema
	ProductPolicy drugbank.ProductPolicy
	ErrorPolicy   mapping.ErrorPolicy
	MetricsFile   string // Prometheus textfile written after a convert run, empty disables

	LogLevel          string
	LogDir            string // empty disables file logging
	LogRetentionWeeks int    // Number of weeks to keep log files
	MaxLogFileSize    int64  // Maximum log file size in bytes

	Port      string
	Address   string
	RefreshAt string // gocron At() expression, "HH:MM;HH:MM"
}

// Load reads an optional .env file, then loads and validates configuration
// from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Mode: Mode(strings.ToLower(getEnvWithDefault("MODE", string(ModeConvert)))),

		InputFile:  getEnvWithDefault("INPUT_FILE", "rawData.xml"),
		InputURL:   os.Getenv("INPUT_URL"),
		OutputFile: getEnvWithDefault("OUTPUT_FILE", "drugMapping.csv"),
		Schema: drugbank.Schema{
			Namespace:       getEnvWithDefault("DRUGBANK_NAMESPACE", drugbank.DefaultNamespace),
			NameElement:     getEnvWithDefault("NAME_ELEMENT", drugbank.DefaultNameElement),
			ProductsElement: getEnvWithDefault("PRODUCTS_ELEMENT", drugbank.DefaultProductsElement),
			ProductElement:  getEnvWithDefault("PRODUCT_ELEMENT", drugbank.DefaultProductElement),
			IDElement:       getEnvWithDefault("ID_ELEMENT", drugbank.DefaultIDElement),
		},
		MetricsFile: os.Getenv("METRICS_FILE"),

		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvKeepEmpty("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default

		Port:      getEnvWithDefault("PORT", "8000"),
		Address:   getEnvWithDefault("ADDRESS", "127.0.0.1"),
		RefreshAt: getEnvWithDefault("REFRESH_AT", "06:00;18:00"),
	}

	var err error
	if cfg.Env, err = ParseEnvironment(getEnvWithDefault("ENV", string(EnvDevelopment))); err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}
	if cfg.OutputFormat, err = export.ParseFormat(strings.ToLower(getEnvWithDefault("OUTPUT_FORMAT", string(export.FormatCSV)))); err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid OUTPUT_FORMAT: %w", err)
	}
	if cfg.ProductPolicy, err = drugbank.ParseProductPolicy(strings.ToLower(getEnvWithDefault("PRODUCT_NAME_POLICY", string(drugbank.ProductSkip)))); err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid PRODUCT_NAME_POLICY: %w", err)
	}
	if cfg.ErrorPolicy, err = mapping.ParseErrorPolicy(strings.ToLower(getEnvWithDefault("ERROR_POLICY", string(mapping.ErrorHalt)))); err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ERROR_POLICY: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validateMode(cfg.Mode); err != nil {
		return fmt.Errorf("invalid MODE: %w", err)
	}

	if strings.TrimSpace(cfg.InputFile) == "" {
		return fmt.Errorf("invalid INPUT_FILE: cannot be empty")
	}

	if cfg.InputURL != "" {
		if err := validateInputURL(cfg.InputURL); err != nil {
			return fmt.Errorf("invalid INPUT_URL: %w", err)
		}
	}

	if strings.TrimSpace(cfg.OutputFile) == "" {
		return fmt.Errorf("invalid OUTPUT_FILE: cannot be empty")
	}

	if err := cfg.Schema.Validate(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	// Listener settings only matter when serving
	if cfg.Mode == ModeServe {
		if err := validatePort(cfg.Port); err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}

		if err := validateAddress(cfg.Address); err != nil {
			return fmt.Errorf("invalid ADDRESS: %w", err)
		}

		if err := validateRefreshAt(cfg.RefreshAt); err != nil {
			return fmt.Errorf("invalid REFRESH_AT: %w", err)
		}
	}

	return nil
}

func validateMode(mode Mode) error {
	switch mode {
	case ModeConvert, ModeServe:
		return nil
	}
	return fmt.Errorf("MODE must be one of: [convert serve], got: %s", mode)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateInputURL accepts absolute http and https URLs
func validateInputURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("INPUT_URL is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INPUT_URL must be an http or https URL, got: %s", raw)
	}
	return nil
}

// validateRefreshAt validates the REFRESH_AT environment variable
func validateRefreshAt(refreshAt string) error {
	for _, t := range strings.Split(refreshAt, ";") {
		if !refreshAtRegex.MatchString(t) {
			return fmt.Errorf("REFRESH_AT must be a ';' separated list of HH:MM times, got: %s", refreshAt)
		}
	}
	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvKeepEmpty is like getEnvWithDefault, but a variable set to an empty
// value stays empty
func getEnvKeepEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"MODE",
		"ENV",
		"INPUT_FILE",
		"INPUT_URL",
		"OUTPUT_FILE",
		"OUTPUT_FORMAT",
		"DRUGBANK_NAMESPACE",
		"NAME_ELEMENT",
		"PRODUCTS_ELEMENT",
		"PRODUCT_ELEMENT",
		"ID_ELEMENT",
		"PRODUCT_NAME_POLICY",
		"ERROR_POLICY",
		"METRICS_FILE",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"PORT",
		"ADDRESS",
		"REFRESH_AT",
	}
}
