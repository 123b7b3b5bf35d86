package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "DASH"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Fetch     FetchConfig     `yaml:"fetch" envconfig:"FETCH"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"45s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"40"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/dashboard.log"`
}

// SourcesConfig lists the spreadsheets merged into the dataset, in order.
type SourcesConfig struct {
	First  SourceConfig `yaml:"first" envconfig:"FIRST"`
	Second SourceConfig `yaml:"second" envconfig:"SECOND"`
}

// SourceConfig describes one spreadsheet.
//
// Kind "csv" downloads URL (a sharing link is rewritten to its CSV export
// link). Kind "sheets" reads SheetID/Range through the Sheets API.
type SourceConfig struct {
	Name    string `yaml:"name" envconfig:"NAME"`
	Kind    string `yaml:"kind" envconfig:"KIND"`
	URL     string `yaml:"url" envconfig:"URL"`
	SheetID string `yaml:"sheet_id" envconfig:"SHEET_ID"`
	Range   string `yaml:"range" envconfig:"RANGE"`
}

// CacheConfig controls how long a loaded snapshot is reused.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"TTL" default:"600s"`
}

// FetchConfig controls the outbound HTTP and Sheets clients.
type FetchConfig struct {
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	UserAgent       string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"propulsores-dashboard/1.0"`
	SheetsAPIKey    string        `yaml:"sheets_api_key" envconfig:"SHEETS_API_KEY"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// TelemetryConfig toggles OpenTelemetry exporters.
type TelemetryConfig struct {
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"false"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT" default:"development"`
}

// List returns the configured sources in merge order.
func (s SourcesConfig) List() []SourceConfig {
	return []SourceConfig{s.First, s.Second}
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	cfg.applySourceDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs fills the zero values of the env config from the file config.
// Env values always win; envconfig defaults count as env values.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if os.Getenv(EnvPrefix+"_SERVER_PORT") == "" && fileConfig.Server.Port != 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if os.Getenv(EnvPrefix+"_CACHE_TTL") == "" && fileConfig.Cache.TTL != 0 {
		envConfig.Cache.TTL = fileConfig.Cache.TTL
	}
	if os.Getenv(EnvPrefix+"_LOGGING_LEVEL") == "" && fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if len(fileConfig.Security.AllowedOrigins) > 0 && os.Getenv(EnvPrefix+"_SECURITY_ALLOWED_ORIGINS") == "" {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	envConfig.Sources.First = mergeSource(fileConfig.Sources.First, envConfig.Sources.First)
	envConfig.Sources.Second = mergeSource(fileConfig.Sources.Second, envConfig.Sources.Second)
	if envConfig.Fetch.SheetsAPIKey == "" {
		envConfig.Fetch.SheetsAPIKey = fileConfig.Fetch.SheetsAPIKey
	}
	if envConfig.Fetch.CredentialsFile == "" {
		envConfig.Fetch.CredentialsFile = fileConfig.Fetch.CredentialsFile
	}

	return envConfig
}

func mergeSource(file, env SourceConfig) SourceConfig {
	if env.Name == "" {
		env.Name = file.Name
	}
	if env.Kind == "" {
		env.Kind = file.Kind
	}
	if env.URL == "" {
		env.URL = file.URL
	}
	if env.SheetID == "" {
		env.SheetID = file.SheetID
	}
	if env.Range == "" {
		env.Range = file.Range
	}
	return env
}

// applySourceDefaults points unconfigured sources at the two partner spreadsheets.
func (c *Config) applySourceDefaults() {
	defaults := []SourceConfig{
		{Name: "planilha_1", Kind: SourceKindCSV, URL: DefaultSourceURL1},
		{Name: "planilha_2", Kind: SourceKindCSV, URL: DefaultSourceURL2},
	}
	targets := []*SourceConfig{&c.Sources.First, &c.Sources.Second}

	for i, src := range targets {
		if src.URL == "" && src.SheetID == "" {
			*src = defaults[i]
			continue
		}
		if src.Kind == "" {
			src.Kind = SourceKindCSV
			if src.URL == "" {
				src.Kind = SourceKindSheets
			}
		}
		if src.Name == "" {
			src.Name = defaults[i].Name
		}
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}

	for i, src := range c.Sources.List() {
		switch strings.ToLower(src.Kind) {
		case SourceKindCSV:
			if src.URL == "" {
				return fmt.Errorf("source %d (%s): url is required for kind %q", i+1, src.Name, src.Kind)
			}
		case SourceKindSheets:
			if src.SheetID == "" {
				return fmt.Errorf("source %d (%s): sheet_id is required for kind %q", i+1, src.Name, src.Kind)
			}
			if c.Fetch.SheetsAPIKey == "" && c.Fetch.CredentialsFile == "" {
				return fmt.Errorf("source %d (%s): sheets source needs an api key or credentials file", i+1, src.Name)
			}
		default:
			return fmt.Errorf("source %d (%s): unknown kind %q", i+1, src.Name, src.Kind)
		}
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/dashboard.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  45 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/dashboard.log",
		},
		Cache: CacheConfig{TTL: DefaultCacheTTL},
		Fetch: FetchConfig{
			Timeout:   DefaultHTTPTimeout,
			UserAgent: "propulsores-dashboard/1.0",
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
			TraceExporter: "stdout",
			SampleRatio:   1.0,
			Environment:   "development",
		},
	}
	cfg.applySourceDefaults()
	return cfg
}
