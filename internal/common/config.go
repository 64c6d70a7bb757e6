package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Local    LocalConfig    `yaml:"local"`
	Database DatabaseConfig `yaml:"database"`
	S3       S3Config       `yaml:"s3"`
	Sync     SyncConfig     `yaml:"sync"`
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Queue    QueueConfig    `yaml:"queue"`
	Ingest   IngestConfig   `yaml:"ingest"`
	OCR      OCRConfig      `yaml:"ocr"`
	Log      LogConfig      `yaml:"log"`
}

// LocalConfig is the on-device snapshot store.
type LocalConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// DatabaseConfig holds the Postgres remote document store configuration
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// S3Config holds the S3 remote document store configuration
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// SyncConfig selects and tunes the remote sync backend
type SyncConfig struct {
	Backend      string        `yaml:"backend"` // none, postgres or s3
	DocumentID   string        `yaml:"document_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

// LLMConfig holds extraction model configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // gemini, openai or anthropic
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	// AllowEmpty lets a document with no usable records succeed with none.
	AllowEmpty  bool          `yaml:"allow_empty"`
}

// QueueConfig tunes the upload queues
type QueueConfig struct {
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// IngestConfig configures the watched inbox directory
type IngestConfig struct {
	InboxDir string        `yaml:"inbox_dir"`
	Debounce time.Duration `yaml:"debounce"`
}

// OCRConfig enables the local text layer sent alongside PDFs and images
type OCRConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Pdftotext string `yaml:"pdftotext"`
	Pdftoppm  string `yaml:"pdftoppm"`
	Tesseract string `yaml:"tesseract"`
	Lang      string `yaml:"lang"`
	DPI       int    `yaml:"dpi"`
	MaxPages  int    `yaml:"max_pages"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig returns the built-in defaults without reading the environment.
func DefaultConfig() *Config {
	return &Config{
		Local: LocalConfig{SQLitePath: "./data/planner.db"},
		Database: DatabaseConfig{
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		S3:   S3Config{Region: "us-east-1"},
		Sync: SyncConfig{Backend: "none", DocumentID: "default", PollInterval: 10 * time.Second, Timeout: 15 * time.Second},
		Server: ServerConfig{
			GRPCAddr: ":8080",
			HTTPAddr: ":8081",
		},
		LLM: LLMConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			MaxTokens: 8192,
			Timeout:   90 * time.Second,
		},
		Queue:  QueueConfig{ProcessTimeout: 3 * time.Minute},
		Ingest: IngestConfig{Debounce: 750 * time.Millisecond},
		OCR:    OCRConfig{Lang: "eng", DPI: 300, MaxPages: 10},
		Log:    LogConfig{Level: "info", Format: "text", MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 14},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg
}

// LoadConfigFile overlays a YAML file on the defaults and then applies the
// environment on top. A missing file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
			}
		case os.IsNotExist(err):
		default:
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read %s", path), err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Local.SQLitePath = getEnv("PLANNER_SQLITE_PATH", c.Local.SQLitePath)

	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.S3.Bucket = getEnv("PLANNER_S3_BUCKET", c.S3.Bucket)
	c.S3.Region = getEnv("PLANNER_S3_REGION", c.S3.Region)
	c.S3.Prefix = getEnv("PLANNER_S3_PREFIX", c.S3.Prefix)
	c.S3.Endpoint = getEnv("PLANNER_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", c.S3.AccessKeyID)
	c.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", c.S3.SecretAccessKey)
	c.S3.PathStyle = getEnvAsBool("PLANNER_S3_PATH_STYLE", c.S3.PathStyle)

	c.Sync.Backend = strings.ToLower(getEnv("PLANNER_SYNC_BACKEND", c.Sync.Backend))
	c.Sync.DocumentID = getEnv("PLANNER_SYNC_DOCUMENT", c.Sync.DocumentID)
	c.Sync.PollInterval = getEnvAsDuration("PLANNER_SYNC_INTERVAL", c.Sync.PollInterval)
	c.Sync.Timeout = getEnvAsDuration("PLANNER_SYNC_TIMEOUT", c.Sync.Timeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)

	c.LLM.Provider = strings.ToLower(getEnv("PLANNER_LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("PLANNER_LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("PLANNER_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("PLANNER_LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvAsInt("PLANNER_LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = getEnvAsDuration("PLANNER_LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.AllowEmpty = getEnvAsBool("PLANNER_LLM_ALLOW_EMPTY", c.LLM.AllowEmpty)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = providerKey(c.LLM.Provider)
	}
	c.LLM.APIKey = getEnv("PLANNER_LLM_API_KEY", c.LLM.APIKey)

	c.Queue.ProcessTimeout = getEnvAsDuration("PLANNER_PROCESS_TIMEOUT", c.Queue.ProcessTimeout)

	c.Ingest.InboxDir = getEnv("PLANNER_INBOX_DIR", c.Ingest.InboxDir)
	c.Ingest.Debounce = getEnvAsDuration("PLANNER_INBOX_DEBOUNCE", c.Ingest.Debounce)

	c.OCR.Enabled = getEnvAsBool("PLANNER_OCR_ENABLED", c.OCR.Enabled)
	c.OCR.Pdftotext = getEnv("PLANNER_OCR_PDFTOTEXT", c.OCR.Pdftotext)
	c.OCR.Pdftoppm = getEnv("PLANNER_OCR_PDFTOPPM", c.OCR.Pdftoppm)
	c.OCR.Tesseract = getEnv("PLANNER_OCR_TESSERACT", c.OCR.Tesseract)
	c.OCR.Lang = getEnv("PLANNER_OCR_LANG", c.OCR.Lang)
	c.OCR.MaxPages = getEnvAsInt("PLANNER_OCR_MAX_PAGES", c.OCR.MaxPages)

	c.Log.Level = getEnv("PLANNER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("PLANNER_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("PLANNER_LOG_FILE", c.Log.File)
}

// providerKey reads the conventional API key variable for provider.
func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			return k
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every binary needs. Remote sync settings are
// validated only for the selected backend.
func (c *Config) Validate() error {
	if c.Local.SQLitePath == "" {
		return NewAppError("CONFIG_ERROR", "PLANNER_SQLITE_PATH is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown PLANNER_LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "an API key for "+c.LLM.Provider+" is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return c.ValidateSync()
}

// ValidateSync checks only the remote sync settings.
func (c *Config) ValidateSync() error {
	switch c.Sync.Backend {
	case "", "none":
	case "postgres":
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for postgres sync", ErrInvalidInput)
		}
	case "s3":
		if c.S3.Bucket == "" {
			return NewAppError("CONFIG_ERROR", "PLANNER_S3_BUCKET is required for s3 sync", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown PLANNER_SYNC_BACKEND %q", c.Sync.Backend), ErrInvalidInput)
	}
	if c.Sync.PollInterval <= 0 {
		return NewAppError("CONFIG_ERROR", "PLANNER_SYNC_INTERVAL must be positive", ErrInvalidInput)
	}
	return nil
}

// SyncEnabled reports whether a remote backend is selected.
func (c *Config) SyncEnabled() bool {
	return c.Sync.Backend != "" && c.Sync.Backend != "none"
}
