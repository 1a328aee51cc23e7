// Package config loads chatpro configuration.
// Source priority (highest to lowest):
//  1. Environment variables (PORT, MONGO_URI, OPENAI_API_KEY, CHATPRO_*, ...)
//  2. YAML file passed via --config (or CHATPRO_CONFIG)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type StorageBackend string

const (
	StorageMemory    StorageBackend = "memory"
	StorageFirestore StorageBackend = "firestore"
	StorageMongo     StorageBackend = "mongo"
	StorageSQLite    StorageBackend = "sqlite"
)

type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderGemini    LLMProvider = "gemini"
	ProviderVertex    LLMProvider = "vertex"
	ProviderMock      LLMProvider = "mock"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	LLM     LLMConfig     `yaml:"llm"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend   StorageBackend  `yaml:"backend"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Mongo     MongoConfig     `yaml:"mongo"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
}

type FirestoreConfig struct {
	ProjectID  string `yaml:"project_id"`
	Collection string `yaml:"collection"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider     LLMProvider   `yaml:"provider"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	SystemPrompt string        `yaml:"system_prompt"`
	MaxTokens    int           `yaml:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout"`

	// Vertex only.
	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" o "console"
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:   StorageMemory,
			Firestore: FirestoreConfig{Collection: "sessions"},
			Mongo:     MongoConfig{Database: "chatpro", Collection: "sessions"},
			SQLite:    SQLiteConfig{Path: "chatpro.db"},
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
			GCPLocation: "us-central1",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the optional YAML file at path, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation. Commands that only touch storage use it
// so they work without LLM credentials.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CHATPRO_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyModelDefault()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Server.Addr = getEnv("CHATPRO_ADDR", c.Server.Addr)
	if origins := os.Getenv("CHATPRO_CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	c.Storage.Backend = StorageBackend(getEnv("CHATPRO_STORAGE_BACKEND", string(c.Storage.Backend)))
	c.Storage.Firestore.ProjectID = getEnv("CHATPRO_GCP_PROJECT", c.Storage.Firestore.ProjectID)
	c.Storage.Mongo.URI = getEnv("MONGO_URI", c.Storage.Mongo.URI)
	c.Storage.Mongo.Database = getEnv("CHATPRO_MONGO_DATABASE", c.Storage.Mongo.Database)
	c.Storage.SQLite.Path = getEnv("CHATPRO_SQLITE_PATH", c.Storage.SQLite.Path)

	c.LLM.Provider = LLMProvider(getEnv("CHATPRO_LLM_PROVIDER", string(c.LLM.Provider)))
	if getBoolEnv("CHATPRO_USE_MOCK_LLM", false) {
		c.LLM.Provider = ProviderMock
	}
	c.LLM.Model = getEnv("CHATPRO_LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("CHATPRO_LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.SystemPrompt = getEnv("CHATPRO_SYSTEM_PROMPT", c.LLM.SystemPrompt)
	c.LLM.MaxTokens = getIntEnv("CHATPRO_LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = getDurationEnv("CHATPRO_LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.GCPProjectID = getEnv("CHATPRO_GCP_PROJECT", c.LLM.GCPProjectID)
	c.LLM.GCPLocation = getEnv("CHATPRO_GCP_LOCATION", c.LLM.GCPLocation)

	// Provider-specific keys only fill in a key not set explicitly.
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case ProviderAnthropic:
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case ProviderGemini:
			c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	c.LLM.APIKey = getEnv("CHATPRO_LLM_API_KEY", c.LLM.APIKey)

	c.Log.Level = getEnv("CHATPRO_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CHATPRO_LOG_FORMAT", c.Log.Format)
}

func (c *Config) applyModelDefault() {
	if c.LLM.Model != "" {
		return
	}
	switch c.LLM.Provider {
	case ProviderOpenAI:
		c.LLM.Model = "gpt-4o-mini"
	case ProviderAnthropic:
		c.LLM.Model = "claude-3-5-haiku-latest"
	case ProviderGemini, ProviderVertex:
		c.LLM.Model = "gemini-2.5-flash"
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must be set"))
	}
	errs = append(errs, c.ValidateStorage())

	switch c.LLM.Provider {
	case ProviderMock:
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("an API key is required for the %s provider", c.LLM.Provider))
		}
	case ProviderVertex:
		if c.LLM.GCPProjectID == "" || c.LLM.GCPLocation == "" {
			errs = append(errs, errors.New("llm.gcp_project and llm.gcp_location are required for the vertex provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}

	// The reply has to land before the write deadline.
	switch {
	case c.LLM.Timeout <= 0:
		errs = append(errs, errors.New("llm.timeout must be positive"))
	case c.Server.WriteTimeout > 0 && c.LLM.Timeout >= c.Server.WriteTimeout:
		errs = append(errs, fmt.Errorf("llm.timeout (%s) must be shorter than server.write_timeout (%s)", c.LLM.Timeout, c.Server.WriteTimeout))
	}

	return errors.Join(errs...)
}

// ValidateStorage checks only the storage section.
func (c *Config) ValidateStorage() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFirestore:
		if c.Storage.Firestore.ProjectID == "" {
			return errors.New("storage.firestore.project_id (CHATPRO_GCP_PROJECT) is required for the firestore backend")
		}
	case StorageMongo:
		if c.Storage.Mongo.URI == "" {
			return errors.New("storage.mongo.uri (MONGO_URI) is required for the mongo backend")
		}
	case StorageSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
