package config

import (
	"fmt"
	"os"
	"time"
)

// CollectorConfig holds all collector configuration.
type CollectorConfig struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	ListenAddr      string   `yaml:"listen_addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds the shared credentials. Both are normally supplied
// through the environment rather than the file.
type AuthConfig struct {
	AgentToken string `yaml:"agent_token"`
	AdminToken string `yaml:"admin_token"`
}

// StoreConfig locates the document store.
type StoreConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// DefaultCollectorConfig returns the default collector configuration.
func DefaultCollectorConfig() *CollectorConfig {
	return &CollectorConfig{
		HTTP: HTTPConfig{
			ListenAddr:      ":5000",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Store: StoreConfig{
			Path:       "./pcstatus.db",
			Collection: "computers",
		},
		Logging: defaultLogging(""),
	}
}

// LoadCollector reads the collector configuration from path (optional),
// then applies environment overrides.
func LoadCollector(path string) (*CollectorConfig, error) {
	cfg := DefaultCollectorConfig()
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}
	applyCollectorEnv(cfg)
	return cfg, nil
}

func applyCollectorEnv(cfg *CollectorConfig) {
	if token := os.Getenv("PSS_AGENT_TOKEN"); token != "" {
		cfg.Auth.AgentToken = token
	}
	if token := os.Getenv("PSS_ADMIN_TOKEN"); token != "" {
		cfg.Auth.AdminToken = token
	}
	if addr := os.Getenv("PSS_LISTEN_ADDR"); addr != "" {
		cfg.HTTP.ListenAddr = addr
	}
	if path := os.Getenv("PSS_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if level := os.Getenv("PSS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate checks the collector configuration. A missing agent token is a
// startup error: the collector refuses to run without a way to authenticate
// pushes. A missing admin token only disables deletes.
func (c *CollectorConfig) Validate() error {
	if c.Auth.AgentToken == "" {
		return fmt.Errorf("agent token is required (set PSS_AGENT_TOKEN)")
	}
	if c.HTTP.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}
