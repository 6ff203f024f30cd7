// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > defaults.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Guliveer/pcstatus/internal/detector"
	"github.com/Guliveer/pcstatus/internal/models"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "15s", "30s", "1m". A bare integer is
// read as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	if value.ShortTag() == "!!int" {
		var secs int
		if err := value.Decode(&secs); err != nil {
			return err
		}
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Transport modes for the agent.
const (
	TransportHTTP   = "http"
	TransportDirect = "direct"
)

// AgentConfig holds all agent configuration.
type AgentConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Machine    MachineConfig    `yaml:"machine"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Collection CollectionConfig `yaml:"collection"`
	Transport  TransportConfig  `yaml:"transport"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds collector connection settings.
type ServerConfig struct {
	URL        string `yaml:"url"`
	AgentToken string `yaml:"agent_token"`
	// AllowInsecure permits plain HTTP to non-local collectors, e.g. on a LAN.
	AllowInsecure bool `yaml:"allow_insecure"`
}

// MachineConfig holds the agent's identity.
type MachineConfig struct {
	// ID defaults to the host name when empty.
	ID string `yaml:"id"`
}

// MonitorConfig selects what the detector watches.
type MonitorConfig struct {
	Type    string   `yaml:"type"`
	Targets []string `yaml:"targets"`
	// ScriptName is the older single-target setting, used when Targets is empty.
	ScriptName string `yaml:"script_name"`
}

// CollectionConfig holds the reporting cadence.
type CollectionConfig struct {
	Interval Duration `yaml:"interval"`
}

// TransportConfig picks how snapshots leave the agent.
type TransportConfig struct {
	Mode       string `yaml:"mode"`
	StorePath  string `yaml:"store_path"`
	Collection string `yaml:"collection"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultAgentConfig returns the default agent configuration.
func DefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Server: ServerConfig{
			URL: "http://127.0.0.1:5000",
		},
		Monitor: MonitorConfig{
			Type: string(models.ModePC),
		},
		Collection: CollectionConfig{
			Interval: Duration{60 * time.Second},
		},
		Transport: TransportConfig{
			Mode:       TransportHTTP,
			StorePath:  "./pcstatus.db",
			Collection: "computers",
		},
		Logging: defaultLogging("./agent.log"),
	}
}

func defaultLogging(file string) LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		File:       file,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// CLIOverrides holds values from command-line flags.
// Empty strings are treated as "not set" and skipped.
type CLIOverrides struct {
	URL   string
	Token string
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// executableDirConfig is the config file kept next to the agent binary.
func executableDirConfig() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "agent.yaml")
}

// LoadAgent loads agent configuration with the full precedence chain:
// CLI flags > env vars > YAML file > defaults.
//
// An empty path auto-discovers the file via Locate(). A path that does not
// exist falls back to defaults and environment.
func LoadAgent(path string, cli CLIOverrides) (*AgentConfig, error) {
	cfg := DefaultAgentConfig()

	if path == "" {
		path = Locate()
	}
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}

	applyAgentEnv(cfg)

	if cli.URL != "" {
		cfg.Server.URL = cli.URL
	}
	if cli.Token != "" {
		cfg.Server.AgentToken = cli.Token
	}

	return cfg, nil
}

// readYAML decodes path into cfg. A missing file is not an error.
func readYAML(path string, cfg interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// WriteConfig serializes a config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg interface{}, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyAgentEnv applies environment variable overrides to the agent configuration.
func applyAgentEnv(cfg *AgentConfig) {
	if url := os.Getenv("PSS_SERVER_URL"); url != "" {
		cfg.Server.URL = url
	}
	if token := os.Getenv("PSS_AGENT_TOKEN"); token != "" {
		cfg.Server.AgentToken = token
	}
	if id := os.Getenv("PSS_MACHINE_ID"); id != "" {
		cfg.Machine.ID = id
	}
	if typ := os.Getenv("PSS_MONITOR_TYPE"); typ != "" {
		cfg.Monitor.Type = typ
	}
	if targets := os.Getenv("PSS_TARGET_NAMES"); targets != "" {
		cfg.Monitor.Targets = detector.ParseTargetList(targets)
	}
	if level := os.Getenv("PSS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Mode returns the parsed monitor mode. Call Validate first.
func (c *AgentConfig) Mode() models.Mode {
	mode, _ := models.ParseMode(c.Monitor.Type)
	return mode
}

// TargetNames returns the normalized target list, falling back to the
// legacy single script name.
func (c *AgentConfig) TargetNames() []string {
	targets := detector.NormalizeTargets(c.Monitor.Targets)
	if len(targets) == 0 && strings.TrimSpace(c.Monitor.ScriptName) != "" {
		return []string{strings.TrimSpace(c.Monitor.ScriptName)}
	}
	return targets
}

// MachineID returns the configured identity or, failing that, the host name.
func (c *AgentConfig) MachineID(hostname func() (string, error)) (string, error) {
	if id := strings.TrimSpace(c.Machine.ID); id != "" {
		return id, nil
	}
	name, err := hostname()
	if err != nil {
		return "", fmt.Errorf("resolving host name: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("host name is empty and machine.id is not set")
	}
	return name, nil
}

// Validate checks that the configuration is usable. Returns an error if
// required fields are missing or the server URL uses plain HTTP for a
// non-local host.
func (c *AgentConfig) Validate() error {
	if _, ok := models.ParseMode(c.Monitor.Type); !ok {
		return fmt.Errorf("monitor type must be PC or SERVER (got: %s)", c.Monitor.Type)
	}
	if c.Collection.Interval.Duration < time.Second {
		return fmt.Errorf("collection interval must be at least 1s (got: %s)", c.Collection.Interval.Duration)
	}

	switch c.Transport.Mode {
	case TransportDirect:
		if c.Transport.StorePath == "" {
			return fmt.Errorf("transport.store_path is required in direct mode")
		}
		return nil
	case TransportHTTP, "":
	default:
		return fmt.Errorf("transport mode must be http or direct (got: %s)", c.Transport.Mode)
	}

	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.Server.AgentToken == "" {
		return fmt.Errorf("agent token is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("server URL is not a valid URL (got: %s)", c.Server.URL)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !c.Server.AllowInsecure && !isLoopback(u.Hostname()) {
			return fmt.Errorf("server URL must use HTTPS, or set server.allow_insecure for a trusted network (got: %s)", c.Server.URL)
		}
	default:
		return fmt.Errorf("server URL must start with http:// or https:// (got: %s)", c.Server.URL)
	}
	return nil
}

// isLoopback reports whether host names the local machine.
func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
