package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mihaisavezi/chatrelay/internal/catalog"
)

const (
	DefaultPort            = 6970
	DefaultHost            = "127.0.0.1"
	DefaultConfigFilename  = "config.json"
	DefaultYAMLFilename    = "config.yaml"
	DefaultRequestTimeout  = "0s"
	DefaultReadURLMaxChars = 5000
	DefaultExaBaseURL      = "https://api.exa.ai"
)

// ThinkingEfforts maps thinking options onto provider effort levels.
type ThinkingEfforts struct {
	Disabled string `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Fast     string `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow     string `json:"slow,omitempty" yaml:"slow,omitempty"`
}

type ToolsConfig struct {
	ExaAPIKey       string `json:"exa_api_key,omitempty" yaml:"exa_api_key,omitempty"`
	ExaBaseURL      string `json:"exa_base_url,omitempty" yaml:"exa_base_url,omitempty"`
	ReadURLMaxChars int    `json:"read_url_max_chars,omitempty" yaml:"read_url_max_chars,omitempty"`
}

type Config struct {
	Host            string                             `json:"host,omitempty" yaml:"host,omitempty"`
	Port            int                                `json:"port,omitempty" yaml:"port,omitempty"`
	CatalogFile     string                             `json:"catalog_file,omitempty" yaml:"catalog_file,omitempty"`
	ThinkingEfforts ThinkingEfforts                    `json:"thinking_efforts" yaml:"thinking_efforts"`
	RequestTimeout  string                             `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	Tools           ToolsConfig                        `json:"tools" yaml:"tools"`
	Providers       map[string]catalog.ProviderSetting `json:"providers,omitempty" yaml:"providers,omitempty"`
	RelayURL        string                             `json:"relay_url,omitempty" yaml:"relay_url,omitempty"`
}

// Timeout parses RequestTimeout. Zero means streams are bounded only by the
// client connection.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("parse request_timeout: %w", err)
	}
	return d, nil
}

// Addr is the listen address of the relay.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Settings overlays the configured provider credentials on the catalog
// defaults.
func (c *Config) Settings(reg *catalog.Registry) catalog.Settings {
	settings := catalog.DefaultSettings(reg)
	for id, p := range c.Providers {
		settings = settings.With(id, p)
	}
	return settings
}

// Validate reports configuration errors that applyDefaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if d, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative"))
	}
	if c.CatalogFile != "" {
		if _, err := os.Stat(c.CatalogFile); err != nil {
			errs = append(errs, fmt.Errorf("catalog_file: %w", err))
		}
	}
	if c.Tools.ReadURLMaxChars < 0 {
		errs = append(errs, fmt.Errorf("tools.read_url_max_chars must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ThinkingEfforts.Disabled == "" {
		c.ThinkingEfforts.Disabled = "none"
	}
	if c.ThinkingEfforts.Fast == "" {
		c.ThinkingEfforts.Fast = "minimal"
	}
	if c.ThinkingEfforts.Slow == "" {
		c.ThinkingEfforts.Slow = "high"
	}
	if c.Tools.ExaBaseURL == "" {
		c.Tools.ExaBaseURL = DefaultExaBaseURL
	}
	if c.Tools.ReadURLMaxChars == 0 {
		c.Tools.ReadURLMaxChars = DefaultReadURLMaxChars
	}
	if c.RelayURL == "" {
		c.RelayURL = "http://" + c.Addr()
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// applyEnv lets the environment override secrets kept out of the file.
func (c *Config) applyEnv() {
	if key := os.Getenv("EXA_API_KEY"); key != "" {
		c.Tools.ExaAPIKey = key
	}
}

// Manager loads and caches the configuration. config.yaml takes precedence
// over config.json when both exist.
type Manager struct {
	baseDir     string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

func (m *Manager) yamlPath() string {
	return filepath.Join(m.baseDir, DefaultYAMLFilename)
}

func (m *Manager) jsonPath() string {
	return filepath.Join(m.baseDir, DefaultConfigFilename)
}

func (m *Manager) Load() (*Config, error) {
	var cfg Config

	switch {
	case m.HasYAML():
		data, err := os.ReadFile(m.yamlPath())
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml config: %w", err)
		}
	default:
		data, err := os.ReadFile(m.jsonPath())
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	m.configValue.Store(&cfg)
	return &cfg, nil
}

// Get returns the cached configuration, loading it on first use. A missing
// or unreadable file yields the defaults.
func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg as JSON.
func (m *Manager) Save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.write(m.jsonPath(), data, cfg)
}

// SaveAsYAML writes cfg as YAML, which then takes precedence over JSON.
func (m *Manager) SaveAsYAML(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml config: %w", err)
	}
	return m.write(m.yamlPath(), data, cfg)
}

func (m *Manager) write(path string, data []byte, cfg *Config) error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	// The file may hold provider keys.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	m.configValue.Store(cfg)
	return nil
}

// CreateExampleYAML writes a commented starter configuration.
func (m *Manager) CreateExampleYAML() error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(m.yamlPath(), []byte(exampleYAML), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// GetPath returns the file Load reads: YAML if present, JSON otherwise.
func (m *Manager) GetPath() string {
	if m.HasYAML() {
		return m.yamlPath()
	}
	return m.jsonPath()
}

func (m *Manager) BaseDir() string {
	return m.baseDir
}

func (m *Manager) Exists() bool {
	return m.HasYAML() || m.HasJSON()
}

func (m *Manager) HasYAML() bool {
	_, err := os.Stat(m.yamlPath())
	return err == nil
}

func (m *Manager) HasJSON() bool {
	_, err := os.Stat(m.jsonPath())
	return err == nil
}

const exampleYAML = `# chatrelay configuration
host: 127.0.0.1
port: 6970

# Optional catalog overlay in models.dev format (JSON or YAML).
# catalog_file: /path/to/catalog.json

# Reasoning effort sent for each thinking option.
thinking_efforts:
  disabled: none
  fast: minimal
  slow: high

# Upper bound for one upstream call; 0s leaves streams open until the client leaves.
request_timeout: 0s

tools:
  # EXA_API_KEY in the environment takes precedence.
  exa_api_key: ""
  read_url_max_chars: 5000

# Credentials used by "chatrelay chat". opencode serves free models with the public key.
providers:
  opencode:
    api_key: public
    enabled: true
  # openai:
  #   api_key: sk-...
  #   enabled: true

relay_url: http://127.0.0.1:6970
`
