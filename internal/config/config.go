package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings loaded from requex.yml plus environment keys.
type Config struct {
	// Provider selects the generative backend: anthropic, openai or gemini.
	Provider string `yaml:"provider,omitempty"`

	// Models is the ordered model chain, fastest first.
	Models []string `yaml:"models,omitempty"`

	// MaxInFlight bounds concurrent generative calls.
	MaxInFlight int64 `yaml:"maxInFlight,omitempty"`

	// WindowSize is the page count per extraction window.
	WindowSize int `yaml:"windowSize,omitempty"`

	// Passes names the extraction passes to run ("windows", "groups").
	// Empty means both.
	Passes []string `yaml:"passes,omitempty"`

	// ConvertEndpoint is the document conversion service URL.
	ConvertEndpoint string `yaml:"convertEndpoint,omitempty"`

	// StoreDir is the blob store root directory (file backend).
	StoreDir string `yaml:"storeDir,omitempty"`

	// StoreDSN switches the blob store to SQLite when set.
	StoreDSN string `yaml:"storeDSN,omitempty"`

	// CatalogPath points at the control catalog JSON.
	CatalogPath string `yaml:"catalogPath,omitempty"`

	// GroundTruthPath points at the ground-truth mapping JSON.
	GroundTruthPath string `yaml:"groundTruthPath,omitempty"`

	// GlobalModulePrefixes lists the module-id prefixes whose controls are
	// scope-wide and attach to the umbrella target object.
	GlobalModulePrefixes []string `yaml:"globalModulePrefixes,omitempty"`

	// APIKey authenticates against the generative provider. Populated from
	// the environment or .env, never from the YAML file.
	APIKey string `yaml:"-"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `yaml:"-"`
}

// envKeyNames maps a provider to its API key environment variables; the
// first non-empty one wins.
var envKeyNames = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Load reads requex.yml or requex.yaml from the given directory, applies
// defaults, and overlays API credentials from the process environment and an
// optional .env file next to the config. A missing config file yields the
// defaults, not an error.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	for _, name := range []string{"requex.yml", "requex.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		break
	}

	cfg.applyDefaults()
	cfg.loadEnv(dir)
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "gemini"
	}
	if len(c.Models) == 0 {
		c.Models = []string{"gemini-2.5-flash", "gemini-2.5-pro"}
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 4
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 100
	}
	if c.ConvertEndpoint == "" {
		c.ConvertEndpoint = "http://localhost:8331/rpc"
	}
	if c.StoreDir == "" && c.StoreDSN == "" {
		c.StoreDir = "requex-data"
	}
	if len(c.GlobalModulePrefixes) == 0 {
		c.GlobalModulePrefixes = []string{"ISMS", "ORP", "CON"}
	}
}

// loadEnv overlays credentials: process environment first, then the .env
// file. The .env file is read without mutating the process environment.
func (c *Config) loadEnv(dir string) {
	fileVars, _ := godotenv.Read(filepath.Join(dir, ".env"))
	lookup := func(names ...string) string {
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				return v
			}
			if v := fileVars[name]; v != "" {
				return v
			}
		}
		return ""
	}

	c.APIKey = lookup(envKeyNames[c.Provider]...)
	c.BaseURL = lookup("REQUEX_BASE_URL", "OPENAI_BASE_URL")
}

// Validate checks the settings a run depends on. API credentials are not
// checked here: status and export commands work without them.
func (c *Config) Validate() error {
	if _, ok := envKeyNames[c.Provider]; !ok {
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("config: model chain is empty")
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("config: window size %d is below 1", c.WindowSize)
	}
	for _, pass := range c.Passes {
		if pass != "windows" && pass != "groups" {
			return fmt.Errorf("config: unknown pass %q", pass)
		}
	}
	return nil
}
