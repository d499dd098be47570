// Package config loads lookup settings from YAML and the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marko911/tx-lookup/internal/engine"
	"github.com/marko911/tx-lookup/internal/registry"
	"github.com/marko911/tx-lookup/internal/transport"
	"github.com/marko911/tx-lookup/pkg/explorer"
)

type Config struct {
	Engine EngineConfig `yaml:"engine"`

	HTTP HTTPConfig `yaml:"http"`

	// Replay serves lookups from recorded fixtures instead of the network.
	Replay ReplayConfig `yaml:"replay"`

	// Explorers override built-ins by service name or add a custom wave.
	Explorers []ExplorerConfig `yaml:"explorers"`

	API APIConfig `yaml:"api"`

	NATS NATSConfig `yaml:"nats"`
}

type EngineConfig struct {
	MinimumSources int    `yaml:"minimum_sources"`
	RaceAll        bool   `yaml:"race_all"`
	Policy         string `yaml:"policy"`
}

type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	AllowHTTP    bool          `yaml:"allow_http"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type ReplayConfig struct {
	FixturesDir string `yaml:"fixtures_dir"`
	Strict      bool   `yaml:"strict"`
}

type APIConfig struct {
	ListenAddr    string        `yaml:"listen_addr"`
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

type NATSConfig struct {
	// URL enables outcome publishing when set.
	URL        string `yaml:"url"`
	StreamName string `yaml:"stream_name"`
	Subject    string `yaml:"subject"`
}

// ExplorerConfig describes one caller-supplied adapter.
type ExplorerConfig struct {
	ServiceName     string `yaml:"service_name" json:"service_name,omitempty"`
	URL             string `yaml:"url" json:"url,omitempty"`
	MainURL         string `yaml:"main_url" json:"main_url,omitempty"`
	TestURL         string `yaml:"test_url" json:"test_url,omitempty"`
	Key             string `yaml:"key" json:"key,omitempty"`
	KeyPropertyName string `yaml:"key_property_name" json:"key_property_name,omitempty"`
	Priority        int    `yaml:"priority" json:"priority,omitempty"`

	// APIType is "rest" (default) or "rpc".
	APIType string `yaml:"api_type" json:"api_type,omitempty"`

	// ChainType picks the default RPC parser: "eth" (default) or "btc".
	ChainType string `yaml:"chain_type" json:"chain_type,omitempty"`

	// Parser names a built-in response parser for REST adapters.
	Parser string `yaml:"parser" json:"parser,omitempty"`
}

func Default() *Config {
	def := engine.DefaultConfig()
	httpDef := transport.DefaultHTTPConfig()
	return &Config{
		Engine: EngineConfig{
			MinimumSources: def.MinimumSources,
			RaceAll:        def.RaceAll,
			Policy:         def.Policy.String(),
		},
		HTTP: HTTPConfig{
			Timeout:      httpDef.Timeout,
			AllowHTTP:    httpDef.AllowHTTP,
			UserAgent:    httpDef.UserAgent,
			MaxBodyBytes: httpDef.MaxBodyBytes,
		},
		API: APIConfig{
			ListenAddr:    ":8080",
			LookupTimeout: 60 * time.Second,
		},
		NATS: NATSConfig{
			StreamName: "TX_LOOKUPS",
			Subject:    "lookups.outcome",
		},
	}
}

// Load reads defaults, then the file at path if given, then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Engine.MinimumSources = envOrDefaultInt("TXLOOKUP_MINIMUM_SOURCES", c.Engine.MinimumSources)
	c.Engine.RaceAll = envOrDefaultBool("TXLOOKUP_RACE_ALL", c.Engine.RaceAll)
	c.Engine.Policy = envOrDefault("TXLOOKUP_POLICY", c.Engine.Policy)
	c.HTTP.Timeout = envOrDefaultDuration("TXLOOKUP_HTTP_TIMEOUT", c.HTTP.Timeout)
	c.HTTP.AllowHTTP = envOrDefaultBool("TXLOOKUP_ALLOW_HTTP", c.HTTP.AllowHTTP)
	c.Replay.FixturesDir = envOrDefault("TXLOOKUP_FIXTURES_DIR", c.Replay.FixturesDir)
	c.API.ListenAddr = envOrDefault("TXLOOKUP_LISTEN_ADDR", c.API.ListenAddr)
	c.NATS.URL = envOrDefault("NATS_URL", c.NATS.URL)
}

func (c *Config) Validate() error {
	if _, err := engine.ParsePolicy(c.Engine.Policy); err != nil {
		return fmt.Errorf("engine.policy: %w", err)
	}
	if c.Engine.MinimumSources < 0 {
		return fmt.Errorf("engine.minimum_sources must not be negative, got %d", c.Engine.MinimumSources)
	}
	for i, e := range c.Explorers {
		if _, err := e.Adapter(); err != nil {
			return fmt.Errorf("explorers[%d]: %w", i, err)
		}
	}
	return nil
}

// EngineSettings converts to the engine's settings. Validate has already
// checked the policy name.
func (c *Config) EngineSettings() engine.Config {
	policy, _ := engine.ParsePolicy(c.Engine.Policy)
	return engine.Config{
		MinimumSources: c.Engine.MinimumSources,
		RaceAll:        c.Engine.RaceAll,
		Policy:         policy,
	}
}

func (c *Config) HTTPSettings() transport.HTTPConfig {
	return transport.HTTPConfig{
		Timeout:      c.HTTP.Timeout,
		AllowHTTP:    c.HTTP.AllowHTTP,
		UserAgent:    c.HTTP.UserAgent,
		MaxBodyBytes: c.HTTP.MaxBodyBytes,
	}
}

// Transport returns a replay transport when a fixtures directory is set and
// a live HTTP transport otherwise.
func (c *Config) Transport(logger *slog.Logger) (explorer.Transport, error) {
	if c.Replay.FixturesDir != "" {
		return transport.NewReplay(transport.ReplayConfig{
			FixturesDir:  c.Replay.FixturesDir,
			Strict:       c.Replay.Strict,
			SecretParams: c.SecretParams(),
		}, logger)
	}
	return transport.NewHTTP(c.HTTPSettings(), nil, logger), nil
}

// SecretParams is the default credential list plus every configured key
// property name.
func (c *Config) SecretParams() []string {
	params := append([]string(nil), transport.DefaultSecretParams...)
	for _, e := range c.Explorers {
		if e.KeyPropertyName != "" {
			params = append(params, e.KeyPropertyName)
		}
	}
	return params
}

// Adapters converts every configured explorer.
func (c *Config) Adapters() ([]explorer.Adapter, error) {
	out := make([]explorer.Adapter, 0, len(c.Explorers))
	for i, e := range c.Explorers {
		a, err := e.Adapter()
		if err != nil {
			return nil, fmt.Errorf("explorers[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Adapter builds the explorer adapter this entry describes. Entries that only
// override a known service may leave the URL and parser empty.
func (e ExplorerConfig) Adapter() (explorer.Adapter, error) {
	a := explorer.Adapter{
		ServiceName:     explorer.ServiceName(e.ServiceName),
		Key:             e.Key,
		KeyPropertyName: e.KeyPropertyName,
		Priority:        explorer.Priority(e.Priority),
	}

	switch {
	case e.URL != "" && (e.MainURL != "" || e.TestURL != ""):
		return a, explorer.ConfigError("url and main_url/test_url are mutually exclusive")
	case e.URL != "":
		a.URL = explorer.FixedURL(e.URL)
	case e.MainURL != "" || e.TestURL != "":
		a.URL = explorer.NetworkURLs{Main: e.MainURL, Test: e.TestURL}
	}

	switch strings.ToLower(e.APIType) {
	case "", "rest":
		a.Kind = explorer.KindREST
	case "rpc":
		a.Kind = explorer.KindRPC
	default:
		return a, explorer.ConfigError("unknown api_type %q", e.APIType)
	}

	switch strings.ToLower(e.ChainType) {
	case "", "eth", "ethereum":
		a.RPCFamily = explorer.RPCEthereum
	case "btc", "bitcoin":
		a.RPCFamily = explorer.RPCBitcoin
	default:
		return a, explorer.ConfigError("unknown chain_type %q", e.ChainType)
	}

	if e.Parser != "" {
		p, ok := registry.NamedParser(e.Parser)
		if !ok {
			return a, explorer.ConfigError("unknown parser %q, expected one of %s", e.Parser, strings.Join(registry.ParserNames(), ", "))
		}
		a.Parse = p
	}

	if err := a.CheckKey(); err != nil {
		return a, err
	}
	if a.URL == nil && !a.ServiceName.Known() {
		return a, explorer.ConfigError("explorer %s needs a url", a.Name())
	}
	return a, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
