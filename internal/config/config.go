package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: SANJEEVANI_SERVER__PORT sets server.port.
const EnvPrefix = "SANJEEVANI_"

// MinCookieSecretLen is the shortest accepted cookie secret, in bytes.
const MinCookieSecretLen = 32

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SANJEEVANI_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps SANJEEVANI_AUTH__SESSION_TTL to auth.session_ttl.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// DatabasePath is the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "sanjeevani.db")
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderNone:   true,
	ProviderOpenAI: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.Format != LogFormatText && c.Log.Format != LogFormatJSON {
		return fmt.Errorf("invalid log.format %q: must be text or json", c.Log.Format)
	}

	if n := len(c.Auth.CookieSecret); n > 0 && n < MinCookieSecretLen {
		return fmt.Errorf("auth.cookie_secret must be at least %d bytes, got %d", MinCookieSecretLen, n)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Auth.SweepInterval <= 0 {
		return fmt.Errorf("auth.sweep_interval must be positive")
	}
	if !strings.HasPrefix(c.Auth.SignInRoute, "/") {
		return fmt.Errorf("auth.sign_in_route must be an absolute path, got %q", c.Auth.SignInRoute)
	}
	if g := c.Auth.Google; g.Enabled() && (g.ClientSecret == "" || g.RedirectURL == "") {
		return fmt.Errorf("auth.google needs client_id, client_secret and redirect_url")
	}

	if !validProviders[c.Assistant.Provider] {
		return fmt.Errorf("invalid assistant.provider %q: must be one of none, openai", c.Assistant.Provider)
	}
	if c.Assistant.Provider != ProviderNone && c.Assistant.Model == "" {
		return fmt.Errorf("assistant.model is required")
	}
	if c.Assistant.RateLimit < 0 {
		return fmt.Errorf("assistant.rate_limit must be non-negative")
	}

	if len(c.Mascot.Messages) == 0 {
		return errors.New("mascot.messages must not be empty")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// GenerateSecret returns a random cookie secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, MinCookieSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SetupLogging configures the global logrus logger from c.
func SetupLogging(c LogConfig) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(level)

	switch c.Format {
	case LogFormatJSON:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case LogFormatText, "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
