package config

import "time"

// ProviderType identifies the assistant's LLM provider.
type ProviderType string

const (
	ProviderNone   ProviderType = "none"
	ProviderOpenAI ProviderType = "openai"
)

// LogFormat selects the log output encoding.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Config is the top-level sanjeevani configuration, corresponding to
// .sanjeevani.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
	Auth      AuthConfig      `yaml:"auth" koanf:"auth"`
	Assistant AssistantConfig `yaml:"assistant" koanf:"assistant"`
	Mascot    MascotConfig    `yaml:"mascot" koanf:"mascot"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	// SecureCookies marks cookies Secure; enable behind HTTPS.
	SecureCookies bool `yaml:"secure_cookies" koanf:"secure_cookies"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string    `yaml:"level" koanf:"level"`
	Format LogFormat `yaml:"format" koanf:"format"`
}

// AuthConfig holds sign-in and session settings.
type AuthConfig struct {
	// CookieSecret signs the session cookie. When empty a random secret is
	// generated at startup and sessions do not survive a restart.
	CookieSecret  string        `yaml:"cookie_secret" koanf:"cookie_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" koanf:"sweep_interval"`
	SignInRoute   string        `yaml:"sign_in_route" koanf:"sign_in_route"`
	EmailSignIn   bool          `yaml:"email_sign_in" koanf:"email_sign_in"`
	Google        GoogleConfig  `yaml:"google" koanf:"google"`
}

// GoogleConfig holds Google OAuth client settings.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id" koanf:"client_id"`
	ClientSecret string `yaml:"client_secret" koanf:"client_secret"`
	RedirectURL  string `yaml:"redirect_url" koanf:"redirect_url"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != ""
}

// AssistantConfig selects the chat assistant's model.
type AssistantConfig struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	BaseURL  string       `yaml:"base_url" koanf:"base_url"`
	// RateLimit is requests per minute per member; 0 disables it.
	RateLimit int `yaml:"rate_limit" koanf:"rate_limit"`
}

// MascotConfig holds the mascot bubble's messages.
type MascotConfig struct {
	Messages []string `yaml:"messages" koanf:"messages"`
}
