package config

import "time"

// DefaultConfigFile is the config file read when --config is not given.
const DefaultConfigFile = ".sanjeevani.yml"

// DefaultMascotMessages are shown by the mascot bubble, in order.
var DefaultMascotMessages = []string{
	"Hi, I'm SIA! Need a hand finding your way?",
	"Questions about your health? Our assistant is here 24/7.",
	"Join the community to share tips and stories.",
	"Small habits add up. Drink some water today!",
	"Sign in to pick up your last conversation.",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		DataDir: ".sanjeevani",
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
		Auth: AuthConfig{
			SessionTTL:    7 * 24 * time.Hour,
			SweepInterval: time.Minute,
			SignInRoute:   "/signin",
			EmailSignIn:   true,
		},
		Assistant: AssistantConfig{
			Provider:  ProviderNone,
			Model:     "gpt-4o-mini",
			RateLimit: 10,
		},
		Mascot: MascotConfig{
			Messages: append([]string(nil), DefaultMascotMessages...),
		},
	}
}
