package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to SANJEEVANI! Let's configure your server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 2. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite database)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 3. Email sign-in.
	emailPrompt := promptui.Select{
		Label: "Allow passwordless email sign-in (development only)",
		Items: []string{"yes", "no"},
	}
	idx, _, err := emailPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("email sign-in: %w", err)
	}
	cfg.Auth.EmailSignIn = idx == 0

	// 4. Google sign-in.
	googlePrompt := promptui.Prompt{
		Label: "Google OAuth client ID (leave blank to disable)",
	}
	clientID, err := googlePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("google client id: %w", err)
	}
	if clientID = strings.TrimSpace(clientID); clientID != "" {
		cfg.Auth.Google.ClientID = clientID

		secretPrompt := promptui.Prompt{Label: "Google OAuth client secret", Mask: '*'}
		if cfg.Auth.Google.ClientSecret, err = secretPrompt.Run(); err != nil {
			return nil, fmt.Errorf("google client secret: %w", err)
		}
		redirectPrompt := promptui.Prompt{
			Label:   "Google OAuth redirect URL",
			Default: fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Server.Port),
		}
		if cfg.Auth.Google.RedirectURL, err = redirectPrompt.Run(); err != nil {
			return nil, fmt.Errorf("google redirect url: %w", err)
		}
	}

	// 5. Assistant.
	providerPrompt := promptui.Select{
		Label: "Select the assistant's LLM provider",
		Items: []string{string(ProviderNone), string(ProviderOpenAI)},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Assistant.Provider = ProviderType(providerStr)

	if cfg.Assistant.Provider != ProviderNone {
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: cfg.Assistant.Model,
		}
		if cfg.Assistant.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		baseURLPrompt := promptui.Prompt{
			Label: "API base URL (leave blank for the provider default)",
		}
		if cfg.Assistant.BaseURL, err = baseURLPrompt.Run(); err != nil {
			return nil, fmt.Errorf("base url: %w", err)
		}
	}

	// 6. Mascot messages.
	mascotPrompt := promptui.Prompt{
		Label: "Mascot messages (comma-separated, leave blank for defaults)",
	}
	mascotStr, err := mascotPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mascot messages: %w", err)
	}
	if msgs := splitAndTrim(mascotStr); len(msgs) > 0 {
		cfg.Mascot.Messages = msgs
	}

	if cfg.Auth.CookieSecret, err = GenerateSecret(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(cfg.Assistant.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running sanjeevani server.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("enter a port between 1 and 65535")
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
