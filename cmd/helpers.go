package cmd

import (
	"fmt"

	"github.com/delarsify/sanjeevani/internal/config"
	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/llm"
)

// loadConfig loads and validates the config and configures logging, providing
// a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `sanjeevani init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDatabase opens the SQLite database under the configured data dir.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// createLLMProviderFromConfig creates the assistant's provider. A nil
// provider disables the assistant.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(llm.Config{
		Provider:  string(cfg.Assistant.Provider),
		Model:     cfg.Assistant.Model,
		BaseURL:   cfg.Assistant.BaseURL,
		RateLimit: cfg.Assistant.RateLimit,
	})
}
