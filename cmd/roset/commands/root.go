// Package commands implements the roset CLI.
package commands

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/roset-dev/roset-go/logger"
	"github.com/roset-dev/roset-go/roset"
)

var (
	flagAPIKey string
	flagAPIURL string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "roset",
	Short: "Roset CLI: versioned object storage with atomic commits",
	Long: `roset drives the Roset API from the command line: authenticate,
inspect connectivity, snapshot folders atomically and move refs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI
func Execute() error {
	// .env is a dev convenience; missing file is fine.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (overrides env and config file)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API base URL (overrides env and config file)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

// newClient builds an SDK client from the resolved configuration
func newClient() (*roset.Client, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, errors.New("not logged in: run 'roset login' or set ROSET_API_KEY")
	}

	logLevel := "warn"
	if cfg.Debug {
		logLevel = "debug"
	}

	return roset.NewClient(roset.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.APIURL,
		Logger:  logger.New(logLevel, "console"),
	})
}
