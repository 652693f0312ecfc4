package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roset-dev/roset-go/roset"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the Roset API and store the key locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := flagAPIKey
		if key == "" {
			key = os.Getenv("ROSET_API_KEY")
		}
		if key == "" {
			fmt.Fprint(cmd.OutOrStdout(), "API key (rsk_...): ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("failed to read key: %w", err)
			}
			key = strings.TrimSpace(string(raw))
		}

		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		client, err := roset.NewClient(roset.Config{APIKey: key, BaseURL: cfg.APIURL})
		if err != nil {
			return err
		}
		defer client.Close()

		// Any successful authenticated call proves the key works.
		if _, err := client.Org.ListMembers(cmd.Context()); err != nil {
			if roset.IsUnauthorized(err) {
				return fmt.Errorf("invalid or expired API key")
			}
			return err
		}

		cfg.APIKey = key
		if err := saveFileConfig(cfg); err != nil {
			return err
		}

		path, _ := configPath()
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in. Credentials saved to %s\n", path)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadFileConfig()
		if err != nil {
			return err
		}
		if cfg.APIKey == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}

		cfg.APIKey = ""
		if err := saveFileConfig(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
