package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roset-dev/roset-go/roset"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check API connectivity and authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		start := time.Now()
		members, err := client.Org.ListMembers(cmd.Context())
		latency := time.Since(start).Round(time.Millisecond)

		out := cmd.OutOrStdout()
		switch {
		case err == nil:
			fmt.Fprintf(out, "API:      reachable (%s)\n", latency)
			fmt.Fprintf(out, "Auth:     ok (%d member(s) visible)\n", len(members))
		case roset.IsUnauthorized(err):
			fmt.Fprintf(out, "API:      reachable (%s)\n", latency)
			fmt.Fprintln(out, "Auth:     FAILED, invalid or expired API key")
			return fmt.Errorf("authentication failed")
		default:
			fmt.Fprintln(out, "API:      UNREACHABLE")
			return err
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "roset 0.2.0")
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
