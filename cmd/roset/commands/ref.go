package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roset-dev/roset-go/roset"
)

var refExpect string

var refCmd = &cobra.Command{
	Use:   "ref",
	Short: "Inspect and move refs",
}

var refGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show where a ref points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		ref, err := client.Refs.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ref == nil {
			return fmt.Errorf("ref %q does not exist", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s -> %s (updated %s)\n", ref.Name, ref.CommitID, ref.UpdatedAt.Format("2006-01-02 15:04:05"))
		if ref.Commit != nil {
			fmt.Fprintf(out, "  commit status: %s\n", ref.Commit.Status)
		}
		return nil
	},
}

var refSetCmd = &cobra.Command{
	Use:   "set <name> <commit-id>",
	Short: "Point a ref at a commit",
	Long: `Point a ref at a commit. With --expect, the update only succeeds if the
ref currently points at the given commit (compare-and-swap); concurrent
writers then fail with a conflict instead of silently losing updates.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		ref, err := client.Refs.Update(cmd.Context(), args[0], args[1], roset.UpdateRefOptions{
			ExpectedCommitID: refExpect,
		})
		if err != nil {
			if roset.IsConflict(err) {
				return fmt.Errorf("ref %q moved since you read it (expected %s); re-read and retry", args[0], refExpect)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", ref.Name, ref.CommitID)
		return nil
	},
}

var refDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a ref",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Refs.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted ref %s\n", args[0])
		return nil
	},
}

func init() {
	refSetCmd.Flags().StringVar(&refExpect, "expect", "", "only update if the ref currently points at this commit")
	refCmd.AddCommand(refGetCmd)
	refCmd.AddCommand(refSetCmd)
	refCmd.AddCommand(refDeleteCmd)
	rootCmd.AddCommand(refCmd)
}
