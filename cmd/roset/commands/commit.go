package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roset-dev/roset-go/roset"
)

var (
	commitMessage string
	commitRef     string
	commitTimeout time.Duration
	commitNoWait  bool
)

var commitCmd = &cobra.Command{
	Use:   "commit <path>",
	Short: "Atomically snapshot a folder and optionally advance a ref",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		node, err := client.Nodes.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("no folder at %s", args[0])
		}

		commit, err := client.Commits.Create(ctx, roset.CreateCommitParams{
			NodeID:  node.ID,
			Message: commitMessage,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Commit %s created (pending)\n", commit.ID)

		if commitNoWait {
			return nil
		}

		commitID := commit.ID
		commit, err = client.Commits.WaitFor(ctx, commitID, roset.WaitOptions{Timeout: commitTimeout})
		if err != nil {
			if roset.IsWaitTimeout(err) {
				return fmt.Errorf("still pending after %s; re-check with the commit ID %s", commitTimeout, commitID)
			}
			return err
		}
		fmt.Fprintf(out, "Commit %s completed\n", commit.ID)

		if commitRef != "" {
			ref, err := client.Refs.Update(ctx, commitRef, commit.ID, roset.UpdateRefOptions{})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Ref %s -> %s\n", ref.Name, ref.CommitID)
		}
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.Flags().StringVar(&commitRef, "ref", "", "advance this ref to the completed commit")
	commitCmd.Flags().DurationVar(&commitTimeout, "timeout", time.Minute, "how long to wait for completion")
	commitCmd.Flags().BoolVar(&commitNoWait, "no-wait", false, "create the commit without waiting for completion")
	rootCmd.AddCommand(commitCmd)
}
