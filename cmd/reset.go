package cmd

import (
	"fmt"
	"time"

	"github.com/marcus/plansync/internal/db"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "End the editing session and drop its pending edits",
	Long: `End the open editing session. Pending edits are discarded; nothing on the
remote is changed. The next command starts a fresh session on the base branch.`,
	GroupID: "session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("open journal: %v", err)
			return err
		}
		defer database.Close()

		row, err := database.OpenSession()
		if err != nil {
			output.Error("load session: %v", err)
			return err
		}
		if row == nil {
			fmt.Println("No open session")
		} else {
			pending, err := database.PendingActions(row.ID)
			if err != nil {
				output.Error("read journal: %v", err)
				return err
			}
			if err := database.EndSession(row.ID); err != nil {
				output.Error("end session: %v", err)
				return err
			}
			output.Success("Ended session %s (%d pending edit(s) dropped)", row.ID, len(pending))
		}

		if age, _ := cmd.Flags().GetDuration("prune-cache"); age > 0 {
			n, err := database.PruneBlobs(time.Now().Add(-age))
			if err != nil {
				output.Error("prune cache: %v", err)
				return err
			}
			fmt.Printf("Pruned %d cached file(s)\n", n)
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().Duration("prune-cache", 0, "Also drop cached file contents older than this (e.g. 720h)")
	rootCmd.AddCommand(resetCmd)
}
