package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

// describeAction renders a one-line summary of a journaled edit.
func describeAction(a edits.Action) string {
	parts := []string{string(a.Op)}
	if t := a.Target(); t.Location != "" {
		parts = append(parts, t.String())
	}
	for _, v := range []string{a.Phase, a.Label, a.Question, a.NewQuestion, a.Key, a.Text, a.URL, a.ID, a.Name} {
		if v != "" {
			parts = append(parts, fmt.Sprintf("%q", v))
		}
	}
	return output.Truncate(strings.Join(parts, " "), output.TerminalWidth(80)-16)
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Drop the last pending edit",
	Long: `Drop the most recent edit that has not been submitted yet.

Submitted edits are already on the session branch and cannot be undone here.
Use 'plansync status' to see the pending edits.`,
	GroupID: "session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer ws.Close()

		action, err := ws.db.UndoLast(ws.row.ID)
		if err != nil {
			output.Error("undo: %v", err)
			return err
		}
		if action == nil {
			fmt.Println("No pending edits to undo")
			return nil
		}
		if jsonOutput {
			return output.JSON(action.Action)
		}
		output.Success("Undid %s", describeAction(action.Action))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(undoCmd)
}
