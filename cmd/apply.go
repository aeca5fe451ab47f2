package cmd

import (
	"fmt"
	"os"

	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <script.yaml>",
	Short: "Apply a YAML edit script",
	Long: `Apply every action of a YAML edit script in order.

The script is checked against the session first; if any action fails nothing
is journaled.

  actions:
    - op: add-phase
      location: wa
      label: Phase 1C
    - op: add-qualifier
      location: wa
      phase: phase_1c
      question: Adults 65 and older`,
	GroupID: "edit",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer f.Close()
		actions, err := edits.LoadScript(f)
		if err != nil {
			output.Error("%s: %v", args[0], err)
			return err
		}
		if len(actions) == 0 {
			fmt.Println("Script has no actions")
			return nil
		}

		ctx := cmd.Context()
		ws, err := openWorkspace(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer ws.Close()
		if err := ws.load(ctx); err != nil {
			output.Error("%v", err)
			return err
		}

		for i, a := range actions {
			if _, err := edits.Apply(ws.sess, a); err != nil {
				err = fmt.Errorf("action %d: %w%s", i+1, err, ws.hint(a, err))
				output.Error("%v", err)
				return err
			}
		}
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			output.Success("%d action(s) apply cleanly", len(actions))
			return nil
		}
		for _, a := range actions {
			if _, err := ws.db.RecordAction(ws.row.ID, a); err != nil {
				output.Error("journal action: %v", err)
				return err
			}
		}

		if jsonOutput {
			return output.JSON(map[string]any{"applied": len(actions)})
		}
		output.Success("Applied %d action(s)", len(actions))
		return nil
	},
}

func init() {
	applyCmd.Flags().Bool("dry-run", false, "Check the script without journaling it")
	rootCmd.AddCommand(applyCmd)
}
