package cmd

import (
	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var phaseCmd = &cobra.Command{
	Use:     "phase",
	Short:   "Add, remove, rename or activate phases",
	GroupID: "edit",
	Long: `Edit the phases of a location or region plan.

Targets are written location or location/region. Editing a region that
inherits its location's phases first copies them into the region's own plan.`,
}

// targetAction parses target and returns an action of op aimed at it.
func targetAction(op edits.Op, target string) (edits.Action, error) {
	loc, region, err := parseTarget(target)
	if err != nil {
		output.Error("%v", err)
		return edits.Action{}, err
	}
	return edits.Action{Op: op, Location: loc, Region: region}, nil
}

var phaseAddCmd = &cobra.Command{
	Use:     "add <target> <label>",
	Short:   "Append a phase",
	Example: `  plansync phase add wa "Phase 1C"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpAddPhase, args[0])
		if err != nil {
			return err
		}
		a.Label = args[1]
		return runEdit(cmd.Context(), a, func(res edits.Result) {
			output.Success("Added phase %s to %s", res.ID, a.Target())
		})
	},
}

var phaseRemoveCmd = &cobra.Command{
	Use:     "remove <target> <phase-id>",
	Aliases: []string{"rm"},
	Short:   "Remove a phase",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpRemovePhase, args[0])
		if err != nil {
			return err
		}
		a.Phase = args[1]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Removed phase %s from %s", a.Phase, a.Target())
		})
	},
}

var phaseRenameCmd = &cobra.Command{
	Use:   "rename <target> <phase-id> <label>",
	Short: "Change a phase label",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpRenamePhase, args[0])
		if err != nil {
			return err
		}
		a.Phase, a.Label = args[1], args[2]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Renamed phase %s to %q", a.Phase, a.Label)
		})
	},
}

var phaseActivateCmd = &cobra.Command{
	Use:   "activate <target> <phase-id>",
	Short: "Set the active phase",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := targetAction(edits.OpActivatePhase, args[0])
		if err != nil {
			return err
		}
		a.Phase = args[1]
		return runEdit(cmd.Context(), a, func(edits.Result) {
			output.Success("Active phase of %s is now %s", a.Target(), a.Phase)
		})
	},
}

func init() {
	phaseCmd.AddCommand(phaseAddCmd, phaseRemoveCmd, phaseRenameCmd, phaseActivateCmd)
	rootCmd.AddCommand(phaseCmd)
}
