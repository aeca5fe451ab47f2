package cmd

import (
	"strings"

	"github.com/marcus/plansync/internal/edits"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var locationCmd = &cobra.Command{
	Use:     "location",
	Short:   "Create locations",
	GroupID: "edit",
}

var locationAddCmd = &cobra.Command{
	Use:     "add <id> <name>",
	Short:   "Create a location with an empty plan",
	Example: `  plansync location add puerto_rico "Puerto Rico"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := edits.Action{Op: edits.OpAddLocation, ID: args[0], Name: args[1]}
		return runEdit(cmd.Context(), a, func(res edits.Result) {
			output.Success("Created location %s", res.ID)
		})
	},
}

var regionCmd = &cobra.Command{
	Use:     "region",
	Short:   "Create regions",
	GroupID: "edit",
}

var regionAddCmd = &cobra.Command{
	Use:   "add <location> <id> [name]",
	Short: "Create a region that inherits the location's phases",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := edits.Action{Op: edits.OpAddRegion, Location: strings.ToLower(args[0]), ID: args[1]}
		if len(args) == 3 {
			a.Name = args[2]
		}
		return runEdit(cmd.Context(), a, func(res edits.Result) {
			output.Success("Created region %s/%s", a.Location, res.ID)
		})
	},
}

func init() {
	locationCmd.AddCommand(locationAddCmd)
	regionCmd.AddCommand(regionAddCmd)
	rootCmd.AddCommand(locationCmd, regionCmd)
}
