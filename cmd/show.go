package cmd

import (
	"errors"
	"fmt"

	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/session"
	"github.com/marcus/plansync/internal/suggest"
	"github.com/spf13/cobra"
)

// activePhase returns the active phase of t, taking the location's when a
// region plan does not name one.
func activePhase(sess *session.Session, t session.Target) string {
	loc, ok := sess.Tree.Location(t.Location)
	if !ok {
		return ""
	}
	if t.IsRegion() {
		if r, ok := loc.Region(t.Region); ok {
			if p := r.Plan.Plan(); p != nil && p.ActivePhase != "" {
				return p.ActivePhase
			}
		}
	}
	if p := loc.Plan.Plan(); p != nil {
		return p.ActivePhase
	}
	return ""
}

var showCmd = &cobra.Command{
	Use:     "show <location> [region]",
	Short:   "Show the plan of a location or region",
	GroupID: "query",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, region, err := parseTarget(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if len(args) == 2 {
			region = args[1]
		}
		t := session.Target{Location: loc, Region: region}

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

		phases, inherited, err := ws.sess.Phases(t)
		if err != nil {
			hint := ""
			if errors.Is(err, session.ErrLocationNotFound) {
				hint = suggest.Hint(loc, ws.sess.Tree.Locations())
			}
			output.Error("%s: %v%s", t, err, hint)
			return err
		}
		active := activePhase(ws.sess, t)

		if jsonOutput {
			return output.JSON(map[string]any{
				"target":      t.String(),
				"activePhase": active,
				"inherited":   inherited,
				"phases":      phases,
			})
		}

		node, _ := ws.sess.Tree.Location(loc)
		if t.IsRegion() {
			node, _ = node.Region(region)
		}
		title := t.String()
		if info := node.Info.Info(); info != nil && info.Name != "" {
			title = fmt.Sprintf("%s (%s)", t, info.Name)
		}
		fmt.Println(output.SectionHeader(title))
		fmt.Print(output.FormatPlan(phases, active, inherited, output.TerminalWidth(80)))

		if desc := node.Description.Text(); desc != "" {
			fmt.Print(output.Description(desc))
		}

		if problems := validatePlan(ws, t); len(problems) > 0 {
			fmt.Println()
			for _, p := range problems {
				output.Warning("%s", p)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
