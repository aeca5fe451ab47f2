package cmd

import (
	"errors"
	"fmt"

	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/session"
	"github.com/marcus/plansync/internal/validate"
	"github.com/spf13/cobra"
)

var errValidation = errors.New("validation failed")

// validatePlan checks the plan t owns against its location strings and the
// global tables. Inheriting regions are checked through their location.
func validatePlan(ws *workspace, t session.Target) []validate.Problem {
	loc, ok := ws.sess.Tree.Location(t.Location)
	if !ok {
		return nil
	}
	node := loc
	if t.IsRegion() {
		if node, ok = loc.Region(t.Region); !ok {
			return nil
		}
	}
	known := append(validate.Tables{loc.Strings.Strings()}, globalTables(ws.sess)...)
	return validate.Plan(node.Plan.Plan(), known)
}

// allTargets lists every location followed by its regions.
func allTargets(sess *session.Session) []session.Target {
	var out []session.Target
	for _, key := range sess.Tree.Locations() {
		out = append(out, session.Target{Location: key})
		loc, _ := sess.Tree.Location(key)
		for _, r := range loc.Regions() {
			out = append(out, session.Target{Location: key, Region: r})
		}
	}
	return out
}

var validateCmd = &cobra.Command{
	Use:     "validate [target...]",
	Short:   "Check plans for broken phase references and undefined strings",
	GroupID: "query",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		var targets []session.Target
		if len(args) == 0 {
			targets = allTargets(ws.sess)
		}
		for _, arg := range args {
			loc, region, err := parseTarget(arg)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			targets = append(targets, session.Target{Location: loc, Region: region})
		}

		found := make(map[string][]validate.Problem)
		total := 0
		for _, t := range targets {
			if problems := validatePlan(ws, t); len(problems) > 0 {
				found[t.String()] = problems
				total += len(problems)
			}
		}

		if jsonOutput {
			if err := output.JSON(found); err != nil {
				return err
			}
		} else {
			for _, t := range targets {
				problems := found[t.String()]
				if len(problems) == 0 {
					continue
				}
				fmt.Printf("%s: %d problem(s)\n", t, len(problems))
				for _, line := range output.BulletList(problemLines(problems), 2) {
					fmt.Println(line)
				}
			}
		}
		if total > 0 {
			if !jsonOutput {
				output.Error("%d problem(s) in %d plan(s)", total, len(found))
			}
			return errValidation
		}
		if !jsonOutput {
			output.Success("%d plan(s) passed validation", len(targets))
		}
		return nil
	},
}

func problemLines(problems []validate.Problem) []string {
	out := make([]string, len(problems))
	for i, p := range problems {
		out[i] = p.String()
	}
	return out
}

// globalTables returns the shared localization tables.
func globalTables(sess *session.Session) validate.Tables {
	var ts validate.Tables
	for _, name := range fetch.GlobalFiles {
		ts = append(ts, sess.Globals.Slot(name).Strings())
	}
	return ts
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
