package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/marcus/plansync/internal/db"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var errPendingEdits = errors.New("the session has pending edits (submit, undo or reset first)")

// switchSession ends the current session and starts next in its place. It
// refuses while edits are pending so nothing journaled is dropped.
func (ws *workspace) switchSession(next *db.SessionRow) error {
	pending, err := ws.db.PendingActions(ws.row.ID)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(pending) > 0 {
		return errPendingEdits
	}
	if err := ws.db.EndSession(ws.row.ID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if next.Username == "" {
		next.Username = ws.row.Username
	}
	if next.Language == "" {
		next.Language = ws.row.Language
	}
	if err := ws.db.StartSession(next); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	ws.row = next
	return nil
}

var prCmd = &cobra.Command{
	Use:     "pr",
	Short:   "Work with pull requests",
	GroupID: "session",
}

var prLoadCmd = &cobra.Command{
	Use:   "load <number>",
	Short: "Continue editing an existing pull request",
	Long: `Start a new session on the head branch of an existing pull request. Later
submits commit to that branch and update the request instead of opening one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[0])
		if err != nil || number <= 0 {
			err = fmt.Errorf("invalid pull request number %q", args[0])
			output.Error("%v", err)
			return err
		}

		ctx := cmd.Context()
		ws, err := openWorkspace(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer ws.Close()

		pr, err := ws.gh.GetPull(ctx, number)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if pr.State != "" && pr.State != "open" {
			output.Warning("pull request #%d is %s", pr.Number, pr.State)
		}
		err = ws.switchSession(&db.SessionRow{
			BaseBranch: pr.Base,
			Branch:     pr.Head,
			PRNumber:   pr.Number,
			PRTitle:    pr.Title,
			PRBody:     pr.Body,
		})
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOutput {
			return output.JSON(pr)
		}
		output.Success("Loaded #%d %q (%s -> %s)", pr.Number, pr.Title, pr.Head, pr.Base)
		return nil
	},
}

var prListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your pull requests",
	Long: `List pull requests opened by the session user. --state selects open, closed
or all requests.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, _ := cmd.Flags().GetString("state")
		switch state {
		case "open", "closed", "all":
		default:
			err := fmt.Errorf("invalid state %q (want open, closed or all)", state)
			output.Error("%v", err)
			return err
		}

		ctx := cmd.Context()
		ws, err := openWorkspace(ctx)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer ws.Close()

		prs, err := userPulls(ctx, ws.gh, ws.row.Username, state)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput {
			return output.JSON(prs)
		}
		if len(prs) == 0 {
			fmt.Println("No pull requests")
			return nil
		}
		for _, pr := range prs {
			marker := "  "
			if pr.Number == ws.row.PRNumber {
				marker = "* "
			}
			fmt.Printf("%s#%d %s (%s -> %s) %s\n", marker, pr.Number, pr.Title, pr.Head, pr.Base, pr.URL)
		}
		return nil
	},
}

func init() {
	prListCmd.Flags().String("state", "open", "Pull request state: open, closed or all")
	prCmd.AddCommand(prLoadCmd, prListCmd)
	rootCmd.AddCommand(prCmd)
}
