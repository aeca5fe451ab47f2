package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/marcus/plansync/internal/commit"
	"github.com/marcus/plansync/internal/db"
	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Commit pending edits to the session branch and open a pull request",
	Long: `Commit every dirty file to the session branch, creating the branch from the
base branch first if needed, then open a pull request or update the one the
session already has.

Writes are conditional on the file identity read at fetch time. A file that
changed remotely since then fails with a conflict and the other files are
still written; re-apply those edits after the next fetch.`,
	GroupID: "session",
	Args:    cobra.NoArgs,
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

		if ws.row.Branch == "" && ws.row.PRNumber == 0 && ws.sess.Username == "" {
			output.Error("%v", errNoLogin)
			return errNoLogin
		}

		for _, t := range ws.sess.Touched() {
			for _, p := range validatePlan(ws, t) {
				output.Warning("%s: %s", t, p)
			}
		}

		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")
		seq := commit.New(ws.sess, ws.gh, ws.settings.DataRoot)
		res, pr, submitErr := seq.Submit(ctx, commit.RequestOptions{Title: title, Body: body})

		// Record whatever landed even when a later step failed.
		if ws.sess.Branch != "" && ws.sess.Branch != ws.row.Branch {
			if err := ws.db.UpdateSessionBranch(ws.row.ID, ws.sess.Branch); err != nil {
				output.Error("record branch: %v", err)
				return err
			}
		}
		if len(res.Succeeded)+len(res.Failures) > 0 {
			if _, err := ws.db.MarkSubmitted(ws.row.ID, time.Now()); err != nil {
				output.Error("update journal: %v", err)
				return err
			}
		}
		if pr != nil {
			if err := ws.db.UpdateSessionRequest(ws.row.ID, pr.Number, pr.Title, pr.Body); err != nil {
				output.Error("record pull request: %v", err)
				return err
			}
		}

		if jsonOutput {
			failures := make([]map[string]string, len(res.Failures))
			for i, f := range res.Failures {
				failures[i] = map[string]string{"path": f.Path, "error": f.Err.Error(), "kind": failureKind(f.Err)}
			}
			out := map[string]any{
				"branch":    ws.sess.Branch,
				"committed": res.Succeeded,
				"failures":  failures,
			}
			if pr != nil {
				out["pr"] = pr
			}
			if submitErr != nil {
				out["error"] = submitErr.Error()
			}
			if err := output.JSON(out); err != nil {
				return err
			}
		} else {
			for _, p := range res.Succeeded {
				fmt.Printf("  committed %s\n", p)
			}
			for _, f := range res.Failures {
				output.Warning("%s: %v", f.Path, f.Err)
			}
			if pr != nil {
				output.Success("Pull request #%d %s", pr.Number, pr.URL)
			}
		}

		if submitErr != nil {
			if !jsonOutput {
				output.Error("submit: %v", submitErr)
			}
			return submitErr
		}
		if err := res.Err(); err != nil {
			if !jsonOutput {
				output.Error("%d file(s) were not committed; re-apply their edits", len(res.Failures))
			}
			return err
		}
		return nil
	},
}

// failureKind classifies a write failure for machine output.
func failureKind(err error) string {
	var re *ghclient.RequestError
	switch {
	case errors.Is(err, ghclient.ErrWriteConflict):
		return output.ErrCodeConflict
	case errors.Is(err, ghclient.ErrUnauthorized), errors.Is(err, ghclient.ErrForbidden):
		return output.ErrCodeUnauthorized
	case errors.As(err, &re):
		return output.ErrCodeRemoteError
	case errors.Is(err, db.ErrJournalBusy):
		return output.ErrCodeDatabaseError
	}
	return output.ErrCodeInvalidInput
}

func init() {
	submitCmd.Flags().String("title", "", "Pull request title (default: "+commit.DefaultTitle+")")
	submitCmd.Flags().String("body", "", "Pull request body")
	rootCmd.AddCommand(submitCmd)
}
