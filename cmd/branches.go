package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/marcus/plansync/internal/db"
	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var errNoLogin = errors.New("no GitHub login for this session (run plansync auth login)")

// branchLister is the part of the remote the branch and pull request
// listings read.
type branchLister interface {
	ListBranches(ctx context.Context) ([]ghclient.Branch, error)
	ListPulls(ctx context.Context, state string) ([]*ghclient.PullRequest, error)
}

// userPulls returns the pull requests in state opened by login.
func userPulls(ctx context.Context, src branchLister, login, state string) ([]*ghclient.PullRequest, error) {
	if login == "" {
		return nil, errNoLogin
	}
	prs, err := src.ListPulls(ctx, state)
	if err != nil {
		return nil, err
	}
	var out []*ghclient.PullRequest
	for _, pr := range prs {
		if strings.EqualFold(pr.Author, login) {
			out = append(out, pr)
		}
	}
	return out, nil
}

// workingBranches returns login's policy branches that no open pull request
// of theirs is built from, newest name first.
func workingBranches(ctx context.Context, src branchLister, login string) ([]ghclient.Branch, error) {
	if login == "" {
		return nil, errNoLogin
	}
	branches, err := src.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	prs, err := userPulls(ctx, src, login, "open")
	if err != nil {
		return nil, err
	}
	heads := make(map[string]bool, len(prs))
	for _, pr := range prs {
		heads[pr.Head] = true
	}

	prefix := login + "-policy-"
	var out []ghclient.Branch
	for _, b := range branches {
		if strings.HasPrefix(b.Name, prefix) && !heads[b.Name] {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List policy branches or switch the session to one",
	Long: `List your working branches: those named <user>-policy-<millis> that are not
the head of one of your open pull requests, newest first. With --all every
branch is listed. --use starts a new session on an existing branch.`,
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

		all, _ := cmd.Flags().GetBool("all")
		use, _ := cmd.Flags().GetString("use")

		var shown []ghclient.Branch
		if all || use != "" {
			shown, err = ws.gh.ListBranches(ctx)
		} else {
			shown, err = workingBranches(ctx, ws.gh, ws.row.Username)
		}
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if use != "" {
			if !hasBranch(shown, use) {
				err := fmt.Errorf("branch %q not found", use)
				output.Error("%v", err)
				return err
			}
			if err := ws.switchSession(&db.SessionRow{BaseBranch: ws.row.BaseBranch, Branch: use}); err != nil {
				output.Error("%v", err)
				return err
			}
			output.Success("Session now edits %s", use)
			return nil
		}

		if jsonOutput {
			return output.JSON(shown)
		}
		if len(shown) == 0 {
			fmt.Println("No working branches")
			return nil
		}
		for _, b := range shown {
			marker := "  "
			if b.Name == ws.row.Branch {
				marker = "* "
			}
			fmt.Printf("%s%s  %s\n", marker, output.ShortSHA(b.SHA), b.Name)
		}
		return nil
	},
}

func hasBranch(branches []ghclient.Branch, name string) bool {
	for _, b := range branches {
		if b.Name == name {
			return true
		}
	}
	return false
}

func init() {
	branchesCmd.Flags().String("use", "", "Start a new session on this branch")
	branchesCmd.Flags().Bool("all", false, "List every branch, not only your working branches")
	rootCmd.AddCommand(branchesCmd)
}
