package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the editing session, pending edits and dirty files",
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

		pending, err := ws.db.PendingActions(ws.row.ID)
		if err != nil {
			output.Error("read journal: %v", err)
			return err
		}
		offline, _ := cmd.Flags().GetBool("offline")
		var dirty []string
		if !offline {
			if err := ws.load(ctx); err != nil {
				output.Error("%v", err)
				return err
			}
			for _, d := range ws.sess.DirtySlots() {
				dirty = append(dirty, d.RemotePath(ws.settings.DataRoot))
			}
		}

		if jsonOutput {
			actions := make([]any, len(pending))
			for i, p := range pending {
				actions[i] = p.Action
			}
			return output.JSON(map[string]any{
				"session":  ws.row.ID,
				"user":     ws.row.Username,
				"base":     ws.row.BaseBranch,
				"branch":   ws.row.Branch,
				"pr":       ws.row.PRNumber,
				"language": ws.row.Language,
				"pending":  actions,
				"dirty":    dirty,
			})
		}

		fmt.Printf("Session:  %s (started %s)\n", ws.row.ID, output.FormatTimeAgo(ws.row.StartedAt))
		fmt.Printf("Repo:     %s/%s\n", ws.settings.RepoOwner, ws.settings.RepoName)
		fmt.Printf("User:     %s\n", orNone(ws.row.Username))
		fmt.Printf("Base:     %s\n", ws.row.BaseBranch)
		fmt.Printf("Branch:   %s\n", orNone(ws.row.Branch))
		if ws.row.PRNumber > 0 {
			fmt.Printf("Request:  #%d %s\n", ws.row.PRNumber, ws.row.PRTitle)
		}
		fmt.Printf("Language: %s\n", ws.row.Language)

		if len(pending) == 0 {
			fmt.Println("\nNo pending edits")
			return nil
		}
		fmt.Print(output.SectionHeader(fmt.Sprintf("pending edits (%d)", len(pending))))
		for _, p := range pending {
			fmt.Printf("  %s  %s\n", output.FormatTimeAgo(p.CreatedAt), describeAction(p.Action))
		}
		if len(dirty) > 0 {
			fmt.Print(output.SectionHeader("dirty files"))
			fmt.Println(strings.Join(output.BulletList(dirty, 2), "\n"))
		}
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	statusCmd.Flags().Bool("offline", false, "Skip fetching; list journaled edits only")
	rootCmd.AddCommand(statusCmd)
}
