package cmd

import (
	"fmt"

	"github.com/marcus/plansync/internal/syncconfig"
	"github.com/marcus/plansync/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version and check for updates",
	GroupID: "system",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			fmt.Print(versionStr)
			return
		}

		fmt.Printf("plansync version %s\n", versionStr)

		checkUpdates, _ := cmd.Flags().GetBool("check")
		if !checkUpdates || version.IsDevelopmentVersion(versionStr) {
			return
		}

		token, _ := syncconfig.GetToken()
		src, err := version.NewSource(cmd.Context(), syncconfig.DefaultAPIURL, token)
		if err != nil {
			return
		}
		// Network errors are ignored
		if update := version.CheckCached(cmd.Context(), src, versionStr); update != nil {
			fmt.Printf("\nUpdate available: %s → %s\n", update.CurrentVersion, update.LatestVersion)
			if update.UpdateCommand != "" {
				fmt.Printf("Run: %s\n", update.UpdateCommand)
			}
		}
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version")
	versionCmd.Flags().Bool("check", true, "Check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
