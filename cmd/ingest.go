package cmd

import (
	"github.com/marcus/plansync/internal/ingest"
	"github.com/marcus/plansync/internal/output"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Collate a pipe-delimited provider feed into JSON lines",
	Long: `Read a pipe-delimited provider location feed and write one JSON record per
provider_location_guid, with every medication row of that location collected
under "meds". The output is written next to the input with a .json extension.`,
	GroupID: "system",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, n, err := ingest.File(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if jsonOutput {
			return output.JSON(map[string]any{"output": out, "locations": n})
		}
		output.Success("Wrote %d location(s) to %s", n, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
