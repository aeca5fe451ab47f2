package cmd

import (
	"fmt"

	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/output"
	"github.com/marcus/plansync/internal/session"
	"github.com/marcus/plansync/internal/suggest"
	"github.com/spf13/cobra"
)

// locationItems lists every location with its display name in the session
// language, falling back to the key.
func locationItems(sess *session.Session) []suggest.Item {
	names := sess.Globals.Slot(fetch.StateNames).Strings()
	keys := sess.Tree.Locations()
	items := make([]suggest.Item, 0, len(keys))
	for _, key := range keys {
		name := key
		loc, _ := sess.Tree.Location(key)
		if info := loc.Info.Info(); info != nil && info.Name != "" {
			name = info.Name
			if text, ok := names.Get(info.Name, sess.Language); ok && text != "" {
				name = text
			}
		}
		items = append(items, suggest.Item{Key: key, Name: name})
	}
	return items
}

var locationsCmd = &cobra.Command{
	Use:     "locations",
	Aliases: []string{"ls"},
	Short:   "List locations and their regions",
	GroupID: "query",
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

		filter, _ := cmd.Flags().GetString("filter")
		items := suggest.Filter(filter, locationItems(ws.sess))

		if jsonOutput {
			type entry struct {
				Key     string   `json:"key"`
				Name    string   `json:"name"`
				Regions []string `json:"regions,omitempty"`
			}
			out := make([]entry, len(items))
			for i, it := range items {
				loc, _ := ws.sess.Tree.Location(it.Key)
				out[i] = entry{Key: it.Key, Name: it.Name, Regions: loc.Regions()}
			}
			return output.JSON(out)
		}

		if len(items) == 0 {
			fmt.Println("No locations")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%-20s %s\n", it.Key, it.Name)
			loc, _ := ws.sess.Tree.Location(it.Key)
			for _, r := range loc.Regions() {
				fmt.Printf("  %s/%s\n", it.Key, r)
			}
		}
		return nil
	},
}

func init() {
	locationsCmd.Flags().StringP("filter", "f", "", "Fuzzy filter on key or name")
	rootCmd.AddCommand(locationsCmd)
}
