package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listAll  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := app.session.Refresh(ctx); err != nil {
			return err
		}
		for listAll {
			more, err := app.session.LoadMore(ctx)
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}

		items := app.cache.Items()
		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		for _, it := range items {
			fmt.Printf("%s  %s  %s\n", it.ID, it.UpdatedAt.Local().Format(time.DateTime), it.Title)
		}
		if _, _, more := app.cache.NextCursor(); more {
			fmt.Println("… more notes available, use --all")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Fetch every page")
}
