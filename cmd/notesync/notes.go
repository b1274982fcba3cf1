package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/shutdown"
)

var (
	newTitle string
	newFile  string
	searchN  int
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note's content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, err := app.session.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n\n", note.Title)
		if note.Content != nil {
			fmt.Println(*note.Content)
		}
		return nil
	},
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a note, optionally filled from a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		note, err := app.session.Create(cmd.Context())
		if err != nil {
			return err
		}

		var updates v1.UpdateNoteRequest
		if newTitle != "" {
			updates.Title = v1.Some(newTitle)
		}
		if newFile != "" {
			data, err := os.ReadFile(newFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", newFile, err)
			}
			updates.Content = v1.Some(string(data))
		}
		if updates.Title.Set || updates.Content.Set {
			if err := app.session.Edit(note.ID, updates); err != nil {
				return err
			}
		}
		if err := shutdown.Run(cmd.Context(), app.cfg.ShutdownTimeout, app.closeAutosave); err != nil {
			return err
		}

		fmt.Println(note.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.session.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by title and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hits, err := app.client.Search(cmd.Context(), args[0], searchN)
		if err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("%s  %s\n    %s\n", h.ID, h.Title, h.Snippet)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd, newCmd, deleteCmd, searchCmd)
	newCmd.Flags().StringVar(&newTitle, "title", "", "Note title")
	newCmd.Flags().StringVar(&newFile, "from-file", "", "Read content from a Markdown file")
	searchCmd.Flags().IntVar(&searchN, "limit", 0, "Maximum number of hits")
}
