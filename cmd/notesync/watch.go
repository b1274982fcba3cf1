package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nicenote/internal/client/autosave"
	"nicenote/internal/client/filewatch"
	"nicenote/internal/client/notify"
	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/logger"
	"nicenote/pkg/shutdown"
)

var watchCmd = &cobra.Command{
	Use:   "watch [id] [file]",
	Short: "Autosave a local Markdown file into a note",
	Long: `Watches the file and schedules an autosave of its content into the note
on every change. Rapid edits are coalesced; failed saves are retried and
reported. On SIGINT/SIGTERM pending edits are flushed before exit.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, path := args[0], args[1]

		note, err := app.session.Open(ctx, id)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && note.Content != nil {
			if err := os.WriteFile(path, []byte(*note.Content), 0o600); err != nil {
				return fmt.Errorf("failed to seed %s: %w", path, err)
			}
		}

		watcher, err := filewatch.New(path)
		if err != nil {
			return err
		}

		statuses, unsubStatus := app.autosave.Subscribe()
		defer unsubStatus()
		toasts, unsubToasts := app.notifier.Subscribe()
		defer unsubToasts()
		go report(statuses, toasts)

		runCtx, stop := context.WithCancel(ctx)
		defer stop()
		go func() {
			err := watcher.Run(runCtx, func(content string) {
				if err := app.session.Edit(id, v1.UpdateNoteRequest{Content: v1.Some(content)}); err != nil {
					logger.Log(runCtx).Warn(runCtx, "edit rejected", zap.String("note_id", id), zap.Error(err))
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Log(runCtx).Error(runCtx, "watcher stopped", zap.Error(err))
			}
			stop()
		}()

		fmt.Fprintf(os.Stderr, "watching %s -> note %s (Ctrl+C to stop)\n", watcher.Path(), id)
		return shutdown.Wait(runCtx, app.cfg.ShutdownTimeout,
			func(context.Context) error { return watcher.Close() },
			app.closeAutosave)
	},
}

// report печатает смену статуса сохранения и уведомления об ошибках.
func report(statuses <-chan autosave.StatusEvent, toasts <-chan notify.Event) {
	for statuses != nil || toasts != nil {
		select {
		case ev, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.NoteID, ev.Status)
		case ev, ok := <-toasts:
			if !ok {
				toasts = nil
				continue
			}
			if ev.Kind == notify.EventAdded {
				fmt.Fprintf(os.Stderr, "! %s\n", ev.Toast.Message)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
