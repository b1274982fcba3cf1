package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"nicenote/internal/client/api"
	"nicenote/internal/client/autosave"
	"nicenote/internal/client/cache"
	"nicenote/internal/client/config"
	"nicenote/internal/client/notify"
	"nicenote/internal/client/session"
	"nicenote/pkg/logger"
)

var (
	verbose    bool
	configPath string
	apiURL     string
	apiToken   string
)

// runtime - собранные зависимости клиента на время одной команды.
type runtime struct {
	cfg      *config.Config
	client   *api.Client
	cache    *cache.Cache
	notifier *notify.Notifier
	autosave *autosave.Pipeline
	session  *session.Session
}

var app *runtime

var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Command-line client for the nicenote API",
	Long: `notesync lists, creates and deletes notes, and keeps a local Markdown file
in sync with a note through a debounced autosave with retries.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("api-url") {
			cfg.API.URL = apiURL
		}
		if cmd.Flags().Changed("token") {
			cfg.API.Token = apiToken
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}

		log, err := logger.NewLogger(cfg.Logging.GetEnvironment(), level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.SetGlobalLogger(log)

		app, err = newRuntime(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if app != nil {
			app.notifier.Close()
		}
		_ = logger.Log(context.Background()).Sync()
	},
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	delays, err := cfg.Autosave.GetRetryDelays()
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.API.URL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithToken(cfg.API.Token),
		api.WithLanguage(cfg.API.Language))
	c := cache.New()
	notifier := notify.New(notify.WithTTL(cfg.Autosave.ToastTTL))
	pipeline := autosave.New(context.WithoutCancel(ctx), client, c, notifier, autosave.Options{
		Debounce:    cfg.Autosave.Debounce,
		RetryDelays: delays,
		MaxAttempts: cfg.Autosave.MaxAttempts,
		SavedHold:   cfg.Autosave.SavedHold,
	})

	return &runtime{
		cfg:      cfg,
		client:   client,
		cache:    c,
		notifier: notifier,
		autosave: pipeline,
		session:  session.New(client, c, pipeline, notifier, cfg.API.PageSize),
	}, nil
}

// closeAutosave - хук завершения: дожидается финальных сохранений.
func (r *runtime) closeAutosave(ctx context.Context) error {
	select {
	case <-r.autosave.Close():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pending saves did not finish: %w", ctx.Err())
	}
}

// Execute запускает корневую команду.
func Execute() {
	ctx := logger.NewRequestIDContext(context.Background(), "")
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("NOTESYNC_CONFIG"), "Path to a config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides NOTESYNC_API_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Bearer token (overrides NOTESYNC_TOKEN)")
}
