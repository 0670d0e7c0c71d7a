package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clerky/igdm/internal/api"
	"github.com/clerky/igdm/internal/browseropen"
	"github.com/clerky/igdm/internal/config"
	"github.com/clerky/igdm/internal/format"
	"github.com/clerky/igdm/internal/logging"
	"github.com/clerky/igdm/internal/tui"
)

type App struct {
	Format     string
	Pretty     bool
	APIURL     string
	UserID     int64
	ConfigFile string
	Debug      bool

	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer

	openBrowser func(string) error
	runUI       func(context.Context, tui.Options) error
}

// Execute runs igdm with the process arguments.
func Execute(ctx context.Context) error {
	app := &App{
		openBrowser: browseropen.Open,
		runUI:       tui.Run,
	}
	return app.execute(ctx, newRootCmd(app))
}

// execute runs cmd and releases the log file whatever the outcome; cobra
// skips PersistentPostRunE when RunE fails.
func (app *App) execute(ctx context.Context, cmd *cobra.Command) error {
	defer app.close()
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "igdm [return-url]",
		Short: "Read and answer Instagram direct messages",
		Long: strings.TrimSpace(`
igdm lists the Instagram accounts connected to the backend, shows the
messages each one received and sends replies.

Without a subcommand it starts the interactive UI. The optional return-url is
the address the Instagram connect flow redirected to; its outcome is shown
once on start.`),
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			app.close()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app, args)
		},
	}

	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("IGDM_FORMAT", format.JSON), "Output format (json|edn)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api", "", "API base URL (overrides IGDM_API_URL and the config store)")
	cmd.PersistentFlags().Int64Var(&app.UserID, "user", 0, "Backend user id (overrides IGDM_USER_ID)")
	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr("IGDM_CONFIG", ""), "Optional YAML config file")
	cmd.PersistentFlags().BoolVar(&app.Debug, "debug", false, "Log at debug level")

	cmd.AddCommand(newAccountsCmd(app))
	cmd.AddCommand(newMessagesCmd(app))
	cmd.AddCommand(newConnectCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newVersionCmd(app))

	return cmd
}

func (app *App) init() error {
	cfg, err := config.Load(config.Options{File: app.ConfigFile, DotEnv: true})
	if err != nil {
		return err
	}
	cfg.OverrideAPIURL(app.APIURL)
	if app.UserID != 0 {
		cfg.API.UserID = app.UserID
	}
	if app.Debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	app.cfg = cfg

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger, closer, err := logging.New(cfg.Log.File, level)
	if err != nil {
		// Commands still run without a log file.
		app.logger = logging.Discard()
		return nil
	}
	app.logger, app.logCloser = logger, closer
	return nil
}

func (app *App) close() {
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
}

func (app *App) client() api.Client {
	return api.Client{
		BaseURL: app.cfg.API.URL,
		UserID:  app.cfg.API.UserID,
		HTTP:    &http.Client{Timeout: app.cfg.API.Timeout},
		Logger:  app.logger,
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
