package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clerky/igdm/internal/configstore"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change where igdm sends requests",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigUseCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storePath, _ := configstore.DefaultPath()
			cfg := app.cfg
			return writeData(cmd, app, nil, map[string]any{
				"apiUrl":        cfg.API.URL,
				"source":        cfg.APISource,
				"userId":        cfg.API.UserID,
				"timeout":       cfg.API.Timeout.String(),
				"pollInterval":  cfg.Poll.Interval.String(),
				"returnAddr":    cfg.Return.Addr,
				"returnEnabled": cfg.Return.Enabled,
				"logFile":       cfg.Log.File,
				"logLevel":      cfg.Log.Level,
				"storePath":     storePath,
			})
		},
	}
}

func newConfigUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <local|url>",
		Short: "Save the API URL used when IGDM_API_URL is unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := configstore.ResolveAPIURL(args[0])
			if err != nil {
				return writeFailure(cmd, app, err, "Use `local` or an absolute http(s) URL.")
			}
			path, err := configstore.DefaultPath()
			if err != nil {
				return writeFailure(cmd, app, err, "")
			}
			if err := configstore.SaveAtomic(path, &configstore.Store{APIURL: u}); err != nil {
				return writeFailure(cmd, app, err, "")
			}
			app.logger.Info("api url saved", "url", u, "path", path)

			var meta map[string]any
			if strings.TrimSpace(os.Getenv("IGDM_API_URL")) != "" {
				meta = map[string]any{"warning": "IGDM_API_URL is set and takes precedence over the saved URL"}
			}
			return writeData(cmd, app, meta, map[string]any{"apiUrl": u, "path": path})
		},
	}
}
