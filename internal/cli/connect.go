package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clerky/igdm/internal/returnsrv"
	"github.com/clerky/igdm/internal/view"
)

func newConnectCmd(app *App) *cobra.Command {
	var (
		noWait  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect an Instagram account through the browser",
		Long: `Opens the backend's Instagram login in the browser. Unless --no-wait is set,
igdm listens on the return address until the flow redirects back and reports
the outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.client().ConnectURL()
			if err != nil {
				return writeFailure(cmd, app, err, "")
			}

			var srv *returnsrv.Server
			if !noWait {
				srv = returnsrv.New(app.cfg.Return.Addr, app.logger)
				if err := srv.Start(); err != nil {
					return writeFailure(cmd, app, err, "Another igdm may be listening; retry with --no-wait.")
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			opened := app.openBrowser(u) == nil
			if noWait {
				return writeData(cmd, app, map[string]any{"opened": opened}, map[string]any{"url": u})
			}
			if !opened {
				fmt.Fprintln(cmd.ErrOrStderr(), "Could not open the browser; open this URL manually:", u)
			}

			sig, err := srv.Wait(cmd.Context(), timeout)
			if err != nil {
				return writeFailure(cmd, app, err, "Open the URL manually: "+u)
			}
			if sig.Kind == view.ReturnFailed {
				return writeFailure(cmd, app, errors.New("failed to connect account: "+sig.Message), "")
			}

			data := map[string]any{"connected": true, "url": u}
			if accounts, err := app.client().ListAccounts(cmd.Context()); err == nil {
				data["accounts"] = accounts
			} else {
				app.logger.Warn("reload accounts after connect failed", "error", err)
			}
			return writeData(cmd, app, map[string]any{"opened": opened}, data)
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Only print and open the URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the flow to return")
	return cmd
}
