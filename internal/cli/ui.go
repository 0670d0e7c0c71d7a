package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/clerky/igdm/internal/returnsrv"
	"github.com/clerky/igdm/internal/tui"
	"github.com/clerky/igdm/internal/view"
)

func runTUI(cmd *cobra.Command, app *App, args []string) error {
	opts := tui.Options{
		Service:      app.client(),
		Logger:       app.logger,
		PollInterval: app.cfg.Poll.Interval,
		APIURL:       app.cfg.API.URL,
		UserID:       app.cfg.API.UserID,
		OpenBrowser:  app.openBrowser,
	}
	if len(args) == 1 {
		opts.Initial = view.ParseReturnURL(args[0])
		// The signal is consumed here; only the bare address is kept.
		app.logger.Info("started from return url", "url", view.StripQuery(args[0]), "kind", opts.Initial.Kind)
	}

	if app.cfg.Return.Enabled {
		srv := returnsrv.New(app.cfg.Return.Addr, app.logger)
		if err := srv.Start(); err != nil {
			app.logger.Warn("return listener unavailable", "addr", app.cfg.Return.Addr, "error", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()
			opts.Returns = srv.Signals()
			opts.ReturnAddr = srv.URL()
		}
	}

	return app.runUI(cmd.Context(), opts)
}
