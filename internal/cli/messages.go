package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/clerky/igdm/internal/api"
	"github.com/clerky/igdm/internal/poller"
	"github.com/clerky/igdm/internal/view"
)

func newMessagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Received messages and replies",
	}
	cmd.AddCommand(newMessagesListCmd(app))
	cmd.AddCommand(newMessagesSendCmd(app))
	cmd.AddCommand(newMessagesWatchCmd(app))
	return cmd
}

func newMessagesListCmd(app *App) *cobra.Command {
	var accountID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages received by an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID <= 0 {
				return writeFailure(cmd, app, errors.New("missing --account"), "Run `igdm accounts list` to find the id.")
			}
			msgs, err := app.client().ListMessages(cmd.Context(), accountID)
			if err != nil {
				return writeFailure(cmd, app, err, "")
			}
			return writeData(cmd, app, map[string]any{
				"accountId": accountID,
				"count":     len(msgs),
			}, msgs)
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 0, "Account id (from `accounts list`)")
	return cmd
}

func newMessagesSendCmd(app *App) *cobra.Command {
	var (
		accountID int64
		to        string
		text      string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a direct message from an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := draft(accountID, to, text)
			if err != nil {
				return writeFailure(cmd, app, err, "--account, --to and --text are required.")
			}
			in := api.SendMessageInput{AccountID: req.AccountID, RecipientID: req.RecipientID, Message: req.Text}
			if err := app.client().SendMessage(cmd.Context(), in); err != nil {
				return writeFailure(cmd, app, err, "")
			}
			return writeData(cmd, app, map[string]any{"accountId": req.AccountID}, map[string]any{
				"sent":        true,
				"recipientId": req.RecipientID,
			})
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 0, "Sending account id")
	cmd.Flags().StringVar(&to, "to", "", "Recipient id")
	cmd.Flags().StringVar(&text, "text", "", "Message text")
	return cmd
}

// draft runs the flags through the same validation the UI applies.
func draft(accountID int64, to, text string) (view.SendRequest, error) {
	s := view.NewStore()
	if accountID > 0 {
		s.SetAccounts([]api.Account{{ID: accountID}})
		s.SelectAccount(accountID)
	}
	s.SetRecipient(to)
	s.SetText(text)
	return s.BeginSend()
}

func newMessagesWatchCmd(app *App) *cobra.Command {
	var (
		accountID int64
		count     int
		interval  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll an account's messages and print each refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID <= 0 {
				return writeFailure(cmd, app, errors.New("missing --account"), "Run `igdm accounts list` to find the id.")
			}
			if interval <= 0 {
				interval = app.cfg.Poll.Interval
			}
			return watchMessages(cmd, app, accountID, interval, count)
		},
	}
	cmd.Flags().Int64Var(&accountID, "account", 0, "Account id")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many refreshes (0 = until interrupted)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default from IGDM_POLL_INTERVAL)")
	return cmd
}

func watchMessages(cmd *cobra.Command, app *App, accountID int64, interval time.Duration, count int) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	ticks := make(chan poller.Tick)
	p := poller.New(interval, func(t poller.Tick) {
		select {
		case ticks <- t:
		case <-ctx.Done():
		}
	}, app.logger)
	defer p.Close()
	defer cancel()

	client := app.client()
	refresh := func(n int) {
		msgs, err := client.ListMessages(ctx, accountID)
		if err != nil {
			if ctx.Err() == nil {
				app.logger.Warn("watch refresh failed", "account_id", accountID, "error", err)
				_ = writeFailure(cmd, app, err, "")
			}
			return
		}
		_ = writeData(cmd, app, map[string]any{
			"accountId": accountID,
			"refresh":   n,
			"count":     len(msgs),
		}, msgs)
	}

	p.Start(accountID)
	n := 1
	refresh(n)
	for count <= 0 || n < count {
		select {
		case t := <-ticks:
			if !p.Accept(t) {
				continue
			}
			n++
			refresh(n)
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
