package cli

import (
	"github.com/spf13/cobra"
)

func newAccountsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Connected Instagram accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List connected accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := app.client().ListAccounts(cmd.Context())
			if err != nil {
				return writeFailure(cmd, app, err, "Check --api or IGDM_API_URL.")
			}
			return writeData(cmd, app, map[string]any{
				"userId": app.cfg.API.UserID,
				"count":  len(accounts),
			}, accounts)
		},
	})
	return cmd
}
