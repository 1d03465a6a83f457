package main

import (
	"github.com/spf13/cobra"

	"go-gin-gorm-crm/internal/app"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage login sessions",
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app.App) error {
			n, err := a.Sessions.PurgeExpired(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("purged %d expired sessions\n", n)
			return nil
		})
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsPurgeCmd)
	rootCmd.AddCommand(sessionsCmd)
}
