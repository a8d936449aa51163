package cli

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/spf13/cobra"
)

var errNothingToUpdate = errors.New("nothing to update: set at least one of --access-minutes, --refresh-days, --remember-days")

func (a *App) printPolicy(p *models.Policy) {
	a.printf("Access token:      %s (%d minutes)\n", p.AccessTokenDisplay, p.AccessTokenMinutes)
	a.printf("Refresh token:     %s (%g days)\n", p.RefreshTokenDisplay, p.RefreshTokenDays)
	a.printf("Remember-me token: %s (%g days)\n", p.RememberMeTokenDisplay, p.RememberMeTokenDays)
}

func (a *App) policyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect or change the token policy (admin only)",
	}
	cmd.AddCommand(a.policyGetCommand(), a.policySetCommand(), a.policyResetCommand())
	return cmd
}

func (a *App) policyGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the current token policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.GetPolicy(cmd.Context())
			if err != nil {
				return err
			}
			a.printPolicy(p)
			return nil
		},
	}
}

func (a *App) policySetCommand() *cobra.Command {
	var (
		minutes      int
		refreshDays  float64
		rememberDays float64
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change token lifetimes; values are clamped by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var u models.PolicyUpdate
			f := cmd.Flags()
			if f.Changed("access-minutes") {
				u.AccessTokenMinutes = &minutes
			}
			if f.Changed("refresh-days") {
				u.RefreshTokenDays = &refreshDays
			}
			if f.Changed("remember-days") {
				u.RememberMeTokenDays = &rememberDays
			}
			if u == (models.PolicyUpdate{}) {
				return errNothingToUpdate
			}

			p, err := a.svc.UpdatePolicy(cmd.Context(), u)
			if err != nil {
				return err
			}
			a.printPolicy(p)
			return nil
		},
	}
	cmd.Flags().IntVar(&minutes, "access-minutes", 0, "access token lifetime in minutes (1-60)")
	cmd.Flags().Float64Var(&refreshDays, "refresh-days", 0, "refresh token lifetime in days (0.01-7)")
	cmd.Flags().Float64Var(&rememberDays, "remember-days", 0, "remember-me token lifetime in days (0.1-30)")
	return cmd
}

func (a *App) policyResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the configured default policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.ResetPolicy(cmd.Context())
			if err != nil {
				return err
			}
			a.printPolicy(p)
			return nil
		},
	}
}
