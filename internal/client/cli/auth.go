package cli

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/spf13/cobra"
)

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func (a *App) printUser(u *models.User) {
	a.printf("Logged in as %s", u.Username)
	if u.UserType != "" {
		a.printf(" (%s)", u.UserType)
	}
	if len(u.Roles) > 0 {
		a.printf(", roles: %s", strings.Join(u.Roles, ", "))
	}
	a.printf("\n")
}

func (a *App) loginCommand() *cobra.Command {
	var (
		username   string
		rememberMe bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := promptIfEmpty(a.reader, a.out, username, "Username")
			if err != nil {
				return err
			}
			password, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			u, err := a.svc.Login(cmd.Context(), name, password, rememberMe)
			if err != nil {
				return err
			}
			a.printUser(u)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username or email")
	cmd.Flags().BoolVar(&rememberMe, "remember-me", false, "also obtain a long-lived remember-me token")
	return cmd
}

func (a *App) registerCommand() *cobra.Command {
	var r models.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an end-user account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if r.Username, err = promptIfEmpty(a.reader, a.out, r.Username, "Username"); err != nil {
				return err
			}
			if r.Email, err = promptIfEmpty(a.reader, a.out, r.Email, "Email"); err != nil {
				return err
			}
			password, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			r.Password = string(password)
			common.WipeByteArray(password)

			u, err := a.svc.Register(cmd.Context(), r)
			if err != nil {
				return err
			}
			a.printf("Registered %s <%s>\n", u.Username, u.Email)
			a.printUser(u)
			return nil
		},
	}
	cmd.Flags().StringVarP(&r.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&r.Email, "email", "", "email address")
	cmd.Flags().StringVar(&r.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&r.LastName, "last-name", "", "last name")
	return cmd
}

func (a *App) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rotate the stored refresh token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.svc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Tokens refreshed\n")
			a.printf("Access token expires:  %s\n", formatExpiry(s.AccessTokenExpiresAt))
			a.printf("Refresh token expires: %s\n", formatExpiry(s.RefreshTokenExpiresAt))
			return nil
		},
	}
}

func (a *App) logoutCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Logout(cmd.Context(), all); err != nil {
				return err
			}
			if all {
				a.printf("Logged out from all devices\n")
			} else {
				a.printf("Logged out\n")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "revoke every session of the user")
	return cmd
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			s := st.Session
			a.printf("User:                  %s\n", s.Username)
			a.printf("Access token valid:    %t\n", st.AccessValid)
			a.printf("Access token expires:  %s\n", formatExpiry(s.AccessTokenExpiresAt))
			a.printf("Refresh token expires: %s\n", formatExpiry(s.RefreshTokenExpiresAt))
			if s.RememberMeToken != "" {
				a.printf("Remember me until:     %s\n", formatExpiry(s.RememberMeExpiresAt))
			}
			return nil
		},
	}
}
