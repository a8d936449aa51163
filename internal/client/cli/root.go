package cli

import (
	"github.com/spf13/cobra"
)

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "authctl talks to a gophauth server",
		Long:          `A command-line client for logging in, rotating and revoking gophauth tokens and for managing the token policy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.config.ServerURL, "server", a.config.ServerURL, "base URL of the gophauth server")
	f.StringVar(&a.config.DatabasePath, "db", a.config.DatabasePath, "local session database")
	f.DurationVar(&a.config.Timeout, "timeout", a.config.Timeout, "request timeout")

	root.AddCommand(
		a.pingCommand(),
		a.loginCommand(),
		a.registerCommand(),
		a.refreshCommand(),
		a.logoutCommand(),
		a.statusCommand(),
		a.policyCommand(),
	)
	return root
}

func (a *App) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Ping(cmd.Context()); err != nil {
				return err
			}
			a.printf("Server %s is reachable\n", a.config.ServerURL)
			return nil
		},
	}
}
