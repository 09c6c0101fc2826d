package cli

import (
	"errors"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var errMissingCredentials = errors.New("username and password are required")

func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username] [password]",
		Short: "Log in",
		Long: `Log in to the dashboard service and keep the session for later commands.

Missing credentials are prompted for.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var username, password string
			if len(args) > 0 {
				username = args[0]
			}
			if len(args) > 1 {
				password = args[1]
			}
			if username == "" || password == "" {
				form := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Username").Value(&username),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
				))
				if err := form.Run(); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			}
			if username == "" || password == "" {
				logErrorCmd(*cmd, errMissingCredentials)

				return
			}

			var c Credentials
			req := map[string]string{"username": username, "password": password}
			if err := dash.Post(cmd.Context(), "/api/login", req, &c); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			c.Username = username
			if err := saveCredentials(cmd.Context(), slots, c); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, c)
		},
	}
}

func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Long:  `End the session on the dashboard service and forget it locally.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if _, ok := authenticated(cmd); !ok {
				return
			}

			// The local session is dropped even when the service already
			// forgot it.
			err := dash.Post(cmd.Context(), "/api/logout", nil, nil)
			if cerr := clearCredentials(cmd.Context(), slots); cerr != nil {
				logErrorCmd(*cmd, cerr)

				return
			}
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}
}

func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Long:  `Show the session the dashboard service holds for the stored login.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if _, ok := authenticated(cmd); !ok {
				return
			}

			var s map[string]any
			if err := dash.Get(cmd.Context(), "/api/session", &s); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}
}
