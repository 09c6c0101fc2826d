package cli

import "github.com/spf13/cobra"

var adminViews = map[string]string{
	"overview":  "/api/admin/overview",
	"rounds":    "/api/admin/rounds",
	"hospitals": "/api/admin/hospitals",
	"logs":      "/api/admin/logs",
}

func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin [overview|rounds|hospitals|logs]",
		Short: "Admin views",
		Long:  `Show the global overview, federated rounds, hospital roster or system logs.`,
	}

	for _, name := range []string{"overview", "rounds", "hospitals", "logs"} {
		path := adminViews[name]
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Show " + name,
			Long:  `Show ` + name + `.`,
			Run: func(cmd *cobra.Command, args []string) {
				if len(args) != 0 {
					logUsageCmd(*cmd, cmd.Use)

					return
				}
				if _, ok := authenticated(cmd); !ok {
					return
				}

				var res map[string]any
				if err := dash.Get(cmd.Context(), path, &res); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, res)
			},
		})
	}

	return cmd
}
