package cli

import (
	"fmt"
	"strconv"

	"github.com/absmach/cvdash/pkg/prediction"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func NewHospitalCmd() *cobra.Command {
	var (
		offset      uint64
		limit       uint64
		interactive bool
		values      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "hospital [dashboard|metrics|predictions|predict]",
		Short: "Hospital views",
		Long:  `Show the hospital's model summary, local metrics and predictions, or score a patient.`,
	}

	show := func(suffix func() string) func(cmd *cobra.Command, args []string) {
		return func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			c, ok := authenticated(cmd)
			if !ok {
				return
			}

			var res map[string]any
			if err := dash.Get(cmd.Context(), hospitalPath(c, suffix()), &res); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		}
	}

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show model summary",
		Long:  `Show the hospital's local model summary.`,
		Run:   show(func() string { return "/dashboard" }),
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show local metrics",
		Long:  `Show the hospital's local training history.`,
		Run:   show(func() string { return "/local-metrics" }),
	}

	predictionsCmd := &cobra.Command{
		Use:   "predictions",
		Short: "List predictions",
		Long:  `List the hospital's prediction history, newest first.`,
		Run: show(func() string {
			return fmt.Sprintf("/predictions?offset=%d&limit=%d", offset, limit)
		}),
	}
	predictionsCmd.Flags().Uint64VarP(&offset, "offset", "o", defOffset, "Offset")
	predictionsCmd.Flags().Uint64VarP(&limit, "limit", "l", defLimit, "Limit")

	predictCmd := &cobra.Command{
		Use:   "predict <patient-id>",
		Short: "Score a patient",
		Long: `Score a patient's CVD risk. Unset values take the form defaults.

Examples:
  # Score with two values changed
  cvdash-cli hospital predict P-001 --value age=63 --value cholesterol=290

  # Fill in the form interactively
  cvdash-cli hospital predict P-001 --interactive`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			c, ok := authenticated(cmd)
			if !ok {
				return
			}

			raw := formDefaults()
			for k, v := range values {
				raw[k] = v
			}
			if interactive {
				if err := promptForm(raw); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
			}

			form, err := prediction.ParseForm(args[0], raw)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if err := form.Validate(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			var res map[string]any
			if err := dash.Post(cmd.Context(), hospitalPath(c, "/predict"), form, &res); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, res)
		},
	}
	predictCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for every feature")
	predictCmd.Flags().StringToStringVar(&values, "value", map[string]string{}, "Feature value as name=value")

	cmd.AddCommand(dashboardCmd, metricsCmd, predictionsCmd, predictCmd)

	return cmd
}

func formDefaults() map[string]string {
	raw := make(map[string]string, prediction.NumFeatures)
	for _, f := range prediction.Features {
		raw[f.Name] = strconv.FormatFloat(f.Default, 'f', -1, 64)
	}

	return raw
}

func promptForm(raw map[string]string) error {
	inputs := make([]string, prediction.NumFeatures)
	fields := make([]huh.Field, 0, prediction.NumFeatures)
	for i, f := range prediction.Features {
		inputs[i] = raw[f.Name]
		fields = append(fields, huh.NewInput().
			Title(f.Label).
			Description(fmt.Sprintf("%s [%g-%g]", f.Description, f.Min, f.Max)).
			Value(&inputs[i]).
			Validate(func(s string) error {
				_, err := strconv.ParseFloat(s, 64)

				return err
			}))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}
	for i, f := range prediction.Features {
		raw[f.Name] = inputs[i]
	}

	return nil
}
