package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/absmach/cvdash/pkg/training"
	"github.com/absmach/cvdash/view"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start training",
		Long:  `Start a federated training run. The request is rejected while a run is in progress.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			c, ok := authenticated(cmd)
			if !ok {
				return
			}

			var ack training.StartAck
			if err := dash.Post(cmd.Context(), startPath(c), nil, &ack); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, ack)
		},
	}
}

func NewViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the live view",
		Long:  `Show the session's live dashboard state as last published by the service.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			c, ok := authenticated(cmd)
			if !ok {
				return
			}

			var s view.Snapshot
			if err := dash.Get(cmd.Context(), viewPath(c), &s); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}
}

func NewDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss the alert",
		Long:  `Clear the alert left by a failed start-training request.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			if _, ok := authenticated(cmd); !ok {
				return
			}

			if err := dash.Delete(cmd.Context(), "/api/alert"); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}
}

func NewWatchCmd() *cobra.Command {
	var untilDone bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow training progress",
		Long:  `Print one status line per poll interval until interrupted.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			c, ok := authenticated(cmd)
			if !ok {
				return
			}

			ctx := cmd.Context()
			ticker := time.NewTicker(pollEvery)
			defer ticker.Stop()

			seenTraining := false
			for {
				var s view.Snapshot
				if err := dash.Get(ctx, viewPath(c), &s); err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				fmt.Fprintln(cmd.OutOrStdout(), statusLine(s))

				if s.Training.Status == training.Training {
					seenTraining = true
				}
				if untilDone && seenTraining && s.Training.Status.Terminal() {
					return
				}

				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().BoolVar(&untilDone, "until-done", false, "Exit once a run reaches a terminal state")

	return cmd
}

func statusLine(s view.Snapshot) string {
	st := s.Training
	paint := fmt.Sprint
	switch st.Status {
	case training.Training:
		paint = color.New(color.FgYellow).Sprint
	case training.Completed:
		paint = color.New(color.FgGreen).Sprint
	case training.Error:
		paint = color.New(color.FgRed).Sprint
	}

	parts := []string{
		s.UpdatedAt.Format(time.TimeOnly),
		paint(st.Status.String()),
		fmt.Sprintf("round %d/%d", st.CurrentRound, st.TotalRounds),
		fmt.Sprintf("%.0f%%", st.Progress*100),
	}
	if s.Metrics.TotalRounds > 0 {
		parts = append(parts, fmt.Sprintf("accuracy %.4f", s.Metrics.LatestAccuracy))
	}
	if s.Action.Pending {
		parts = append(parts, "starting")
	}
	if st.ErrorMessage != "" {
		parts = append(parts, color.RedString(st.ErrorMessage))
	}
	if s.Alert != "" {
		parts = append(parts, color.RedString("alert: "+s.Alert))
	}

	return strings.Join(parts, "  ")
}
