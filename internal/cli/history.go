package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Weft/internal/domain"
)

func newHistoryCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect flow run history",
	}

	cmd.AddCommand(
		newHistoryListCmd(outputFn),
		newHistoryShowCmd(outputFn),
	)

	return cmd
}

func newHistoryListCmd(outputFn func() *Output) *cobra.Command {
	var flowName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flow runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			runs, err := app.history.List(cmd.Context())
			if err != nil {
				return err
			}

			if flowName != "" {
				filtered := runs[:0]
				for _, run := range runs {
					if run.Name == flowName {
						filtered = append(filtered, run)
					}
				}
				runs = filtered
			}

			headers := []string{"FLOW_ID", "NAME", "STATUS", "START", "DURATION"}
			rows := make([][]string, len(runs))
			for i, run := range runs {
				rows[i] = []string{
					run.FlowID,
					run.Name,
					string(run.Status),
					run.StartTime.Format(time.RFC3339),
					formatSeconds(run.DurationSec),
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowName, "flow", "", "Filter by flow name")

	return cmd
}

func newHistoryShowCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show FLOW_ID",
		Short: "Show a flow run with its task records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			run, err := app.history.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printRun(out, run, nil)
			if run.Status != domain.RunStatusCompleted && run.Error != "" {
				out.Error(run.Error)
			}
			return nil
		},
	}
}
