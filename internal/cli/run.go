package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/dsl"
)

// runResult — JSON-вывод команды run.
type runResult struct {
	Run     *domain.FlowRun `json:"run"`
	Results map[string]any  `json:"results,omitempty"`
}

func newRunCmd(outputFn func() *Output) *cobra.Command {
	var parallel bool
	var workers int
	var inputPairs []string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a flow from a DSL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			def, err := parseFlowFile(args[0])
			if err != nil {
				return err
			}

			inputs, err := parseInputs(inputPairs)
			if err != nil {
				return err
			}

			var results map[string]any
			var run *domain.FlowRun
			if parallel {
				results, run, err = app.parallel(workers).Run(cmd.Context(), def, inputs)
			} else {
				results, run, err = app.sequential().Run(cmd.Context(), def, inputs)
			}
			if run != nil {
				printRun(out, run, results)
			}
			if err != nil {
				return err
			}
			if run.Status != domain.RunStatusCompleted {
				return fmt.Errorf("flow %s finished with status %s", run.Name, run.Status)
			}

			out.Success(fmt.Sprintf("Flow completed: %s", run.FlowID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&parallel, "parallel", false, "Execute independent tasks concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size for --parallel (default: NumCPU)")
	cmd.Flags().StringSliceVar(&inputPairs, "input", nil, "Input values as KEY=VALUE (repeatable)")

	return cmd
}

func newValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a flow file without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			def, err := parseFlowFile(args[0])
			if err != nil {
				return err
			}

			if err := app.validate(def); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow %s is valid: %d tasks, %d connections",
				def.Name, len(def.TaskNames()), len(def.Connections)))
			return nil
		},
	}
}

func newTasksCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List registered tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			names := app.registry.Names()
			headers := []string{"NAME", "PARAMS", "DESCRIPTION"}
			rows := make([][]string, 0, len(names))
			tasks := make([]map[string]any, 0, len(names))
			for _, name := range names {
				task, err := app.registry.Resolve(name)
				if err != nil {
					continue
				}
				rows = append(rows, []string{
					task.Name,
					fmt.Sprintf("%v", task.Params),
					task.Description,
				})
				tasks = append(tasks, map[string]any{
					"name":        task.Name,
					"params":      task.Params,
					"description": task.Description,
				})
			}

			out.Print(headers, rows, tasks)
			return nil
		},
	}
}

// parseFlowFile читает и разбирает DSL-файл.
func parseFlowFile(path string) (*domain.FlowDefinition, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}

	def, err := dsl.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return def, nil
}

// printRun выводит записи задач и итог запуска.
func printRun(out *Output, run *domain.FlowRun, results map[string]any) {
	headers := []string{"TASK", "STATUS", "DURATION", "ERROR"}
	rows := make([][]string, len(run.Tasks))
	for i, rec := range run.Tasks {
		rows[i] = []string{
			rec.Name,
			string(rec.Status),
			formatSeconds(rec.DurationSec),
			rec.Error,
		}
	}

	out.Print(headers, rows, runResult{Run: run, Results: results})
}

// formatSeconds выводит продолжительность с тремя знаками.
func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64) + "s"
}
