package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCmd создаёт корневую команду weft.
func NewRootCmd() *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "weft",
		Short: "Weft — lightweight workflow engine",
		Long: `Weft executes task graphs defined in a simple text DSL.

Flows are plain files: "flow name:" header followed by
"source -> target" connections. Tasks run sequentially or on
a worker pool, every run is recorded in history, and schedules
re-run flows periodically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonMode, "json", false, "Output in JSON format")

	outputFn := func() *Output {
		return NewOutput(jsonMode)
	}

	cmd.AddCommand(
		newRunCmd(outputFn),
		newValidateCmd(outputFn),
		newHistoryCmd(outputFn),
		newScheduleCmd(outputFn),
		newServeCmd(),
		newTasksCmd(outputFn),
	)

	return cmd
}

// parseInputs разбирает флаги --input KEY=VALUE в карту входных данных.
func parseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	inputs := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
		}
		inputs[key] = value
	}
	return inputs, nil
}
