package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/scheduler"
)

func newScheduleCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage flow schedules",
	}

	cmd.AddCommand(
		newScheduleListCmd(outputFn),
		newScheduleCreateCmd(outputFn),
		newScheduleUpdateCmd(outputFn),
		newScheduleRunCmd(outputFn),
		newScheduleDeleteCmd(outputFn),
		newScheduleEnableCmd(outputFn),
		newScheduleDisableCmd(outputFn),
	)

	return cmd
}

// newSchedulerFor собирает Scheduler поверх окружения приложения.
func newSchedulerFor(a *app) *scheduler.Scheduler {
	return scheduler.New(scheduler.Config{
		Store:      a.schedules,
		Sequential: a.sequential(),
		Parallel:   a.parallel(0),
		Logger:     a.logger,
	})
}

func newScheduleListCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			schedules, err := app.schedules.List(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "FLOW_FILE", "TYPE", "ENABLED", "NEXT_RUN", "LAST_STATUS"}
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				rows[i] = []string{
					s.ID.String(),
					s.DSLPath,
					describeRecurrence(&s),
					strconv.FormatBool(s.Enabled),
					formatTime(s.NextRun),
					s.LastStatus,
				}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	}
}

func newScheduleCreateCmd(outputFn func() *Output) *cobra.Command {
	var (
		scheduleType string
		interval     int
		cronExpr     string
		at           string
		weekday      int
		monthDay     int
		parallel     bool
		inputPairs   []string
	)

	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Create a schedule for a flow file",
		Long: `Create a schedule that re-runs a flow file periodically.

Examples:
  weft schedule create etl.weft --type interval --interval 30
  weft schedule create etl.weft --type daily --at 09:00
  weft schedule create etl.weft --type weekly --at 07:30 --weekday 1
  weft schedule create etl.weft --type monthly --at 00:00 --month-day 1
  weft schedule create etl.weft --type cron --cron "*/15 * * * *"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			inputs, err := parseInputs(inputPairs)
			if err != nil {
				return err
			}

			s := &domain.Schedule{
				DSLPath:         args[0],
				InputData:       inputs,
				Type:            domain.ScheduleType(scheduleType),
				IntervalMinutes: interval,
				CronExpr:        cronExpr,
				At:              at,
				Weekday:         weekday,
				MonthDay:        monthDay,
				Parallel:        parallel,
			}

			if err := newSchedulerFor(app).Create(cmd.Context(), s); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s", s.ID))
			out.Print(
				[]string{"ID", "FLOW_FILE", "TYPE", "NEXT_RUN"},
				[][]string{{s.ID.String(), s.DSLPath, describeRecurrence(s), formatTime(s.NextRun)}},
				s,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleType, "type", "interval", "Schedule type: interval, daily, weekly, monthly, cron")
	cmd.Flags().IntVar(&interval, "interval", 0, "Minutes between runs (type=interval)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (type=cron)")
	cmd.Flags().StringVar(&at, "at", "", "Time of day HH:MM (daily/weekly/monthly)")
	cmd.Flags().IntVar(&weekday, "weekday", 0, "Day of week, 0=Sunday (type=weekly)")
	cmd.Flags().IntVar(&monthDay, "month-day", 0, "Day of month 1..31 (type=monthly)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run the flow with the parallel executor")
	cmd.Flags().StringSliceVar(&inputPairs, "input", nil, "Input values as KEY=VALUE (repeatable)")

	return cmd
}

func newScheduleUpdateCmd(outputFn func() *Output) *cobra.Command {
	var (
		scheduleType string
		interval     int
		cronExpr     string
		at           string
		weekday      int
		monthDay     int
		parallel     bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update schedule recurrence parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q: %w", args[0], err)
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			s, err := app.schedules.Load(cmd.Context(), id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("type") {
				s.Type = domain.ScheduleType(scheduleType)
			}
			if flags.Changed("interval") {
				s.IntervalMinutes = interval
			}
			if flags.Changed("cron") {
				s.CronExpr = cronExpr
			}
			if flags.Changed("at") {
				s.At = at
			}
			if flags.Changed("weekday") {
				s.Weekday = weekday
			}
			if flags.Changed("month-day") {
				s.MonthDay = monthDay
			}
			if flags.Changed("parallel") {
				s.Parallel = parallel
			}

			if err := newSchedulerFor(app).Update(cmd.Context(), s); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule updated: %s", s.ID))
			out.Print(
				[]string{"ID", "FLOW_FILE", "TYPE", "NEXT_RUN"},
				[][]string{{s.ID.String(), s.DSLPath, describeRecurrence(s), formatTime(s.NextRun)}},
				s,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleType, "type", "", "New schedule type")
	cmd.Flags().IntVar(&interval, "interval", 0, "New interval in minutes")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "New cron expression")
	cmd.Flags().StringVar(&at, "at", "", "New time of day HH:MM")
	cmd.Flags().IntVar(&weekday, "weekday", 0, "New day of week")
	cmd.Flags().IntVar(&monthDay, "month-day", 0, "New day of month")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run with the parallel executor")

	return cmd
}

func newScheduleRunCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "run ID",
		Short: "Fire a schedule immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q: %w", args[0], err)
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if err := newSchedulerFor(app).RunNow(cmd.Context(), id); err != nil {
				return err
			}

			s, err := app.schedules.Load(cmd.Context(), id)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule fired: %s (%s)", id, s.LastStatus))
			return nil
		},
	}
}

func newScheduleDeleteCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q: %w", args[0], err)
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if err := newSchedulerFor(app).Delete(cmd.Context(), id); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule deleted: %s", id))
			return nil
		},
	}
}

func newScheduleEnableCmd(outputFn func() *Output) *cobra.Command {
	return newSetEnabledCmd(outputFn, "enable", true)
}

func newScheduleDisableCmd(outputFn func() *Output) *cobra.Command {
	return newSetEnabledCmd(outputFn, "disable", false)
}

func newSetEnabledCmd(outputFn func() *Output, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ID",
		Short: verb + " a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q: %w", args[0], err)
			}

			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			if err := newSchedulerFor(app).SetEnabled(cmd.Context(), id, enabled); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule %sd: %s", verb, id))
			return nil
		},
	}
}

// describeRecurrence возвращает компактное описание расписания.
func describeRecurrence(s *domain.Schedule) string {
	switch s.Type {
	case domain.ScheduleInterval:
		return fmt.Sprintf("every %dm", s.IntervalMinutes)
	case domain.ScheduleDaily:
		return "daily " + s.At
	case domain.ScheduleWeekly:
		return fmt.Sprintf("weekly %s wd=%d", s.At, s.Weekday)
	case domain.ScheduleMonthly:
		return fmt.Sprintf("monthly %s day=%d", s.At, s.MonthDay)
	case domain.ScheduleCron:
		return "cron " + s.CronExpr
	default:
		return string(s.Type)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}
