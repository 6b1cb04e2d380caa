package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Weft/internal/domain"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun вычисляет следующее время запуска расписания после from.
//
// Для interval время отсчитывается от from (завершения предыдущего
// запуска). Календарные типы (daily/weekly/monthly) переводятся в
// cron-выражение и вычисляются той же библиотекой, что и type=cron:
// одна реализация календарной арифметики вместо ручной.
func NextRun(s *domain.Schedule, from time.Time) (time.Time, error) {
	switch s.Type {
	case domain.ScheduleInterval:
		if s.IntervalMinutes <= 0 {
			return time.Time{}, fmt.Errorf("interval schedule requires positive interval_minutes, got %d", s.IntervalMinutes)
		}
		return from.Add(time.Duration(s.IntervalMinutes) * time.Minute).UTC(), nil

	case domain.ScheduleDaily, domain.ScheduleWeekly, domain.ScheduleMonthly:
		expr, err := cronExprFor(s)
		if err != nil {
			return time.Time{}, err
		}
		return nextCron(expr, from)

	case domain.ScheduleCron:
		return nextCron(s.CronExpr, from)

	default:
		return time.Time{}, fmt.Errorf("unknown schedule type %q", s.Type)
	}
}

// nextCron вычисляет следующее срабатывание по cron-выражению.
func nextCron(expr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return schedule.Next(from).UTC(), nil
}

// cronExprFor переводит календарное расписание в cron-выражение.
func cronExprFor(s *domain.Schedule) (string, error) {
	hour, minute, err := parseAt(s.At)
	if err != nil {
		return "", err
	}

	switch s.Type {
	case domain.ScheduleDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case domain.ScheduleWeekly:
		if s.Weekday < 0 || s.Weekday > 6 {
			return "", fmt.Errorf("weekday must be 0..6, got %d", s.Weekday)
		}
		return fmt.Sprintf("%d %d * * %d", minute, hour, s.Weekday), nil
	case domain.ScheduleMonthly:
		if s.MonthDay < 1 || s.MonthDay > 31 {
			return "", fmt.Errorf("month_day must be 1..31, got %d", s.MonthDay)
		}
		return fmt.Sprintf("%d %d %d * *", minute, hour, s.MonthDay), nil
	default:
		return "", fmt.Errorf("schedule type %q has no cron form", s.Type)
	}
}

// parseAt разбирает время суток в формате "HH:MM".
func parseAt(at string) (hour, minute int, err error) {
	hh, mm, found := strings.Cut(at, ":")
	if !found {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", at)
	}

	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", at)
	}

	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", at)
	}

	return hour, minute, nil
}

// Validate проверяет параметры расписания без вычисления времени.
func Validate(s *domain.Schedule) error {
	if s.DSLPath == "" {
		return fmt.Errorf("schedule requires dsl_path")
	}
	_, err := NextRun(s, time.Now())
	return err
}
