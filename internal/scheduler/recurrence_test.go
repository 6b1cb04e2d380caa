package scheduler

import (
	"testing"
	"time"

	"github.com/shaiso/Weft/internal/domain"
)

func TestNextRun_Interval(t *testing.T) {
	s := &domain.Schedule{Type: domain.ScheduleInterval, IntervalMinutes: 15}
	from := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	next, err := NextRun(s, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := from.Add(15 * time.Minute); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextRun_IntervalRejectsNonPositive(t *testing.T) {
	s := &domain.Schedule{Type: domain.ScheduleInterval}
	if _, err := NextRun(s, time.Now()); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestNextRun_Daily(t *testing.T) {
	s := &domain.Schedule{Type: domain.ScheduleDaily, At: "09:30"}

	// До 09:30 — сегодня; после — завтра.
	before := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	next, err := NextRun(s, before)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}

	after := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	next, err = NextRun(s, after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextRun_Weekly(t *testing.T) {
	// 1 июня 2025 — воскресенье. Следующий понедельник 07:00 — 2 июня.
	s := &domain.Schedule{Type: domain.ScheduleWeekly, At: "07:00", Weekday: 1}
	from := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	next, err := NextRun(s, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextRun_MonthlyRollsOver(t *testing.T) {
	// 31-е число: июнь его не содержит, ближайшее — 31 июля.
	s := &domain.Schedule{Type: domain.ScheduleMonthly, At: "00:00", MonthDay: 31}
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextRun(s, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextRun_Cron(t *testing.T) {
	s := &domain.Schedule{Type: domain.ScheduleCron, CronExpr: "*/5 * * * *"}
	from := time.Date(2025, 6, 1, 12, 2, 0, 0, time.UTC)

	next, err := NextRun(s, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextRun_InvalidCron(t *testing.T) {
	s := &domain.Schedule{Type: domain.ScheduleCron, CronExpr: "not a cron"}
	if _, err := NextRun(s, time.Now()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestParseAt_Invalid(t *testing.T) {
	for _, at := range []string{"", "9", "25:00", "12:61", "ab:cd"} {
		if _, _, err := parseAt(at); err == nil {
			t.Errorf("expected error for %q", at)
		}
	}
}

func TestValidate_RequiresDSLPath(t *testing.T) {
	s := &domain.Schedule{Type: domain.ScheduleInterval, IntervalMinutes: 5}
	if err := Validate(s); err == nil {
		t.Error("expected error for missing dsl_path")
	}
}
