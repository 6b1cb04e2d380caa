package notify

import (
	"context"
	"testing"

	"github.com/shaiso/Weft/internal/domain"
)

func TestNewEvent(t *testing.T) {
	def := &domain.FlowDefinition{Name: "etl"}
	run := domain.NewFlowRun(def)
	run.MarkFailed("boom", "")

	event := NewEvent(run)
	if event.ID == "" {
		t.Error("expected generated event id")
	}
	if event.Flow != "etl" || event.FlowID != run.FlowID {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.Status != domain.RunStatusFailed || event.Message != "boom" {
		t.Errorf("expected failure carried over, got %+v", event)
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	n := NewLogNotifier(nil)

	run := domain.NewFlowRun(&domain.FlowDefinition{Name: "etl"})
	run.Finalize(domain.RunStatusCompleted)

	if err := n.Notify(context.Background(), NewEvent(run)); err != nil {
		t.Errorf("log notifier must not fail: %v", err)
	}
}
