package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/mj1618/desktop-pilot/internal/model"
)

func TestReporterSummary(t *testing.T) {
	var hooked []model.OutcomeStatus
	r := NewReporter(4, func(o model.ActionOutcome) { hooked = append(hooked, o.Status) })

	r.Succeed(0, model.Action{Name: "typeText"}, "typed", 1, 1500*time.Microsecond)
	r.Fail(1, model.Action{Name: "clickAt"}, model.KindBackend, errors.New("boom"), 2, 3*time.Millisecond)
	r.Skip(2, model.Action{Name: "pressKey"})
	r.Skip(3, model.Action{Name: "wait"})

	if r.Len() != 4 {
		t.Fatalf("expected 4 outcomes, got %d", r.Len())
	}
	s := r.Summary(true, model.AbortRequested)
	if s.Total != 4 || s.Succeeded != 1 || s.Failed != 1 || s.Skipped != 2 {
		t.Errorf("unexpected counts %+v", s)
	}
	if !s.Aborted || s.AbortReason != model.AbortRequested {
		t.Errorf("unexpected abort fields %v %q", s.Aborted, s.AbortReason)
	}
	if s.RunID != r.RunID() || s.RunID == "" {
		t.Errorf("unexpected run id %q", s.RunID)
	}
	if s.Outcomes[1].Error != "boom" || s.Outcomes[1].Attempts != 2 || s.Outcomes[1].ElapsedMs != 3 {
		t.Errorf("unexpected failure outcome %+v", s.Outcomes[1])
	}
	if s.Outcomes[0].ElapsedMs != 1 {
		t.Errorf("expected elapsed 1ms, got %d", s.Outcomes[0].ElapsedMs)
	}
	if len(hooked) != 4 || hooked[2] != model.StatusSkipped {
		t.Errorf("unexpected hook calls %v", hooked)
	}

	// The summary owns its outcome slice.
	s.Outcomes[0].Status = model.StatusFailure
	if again := r.Summary(true, model.AbortRequested); again.Outcomes[0].Status != model.StatusSuccess {
		t.Error("summary shares storage with the reporter")
	}
}

func TestReporterReasonIgnoredWhenNotAborted(t *testing.T) {
	r := NewReporter(0, nil)
	s := r.Summary(false, model.AbortCritical)
	if s.AbortReason != model.AbortNone {
		t.Errorf("expected no reason, got %q", s.AbortReason)
	}
	if !s.OK() {
		t.Error("empty run should be OK")
	}
}
