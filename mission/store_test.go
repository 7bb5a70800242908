package mission

import (
	"testing"
)

func twoSteps() []Step {
	return []Step{
		{Type: StepMove, Label: "move to dock"},
		{Type: StepJackUp, Label: "lift rack"},
	}
}

func TestCreateAndGet(t *testing.T) {
	s := NewStore()
	m := s.Create("transport 3 -> station", "AMB-001", twoSteps())
	if m.ID == "" {
		t.Fatal("mission id not assigned")
	}
	if m.Status != StatusPending {
		t.Errorf("status = %s, want pending", m.Status)
	}

	got, err := s.Get(m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != m.Name || len(got.Steps) != 2 {
		t.Errorf("unexpected mission: %+v", got)
	}

	// The returned copy must not alias store state.
	got.Steps[0].Completed = true
	again, _ := s.Get(m.ID)
	if again.Steps[0].Completed {
		t.Error("returned mission aliases store state")
	}
}

func TestCreateSignalsNotify(t *testing.T) {
	s := NewStore()
	s.Create("m", "AMB-001", twoSteps())
	select {
	case <-s.Notify():
	default:
		t.Error("create did not signal notify channel")
	}
}

func TestDequeueOldestPending(t *testing.T) {
	s := NewStore()
	first := s.Create("first", "AMB-001", twoSteps())
	s.Create("second", "AMB-001", twoSteps())

	m, ctx := s.Dequeue("AMB-001")
	if m == nil {
		t.Fatal("expected a mission")
	}
	if m.ID != first.ID {
		t.Errorf("dequeued %s, want oldest %s", m.Name, first.Name)
	}
	if m.Status != StatusInProgress {
		t.Errorf("status = %s, want in_progress", m.Status)
	}
	if m.StartedAt == nil {
		t.Error("started_at not set")
	}
	if ctx == nil {
		t.Error("no cancellation context returned")
	}
}

func TestDequeueFiltersByRobot(t *testing.T) {
	s := NewStore()
	s.Create("other robot", "AMB-002", twoSteps())
	if m, _ := s.Dequeue("AMB-001"); m != nil {
		t.Errorf("dequeued mission for wrong robot: %+v", m)
	}
}

func TestDequeueEmpty(t *testing.T) {
	s := NewStore()
	if m, _ := s.Dequeue("AMB-001"); m != nil {
		t.Errorf("expected nil, got %+v", m)
	}
}

func TestCancelAllActive(t *testing.T) {
	s := NewStore()
	a := s.Create("a", "AMB-001", twoSteps())
	b := s.Create("b", "AMB-001", twoSteps())
	_, ctx := s.Dequeue("AMB-001")

	cancelled := s.CancelAllActive("AMB-001")
	if len(cancelled) != 2 {
		t.Fatalf("cancelled %d missions, want 2", len(cancelled))
	}
	for _, id := range []string{a.ID, b.ID} {
		m, _ := s.Get(id)
		if m.Status != StatusCancelled {
			t.Errorf("mission %s status = %s, want cancelled", id, m.Status)
		}
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("cancellation context not fired")
	}
}

func TestCancelAllActiveScopedToRobot(t *testing.T) {
	s := NewStore()
	mine := s.Create("mine", "AMB-001", twoSteps())
	other := s.Create("other", "AMB-002", twoSteps())

	cancelled := s.CancelAllActive("AMB-001")
	if len(cancelled) != 1 || cancelled[0] != mine.ID {
		t.Fatalf("cancelled = %v, want [%s]", cancelled, mine.ID)
	}
	m, _ := s.Get(other.ID)
	if m.Status != StatusPending {
		t.Errorf("other robot's mission became %s", m.Status)
	}
}

func TestCompleteStepAdvances(t *testing.T) {
	s := NewStore()
	m := s.Create("m", "AMB-001", twoSteps())
	s.Dequeue("AMB-001")

	if err := s.CompleteStep(m.ID, 0); err != nil {
		t.Fatalf("complete step 0: %v", err)
	}
	got, _ := s.Get(m.ID)
	if got.CurrentStepIndex != 1 || !got.Steps[0].Completed {
		t.Errorf("step not advanced: index=%d", got.CurrentStepIndex)
	}
	if got.Status != StatusInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}

	if err := s.CompleteStep(m.ID, 1); err != nil {
		t.Fatalf("complete step 1: %v", err)
	}
	got, _ = s.Get(m.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestCompleteStepWrongIndex(t *testing.T) {
	s := NewStore()
	m := s.Create("m", "AMB-001", twoSteps())
	s.Dequeue("AMB-001")
	if err := s.CompleteStep(m.ID, 1); err == nil {
		t.Error("completing a non-current step must fail")
	}
}

func TestTerminalMissionsAreImmutable(t *testing.T) {
	s := NewStore()
	m := s.Create("m", "AMB-001", twoSteps())
	s.CancelAllActive("AMB-001")

	if err := s.CompleteStep(m.ID, 0); err == nil {
		t.Error("complete step on cancelled mission must fail")
	}
	if _, err := s.RecordRetry(m.ID, 0); err == nil {
		t.Error("retry on cancelled mission must fail")
	}
	if err := s.FailMission(m.ID, 0, "boom"); err == nil {
		t.Error("fail on cancelled mission must fail")
	}
	if got := s.CancelAllActive("AMB-001"); len(got) != 0 {
		t.Errorf("re-cancel returned %v", got)
	}
}

func TestRecordRetry(t *testing.T) {
	s := NewStore()
	m := s.Create("m", "AMB-001", twoSteps())
	s.Dequeue("AMB-001")

	for want := 1; want <= 3; want++ {
		n, err := s.RecordRetry(m.ID, 0)
		if err != nil {
			t.Fatalf("retry: %v", err)
		}
		if n != want {
			t.Errorf("retry count = %d, want %d", n, want)
		}
	}
}

func TestFailMission(t *testing.T) {
	s := NewStore()
	m := s.Create("m", "AMB-001", twoSteps())
	s.Dequeue("AMB-001")

	if err := s.FailMission(m.ID, 0, "alignment failed"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := s.Get(m.ID)
	if got.Status != StatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	if got.ErrorMessage != "alignment failed" || got.Steps[0].ErrorMessage != "alignment failed" {
		t.Errorf("error not recorded: %+v", got)
	}
	if got.CurrentStepIndex != 0 {
		t.Errorf("failed step index moved to %d", got.CurrentStepIndex)
	}
}

func TestListActive(t *testing.T) {
	s := NewStore()
	s.Create("a", "AMB-001", twoSteps())
	b := s.Create("b", "AMB-001", twoSteps())
	s.Dequeue("AMB-001")
	done := s.Create("c", "AMB-001", twoSteps())
	s.FailMission(done.ID, -1, "x")

	active := s.ListActive()
	if len(active) != 2 {
		t.Fatalf("active = %d missions, want 2", len(active))
	}
	if active[1].ID != b.ID {
		t.Errorf("creation order not preserved")
	}
	if all := s.List(); len(all) != 3 {
		t.Errorf("list = %d missions, want 3", len(all))
	}
}

func TestSnapshot(t *testing.T) {
	s := NewStore()
	m := s.Create("m", "AMB-001", twoSteps())
	s.Dequeue("AMB-001")
	s.CompleteStep(m.ID, 0)

	snap, err := s.Snapshot(m.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.CurrentStepIndex != 1 || snap.TotalSteps != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.CurrentStepType != StepJackUp {
		t.Errorf("current step type = %s, want jack_up", snap.CurrentStepType)
	}

	if _, err := s.Snapshot("nope"); err != ErrNotFound {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
}
