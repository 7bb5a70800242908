package executor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"missioncore/mission"
	"missioncore/points"
	"missioncore/robot"
)

// --- Fake robot ---

type fakeRobot struct {
	mu        sync.Mutex
	calls     []string
	issueErr  error
	states    []robot.CommandState // consumed one per status poll; last repeats
	stateIdx  int
	cancelled int
}

func (f *fakeRobot) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.issueErr
}

func (f *fakeRobot) GotoSite(req *robot.GotoSiteRequest) error {
	return f.record("goto:" + req.ID)
}

func (f *fakeRobot) AlignRack(pointID string) error {
	return f.record("align:" + pointID)
}

func (f *fakeRobot) JackUp() error   { return f.record("jack_up") }
func (f *fakeRobot) JackDown() error { return f.record("jack_down") }

func (f *fakeRobot) Joystick(vx, vy, w float64, d time.Duration) error {
	return f.record("joystick")
}

func (f *fakeRobot) LatestCommandStatus() (*robot.CommandStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return &robot.CommandStatus{State: robot.CmdSucceeded}, nil
	}
	st := f.states[f.stateIdx]
	if f.stateIdx < len(f.states)-1 {
		f.stateIdx++
	}
	return &robot.CommandStatus{State: st, FailReason: "obstacle"}, nil
}

func (f *fakeRobot) CancelCommand() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
	return nil
}

func (f *fakeRobot) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// --- Fake emitter ---

type fakeEmitter struct {
	mu        sync.Mutex
	started   []string
	steps     []int
	retries   []int
	completed []string
	failed    []string
	cancelled []string
}

func (f *fakeEmitter) EmitMissionStarted(missionID, robotSerial string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, missionID)
}

func (f *fakeEmitter) EmitStepStarted(missionID string, stepIndex int, stepType mission.StepType, label string) {
}

func (f *fakeEmitter) EmitStepCompleted(missionID string, stepIndex int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, stepIndex)
}

func (f *fakeEmitter) EmitStepRetried(missionID string, stepIndex int, attempt int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries = append(f.retries, attempt)
}

func (f *fakeEmitter) EmitMissionCompleted(missionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, missionID)
}

func (f *fakeEmitter) EmitMissionFailed(missionID string, stepIndex int, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, fmt.Sprintf("%d:%s", stepIndex, detail))
}

func (f *fakeEmitter) EmitMissionCancelled(missionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, missionID)
}

func testConfig() Config {
	return Config{
		RobotSerial:    "AMB-001",
		PollInterval:   5 * time.Millisecond,
		MoveTimeout:    200 * time.Millisecond,
		ChargerTimeout: 200 * time.Millisecond,
		JackTimeout:    200 * time.Millisecond,
		JackSettle:     time.Millisecond,
		MaxRetries:     3,
	}
}

func transportSteps() []mission.Step {
	dock := &points.Point{ID: "3_load_docking", X: 1, Y: 2}
	load := &points.Point{ID: "3_load", X: 1.5, Y: 2}
	return []mission.Step{
		{Type: mission.StepMove, Label: "move to dock", Target: dock},
		{Type: mission.StepAlignWithRack, Label: "align", Target: load},
		{Type: mission.StepJackUp, Label: "lift"},
	}
}

func TestRunMissionSuccess(t *testing.T) {
	store := mission.NewStore()
	api := &fakeRobot{}
	em := &fakeEmitter{}
	e := New(testConfig(), store, api, em)

	m := store.Create("transport", "AMB-001", transportSteps())
	dq, ctx := store.Dequeue("AMB-001")
	e.runMission(ctx, dq)

	got, _ := store.Get(m.ID)
	if got.Status != mission.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	want := []string{"goto:3_load_docking", "align:3_load", "jack_up"}
	calls := api.callList()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, calls[i], want[i])
		}
	}
	if len(em.completed) != 1 || em.completed[0] != m.ID {
		t.Errorf("completed events = %v", em.completed)
	}
	if len(em.steps) != 3 {
		t.Errorf("step completions = %v, want 3", em.steps)
	}
}

func TestRunMissionRetriesThenSucceeds(t *testing.T) {
	store := mission.NewStore()
	// First poll reports failure, every later poll succeeds.
	api := &fakeRobot{states: []robot.CommandState{robot.CmdFailed, robot.CmdSucceeded}}
	em := &fakeEmitter{}
	e := New(testConfig(), store, api, em)

	m := store.Create("m", "AMB-001", []mission.Step{{Type: mission.StepJackUp, Label: "lift"}})
	dq, ctx := store.Dequeue("AMB-001")
	e.runMission(ctx, dq)

	got, _ := store.Get(m.ID)
	if got.Status != mission.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	if got.Steps[0].RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", got.Steps[0].RetryCount)
	}
	if len(em.retries) != 1 || em.retries[0] != 1 {
		t.Errorf("retry events = %v", em.retries)
	}
}

func TestRunMissionRetryExhaustion(t *testing.T) {
	store := mission.NewStore()
	api := &fakeRobot{states: []robot.CommandState{robot.CmdFailed}}
	em := &fakeEmitter{}
	e := New(testConfig(), store, api, em)

	m := store.Create("m", "AMB-001", transportSteps())
	dq, ctx := store.Dequeue("AMB-001")
	e.runMission(ctx, dq)

	got, _ := store.Get(m.ID)
	if got.Status != mission.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.Steps[0].RetryCount != 3 {
		t.Errorf("retry count = %d, want MaxRetries", got.Steps[0].RetryCount)
	}
	if got.ErrorMessage != "obstacle" {
		t.Errorf("error = %q, want failure reason", got.ErrorMessage)
	}
	// Only the failing step was ever issued.
	for _, c := range api.callList() {
		if c != "goto:3_load_docking" {
			t.Errorf("later step issued after failure: %s", c)
		}
	}
	if len(em.failed) != 1 {
		t.Errorf("failed events = %v", em.failed)
	}
	if len(em.completed) != 0 {
		t.Error("completed emitted for a failed mission")
	}
}

func TestRunMissionCancellation(t *testing.T) {
	store := mission.NewStore()
	// Robot never reports terminal, so the mission sits in the poll loop.
	api := &fakeRobot{states: []robot.CommandState{robot.CmdRunning}}
	em := &fakeEmitter{}
	e := New(testConfig(), store, api, em)

	m := store.Create("m", "AMB-001", transportSteps())
	dq, ctx := store.Dequeue("AMB-001")

	done := make(chan struct{})
	go func() {
		e.runMission(ctx, dq)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	store.CancelAllActive("AMB-001")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mission did not stop after cancel")
	}

	got, _ := store.Get(m.ID)
	if got.Status != mission.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	api.mu.Lock()
	remote := api.cancelled
	api.mu.Unlock()
	if remote != 1 {
		t.Errorf("remote cancel issued %d times, want 1", remote)
	}
	if len(em.cancelled) != 1 {
		t.Errorf("cancelled events = %v", em.cancelled)
	}
}

func TestStepTimeout(t *testing.T) {
	store := mission.NewStore()
	api := &fakeRobot{states: []robot.CommandState{robot.CmdRunning}}
	em := &fakeEmitter{}
	cfg := testConfig()
	cfg.MoveTimeout = 20 * time.Millisecond
	e := New(cfg, store, api, em)

	m := store.Create("m", "AMB-001", transportSteps()[:1])
	dq, ctx := store.Dequeue("AMB-001")
	e.runMission(ctx, dq)

	got, _ := store.Get(m.ID)
	if got.Status != mission.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.Steps[0].RetryCount != 3 {
		t.Errorf("retry count = %d, want MaxRetries", got.Steps[0].RetryCount)
	}
}

func TestExecutorPicksUpPendingMission(t *testing.T) {
	store := mission.NewStore()
	api := &fakeRobot{}
	em := &fakeEmitter{}
	e := New(testConfig(), store, api, em)
	e.Start()
	defer e.Stop()

	m := store.Create("m", "AMB-001", []mission.Step{{Type: mission.StepJackDown, Label: "lower"}})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := store.Get(m.ID)
		if got.Status == mission.StatusCompleted {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("mission never completed")
}

func TestStepTimeoutSelection(t *testing.T) {
	cfg := testConfig()
	cfg.MoveTimeout = time.Minute
	cfg.ChargerTimeout = time.Hour
	cfg.JackTimeout = time.Second
	e := New(cfg, mission.NewStore(), &fakeRobot{}, &fakeEmitter{})

	if d := e.stepTimeout(&mission.Step{Type: mission.StepMove}); d != time.Minute {
		t.Errorf("move timeout = %s", d)
	}
	if d := e.stepTimeout(&mission.Step{Type: mission.StepMove, ChargerLeg: true}); d != time.Hour {
		t.Errorf("charger leg timeout = %s", d)
	}
	if d := e.stepTimeout(&mission.Step{Type: mission.StepJackUp}); d != time.Second {
		t.Errorf("jack timeout = %s", d)
	}
}
