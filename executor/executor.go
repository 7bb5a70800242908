package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"missioncore/mission"
	"missioncore/robot"
)

// RobotAPI is the remote command surface the executor drives. *robot.Client
// satisfies it; tests substitute a fake.
type RobotAPI interface {
	GotoSite(req *robot.GotoSiteRequest) error
	AlignRack(pointID string) error
	JackUp() error
	JackDown() error
	Joystick(vx, vy, w float64, d time.Duration) error
	LatestCommandStatus() (*robot.CommandStatus, error)
	CancelCommand() error
}

// Emitter receives mission lifecycle events from the executor.
type Emitter interface {
	EmitMissionStarted(missionID, robotSerial string)
	EmitStepStarted(missionID string, stepIndex int, stepType mission.StepType, label string)
	EmitStepCompleted(missionID string, stepIndex int)
	EmitStepRetried(missionID string, stepIndex int, attempt int, reason string)
	EmitMissionCompleted(missionID string)
	EmitMissionFailed(missionID string, stepIndex int, detail string)
	EmitMissionCancelled(missionID string)
}

type Config struct {
	RobotSerial    string
	PollInterval   time.Duration
	MoveTimeout    time.Duration
	ChargerTimeout time.Duration
	JackTimeout    time.Duration
	JackSettle     time.Duration
	MaxRetries     int
}

// Executor drives missions for one robot, strictly one at a time. Steps
// execute in order; no step begins before the prior step's completion (or
// retry exhaustion) is observed.
type Executor struct {
	cfg      Config
	store    *mission.Store
	api      RobotAPI
	emitter  Emitter
	stopChan chan struct{}
}

func New(cfg Config, store *mission.Store, api RobotAPI, emitter Emitter) *Executor {
	return &Executor{
		cfg:      cfg,
		store:    store,
		api:      api,
		emitter:  emitter,
		stopChan: make(chan struct{}),
	}
}

func (e *Executor) Start() {
	go e.run()
}

func (e *Executor) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
}

func (e *Executor) run() {
	// Fallback scan so a notify lost to a full channel never strands a
	// pending mission.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-e.store.Notify():
		case <-ticker.C:
		}

		for {
			m, ctx := e.store.Dequeue(e.cfg.RobotSerial)
			if m == nil {
				break
			}
			e.runMission(ctx, m)
		}
	}
}

func (e *Executor) runMission(ctx context.Context, m *mission.Mission) {
	log.Printf("executor: mission %s (%s) started, %d steps", m.ID, m.Name, len(m.Steps))
	e.emitter.EmitMissionStarted(m.ID, m.RobotSerial)

	for i := range m.Steps {
		if done := e.runStep(ctx, m.ID, i, &m.Steps[i]); done {
			return
		}
	}
	log.Printf("executor: mission %s completed", m.ID)
	e.emitter.EmitMissionCompleted(m.ID)
}

// runStep executes one step to completion, retrying up to the configured
// maximum. Returns true when the mission is over (failed or cancelled) and
// the caller must stop.
func (e *Executor) runStep(ctx context.Context, missionID string, index int, step *mission.Step) (done bool) {
	for {
		if ctx.Err() != nil {
			e.handleCancelled(missionID)
			return true
		}

		e.emitter.EmitStepStarted(missionID, index, step.Type, step.Label)
		if err := e.issue(step); err != nil {
			if fatal := e.recordFailure(missionID, index, err.Error()); fatal {
				return true
			}
			continue
		}

		outcome, reason := e.pollUntilDone(ctx, step)
		switch outcome {
		case outcomeSucceeded:
			if step.Type == mission.StepJackUp || step.Type == mission.StepJackDown {
				// Mechanical settling time. Deliberately not tied to ctx:
				// interrupting it could leave the jack mid-travel.
				time.Sleep(e.cfg.JackSettle)
			}
			if err := e.store.CompleteStep(missionID, index); err != nil {
				// Mission went terminal underneath us (external cancel).
				e.handleCancelled(missionID)
				return true
			}
			e.emitter.EmitStepCompleted(missionID, index)
			return false
		case outcomeCancelled:
			e.handleCancelled(missionID)
			return true
		case outcomeFailed:
			if fatal := e.recordFailure(missionID, index, reason); fatal {
				return true
			}
			// retry: loop reissues the same step
		}
	}
}

type pollOutcome int

const (
	outcomeSucceeded pollOutcome = iota
	outcomeFailed
	outcomeCancelled
)

// pollUntilDone polls the robot's latest-command status on a fixed interval
// until it reports a terminal state, the step timeout elapses, or the
// mission is cancelled. Cancellation is observed at the next tick, bounding
// cancellation latency to one poll interval.
func (e *Executor) pollUntilDone(ctx context.Context, step *mission.Step) (pollOutcome, string) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(e.stepTimeout(step))
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return outcomeCancelled, "mission cancelled"
		case <-deadline.C:
			return outcomeFailed, fmt.Sprintf("step timed out after %s", e.stepTimeout(step))
		case <-ticker.C:
			st, err := e.api.LatestCommandStatus()
			if err != nil {
				// Transient poll error; the deadline still bounds us.
				log.Printf("executor: poll command status: %v", err)
				continue
			}
			switch st.State {
			case robot.CmdSucceeded:
				return outcomeSucceeded, ""
			case robot.CmdFailed:
				reason := st.FailReason
				if reason == "" {
					reason = "command failed"
				}
				return outcomeFailed, reason
			case robot.CmdCancelled:
				return outcomeFailed, "command cancelled on robot"
			}
		}
	}
}

// recordFailure applies the retry policy for a failed attempt. Returns
// true when the mission transitioned to failed (or went terminal underneath
// us) and execution must stop.
func (e *Executor) recordFailure(missionID string, index int, reason string) bool {
	attempts, err := e.store.RecordRetry(missionID, index)
	if err != nil {
		e.handleCancelled(missionID)
		return true
	}
	if attempts < e.cfg.MaxRetries {
		log.Printf("executor: mission %s step %d failed (%s), retry %d/%d", missionID, index, reason, attempts, e.cfg.MaxRetries)
		e.emitter.EmitStepRetried(missionID, index, attempts, reason)
		return false
	}
	log.Printf("executor: mission %s step %d failed after %d attempts: %s", missionID, index, attempts, reason)
	e.store.FailMission(missionID, index, reason)
	e.emitter.EmitMissionFailed(missionID, index, reason)
	return true
}

// handleCancelled attempts a best-effort remote cancel and emits the
// cancellation. Local state is already cancelled by the store.
func (e *Executor) handleCancelled(missionID string) {
	if err := e.api.CancelCommand(); err != nil {
		log.Printf("executor: remote cancel for mission %s: %v", missionID, err)
	}
	log.Printf("executor: mission %s cancelled", missionID)
	e.emitter.EmitMissionCancelled(missionID)
}

func (e *Executor) issue(step *mission.Step) error {
	switch step.Type {
	case mission.StepMove:
		if step.Target == nil {
			return fmt.Errorf("move step has no target point")
		}
		return e.api.GotoSite(&robot.GotoSiteRequest{
			ID:    step.Target.ID,
			X:     step.Target.X,
			Y:     step.Target.Y,
			Angle: step.Target.Orientation,
		})
	case mission.StepAlignWithRack:
		if step.Target == nil {
			return fmt.Errorf("align step has no target point")
		}
		return e.api.AlignRack(step.Target.ID)
	case mission.StepJackUp:
		return e.api.JackUp()
	case mission.StepJackDown:
		return e.api.JackDown()
	case mission.StepManualJoystick:
		if step.Velocity == nil {
			return fmt.Errorf("joystick step has no velocity")
		}
		v := step.Velocity
		return e.api.Joystick(v.VX, v.VY, v.W, v.Duration)
	default:
		return fmt.Errorf("unknown step type %q", step.Type)
	}
}

func (e *Executor) stepTimeout(step *mission.Step) time.Duration {
	switch {
	case step.ChargerLeg:
		return e.cfg.ChargerTimeout
	case step.Type == mission.StepJackUp || step.Type == mission.StepJackDown:
		return e.cfg.JackTimeout
	default:
		return e.cfg.MoveTimeout
	}
}
