package mission

import (
	"time"

	"missioncore/points"
)

// Status values for the mission lifecycle.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// IsTerminal reports whether a mission status is final. Terminal missions
// are immutable.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCancelled
}

// StepType identifies the robot command a step issues.
type StepType string

const (
	StepMove           StepType = "move"
	StepAlignWithRack  StepType = "align_with_rack"
	StepJackUp         StepType = "jack_up"
	StepJackDown       StepType = "jack_down"
	StepManualJoystick StepType = "manual_joystick"
)

// Velocity is the parameter block for a manual joystick step.
type Velocity struct {
	VX       float64       `json:"vx"`
	VY       float64       `json:"vy"`
	W        float64       `json:"w"`
	Duration time.Duration `json:"duration"`
}

// Step is one unit of mission execution. Steps are created once when the
// mission is built and mutated only by the executor; they are never
// reordered.
type Step struct {
	Type         StepType      `json:"type"`
	Label        string        `json:"label"`
	Target       *points.Point `json:"target,omitempty"`
	Velocity     *Velocity     `json:"velocity,omitempty"`
	ChargerLeg   bool          `json:"charger_leg,omitempty"`
	Completed    bool          `json:"completed"`
	RetryCount   int           `json:"retry_count"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Mission is one ordered sequence of steps fulfilling a single transport or
// charger-return intent for one robot. Owned exclusively by the Store.
type Mission struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	RobotSerial      string     `json:"robot_serial"`
	Steps            []Step     `json:"steps"`
	CurrentStepIndex int        `json:"current_step_index"`
	Status           string     `json:"status"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// StatusSnapshot is the read-only view served by the status surface. It is
// built atomically with respect to executor mutation.
type StatusSnapshot struct {
	MissionID        string   `json:"mission_id"`
	Name             string   `json:"name"`
	RobotSerial      string   `json:"robot_serial"`
	Status           string   `json:"status"`
	CurrentStepIndex int      `json:"current_step_index"`
	TotalSteps       int      `json:"total_steps"`
	CurrentStepType  StepType `json:"current_step_type,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
}

// clone returns a deep copy safe to hand outside the store's lock.
func (m *Mission) clone() *Mission {
	out := *m
	out.Steps = make([]Step, len(m.Steps))
	copy(out.Steps, m.Steps)
	if m.StartedAt != nil {
		t := *m.StartedAt
		out.StartedAt = &t
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
