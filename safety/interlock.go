package safety

import (
	"fmt"

	"missioncore/robot"
)

// RobotProbe is the live-query surface the interlock consults. Every
// predicate hits the robot; none of them guesses from cached state.
type RobotProbe interface {
	GetStatus() (*robot.Status, error)
	GetBinState(pointID string) (*robot.BinState, error)
}

// Reason codes surfaced to callers when a pre-flight check aborts creation.
const (
	CodeEmergencyStop    = "EMERGENCY_STOP_PRESSED"
	CodeRobotCharging    = "ROBOT_CHARGING"
	CodeNoActionPossible = "NO_ACTION_POSSIBLE"
	CodeDropoffOccupied  = "DROPOFF_OCCUPIED"
)

// Abort is a failed interlock: a machine-readable code plus a human-readable
// message. No robot command has been sent when an Abort is returned.
type Abort struct {
	Code    string
	Message string
}

func (a *Abort) Error() string {
	return fmt.Sprintf("%s: %s", a.Code, a.Message)
}

// AsAbort extracts an *Abort from err, if it is one.
func AsAbort(err error) (*Abort, bool) {
	a, ok := err.(*Abort)
	return a, ok
}

// Interlock evaluates safety preconditions against the live robot.
type Interlock struct {
	probe RobotProbe
}

func New(probe RobotProbe) *Interlock {
	return &Interlock{probe: probe}
}

// IsEmergencyStopEngaged queries the robot's emergency stop state.
func (i *Interlock) IsEmergencyStopEngaged() (bool, error) {
	st, err := i.probe.GetStatus()
	if err != nil {
		return false, fmt.Errorf("emergency stop check: %w", err)
	}
	return st.Emergency, nil
}

// IsCharging queries the robot's charging state.
func (i *Interlock) IsCharging() (bool, error) {
	st, err := i.probe.GetStatus()
	if err != nil {
		return false, fmt.Errorf("charging check: %w", err)
	}
	return st.Charging, nil
}

// IsBinPresent queries the bin sensor at a map point. A sensor error is a
// hard error, never "assume present".
func (i *Interlock) IsBinPresent(pointID string) (bool, error) {
	bs, err := i.probe.GetBinState(pointID)
	if err != nil {
		return false, fmt.Errorf("bin check at %s: %w", pointID, err)
	}
	return bs.Occupied, nil
}

// CheckRobotReady runs the unconditional pre-flight checks in fixed order:
// emergency stop first, then charging. The first failing check aborts with
// its reason code; a probe error propagates as-is.
func (i *Interlock) CheckRobotReady() error {
	st, err := i.probe.GetStatus()
	if err != nil {
		return fmt.Errorf("pre-flight status: %w", err)
	}
	if st.Emergency {
		return &Abort{Code: CodeEmergencyStop, Message: "emergency stop is engaged"}
	}
	if st.Charging {
		return &Abort{Code: CodeRobotCharging, Message: "robot is charging"}
	}
	return nil
}

// BinPolicy selects how a transport workflow reacts to missing/occupied bins.
type BinPolicy int

const (
	// BinPolicyAbort rejects the workflow when the bins are not as expected.
	BinPolicyAbort BinPolicy = iota
	// BinPolicyDegrade drops the transport legs when there is nothing to
	// move and keeps only the return-to-charger tail.
	BinPolicyDegrade
)

// ParseBinPolicy maps a config string to a policy. Unknown values fall
// back to abort, the conservative choice.
func ParseBinPolicy(s string) BinPolicy {
	if s == "degrade" {
		return BinPolicyDegrade
	}
	return BinPolicyAbort
}

// BinDecision is the outcome of evaluating the bin preconditions.
type BinDecision int

const (
	// BinProceed runs the full step list.
	BinProceed BinDecision = iota
	// BinSkipTransport drops the pickup/dropoff legs, keeping the
	// return-to-charger tail.
	BinSkipTransport
)

// DecideBins evaluates the two bin booleans under a policy. Pickup points
// expect a bin present; dropoff points expect the position free. The result
// is a pure function of (pickupHasBin, dropoffHasBin, policy).
func DecideBins(policy BinPolicy, pickupHasBin, dropoffHasBin bool) (BinDecision, error) {
	switch policy {
	case BinPolicyAbort:
		if !pickupHasBin {
			return 0, &Abort{Code: CodeNoActionPossible, Message: "no bin present at pickup point"}
		}
		if dropoffHasBin {
			return 0, &Abort{Code: CodeDropoffOccupied, Message: "dropoff point is occupied"}
		}
		return BinProceed, nil
	case BinPolicyDegrade:
		if !pickupHasBin {
			return BinSkipTransport, nil
		}
		if dropoffHasBin {
			// There is a bin to move but nowhere to put it; degrading
			// cannot help, so this still aborts.
			return 0, &Abort{Code: CodeDropoffOccupied, Message: "dropoff point is occupied"}
		}
		return BinProceed, nil
	default:
		return 0, fmt.Errorf("unknown bin policy %d", policy)
	}
}
