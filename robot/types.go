package robot

// Response is the common robot API response envelope.
type Response struct {
	Code     int    `json:"code"`
	Msg      string `json:"msg"`
	CreateOn string `json:"create_on"`
}

// CommandState represents the robot's latest-command lifecycle states.
type CommandState string

const (
	CmdIdle      CommandState = "idle"
	CmdRunning   CommandState = "running"
	CmdSucceeded CommandState = "succeeded"
	CmdFailed    CommandState = "failed"
	CmdCancelled CommandState = "cancelled"
)

func (s CommandState) IsTerminal() bool {
	return s == CmdSucceeded || s == CmdFailed || s == CmdCancelled
}

// --- Command requests ---

type GotoSiteRequest struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"` // radians
}

type AlignRackRequest struct {
	ID string `json:"id"`
}

type JoystickRequest struct {
	VX         float64 `json:"vx"`
	VY         float64 `json:"vy"`
	W          float64 `json:"w"`
	DurationMS int     `json:"duration_ms"`
}

// --- Status responses ---

type CommandStatusResponse struct {
	Response
	Data *CommandStatus `json:"data,omitempty"`
}

// CommandStatus is the robot's report on the most recently issued command.
type CommandStatus struct {
	State      CommandState `json:"state"`
	FailReason string       `json:"fail_reason,omitempty"`
}

type StatusResponse struct {
	Response
	Data *Status `json:"data,omitempty"`
}

// Status is the robot's live condition report.
type Status struct {
	Emergency      bool    `json:"emergency"`
	Charging       bool    `json:"charging"`
	Blocked        bool    `json:"blocked"`
	BatteryLevel   float64 `json:"battery_level"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Angle          float64 `json:"angle"` // radians
	CurrentStation string  `json:"current_station"`
}

type BinStateResponse struct {
	Response
	Data *BinState `json:"data,omitempty"`
}

// BinState reports the bin sensor at a named map point.
type BinState struct {
	Point    string `json:"point"`
	Occupied bool   `json:"occupied"`
}

type MapPointsResponse struct {
	Response
	Points []MapPoint `json:"points,omitempty"`
}

// MapPoint is one entry of the robot's map point catalog. Angle is reported
// in degrees on the wire; callers convert to radians at this boundary.
type MapPoint struct {
	ID    string     `json:"id"`
	Pos   [2]float64 `json:"pos"`
	Angle float64    `json:"angle"`
}

type PingResponse struct {
	Response
	Product string `json:"product"`
	Version string `json:"version"`
}
