package messaging

import (
	"time"

	"missioncore/workflow"
)

// Envelope is the typed wrapper for all broker messages, inbound and
// outbound.
type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	StationID string    `json:"station_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Message types.
const (
	TypeMissionRequest = "mission_request"
	TypeMissionCancel  = "mission_cancel"

	TypeMissionCreated   = "mission_created"
	TypeMissionRejected  = "mission_rejected"
	TypeMissionStatus    = "mission_status"
	TypeMissionCompleted = "mission_completed"
	TypeMissionFailed    = "mission_failed"
	TypeMissionCancelled = "mission_cancelled"
)

// --- Inbound payloads ---

// MissionRequest asks for a new transport mission. Either request form
// is accepted; see workflow.TransportRequest.
type MissionRequest struct {
	workflow.TransportRequest
}

type MissionCancel struct {
	MissionID string `json:"mission_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// --- Outbound payloads ---

// MissionAck answers a mission_request with the created mission's id, or
// a rejection code when no mission was created.
type MissionAck struct {
	MissionID string `json:"mission_id,omitempty"`
	Accepted  bool   `json:"accepted"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// MissionStatusEvent reports a lifecycle transition.
type MissionStatusEvent struct {
	MissionID string `json:"mission_id,omitempty"`
	Status    string `json:"status"`
	StepIndex int    `json:"step_index,omitempty"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
}
