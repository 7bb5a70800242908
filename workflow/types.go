package workflow

import "missioncore/mission"

// Operation types for transport requests.
const (
	OpPickup  = "pickup"
	OpDropoff = "dropoff"
)

// Rejection codes not covered by the safety package.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodePointNotFound  = "POINT_NOT_FOUND"
)

// PointRef is a caller-supplied point in the direct point-triple form.
// Coordinates are advisory (dashboard convention, ori in degrees); the
// builder resolves the id against the robot's map catalog, which is
// authoritative.
type PointRef struct {
	ID  string  `json:"id"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Ori float64 `json:"ori"`
}

// TransportRequest is the inbound workflow creation request. Either the
// semantic form (ServiceType/OperationType/FloorID/ShelfID) or the direct
// point-triple form (Shelf/Pickup/Standby) must be populated.
type TransportRequest struct {
	ServiceType   string `json:"service_type,omitempty"`
	OperationType string `json:"operation_type,omitempty"`
	FloorID       string `json:"floor_id,omitempty"`
	ShelfID       string `json:"shelf_id,omitempty"`

	Shelf   *PointRef `json:"shelf,omitempty"`
	Pickup  *PointRef `json:"pickup,omitempty"`
	Standby *PointRef `json:"standby,omitempty"`
}

// Result is the outcome of a create-mission request. Success=false carries
// a machine-readable code plus a human-readable error; no robot command has
// been issued for a rejected request.
type Result struct {
	Success   bool           `json:"success"`
	MissionID string         `json:"mission_id,omitempty"`
	Steps     []mission.Step `json:"steps,omitempty"`
	Code      string         `json:"code,omitempty"`
	Error     string         `json:"error,omitempty"`
}
