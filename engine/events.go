package engine

const (
	EventMissionCreated EventType = iota + 1
	EventMissionRejected
	EventMissionStarted
	EventStepStarted
	EventStepCompleted
	EventStepRetried
	EventMissionCompleted
	EventMissionFailed
	EventMissionCancelled
	EventRobotConnected
	EventRobotDisconnected
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type MissionCreatedEvent struct {
	MissionID   string
	Name        string
	RobotSerial string
	StepCount   int
}

type MissionRejectedEvent struct {
	Name   string
	Code   string
	Detail string
}

type MissionStartedEvent struct {
	MissionID   string
	RobotSerial string
}

type StepStartedEvent struct {
	MissionID string
	StepIndex int
	StepType  string
	Label     string
}

type StepCompletedEvent struct {
	MissionID string
	StepIndex int
}

type StepRetriedEvent struct {
	MissionID string
	StepIndex int
	Attempt   int
	Reason    string
}

type MissionCompletedEvent struct {
	MissionID string
}

type MissionFailedEvent struct {
	MissionID string
	StepIndex int
	Detail    string
}

type MissionCancelledEvent struct {
	MissionID string
}

type ConnectionEvent struct {
	Detail string
}
