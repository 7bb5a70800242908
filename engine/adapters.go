package engine

import "missioncore/mission"

// executorEmitter bridges the executor's emitter interface to the EventBus.
type executorEmitter struct {
	bus *EventBus
}

func (e *executorEmitter) EmitMissionStarted(missionID, robotSerial string) {
	e.bus.Emit(Event{Type: EventMissionStarted, Payload: MissionStartedEvent{
		MissionID:   missionID,
		RobotSerial: robotSerial,
	}})
}

func (e *executorEmitter) EmitStepStarted(missionID string, stepIndex int, stepType mission.StepType, label string) {
	e.bus.Emit(Event{Type: EventStepStarted, Payload: StepStartedEvent{
		MissionID: missionID,
		StepIndex: stepIndex,
		StepType:  string(stepType),
		Label:     label,
	}})
}

func (e *executorEmitter) EmitStepCompleted(missionID string, stepIndex int) {
	e.bus.Emit(Event{Type: EventStepCompleted, Payload: StepCompletedEvent{
		MissionID: missionID,
		StepIndex: stepIndex,
	}})
}

func (e *executorEmitter) EmitStepRetried(missionID string, stepIndex int, attempt int, reason string) {
	e.bus.Emit(Event{Type: EventStepRetried, Payload: StepRetriedEvent{
		MissionID: missionID,
		StepIndex: stepIndex,
		Attempt:   attempt,
		Reason:    reason,
	}})
}

func (e *executorEmitter) EmitMissionCompleted(missionID string) {
	e.bus.Emit(Event{Type: EventMissionCompleted, Payload: MissionCompletedEvent{MissionID: missionID}})
}

func (e *executorEmitter) EmitMissionFailed(missionID string, stepIndex int, detail string) {
	e.bus.Emit(Event{Type: EventMissionFailed, Payload: MissionFailedEvent{
		MissionID: missionID,
		StepIndex: stepIndex,
		Detail:    detail,
	}})
}

func (e *executorEmitter) EmitMissionCancelled(missionID string) {
	e.bus.Emit(Event{Type: EventMissionCancelled, Payload: MissionCancelledEvent{MissionID: missionID}})
}

// workflowEmitter bridges the workflow builder's emitter interface to the EventBus.
type workflowEmitter struct {
	bus *EventBus
}

func (e *workflowEmitter) EmitMissionCreated(missionID, name, robotSerial string, stepCount int) {
	e.bus.Emit(Event{Type: EventMissionCreated, Payload: MissionCreatedEvent{
		MissionID:   missionID,
		Name:        name,
		RobotSerial: robotSerial,
		StepCount:   stepCount,
	}})
}

func (e *workflowEmitter) EmitMissionRejected(name, code, detail string) {
	e.bus.Emit(Event{Type: EventMissionRejected, Payload: MissionRejectedEvent{
		Name:   name,
		Code:   code,
		Detail: detail,
	}})
}
