package engine

import (
	"fmt"

	"missioncore/messaging"
	"missioncore/mission"
)

func (e *Engine) wireEventHandlers() {
	// Mission created: history row, audit, external event
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionCreatedEvent)
		e.logFn("engine: mission %s created (%q, %d steps)", ev.MissionID, ev.Name, ev.StepCount)
		e.db.AppendMissionHistory(ev.MissionID, ev.Name, ev.RobotSerial, mission.StatusPending, 0, fmt.Sprintf("%d steps", ev.StepCount))
		e.db.AppendAudit("mission", ev.MissionID, "created", ev.Name, "system")
		e.enqueueStatusEvent(messaging.TypeMissionCreated, &messaging.MissionStatusEvent{
			MissionID: ev.MissionID,
			Status:    mission.StatusPending,
			Detail:    ev.Name,
		})
	}, EventMissionCreated)

	// Rejected requests never become missions; they are audited and
	// reported outward with their reason code.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionRejectedEvent)
		e.db.AppendAudit("mission", "", "rejected", fmt.Sprintf("%s: %s (%s)", ev.Name, ev.Code, ev.Detail), "system")
		e.enqueueStatusEvent(messaging.TypeMissionRejected, &messaging.MissionStatusEvent{
			Status: "rejected",
			Code:   ev.Code,
			Detail: ev.Detail,
		})
	}, EventMissionRejected)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionStartedEvent)
		e.logFn("engine: mission %s started on %s", ev.MissionID, ev.RobotSerial)
		e.appendHistory(ev.MissionID, mission.StatusInProgress, "")
		e.enqueueStatusEvent(messaging.TypeMissionStatus, &messaging.MissionStatusEvent{
			MissionID: ev.MissionID,
			Status:    mission.StatusInProgress,
		})
	}, EventMissionStarted)

	// Step progress: history only, the outside world gets terminal events.
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StepStartedEvent)
		e.appendHistory(ev.MissionID, mission.StatusInProgress, fmt.Sprintf("step %d started: %s", ev.StepIndex, ev.Label))
	}, EventStepStarted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StepCompletedEvent)
		e.appendHistory(ev.MissionID, mission.StatusInProgress, fmt.Sprintf("step %d completed", ev.StepIndex))
	}, EventStepCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StepRetriedEvent)
		e.logFn("engine: mission %s step %d retry %d: %s", ev.MissionID, ev.StepIndex, ev.Attempt, ev.Reason)
		e.appendHistory(ev.MissionID, mission.StatusInProgress, fmt.Sprintf("step %d retry %d: %s", ev.StepIndex, ev.Attempt, ev.Reason))
	}, EventStepRetried)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionCompletedEvent)
		e.logFn("engine: mission %s completed", ev.MissionID)
		e.appendHistory(ev.MissionID, mission.StatusCompleted, "")
		e.db.AppendAudit("mission", ev.MissionID, "completed", "", "system")
		e.enqueueStatusEvent(messaging.TypeMissionCompleted, &messaging.MissionStatusEvent{
			MissionID: ev.MissionID,
			Status:    mission.StatusCompleted,
		})
	}, EventMissionCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionFailedEvent)
		e.logFn("engine: mission %s failed at step %d: %s", ev.MissionID, ev.StepIndex, ev.Detail)
		e.appendHistory(ev.MissionID, mission.StatusFailed, ev.Detail)
		e.db.AppendAudit("mission", ev.MissionID, "failed", ev.Detail, "system")
		e.enqueueStatusEvent(messaging.TypeMissionFailed, &messaging.MissionStatusEvent{
			MissionID: ev.MissionID,
			Status:    mission.StatusFailed,
			StepIndex: ev.StepIndex,
			Detail:    ev.Detail,
		})
	}, EventMissionFailed)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionCancelledEvent)
		e.logFn("engine: mission %s cancelled", ev.MissionID)
		e.appendHistory(ev.MissionID, mission.StatusCancelled, "")
		e.db.AppendAudit("mission", ev.MissionID, "cancelled", "", "system")
		e.enqueueStatusEvent(messaging.TypeMissionCancelled, &messaging.MissionStatusEvent{
			MissionID: ev.MissionID,
			Status:    mission.StatusCancelled,
		})
	}, EventMissionCancelled)

	// Connection transitions: audit trail only
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ConnectionEvent)
		action := "connected"
		if evt.Type == EventRobotDisconnected {
			action = "disconnected"
		}
		e.db.AppendAudit("robot", e.cfg.Robot.Serial, action, ev.Detail, "system")
	}, EventRobotConnected, EventRobotDisconnected)
}

// appendHistory records a lifecycle row, filling name and serial from the
// live mission when it still exists.
func (e *Engine) appendHistory(missionID, status, detail string) {
	name, serial, stepIndex := "", e.cfg.Robot.Serial, 0
	if snap, err := e.missions.Snapshot(missionID); err == nil {
		name = snap.Name
		serial = snap.RobotSerial
		stepIndex = snap.CurrentStepIndex
	}
	if err := e.db.AppendMissionHistory(missionID, name, serial, status, stepIndex, detail); err != nil {
		e.logFn("engine: append history for %s: %v", missionID, err)
	}
}

// enqueueStatusEvent stores an outbound envelope in the outbox; the
// messaging drainer delivers it when the broker is reachable.
func (e *Engine) enqueueStatusEvent(msgType string, payload any) {
	env := messaging.NewEnvelope(msgType, e.cfg.Messaging.StationID, payload)
	data, err := env.Encode()
	if err != nil {
		e.logFn("engine: encode %s event: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.EventsTopic, data, msgType); err != nil {
		e.logFn("engine: enqueue %s event: %v", msgType, err)
	}
}
