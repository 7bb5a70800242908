package messaging

import (
	"log"

	"missioncore/workflow"
)

// MissionHandler handles inbound mission messages. Requests go through the
// workflow builder; every request gets an ack or a rejection on the events
// topic, keyed by the inbound MsgID.
type MissionHandler struct {
	builder     *workflow.Builder
	client      *Client
	stationID   string
	eventsTopic string
}

func NewMissionHandler(builder *workflow.Builder, client *Client, stationID, eventsTopic string) *MissionHandler {
	return &MissionHandler{
		builder:     builder,
		client:      client,
		stationID:   stationID,
		eventsTopic: eventsTopic,
	}
}

func (h *MissionHandler) HandleMissionRequest(env *Envelope, req MissionRequest) {
	res, err := h.builder.CreateTransport(&req.TransportRequest)
	if err != nil {
		log.Printf("handler: mission request %s: %v", env.MsgID, err)
		h.reply(&MissionAck{Accepted: false, Code: "INTERNAL_ERROR", Detail: err.Error()})
		return
	}
	if !res.Success {
		h.reply(&MissionAck{Accepted: false, Code: res.Code, Detail: res.Error})
		return
	}
	h.reply(&MissionAck{Accepted: true, MissionID: res.MissionID})
}

func (h *MissionHandler) HandleMissionCancel(env *Envelope, req MissionCancel) {
	ids := h.builder.CancelActive()
	log.Printf("handler: cancel request %s: %d mission(s) cancelled", env.MsgID, len(ids))
}

func (h *MissionHandler) reply(ack *MissionAck) {
	env := NewEnvelope(TypeMissionStatus, h.stationID, ack)
	if err := h.client.PublishEnvelope(h.eventsTopic, env); err != nil {
		log.Printf("handler: publish ack: %v", err)
	}
}
