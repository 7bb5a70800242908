package messaging

import (
	"testing"

	"missioncore/workflow"
)

func TestEnvelopeRoundTripMissionRequest(t *testing.T) {
	env := NewEnvelope(TypeMissionRequest, "station-7", MissionRequest{
		TransportRequest: workflow.TransportRequest{
			ServiceType:   "shelf",
			OperationType: workflow.OpPickup,
			ShelfID:       "3",
		},
	})
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MsgType != TypeMissionRequest || got.StationID != "station-7" {
		t.Errorf("envelope = %+v", got)
	}
	if got.MsgID == "" {
		t.Error("msg_id not assigned")
	}
	req, ok := got.Payload.(MissionRequest)
	if !ok {
		t.Fatalf("payload type = %T", got.Payload)
	}
	if req.ShelfID != "3" || req.OperationType != workflow.OpPickup {
		t.Errorf("payload = %+v", req)
	}
}

func TestEnvelopeRoundTripMissionCancel(t *testing.T) {
	env := NewEnvelope(TypeMissionCancel, "station-7", MissionCancel{Reason: "operator request"})
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cancel, ok := got.Payload.(MissionCancel)
	if !ok {
		t.Fatalf("payload type = %T", got.Payload)
	}
	if cancel.Reason != "operator request" {
		t.Errorf("payload = %+v", cancel)
	}
}

func TestDecodeEnvelopeUnknownType(t *testing.T) {
	env := NewEnvelope("telemetry_blob", "station-7", map[string]int{"x": 1})
	data, _ := env.Encode()
	if _, err := DecodeEnvelope(data); err == nil {
		t.Fatal("unknown msg_type must fail to decode")
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
	// Valid envelope, wrong payload shape.
	bad := []byte(`{"msg_type":"mission_cancel","payload":"nope"}`)
	if _, err := DecodeEnvelope(bad); err == nil {
		t.Fatal("payload type mismatch must fail")
	}
}
