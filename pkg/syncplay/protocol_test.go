package syncplay

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeCommand(t *testing.T) {
	ticks := int64(300000000)
	raw := mustEncode(t, Command{
		GroupID:        "g1",
		Type:           CommandSeek,
		PositionTicks:  &ticks,
		PlaylistItemID: "pli-1",
	})

	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cmd, ok := msg.(Command)
	if !ok {
		t.Fatalf("expected Command, got %T", msg)
	}
	if cmd.Type != CommandSeek || cmd.PlaylistItemID != "pli-1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.PositionTicks == nil || *cmd.PositionTicks != ticks {
		t.Fatalf("expected position ticks")
	}
}

func TestDecodeCommandUnknownType(t *testing.T) {
	raw := []byte(`{"MessageType":"SyncPlayCommand","Data":{"GroupId":"g1","Command":"Rewind"}}`)
	_, err := DecodeMessage(raw)
	var unknown *UnknownMessageError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMessageError, got %v", err)
	}
}

func TestDecodeGroupUpdateVariants(t *testing.T) {
	queueData, _ := json.Marshal(PlayQueue{
		Items:            []QueueItem{{PlaylistItemID: "pli-1", Track: Track{ItemID: "t1"}}},
		PlayingItemIndex: 0,
		PositionTicks:    100,
	})
	raw, _ := json.Marshal(Envelope{
		MessageType: "SyncPlayGroupUpdate",
		Data: mustJSON(t, map[string]any{
			"GroupId": "g1",
			"Type":    "PlayQueueChanged",
			"Data":    json.RawMessage(queueData),
		}),
	})

	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	update, ok := msg.(GroupUpdate)
	if !ok {
		t.Fatalf("expected GroupUpdate, got %T", msg)
	}
	if update.Type != UpdatePlayQueueChanged || update.Queue == nil {
		t.Fatalf("expected queue payload: %+v", update)
	}
	if len(update.Queue.Items) != 1 || update.Queue.Items[0].PlaylistItemID != "pli-1" {
		t.Fatalf("unexpected queue: %+v", update.Queue)
	}
}

func TestDecodeGroupUpdateNoPayload(t *testing.T) {
	raw := []byte(`{"MessageType":"SyncPlayGroupUpdate","Data":{"GroupId":"g1","Type":"GroupDoesNotExist"}}`)
	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	update := msg.(GroupUpdate)
	if update.Type != UpdateGroupDoesNotExist {
		t.Fatalf("unexpected type %q", update.Type)
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	raw := []byte(`{"MessageType":"Telemetry","Data":{}}`)
	_, err := DecodeMessage(raw)
	var unknown *UnknownMessageError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownMessageError, got %v", err)
	}
	if unknown.MessageType != "Telemetry" {
		t.Fatalf("unexpected message type %q", unknown.MessageType)
	}
}

func TestEncodePingRoundTrip(t *testing.T) {
	raw, err := EncodeMessage(Ping{Sequence: 7, Timestamp: 123})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.MessageType != "Ping" {
		t.Fatalf("unexpected message type %q", env.MessageType)
	}
	var ping Ping
	if err := json.Unmarshal(env.Data, &ping); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if ping.Sequence != 7 {
		t.Fatalf("unexpected sequence %d", ping.Sequence)
	}
}

func TestTicksConversion(t *testing.T) {
	if TicksToDuration(10000000) != time.Second {
		t.Fatalf("expected one second")
	}
	if DurationToTicks(time.Second) != 10000000 {
		t.Fatalf("expected 10000000 ticks")
	}
	if TicksToMS(10000000) != 1000 {
		t.Fatalf("expected 1000ms")
	}
	if TicksToMS(-5) != 0 {
		t.Fatalf("expected clamp to 0")
	}
}

func mustEncode(t *testing.T, msg Message) []byte {
	t.Helper()
	raw, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return raw
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
