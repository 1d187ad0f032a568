package syncplay

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the frame shape shared by every Command Channel message.
type Envelope struct {
	MessageType string          `json:"MessageType"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

// Message is one decoded Command Channel frame. The set of implementations
// is closed; DecodeMessage is the only constructor for inbound frames.
type Message interface {
	messageType() string
}

// CommandType discriminates playback commands.
type CommandType string

// Playback command types broadcast by the server.
const (
	CommandPlay  CommandType = "Play"
	CommandPause CommandType = "Pause"
	CommandStop  CommandType = "Stop"
	CommandSeek  CommandType = "Seek"
)

// Command is a server-ordered playback instruction. Commands arrive in
// server receipt order, not client send order.
type Command struct {
	GroupID        string      `json:"GroupId"`
	Type           CommandType `json:"Command"`
	PositionTicks  *int64      `json:"PositionTicks,omitempty"`
	PlaylistItemID string      `json:"PlaylistItemId,omitempty"`
	TrackIndex     *int        `json:"TrackIndex,omitempty"`
	EmittedAt      time.Time   `json:"EmittedAt,omitempty"`
}

func (Command) messageType() string { return "SyncPlayCommand" }

// UpdateType discriminates group update broadcasts.
type UpdateType string

// Group update types. Each one replaces a slice of session state wholesale.
const (
	UpdateGroupJoined         UpdateType = "GroupJoined"
	UpdateGroupLeft           UpdateType = "GroupLeft"
	UpdateParticipantsChanged UpdateType = "ParticipantsChanged"
	UpdatePlayQueueChanged    UpdateType = "PlayQueueChanged"
	UpdateStateChanged        UpdateType = "StateChanged"
	UpdateGroupDoesNotExist   UpdateType = "GroupDoesNotExist"
)

// GroupUpdate is a group/queue change broadcast. Exactly one of the payload
// fields is set, according to Type.
type GroupUpdate struct {
	GroupID      string
	Type         UpdateType
	Group        *GroupInfo
	Participants []Participant
	Queue        *PlayQueue
	State        *PlayState
}

func (GroupUpdate) messageType() string { return "SyncPlayGroupUpdate" }

// Ping is sent by the client to measure round-trip time.
type Ping struct {
	Sequence  int64 `json:"Sequence"`
	Timestamp int64 `json:"Timestamp"`
}

func (Ping) messageType() string { return "Ping" }

// Pong is the server's answer to a Ping, echoing the sequence number.
type Pong struct {
	Sequence  int64 `json:"Sequence"`
	Timestamp int64 `json:"Timestamp"`
}

func (Pong) messageType() string { return "Pong" }

// PlaybackReport carries this device's playback state for ready/buffering
// signaling.
type PlaybackReport struct {
	When           time.Time `json:"When"`
	PositionTicks  int64     `json:"PositionTicks"`
	IsPlaying      bool      `json:"IsPlaying"`
	PlaylistItemID string    `json:"PlaylistItemId,omitempty"`
}

// Ready reports that this device is ready to play.
type Ready struct {
	PlaybackReport
}

func (Ready) messageType() string { return "ReportReady" }

// Buffering reports that this device is stalled loading media.
type Buffering struct {
	PlaybackReport
}

func (Buffering) messageType() string { return "ReportBuffering" }

// UnknownMessageError reports a frame whose MessageType or update type is
// outside the closed variant set. Callers log and drop these.
type UnknownMessageError struct {
	MessageType string
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.MessageType)
}

// groupUpdateWire is the raw shape of a group update frame.
type groupUpdateWire struct {
	GroupID string          `json:"GroupId"`
	Type    UpdateType      `json:"Type"`
	Data    json.RawMessage `json:"Data,omitempty"`
}

// DecodeMessage decodes one inbound frame into its closed variant. Dynamic
// "type" dispatch happens here and only here.
func DecodeMessage(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.MessageType {
	case "SyncPlayCommand":
		var cmd Command
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}
		switch cmd.Type {
		case CommandPlay, CommandPause, CommandStop, CommandSeek:
		default:
			return nil, &UnknownMessageError{MessageType: string(cmd.Type)}
		}
		return cmd, nil
	case "SyncPlayGroupUpdate":
		var wire groupUpdateWire
		if err := json.Unmarshal(env.Data, &wire); err != nil {
			return nil, fmt.Errorf("decode group update: %w", err)
		}
		return decodeGroupUpdate(wire)
	case "Pong":
		var pong Pong
		if err := json.Unmarshal(env.Data, &pong); err != nil {
			return nil, fmt.Errorf("decode pong: %w", err)
		}
		return pong, nil
	default:
		return nil, &UnknownMessageError{MessageType: env.MessageType}
	}
}

func decodeGroupUpdate(wire groupUpdateWire) (Message, error) {
	update := GroupUpdate{GroupID: wire.GroupID, Type: wire.Type}

	switch wire.Type {
	case UpdateGroupJoined:
		var group GroupInfo
		if err := json.Unmarshal(wire.Data, &group); err != nil {
			return nil, fmt.Errorf("decode group joined: %w", err)
		}
		update.Group = &group
	case UpdateParticipantsChanged:
		var participants []Participant
		if err := json.Unmarshal(wire.Data, &participants); err != nil {
			return nil, fmt.Errorf("decode participants: %w", err)
		}
		update.Participants = participants
	case UpdatePlayQueueChanged:
		var queue PlayQueue
		if err := json.Unmarshal(wire.Data, &queue); err != nil {
			return nil, fmt.Errorf("decode play queue: %w", err)
		}
		update.Queue = &queue
	case UpdateStateChanged:
		var state PlayState
		if err := json.Unmarshal(wire.Data, &state); err != nil {
			return nil, fmt.Errorf("decode play state: %w", err)
		}
		update.State = &state
	case UpdateGroupLeft, UpdateGroupDoesNotExist:
	default:
		return nil, &UnknownMessageError{MessageType: string(wire.Type)}
	}
	return update, nil
}

// EncodeMessage wraps an outbound message in its envelope.
func EncodeMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return json.Marshal(Envelope{MessageType: msg.messageType(), Data: data})
}
