package syncplay

import "time"

// GroupInfo describes a playback group as reported by the server.
type GroupInfo struct {
	GroupID      string        `json:"GroupId"`
	GroupName    string        `json:"GroupName"`
	Participants []Participant `json:"Participants"`
	LastUpdated  time.Time     `json:"LastUpdatedAt,omitempty"`
}

// Participant is one device/user pair inside a group.
type Participant struct {
	UserID      string `json:"UserId"`
	DisplayName string `json:"DisplayName"`
	ImageTag    string `json:"PrimaryImageTag,omitempty"`
	IsCaptain   bool   `json:"IsCaptain"`
}

// Track is the catalog reference carried by a queue item.
type Track struct {
	ItemID       string `json:"ItemId"`
	Name         string `json:"Name,omitempty"`
	Album        string `json:"Album,omitempty"`
	Artist       string `json:"Artist,omitempty"`
	RunTimeTicks int64  `json:"RunTimeTicks,omitempty"`
	StreamURL    string `json:"StreamUrl,omitempty"`
	PrimaryImage string `json:"PrimaryImageUrl,omitempty"`
}

// QueueItem is one slot of the shared play queue. PlaylistItemID is the
// server-assigned slot identity; the same catalog track may occupy several
// slots at once.
type QueueItem struct {
	PlaylistItemID string `json:"PlaylistItemId"`
	Track          Track  `json:"Track"`
	AddedByUserID  string `json:"AddedByUserId,omitempty"`
}

// PlayQueue is the full authoritative queue payload. Broadcasts always carry
// the whole queue; receivers replace their copy wholesale.
type PlayQueue struct {
	Items            []QueueItem `json:"Items"`
	PlayingItemIndex int         `json:"PlayingItemIndex"`
	IsPaused         bool        `json:"IsPaused"`
	PositionTicks    int64       `json:"PositionTicks"`
	ShuffleMode      string      `json:"ShuffleMode,omitempty"`
	RepeatMode       string      `json:"RepeatMode,omitempty"`
}

// PlayState is the playing/paused/position slice of group state.
type PlayState struct {
	IsPaused       bool   `json:"IsPaused"`
	PositionTicks  int64  `json:"PositionTicks"`
	PlaylistItemID string `json:"PlaylistItemId,omitempty"`
	IsBuffering    bool   `json:"IsBuffering,omitempty"`
}

// Queue insert modes accepted by the Control API.
const (
	QueueModeAppend         = "Queue"
	QueueModePlayNext       = "QueueNext"
	QueueModeReplaceCurrent = "PlayNow"
)

// Shuffle modes.
const (
	ShuffleModeSorted  = "Sorted"
	ShuffleModeShuffle = "Shuffle"
)

// Repeat modes.
const (
	RepeatModeNone = "RepeatNone"
	RepeatModeAll  = "RepeatAll"
	RepeatModeOne  = "RepeatOne"
)
