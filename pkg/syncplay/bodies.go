package syncplay

// NewGroupRequest creates a group; the creator becomes Captain.
type NewGroupRequest struct {
	GroupName string `json:"GroupName"`
}

// JoinGroupRequest joins an existing group.
type JoinGroupRequest struct {
	GroupID string `json:"GroupId"`
}

// QueueRequest appends catalog items to the shared queue.
type QueueRequest struct {
	ItemIDs []string `json:"ItemIds"`
	Mode    string   `json:"Mode"`
}

// RemoveFromPlayQueueRequest removes queue slots by playlist item id.
type RemoveFromPlayQueueRequest struct {
	PlaylistItemIDs  []string `json:"PlaylistItemIds"`
	ClearPlayQueue   bool     `json:"ClearPlaylist,omitempty"`
	ClearPlayingItem bool     `json:"ClearPlayingItem,omitempty"`
}

// MovePlaylistItemRequest moves one queue slot to a new index.
type MovePlaylistItemRequest struct {
	PlaylistItemID string `json:"PlaylistItemId"`
	NewIndex       int    `json:"NewIndex"`
}

// SetNewQueueRequest replaces the entire queue.
type SetNewQueueRequest struct {
	ItemIDs            []string `json:"ItemIds"`
	StartIndex         int      `json:"StartIndex"`
	StartPositionTicks int64    `json:"StartPositionTicks,omitempty"`
}

// SeekRequest seeks within the current item.
type SeekRequest struct {
	PositionTicks int64 `json:"PositionTicks"`
}

// ItemPinRequest optionally pins next/previous to a specific queue slot to
// disambiguate races between participants.
type ItemPinRequest struct {
	PlaylistItemID string `json:"PlaylistItemId,omitempty"`
}

// PingRequest reports the measured round-trip time to the server.
type PingRequest struct {
	Ping int64 `json:"Ping"`
}

// SetShuffleModeRequest toggles shuffle.
type SetShuffleModeRequest struct {
	Mode string `json:"Mode"`
}

// SetRepeatModeRequest sets the repeat mode.
type SetRepeatModeRequest struct {
	Mode string `json:"Mode"`
}
