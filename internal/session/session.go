package session

import (
	"time"

	"github.com/mikey-austin/shipmate/internal/channel"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// Role is this device's part in the group.
type Role string

// Roles. The Captain drives audio; Sailors mirror it.
const (
	RoleCaptain Role = "captain"
	RoleSailor  Role = "sailor"
)

// Session is the client's local projection of one group plus playback
// state. It is mutated only by the Manager's apply loop; everything handed
// to subscribers is a snapshot copy.
type Session struct {
	GroupID      string
	GroupName    string
	Role         Role
	Participants []syncplay.Participant
	Queue        []syncplay.QueueItem
	CurrentIndex int
	IsPaused     bool
	Position     time.Duration
	IsBuffering  bool

	Quality   channel.Quality
	Reconnect channel.ReconnectState

	// Ended marks a terminal state: the group no longer exists or the
	// reconnection budget is exhausted. Manual rejoin is required.
	Ended bool
}

// Active reports whether the session is attached to a live group.
func (s Session) Active() bool {
	return s.GroupID != "" && !s.Ended
}

// CurrentItem returns the playing queue entry, if any.
func (s Session) CurrentItem() (syncplay.QueueItem, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return syncplay.QueueItem{}, false
	}
	return s.Queue[s.CurrentIndex], true
}

// IndexOf resolves a playlist item id to its queue index, or -1.
func (s Session) IndexOf(playlistItemID string) int {
	for i, item := range s.Queue {
		if item.PlaylistItemID == playlistItemID {
			return i
		}
	}
	return -1
}

// snapshot returns a copy safe to hand to subscribers.
func (s Session) snapshot() Session {
	out := s
	out.Participants = append([]syncplay.Participant(nil), s.Participants...)
	out.Queue = append([]syncplay.QueueItem(nil), s.Queue...)
	return out
}

// clampIndex keeps CurrentIndex valid: inside the queue, or -1 when empty.
func clampIndex(index int, length int) int {
	if length == 0 {
		return -1
	}
	if index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}
