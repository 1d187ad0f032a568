package output

import (
	"github.com/mikey-austin/shipmate/internal/session"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// Printer renders output to stdout.
type Printer interface {
	Print(v any) error
}

// GroupsResult carries the group listing.
type GroupsResult struct {
	Groups []syncplay.GroupInfo `json:"groups"`
}

// SessionResult carries one session snapshot.
type SessionResult struct {
	Session session.Session `json:"session"`
}

// QueueResult carries the shared play queue.
type QueueResult struct {
	Queue        []syncplay.QueueItem `json:"queue"`
	CurrentIndex int                  `json:"currentIndex"`
}

// RawResult wraps an arbitrary payload.
type RawResult struct {
	Data any `json:"data"`
}
