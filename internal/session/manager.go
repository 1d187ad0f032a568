package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/channel"
	"github.com/mikey-austin/shipmate/internal/pubsub"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// Manager owns the one mutable Session. Its Run loop is the single writer:
// it applies server-sourced messages in delivery order and publishes an
// immutable snapshot after every mutation. Broadcast payloads replace the
// affected state wholesale; the client never diffs partial updates.
type Manager struct {
	log    *zap.Logger
	userID string

	mu    sync.RWMutex
	state Session

	// Observable streams, one per state category.
	Sessions     *pubsub.Feed[Session]
	Participants *pubsub.Feed[[]syncplay.Participant]
	Commands     *pubsub.Feed[syncplay.Command]
}

// NewManager creates a session manager for the given local user.
func NewManager(log *zap.Logger, userID string) *Manager {
	return &Manager{
		log:          log,
		userID:       userID,
		state:        Session{CurrentIndex: -1},
		Sessions:     pubsub.NewFeed[Session](8),
		Participants: pubsub.NewFeed[[]syncplay.Participant](8),
		Commands:     pubsub.NewFeed[syncplay.Command](16),
	}
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.snapshot()
}

// Run applies messages and connection health updates until ctx is cancelled
// or all inputs are closed. It must be the only caller of apply.
func (m *Manager) Run(
	ctx context.Context,
	messages <-chan syncplay.Message,
	quality <-chan channel.Quality,
	reconnects <-chan channel.ReconnectState,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			m.apply(msg)
		case q, ok := <-quality:
			if !ok {
				quality = nil
				continue
			}
			m.mutate(func(s *Session) { s.Quality = q })
		case rs, ok := <-reconnects:
			if !ok {
				reconnects = nil
				continue
			}
			m.mutate(func(s *Session) {
				s.Reconnect = rs
				if rs.Terminal {
					s.Ended = true
				}
			})
		}
	}
}

// apply dispatches one decoded server message.
func (m *Manager) apply(msg syncplay.Message) {
	switch v := msg.(type) {
	case syncplay.Command:
		m.applyCommand(v)
	case syncplay.GroupUpdate:
		m.applyUpdate(v)
	default:
		m.log.Debug("ignoring message", zap.Any("message", msg))
	}
}

func (m *Manager) applyCommand(cmd syncplay.Command) {
	if m.stale(cmd.GroupID) {
		return
	}

	m.mutate(func(s *Session) {
		switch cmd.Type {
		case syncplay.CommandPlay:
			s.IsPaused = false
			if cmd.PlaylistItemID != "" {
				if idx := s.IndexOf(cmd.PlaylistItemID); idx >= 0 {
					s.CurrentIndex = idx
				}
			} else if cmd.TrackIndex != nil {
				s.CurrentIndex = clampIndex(*cmd.TrackIndex, len(s.Queue))
			}
			if cmd.PositionTicks != nil {
				s.Position = syncplay.TicksToDuration(*cmd.PositionTicks)
			}
		case syncplay.CommandPause, syncplay.CommandStop:
			s.IsPaused = true
			if cmd.PositionTicks != nil {
				s.Position = syncplay.TicksToDuration(*cmd.PositionTicks)
			}
		case syncplay.CommandSeek:
			if cmd.PositionTicks != nil {
				s.Position = syncplay.TicksToDuration(*cmd.PositionTicks)
			}
		}
	})

	m.Commands.Publish(cmd)
}

func (m *Manager) applyUpdate(update syncplay.GroupUpdate) {
	switch update.Type {
	case syncplay.UpdateGroupJoined:
		m.mutate(func(s *Session) {
			group := update.Group
			*s = Session{
				GroupID:      group.GroupID,
				GroupName:    group.GroupName,
				Participants: group.Participants,
				CurrentIndex: -1,
				IsPaused:     true,
				Quality:      s.Quality,
				Reconnect:    s.Reconnect,
			}
			s.Role = m.roleFor(s.Participants)
		})
		m.publishParticipants()
		return
	case syncplay.UpdateGroupDoesNotExist:
		// The group vanished while we were away. Surface "session ended"
		// instead of silently recreating it.
		m.mutate(func(s *Session) { s.Ended = true })
		return
	}

	if m.stale(update.GroupID) {
		return
	}

	switch update.Type {
	case syncplay.UpdateGroupLeft:
		m.mutate(func(s *Session) {
			*s = Session{CurrentIndex: -1, Quality: s.Quality, Reconnect: s.Reconnect}
		})
		m.publishParticipants()
	case syncplay.UpdateParticipantsChanged:
		m.mutate(func(s *Session) {
			s.Participants = update.Participants
			s.Role = m.roleFor(s.Participants)
		})
		m.publishParticipants()
	case syncplay.UpdatePlayQueueChanged:
		queue := update.Queue
		m.mutate(func(s *Session) {
			s.Queue = queue.Items
			s.CurrentIndex = clampIndex(queue.PlayingItemIndex, len(queue.Items))
			s.IsPaused = queue.IsPaused
			s.Position = syncplay.TicksToDuration(queue.PositionTicks)
		})
	case syncplay.UpdateStateChanged:
		state := update.State
		m.mutate(func(s *Session) {
			s.IsPaused = state.IsPaused
			s.IsBuffering = state.IsBuffering
			if !s.IsPaused || state.PositionTicks > 0 {
				s.Position = syncplay.TicksToDuration(state.PositionTicks)
			}
			if state.PlaylistItemID != "" {
				if idx := s.IndexOf(state.PlaylistItemID); idx >= 0 {
					s.CurrentIndex = idx
				}
			}
		})
	}
}

// stale guards against a previous group's stream leaking into a newly
// joined group's state.
func (m *Manager) stale(groupID string) bool {
	m.mu.RLock()
	current := m.state.GroupID
	m.mu.RUnlock()

	if groupID == "" || current == "" || groupID == current {
		return false
	}
	m.log.Warn("dropping update for stale group",
		zap.String("group_id", groupID),
		zap.String("current_group_id", current),
	)
	return true
}

func (m *Manager) roleFor(participants []syncplay.Participant) Role {
	for _, p := range participants {
		if p.UserID == m.userID && p.IsCaptain {
			return RoleCaptain
		}
	}
	return RoleSailor
}

// mutate applies fn under the write lock and publishes a snapshot.
func (m *Manager) mutate(fn func(*Session)) {
	m.mu.Lock()
	fn(&m.state)
	snapshot := m.state.snapshot()
	m.mu.Unlock()

	m.Sessions.Publish(snapshot)
}

func (m *Manager) publishParticipants() {
	m.mu.RLock()
	participants := append([]syncplay.Participant(nil), m.state.Participants...)
	m.mu.RUnlock()
	m.Participants.Publish(participants)
}
