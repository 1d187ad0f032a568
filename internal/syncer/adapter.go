package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/session"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// Player executes local playback actions.
type Player interface {
	Play(url string, start time.Duration) error
	Pause() error
	Resume() error
	Seek(offset time.Duration) error
	Stop() error
	Position() (position time.Duration, ok bool)
}

// Catalog resolves a queue track to a playable stream URL.
type Catalog interface {
	Resolve(ctx context.Context, track syncplay.Track) (string, error)
}

// TrackCache optionally warms upcoming tracks. It is advisory only; the
// adapter never treats the cache as a source of truth.
type TrackCache interface {
	Prefetch(ctx context.Context, url string)
}

// DefaultTolerance is the drift past which a same-track command triggers a
// corrective seek.
const DefaultTolerance = time.Second

// Config tunes the adapter.
type Config struct {
	Tolerance time.Duration
	Cache     TrackCache
	OnError   func(error)
}

// Adapter bridges group commands to the local player. Behaviour depends on
// the device's role: the Captain's player is driven locally and inbound
// commands only get verified, while a Sailor mirrors every command.
type Adapter struct {
	log       *zap.Logger
	player    Player
	catalog   Catalog
	cache     TrackCache
	tolerance time.Duration
	onError   func(error)

	mu      sync.Mutex
	current session.Session
	loaded  string
}

// NewAdapter creates a sync adapter.
func NewAdapter(log *zap.Logger, player Player, catalog Catalog, cfg Config) *Adapter {
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Adapter{
		log:       log,
		player:    player,
		catalog:   catalog,
		cache:     cfg.Cache,
		tolerance: tolerance,
		onError:   cfg.OnError,
	}
}

// Run consumes session snapshots and commands until ctx is cancelled or the
// command stream closes.
func (a *Adapter) Run(
	ctx context.Context,
	sessions <-chan session.Session,
	commands <-chan syncplay.Command,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-sessions:
			if !ok {
				sessions = nil
				continue
			}
			a.applySession(snapshot)
		case cmd, ok := <-commands:
			if !ok {
				return
			}
			a.applyCommand(ctx, cmd)
		}
	}
}

func (a *Adapter) applySession(snapshot session.Session) {
	a.mu.Lock()
	a.current = snapshot
	loaded := a.loaded
	ended := snapshot.Ended || !snapshot.Active()
	if ended {
		a.loaded = ""
	}
	a.mu.Unlock()

	if ended && loaded != "" {
		if err := a.player.Stop(); err != nil {
			a.report(fmt.Errorf("stop after session end: %w", err))
		}
	}
}

func (a *Adapter) applyCommand(ctx context.Context, cmd syncplay.Command) {
	a.mu.Lock()
	snapshot := a.current
	a.mu.Unlock()

	if snapshot.Role == session.RoleCaptain {
		a.verifyCaptain(cmd)
		return
	}

	switch cmd.Type {
	case syncplay.CommandPlay:
		a.applyPlay(ctx, snapshot, cmd)
	case syncplay.CommandPause:
		if err := a.player.Pause(); err != nil {
			a.report(fmt.Errorf("pause: %w", err))
			return
		}
		a.alignPosition(cmd)
	case syncplay.CommandSeek:
		if cmd.PositionTicks == nil {
			a.log.Warn("seek command without position")
			return
		}
		if err := a.player.Seek(syncplay.TicksToDuration(*cmd.PositionTicks)); err != nil {
			a.report(fmt.Errorf("seek: %w", err))
		}
	case syncplay.CommandStop:
		a.mu.Lock()
		a.loaded = ""
		a.mu.Unlock()
		if err := a.player.Stop(); err != nil {
			a.report(fmt.Errorf("stop: %w", err))
		}
	}
}

// verifyCaptain checks the echoed command against local playback instead of
// assuming the local action and the broadcast stayed in lockstep. Divergence
// is surfaced as a warning; the player is never driven from here.
func (a *Adapter) verifyCaptain(cmd syncplay.Command) {
	if cmd.PositionTicks == nil {
		a.log.Debug("ignoring command while captain", zap.String("type", string(cmd.Type)))
		return
	}

	want := syncplay.TicksToDuration(*cmd.PositionTicks)
	got, ok := a.player.Position()
	if !ok {
		a.log.Debug("ignoring command while captain, nothing playing",
			zap.String("type", string(cmd.Type)))
		return
	}
	if drift := absDuration(got - want); drift > a.tolerance {
		a.log.Warn("local playback diverges from group command",
			zap.String("type", string(cmd.Type)),
			zap.Duration("local", got),
			zap.Duration("group", want),
			zap.Duration("drift", drift),
		)
	}
}

func (a *Adapter) applyPlay(ctx context.Context, snapshot session.Session, cmd syncplay.Command) {
	item, ok := resolveTarget(snapshot, cmd)
	if !ok {
		a.log.Warn("play target not in queue",
			zap.String("playlist_item_id", cmd.PlaylistItemID),
			zap.String("group_id", cmd.GroupID),
		)
		return
	}

	start := time.Duration(0)
	if cmd.PositionTicks != nil {
		start = syncplay.TicksToDuration(*cmd.PositionTicks)
	}

	a.mu.Lock()
	sameTrack := a.loaded == item.PlaylistItemID
	a.mu.Unlock()

	if sameTrack {
		if err := a.player.Resume(); err != nil {
			a.report(fmt.Errorf("resume: %w", err))
			return
		}
		a.alignPosition(cmd)
		return
	}

	url, err := a.resolveURL(ctx, item.Track)
	if err != nil {
		a.report(fmt.Errorf("resolve %s: %w", item.Track.ItemID, err))
		return
	}
	if err := a.player.Play(url, start); err != nil {
		a.report(fmt.Errorf("play %s: %w", item.Track.ItemID, err))
		return
	}

	a.mu.Lock()
	a.loaded = item.PlaylistItemID
	a.mu.Unlock()

	a.prefetchNext(ctx, snapshot, item.PlaylistItemID)
}

// alignPosition issues a corrective seek when the local position has
// drifted past the tolerance from the commanded one.
func (a *Adapter) alignPosition(cmd syncplay.Command) {
	if cmd.PositionTicks == nil {
		return
	}
	want := syncplay.TicksToDuration(*cmd.PositionTicks)
	got, ok := a.player.Position()
	if ok && absDuration(got-want) <= a.tolerance {
		return
	}
	if err := a.player.Seek(want); err != nil {
		a.report(fmt.Errorf("corrective seek: %w", err))
	}
}

func (a *Adapter) resolveURL(ctx context.Context, track syncplay.Track) (string, error) {
	if track.StreamURL != "" {
		return track.StreamURL, nil
	}
	if a.catalog == nil {
		return "", errors.New("no stream url and no catalog configured")
	}
	return a.catalog.Resolve(ctx, track)
}

func (a *Adapter) prefetchNext(ctx context.Context, snapshot session.Session, playlistItemID string) {
	if a.cache == nil {
		return
	}
	idx := snapshot.IndexOf(playlistItemID)
	if idx < 0 || idx+1 >= len(snapshot.Queue) {
		return
	}
	next := snapshot.Queue[idx+1]
	url, err := a.resolveURL(ctx, next.Track)
	if err != nil {
		a.log.Debug("prefetch resolve failed",
			zap.String("item_id", next.Track.ItemID), zap.Error(err))
		return
	}
	a.cache.Prefetch(ctx, url)
}

func (a *Adapter) report(err error) {
	a.log.Error("playback sync failed", zap.Error(err))
	if a.onError != nil {
		a.onError(err)
	}
}

// resolveTarget finds the queue item a play command addresses: playlist item
// id first, track index as fallback.
func resolveTarget(snapshot session.Session, cmd syncplay.Command) (syncplay.QueueItem, bool) {
	if cmd.PlaylistItemID != "" {
		if idx := snapshot.IndexOf(cmd.PlaylistItemID); idx >= 0 {
			return snapshot.Queue[idx], true
		}
		return syncplay.QueueItem{}, false
	}
	if cmd.TrackIndex != nil && *cmd.TrackIndex >= 0 && *cmd.TrackIndex < len(snapshot.Queue) {
		return snapshot.Queue[*cmd.TrackIndex], true
	}
	return snapshot.CurrentItem()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
