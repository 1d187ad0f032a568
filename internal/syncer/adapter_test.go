package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/internal/session"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

type fakePlayer struct {
	calls    []string
	lastURL  string
	lastSeek time.Duration
	position time.Duration
	loaded   bool
	failPlay bool
}

func (p *fakePlayer) Play(url string, start time.Duration) error {
	if p.failPlay {
		return errors.New("pipeline refused")
	}
	p.calls = append(p.calls, "play")
	p.lastURL = url
	p.position = start
	p.loaded = true
	return nil
}

func (p *fakePlayer) Pause() error  { p.calls = append(p.calls, "pause"); return nil }
func (p *fakePlayer) Resume() error { p.calls = append(p.calls, "resume"); return nil }
func (p *fakePlayer) Stop() error {
	p.calls = append(p.calls, "stop")
	p.loaded = false
	return nil
}

func (p *fakePlayer) Seek(offset time.Duration) error {
	p.calls = append(p.calls, "seek")
	p.lastSeek = offset
	p.position = offset
	return nil
}

func (p *fakePlayer) Position() (time.Duration, bool) {
	return p.position, p.loaded
}

type fakeCatalog struct {
	resolved []string
	fail     bool
}

func (c *fakeCatalog) Resolve(_ context.Context, track syncplay.Track) (string, error) {
	if c.fail {
		return "", errors.New("not in catalog")
	}
	c.resolved = append(c.resolved, track.ItemID)
	return "http://media/stream/" + track.ItemID, nil
}

type fakeCache struct {
	urls []string
}

func (c *fakeCache) Prefetch(_ context.Context, url string) {
	c.urls = append(c.urls, url)
}

func sailorSession(items ...string) session.Session {
	queue := make([]syncplay.QueueItem, 0, len(items))
	for _, id := range items {
		queue = append(queue, syncplay.QueueItem{
			PlaylistItemID: id,
			Track:          syncplay.Track{ItemID: "track-" + id},
		})
	}
	return session.Session{
		GroupID:      "g1",
		Role:         session.RoleSailor,
		Queue:        queue,
		CurrentIndex: 0,
	}
}

func ticksPtr(d time.Duration) *int64 {
	ticks := syncplay.DurationToTicks(d)
	return &ticks
}

func TestSailorPlayLoadsAndPrefetchesNext(t *testing.T) {
	player := &fakePlayer{}
	catalog := &fakeCatalog{}
	cache := &fakeCache{}
	adapter := NewAdapter(zap.NewNop(), player, catalog, Config{Cache: cache})

	adapter.applySession(sailorSession("a", "b", "c"))
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID:        "g1",
		Type:           syncplay.CommandPlay,
		PlaylistItemID: "b",
		PositionTicks:  ticksPtr(30 * time.Second),
	})

	if player.lastURL != "http://media/stream/track-b" {
		t.Fatalf("unexpected stream url %q", player.lastURL)
	}
	if player.position != 30*time.Second {
		t.Fatalf("expected start at 30s, got %v", player.position)
	}
	if len(cache.urls) != 1 || cache.urls[0] != "http://media/stream/track-c" {
		t.Fatalf("expected next track prefetched, got %v", cache.urls)
	}
}

func TestSailorSameTrackResumesWithinTolerance(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	adapter.applySession(sailorSession("a"))
	play := syncplay.Command{
		GroupID:        "g1",
		Type:           syncplay.CommandPlay,
		PlaylistItemID: "a",
		PositionTicks:  ticksPtr(10 * time.Second),
	}
	adapter.applyCommand(context.Background(), play)

	// Local clock is 400ms ahead of the group, inside the default 1s
	// tolerance: resume only, no corrective seek.
	player.position = 10*time.Second + 400*time.Millisecond
	adapter.applyCommand(context.Background(), play)

	if got := player.calls; len(got) != 2 || got[0] != "play" || got[1] != "resume" {
		t.Fatalf("unexpected calls %v", got)
	}
}

func TestSailorSameTrackSeeksPastTolerance(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	adapter.applySession(sailorSession("a"))
	play := syncplay.Command{
		GroupID:        "g1",
		Type:           syncplay.CommandPlay,
		PlaylistItemID: "a",
		PositionTicks:  ticksPtr(10 * time.Second),
	}
	adapter.applyCommand(context.Background(), play)

	player.position = 15 * time.Second
	adapter.applyCommand(context.Background(), play)

	if player.lastSeek != 10*time.Second {
		t.Fatalf("expected corrective seek to 10s, got %v", player.lastSeek)
	}
}

func TestSailorUnknownTargetIsNoOp(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	adapter.applySession(sailorSession("a"))
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID:        "g1",
		Type:           syncplay.CommandPlay,
		PlaylistItemID: "ghost",
	})

	if len(player.calls) != 0 {
		t.Fatalf("expected no player calls, got %v", player.calls)
	}
}

func TestSailorTrackIndexFallback(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	index := 2
	adapter.applySession(sailorSession("a", "b", "c"))
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID:    "g1",
		Type:       syncplay.CommandPlay,
		TrackIndex: &index,
	})

	if player.lastURL != "http://media/stream/track-c" {
		t.Fatalf("expected track index fallback, got %q", player.lastURL)
	}
}

func TestSailorPauseSeekStopAppliedDirectly(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	adapter.applySession(sailorSession("a"))
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandPlay, PlaylistItemID: "a",
	})

	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandPause, PositionTicks: ticksPtr(5 * time.Second),
	})
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandSeek, PositionTicks: ticksPtr(45 * time.Second),
	})
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandStop,
	})

	want := []string{"play", "pause", "seek", "seek", "stop"}
	if len(player.calls) != len(want) {
		t.Fatalf("unexpected calls %v", player.calls)
	}
	for i, call := range want {
		if player.calls[i] != call {
			t.Fatalf("call %d: got %q, want %q", i, player.calls[i], call)
		}
	}
	if player.lastSeek != 45*time.Second {
		t.Fatalf("expected final seek to 45s, got %v", player.lastSeek)
	}
}

func TestCaptainNeverDrivesPlayer(t *testing.T) {
	player := &fakePlayer{loaded: true, position: time.Minute}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	snapshot := sailorSession("a")
	snapshot.Role = session.RoleCaptain
	adapter.applySession(snapshot)

	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID:        "g1",
		Type:           syncplay.CommandPlay,
		PlaylistItemID: "a",
		PositionTicks:  ticksPtr(10 * time.Second),
	})
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandPause,
	})

	if len(player.calls) != 0 {
		t.Fatalf("captain must not drive the player, got %v", player.calls)
	}
}

func TestLoadFailureReportedSessionSurvives(t *testing.T) {
	player := &fakePlayer{failPlay: true}
	var reported error
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{
		OnError: func(err error) { reported = err },
	})

	adapter.applySession(sailorSession("a", "b"))
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandPlay, PlaylistItemID: "a",
	})

	if reported == nil {
		t.Fatalf("expected load failure to be reported")
	}

	// Adapter keeps working: the next command still reaches the player.
	player.failPlay = false
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandPlay, PlaylistItemID: "b",
	})
	if player.lastURL != "http://media/stream/track-b" {
		t.Fatalf("expected recovery after failure, got %q", player.lastURL)
	}
}

func TestSessionEndStopsPlayback(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	adapter.applySession(sailorSession("a"))
	adapter.applyCommand(context.Background(), syncplay.Command{
		GroupID: "g1", Type: syncplay.CommandPlay, PlaylistItemID: "a",
	})

	ended := sailorSession("a")
	ended.Ended = true
	adapter.applySession(ended)

	if last := player.calls[len(player.calls)-1]; last != "stop" {
		t.Fatalf("expected stop after session end, got %v", player.calls)
	}
}

func TestRunConsumesStreams(t *testing.T) {
	player := &fakePlayer{}
	adapter := NewAdapter(zap.NewNop(), player, &fakeCatalog{}, Config{})

	sessions := make(chan session.Session, 1)
	commands := make(chan syncplay.Command, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		adapter.Run(ctx, sessions, commands)
		close(done)
	}()

	sessions <- sailorSession("a")
	commands <- syncplay.Command{GroupID: "g1", Type: syncplay.CommandPlay, PlaylistItemID: "a"}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if adapter.loadedItem() == "a" {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if adapter.loadedItem() != "a" {
		t.Fatalf("play command never applied")
	}

	close(commands)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not exit on closed command stream")
	}
}

func (a *Adapter) loadedItem() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}
