package player

import (
	"sync"
	"time"
)

// PipelineDriver is the millisecond-level surface of the GStreamer driver.
type PipelineDriver interface {
	Play(url string, positionMS int64) error
	Pause() error
	Resume() error
	Stop() error
	Seek(positionMS int64) error
}

// Local wraps a pipeline driver with wall-clock position tracking so the
// rest of the client can reason in durations. GStreamer position queries
// are racy during state transitions; the wall clock plus the last known
// offset is stable enough for drift checks.
type Local struct {
	driver PipelineDriver
	now    func() time.Time

	mu      sync.Mutex
	playing bool
	loaded  bool
	offset  time.Duration
	basis   time.Time
}

// NewLocal wraps a driver. now defaults to time.Now.
func NewLocal(driver PipelineDriver, now func() time.Time) *Local {
	if now == nil {
		now = time.Now
	}
	return &Local{driver: driver, now: now}
}

// Play loads the URL and starts playback at the given offset.
func (l *Local) Play(url string, start time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.Play(url, start.Milliseconds()); err != nil {
		return err
	}
	l.loaded = true
	l.playing = true
	l.offset = start
	l.basis = l.now()
	return nil
}

// Pause freezes playback, keeping the current position.
func (l *Local) Pause() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.Pause(); err != nil {
		return err
	}
	l.offset = l.positionLocked()
	l.playing = false
	return nil
}

// Resume continues playback from the frozen position.
func (l *Local) Resume() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.Resume(); err != nil {
		return err
	}
	l.playing = true
	l.basis = l.now()
	return nil
}

// Seek jumps to the given offset without changing the play/pause state.
func (l *Local) Seek(offset time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.Seek(offset.Milliseconds()); err != nil {
		return err
	}
	l.offset = offset
	l.basis = l.now()
	return nil
}

// Stop tears down the pipeline.
func (l *Local) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.driver.Stop(); err != nil {
		return err
	}
	l.loaded = false
	l.playing = false
	l.offset = 0
	return nil
}

// Position returns the current playback offset. ok is false when nothing
// is loaded.
func (l *Local) Position() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.loaded {
		return 0, false
	}
	return l.positionLocked(), true
}

func (l *Local) positionLocked() time.Duration {
	if !l.playing {
		return l.offset
	}
	return l.offset + l.now().Sub(l.basis)
}
