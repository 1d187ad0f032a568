//go:build gstreamer

package player

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-gst/go-gst/gst"
)

// Driver implements a GStreamer-backed playback driver using Go bindings.
// Playback always hard-cuts between tracks; crossfading would defeat
// position synchronisation across devices.
type Driver struct {
	mu       sync.Mutex
	pipeline string
	device   string
	volume   float64
	muted    bool
	current  *gst.Element
}

var gstInitOnce sync.Once

// NewDriver creates a GStreamer driver using a pipeline template. The
// template may reference {url}, {device}, {start_ms} and {volume}.
func NewDriver(pipeline string, device string) (*Driver, error) {
	if strings.TrimSpace(pipeline) == "" {
		return nil, errors.New("pipeline template required")
	}
	gstInitOnce.Do(func() {
		gst.Init(nil)
	})

	return &Driver{pipeline: pipeline, device: device, volume: 1.0}, nil
}

// Play starts playback for the URL at the given offset.
func (d *Driver) Play(url string, positionMS int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	pipeline, err := d.buildPipeline(url, positionMS)
	if err != nil {
		return err
	}
	if d.current != nil {
		_ = d.current.SetState(gst.StateNull)
	}
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return err
	}
	d.current = pipeline
	return nil
}

// Pause pauses playback.
func (d *Driver) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return errors.New("not playing")
	}
	return d.current.SetState(gst.StatePaused)
}

// Resume resumes playback.
func (d *Driver) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return errors.New("not playing")
	}
	return d.current.SetState(gst.StatePlaying)
}

// Stop stops playback and tears down the pipeline.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return nil
	}
	_ = d.current.SetState(gst.StateNull)
	d.current = nil
	return nil
}

// Seek seeks within the current pipeline.
func (d *Driver) Seek(positionMS int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return errors.New("not playing")
	}
	positionNS := positionMS * 1_000_000
	return d.current.SeekSimple(gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit, positionNS)
}

// SetVolume sets volume (0..1).
func (d *Driver) SetVolume(volume float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volume = volume
	if d.current != nil {
		_ = d.current.SetProperty("volume", d.currentVolumeLocked())
	}
	return nil
}

// SetMute sets mute state.
func (d *Driver) SetMute(mute bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.muted = mute
	if d.current != nil {
		_ = d.current.SetProperty("volume", d.currentVolumeLocked())
	}
	return nil
}

func (d *Driver) buildPipeline(url string, positionMS int64) (*gst.Element, error) {
	pipeline := d.pipeline
	pipeline = strings.ReplaceAll(pipeline, "{url}", url)
	pipeline = strings.ReplaceAll(pipeline, "{device}", d.device)
	pipeline = strings.ReplaceAll(pipeline, "{start_ms}", fmt.Sprintf("%d", positionMS))
	pipeline = strings.ReplaceAll(pipeline, "{volume}", fmt.Sprintf("%0.2f", d.currentVolumeLocked()))

	el, err := gst.ParseLaunch(pipeline)
	if err != nil {
		return nil, err
	}
	return el, nil
}

func (d *Driver) currentVolumeLocked() float64 {
	if d.muted {
		return 0
	}
	return d.volume
}
