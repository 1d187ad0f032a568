package channel

import (
	"testing"
	"time"
)

func TestMonitorClassification(t *testing.T) {
	monitor := NewMonitor(Thresholds{Good: 80 * time.Millisecond, Moderate: 250 * time.Millisecond})

	if q := monitor.Classify(); q != QualityModerate {
		t.Fatalf("expected moderate with no samples, got %q", q)
	}

	monitor.Record(20 * time.Millisecond)
	if q := monitor.Classify(); q != QualityGood {
		t.Fatalf("expected good, got %q", q)
	}

	monitor.Reset()
	monitor.Record(150 * time.Millisecond)
	if q := monitor.Classify(); q != QualityModerate {
		t.Fatalf("expected moderate, got %q", q)
	}

	monitor.Reset()
	monitor.Record(400 * time.Millisecond)
	if q := monitor.Classify(); q != QualityPoor {
		t.Fatalf("expected poor, got %q", q)
	}
}

func TestMonitorDropsDegradeQuality(t *testing.T) {
	monitor := NewMonitor(DefaultThresholds())
	monitor.Record(10 * time.Millisecond)

	monitor.Drop()
	if q := monitor.Classify(); q != QualityPoor {
		t.Fatalf("expected poor after a drop, got %q", q)
	}

	monitor.Drop()
	monitor.Drop()
	if q := monitor.Classify(); q != QualityDisconnected {
		t.Fatalf("expected disconnected after three drops, got %q", q)
	}

	// A fresh sample clears the drop streak.
	monitor.Record(10 * time.Millisecond)
	if q := monitor.Classify(); q != QualityGood {
		t.Fatalf("expected good after recovery, got %q", q)
	}
}

func TestMonitorRollingWindow(t *testing.T) {
	monitor := NewMonitor(DefaultThresholds())

	for i := 0; i < monitorWindow; i++ {
		monitor.Record(time.Second)
	}
	for i := 0; i < monitorWindow; i++ {
		monitor.Record(10 * time.Millisecond)
	}

	if avg := monitor.AverageRTT(); avg != 10*time.Millisecond {
		t.Fatalf("expected old samples evicted, avg %v", avg)
	}
}

func TestMonitorAverage(t *testing.T) {
	monitor := NewMonitor(DefaultThresholds())
	monitor.Record(10 * time.Millisecond)
	monitor.Record(30 * time.Millisecond)

	if avg := monitor.AverageRTT(); avg != 20*time.Millisecond {
		t.Fatalf("expected 20ms, got %v", avg)
	}
}

func TestSocketURL(t *testing.T) {
	u, err := SocketURL("https://media.example.com/jellyfin/", "tok", "dev")
	if err != nil {
		t.Fatalf("socket url: %v", err)
	}
	want := "wss://media.example.com/jellyfin/socket?api_key=tok&deviceId=dev"
	if u != want {
		t.Fatalf("got %q, want %q", u, want)
	}

	if _, err := SocketURL("ftp://x", "t", "d"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
