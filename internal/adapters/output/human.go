package output

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mikey-austin/shipmate/internal/session"
	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// HumanPrinter prints human-readable output.
type HumanPrinter struct{}

// Print renders human output.
func (HumanPrinter) Print(v any) error {
	switch data := v.(type) {
	case GroupsResult:
		return printGroups(data)
	case SessionResult:
		return printSession(data)
	case QueueResult:
		return printQueue(data)
	case RawResult:
		_, err := fmt.Fprintln(os.Stdout, data.Data)
		return err
	default:
		_, err := fmt.Fprintln(os.Stdout, "ok")
		return err
	}
}

func printGroups(result GroupsResult) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "NAME\tGROUP_ID\tPARTICIPANTS"); err != nil {
		return err
	}
	for _, group := range result.Groups {
		names := make([]string, 0, len(group.Participants))
		for _, p := range group.Participants {
			name := p.DisplayName
			if name == "" {
				name = p.UserID
			}
			if p.IsCaptain {
				name += "*"
			}
			names = append(names, name)
		}
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", group.GroupName, group.GroupID, strings.Join(names, ", "))
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printSession(result SessionResult) error {
	s := result.Session
	if !s.Active() {
		_, err := fmt.Fprintln(os.Stdout, "no active session")
		return err
	}

	state := "playing"
	if s.IsBuffering {
		state = "buffering"
	} else if s.IsPaused {
		state = "paused"
	}

	item := ""
	if current, ok := s.CurrentItem(); ok {
		item = FormatTrack(current.Track)
	}

	line := strings.TrimSpace(fmt.Sprintf("%s  [%s]  %s  %s  link %s",
		s.GroupName, state, item, FormatPosition(s.Position), s.Quality))
	if _, err := fmt.Fprintln(os.Stdout, line); err != nil {
		return err
	}
	_, err := fmt.Fprintf(os.Stdout, "role %s, %d participants, %d queued\n",
		s.Role, len(s.Participants), len(s.Queue))
	return err
}

func printQueue(result QueueResult) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "\tINDEX\tTITLE\tARTIST\tALBUM\tLEN"); err != nil {
		return err
	}
	for i, item := range result.Queue {
		marker := ""
		if i == result.CurrentIndex {
			marker = ">"
		}
		length := ""
		if item.Track.RunTimeTicks > 0 {
			length = FormatPosition(syncplay.TicksToDuration(item.Track.RunTimeTicks))
		}
		_, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			marker, i, item.Track.Name, item.Track.Artist, item.Track.Album, length)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

// FormatTrack renders "Artist - Title" with whatever metadata exists.
func FormatTrack(track syncplay.Track) string {
	switch {
	case track.Artist != "" && track.Name != "":
		return track.Artist + " - " + track.Name
	case track.Name != "":
		return track.Name
	default:
		return track.ItemID
	}
}

// FormatPosition renders a playback offset as m:ss or h:mm:ss.
func FormatPosition(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// StatusLine renders the one-line live view used by status --watch and
// follow.
func StatusLine(s session.Session) string {
	if s.Ended {
		return "session ended"
	}
	if !s.Active() {
		return "not in a group"
	}

	state := "playing"
	if s.IsBuffering {
		state = "buffering"
	} else if s.IsPaused {
		state = "paused"
	}
	if s.Reconnect.Reconnecting() {
		state = fmt.Sprintf("reconnecting %d/%d", s.Reconnect.Attempt, s.Reconnect.MaxAttempts)
	}

	item := ""
	if current, ok := s.CurrentItem(); ok {
		item = FormatTrack(current.Track)
	}
	return strings.TrimSpace(fmt.Sprintf("%s  [%s]  %s  %s  link %s",
		s.GroupName, state, item, FormatPosition(s.Position), s.Quality))
}
