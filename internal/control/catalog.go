package control

import (
	"context"
	"net/url"
	"path"

	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// StreamCatalog resolves catalog items to direct stream URLs on the media
// server. Tracks that already carry a StreamUrl never reach it.
type StreamCatalog struct {
	creds Credentials
}

// NewStreamCatalog creates a catalog bound to the server credentials.
func NewStreamCatalog(creds Credentials) *StreamCatalog {
	return &StreamCatalog{creds: creds}
}

// Resolve builds the static stream URL for a track.
func (c *StreamCatalog) Resolve(_ context.Context, track syncplay.Track) (string, error) {
	u, err := url.Parse(c.creds.ServerURL)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(u.Path, "/Audio/", track.ItemID, "/stream")
	q := u.Query()
	q.Set("static", "true")
	q.Set("api_key", c.creds.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
