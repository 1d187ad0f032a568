package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/shipmate/pkg/syncplay"
)

// Credentials identify this device to the server. Supplied by the
// surrounding app's auth layer.
type Credentials struct {
	ServerURL string
	Token     string
	DeviceID  string
	UserID    string
}

// RequestError is a non-2xx Control API response. Callers decide whether to
// retry or surface it; the client never retries on its own past the HTTP
// transport's budget.
type RequestError struct {
	Op     string
	Status int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: server returned status %d", e.Op, e.Status)
}

// Client issues idempotent group/queue/transport mutations against the
// server's HTTP interface. Results are confirmed asynchronously over the
// Command Channel; the client never touches Session state.
type Client struct {
	log   *zap.Logger
	http  *http.Client
	creds Credentials
}

// NewClient creates a Control API client.
func NewClient(log *zap.Logger, creds Credentials, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(creds.ServerURL) == "" {
		return nil, errors.New("server url required")
	}
	if strings.TrimSpace(creds.Token) == "" {
		return nil, errors.New("token required")
	}
	if strings.TrimSpace(creds.DeviceID) == "" {
		return nil, errors.New("device id required")
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	creds.ServerURL = strings.TrimRight(creds.ServerURL, "/")

	return &Client{
		log:   log,
		http:  &http.Client{Timeout: timeout},
		creds: creds,
	}, nil
}

// NewGroup creates a group. The server makes this device Captain.
func (c *Client) NewGroup(ctx context.Context, name string) error {
	return c.post(ctx, "syncplay.new", "/SyncPlay/New", syncplay.NewGroupRequest{GroupName: name})
}

// ListGroups returns the groups this user may join.
func (c *Client) ListGroups(ctx context.Context) ([]syncplay.GroupInfo, error) {
	var groups []syncplay.GroupInfo
	if err := c.do(ctx, "syncplay.list", http.MethodGet, "/SyncPlay/List", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// JoinGroup joins an existing group.
func (c *Client) JoinGroup(ctx context.Context, groupID string) error {
	return c.post(ctx, "syncplay.join", "/SyncPlay/Join", syncplay.JoinGroupRequest{GroupID: groupID})
}

// LeaveGroup leaves the active group.
func (c *Client) LeaveGroup(ctx context.Context) error {
	return c.post(ctx, "syncplay.leave", "/SyncPlay/Leave", nil)
}

// Queue appends items in one of the append/play-next/replace-current modes.
func (c *Client) Queue(ctx context.Context, itemIDs []string, mode string) error {
	return c.post(ctx, "syncplay.queue", "/SyncPlay/Queue", syncplay.QueueRequest{ItemIDs: itemIDs, Mode: mode})
}

// RemoveFromPlayQueueOptions qualify a removal.
type RemoveFromPlayQueueOptions struct {
	ClearPlayQueue   bool
	ClearPlayingItem bool
}

// RemoveFromPlayQueue removes queue slots by playlist item id.
func (c *Client) RemoveFromPlayQueue(ctx context.Context, playlistItemIDs []string, opts RemoveFromPlayQueueOptions) error {
	return c.post(ctx, "syncplay.remove", "/SyncPlay/RemoveFromPlaylist", syncplay.RemoveFromPlayQueueRequest{
		PlaylistItemIDs:  playlistItemIDs,
		ClearPlayQueue:   opts.ClearPlayQueue,
		ClearPlayingItem: opts.ClearPlayingItem,
	})
}

// MovePlaylistItem moves a queue slot to a new index.
func (c *Client) MovePlaylistItem(ctx context.Context, playlistItemID string, newIndex int) error {
	return c.post(ctx, "syncplay.move", "/SyncPlay/MovePlaylistItem", syncplay.MovePlaylistItemRequest{
		PlaylistItemID: playlistItemID,
		NewIndex:       newIndex,
	})
}

// SetNewQueue replaces the entire queue with a new item list.
func (c *Client) SetNewQueue(ctx context.Context, itemIDs []string, startIndex int, startPositionTicks int64) error {
	return c.post(ctx, "syncplay.setqueue", "/SyncPlay/SetNewQueue", syncplay.SetNewQueueRequest{
		ItemIDs:            itemIDs,
		StartIndex:         startIndex,
		StartPositionTicks: startPositionTicks,
	})
}

// Pause asks the server to pause group playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.post(ctx, "syncplay.pause", "/SyncPlay/Pause", nil)
}

// Unpause asks the server to resume group playback.
func (c *Client) Unpause(ctx context.Context) error {
	return c.post(ctx, "syncplay.unpause", "/SyncPlay/Unpause", nil)
}

// Stop asks the server to stop group playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, "syncplay.stop", "/SyncPlay/Stop", nil)
}

// Seek asks the server to seek within the current item.
func (c *Client) Seek(ctx context.Context, positionTicks int64) error {
	return c.post(ctx, "syncplay.seek", "/SyncPlay/Seek", syncplay.SeekRequest{PositionTicks: positionTicks})
}

// NextItem advances the queue. playlistItemID may pin the request to the
// slot the caller believes is current, to disambiguate races.
func (c *Client) NextItem(ctx context.Context, playlistItemID string) error {
	return c.post(ctx, "syncplay.next", "/SyncPlay/NextItem", syncplay.ItemPinRequest{PlaylistItemID: playlistItemID})
}

// PreviousItem steps the queue back, optionally pinned like NextItem.
func (c *Client) PreviousItem(ctx context.Context, playlistItemID string) error {
	return c.post(ctx, "syncplay.previous", "/SyncPlay/PreviousItem", syncplay.ItemPinRequest{PlaylistItemID: playlistItemID})
}

// Ready reports that this device is ready to play.
func (c *Client) Ready(ctx context.Context, report syncplay.PlaybackReport) error {
	return c.post(ctx, "syncplay.ready", "/SyncPlay/Ready", report)
}

// NotReady reports that this device is no longer ready.
func (c *Client) NotReady(ctx context.Context, report syncplay.PlaybackReport) error {
	return c.post(ctx, "syncplay.notready", "/SyncPlay/NotReady", report)
}

// Buffering reports that this device is stalled loading media.
func (c *Client) Buffering(ctx context.Context, report syncplay.PlaybackReport) error {
	return c.post(ctx, "syncplay.buffering", "/SyncPlay/Buffering", report)
}

// Ping reports the measured round-trip time in milliseconds. This is the
// HTTP fallback next to the Command Channel's ping/pong.
func (c *Client) Ping(ctx context.Context, rttMillis int64) error {
	return c.post(ctx, "syncplay.ping", "/SyncPlay/Ping", syncplay.PingRequest{Ping: rttMillis})
}

// SetShuffleMode toggles shuffle for the group.
func (c *Client) SetShuffleMode(ctx context.Context, mode string) error {
	return c.post(ctx, "syncplay.shuffle", "/SyncPlay/SetShuffleMode", syncplay.SetShuffleModeRequest{Mode: mode})
}

// SetRepeatMode sets the repeat mode for the group.
func (c *Client) SetRepeatMode(ctx context.Context, mode string) error {
	return c.post(ctx, "syncplay.repeat", "/SyncPlay/SetRepeatMode", syncplay.SetRepeatModeRequest{Mode: mode})
}

func (c *Client) post(ctx context.Context, op string, endpoint string, body any) error {
	return c.do(ctx, op, http.MethodPost, endpoint, body, nil)
}

func (c *Client) do(ctx context.Context, op string, method string, endpoint string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal body: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.ServerURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Token", c.creds.Token)
	req.Header.Set("X-Emby-Authorization", c.authorizationHeader())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		c.log.Warn("control call failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return &RequestError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) authorizationHeader() string {
	return fmt.Sprintf(`MediaBrowser Client="Shipmate", DeviceId="%s", Version="1.0"`, c.creds.DeviceID)
}
