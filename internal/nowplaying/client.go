package nowplaying

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Path is the now-playing endpoint, relative to the configured base URL.
const Path = "/api/now-playing"

// Status is the JSON document served by the now-playing source.
type Status struct {
	IsPlaying bool   `json:"isPlaying"`
	Platform  string `json:"platform,omitempty"`
	Progress  int64  `json:"progress"`
	Track     *Track `json:"track,omitempty"`
}

// Track describes the current song. Durations are milliseconds.
type Track struct {
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	AlbumArt    string   `json:"albumArt,omitempty"`
	Duration    int64    `json:"duration"`
	ExternalURL string   `json:"externalUrl,omitempty"`
}

// NotPlaying is served whenever no usable status is available.
var NotPlaying = Status{}

// Playing reports whether the status should render as an active track.
func (s Status) Playing() bool {
	return s.IsPlaying && s.Track != nil
}

// Clone returns a deep copy of s.
func (s Status) Clone() Status {
	cp := s
	if s.Track != nil {
		t := *s.Track
		if len(s.Track.Artists) > 0 {
			t.Artists = make([]string, len(s.Track.Artists))
			copy(t.Artists, s.Track.Artists)
		}
		cp.Track = &t
	}
	return cp
}

// ErrNoSource indicates the client has no base URL and only serves the fallback.
var ErrNoSource = errors.New("nowplaying: no source configured")

// Fetcher retrieves the current status.
type Fetcher interface {
	Fetch(ctx context.Context) (Status, error)
}

// Client fetches now-playing status from {baseURL}/api/now-playing.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client with the provided base URL. When baseURL is empty,
// the client will exclusively serve the not-playing fallback.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch returns the remote status. Any failure yields NotPlaying together with the error.
func (c *Client) Fetch(ctx context.Context) (Status, error) {
	if c == nil || c.baseURL == "" {
		return NotPlaying, ErrNoSource
	}
	status, err := c.fetchRemote(ctx)
	if err != nil {
		return NotPlaying, err
	}
	return status, nil
}

func (c *Client) fetchRemote(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+Path, nil)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Status{}, fmt.Errorf("nowplaying: remote status %d", resp.StatusCode)
	}

	var payload Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return Status{}, fmt.Errorf("nowplaying: decode: %w", err)
	}
	return normalize(payload), nil
}

func normalize(s Status) Status {
	s.Platform = strings.TrimSpace(s.Platform)
	if s.Progress < 0 {
		s.Progress = 0
	}
	if s.Track != nil {
		s.Track.Name = strings.TrimSpace(s.Track.Name)
		s.Track.Album = strings.TrimSpace(s.Track.Album)
		s.Track.AlbumArt = strings.TrimSpace(s.Track.AlbumArt)
		s.Track.ExternalURL = strings.TrimSpace(s.Track.ExternalURL)
		if s.Track.Duration < 0 {
			s.Track.Duration = 0
		}
	}
	return s
}
