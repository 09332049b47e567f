package nowplaying

import (
	"strings"

	"github.com/orangeuaswe/portfolio-web/internal/format"
)

// State selects which widget variant renders.
type State string

const (
	StateLoading State = "loading"
	StateIdle    State = "idle"
	StatePlaying State = "playing"
)

const (
	// UnknownArtist is shown when a track carries no artists.
	UnknownArtist = "Unknown Artist"
	// PlaceholderArt is used when a track has no album art.
	PlaceholderArt = "/assets/img/album-placeholder.svg"

	gradientSpotify = "from-green-500 to-green-600"
	gradientDefault = "from-purple-500 to-purple-600"
)

// View is the widget view model consumed by the now_playing template.
type View struct {
	State    State
	Platform string
	Gradient string

	TrackName   string
	Artists     string
	Album       string
	AlbumArt    string
	ExternalURL string

	ShowDuration bool
	Elapsed      string
	Total        string
	Percent      float64
	Width        string

	// Refresh is the htmx polling delay, e.g. "30s". Set by the caller.
	Refresh string
}

// NewView derives the widget view model. loaded=false renders the loading skeleton.
func NewView(s Status, loaded bool) View {
	if !loaded {
		return View{State: StateLoading}
	}
	if !s.Playing() {
		return View{State: StateIdle}
	}

	t := s.Track
	v := View{
		State:       StatePlaying,
		Platform:    s.Platform,
		Gradient:    Gradient(s.Platform),
		TrackName:   t.Name,
		Artists:     format.JoinOr(t.Artists, ", ", UnknownArtist),
		Album:       t.Album,
		AlbumArt:    t.AlbumArt,
		ExternalURL: t.ExternalURL,
	}
	if v.AlbumArt == "" {
		v.AlbumArt = PlaceholderArt
	}
	v.Percent = format.Percent(s.Progress, t.Duration)
	v.Width = format.CSSPercent(v.Percent)
	if t.Duration > 0 {
		v.ShowDuration = true
		v.Elapsed = format.Clock(s.Progress)
		v.Total = format.Clock(t.Duration)
	}
	return v
}

// Gradient returns the accent gradient classes for a platform.
func Gradient(platform string) string {
	if strings.EqualFold(strings.TrimSpace(platform), "spotify") {
		return gradientSpotify
	}
	return gradientDefault
}
