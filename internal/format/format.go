package format

import (
	"fmt"
	"strings"
	"time"
)

// Clock formats a millisecond duration as m:ss. Negative input renders as 0:00.
// Example: Clock(225000) => "3:45"
func Clock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// Percent returns part/whole*100 clamped to [0, 100]. A non-positive whole yields 0.
func Percent(part, whole int64) float64 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	p := float64(part) / float64(whole) * 100
	if p > 100 {
		return 100
	}
	return p
}

// CSSPercent renders a percentage for inline width styles, e.g. "42.5%".
func CSSPercent(p float64) string {
	s := fmt.Sprintf("%.2f", p)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}

// Year returns the calendar year of t, falling back to the current year for zero times.
func Year(t time.Time) int {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Year()
}

// JoinOr joins non-empty items with sep, or returns fallback when nothing remains.
func JoinOr(items []string, sep, fallback string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, sep)
}
