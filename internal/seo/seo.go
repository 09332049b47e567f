package seo

import "strings"

// OpenGraph holds og:* tags.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

// Twitter holds twitter:* tags.
type Twitter struct {
	Card  string
	Image string
}

// Meta is everything the layout renders into <head>.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	JSONLD      []string
}

// Build fills Meta from the page basics. publicURL may be empty, in which case
// canonical and absolute image URLs are omitted.
func Build(title, description, publicURL, image string) Meta {
	publicURL = strings.TrimRight(strings.TrimSpace(publicURL), "/")
	abs := func(p string) string {
		if p == "" || publicURL == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			return p
		}
		return publicURL + "/" + strings.TrimPrefix(p, "/")
	}
	canonical := ""
	if publicURL != "" {
		canonical = publicURL + "/"
	}
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		Robots:      "index,follow",
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Image:       abs(image),
			Type:        "profile",
			URL:         canonical,
			SiteName:    title,
		},
		Twitter: Twitter{
			Card:  "summary_large_image",
			Image: abs(image),
		},
	}
}
