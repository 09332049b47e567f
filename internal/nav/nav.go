package nav

import "strings"

// Item represents an in-page navigation anchor.
type Item struct {
	Anchor string // section id, e.g. "about"
	Label  string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Main is the primary navigation definition, in page order.
var Main = []Item{
	{Anchor: "about", Label: "About"},
	{Anchor: "experience", Label: "Experience"},
	{Anchor: "projects", Label: "Projects"},
	{Anchor: "contact", Label: "Contact"},
}

// Home is the brand link target.
const Home = "#hero"

// Build renders navigation items, marking the item whose anchor matches active
// (with or without the leading '#').
func Build(active string) []RenderedItem {
	active = strings.TrimPrefix(strings.TrimSpace(active), "#")
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:   "#" + it.Anchor,
			Label:  it.Label,
			Active: active != "" && it.Anchor == active,
		})
	}
	return items
}
