package handlers

import (
	"time"

	"github.com/orangeuaswe/portfolio-web/internal/content"
	"github.com/orangeuaswe/portfolio-web/internal/format"
	"github.com/orangeuaswe/portfolio-web/internal/nav"
	"github.com/orangeuaswe/portfolio-web/internal/nowplaying"
	"github.com/orangeuaswe/portfolio-web/internal/seo"
)

// PageData is the view model for the portfolio page layout.
type PageData struct {
	Title   string
	Lang    string
	SEO     seo.Meta
	DevMode bool

	Brand string
	Home  string
	Nav   []nav.RenderedItem
	Year  int

	Content    *content.Portfolio
	Contact    ContactFormView
	NowPlaying nowplaying.View
}

// BuildHomeData constructs the view model for the landing page.
func BuildHomeData(p *content.Portfolio, lang, publicURL string, form ContactFormView, np nowplaying.View, now time.Time) PageData {
	if p == nil {
		p = content.Default()
	}
	title := p.Site.Title
	if title == "" {
		title = p.Owner.Name
	}
	meta := seo.Build(title, p.Site.Description, publicURL, p.Site.Image)

	var sameAs []string
	for _, l := range p.Links {
		if l.Kind != "email" && l.URL != "" {
			sameAs = append(sameAs, l.URL)
		}
	}
	meta.JSONLD = append(meta.JSONLD,
		seo.JSON(seo.Person(p.Owner.Name, p.Owner.Role, meta.Canonical, meta.OG.Image, p.Owner.Affiliation, sameAs)),
		seo.JSON(seo.WebSite(title, meta.Canonical)),
	)

	return PageData{
		Title:      title,
		Lang:       lang,
		SEO:        meta,
		Brand:      p.Site.Brand,
		Home:       nav.Home,
		Nav:        nav.Build(""),
		Year:       format.Year(now),
		Content:    p,
		Contact:    form,
		NowPlaying: np,
	}
}
