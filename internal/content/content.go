package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrMissingOwner is returned when the content has no owner name.
var ErrMissingOwner = errors.New("content: owner.name is required")

// Portfolio is the full set of copy rendered on the home page.
type Portfolio struct {
	Site       Site              `yaml:"site"`
	Owner      Owner             `yaml:"owner"`
	About      About             `yaml:"about"`
	Skills     SkillsSection     `yaml:"skills"`
	Experience ExperienceSection `yaml:"experience"`
	Education  []Education       `yaml:"education"`
	Projects   ProjectsSection   `yaml:"projects"`
	Contact    Contact           `yaml:"contact"`
	Footer     Footer            `yaml:"footer"`
	Links      []SocialLink      `yaml:"links"`
}

// Site holds branding and metadata.
type Site struct {
	Brand       string `yaml:"brand"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
}

// Owner describes the person the site is about.
type Owner struct {
	Name        string `yaml:"name"`
	StatusBadge string `yaml:"status_badge"`
	Role        string `yaml:"role"`
	Affiliation string `yaml:"affiliation"`
	Photo       string `yaml:"photo"`
}

// Heading is a section title with an accented trailing word.
type Heading struct {
	Text      string `yaml:"text"`
	Highlight string `yaml:"highlight"`
	Subtitle  string `yaml:"subtitle"`
}

// About is the introduction section. Body is markdown.
type About struct {
	Heading  Heading `yaml:"heading"`
	Greeting string  `yaml:"greeting"`
	Body     string  `yaml:"body"`
	Stats    []Stat  `yaml:"stats"`

	BodyHTML template.HTML `yaml:"-"`
}

// Stat is a headline number in the about card.
type Stat struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
	Color string `yaml:"color"`
}

// SkillsSection groups skills by area.
type SkillsSection struct {
	Heading Heading      `yaml:"heading"`
	Groups  []SkillGroup `yaml:"groups"`
}

// SkillGroup is one card of related skills.
type SkillGroup struct {
	Name     string  `yaml:"name"`
	Icon     string  `yaml:"icon"`
	Gradient string  `yaml:"gradient"`
	Items    []Skill `yaml:"items"`
}

// Skill is a labelled proficiency indicator.
type Skill struct {
	Label string `yaml:"label"`
	Level string `yaml:"level"`
}

// DotClass maps the proficiency level to its indicator colour class.
func (s Skill) DotClass() string {
	return DotClass(s.Level)
}

// ExperienceSection lists roles in display order.
type ExperienceSection struct {
	Heading Heading      `yaml:"heading"`
	Entries []Experience `yaml:"entries"`
}

// Experience is one internship or job.
type Experience struct {
	Role              string   `yaml:"role"`
	Company           string   `yaml:"company"`
	Location          string   `yaml:"location"`
	Period            string   `yaml:"period"`
	Accent            string   `yaml:"accent"`
	HighlightsHeading string   `yaml:"highlights_heading"`
	Highlights        []string `yaml:"highlights"`
	ToolsHeading      string   `yaml:"tools_heading"`
	Tools             []string `yaml:"tools"`
}

// Education is a degree entry.
type Education struct {
	School   string `yaml:"school"`
	Monogram string `yaml:"monogram"`
	Degree   string `yaml:"degree"`
	Field    string `yaml:"field"`
	Expected string `yaml:"expected"`
	Location string `yaml:"location"`
}

// ProjectsSection lists featured projects.
type ProjectsSection struct {
	Heading Heading   `yaml:"heading"`
	Items   []Project `yaml:"items"`
}

// Project is a featured project card. Summary is markdown.
type Project struct {
	Name              string   `yaml:"name"`
	Accent            string   `yaml:"accent"`
	Tags              []string `yaml:"tags"`
	Summary           string   `yaml:"summary"`
	HighlightsHeading string   `yaml:"highlights_heading"`
	Highlights        []string `yaml:"highlights"`
	Links             []Link   `yaml:"links"`

	SummaryHTML template.HTML `yaml:"-"`
}

// Link is an outbound project link.
type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Contact is the copy around the contact form.
type Contact struct {
	Heading       Heading `yaml:"heading"`
	FallbackEmail string  `yaml:"fallback_email"`
}

// Footer holds footer copy.
type Footer struct {
	Credit  string `yaml:"credit"`
	Tagline string `yaml:"tagline"`
}

// SocialLink is a profile link shown in the footer.
type SocialLink struct {
	Kind  string `yaml:"kind"`
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Parse decodes YAML content and renders its markdown fields.
func Parse(data []byte) (*Portfolio, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Portfolio
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("content: decode: %w", err)
	}
	if strings.TrimSpace(p.Owner.Name) == "" {
		return nil, ErrMissingOwner
	}
	if p.Contact.FallbackEmail == "" {
		for _, l := range p.Links {
			if l.Kind == "email" {
				p.Contact.FallbackEmail = strings.TrimPrefix(l.URL, "mailto:")
				break
			}
		}
	}

	var err error
	if p.About.BodyHTML, err = Markdown(p.About.Body); err != nil {
		return nil, fmt.Errorf("content: about body: %w", err)
	}
	for i := range p.Projects.Items {
		item := &p.Projects.Items[i]
		if item.SummaryHTML, err = Markdown(item.Summary); err != nil {
			return nil, fmt.Errorf("content: project %q summary: %w", item.Name, err)
		}
	}
	return &p, nil
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded portfolio content.
func Default() *Portfolio {
	p, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("content: embedded default is invalid: %v", err))
	}
	return p
}

// DotClass maps a proficiency level to its indicator colour class.
func DotClass(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "green":
		return "bg-green-400"
	case "yellow":
		return "bg-yellow-400"
	case "blue":
		return "bg-blue-400"
	default:
		return "bg-gray-400"
	}
}

// Social returns the first link of the given kind.
func (p *Portfolio) Social(kind string) (SocialLink, bool) {
	if p == nil {
		return SocialLink{}, false
	}
	for _, l := range p.Links {
		if l.Kind == kind {
			return l, true
		}
	}
	return SocialLink{}, false
}
