package feed

import (
	"time"
)

// Article is one deliverable news item. URL is its identity.
type Article struct {
	Source      string
	Title       string
	URL         string
	Summary     string
	PublishedAt string // formatted for display, empty when the entry had no date
	ImageURL    string // empty when no image candidate was found
}

func (a Article) HasImage() bool {
	return a.ImageURL != ""
}

// Entry is a parsed feed entry with every optional field made explicit.
type Entry struct {
	Link           string
	Title          string
	Summary        string
	Published      *time.Time
	MediaContent   []string
	MediaThumbnail []string
	Enclosures     []Enclosure
	Links          []Link
}

type Enclosure struct {
	URL  string
	Type string
}

type Link struct {
	Href string
	Rel  string
	Type string
}

// Source is a registry entry: display name and feed endpoint.
type Source struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}
