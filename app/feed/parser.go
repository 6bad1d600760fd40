package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Run parses RSS, Atom or JSON feed data into entries, in feed order.
func (p *Parser) Run(data []byte) ([]Entry, error) {
	translator := &atomLinkTranslator{links: make(map[*gofeed.Item][]Link)}

	// A fresh gofeed parser per call keeps the translator state local, so
	// feeds can be parsed concurrently.
	gofeedParser := gofeed.NewParser()
	gofeedParser.AtomTranslator = translator

	parsed, err := gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, p.normalizeItem(item, translator.links[item]))
	}

	slog.Debug("Feed parsed", "title", parsed.Title, "type", parsed.FeedType, "entries", len(entries))

	return entries, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, atomLinks []Link) Entry {
	entry := Entry{
		Link:      strings.TrimSpace(item.Link),
		Title:     item.Title,
		Summary:   cmp.Or(item.Description, item.Content),
		Published: item.PublishedParsed,
	}

	if entry.Published == nil {
		entry.Published = item.UpdatedParsed
	}

	media := item.Extensions["media"]
	entry.MediaContent = extensionURLs(media, "content")
	entry.MediaThumbnail = extensionURLs(media, "thumbnail")

	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, Enclosure{URL: enclosure.URL, Type: enclosure.Type})
	}

	if atomLinks != nil {
		entry.Links = atomLinks
	} else {
		for _, link := range item.Links {
			entry.Links = append(entry.Links, Link{Href: link, Rel: "alternate"})
		}
	}

	return entry
}

// extensionURLs collects url attributes of media:<name> elements, including
// those nested in media:group.
func extensionURLs(media map[string][]ext.Extension, name string) []string {
	if media == nil {
		return nil
	}

	var urls []string
	for _, e := range media[name] {
		if u := e.Attrs["url"]; u != "" {
			urls = append(urls, u)
		}
	}
	for _, group := range media["group"] {
		for _, e := range group.Children[name] {
			if u := e.Attrs["url"]; u != "" {
				urls = append(urls, u)
			}
		}
	}

	return urls
}

// atomLinkTranslator keeps the typed <link> elements that the universal
// gofeed.Item flattens into plain strings.
type atomLinkTranslator struct {
	gofeed.DefaultAtomTranslator
	links map[*gofeed.Item][]Link
}

func (t *atomLinkTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	result, err := t.DefaultAtomTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}

	atomFeed, ok := feed.(*atom.Feed)
	if !ok || len(atomFeed.Entries) != len(result.Items) {
		return result, nil
	}

	for i, entry := range atomFeed.Entries {
		if entry == nil {
			continue
		}
		links := make([]Link, 0, len(entry.Links))
		for _, l := range entry.Links {
			if l == nil || l.Href == "" {
				continue
			}
			links = append(links, Link{Href: l.Href, Rel: l.Rel, Type: l.Type})
		}
		t.links[result.Items[i]] = links
	}

	return result, nil
}
