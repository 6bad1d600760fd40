package feed

import (
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	DefaultMaxSummaryLength = 300
	DefaultTimezoneLabel    = "WIB"
	UntitledPlaceholder     = "Untitled"
	Ellipsis                = "…"

	timestampLayout = "02 Jan 2006, 15:04"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Normalizer turns parsed entries into Articles.
type Normalizer struct {
	MaxSummaryLength int
	Location         *time.Location
	TimezoneLabel    string
}

func NewNormalizer(maxSummaryLength int, loc *time.Location, label string) *Normalizer {
	if maxSummaryLength <= 0 {
		maxSummaryLength = DefaultMaxSummaryLength
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		MaxSummaryLength: maxSummaryLength,
		Location:         loc,
		TimezoneLabel:    label,
	}
}

// Article builds an Article for the given source. ok is false when the entry
// has no link and therefore no identity.
func (n *Normalizer) Article(source string, entry Entry) (Article, bool) {
	if entry.Link == "" {
		return Article{}, false
	}

	title := strings.TrimSpace(norm.NFC.String(entry.Title))
	if title == "" {
		title = UntitledPlaceholder
	}

	return Article{
		Source:      source,
		Title:       title,
		URL:         entry.Link,
		Summary:     CleanSummary(entry.Summary, n.MaxSummaryLength),
		PublishedAt: FormatTimestamp(entry.Published, n.Location, n.TimezoneLabel),
		ImageURL:    ResolveImage(entry),
	}, true
}

// ResolveImage picks one image reference, first match wins: media:content,
// media:thumbnail, image enclosure, image link.
func ResolveImage(entry Entry) string {
	if len(entry.MediaContent) > 0 && entry.MediaContent[0] != "" {
		return entry.MediaContent[0]
	}
	if len(entry.MediaThumbnail) > 0 && entry.MediaThumbnail[0] != "" {
		return entry.MediaThumbnail[0]
	}
	for _, enclosure := range entry.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image") && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	for _, link := range entry.Links {
		if strings.HasPrefix(link.Type, "image") && link.Href != "" {
			return link.Href
		}
	}
	return ""
}

// CleanSummary strips tags, decodes entities and truncates to maxLen
// characters.
func CleanSummary(raw string, maxLen int) string {
	text := StripTags(raw)
	text = html.UnescapeString(text)
	text = norm.NFC.String(text)
	text = strings.TrimSpace(text)
	return Truncate(text, maxLen)
}

// StripTags removes angle-bracket spans verbatim. It is not an HTML parser.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Truncate cuts text longer than limit characters at the last whitespace
// inside the limit and appends an ellipsis. A prefix without any whitespace
// is cut at the limit.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}

	return strings.TrimRightFunc(cut, unicode.IsSpace) + Ellipsis
}

// FormatTimestamp renders t in loc followed by label. A nil or zero time
// yields an empty string.
func FormatTimestamp(t *time.Time, loc *time.Location, label string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}

	formatted := t.In(loc).Format(timestampLayout)
	if label != "" {
		formatted += " " + label
	}
	return formatted
}
