package delivery

import (
	"html"
	"strings"
	"unicode/utf16"

	"github.com/lysyi3m/rss-relay/app/feed"
)

const (
	// Telegram limits, counted on the visible text in UTF-16 code units.
	MaxCaptionLength = 1024
	MaxMessageLength = 4096

	Divider      = "━━━━━━━━━━━━━━━━━━━━"
	ReadMoreText = "Read more"
)

// Render builds the HTML message body for article.
func Render(article feed.Article) string {
	var b strings.Builder

	b.WriteString("<b>" + html.EscapeString(article.Source) + "</b>\n")
	b.WriteString("📌 <b>" + html.EscapeString(article.Title) + "</b>\n")
	if article.PublishedAt != "" {
		b.WriteString("🕒 <i>" + html.EscapeString(article.PublishedAt) + "</i>\n")
	}
	b.WriteString(Divider + "\n")
	if article.Summary != "" {
		b.WriteString(html.EscapeString(article.Summary) + "\n\n")
	}
	b.WriteString(`🔗 <a href="` + html.EscapeString(article.URL) + `">` + ReadMoreText + "</a>")

	return b.String()
}

// RenderCaption is Render shortened to fit a photo caption.
func RenderCaption(article feed.Article) string {
	return renderWithin(article, MaxCaptionLength)
}

// RenderText is Render shortened to fit a text message.
func RenderText(article feed.Article) string {
	return renderWithin(article, MaxMessageLength)
}

// renderWithin shortens the summary, then the title, until the visible text
// of the rendered message is at most limit long.
func renderWithin(article feed.Article, limit int) string {
	out := Render(article)
	for visibleLength(out) > limit {
		overflow := visibleLength(out) - limit

		switch {
		case article.Summary != "":
			article.Summary = shorten(article.Summary, overflow)
		case article.Title != "":
			article.Title = shorten(article.Title, overflow)
		default:
			return out
		}
		out = Render(article)
	}
	return out
}

// shorten drops at least overflow characters (plus room for the ellipsis)
// from s, or empties it when nothing would be left.
func shorten(s string, overflow int) string {
	keep := len([]rune(strings.TrimSuffix(s, feed.Ellipsis))) - overflow - 1
	if keep <= 0 {
		return ""
	}
	return feed.Truncate(strings.TrimSuffix(s, feed.Ellipsis), keep)
}

// visibleLength is the length Telegram measures: tags removed, entities
// decoded, UTF-16 code units.
func visibleLength(rendered string) int {
	plain := html.UnescapeString(feed.StripTags(rendered))
	return len(utf16.Encode([]rune(plain)))
}
