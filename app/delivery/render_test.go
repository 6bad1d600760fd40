package delivery

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-relay/app/feed"
)

func TestRenderTemplate(t *testing.T) {
	article := testArticle("")

	expected := "<b>Antara</b>\n" +
		"📌 <b>Headline</b>\n" +
		"🕒 <i>10 Jan 2025, 15:00 WIB</i>\n" +
		"━━━━━━━━━━━━━━━━━━━━\n" +
		"Summary text\n\n" +
		`🔗 <a href="https://example.com/news/1">Read more</a>`

	if got := Render(article); got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderOmitsOptionalLines(t *testing.T) {
	article := testArticle("")
	article.PublishedAt = ""
	article.Summary = ""

	expected := "<b>Antara</b>\n" +
		"📌 <b>Headline</b>\n" +
		"━━━━━━━━━━━━━━━━━━━━\n" +
		`🔗 <a href="https://example.com/news/1">Read more</a>`

	if got := Render(article); got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	article := feed.Article{
		Source:  "A & B",
		Title:   "<script>alert(1)</script>",
		URL:     `https://example.com/?a=1&b="2"`,
		Summary: "1 < 2",
	}

	got := Render(article)

	for _, fragment := range []string{
		"<b>A &amp; B</b>",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"1 &lt; 2",
		`href="https://example.com/?a=1&amp;b=&#34;2&#34;"`,
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Expected %q in rendered message:\n%s", fragment, got)
		}
	}
}

func TestRenderCaptionFitsLimit(t *testing.T) {
	article := testArticle("https://example.com/a.jpg")
	article.Summary = strings.Repeat("kata ", 400)

	caption := RenderCaption(article)

	if n := visibleLength(caption); n > MaxCaptionLength {
		t.Errorf("Expected caption within %d, got: %d", MaxCaptionLength, n)
	}
	if !strings.Contains(caption, feed.Ellipsis) {
		t.Error("Expected shortened summary to end with an ellipsis")
	}
	if !strings.HasSuffix(caption, `">Read more</a>`) {
		t.Error("Expected link line to survive shortening")
	}
	if !strings.Contains(caption, "<b>Headline</b>") {
		t.Error("Expected title to survive shortening")
	}
}

func TestRenderCaptionKeepsShortMessages(t *testing.T) {
	article := testArticle("https://example.com/a.jpg")

	if RenderCaption(article) != Render(article) {
		t.Error("Expected short caption to be the full rendered message")
	}
}

func TestAnnouncementText(t *testing.T) {
	text := AnnouncementText([]string{"Antara", "Tempo & Co"}, IntervalCadence(15*time.Minute))

	for _, fragment := range []string{"• Antara\n", "• Tempo &amp; Co\n", "every 15 minutes"} {
		if !strings.Contains(text, fragment) {
			t.Errorf("Expected %q in announcement:\n%s", fragment, text)
		}
	}
}
