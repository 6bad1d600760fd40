package feed

import (
	"testing"
)

const mediaRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>With media content</title>
      <link>https://example.com/a</link>
      <description>&lt;p&gt;First &lt;b&gt;story&lt;/b&gt;&lt;/p&gt;</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <media:content url="https://img.example.com/a-content.jpg" medium="image"/>
      <media:thumbnail url="https://img.example.com/a-thumb.jpg"/>
    </item>
    <item>
      <title>With thumbnail</title>
      <link>https://example.com/b</link>
      <media:thumbnail url="https://img.example.com/b-thumb.jpg"/>
      <enclosure url="https://img.example.com/b-enc.jpg" type="image/jpeg" length="100"/>
    </item>
    <item>
      <title>With enclosure</title>
      <link>https://example.com/c</link>
      <enclosure url="https://img.example.com/c-enc.png" type="image/png" length="100"/>
    </item>
    <item>
      <title>In media group</title>
      <link>https://example.com/d</link>
      <media:group>
        <media:content url="https://img.example.com/d-group.jpg"/>
      </media:group>
    </item>
    <item>
      <title>No link</title>
      <description>orphan</description>
    </item>
  </channel>
</rss>`

const imageAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <id>urn:feed</id>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Atom entry</title>
    <id>urn:entry:1</id>
    <link rel="alternate" href="https://example.com/atom-1"/>
    <link rel="related" type="image/jpeg" href="https://img.example.com/atom-1.jpg"/>
    <updated>2023-07-03T11:00:00Z</updated>
    <summary>Atom summary</summary>
  </entry>
  <entry>
    <title>Atom entry without image</title>
    <id>urn:entry:2</id>
    <link href="https://example.com/atom-2"/>
    <updated>2023-07-03T10:00:00Z</updated>
  </entry>
</feed>`

func TestParseRSSMediaFields(t *testing.T) {
	entries, err := NewParser().Run([]byte(mediaRSS))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(entries) != 5 {
		t.Fatalf("Expected 5 entries, got: %d", len(entries))
	}

	first := entries[0]
	if first.Link != "https://example.com/a" {
		t.Errorf("Expected link 'https://example.com/a', got: %s", first.Link)
	}
	if first.Published == nil {
		t.Fatal("Expected published date to be parsed")
	}
	if len(first.MediaContent) != 1 || first.MediaContent[0] != "https://img.example.com/a-content.jpg" {
		t.Errorf("Expected media content URL, got: %v", first.MediaContent)
	}
	if len(first.MediaThumbnail) != 1 || first.MediaThumbnail[0] != "https://img.example.com/a-thumb.jpg" {
		t.Errorf("Expected media thumbnail URL, got: %v", first.MediaThumbnail)
	}

	third := entries[2]
	if len(third.Enclosures) != 1 {
		t.Fatalf("Expected 1 enclosure, got: %d", len(third.Enclosures))
	}
	if third.Enclosures[0].Type != "image/png" {
		t.Errorf("Expected enclosure type 'image/png', got: %s", third.Enclosures[0].Type)
	}

	fourth := entries[3]
	if len(fourth.MediaContent) != 1 || fourth.MediaContent[0] != "https://img.example.com/d-group.jpg" {
		t.Errorf("Expected media:group content URL, got: %v", fourth.MediaContent)
	}

	if entries[4].Link != "" {
		t.Errorf("Expected empty link for orphan entry, got: %s", entries[4].Link)
	}
}

func TestParseRSSImagePriority(t *testing.T) {
	entries, err := NewParser().Run([]byte(mediaRSS))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expected := []string{
		"https://img.example.com/a-content.jpg",
		"https://img.example.com/b-thumb.jpg",
		"https://img.example.com/c-enc.png",
		"https://img.example.com/d-group.jpg",
		"",
	}

	for i, want := range expected {
		if got := ResolveImage(entries[i]); got != want {
			t.Errorf("Entry %d: expected image %q, got: %q", i, want, got)
		}
	}
}

func TestParseAtomKeepsLinkTypes(t *testing.T) {
	entries, err := NewParser().Run([]byte(imageAtom))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	if entries[0].Link != "https://example.com/atom-1" {
		t.Errorf("Expected alternate link, got: %s", entries[0].Link)
	}
	if got := ResolveImage(entries[0]); got != "https://img.example.com/atom-1.jpg" {
		t.Errorf("Expected image link from typed atom link, got: %q", got)
	}
	if got := ResolveImage(entries[1]); got != "" {
		t.Errorf("Expected no image, got: %q", got)
	}

	// Atom entries carry only <updated>; it stands in for the publish date.
	if entries[0].Published == nil {
		t.Error("Expected updated date to be used as published date")
	}
	if entries[0].Summary != "Atom summary" {
		t.Errorf("Expected summary 'Atom summary', got: %s", entries[0].Summary)
	}
}

func TestParseInvalidData(t *testing.T) {
	_, err := NewParser().Run([]byte("this is not a feed"))
	if err == nil {
		t.Error("Expected error for invalid feed data")
	}
}
