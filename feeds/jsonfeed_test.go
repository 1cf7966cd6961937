package feeds

import (
	"context"
	"testing"

	"github.com/feedhaven/feedhaven/models"
)

const sampleJSONFeed = `{
  "version": "https://jsonfeed.org/version/1.1",
  "title": "JSON Test Feed",
  "home_page_url": "https://example.com",
  "description": "A feed in JSON",
  "language": "en",
  "icon": "https://example.com/icon.png",
  "items": [
    {
      "id": "json-1",
      "url": "https://example.com/posts/1",
      "title": "Ampersands &amp; Entities",
      "content_html": "<p>Hello &amp; welcome</p>",
      "summary": "First post",
      "date_published": "2023-07-03T10:00:00Z",
      "authors": [{"name": "Alice"}, {"name": "Bob"}]
    },
    {
      "url": "https://example.com/posts/2",
      "title": "Plain Text",
      "content_text": "Just text",
      "date_published": "2023-07-03T11:00:00Z"
    }
  ]
}`

func newTestJSONService() *JSONService {
	client := NewClient(0, "")
	return NewJSONService(client, NewImageResolver(client))
}

func TestJSONResolveBody(t *testing.T) {
	svc := newTestJSONService()
	source, entries, err := svc.ResolveBody(context.Background(), sampleJSONFeed, cachedSource())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if source.Name != "JSON Test Feed" {
		t.Errorf("Expected name 'JSON Test Feed', got: %s", source.Name)
	}
	if source.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", source.Link)
	}
	if source.FeedType != models.FeedTypeJson {
		t.Errorf("Expected the JSON format tag, got: %v", source.FeedType)
	}
	if source.ImageURI != "https://example.com/icon.png" {
		t.Errorf("Expected the icon as image uri, got: %s", source.ImageURI)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got: %d", len(entries))
	}

	first := entries[0]
	if first.ExternalID != "json-1" {
		t.Errorf("Expected external id 'json-1', got: %s", first.ExternalID)
	}
	// HTML entities are decoded on the way in
	if first.Title != "Ampersands & Entities" {
		t.Errorf("Expected the title entities to be decoded, got: %s", first.Title)
	}
	if first.Content != "<p>Hello & welcome</p>" {
		t.Errorf("Expected the content entities to be decoded, got: %s", first.Content)
	}
	if first.Description != "First post" {
		t.Errorf("Expected summary 'First post', got: %s", first.Description)
	}
	if first.Author != "Alice, Bob" {
		t.Errorf("Expected authors joined with commas, got: %s", first.Author)
	}
	if first.PublishedAt.IsZero() {
		t.Error("Expected the publishing date to be parsed")
	}

	second := entries[1]
	// No id: the url fills in. No content_html: the text variant fills in.
	if second.ExternalID != "https://example.com/posts/2" {
		t.Errorf("Expected the url as external id fallback, got: %s", second.ExternalID)
	}
	if second.Content != "Just text" {
		t.Errorf("Expected the text content fallback, got: %s", second.Content)
	}
}

func TestJSONResolveBodyInvalid(t *testing.T) {
	svc := newTestJSONService()
	_, _, err := svc.ResolveBody(context.Background(), "<rss></rss>", cachedSource())
	if err == nil {
		t.Fatal("Expected a parse error")
	}
}
