package feeds

import (
	"context"
	"html"
	"strings"

	"github.com/Songmu/go-httpdate"
	gofeedjson "github.com/mmcdole/gofeed/json"

	"github.com/feedhaven/feedhaven/models"
)

// JSONService is the format adapter for JSON Feed documents, parsed with
// gofeed's json package.
type JSONService struct {
	client *Client
	images *ImageResolver
	parser *gofeedjson.Parser
}

// NewJSONService creates the JSON Feed adapter
func NewJSONService(client *Client, images *ImageResolver) *JSONService {
	return &JSONService{
		client: client,
		images: images,
		parser: &gofeedjson.Parser{},
	}
}

// Type returns the wire format this adapter handles
func (s *JSONService) Type() models.FeedType {
	return models.FeedTypeJson
}

// ResolveURI fetches the feed body at uri and maps it
func (s *JSONService) ResolveURI(ctx context.Context, uri string, source *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error) {
	body, err := s.client.FetchText(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	if source == nil {
		source = &models.FeedSource{URI: uri}
	}
	return s.ResolveBody(ctx, body, source)
}

// ResolveBody parses the feed body and maps it onto the unified model. When
// source is non-nil its display fields are overwritten in place, preserving
// identity and folder assignment.
func (s *JSONService) ResolveBody(ctx context.Context, body string, source *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error) {
	feed, err := s.parser.Parse(strings.NewReader(body))
	if err != nil {
		return nil, nil, err
	}

	if source == nil {
		source = &models.FeedSource{}
	}
	source.Name = feed.Title
	source.Link = feed.HomePageURL
	source.Description = feed.Description
	source.Language = feed.Language
	source.FeedType = models.FeedTypeJson
	if feed.Icon != "" {
		source.ImageURI = feed.Icon
	}

	entries := make([]*models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, jsonEntry(item, source))
	}

	if !IsValidImage(source.ImageCache) {
		source.ImageCache = s.images.Resolve(ctx, source, entries)
	}
	return source, entries, nil
}

func jsonEntry(item *gofeedjson.Item, source *models.FeedSource) *models.FeedEntry {
	// Prefer rich content; fall back to the plain text variant
	content := item.ContentHTML
	if content == "" {
		content = item.ContentText
	}

	entry := &models.FeedEntry{
		SourceID:    source.ID,
		ExternalID:  item.ID,
		Title:       html.UnescapeString(item.Title),
		Link:        item.URL,
		Description: item.Summary,
		Content:     html.UnescapeString(content),
		ImageURL:    item.Image,
	}
	if entry.ExternalID == "" {
		entry.ExternalID = item.URL
	}

	if item.DatePublished != "" {
		if d, err := httpdate.Str2Time(item.DatePublished, nil); err == nil {
			entry.PublishedAt = d
		}
	}

	if len(item.Authors) > 0 {
		names := make([]string, 0, len(item.Authors))
		for _, a := range item.Authors {
			if a != nil && a.Name != "" {
				names = append(names, a.Name)
			}
		}
		entry.Author = strings.Join(names, ", ")
	} else if item.Author != nil {
		entry.Author = item.Author.Name
	}

	return entry
}
