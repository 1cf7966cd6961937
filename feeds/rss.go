package feeds

import (
	"context"
	"strings"

	"github.com/Songmu/go-httpdate"
	"github.com/mmcdole/gofeed"

	"github.com/feedhaven/feedhaven/models"
)

// RSSService is the format adapter for RSS and Atom feeds, parsed with gofeed.
type RSSService struct {
	client *Client
	images *ImageResolver
	parser *gofeed.Parser
}

// NewRSSService creates the RSS adapter
func NewRSSService(client *Client, images *ImageResolver) *RSSService {
	return &RSSService{
		client: client,
		images: images,
		parser: gofeed.NewParser(),
	}
}

// Type returns the wire format this adapter handles
func (s *RSSService) Type() models.FeedType {
	return models.FeedTypeRss
}

// ResolveURI fetches the feed body at uri and maps it
func (s *RSSService) ResolveURI(ctx context.Context, uri string, source *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error) {
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
func (s *RSSService) ResolveBody(ctx context.Context, body string, source *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error) {
	feed, err := s.parser.ParseString(body)
	if err != nil {
		return nil, nil, err
	}

	if source == nil {
		source = &models.FeedSource{}
	}
	updateSourceFromRSS(feed, source)

	entries := make([]*models.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, rssEntry(item, source))
	}

	if !IsValidImage(source.ImageCache) {
		source.ImageCache = s.images.Resolve(ctx, source, entries)
	}
	return source, entries, nil
}

func updateSourceFromRSS(feed *gofeed.Feed, source *models.FeedSource) {
	source.Name = feed.Title
	source.Link = feed.Link
	source.Description = feed.Description
	source.Language = feed.Language
	source.FeedType = models.FeedTypeRss
	if feed.Image != nil {
		source.ImageURI = feed.Image.URL
	}

	// Keep the raw date verbatim for display; parse it leniently for the
	// timestamp when gofeed could not
	source.LastUpdatedString = feed.Updated
	switch {
	case feed.UpdatedParsed != nil:
		source.LastUpdated = *feed.UpdatedParsed
	case feed.PublishedParsed != nil:
		source.LastUpdated = *feed.PublishedParsed
	case feed.Updated != "":
		if d, err := httpdate.Str2Time(feed.Updated, nil); err == nil {
			source.LastUpdated = d
		}
	}
}

func rssEntry(item *gofeed.Item, source *models.FeedSource) *models.FeedEntry {
	entry := &models.FeedEntry{
		SourceID:    source.ID,
		ExternalID:  item.GUID,
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
	}
	if entry.ExternalID == "" {
		entry.ExternalID = item.Link
	}
	// Prefer rich content; fall back to the plain summary
	if entry.Content == "" {
		entry.Content = item.Description
	}

	switch {
	case item.PublishedParsed != nil:
		entry.PublishedAt = *item.PublishedParsed
	case item.Published != "":
		if d, err := httpdate.Str2Time(item.Published, nil); err == nil {
			entry.PublishedAt = d
		}
	}

	if item.Author != nil {
		entry.Author = personString(item.Author)
	} else if len(item.Authors) > 0 {
		names := make([]string, 0, len(item.Authors))
		for _, a := range item.Authors {
			if a != nil {
				names = append(names, personString(a))
			}
		}
		entry.Author = strings.Join(names, ", ")
	}

	if item.Image != nil {
		entry.ImageURL = item.Image.URL
	}
	return entry
}

func personString(p *gofeed.Person) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
