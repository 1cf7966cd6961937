package feeds

import (
	"context"

	"github.com/feedhaven/feedhaven/models"
)

// FeedService converts one wire format into the unified item model.
//
// When an existing FeedSource is supplied its fields are updated in place,
// preserving identity and folder assignment; when nil, a new source is
// constructed with the adapter's own format tag. After mapping, if the
// source's cached image is absent or not a recognizable image, the adapter
// resolves one through the image fallback chain before returning.
type FeedService interface {
	// Type is the wire format this adapter handles
	Type() models.FeedType

	// ResolveBody maps an already-fetched response body
	ResolveBody(ctx context.Context, body string, source *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error)

	// ResolveURI fetches the document at uri, then maps it. Fails with a
	// FetchError when the body cannot be retrieved.
	ResolveURI(ctx context.Context, uri string, source *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error)
}
