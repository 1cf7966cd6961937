package feeds

import (
	"context"
	_ "embed"
	"net/http"
	"net/url"
	"strings"

	opengraph "github.com/otiai10/opengraph/v2"
	"github.com/rs/zerolog/log"

	"github.com/feedhaven/feedhaven/models"
)

// Bundled placeholder artwork, the terminal step of the fallback chain
//
//go:embed placeholder.png
var placeholderImage []byte

// PlaceholderImage returns a copy of the bundled placeholder artwork
func PlaceholderImage() []byte {
	out := make([]byte, len(placeholderImage))
	copy(out, placeholderImage)
	return out
}

// IsValidImage reports whether the blob is non-empty and carries a
// recognizable image container signature
func IsValidImage(blob []byte) bool {
	return len(blob) > 0 && strings.HasPrefix(http.DetectContentType(blob), "image/")
}

// ImageResolver resolves one representative artwork blob for a feed source.
type ImageResolver struct {
	client *Client
}

// NewImageResolver creates an image resolver over the given fetch client
func NewImageResolver(client *Client) *ImageResolver {
	return &ImageResolver{client: client}
}

// Resolve walks the fallback chain and always returns some image: the
// source's declared artwork, the favicon of the source's host, the favicon of
// the first entry's host, the og:image of the source's site, and finally the
// bundled placeholder. Fetch failures are swallowed; each step simply yields
// to the next.
func (r *ImageResolver) Resolve(ctx context.Context, source *models.FeedSource, entries []*models.FeedEntry) []byte {
	if source.ImageURI != "" {
		if blob := r.fetchImage(ctx, source.ImageURI); IsValidImage(blob) {
			return blob
		}
	}

	if uri, err := faviconURI(source.URI); err == nil {
		if blob := r.fetchImage(ctx, uri); IsValidImage(blob) {
			return blob
		}
	}

	if len(entries) > 0 && entries[0].Link != "" {
		if uri, err := faviconURI(entries[0].Link); err == nil {
			if blob := r.fetchImage(ctx, uri); IsValidImage(blob) {
				return blob
			}
		}
	}

	if source.Link != "" {
		if blob := r.fetchOpenGraphImage(ctx, source.Link); IsValidImage(blob) {
			return blob
		}
	}

	return PlaceholderImage()
}

func (r *ImageResolver) fetchImage(ctx context.Context, uri string) []byte {
	blob, err := r.client.FetchBytes(ctx, uri)
	if err != nil {
		log.Debug().Str("uri", uri).Err(err).Msg("Image fetch failed, trying next strategy")
		return nil
	}
	return blob
}

// fetchOpenGraphImage requests the site page and extracts its og:image
func (r *ImageResolver) fetchOpenGraphImage(ctx context.Context, pageURI string) []byte {
	body, err := r.client.FetchText(ctx, pageURI)
	if err != nil {
		log.Debug().Str("uri", pageURI).Err(err).Msg("Page fetch failed, skipping og:image")
		return nil
	}

	ogp := &opengraph.OpenGraph{}
	if err := ogp.Parse(strings.NewReader(body)); err != nil {
		return nil
	}
	if err := ogp.ToAbs(); err != nil {
		return nil
	}
	if len(ogp.Image) == 0 || ogp.Image[0].URL == "" {
		return nil
	}
	return r.fetchImage(ctx, ogp.Image[0].URL)
}

// faviconURI derives scheme://host/favicon.ico from any absolute URI
func faviconURI(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return parsed.Scheme + "://" + parsed.Host + "/favicon.ico", nil
}
