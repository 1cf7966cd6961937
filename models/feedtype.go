package models

// FeedType identifies the wire format a feed source was parsed from.
// Every mapped FeedSource carries it explicitly so callers never need
// to re-detect the format.
type FeedType int

const (
	// FeedTypeUnknown is the zero value, used before a source has been parsed
	FeedTypeUnknown FeedType = iota
	// FeedTypeRss covers RSS and Atom feeds
	FeedTypeRss
	// FeedTypeJson covers JSON Feed documents
	FeedTypeJson
)

func (t FeedType) String() string {
	switch t {
	case FeedTypeRss:
		return "rss"
	case FeedTypeJson:
		return "json"
	default:
		return "unknown"
	}
}
