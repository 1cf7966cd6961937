package feeds

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/feedhaven/feedhaven/models"
)

// Outline is a single OPML outline element. Only the outline-to-source
// mapping is supported; full OPML import/export is out of scope.
type Outline struct {
	Text        string    `xml:"text,attr"`
	Title       string    `xml:"title,attr"`
	Type        string    `xml:"type,attr"`
	XMLURL      string    `xml:"xmlUrl,attr"`
	HTMLURL     string    `xml:"htmlUrl,attr"`
	Description string    `xml:"description,attr"`
	Language    string    `xml:"language,attr"`
	Outlines    []Outline `xml:"outline"`
}

type opmlDocument struct {
	XMLName xml.Name  `xml:"opml"`
	Body    []Outline `xml:"body>outline"`
}

// ParseOutlines reads an OPML document and returns its top-level outlines
func ParseOutlines(r io.Reader) ([]Outline, error) {
	var doc opmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}
	return doc.Body, nil
}

// ToFeedSource maps an OPML outline to an unpersisted FeedSource. The parent
// outline, when given, becomes the source's folder by name; wiring the folder
// id is left to the caller once the folder row exists.
func (o Outline) ToFeedSource(parent *Outline) (*models.FeedSource, *models.Folder) {
	name := o.Title
	if name == "" {
		name = o.Text
	}

	source := &models.FeedSource{
		Name:        name,
		URI:         o.XMLURL,
		Link:        o.HTMLURL,
		Description: o.Description,
		Language:    o.Language,
	}

	var folder *models.Folder
	if parent != nil {
		folderName := parent.Title
		if folderName == "" {
			folderName = parent.Text
		}
		folder = &models.Folder{Name: folderName}
	}
	return source, folder
}
