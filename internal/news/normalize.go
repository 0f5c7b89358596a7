package news

import (
	"fmt"
	"time"
)

// Defaults substituted for missing upstream fields.
const (
	DefaultDescription = "No description available"
	DefaultImageURL    = "https://via.placeholder.com/345x140"
	DefaultAuthor      = "Unknown author"
)

// Normalize converts a raw upstream record into an Article, filling missing
// fields with defaults. When the upstream provides no id, one is synthesized
// from now plus the article's (page, index) position, so normalizing the same
// record with the same clock value is idempotent.
func Normalize(raw RawArticle, page, index int, now time.Time) Article {
	a := Article{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Content:     raw.Content,
		URL:         raw.URL,
		ImageURL:    raw.URLToImage,
		Author:      raw.Author,
		SourceName:  raw.Source.Name,
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("%d-%d-%d", now.UnixMilli(), page, index)
	}
	if a.Description == "" {
		a.Description = DefaultDescription
	}
	if a.ImageURL == "" {
		a.ImageURL = DefaultImageURL
	}
	if a.Author == "" {
		a.Author = DefaultAuthor
	}
	if ts, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
		a.PublishedAt = ts.UTC()
	}
	return a
}

// NormalizePage normalizes every article of an upstream page in order.
func NormalizePage(raw []RawArticle, page int, now time.Time) []Article {
	out := make([]Article, len(raw))
	for i, r := range raw {
		out[i] = Normalize(r, page, i, now)
	}
	return out
}
