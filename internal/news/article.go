// Package news defines the article model shared by the proxy and the feed
// client, plus normalization of raw upstream records.
package news

import "time"

// RawSource is the source block of a raw upstream article.
type RawSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawArticle is an article exactly as the upstream provider returns it.
// Any field may be empty or absent.
type RawArticle struct {
	ID          string    `json:"id,omitempty"`
	Source      RawSource `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     string    `json:"content"`
}

// Response is the upstream provider's paginated search payload. It is also
// the shape the proxy forwards to clients.
type Response struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []RawArticle `json:"articles"`
	Code         string       `json:"code,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// Article is a normalized record with every field populated and a stable id.
// Articles are immutable once created.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Author      string    `json:"author"`
	SourceName  string    `json:"sourceName"`
}

// Clock abstracts time.Now so normalization and caching stay testable.
type Clock interface {
	Now() time.Time
}
