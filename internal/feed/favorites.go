package feed

import (
	"sync"

	"github.com/mkovalev/newsstand/internal/news"
)

// Favorites is a session-local set of articles keyed by URL. It is an owned
// store passed to its consumers, never a package-level singleton, and it is
// not persisted anywhere.
type Favorites struct {
	mu    sync.RWMutex
	order []string
	byURL map[string]news.Article
}

// NewFavorites constructs an empty Favorites store.
func NewFavorites() *Favorites {
	return &Favorites{byURL: make(map[string]news.Article)}
}

// Toggle adds the article when absent and removes it when present,
// reporting whether it is a favorite afterwards.
func (f *Favorites) Toggle(a news.Article) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byURL[a.URL]; ok {
		delete(f.byURL, a.URL)
		for i, url := range f.order {
			if url == a.URL {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
		return false
	}
	f.byURL[a.URL] = a
	f.order = append(f.order, a.URL)
	return true
}

// IsFavorite reports membership by URL.
func (f *Favorites) IsFavorite(a news.Article) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.byURL[a.URL]
	return ok
}

// List returns favorites in insertion order. The order is convenient for
// rendering but not part of the contract.
func (f *Favorites) List() []news.Article {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]news.Article, 0, len(f.order))
	for _, url := range f.order {
		out = append(out, f.byURL[url])
	}
	return out
}

// Len returns the number of favorites.
func (f *Favorites) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.byURL)
}
