package feed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkovalev/newsstand/internal/news"
)

func TestFavorites_ToggleAddAndRemove(t *testing.T) {
	t.Parallel()

	f := NewFavorites()
	a := news.Article{ID: "1", Title: "First", URL: "https://example.com/1"}

	require.True(t, f.Toggle(a))
	require.True(t, f.IsFavorite(a))
	require.Equal(t, 1, f.Len())

	require.False(t, f.Toggle(a))
	require.False(t, f.IsFavorite(a))
	require.Equal(t, 0, f.Len())
}

func TestFavorites_KeyedByURLNotID(t *testing.T) {
	t.Parallel()

	f := NewFavorites()
	first := news.Article{ID: "1700000000000-1-0", URL: "https://example.com/story"}
	// The same story refetched later gets a different synthetic id.
	refetched := news.Article{ID: "1700000099000-1-3", URL: "https://example.com/story"}

	require.True(t, f.Toggle(first))
	require.True(t, f.IsFavorite(refetched))
	require.False(t, f.Toggle(refetched))
	require.Equal(t, 0, f.Len())
}

func TestFavorites_ListInsertionOrder(t *testing.T) {
	t.Parallel()

	f := NewFavorites()
	a := news.Article{URL: "https://example.com/a", Title: "A"}
	b := news.Article{URL: "https://example.com/b", Title: "B"}
	c := news.Article{URL: "https://example.com/c", Title: "C"}

	f.Toggle(a)
	f.Toggle(b)
	f.Toggle(c)
	f.Toggle(b) // remove the middle one

	list := f.List()
	require.Len(t, list, 2)
	require.Equal(t, "A", list[0].Title)
	require.Equal(t, "C", list[1].Title)
}
