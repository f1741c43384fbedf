package history

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pevans/newsdigest/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test history store
func createTestStore(t *testing.T) *Store {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "history.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err, "should create history store")
	t.Cleanup(func() { store.Close() })
	return store
}

// Test helper: create a sample digest
func createTestDigest(headline string) *digest.Digest {
	return &digest.Digest{
		Headline:        headline,
		CombinedSummary: "Combined.",
		ArticleSummaries: []digest.ArticleSummary{
			{Title: "T", Author: "A", Summary: "S", URL: "https://example.com/t"},
		},
		Style: digest.StyleSocial,
		SocialPosts: []digest.SocialPost{
			{Headline: "P", Summary: "PS", URL: "https://example.com/t"},
		},
	}
}

// TestNewStore_InitializesSchema verifies schema creation
func TestNewStore_InitializesSchema(t *testing.T) {
	store := createTestStore(t)

	records, err := store.List(Filter{})
	require.NoError(t, err, "digests table should exist")
	assert.Empty(t, records, "new database should have no digests")
}

// TestNewStore_Reopen verifies records survive reopening the database
func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	saved, err := store.Save("https://example.com", 1, createTestDigest("H"), "md")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "H", got.Digest.Headline)
}

// TestSave_AndGet verifies a saved digest round trips
func TestSave_AndGet(t *testing.T) {
	store := createTestStore(t)
	d := createTestDigest("Headline")

	saved, err := store.Save("https://example.com/blog", 3, d, "# markdown")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID, "should generate UUID")
	assert.Equal(t, digest.StyleSocial, saved.Style)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "https://example.com/blog", got.SourceURL)
	assert.Equal(t, 3, got.ArticleCount)
	assert.Equal(t, "# markdown", got.Markdown)
	assert.Equal(t, digest.StyleSocial, got.Style)
	assert.Equal(t, d, got.Digest)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
}

// TestSave_NilDigest verifies a digest is required
func TestSave_NilDigest(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Save("https://example.com", 0, nil, "")
	assert.ErrorIs(t, err, ErrNilDigest)
}

// TestGet_NotFound verifies the not-found error
func TestGet_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrDigestNotFound)
}

// TestList_NewestFirst verifies ordering and pagination
func TestList_NewestFirst(t *testing.T) {
	store := createTestStore(t)

	for _, headline := range []string{"first", "second", "third"} {
		_, err := store.Save("https://example.com", 1, createTestDigest(headline), headline)
		require.NoError(t, err)
	}

	all, err := store.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Digest.Headline)
	assert.Equal(t, "first", all[2].Digest.Headline)

	page, err := store.List(Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Digest.Headline)

	tail, err := store.List(Filter{Offset: 2})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "first", tail[0].Digest.Headline)
}

// TestList_FilterBySource verifies source filtering
func TestList_FilterBySource(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Save("https://a.example.com", 1, createTestDigest("a"), "")
	require.NoError(t, err)
	_, err = store.Save("https://b.example.com", 1, createTestDigest("b"), "")
	require.NoError(t, err)

	source := "https://b.example.com"
	records, err := store.List(Filter{SourceURL: &source})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].Digest.Headline)
}

// TestDelete verifies deletion and the not-found error
func TestDelete(t *testing.T) {
	store := createTestStore(t)

	saved, err := store.Save("https://example.com", 1, createTestDigest("H"), "")
	require.NoError(t, err)

	require.NoError(t, store.Delete(saved.ID))

	_, err = store.Get(saved.ID)
	assert.ErrorIs(t, err, ErrDigestNotFound)
	assert.ErrorIs(t, store.Delete(saved.ID), ErrDigestNotFound)
}
