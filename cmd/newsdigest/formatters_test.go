package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pevans/newsdigest/config"
	"github.com/pevans/newsdigest/digest"
	"github.com/pevans/newsdigest/generator"
	"github.com/pevans/newsdigest/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", truncate("éééééééé", 6))
}

func TestWriteOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "digest.md")

	require.NoError(t, writeOutput(path, "hello\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRenderResult(t *testing.T) {
	d := &digest.Digest{
		Headline:         "H",
		ArticleSummaries: []digest.ArticleSummary{{Title: "First", Author: "Ann", Summary: "S"}},
	}
	result := &generator.Result{Digest: d, Markdown: digest.Format(d)}

	out, err := renderResult(result, "markdown", 50)
	require.NoError(t, err)
	assert.Equal(t, result.Markdown, out)

	out, err = renderResult(result, "html", 50)
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>First</strong>")

	out, err = renderResult(result, "json", 50)
	require.NoError(t, err)
	var decoded generator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "H", decoded.Digest.Headline)
}

func TestResolveID(t *testing.T) {
	store, err := openHistory(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	defer store.Close()

	record, err := store.Save("https://example.com", 1, &digest.Digest{Headline: "H"}, "")
	require.NoError(t, err)

	id, err := resolveID(store, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, record.ID, id)

	id, err = resolveID(store, record.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, record.ID, id)

	_, err = resolveID(store, "zzzz")
	assert.ErrorIs(t, err, history.ErrDigestNotFound)
}

func TestOpenConfiguredHistory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")

	_, err := openConfiguredHistory(config.HistoryConfig{Type: "postgres", DSN: dsn})
	assert.ErrorContains(t, err, "unsupported history storage type")
	_, statErr := os.Stat(dsn)
	assert.True(t, os.IsNotExist(statErr), "unsupported type must not create a database")

	store, err := openConfiguredHistory(config.HistoryConfig{Type: config.DefaultHistoryType, DSN: dsn})
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
