package meme

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.NewLoggerWithWriter(io.Discard, "meme", "ERROR", nil)
}

func writePool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memes.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// -----------------------------------------------------------------------------

func TestLoadsPoolFromFile(t *testing.T) {
	path := writePool(t, `[
		{"id":"a","title":"A","imageUrl":"https://img/a.jpg","altText":"alt a"},
		{"id":"b","title":"B","imageUrl":"https://img/b.jpg","altText":"alt b"},
		{"id":"","title":"no id","imageUrl":"https://img/c.jpg"}
	]`)

	s := NewMemeSource(path, testLogger())
	require.Equal(t, 2, s.Count())

	s.pick = func(int) int { return 1 }
	got := s.GetMeme(context.Background())
	assert.Equal(t, models.MMeme{ID: "b", Title: "B", ImageURL: "https://img/b.jpg", AltText: "alt b"}, got)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	s := NewMemeSource(filepath.Join(t.TempDir(), "nope.json"), testLogger())

	assert.Equal(t, 2, s.Count())
	got := s.GetMeme(context.Background())
	assert.Contains(t, []string{"meme-1", "meme-2"}, got.ID)
}

func TestBrokenFileUsesDefaults(t *testing.T) {
	for name, body := range map[string]string{
		"not json": `{{{`,
		"empty":    `[]`,
		"object":   `{"id":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			s := NewMemeSource(writePool(t, body), testLogger())
			assert.Equal(t, DefaultMemes(), s.memes)
			assert.Error(t, s.Load())
		})
	}
}

func TestDefaultMemes(t *testing.T) {
	memes := DefaultMemes()
	require.Len(t, memes, 2)
	assert.Equal(t, "HODL!", memes[0].Title)
	assert.Equal(t, "https://i.imgflip.com/2/1bij.jpg", memes[1].ImageURL)
}

func TestGetMemeReloadsEmptyPool(t *testing.T) {
	s := NewMemeSource("", testLogger())
	s.memes = nil

	got := s.GetMeme(context.Background())

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 2, s.Count())
}

func TestGetMemeLogsReloadFailure(t *testing.T) {
	var out bytes.Buffer
	s := NewMemeSource(writePool(t, `[{"id":"m1","title":"t","imageUrl":"https://x/1.png"}]`),
		logger.NewLoggerWithWriter(&out, "meme", "WARNING", nil))
	require.NoError(t, os.Remove(s.Path))
	s.memes = nil

	got := s.GetMeme(context.Background())

	assert.Contains(t, DefaultMemes(), got)
	assert.Contains(t, out.String(), "meme pool reload failed")
}

func TestShippedPoolIsValid(t *testing.T) {
	memes, err := readPool(filepath.Join("..", "..", "..", "data", "memes.json"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(memes), 2)
}
