package cryptopanic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
	"crypto-advisor/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetwork struct {
	calls  int
	body   string
	err    error
	url    string
	params map[string]string
}

func (f *fakeNetwork) Get(_ context.Context, url string, params map[string]string) ([]byte, error) {
	f.calls++
	f.url = url
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newSource(t *testing.T, net *fakeNetwork, apiKey string) *CryptoPanicSource {
	t.Helper()
	cache := utils.NewTTLCache[models.MNewsItemSet]("news_test", 10*time.Minute, 0)
	t.Cleanup(cache.Close)
	log := logger.NewLoggerWithWriter(io.Discard, "cryptopanic", "ERROR", nil)
	src := NewCryptoPanicSource(models.MUpstreamConfig{BaseURL: "http://panic/api/v2", APIKey: apiKey}, net, cache, log)
	src.now = func() time.Time { return fixedNow }
	return src
}

func resultsBody(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"title":"headline %d","description":"desc %d","published_at":"2026-03-14T08:00:00Z","kind":"news"}`, i, i)
	}
	return `{"count":` + fmt.Sprint(n) + `,"results":[` + strings.Join(items, ",") + `]}`
}

// -----------------------------------------------------------------------------

func TestGetNewsWithoutKeyReturnsFixedFallback(t *testing.T) {
	net := &fakeNetwork{body: resultsBody(3)}
	src := newSource(t, net, "")

	for i := 0; i < 2; i++ {
		set := src.GetNews(context.Background(), []string{"bitcoin"})
		assert.True(t, set.IsFallback)
		assert.False(t, set.FromCache)
		assert.Equal(t, fallbackMessage, set.Error)
		require.Len(t, set.News, 5)
		assert.Equal(t, "fallback-1", set.News[0].ID)
		assert.Equal(t, "NFT market shows signs of maturation", set.News[4].Title)
		assert.Equal(t, "2026-03-14T09:30:00.000Z", set.News[0].PublishedAt)
	}
	assert.Equal(t, 0, net.calls)
	assert.Equal(t, 0, src.Cache.Len())
}

func TestGetNewsMapsResults(t *testing.T) {
	net := &fakeNetwork{body: resultsBody(3)}
	src := newSource(t, net, "secret")

	set := src.GetNews(context.Background(), []string{"ethereum", "bitcoin", "PEPE"})

	assert.Equal(t, "http://panic/api/v2/posts/", net.url)
	assert.Equal(t, "secret", net.params["auth_token"])
	assert.Equal(t, "BTC,ETH,PEPE", net.params["currencies"])
	assert.Equal(t, "hot", net.params["filter"])

	assert.False(t, set.IsFallback)
	require.Len(t, set.News, 3)
	assert.Equal(t, "headline 0", set.News[0].Title)
	assert.Equal(t, "desc 2", set.News[2].Description)
	assert.Equal(t, "2026-03-14T08:00:00Z", set.News[1].PublishedAt)
	assert.Equal(t, fmt.Sprintf("news-%d-0", fixedNow.UnixMilli()), set.News[0].ID)
	assert.NotEqual(t, set.News[0].ID, set.News[1].ID)
}

func TestGetNewsTruncatesToTen(t *testing.T) {
	src := newSource(t, &fakeNetwork{body: resultsBody(25)}, "secret")

	set := src.GetNews(context.Background(), []string{"bitcoin"})

	require.Len(t, set.News, 10)
	assert.Equal(t, "headline 9", set.News[9].Title)
}

func TestGetNewsFillsMissingFields(t *testing.T) {
	src := newSource(t, &fakeNetwork{body: `{"results":[{"description":null}]}`}, "secret")

	set := src.GetNews(context.Background(), []string{"bitcoin"})

	require.Len(t, set.News, 1)
	item := set.News[0]
	assert.Equal(t, "Untitled", item.Title)
	assert.Equal(t, "", item.Description)
	assert.Equal(t, "2026-03-14T09:30:00.000Z", item.PublishedAt)
	assert.Equal(t, "news", item.Kind)
}

func TestGetNewsCachesSuccess(t *testing.T) {
	net := &fakeNetwork{body: resultsBody(2)}
	src := newSource(t, net, "secret")

	src.GetNews(context.Background(), []string{"BTC", "ETH"})
	second := src.GetNews(context.Background(), []string{"eth", "btc"})

	assert.True(t, second.FromCache)
	assert.Equal(t, 1, net.calls)
}

func TestGetNewsFallsBackOnBadResponses(t *testing.T) {
	bodies := map[string]string{
		"empty results":   `{"results":[]}`,
		"missing results": `{"count":0}`,
		"non-array":       `{"results":{"title":"x"}}`,
		"not json":        `<html>503</html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			src := newSource(t, &fakeNetwork{body: body}, "secret")
			set := src.GetNews(context.Background(), []string{"bitcoin"})
			assert.True(t, set.IsFallback)
			assert.Len(t, set.News, 5)
			assert.Equal(t, 0, src.Cache.Len())
		})
	}
}

func TestGetNewsFallsBackOnNetworkError(t *testing.T) {
	src := newSource(t, &fakeNetwork{err: errors.New("timeout")}, "secret")

	set := src.GetNews(context.Background(), []string{"bitcoin"})

	assert.True(t, set.IsFallback)
	assert.Len(t, set.News, 5)
}
