package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crypto-advisor/src/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, ts *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/prices?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readPrices(t *testing.T, conn *websocket.Conn) models.MPriceStreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg models.MPriceStreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestPriceStreamPushesAndFollowsSubscriptions(t *testing.T) {
	env := newTestEnv(t, nil)
	go env.server.Hub().Run()

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	token := env.register(t, "stream@example.com")
	env.onboard(t, token)

	conn, _, err := dialStream(t, ts, token)
	require.NoError(t, err)
	defer conn.Close()

	first := readPrices(t, conn)
	assert.Equal(t, "prices", first.Type)
	require.Len(t, first.Data.Prices, 2)
	assert.Equal(t, "bitcoin", first.Data.Prices[0].ID)

	require.NoError(t, conn.WriteJSON(models.MStreamCommand{Command: "subscribe", Assets: []string{"Solana"}}))
	next := readPrices(t, conn)
	require.Len(t, next.Data.Prices, 1)
	assert.Equal(t, "solana", next.Data.Prices[0].ID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(models.MStreamCommand{Command: "refresh"}))
	again := readPrices(t, conn)
	assert.Equal(t, "solana", again.Data.Prices[0].ID)
}

func TestPriceStreamRejectsBeforeUpgrade(t *testing.T) {
	env := newTestEnv(t, nil)
	go env.server.Hub().Run()

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	_, resp, err := dialStream(t, ts, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token := env.register(t, "pending@example.com")
	_, resp, err = dialStream(t, ts, token)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubStopDisconnectsClients(t *testing.T) {
	env := newTestEnv(t, nil)
	hub := env.server.Hub()
	go hub.Run()

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	token := env.register(t, "bye@example.com")
	env.onboard(t, token)

	conn, _, err := dialStream(t, ts, token)
	require.NoError(t, err)
	defer conn.Close()
	readPrices(t, conn)

	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) ||
		websocket.IsUnexpectedCloseError(err), "expected close, got %v", err)
}
