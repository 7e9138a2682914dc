package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/models"
)

const defaultStreamInterval = 30 * time.Second

// -----------------------------------------------------------------------------
// Hub owns the set of price-stream clients. Every interval it pushes each
// client a fresh quote set for the assets that client follows.
// -----------------------------------------------------------------------------

type Hub struct {
	prices   interfaces.IPriceProvider
	interval time.Duration
	Logger   *logger.Logger

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	refresh    chan *Client

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	now      func() time.Time
}

// -----------------------------------------------------------------------------

func NewHub(prices interfaces.IPriceProvider, interval time.Duration, log *logger.Logger) *Hub {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		prices:     prices,
		interval:   interval,
		Logger:     log,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		refresh:    make(chan *Client, 16),
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run is the hub loop. It returns once Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.Logger.Info("stream client connected (user %s, %d total)", c.userID, len(h.clients))
			go h.push([]*Client{c})

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.Logger.Info("stream client disconnected (user %s, %d total)", c.userID, len(h.clients))
			}

		case c := <-h.refresh:
			if _, ok := h.clients[c]; ok {
				go h.push([]*Client{c})
			}

		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			snapshot := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				snapshot = append(snapshot, c)
			}
			go h.push(snapshot)

		case <-h.ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				c.close()
			}
			return
		}
	}
}

// -----------------------------------------------------------------------------

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(h.cancel)
}

// -----------------------------------------------------------------------------

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		c.close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// RequestRefresh asks for an out-of-band push to c.
func (h *Hub) RequestRefresh(c *Client) {
	select {
	case h.refresh <- c:
	default:
	}
}

// -----------------------------------------------------------------------------

// push fetches one quote set per distinct asset list and delivers it. A
// client whose buffer is full is dropped.
func (h *Hub) push(clients []*Client) {
	ctx, cancel := context.WithTimeout(h.ctx, h.interval)
	defer cancel()

	groups := make(map[string][]*Client)
	for _, c := range clients {
		key := strings.Join(c.Assets(), ",")
		groups[key] = append(groups[key], c)
	}

	for _, members := range groups {
		assets := members[0].Assets()
		if len(assets) == 0 {
			continue
		}
		msg := models.MPriceStreamMessage{
			Type:      "prices",
			Data:      h.prices.GetPrices(ctx, assets),
			Timestamp: h.now().UnixMilli(),
		}
		for _, c := range members {
			if !c.trySend(msg) {
				h.Logger.Warning("dropping slow stream client (user %s)", c.userID)
				h.Unregister(c)
			}
		}
	}
}
