// Package discovery streams pool-initialization events from the node's
// WebSocket endpoint and turns them into buy-pipeline invocations. One
// subscription per process, filtered to the configured AMM program and
// quote mint.
package discovery

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Deskrado/warpSOL/internal/market"
)

// Handler receives each discovered pool on its own goroutine.
type Handler func(ctx context.Context, ref market.PoolReference)

// Reconnect/read tuning.
const (
	handshakeTimeout  = 10 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 10 * time.Second
	pingInterval      = 30 * time.Second
	reconnectDelay    = time.Second
	maxReconnectDelay = 30 * time.Second
)

// Feed is the WebSocket pool-discovery subscription.
type Feed struct {
	endpoint  string
	programID string
	quoteMint string

	cache   *market.MemoryPoolCache
	handler Handler

	wg sync.WaitGroup
}

// NewFeed creates a feed for the given WebSocket endpoint, subscribing
// to pool initializations of programID. Pools quoted in anything other
// than quoteMint are dropped at the feed.
func NewFeed(endpoint, programID, quoteMint string, cache *market.MemoryPoolCache, handler Handler) *Feed {
	return &Feed{
		endpoint:  endpoint,
		programID: programID,
		quoteMint: quoteMint,
		cache:     cache,
		handler:   handler,
	}
}

// Start launches the subscription loop. It reconnects with exponential
// backoff until ctx is cancelled.
func (f *Feed) Start(ctx context.Context) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(ctx)
	}()
	log.Info().Str("endpoint", f.endpoint).Str("program", f.programID).Msg("🔭 pool discovery started")
}

// Wait blocks until the subscription loop has exited.
func (f *Feed) Wait() {
	f.wg.Wait()
}

func (f *Feed) run(ctx context.Context) {
	delay := reconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		err := f.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retry_in", delay).Msg("discovery stream dropped, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// poolEvent is one parsed pool-initialization notification.
type poolEvent struct {
	PoolID       string `json:"poolId"`
	BaseMint     string `json:"baseMint"`
	QuoteMint    string `json:"quoteMint"`
	MarketID     string `json:"marketId"`
	BaseDecimals uint8  `json:"baseDecimals"`
	Version      int    `json:"version"`

	Authority        string `json:"authority"`
	BaseVault        string `json:"baseVault"`
	QuoteVault       string `json:"quoteVault"`
	OpenOrders       string `json:"openOrders"`
	TargetOrders     string `json:"targetOrders"`
	MarketProgramID  string `json:"marketProgramId"`
	MarketBids       string `json:"marketBids"`
	MarketAsks       string `json:"marketAsks"`
	MarketEventQueue string `json:"marketEventQueue"`
	MarketBaseVault  string `json:"marketBaseVault"`
	MarketQuoteVault string `json:"marketQuoteVault"`
}

type wsMessage struct {
	ID     uint64 `json:"id"`
	Method string `json:"method"`
	Params struct {
		Result poolEvent `json:"result"`
	} `json:"params"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the socket when ctx dies so the blocked read returns.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	sub := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "poolSubscribe",
		Params: []interface{}{
			map[string]interface{}{"programId": f.programID},
			map[string]interface{}{"commitment": "confirmed"},
		},
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go f.pingLoop(conn, stop)

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Warn().Err(err).Msg("undecodable discovery message, skipping")
			continue
		}
		if msg.Error != nil {
			log.Warn().Int("code", msg.Error.Code).Str("msg", msg.Error.Message).Msg("discovery subscription error")
			continue
		}
		if msg.Method != "poolNotification" {
			continue
		}
		f.dispatch(ctx, msg.Params.Result)
	}
}

func (f *Feed) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch caches the pool's keys and hands the reference to the buy
// pipeline on its own goroutine, so a slow pipeline never stalls the
// read loop.
func (f *Feed) dispatch(ctx context.Context, ev poolEvent) {
	if ev.PoolID == "" || ev.BaseMint == "" {
		log.Debug().Msg("incomplete pool event, skipping")
		return
	}
	if f.quoteMint != "" && ev.QuoteMint != f.quoteMint {
		log.Debug().Str("pool", ev.PoolID).Str("quote", ev.QuoteMint).Msg("pool not quoted in configured asset, skipping")
		return
	}

	ref := market.PoolReference{
		PoolID:       ev.PoolID,
		BaseMint:     ev.BaseMint,
		MarketID:     ev.MarketID,
		BaseDecimals: ev.BaseDecimals,
		Version:      ev.Version,
	}
	f.cache.Put(market.PoolKeys{
		PoolReference:    ref,
		QuoteMint:        ev.QuoteMint,
		Authority:        ev.Authority,
		BaseVault:        ev.BaseVault,
		QuoteVault:       ev.QuoteVault,
		OpenOrders:       ev.OpenOrders,
		TargetOrders:     ev.TargetOrders,
		MarketProgramID:  ev.MarketProgramID,
		MarketBids:       ev.MarketBids,
		MarketAsks:       ev.MarketAsks,
		MarketEventQueue: ev.MarketEventQueue,
		MarketBaseVault:  ev.MarketBaseVault,
		MarketQuoteVault: ev.MarketQuoteVault,
	})

	log.Info().Str("pool", ev.PoolID).Str("mint", ev.BaseMint).Msg("🆕 pool discovered")
	go f.handler(ctx, ref)
}
