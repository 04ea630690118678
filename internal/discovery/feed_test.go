package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deskrado/warpSOL/internal/market"
)

const (
	wsol    = "So11111111111111111111111111111111111111112"
	program = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
)

var upgrader = websocket.Upgrader{}

func notification(ev poolEvent) []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "poolNotification",
		"params":  map[string]interface{}{"result": ev},
	})
	return raw
}

// wsServer accepts one subscription per connection and serves canned
// notifications.
func wsServer(t *testing.T, conns *atomic.Int64, events [][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		conns.Add(1)

		var sub wsRequest
		require.NoError(t, conn.ReadJSON(&sub))
		require.Equal(t, "poolSubscribe", sub.Method)
		require.NoError(t, conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": sub.ID, "result": 42}))

		for _, ev := range events {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, ev))
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

type recorder struct {
	mu   sync.Mutex
	refs []market.PoolReference
}

func (r *recorder) handle(_ context.Context, ref market.PoolReference) {
	r.mu.Lock()
	r.refs = append(r.refs, ref)
	r.mu.Unlock()
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}

func TestFeedDispatchesMatchingPools(t *testing.T) {
	events := [][]byte{
		notification(poolEvent{ // wrong quote asset, dropped
			PoolID: "PoolUSDC", BaseMint: "MintX", QuoteMint: "USDCMint", MarketID: "MktX",
		}),
		notification(poolEvent{
			PoolID: "Pool111", BaseMint: "MintAAA", QuoteMint: wsol, MarketID: "Mkt111",
			BaseDecimals: 6, Version: 4, BaseVault: "VaultB", QuoteVault: "VaultQ",
		}),
	}
	var conns atomic.Int64
	srv := wsServer(t, &conns, events)
	defer srv.Close()

	cache := market.NewMemoryPoolCache(8)
	rec := &recorder{}
	feed := NewFeed(wsURL(srv), program, wsol, cache, rec.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed.Start(ctx)

	require.Eventually(t, func() bool { return rec.len() == 1 }, 2*time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	ref := rec.refs[0]
	rec.mu.Unlock()
	assert.Equal(t, "Pool111", ref.PoolID)
	assert.Equal(t, "MintAAA", ref.BaseMint)
	assert.Equal(t, 4, ref.Version)

	keys, ok := cache.Get("Pool111")
	require.True(t, ok, "discovered pool keys must land in the cache")
	assert.Equal(t, "VaultQ", keys.QuoteVault)

	_, ok = cache.Get("MintAAA")
	assert.True(t, ok, "keys must also resolve by base mint for the sell path")

	_, ok = cache.Get("PoolUSDC")
	assert.False(t, ok, "non-quote-asset pools never enter the cache")

	cancel()
	feed.Wait()
}

func TestFeedReconnects(t *testing.T) {
	var conns atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns.Add(1)
		conn.Close() // drop immediately, forcing a reconnect
	}))
	defer srv.Close()

	feed := NewFeed(wsURL(srv), program, wsol, market.NewMemoryPoolCache(8), func(context.Context, market.PoolReference) {})

	ctx, cancel := context.WithCancel(context.Background())
	feed.Start(ctx)

	require.Eventually(t, func() bool { return conns.Load() >= 2 }, 10*time.Second, 10*time.Millisecond)
	cancel()
	feed.Wait()
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}
