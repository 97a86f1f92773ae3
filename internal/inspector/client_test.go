package inspector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testEndpoint runs an in-process websocket server whose behavior per
// inbound frame is scripted by handle. It returns the ws:// URL.
type testEndpoint struct {
	srv      *httptest.Server
	mu       sync.Mutex
	sessions []*websocket.Conn
}

func newTestEndpoint(t *testing.T, handle func(ws *websocket.Conn, frame []byte)) *testEndpoint {
	t.Helper()
	ep := &testEndpoint{}
	upgrader := websocket.Upgrader{}
	ep.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ep.mu.Lock()
		ep.sessions = append(ep.sessions, ws)
		ep.mu.Unlock()
		for {
			_, frame, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if handle != nil {
				handle(ws, frame)
			}
		}
	}))
	t.Cleanup(func() {
		ep.mu.Lock()
		for _, ws := range ep.sessions {
			ws.Close()
		}
		ep.mu.Unlock()
		ep.srv.Close()
	})
	return ep
}

func (ep *testEndpoint) url() string {
	return "ws" + strings.TrimPrefix(ep.srv.URL, "http")
}

func dialClient(t *testing.T, ep *testEndpoint) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Dial(ctx, ep.url(), zap.NewNop())
	require.NoError(t, err)
	client := NewClient(conn, zap.NewNop())
	t.Cleanup(func() {
		client.Close()
		// Give the read pump a beat to exit before goleak looks around.
		time.Sleep(20 * time.Millisecond)
	})
	return client
}

type echoParams struct {
	N int `json:"n"`
}

type echoResult struct {
	N int `json:"n"`
}

func TestCallRoundTrip(t *testing.T) {
	ep := newTestEndpoint(t, func(ws *websocket.Conn, frame []byte) {
		var req struct {
			ID     int64      `json:"id"`
			Method string     `json:"method"`
			Params echoParams `json:"params"`
		}
		require.NoError(t, json.Unmarshal(frame, &req))
		resp := fmt.Sprintf(`{"id":%d,"result":{"n":%d}}`, req.ID, req.Params.N)
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(resp)))
	})
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var res echoResult
	require.NoError(t, client.Call(ctx, "Echo.echo", echoParams{N: 7}, &res))
	assert.Equal(t, 7, res.N)
}

// Replies delivered out of send order must still complete exactly the call
// registered with their id.
func TestCallOutOfOrderReplies(t *testing.T) {
	var mu sync.Mutex
	var held [][]byte
	ep := newTestEndpoint(t, func(ws *websocket.Conn, frame []byte) {
		var req struct {
			ID     int64      `json:"id"`
			Params echoParams `json:"params"`
		}
		require.NoError(t, json.Unmarshal(frame, &req))
		resp := []byte(fmt.Sprintf(`{"id":%d,"result":{"n":%d}}`, req.ID, req.Params.N))
		mu.Lock()
		held = append(held, resp)
		if len(held) == 2 {
			// Flush in reverse arrival order.
			for i := len(held) - 1; i >= 0; i-- {
				ws.WriteMessage(websocket.TextMessage, held[i])
			}
			held = nil
		}
		mu.Unlock()
	})
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	results := make([]echoResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Call(ctx, "Echo.echo", echoParams{N: 100 + i}, &results[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 100+i, results[i].N, "reply must match the call that registered its id")
	}
}

// A reply with an unknown id, or with neither result nor error, is dropped
// without disturbing other in-flight calls.
func TestBadFramesAreDropped(t *testing.T) {
	ep := newTestEndpoint(t, func(ws *websocket.Conn, frame []byte) {
		var req struct {
			ID     int64      `json:"id"`
			Params echoParams `json:"params"`
		}
		require.NoError(t, json.Unmarshal(frame, &req))
		// Desync noise first: unknown id, id-only frame, garbage.
		ws.WriteMessage(websocket.TextMessage, []byte(`{"id":999999,"result":{}}`))
		ws.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"id":%d}`, req.ID)))
		ws.WriteMessage(websocket.TextMessage, []byte(`not json`))
		// Then the real reply.
		resp := fmt.Sprintf(`{"id":%d,"result":{"n":%d}}`, req.ID, req.Params.N)
		ws.WriteMessage(websocket.TextMessage, []byte(resp))
	})
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var res echoResult
	require.NoError(t, client.Call(ctx, "Echo.echo", echoParams{N: 3}, &res))
	assert.Equal(t, 3, res.N)
}

func TestCallRemoteError(t *testing.T) {
	ep := newTestEndpoint(t, func(ws *websocket.Conn, frame []byte) {
		var req struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(frame, &req))
		resp := fmt.Sprintf(`{"id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		ws.WriteMessage(websocket.TextMessage, []byte(resp))
	})
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Call(ctx, "Nope.nope", nil, nil)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, -32601, ce.Code)
	assert.Equal(t, "method not found", ce.Message)
}

// A closed connection must reject all still-pending calls rather than leave
// them unresolved forever.
func TestCloseRejectsPending(t *testing.T) {
	release := make(chan struct{})
	ep := newTestEndpoint(t, func(ws *websocket.Conn, frame []byte) {
		// Swallow the request, then hang up without replying.
		<-release
		ws.Close()
	})
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- client.Call(ctx, "Echo.echo", echoParams{N: 1}, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case err := <-done:
		var te *TransportError
		require.ErrorAs(t, err, &te)
	case <-time.After(5 * time.Second):
		t.Fatal("pending call was never rejected after connection close")
	}

	// And the client stays dead for new calls.
	err := client.Call(ctx, "Echo.echo", echoParams{N: 2}, nil)
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestCallContextCancel(t *testing.T) {
	ep := newTestEndpoint(t, nil) // never replies
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Call(ctx, "Echo.echo", echoParams{N: 1}, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIDsAreMonotonic(t *testing.T) {
	var mu sync.Mutex
	var ids []int64
	ep := newTestEndpoint(t, func(ws *websocket.Conn, frame []byte) {
		var req struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(frame, &req))
		mu.Lock()
		ids = append(ids, req.ID)
		mu.Unlock()
		ws.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"id":%d,"result":{}}`, req.ID)))
	})
	client := dialClient(t, ep)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, client.Call(ctx, "Echo.echo", nil, nil))
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ids, 5)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1])
	}
}
