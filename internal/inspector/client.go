package inspector

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// request is the outbound frame shape.
type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// response is the inbound frame shape. Frames carrying no id are protocol
// events, which this client does not consume.
type response struct {
	ID     *int64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *CallError      `json:"error"`
}

type reply struct {
	result json.RawMessage
	err    error
}

// Client correlates requests with replies over a Conn. Ids are allocated
// monotonically and never reused; at most one pending entry exists per id.
// Replies may arrive in any order — matching is by id only, so multiple
// calls may be in flight concurrently.
type Client struct {
	conn *Conn
	log  *zap.Logger

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan reply
	dead    error
}

// NewClient wires a Client onto conn and starts the read pump. The caller
// must not install its own frame or close handlers on conn.
func NewClient(conn *Conn, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		conn:    conn,
		log:     log,
		nextID:  1,
		pending: make(map[int64]chan reply),
	}
	conn.SetFrameHandler(c.handleFrame)
	conn.SetCloseHandler(c.handleClose)
	conn.Start()
	return c
}

// Call sends {id, method, params} and blocks until the matching reply
// arrives, the connection dies, or ctx is done. A non-nil result is filled
// from the reply's result object.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	c.mu.Lock()
	if c.dead != nil {
		err := c.dead
		c.mu.Unlock()
		return err
	}
	id := c.nextID
	c.nextID++
	ch := make(chan reply, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	frame, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		c.drop(id)
		return err
	}
	c.log.Debug("send", zap.Int64("id", id), zap.String("method", method))
	if err := c.conn.Send(frame); err != nil {
		c.drop(id)
		return err
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return r.err
		}
		if result != nil && len(r.result) > 0 {
			return json.Unmarshal(r.result, result)
		}
		return nil
	case <-ctx.Done():
		c.drop(id)
		return ctx.Err()
	}
}

// Close tears down the connection; pending calls are rejected via the close
// handler.
func (c *Client) Close() error {
	return c.conn.Close()
}

// handleFrame routes one inbound frame to its pending call. A frame that is
// undecodable, addresses no pending id, or carries neither result nor error
// is logged and dropped: one bad frame must not corrupt unrelated in-flight
// requests.
func (c *Client) handleFrame(data []byte) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.log.Warn("dropping undecodable frame", zap.Error(err))
		return
	}
	if resp.ID == nil {
		// Protocol event; not ours.
		c.log.Debug("ignoring event frame")
		return
	}
	if resp.Result == nil && resp.Error == nil {
		c.log.Warn("dropping frame with neither result nor error", zap.Int64("id", *resp.ID))
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[*resp.ID]
	if ok {
		delete(c.pending, *resp.ID)
	}
	c.mu.Unlock()
	if !ok {
		c.log.Warn("dropping reply for unknown id", zap.Int64("id", *resp.ID))
		return
	}

	if resp.Error != nil {
		ch <- reply{err: resp.Error}
		return
	}
	ch <- reply{result: resp.Result}
}

// handleClose rejects every still-pending call rather than leaving it to
// hang forever.
func (c *Client) handleClose(cause error) {
	failure := &TransportError{Err: cause}

	c.mu.Lock()
	c.dead = failure
	orphans := c.pending
	c.pending = make(map[int64]chan reply)
	c.mu.Unlock()

	for id, ch := range orphans {
		c.log.Debug("rejecting pending call on close", zap.Int64("id", id))
		ch <- reply{err: failure}
	}
}

func (c *Client) drop(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
