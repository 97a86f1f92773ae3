// Package inspector implements a client for the remote inspector protocol: a
// websocket transport delivering complete text frames, an id-correlated RPC
// layer on top of it, and the tagged remote-value model used to classify
// evaluation results. Values never cross into this process; they are
// addressed by handle and rendered remotely.
package inspector

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn is a persistent, message-oriented connection to a single inspector
// endpoint. Frames are complete text messages; partial-frame reassembly is
// the websocket layer's job. A single read pump delivers inbound frames one
// at a time to the frame handler, which must not block.
type Conn struct {
	ws  *websocket.Conn
	log *zap.Logger

	writeMu sync.Mutex

	frameFn func([]byte)
	closeFn func(error)

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the given ws:// or wss:// endpoint.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Conn{ws: ws, log: log, done: make(chan struct{})}, nil
}

// SetFrameHandler installs the inbound frame handler. Must be called before
// Start.
func (c *Conn) SetFrameHandler(fn func([]byte)) { c.frameFn = fn }

// SetCloseHandler installs the close handler. It fires exactly once, with the
// read error that ended the connection (nil for a local Close). Must be
// called before Start.
func (c *Conn) SetCloseHandler(fn func(error)) { c.closeFn = fn }

// Start launches the read pump.
func (c *Conn) Start() {
	go c.readLoop()
}

// Send writes one frame. Writes are serialized; Send is safe to call from
// multiple goroutines.
func (c *Conn) Send(frame []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.finish(nil)
	return c.ws.Close()
}

func (c *Conn) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.finish(err)
			return
		}
		if c.frameFn != nil {
			c.frameFn(data)
		}
	}
}

func (c *Conn) finish(err error) {
	c.closeOnce.Do(func() {
		close(c.done)
		if err != nil {
			c.log.Warn("inspector connection lost", zap.Error(err))
		}
		if c.closeFn != nil {
			c.closeFn(err)
		}
	})
}
