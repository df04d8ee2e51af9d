package conn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OCharnyshevich/noisefield/internal/server/config"
	wire "github.com/OCharnyshevich/noisefield/internal/server/net"
	"github.com/OCharnyshevich/noisefield/internal/server/packet"
	"github.com/OCharnyshevich/noisefield/internal/server/session"
	"github.com/OCharnyshevich/noisefield/internal/server/world"
)

const (
	writeTimeout = 5 * time.Second
	outQueue     = 16

	// maxMessageSize bounds a serverbound JSON message.
	maxMessageSize = 4096
)

var (
	// readTimeout is how long a session may go without any frame, pongs included.
	readTimeout = 60 * time.Second
	// pingPeriod must stay below readTimeout.
	pingPeriod = 50 * time.Second
)

// message is a queued outbound websocket frame.
type message struct {
	kind int
	data []byte
}

// Connection manages a single WebSocket session. Requests are handled in
// order on the reader goroutine; every write goes through one writer
// goroutine.
type Connection struct {
	ws     *websocket.Conn
	cfg    *config.Config
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	world  *world.World

	sessions *session.Manager
	self     *session.Session

	out  chan message
	done chan struct{}
}

// NewConnection creates a new Connection for an upgraded websocket.
func NewConnection(ctx context.Context, ws *websocket.Conn, cfg *config.Config, log *slog.Logger, w *world.World, sessions *session.Manager) *Connection {
	ctx, cancel := context.WithCancel(ctx)
	self := session.New(ws.RemoteAddr().String())
	return &Connection{
		ws:       ws,
		cfg:      cfg,
		log:      log.With("addr", self.Addr, "session", self.ID.String()),
		ctx:      ctx,
		cancel:   cancel,
		world:    w,
		sessions: sessions,
		self:     self,
		out:      make(chan message, outQueue),
		done:     make(chan struct{}),
	}
}

// Session returns the session record announced in the HELLO message.
func (c *Connection) Session() *session.Session {
	return c.self
}

// Handle runs the session until the client disconnects or the context is
// cancelled.
func (c *Connection) Handle() {
	c.sessions.Add(c.self)
	defer func() {
		c.sessions.Remove(c.self.ID)
		c.cancel()
		<-c.done
		c.ws.Close()
		c.log.Info("connection closed")
	}()

	c.log.Info("connection accepted")
	go c.writeLoop()

	hello := packet.Hello{
		Type:            packet.TypeHello,
		ProtocolVersion: packet.ProtocolVersion,
		SessionID:       c.self.ID.String(),
		Seed:            c.cfg.Seed,
		Kernel:          c.cfg.Kernel,
		TileSize:        c.cfg.TileSize,
		SampleScale:     c.cfg.SampleScale,
	}
	if err := c.sendJSON(hello); err != nil {
		c.log.Error("send hello", "error", err)
		return
	}

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
		kind, msg, err := c.ws.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("read message", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			if err := c.sendJSON(packet.Error{Type: packet.TypeError, Message: "expected text message"}); err != nil {
				return
			}
			continue
		}
		if err := c.handleMessage(msg); err != nil {
			if c.ctx.Err() == nil {
				c.log.Error("handling message", "error", err)
			}
			return
		}
	}
}

// handleMessage answers one request. Request errors are reported to the
// client; only a failed write ends the session.
func (c *Connection) handleMessage(msg []byte) error {
	req, err := packet.Decode(msg)
	if err != nil {
		c.log.Debug("rejected request", "error", err)
		return c.sendJSON(packet.NewError(err))
	}

	switch req := req.(type) {
	case *packet.TileRequest:
		return c.handleTile(req)
	case *packet.SampleRequest:
		return c.handleSample(req)
	default:
		return c.sendJSON(packet.NewError(fmt.Errorf("%w: unsupported request", packet.ErrInvalidRequest)))
	}
}

func (c *Connection) handleTile(req *packet.TileRequest) error {
	size := req.Size
	if size == 0 {
		size = c.cfg.TileSize
	}
	if size > c.cfg.MaxTileSize {
		return c.sendJSON(packet.NewError(fmt.Errorf("tile size %d exceeds limit %d", size, c.cfg.MaxTileSize)))
	}

	t, err := c.world.GetOrGenerateTile(c.ctx, req.TX, req.TY, req.Tag, size)
	if err != nil {
		return c.replyError(err)
	}
	frame, err := wire.EncodeTile(t)
	if err != nil {
		return fmt.Errorf("encode tile: %w", err)
	}
	c.log.Debug("sending tile", "tx", req.TX, "ty", req.TY, "tag", t.Tag, "size", size)
	if err := c.send(websocket.BinaryMessage, frame); err != nil {
		return err
	}
	c.self.TileServed()
	return nil
}

func (c *Connection) handleSample(req *packet.SampleRequest) error {
	v, err := c.world.Sample(req.X, req.Y, req.Tag)
	if err != nil {
		return c.replyError(err)
	}
	err = c.sendJSON(packet.Value{
		Type:  packet.TypeValue,
		X:     req.X,
		Y:     req.Y,
		Tag:   req.Tag,
		Value: v,
	})
	if err != nil {
		return err
	}
	c.self.SampleServed()
	return nil
}

// replyError reports a failed request to the client. Only the end of the
// session itself is returned as an error.
func (c *Connection) replyError(err error) error {
	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}
	return c.sendJSON(packet.NewError(err))
}

func (c *Connection) sendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.send(websocket.TextMessage, b)
}

// send queues a frame for the writer goroutine.
func (c *Connection) send(kind int, data []byte) error {
	select {
	case c.out <- message{kind: kind, data: data}:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func (c *Connection) writeLoop() {
	defer close(c.done)
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				c.log.Debug("write ping", "error", err)
				c.cancel()
			}
		case <-c.ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(time.Second))
			// Unblock the reader.
			_ = c.ws.SetReadDeadline(time.Now())
			return
		case m := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(m.kind, m.data); err != nil {
				c.log.Debug("write message", "error", err)
				c.cancel()
			}
		}
	}
}
