package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	craftdebug "github.com/dcrodman/craftmine/internal/core/debug"
	"github.com/dcrodman/craftmine/internal/core/metrics"
	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
)

// How long a closing connection gets to write what is still queued for it.
const flushTimeout = 5 * time.Second

// errClosedByServer ends a connection the server is done with, either because
// the exchange is over (a status ping) or because the client was kicked.
var errClosedByServer = errors.New("closed by server")

type readResult struct {
	frame frame.Frame
	err   error
}

// connection is the actor for one client socket. All writes to the socket and
// all state changes happen on the goroutine running serve; a second goroutine
// only reads frames and passes them over.
type connection struct {
	server *Server
	conn   net.Conn
	reader *frame.Reader
	cancel context.CancelFunc
	logger *logrus.Entry

	state           protocol.State
	protocolVersion int32

	// Login progress.
	username    string
	verifyToken []byte

	// Set once the connection is in Play.
	session  *Session
	outbound chan outboundMsg
	timeout  timeout
}

func newConnection(s *Server, conn net.Conn, cancel context.CancelFunc) *connection {
	size := s.Config.Network.OutboundBuffer
	if size < 1 {
		size = 1
	}
	c := &connection{
		server:   s,
		conn:     conn,
		reader:   frame.NewReader(conn),
		cancel:   cancel,
		outbound: make(chan outboundMsg, size),
	}
	c.logger = s.Logger.WithField("addr", conn.RemoteAddr().String())
	c.setState(protocol.Handshake)
	return c
}

func (c *connection) serve(ctx context.Context) {
	defer c.closeConnectionAndRecover()

	c.logger.Infof("[network] accepted connection")
	c.extendReadDeadline()

	frames := make(chan readResult)
	go c.readFrames(ctx, frames)

	for {
		select {
		case <-ctx.Done():
			c.flushOutbound()
			return
		case res := <-frames:
			if err := c.handleRead(ctx, res); err != nil {
				c.logClose(err)
				return
			}
		case msg := <-c.outbound:
			if err := c.handleOutbound(msg); err != nil {
				c.logClose(err)
				return
			}
		}
	}
}

func (c *connection) readFrames(ctx context.Context, frames chan<- readResult) {
	for {
		f, err := c.reader.ReadFrame()
		select {
		case frames <- readResult{frame: f, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil && !frame.Recoverable(err) {
			return
		}
	}
}

// closeConnectionAndRecover is deferred by every connection so that a panic
// only ever takes down the client that caused it.
func (c *connection) closeConnectionAndRecover() {
	if err := recover(); err != nil {
		c.logger.Errorf("[network] error in client communication: %s\n%s\n", err, debug.Stack())
	}

	c.cancel()
	if c.session != nil {
		c.server.unregister <- c.session
	}
	_ = c.conn.Close()

	c.server.openConns.Add(-1)
	metrics.ConnectionClosed()
	c.server.connections.Done()
	c.logger.Infof("[network] disconnected")
}

func (c *connection) logClose(err error) {
	switch {
	case errors.Is(err, errClosedByServer):
		c.logger.Debugf("[network] %v", err)
	case errors.Is(err, io.EOF):
		c.logger.Debugf("[network] client closed the connection")
	default:
		c.logger.Warnf("[network] closing connection: %v", err)
	}
}

func (c *connection) setState(state protocol.State) {
	c.state = state
	c.logger = c.logger.WithField("state", state.String())
}

func (c *connection) extendReadDeadline() {
	if d := c.server.Config.Network.ReadTimeout; d > 0 && c.state != protocol.Play {
		_ = c.conn.SetReadDeadline(time.Now().Add(d))
	}
}

func (c *connection) handleRead(ctx context.Context, res readResult) error {
	if res.err != nil {
		if frame.Recoverable(res.err) {
			metrics.ProtocolError("frame")
			c.logger.Warnf("[network] skipping malformed frame: %v", res.err)
			return nil
		}
		if errors.Is(res.err, io.EOF) {
			return res.err
		}
		return fmt.Errorf("error reading from client: %w", res.err)
	}

	f := res.frame
	metrics.FrameRead(c.state.String())
	c.logPacket(protocol.Serverbound, f.ID, f.Payload)
	c.extendReadDeadline()

	switch c.state {
	case protocol.Handshake:
		return c.handleHandshake(f)
	case protocol.Status:
		return c.handleStatus(f)
	case protocol.Login:
		return c.handleLogin(ctx, f)
	case protocol.Play:
		return c.handlePlay(f)
	}
	return fmt.Errorf("connection is in unknown state %d", c.state)
}

func (c *connection) handleOutbound(msg outboundMsg) error {
	switch msg.kind {
	case frameMsg:
		return c.writeFrame(msg.data)
	case disconnectMsg:
		return c.disconnect(msg.reason)
	case timeoutMsg:
		c.timeout.set(msg.until)
		c.logger.Infof("[network] timed out: %s", msg.reason)
	case untimeoutMsg:
		c.timeout.clear()
		c.logger.Infof("[network] timeout lifted")
	}
	return nil
}

// flushOutbound writes whatever the registry queued before the connection
// was cancelled.
func (c *connection) flushOutbound() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(flushTimeout))
	for {
		select {
		case msg := <-c.outbound:
			if err := c.handleOutbound(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

// disconnect tells the client why it is being dropped, if the current state
// has a packet for that, and returns the error that ends the connection.
func (c *connection) disconnect(reason string) error {
	var err error
	switch c.state {
	case protocol.Login:
		err = c.writePacket(&packets.LoginDisconnect{Reason: packets.ChatText(reason)})
	case protocol.Play:
		err = c.writePacket(&packets.PlayDisconnect{Reason: packets.ChatText(reason)})
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: disconnected: %s", errClosedByServer, reason)
}

// rejectPacket handles a packet that could not be decoded or does not belong
// in the current state. It is dropped, and the client is kicked for it if the
// server is configured to be strict.
func (c *connection) rejectPacket(err error) error {
	var fieldErr *protocol.FieldError
	if errors.As(err, &fieldErr) {
		metrics.ProtocolError("field")
	} else {
		metrics.ProtocolError("packet")
	}

	if !c.server.Config.Network.KickInvalidPacket {
		c.logger.Warnf("[network] dropping packet: %v", err)
		return nil
	}
	c.logger.Infof("[network] kicking client: %v", err)
	return c.disconnect(cases.Title(language.English).String(err.Error()))
}

func (c *connection) writePacket(p protocol.Packet) error {
	payload := protocol.Marshal(p)
	c.logPacket(protocol.Clientbound, p.ID(), payload)

	if err := frame.Write(c.conn, p.ID(), payload); err != nil {
		return fmt.Errorf("error writing %s: %w", p.Name(), err)
	}
	metrics.FrameWritten()
	return nil
}

// writeFrame writes a frame that was already encoded by the registry.
func (c *connection) writeFrame(data []byte) error {
	if c.server.Config.Debugging.PacketLoggingEnabled {
		if frames, _, err := frame.Split(data); err == nil && len(frames) == 1 {
			c.logPacket(protocol.Clientbound, frames[0].ID, frames[0].Payload)
		}
	}

	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("error writing frame: %w", err)
	}
	metrics.FrameWritten()
	return nil
}

func (c *connection) logPacket(direction protocol.Direction, id int32, payload []byte) {
	if !c.server.Config.Debugging.PacketLoggingEnabled {
		return
	}

	c.server.packetLogMu.Lock()
	defer c.server.packetLogMu.Unlock()
	craftdebug.PrintPacket(craftdebug.PrintPacketParams{
		Writer:    c.server.PacketLog,
		State:     c.state,
		Direction: direction,
		ID:        id,
		Payload:   payload,
		Interpret: c.server.Logger.IsLevelEnabled(logrus.DebugLevel),
	})
}
