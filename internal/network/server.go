// Package network accepts client connections, drives each one through the
// Handshake, Status, Login and Play states, and relays Play traffic between
// clients and the game loop over a bridge.Bridge.
package network

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/craftmine/internal/bridge"
	"github.com/dcrodman/craftmine/internal/core"
	"github.com/dcrodman/craftmine/internal/core/metrics"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
	"github.com/dcrodman/craftmine/internal/records"
	"github.com/dcrodman/craftmine/internal/status"
	"github.com/dcrodman/craftmine/internal/world"
)

const serverKeyBits = 1024

// Server owns the listening socket and the registry of logged in sessions.
//
// The session map is only ever touched by the registry goroutine started in
// Start. Connections hand it their sessions over channels and the game loop
// talks to it through Bridge.Commands.
type Server struct {
	Config  *core.Config
	Logger  *logrus.Logger
	Status  *status.Status
	Records records.Store
	World   world.Properties
	Bridge  *bridge.Bridge
	// Completes online mode logins. Defaults to one that refuses every login.
	Authenticator Authenticator
	// Destination for packet dumps when packet logging is enabled. Defaults to stdout.
	PacketLog   io.Writer
	packetLogMu sync.Mutex

	listener   net.Listener
	serverKey  *rsa.PrivateKey
	publicKey  []byte
	register   chan *Session
	unregister chan *Session
	sessions   map[uuid.UUID]*Session

	connections sync.WaitGroup
	openConns   atomic.Int32
	entityIDs   atomic.Int32
	done        chan struct{}
}

// Start begins accepting connections on listener, or on the configured
// address if listener is nil. It returns once the server is accepting; the
// server runs until ctx is cancelled, after which Wait returns once every
// connection has been closed.
func (s *Server) Start(ctx context.Context, listener net.Listener) error {
	if s.Authenticator == nil {
		s.Authenticator = refuseAuthenticator{}
	}
	if s.PacketLog == nil {
		s.PacketLog = os.Stdout
	}

	if s.Config.Auth.OnlineMode {
		if err := s.generateServerKey(); err != nil {
			return err
		}
	}

	if listener == nil {
		var err error
		if listener, err = s.createSocket(); err != nil {
			return fmt.Errorf("error creating socket on %s: %w", s.Config.ListenAddress(), err)
		}
	}
	s.listener = listener

	s.register = make(chan *Session)
	s.unregister = make(chan *Session)
	s.sessions = make(map[uuid.UUID]*Session)
	s.done = make(chan struct{})

	go s.startBlockingLoop(ctx)
	return nil
}

// Addr is the address the server is accepting connections on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Wait blocks until the server has shut down and every connection goroutine
// has returned.
func (s *Server) Wait() {
	<-s.done
}

func (s *Server) createSocket() (net.Listener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", s.Config.ListenAddress())
	if err != nil {
		return nil, fmt.Errorf("error resolving address: %w", err)
	}
	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %w", err)
	}
	return socket, nil
}

func (s *Server) generateServerKey() error {
	key, err := rsa.GenerateKey(rand.Reader, serverKeyBits)
	if err != nil {
		return fmt.Errorf("error generating server key: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("error encoding server key: %w", err)
	}
	s.serverKey = key
	s.publicKey = der
	return nil
}

// startBlockingLoop is the registry. Everything that reads or writes the
// session map happens here.
func (s *Server) startBlockingLoop(ctx context.Context) {
	defer close(s.done)

	s.Logger.Infof("[network] waiting for connections on %v", s.listener.Addr())

	connections := make(chan net.Conn)
	go s.acceptConnections(ctx, connections)

handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case conn := <-connections:
			s.spawnConnection(ctx, conn)
		case sess := <-s.register:
			s.addSession(sess)
		case sess := <-s.unregister:
			s.removeSession(sess)
		case cmd := <-s.Bridge.Commands:
			s.handleCommand(cmd)
		}
	}

	s.Logger.Infof("[network] shutting down (waiting for connections to close)")
	_ = s.listener.Close()

	// Connections still need to unregister on their way out.
	closed := make(chan struct{})
	go func() {
		s.connections.Wait()
		close(closed)
	}()
	for {
		select {
		case <-closed:
			s.Logger.Infof("[network] exited")
			return
		case sess := <-s.register:
			s.addSession(sess)
		case sess := <-s.unregister:
			s.removeSession(sess)
		}
	}
}

func (s *Server) acceptConnections(ctx context.Context, connections chan<- net.Conn) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.Logger.Warnf("[network] failed to accept connection: %v", err)
			continue
		}

		select {
		case connections <- conn:
		case <-ctx.Done():
			_ = conn.Close()
			return
		}
	}
}

func (s *Server) spawnConnection(ctx context.Context, conn net.Conn) {
	if limit := s.Config.MaxConnections; limit > 0 && int(s.openConns.Load()) >= limit {
		s.Logger.Infof("[network] refused connection from %s: server is full", conn.RemoteAddr())
		metrics.ConnectionRefused()
		_ = conn.Close()
		return
	}

	s.openConns.Add(1)
	s.connections.Add(1)
	metrics.ConnectionAccepted()

	connCtx, cancel := context.WithCancel(ctx)
	c := newConnection(s, conn, cancel)
	go c.serve(connCtx)
}

func (s *Server) addSession(sess *Session) {
	if old, ok := s.sessions[sess.UUID]; ok {
		s.Logger.Infof("[network] %s (%s) logged in again from %s", sess.Username, sess.UUID, sess.RemoteAddr)
		s.deliver(old, outboundMsg{kind: disconnectMsg, reason: "You logged in from another location"})
		s.Bridge.Events.Push(bridge.NetRecvMsg{UUID: old.UUID, Event: bridge.EndSession{}})
	}

	s.sessions[sess.UUID] = sess
	metrics.SetSessions(len(s.sessions))
	s.Logger.Infof("[network] %s (%s) joined the game", sess.Username, sess.UUID)
	s.Bridge.Events.Push(bridge.NetRecvMsg{UUID: sess.UUID, Event: bridge.NewSession{Username: sess.Username}})
	close(sess.joined)
}

func (s *Server) removeSession(sess *Session) {
	// A replaced session has already had its EndSession sent.
	if current, ok := s.sessions[sess.UUID]; !ok || current != sess {
		return
	}

	delete(s.sessions, sess.UUID)
	metrics.SetSessions(len(s.sessions))
	s.Logger.Infof("[network] %s (%s) left the game", sess.Username, sess.UUID)
	s.Bridge.Events.Push(bridge.NetRecvMsg{UUID: sess.UUID, Event: bridge.EndSession{}})
}

func (s *Server) handleCommand(cmd bridge.NetSendMsg) {
	metrics.Command(bridge.Kind(cmd))

	switch cmd := cmd.(type) {
	case bridge.All:
		msg := outboundMsg{kind: frameMsg, data: frame.Encode(cmd.ID, cmd.Data)}
		for _, sess := range s.sessions {
			s.deliver(sess, msg)
		}
	case bridge.Broadcast:
		msg := outboundMsg{kind: frameMsg, data: frame.Encode(cmd.ID, cmd.Data)}
		for _, id := range cmd.UUIDs {
			if sess, ok := s.lookup(id, cmd); ok {
				s.deliver(sess, msg)
			}
		}
	case bridge.Single:
		if sess, ok := s.lookup(cmd.UUID, cmd); ok {
			s.deliver(sess, outboundMsg{kind: frameMsg, data: frame.Encode(cmd.ID, cmd.Data)})
		}
	case bridge.Disconnect:
		if sess, ok := s.lookup(cmd.UUID, cmd); ok {
			s.deliver(sess, outboundMsg{kind: disconnectMsg, reason: cmd.Reason})
		}
	case bridge.SetTimeout:
		if sess, ok := s.lookup(cmd.UUID, cmd); ok {
			msg := outboundMsg{kind: timeoutMsg, reason: cmd.Reason}
			if cmd.Duration > 0 {
				msg.until = time.Now().Add(cmd.Duration)
			}
			s.deliver(sess, msg)
		}
	case bridge.UnsetTimeout:
		if sess, ok := s.lookup(cmd.UUID, cmd); ok {
			s.deliver(sess, outboundMsg{kind: untimeoutMsg})
		}
	default:
		s.Logger.Warnf("[network] ignoring unsupported command %T", cmd)
	}
}

func (s *Server) lookup(id uuid.UUID, cmd bridge.NetSendMsg) (*Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		s.Logger.Warnf("[network] %s command for unknown session %s", bridge.Kind(cmd), id)
	}
	return sess, ok
}

// deliver hands msg to the session's connection without blocking the
// registry. A connection that has fallen this far behind is dropped.
func (s *Server) deliver(sess *Session, msg outboundMsg) {
	select {
	case sess.outbound <- msg:
	default:
		s.Logger.Warnf("[network] disconnecting %s (%s): outbound queue is full", sess.Username, sess.UUID)
		sess.cancel()
	}
}

func (s *Server) nextEntityID() int32 {
	return s.entityIDs.Add(1)
}
