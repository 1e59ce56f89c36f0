package network

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
)

// Session is a connection that has finished logging in.
type Session struct {
	UUID       uuid.UUID
	Username   string
	EntityID   int32
	RemoteAddr net.Addr
	// Set when the login went through an Authenticator.
	Encryption *EncryptionContext

	outbound chan outboundMsg
	cancel   context.CancelFunc
	// Closed by the registry once NewSession has been queued.
	joined   chan struct{}
}

type outboundKind int

const (
	frameMsg outboundKind = iota
	disconnectMsg
	timeoutMsg
	untimeoutMsg
)

// outboundMsg is what the registry sends to a connection.
type outboundMsg struct {
	kind outboundKind
	// Complete frame, length prefix included.
	data   []byte
	reason string
	// Zero means the timeout lasts until lifted.
	until time.Time
}

// timeout tracks whether a session's Play packets are being withheld from the
// game loop.
type timeout struct {
	active bool
	until  time.Time
}

func (t *timeout) set(until time.Time) {
	t.active = true
	t.until = until
}

func (t *timeout) clear() {
	t.active = false
	t.until = time.Time{}
}

func (t *timeout) in(now time.Time) bool {
	if !t.active {
		return false
	}
	if !t.until.IsZero() && !now.Before(t.until) {
		t.clear()
		return false
	}
	return true
}
