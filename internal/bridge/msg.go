// Package bridge is the contract between the network server and the game loop.
// Events flow from the network to the game through an unbounded Queue so a
// connection never waits on the game's tick rate; commands flow back through a
// bounded channel so the game cannot outrun the network.
package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dcrodman/craftmine/internal/protocol"
)

// Event is something that happened to a session on the network side.
type Event interface {
	event()
}

// NewSession is emitted once a player has logged in and entered Play.
type NewSession struct {
	Username string
}

// EndSession is emitted once a session's connection has gone away, or when it
// was replaced by a newer login with the same UUID.
type EndSession struct{}

// Packet is a Play packet received from the client, left undecoded.
type Packet struct {
	ID   int32
	Data []byte
}

func (NewSession) event() {}
func (EndSession) event() {}
func (Packet) event()     {}

// NetRecvMsg is an Event tagged with the session it belongs to.
type NetRecvMsg struct {
	UUID  uuid.UUID
	Event Event
}

// NetSendMsg is a command from the game loop to the network server.
type NetSendMsg interface {
	command() string
}

// All sends a packet to every session.
type All struct {
	ID   int32
	Data []byte
}

// Broadcast sends a packet to each of the listed sessions.
type Broadcast struct {
	UUIDs []uuid.UUID
	ID    int32
	Data  []byte
}

// Single sends a packet to one session.
type Single struct {
	UUID uuid.UUID
	ID   int32
	Data []byte
}

// Disconnect kicks a session with the given reason.
type Disconnect struct {
	UUID   uuid.UUID
	Reason string
}

// SetTimeout stops forwarding a session's packets to the game for Duration,
// or until UnsetTimeout when Duration is zero.
type SetTimeout struct {
	UUID     uuid.UUID
	Duration time.Duration
	Reason   string
}

// UnsetTimeout lifts a timeout early.
type UnsetTimeout struct {
	UUID uuid.UUID
}

func (All) command() string          { return "all" }
func (Broadcast) command() string    { return "broadcast" }
func (Single) command() string       { return "single" }
func (Disconnect) command() string   { return "disconnect" }
func (SetTimeout) command() string   { return "set_timeout" }
func (UnsetTimeout) command() string { return "unset_timeout" }

// Kind names the command, for logs and metrics.
func Kind(msg NetSendMsg) string {
	return msg.command()
}

// SinglePacket builds a Single command from an encodable packet.
func SinglePacket(id uuid.UUID, p protocol.Packet) Single {
	return Single{UUID: id, ID: p.ID(), Data: protocol.Marshal(p)}
}

// AllPacket builds an All command from an encodable packet.
func AllPacket(p protocol.Packet) All {
	return All{ID: p.ID(), Data: protocol.Marshal(p)}
}

// Bridge bundles both directions of the contract.
type Bridge struct {
	Events   *Queue
	Commands chan NetSendMsg
}

// New creates a Bridge whose command channel holds commandBuffer commands.
func New(commandBuffer int) *Bridge {
	return &Bridge{
		Events:   NewQueue(),
		Commands: make(chan NetSendMsg, commandBuffer),
	}
}

// Send queues a command for the network server, blocking while the command
// channel is full.
func (b *Bridge) Send(ctx context.Context, msg NetSendMsg) error {
	select {
	case b.Commands <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
