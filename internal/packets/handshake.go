// Package packets declares the packets the server understands. Each packet is
// a plain struct whose Fields method lists its wire layout; the generic codec
// in the protocol package does the rest.
package packets

import "github.com/dcrodman/craftmine/internal/protocol"

// Packet ids for the Handshake state.
const (
	HandshakeType = 0x00
)

// Values of Handshake.NextState.
const (
	NextStateStatus = 1
	NextStateLogin  = 2
)

// Handshake is the first packet a client sends on any connection and selects
// whether it wants the server status or to log in.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

func (*Handshake) ID() int32    { return HandshakeType }
func (*Handshake) Name() string { return "Handshake" }
func (p *Handshake) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("protocol_version", &p.ProtocolVersion, protocol.VarInt),
		protocol.Bind("server_address", &p.ServerAddress, protocol.String(255)),
		protocol.Bind("server_port", &p.ServerPort, protocol.UShort),
		protocol.Bind("next_state", &p.NextState, protocol.VarInt),
	}
}
