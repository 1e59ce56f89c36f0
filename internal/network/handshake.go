package network

import (
	"fmt"

	"github.com/dcrodman/craftmine/internal/core/metrics"
	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
)

// handleHandshake picks the next state. Anything wrong with the handshake
// closes the connection regardless of the kick policy.
func (c *connection) handleHandshake(f frame.Frame) error {
	p, err := packets.Decode(protocol.Handshake, protocol.Serverbound, f.ID, f.Payload)
	if err != nil {
		metrics.ProtocolError("packet")
		return fmt.Errorf("invalid handshake: %w", err)
	}

	hs := p.(*packets.Handshake)
	c.protocolVersion = hs.ProtocolVersion

	switch hs.NextState {
	case packets.NextStateStatus:
		c.setState(protocol.Status)
	case packets.NextStateLogin:
		c.setState(protocol.Login)
	default:
		metrics.ProtocolError("packet")
		return fmt.Errorf("invalid handshake: unknown next state %d", hs.NextState)
	}
	return nil
}
