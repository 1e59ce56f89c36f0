package network

import (
	"fmt"

	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
)

func (c *connection) handleStatus(f frame.Frame) error {
	p, err := packets.Decode(protocol.Status, protocol.Serverbound, f.ID, f.Payload)
	if err != nil {
		return c.rejectPacket(err)
	}

	switch p := p.(type) {
	case *packets.StatusRequest:
		body, err := c.server.Status.Snapshot().JSON()
		if err != nil {
			return fmt.Errorf("error building status response: %w", err)
		}
		return c.writePacket(&packets.StatusResponse{JSON: body})
	case *packets.StatusPing:
		if err := c.writePacket(&packets.StatusPong{Payload: p.Payload}); err != nil {
			return err
		}
		// The client has everything it needs from us once it has the pong.
		return fmt.Errorf("%w: status exchange complete", errClosedByServer)
	}
	return c.rejectPacket(fmt.Errorf("unexpected %s packet", p.Name()))
}
