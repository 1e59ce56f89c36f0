package game

import (
	"context"

	"github.com/dcrodman/craftmine/internal/bridge"
)

// World is where gameplay plugs into the loop. Every method is called from
// the loop goroutine, one at a time.
type World interface {
	PlayerJoined(ctx context.Context, p *Player, out Outbox)
	PlayerLeft(ctx context.Context, p *Player, out Outbox)
	// HandlePacket receives every Play packet from the player, undecoded.
	HandlePacket(ctx context.Context, p *Player, id int32, data []byte, out Outbox)
}

// Outbox queues commands for the network server.
type Outbox interface {
	Send(msg bridge.NetSendMsg)
}

// NopWorld ignores everything. Embed it to implement only part of World.
type NopWorld struct{}

func (NopWorld) PlayerJoined(context.Context, *Player, Outbox)                {}
func (NopWorld) PlayerLeft(context.Context, *Player, Outbox)                  {}
func (NopWorld) HandlePacket(context.Context, *Player, int32, []byte, Outbox) {}
