package network

import (
	"time"

	"github.com/dcrodman/craftmine/internal/bridge"
	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
	"github.com/dcrodman/craftmine/internal/records"
	"github.com/dcrodman/craftmine/internal/world"
)

// handlePlay forwards the packet to the game loop as-is. Keep alive responses
// get through a timeout so that a timed out player is not dropped for them.
func (c *connection) handlePlay(f frame.Frame) error {
	if f.ID != packets.KeepAliveServerboundType && c.timeout.in(time.Now()) {
		c.logger.Debugf("[network] dropping packet 0x%02X while timed out", f.ID)
		return nil
	}

	c.server.Bridge.Events.Push(bridge.NetRecvMsg{
		UUID:  c.session.UUID,
		Event: bridge.Packet{ID: f.ID, Data: f.Payload},
	})
	return nil
}

// sendJoinGame sends the packets a client needs to leave the loading screen.
func (c *connection) sendJoinGame(record *records.UserRecord) error {
	w := c.server.World
	dimension, err := world.ParseDimension(record.World)
	if err != nil {
		c.logger.Warnf("[network] %v, using %s", err, w.Dimension)
		dimension = w.Dimension
	}

	toSend := []protocol.Packet{
		&packets.JoinGame{
			EntityID:            c.session.EntityID,
			Gamemode:            uint8(record.Gamemode),
			Dimension:           int32(dimension),
			HashedSeed:          w.HashedSeed(),
			MaxPlayers:          w.MaxPlayers,
			LevelType:           w.LevelType,
			ViewDistance:        w.ViewDistance,
			ReducedDebugInfo:    w.ReducedDebugInfo,
			EnableRespawnScreen: w.EnableRespawnScreen,
		},
		&packets.HeldItemChange{Slot: 0},
		&packets.SpawnPosition{
			Location: protocol.Position{X: w.Spawn.X, Y: w.Spawn.Y, Z: w.Spawn.Z},
		},
		&packets.PlayerPositionAndLook{
			X:          record.X,
			Y:          record.Y,
			Z:          record.Z,
			Yaw:        record.Yaw,
			Pitch:      record.Pitch,
			TeleportID: 1,
		},
	}
	for _, p := range toSend {
		if err := c.writePacket(p); err != nil {
			return err
		}
	}
	return nil
}
