package packets

import "github.com/dcrodman/craftmine/internal/protocol"

// Packet ids for the Play state that the server itself decodes or sends.
// Everything else received in Play is forwarded to the game loop undecoded.
const (
	PlayDisconnectType            = 0x1B
	KeepAliveClientboundType      = 0x21
	JoinGameType                  = 0x26
	PlayerPositionAndLookType     = 0x36
	HeldItemChangeClientboundType = 0x40
	SpawnPositionType             = 0x4E

	KeepAliveServerboundType = 0x0F
)

// JoinGame is the first packet sent once a connection enters Play.
type JoinGame struct {
	EntityID            int32
	Gamemode            uint8
	Dimension           int32
	HashedSeed          int64
	MaxPlayers          uint8
	LevelType           string
	ViewDistance        int32
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
}

func (*JoinGame) ID() int32    { return JoinGameType }
func (*JoinGame) Name() string { return "JoinGame" }
func (p *JoinGame) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("entity_id", &p.EntityID, protocol.Int),
		protocol.Bind("gamemode", &p.Gamemode, protocol.UByte),
		protocol.Bind("dimension", &p.Dimension, protocol.Int),
		protocol.Bind("hashed_seed", &p.HashedSeed, protocol.Long),
		protocol.Bind("max_players", &p.MaxPlayers, protocol.UByte),
		protocol.Bind("level_type", &p.LevelType, protocol.String(16)),
		protocol.Bind("view_distance", &p.ViewDistance, protocol.VarInt),
		protocol.Bind("reduced_debug_info", &p.ReducedDebugInfo, protocol.Bool),
		protocol.Bind("enable_respawn_screen", &p.EnableRespawnScreen, protocol.Bool),
	}
}

// PlayDisconnect kicks a player that is already in game.
type PlayDisconnect struct {
	Reason string
}

func (*PlayDisconnect) ID() int32    { return PlayDisconnectType }
func (*PlayDisconnect) Name() string { return "PlayDisconnect" }
func (p *PlayDisconnect) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("reason", &p.Reason, protocol.Chat),
	}
}

// KeepAlive is sent periodically and must be echoed back by the client.
type KeepAlive struct {
	KeepAliveID int64
}

func (*KeepAlive) ID() int32    { return KeepAliveClientboundType }
func (*KeepAlive) Name() string { return "KeepAlive" }
func (p *KeepAlive) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("keep_alive_id", &p.KeepAliveID, protocol.Long),
	}
}

// KeepAliveResponse is the client's echo of a KeepAlive.
type KeepAliveResponse struct {
	KeepAliveID int64
}

func (*KeepAliveResponse) ID() int32    { return KeepAliveServerboundType }
func (*KeepAliveResponse) Name() string { return "KeepAliveResponse" }
func (p *KeepAliveResponse) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("keep_alive_id", &p.KeepAliveID, protocol.Long),
	}
}

// HeldItemChange selects the player's hotbar slot (0-8).
type HeldItemChange struct {
	Slot int8
}

func (*HeldItemChange) ID() int32    { return HeldItemChangeClientboundType }
func (*HeldItemChange) Name() string { return "HeldItemChange" }
func (p *HeldItemChange) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("slot", &p.Slot, protocol.Byte),
	}
}

// SpawnPosition sets the point the compass points to.
type SpawnPosition struct {
	Location protocol.Position
}

func (*SpawnPosition) ID() int32    { return SpawnPositionType }
func (*SpawnPosition) Name() string { return "SpawnPosition" }
func (p *SpawnPosition) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("location", &p.Location, protocol.BlockPosition),
	}
}

// PlayerPositionAndLook teleports the player. It also dismisses the client's
// loading screen.
type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	// Bit field marking which of the values above are relative.
	Flags      int8
	TeleportID int32
}

func (*PlayerPositionAndLook) ID() int32    { return PlayerPositionAndLookType }
func (*PlayerPositionAndLook) Name() string { return "PlayerPositionAndLook" }
func (p *PlayerPositionAndLook) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("x", &p.X, protocol.Double),
		protocol.Bind("y", &p.Y, protocol.Double),
		protocol.Bind("z", &p.Z, protocol.Double),
		protocol.Bind("yaw", &p.Yaw, protocol.Float),
		protocol.Bind("pitch", &p.Pitch, protocol.Float),
		protocol.Bind("flags", &p.Flags, protocol.Byte),
		protocol.Bind("teleport_id", &p.TeleportID, protocol.VarInt),
	}
}
