package packets

import (
	"fmt"

	"github.com/dcrodman/craftmine/internal/protocol"
)

type registryKey struct {
	state     protocol.State
	direction protocol.Direction
	id        int32
}

// Constructors for every declared packet, keyed by where it can appear.
var registry = map[registryKey]func() protocol.Packet{
	{protocol.Handshake, protocol.Serverbound, HandshakeType}: func() protocol.Packet { return &Handshake{} },

	{protocol.Status, protocol.Serverbound, StatusRequestType}:  func() protocol.Packet { return &StatusRequest{} },
	{protocol.Status, protocol.Serverbound, StatusPingType}:     func() protocol.Packet { return &StatusPing{} },
	{protocol.Status, protocol.Clientbound, StatusResponseType}: func() protocol.Packet { return &StatusResponse{} },
	{protocol.Status, protocol.Clientbound, StatusPongType}:     func() protocol.Packet { return &StatusPong{} },

	{protocol.Login, protocol.Serverbound, LoginStartType}:         func() protocol.Packet { return &LoginStart{} },
	{protocol.Login, protocol.Serverbound, EncryptionResponseType}: func() protocol.Packet { return &EncryptionResponse{} },
	{protocol.Login, protocol.Clientbound, LoginDisconnectType}:    func() protocol.Packet { return &LoginDisconnect{} },
	{protocol.Login, protocol.Clientbound, EncryptionRequestType}:  func() protocol.Packet { return &EncryptionRequest{} },
	{protocol.Login, protocol.Clientbound, LoginSuccessType}:       func() protocol.Packet { return &LoginSuccess{} },

	{protocol.Play, protocol.Serverbound, KeepAliveServerboundType}:      func() protocol.Packet { return &KeepAliveResponse{} },
	{protocol.Play, protocol.Clientbound, PlayDisconnectType}:            func() protocol.Packet { return &PlayDisconnect{} },
	{protocol.Play, protocol.Clientbound, KeepAliveClientboundType}:      func() protocol.Packet { return &KeepAlive{} },
	{protocol.Play, protocol.Clientbound, JoinGameType}:                  func() protocol.Packet { return &JoinGame{} },
	{protocol.Play, protocol.Clientbound, PlayerPositionAndLookType}:     func() protocol.Packet { return &PlayerPositionAndLook{} },
	{protocol.Play, protocol.Clientbound, HeldItemChangeClientboundType}: func() protocol.Packet { return &HeldItemChange{} },
	{protocol.Play, protocol.Clientbound, SpawnPositionType}:             func() protocol.Packet { return &SpawnPosition{} },
}

// New returns an empty packet for the id, or false if no packet with that id
// is declared for the state and direction.
func New(state protocol.State, direction protocol.Direction, id int32) (protocol.Packet, bool) {
	newFn, ok := registry[registryKey{state, direction, id}]
	if !ok {
		return nil, false
	}
	return newFn(), true
}

// Decode looks up the packet for the id and decodes payload into it.
func Decode(state protocol.State, direction protocol.Direction, id int32, payload []byte) (protocol.Packet, error) {
	p, ok := New(state, direction, id)
	if !ok {
		return nil, fmt.Errorf("unknown %s packet 0x%02X in state %s", direction, id, state)
	}
	if err := protocol.Unmarshal(p, payload); err != nil {
		return p, err
	}
	return p, nil
}

// Name returns a human readable name for the packet, used in logs.
func Name(state protocol.State, direction protocol.Direction, id int32) string {
	if p, ok := New(state, direction, id); ok {
		return p.Name()
	}
	return fmt.Sprintf("Unknown(0x%02X)", id)
}
