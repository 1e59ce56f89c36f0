package packets

import "github.com/dcrodman/craftmine/internal/protocol"

// Packet ids for the Status state.
const (
	StatusRequestType  = 0x00
	StatusPingType     = 0x01
	StatusResponseType = 0x00
	StatusPongType     = 0x01
)

// StatusRequest asks for the server list entry. It has no body.
type StatusRequest struct{}

func (*StatusRequest) ID() int32                { return StatusRequestType }
func (*StatusRequest) Name() string             { return "StatusRequest" }
func (*StatusRequest) Fields() []protocol.Field { return nil }

// StatusResponse carries the server list entry as a JSON document.
type StatusResponse struct {
	JSON string
}

func (*StatusResponse) ID() int32    { return StatusResponseType }
func (*StatusResponse) Name() string { return "StatusResponse" }
func (p *StatusResponse) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("json", &p.JSON, protocol.String(protocol.DefaultMaxStringLength)),
	}
}

// StatusPing is sent by the client to measure latency. The server answers
// with a StatusPong holding the same payload.
type StatusPing struct {
	Payload int64
}

func (*StatusPing) ID() int32    { return StatusPingType }
func (*StatusPing) Name() string { return "StatusPing" }
func (p *StatusPing) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("payload", &p.Payload, protocol.Long),
	}
}

type StatusPong struct {
	Payload int64
}

func (*StatusPong) ID() int32    { return StatusPongType }
func (*StatusPong) Name() string { return "StatusPong" }
func (p *StatusPong) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("payload", &p.Payload, protocol.Long),
	}
}
