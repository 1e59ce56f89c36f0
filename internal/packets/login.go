package packets

import (
	"encoding/json"

	"github.com/dcrodman/craftmine/internal/protocol"
)

// Packet ids for the Login state.
const (
	LoginStartType         = 0x00
	EncryptionResponseType = 0x01
	LoginDisconnectType    = 0x00
	EncryptionRequestType  = 0x01
	LoginSuccessType       = 0x02
)

// LoginStart is sent by the client with the name of the player logging in.
type LoginStart struct {
	Username string
}

func (*LoginStart) ID() int32    { return LoginStartType }
func (*LoginStart) Name() string { return "LoginStart" }
func (p *LoginStart) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("name", &p.Username, protocol.String(protocol.MaxNameLength)),
	}
}

// EncryptionRequest asks an online-mode client to authenticate and set up
// stream encryption using the server's public key.
type EncryptionRequest struct {
	ServerID          string
	PublicKeyLength   int32
	PublicKey         []byte
	VerifyTokenLength int32
	VerifyToken       []byte
}

// NewEncryptionRequest fills in the length fields from the key and token.
func NewEncryptionRequest(publicKey, verifyToken []byte) *EncryptionRequest {
	return &EncryptionRequest{
		ServerID:          "",
		PublicKeyLength:   int32(len(publicKey)),
		PublicKey:         publicKey,
		VerifyTokenLength: int32(len(verifyToken)),
		VerifyToken:       verifyToken,
	}
}

func (*EncryptionRequest) ID() int32    { return EncryptionRequestType }
func (*EncryptionRequest) Name() string { return "EncryptionRequest" }
func (p *EncryptionRequest) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("server_id", &p.ServerID, protocol.String(20)),
		protocol.Bind("pubkey_len", &p.PublicKeyLength, protocol.VarInt),
		protocol.Bind("pubkey", &p.PublicKey, protocol.Bytes(func() int { return int(p.PublicKeyLength) })),
		protocol.Bind("verify_token_len", &p.VerifyTokenLength, protocol.VarInt),
		protocol.Bind("verify_token", &p.VerifyToken, protocol.Bytes(func() int { return int(p.VerifyTokenLength) })),
	}
}

// EncryptionResponse is the client's answer to an EncryptionRequest. Both
// values are encrypted with the server's public key.
type EncryptionResponse struct {
	SharedSecretLength int32
	SharedSecret       []byte
	VerifyTokenLength  int32
	VerifyToken        []byte
}

func (*EncryptionResponse) ID() int32    { return EncryptionResponseType }
func (*EncryptionResponse) Name() string { return "EncryptionResponse" }
func (p *EncryptionResponse) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("shared_secret_len", &p.SharedSecretLength, protocol.VarInt),
		protocol.Bind("shared_secret", &p.SharedSecret, protocol.Bytes(func() int { return int(p.SharedSecretLength) })),
		protocol.Bind("verify_token_len", &p.VerifyTokenLength, protocol.VarInt),
		protocol.Bind("verify_token", &p.VerifyToken, protocol.Bytes(func() int { return int(p.VerifyTokenLength) })),
	}
}

// LoginSuccess completes the login and moves the connection into Play.
type LoginSuccess struct {
	// Hyphenated string form of the player's UUID.
	UUID     string
	Username string
}

func (*LoginSuccess) ID() int32    { return LoginSuccessType }
func (*LoginSuccess) Name() string { return "LoginSuccess" }
func (p *LoginSuccess) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("uuid", &p.UUID, protocol.String(36)),
		protocol.Bind("username", &p.Username, protocol.String(protocol.MaxNameLength)),
	}
}

// LoginDisconnect refuses the login with a chat component explaining why.
type LoginDisconnect struct {
	Reason string
}

func (*LoginDisconnect) ID() int32    { return LoginDisconnectType }
func (*LoginDisconnect) Name() string { return "LoginDisconnect" }
func (p *LoginDisconnect) Fields() []protocol.Field {
	return []protocol.Field{
		protocol.Bind("reason", &p.Reason, protocol.Chat),
	}
}

// TextComponent is the JSON chat format used for disconnect reasons.
type TextComponent struct {
	Text  string          `json:"text"`
	Extra []TextComponent `json:"extra,omitempty"`
}

// ChatText renders a plain message as a JSON chat component.
func ChatText(msg string) string {
	b, _ := json.Marshal(TextComponent{Text: msg})
	return string(b)
}
