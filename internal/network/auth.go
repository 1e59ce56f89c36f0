package network

import (
	"context"
	"crypto/rsa"
	"errors"

	"github.com/google/uuid"

	"github.com/dcrodman/craftmine/internal/packets"
)

// ErrOnlineModeUnsupported is returned by the default Authenticator.
var ErrOnlineModeUnsupported = errors.New("online mode logins are not supported by this server")

// AuthRequest carries everything needed to finish an online mode login.
type AuthRequest struct {
	Username    string
	RemoteAddr  string
	ServerKey   *rsa.PrivateKey
	PublicKey   []byte
	VerifyToken []byte
	Response    *packets.EncryptionResponse
}

// AuthResult is the identity of a player whose login was accepted.
type AuthResult struct {
	UUID       uuid.UUID
	Username   string
	Encryption *EncryptionContext
}

// EncryptionContext holds the shared secret negotiated during an online login.
type EncryptionContext struct {
	SharedSecret []byte
}

// Authenticator verifies an EncryptionResponse and identifies the player.
// Returning an error refuses the login; the error text is shown to the player.
type Authenticator interface {
	Authenticate(ctx context.Context, req AuthRequest) (*AuthResult, error)
}

type refuseAuthenticator struct{}

func (refuseAuthenticator) Authenticate(context.Context, AuthRequest) (*AuthResult, error) {
	return nil, ErrOnlineModeUnsupported
}
