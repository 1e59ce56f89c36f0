package network

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
	"github.com/dcrodman/craftmine/internal/records"
)

const verifyTokenLength = 4

func (c *connection) handleLogin(ctx context.Context, f frame.Frame) error {
	p, err := packets.Decode(protocol.Login, protocol.Serverbound, f.ID, f.Payload)
	if err != nil {
		return c.rejectPacket(err)
	}

	switch p := p.(type) {
	case *packets.LoginStart:
		return c.handleLoginStart(ctx, p)
	case *packets.EncryptionResponse:
		return c.handleEncryptionResponse(ctx, p)
	}
	return c.rejectPacket(fmt.Errorf("unexpected %s packet", p.Name()))
}

func (c *connection) handleLoginStart(ctx context.Context, p *packets.LoginStart) error {
	if c.username != "" {
		return c.rejectPacket(errors.New("login already started"))
	}
	if p.Username == "" {
		return c.disconnect("Invalid username")
	}
	switch {
	case c.protocolVersion < protocol.Version:
		return c.disconnect(fmt.Sprintf("Outdated client! Please use %s", protocol.VersionName))
	case c.protocolVersion > protocol.Version:
		return c.disconnect(fmt.Sprintf("Outdated server! I'm still on %s", protocol.VersionName))
	}

	c.username = p.Username
	c.logger = c.logger.WithField("username", p.Username)

	if !c.server.Config.Auth.OnlineMode {
		return c.completeLogin(ctx, records.OfflineUUID(p.Username), p.Username, nil)
	}

	c.verifyToken = make([]byte, verifyTokenLength)
	if _, err := rand.Read(c.verifyToken); err != nil {
		return fmt.Errorf("error generating verify token: %w", err)
	}
	return c.writePacket(packets.NewEncryptionRequest(c.server.publicKey, c.verifyToken))
}

func (c *connection) handleEncryptionResponse(ctx context.Context, p *packets.EncryptionResponse) error {
	if c.verifyToken == nil {
		return c.rejectPacket(errors.New("encryption response sent before login start"))
	}

	result, err := c.server.Authenticator.Authenticate(ctx, AuthRequest{
		Username:    c.username,
		RemoteAddr:  c.conn.RemoteAddr().String(),
		ServerKey:   c.server.serverKey,
		PublicKey:   c.server.publicKey,
		VerifyToken: c.verifyToken,
		Response:    p,
	})
	if err != nil {
		c.logger.Infof("[network] login refused: %v", err)
		return c.disconnect(cases.Title(language.English).String(err.Error()))
	}
	return c.completeLogin(ctx, result.UUID, result.Username, result.Encryption)
}

// completeLogin moves the connection into Play and registers its session.
func (c *connection) completeLogin(ctx context.Context, id uuid.UUID, username string, enc *EncryptionContext) error {
	record, err := c.server.Records.LoadOrCreate(ctx, id, username)
	if err != nil {
		c.logger.Errorf("[network] error loading user record: %v", err)
		return c.disconnect(cases.Title(language.English).String("failed to access user records"))
	}

	if err := c.writePacket(&packets.LoginSuccess{UUID: id.String(), Username: username}); err != nil {
		return err
	}

	c.setState(protocol.Play)
	_ = c.conn.SetReadDeadline(time.Time{})

	c.session = &Session{
		UUID:       id,
		Username:   username,
		EntityID:   c.server.nextEntityID(),
		RemoteAddr: c.conn.RemoteAddr(),
		Encryption: enc,
		outbound:   c.outbound,
		cancel:     c.cancel,
		joined:     make(chan struct{}),
	}
	c.server.register <- c.session
	// Play packets read after this point must reach the game loop after the
	// session's NewSession.
	<-c.session.joined

	return c.sendJoinGame(record)
}
