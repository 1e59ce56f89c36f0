package main

import (
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/dcrodman/craftmine/internal/core/debug"
	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/protocol/frame"
)

// conversation is the sniffer's view of one client connection.
type conversation struct {
	state protocol.State
	// Bytes that don't yet make up a whole frame, per direction.
	pending map[protocol.Direction][]byte
}

type sniffer struct {
	Writer            io.Writer
	ServerPort        uint16
	Interpret         bool
	TruncateThreshold int

	// Keyed by the client's address and port.
	conversations map[string]*conversation
}

func (s *sniffer) handleSegment(network gopacket.Flow, tcp *layers.TCP) {
	var (
		client    string
		direction protocol.Direction
	)
	switch {
	case uint16(tcp.DstPort) == s.ServerPort:
		client = fmt.Sprintf("%v:%d", network.Src(), tcp.SrcPort)
		direction = protocol.Serverbound
	case uint16(tcp.SrcPort) == s.ServerPort:
		client = fmt.Sprintf("%v:%d", network.Dst(), tcp.DstPort)
		direction = protocol.Clientbound
	default:
		return
	}

	if len(tcp.Payload) > 0 {
		s.handlePayload(client, direction, tcp.Payload)
	}
	if tcp.FIN || tcp.RST {
		delete(s.conversations, client)
	}
}

// handlePayload buffers data until it holds whole frames, then prints them.
func (s *sniffer) handlePayload(client string, direction protocol.Direction, data []byte) {
	if s.conversations == nil {
		s.conversations = make(map[string]*conversation)
	}
	conv, ok := s.conversations[client]
	if !ok {
		conv = &conversation{state: protocol.Handshake, pending: make(map[protocol.Direction][]byte)}
		s.conversations[client] = conv
		fmt.Fprintf(s.Writer, "new connection from %s\n\n", client)
	}

	buf := append(conv.pending[direction], data...)
	frames, rest, err := frame.Split(buf)
	for _, f := range frames {
		s.printFrame(client, conv, direction, f)
		s.trackState(conv, direction, f)
	}
	if err != nil {
		fmt.Fprintf(s.Writer, "%s: dropping %d bytes: %v\n\n", client, len(rest), err)
		rest = nil
	}
	conv.pending[direction] = append([]byte(nil), rest...)
}

func (s *sniffer) printFrame(client string, conv *conversation, direction protocol.Direction, f frame.Frame) {
	fmt.Fprintf(s.Writer, "%s ", client)
	debug.PrintPacket(debug.PrintPacketParams{
		Writer:            s.Writer,
		State:             conv.state,
		Direction:         direction,
		ID:                f.ID,
		Payload:           f.Payload,
		Interpret:         s.Interpret,
		TruncateThreshold: s.TruncateThreshold,
	})
}

// trackState follows the connection through the same transitions the server
// makes so that later frames are named for the right state.
func (s *sniffer) trackState(conv *conversation, direction protocol.Direction, f frame.Frame) {
	switch {
	case conv.state == protocol.Handshake && direction == protocol.Serverbound && f.ID == packets.HandshakeType:
		var hs packets.Handshake
		if err := protocol.Unmarshal(&hs, f.Payload); err != nil {
			return
		}
		switch hs.NextState {
		case packets.NextStateStatus:
			conv.state = protocol.Status
		case packets.NextStateLogin:
			conv.state = protocol.Login
		}
	case conv.state == protocol.Login && direction == protocol.Clientbound && f.ID == packets.LoginSuccessType:
		conv.state = protocol.Play
	}
}
