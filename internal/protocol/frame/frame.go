// Package frame reads and writes the length-prefixed frames that carry every
// packet: VarInt(length) VarInt(packet id) payload, where length counts the
// packet id and payload bytes.
package frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/dcrodman/craftmine/internal/protocol"
)

// MaxFrameLength is the largest length a 3 byte VarInt prefix can declare,
// which is the most the client will ever send.
const MaxFrameLength = 2097151

var (
	// ErrMalformedLength means the length prefix was not a valid VarInt. The
	// offending byte has been skipped and the next read can proceed.
	ErrMalformedLength = errors.New("frame: malformed length prefix")
	// ErrMalformedID means the frame body did not start with a valid packet id.
	// The whole frame has been consumed.
	ErrMalformedID = errors.New("frame: malformed packet id")
	// ErrFrameTooLarge means the declared length is negative or above
	// MaxFrameLength. The stream cannot be resynchronized after this.
	ErrFrameTooLarge = errors.New("frame: declared length out of range")
)

// Frame is one decoded packet frame.
type Frame struct {
	ID      int32
	Payload []byte
}

// Recoverable reports whether err leaves the stream positioned at a point
// where reading may continue.
func Recoverable(err error) bool {
	return errors.Is(err, ErrMalformedLength) || errors.Is(err, ErrMalformedID)
}

// Reader reads frames from a byte stream without ever consuming bytes beyond
// the end of the current frame.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 4096)}
}

// ReadFrame blocks until a complete frame is available. io.EOF is returned
// when the peer closed the stream between frames.
func (r *Reader) ReadFrame() (Frame, error) {
	if _, err := r.br.Peek(1); err != nil {
		return Frame{}, err
	}

	length, n, err := r.peekLength()
	if err != nil {
		if errors.Is(err, protocol.ErrOversizedVarInt) {
			_, _ = r.br.Discard(1)
			return Frame{}, fmt.Errorf("%w: %w", ErrMalformedLength, err)
		}
		return Frame{}, err
	}
	if length < 0 || length > MaxFrameLength {
		return Frame{}, fmt.Errorf("%w: %d", ErrFrameTooLarge, length)
	}
	if _, err := r.br.Discard(n); err != nil {
		return Frame{}, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.br, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("frame: reading %d byte body: %w", length, err)
	}

	id, idLen, err := protocol.DecodeVarInt(body)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrMalformedID, err)
	}
	return Frame{ID: id, Payload: body[idLen:]}, nil
}

// peekLength decodes the length prefix without consuming it. It looks at
// whatever is already buffered (up to 5 bytes) and only blocks for more when
// the buffered bytes end in the middle of the VarInt.
func (r *Reader) peekLength() (int32, int, error) {
	want := 1
	for {
		size := min(r.br.Buffered(), protocol.MaxVarIntLen)
		size = max(size, want)

		buf, peekErr := r.br.Peek(size)
		length, n, err := protocol.DecodeVarInt(buf)
		if err == nil {
			return length, n, nil
		}
		if !errors.Is(err, protocol.ErrTruncated) {
			return 0, 0, err
		}
		if peekErr != nil {
			if errors.Is(peekErr, io.EOF) {
				return 0, 0, io.ErrUnexpectedEOF
			}
			return 0, 0, peekErr
		}
		want = len(buf) + 1
	}
}

// Encode builds a complete frame for the given packet id and payload.
func Encode(id int32, payload []byte) []byte {
	bodyLen := protocol.VarIntSize(id) + len(payload)
	buf := make([]byte, 0, protocol.VarIntSize(int32(bodyLen))+bodyLen)
	buf = protocol.AppendVarInt(buf, int32(bodyLen))
	buf = protocol.AppendVarInt(buf, id)
	return append(buf, payload...)
}

// EncodePacket builds a complete frame from the packet's own id and fields.
func EncodePacket(p protocol.Packet) []byte {
	return Encode(p.ID(), protocol.Marshal(p))
}

// Write sends the frame to w in a single Write call.
func Write(w io.Writer, id int32, payload []byte) error {
	_, err := w.Write(Encode(id, payload))
	return err
}

// WritePacket encodes p and sends it to w in a single Write call.
func WritePacket(w io.Writer, p protocol.Packet) error {
	_, err := w.Write(EncodePacket(p))
	return err
}

// Split parses as many complete frames as buf holds, returning them along with
// any trailing bytes that do not yet form a complete frame.
func Split(buf []byte) ([]Frame, []byte, error) {
	var frames []Frame
	for len(buf) > 0 {
		length, n, err := protocol.DecodeVarInt(buf)
		if errors.Is(err, protocol.ErrTruncated) {
			break
		} else if err != nil {
			return frames, buf, fmt.Errorf("%w: %w", ErrMalformedLength, err)
		}
		if length < 0 || length > MaxFrameLength {
			return frames, buf, fmt.Errorf("%w: %d", ErrFrameTooLarge, length)
		}
		if len(buf)-n < int(length) {
			break
		}

		body := buf[n : n+int(length)]
		id, idLen, err := protocol.DecodeVarInt(body)
		if err != nil {
			return frames, buf, fmt.Errorf("%w: %w", ErrMalformedID, err)
		}
		frames = append(frames, Frame{ID: id, Payload: body[idLen:]})
		buf = buf[n+int(length):]
	}
	return frames, buf, nil
}
