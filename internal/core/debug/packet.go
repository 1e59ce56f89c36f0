package debug

import (
	"fmt"
	"io"
	"strconv"

	"github.com/davecgh/go-spew/spew"

	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
)

const displayWidth = 16

// PrintPacketParams describes a packet to be dumped by PrintPacket.
type PrintPacketParams struct {
	Writer    io.Writer
	State     protocol.State
	Direction protocol.Direction
	ID        int32
	Payload   []byte
	// Also print the decoded fields when the packet is one the server declares.
	Interpret bool
	// Only print this many bytes of the payload. Zero prints everything.
	TruncateThreshold int
}

// PrintPacket writes a header line followed by a hex dump of the payload.
func PrintPacket(params PrintPacketParams) {
	name := packets.Name(params.State, params.Direction, params.ID)
	fmt.Fprintf(params.Writer, "[%s] %s %s (0x%02X) %d bytes\n",
		params.State, params.Direction, name, params.ID, len(params.Payload))

	data := params.Payload
	if params.TruncateThreshold > 0 && len(data) > params.TruncateThreshold {
		data = data[:params.TruncateThreshold]
	}
	PrintPayload(params.Writer, data)

	if params.Interpret {
		if p, err := packets.Decode(params.State, params.Direction, params.ID, params.Payload); err == nil {
			spew.Fdump(params.Writer, p)
		} else if p != nil {
			fmt.Fprintf(params.Writer, "could not decode: %v\n", err)
		}
	}
	fmt.Fprintln(params.Writer)
}

// PrintPayload writes data in two columns, one for bytes and the other for
// their ascii representation.
func PrintPayload(w io.Writer, data []byte) {
	for offset := 0; offset < len(data); offset += displayWidth {
		end := offset + displayWidth
		if end > len(data) {
			end = len(data)
		}
		printPacketLine(w, data[offset:end], offset)
	}
}

// Write one line of data to w.
func printPacketLine(w io.Writer, data []byte, offset int) {
	fmt.Fprintf(w, "(%04X) ", offset)
	// Print our bytes.
	for i, j := 0, 0; i < len(data); i++ {
		if j == 8 {
			// Visual aid - spacing between groups of 8 bytes.
			j = 0
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintf(w, "%02x ", data[i])
		j++
	}
	// Fill in the gap if we don't have enough bytes to fill the line.
	for i := len(data); i < displayWidth; i++ {
		if i == 8 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprint(w, "   ")
	}
	fmt.Fprint(w, "    ")
	// Display the print characters as-is, others as periods.
	for _, c := range data {
		if c < 0x80 && strconv.IsPrint(rune(c)) {
			fmt.Fprintf(w, "%c", c)
		} else {
			fmt.Fprint(w, ".")
		}
	}
	fmt.Fprintln(w)
}
