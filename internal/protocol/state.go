package protocol

// Version is the client release this server speaks.
const (
	Version       = 578
	VersionName   = "1.15.2"
	MaxNameLength = 16
)

// State is the phase of the protocol a connection is in. Each state has its
// own packet id space.
type State int

const (
	Handshake State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshake:
		return "Handshake"
	case Status:
		return "Status"
	case Login:
		return "Login"
	case Play:
		return "Play"
	}
	return "Unknown"
}

// Direction is which side of the connection sent a packet.
type Direction int

const (
	Serverbound Direction = iota
	Clientbound
)

func (d Direction) String() string {
	if d == Serverbound {
		return "serverbound"
	}
	return "clientbound"
}
