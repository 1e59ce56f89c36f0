package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/dcrodman/craftmine/internal/records"
)

// Player is the game loop's view of a logged in session.
type Player struct {
	UUID     uuid.UUID
	Username string
	Record   *records.UserRecord
	JoinedAt time.Time
	// Round trip time of the last answered keep alive.
	Latency time.Duration

	keepAliveID      int64
	keepAliveSent    time.Time
	keepAlivePending bool
}
