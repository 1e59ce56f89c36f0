// Package game runs the fixed-rate simulation loop that consumes session
// events from the network server and sends commands back to it.
package game

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/craftmine/internal/bridge"
	"github.com/dcrodman/craftmine/internal/core"
	"github.com/dcrodman/craftmine/internal/core/metrics"
	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/records"
	"github.com/dcrodman/craftmine/internal/status"
)

const (
	// Players that haven't answered a keep alive in this long are dropped.
	keepAliveTimeout = 30 * time.Second
	// Bounds the record writes made while draining the last events on shutdown.
	shutdownTimeout = 5 * time.Second
)

// Loop is the simulation. It owns all player state; nothing else reads or
// writes it.
type Loop struct {
	Config  *core.Config
	Logger  *logrus.Logger
	Bridge  *bridge.Bridge
	Status  *status.Status
	Records records.Store
	World   World

	ctx           context.Context
	players       map[uuid.UUID]*Player
	lastKeepAlive time.Time
	done          chan struct{}
}

// Start runs the loop on its own goroutine until ctx is cancelled.
func (l *Loop) Start(ctx context.Context) {
	if l.World == nil {
		l.World = NopWorld{}
	}
	l.players = make(map[uuid.UUID]*Player)
	l.done = make(chan struct{})
	go l.run(ctx)
}

// Wait blocks until the loop has processed its final events and exited.
func (l *Loop) Wait() {
	<-l.done
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	// The simulation gets a thread to itself so that tick timing isn't at the
	// mercy of the network goroutines.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.Logger.Infof("[game] started with a tick interval of %v", l.Config.Performance.TickInterval)
	l.ctx = ctx
	l.lastKeepAlive = time.Now()

	ticker := time.NewTicker(l.Config.Performance.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return
		case now := <-ticker.C:
			l.tick(now)
		}
	}
}

func (l *Loop) tick(now time.Time) {
	start := time.Now()

	for _, msg := range l.Bridge.Events.Drain() {
		l.handleEvent(msg)
	}
	if interval := l.Config.Performance.KeepAliveInterval; interval > 0 && now.Sub(l.lastKeepAlive) >= interval {
		l.sendKeepAlives(now)
	}

	metrics.ObserveTick(time.Since(start))
}

// shutdown processes whatever the network reported before it stopped, so that
// every session that ended gets its record saved.
func (l *Loop) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	l.ctx = ctx

	for _, msg := range l.Bridge.Events.Drain() {
		l.handleEvent(msg)
	}
	for _, p := range l.players {
		l.savePlayer(p)
	}
	l.Logger.Infof("[game] exited")
}

// Send queues a command for the network, waiting while the command channel
// is full. Commands are dropped once the loop is shutting down.
func (l *Loop) Send(msg bridge.NetSendMsg) {
	if err := l.Bridge.Send(l.ctx, msg); err != nil {
		l.Logger.Debugf("[game] dropped %s command: %v", bridge.Kind(msg), err)
	}
}

func (l *Loop) handleEvent(msg bridge.NetRecvMsg) {
	switch event := msg.Event.(type) {
	case bridge.NewSession:
		l.playerJoined(msg.UUID, event.Username)
	case bridge.EndSession:
		l.playerLeft(msg.UUID)
	case bridge.Packet:
		l.handlePacket(msg.UUID, event)
	default:
		l.Logger.Warnf("[game] ignoring unsupported event %T", event)
	}
}

func (l *Loop) playerJoined(id uuid.UUID, username string) {
	record, err := l.Records.LoadByUUID(l.ctx, id)
	if err != nil {
		l.Logger.Errorf("[game] error loading record for %s (%s): %v", username, id, err)
		l.Send(bridge.Disconnect{UUID: id, Reason: "Failed to access user records"})
		return
	}

	p := &Player{
		UUID:     id,
		Username: username,
		Record:   record,
		JoinedAt: time.Now(),
	}
	l.players[id] = p
	if err := l.Records.SetOnline(l.ctx, id, true); err != nil {
		l.Logger.Warnf("[game] %v", err)
	}

	l.Logger.Infof("[game] %s joined (%d online)", username, len(l.players))
	l.updateStatus()
	l.World.PlayerJoined(l.ctx, p, l)
}

func (l *Loop) playerLeft(id uuid.UUID) {
	p, ok := l.players[id]
	if !ok {
		return
	}
	delete(l.players, id)
	l.savePlayer(p)
	if err := l.Records.SetOnline(l.ctx, id, false); err != nil {
		l.Logger.Warnf("[game] %v", err)
	}

	l.Logger.Infof("[game] %s left (%d online)", p.Username, len(l.players))
	l.updateStatus()
	l.World.PlayerLeft(l.ctx, p, l)
}

func (l *Loop) savePlayer(p *Player) {
	if err := l.Records.Save(l.ctx, p.Record); err != nil {
		l.Logger.Errorf("[game] error saving record for %s: %v", p.Username, err)
	}
}

func (l *Loop) handlePacket(id uuid.UUID, pkt bridge.Packet) {
	p, ok := l.players[id]
	if !ok {
		l.Logger.Debugf("[game] packet 0x%02X from %s, who is not in game", pkt.ID, id)
		return
	}

	if pkt.ID == packets.KeepAliveServerboundType {
		var resp packets.KeepAliveResponse
		if err := protocol.Unmarshal(&resp, pkt.Data); err != nil {
			l.Logger.Warnf("[game] bad keep alive from %s: %v", p.Username, err)
		} else if p.keepAlivePending && resp.KeepAliveID == p.keepAliveID {
			p.keepAlivePending = false
			p.Latency = time.Since(p.keepAliveSent)
		}
	}

	l.World.HandlePacket(l.ctx, p, pkt.ID, pkt.Data, l)
}

// sendKeepAlives pings everyone and drops anyone who never answered the
// previous ping.
func (l *Loop) sendKeepAlives(now time.Time) {
	l.lastKeepAlive = now
	if len(l.players) == 0 {
		return
	}

	keepAliveID := now.UnixMilli()
	for _, p := range l.players {
		if p.keepAlivePending && now.Sub(p.keepAliveSent) >= keepAliveTimeout {
			l.Logger.Infof("[game] %s timed out", p.Username)
			l.Send(bridge.Disconnect{UUID: p.UUID, Reason: "Timed out"})
			continue
		}
		if !p.keepAlivePending {
			p.keepAliveID = keepAliveID
			p.keepAliveSent = now
			p.keepAlivePending = true
		}
	}
	l.Send(bridge.AllPacket(&packets.KeepAlive{KeepAliveID: keepAliveID}))
}

// updateStatus publishes the online count and the longest-connected players
// to the server list.
func (l *Loop) updateStatus() {
	players := make([]*Player, 0, len(l.players))
	for _, p := range l.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	sample := make([]status.Player, 0, len(players))
	for _, p := range players {
		sample = append(sample, status.Player{Name: p.Username, ID: p.UUID.String()})
	}
	l.Status.SetPlayers(len(players), sample)
}
