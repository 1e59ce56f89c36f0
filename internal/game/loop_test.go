package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/dcrodman/craftmine/internal/bridge"
	"github.com/dcrodman/craftmine/internal/core"
	"github.com/dcrodman/craftmine/internal/packets"
	"github.com/dcrodman/craftmine/internal/protocol"
	"github.com/dcrodman/craftmine/internal/records"
	"github.com/dcrodman/craftmine/internal/status"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*records.UserRecord
	online  map[uuid.UUID]bool
	saves   int
}

func newFakeStore(users ...string) *fakeStore {
	s := &fakeStore{
		records: make(map[uuid.UUID]*records.UserRecord),
		online:  make(map[uuid.UUID]bool),
	}
	for _, name := range users {
		id := records.OfflineUUID(name)
		s.records[id] = &records.UserRecord{UUID: id, Username: name}
	}
	return s
}

func (s *fakeStore) LoadOrCreate(context.Context, uuid.UUID, string) (*records.UserRecord, error) {
	return nil, errors.New("not used by the game loop")
}

func (s *fakeStore) LoadByUUID(_ context.Context, id uuid.UUID) (*records.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return r, nil
	}
	return nil, errors.New("no such record")
}

func (s *fakeStore) Save(context.Context, *records.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

func (s *fakeStore) SetOnline(_ context.Context, id uuid.UUID, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[id] = online
	return nil
}

func (s *fakeStore) isOnline(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[id]
}

// recordingWorld remembers the packets it was given.
type recordingWorld struct {
	NopWorld
	mu      sync.Mutex
	packets []bridge.Packet
}

func (w *recordingWorld) HandlePacket(_ context.Context, _ *Player, id int32, data []byte, _ Outbox) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.packets = append(w.packets, bridge.Packet{ID: id, Data: data})
}

func (w *recordingWorld) received() []bridge.Packet {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]bridge.Packet(nil), w.packets...)
}

func newTestLoop(t *testing.T, store *fakeStore, world World, keepAlive time.Duration) (*Loop, context.CancelFunc) {
	t.Helper()
	cfg := &core.Config{}
	cfg.Performance.TickInterval = 5 * time.Millisecond
	cfg.Performance.KeepAliveInterval = keepAlive

	l := &Loop{
		Config:  cfg,
		Logger:  core.NewTestLogger(),
		Bridge:  bridge.New(16),
		Status:  status.New(status.Snapshot{Max: 20}),
		Records: store,
		World:   world,
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	t.Cleanup(func() {
		cancel()
		l.Wait()
	})
	return l, cancel
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func nextCommand(t *testing.T, l *Loop) bridge.NetSendMsg {
	t.Helper()
	select {
	case cmd := <-l.Bridge.Commands:
		return cmd
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a command")
	}
	return nil
}

func TestLoop_Sessions(t *testing.T) {
	store := newFakeStore("Alice", "Bob")
	l, _ := newTestLoop(t, store, nil, 0)
	alice, bob := records.OfflineUUID("Alice"), records.OfflineUUID("Bob")

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: alice, Event: bridge.NewSession{Username: "Alice"}})
	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: bob, Event: bridge.NewSession{Username: "Bob"}})
	eventually(t, "two players online", func() bool { return l.Status.Snapshot().Online == 2 })

	want := []status.Player{
		{Name: "Alice", ID: alice.String()},
		{Name: "Bob", ID: bob.String()},
	}
	if diff := cmp.Diff(want, l.Status.Snapshot().Sample); diff != "" {
		t.Errorf("unexpected status sample; diff:\n%s", diff)
	}
	if !store.isOnline(alice) || !store.isOnline(bob) {
		t.Errorf("expected both players to be marked online")
	}

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: alice, Event: bridge.EndSession{}})
	eventually(t, "one player online", func() bool { return l.Status.Snapshot().Online == 1 })
	if store.isOnline(alice) {
		t.Errorf("expected Alice to be marked offline")
	}
}

func TestLoop_MissingRecord(t *testing.T) {
	l, _ := newTestLoop(t, newFakeStore(), nil, 0)
	id := uuid.New()

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: id, Event: bridge.NewSession{Username: "Ghost"}})
	got := nextCommand(t, l)
	want := bridge.Disconnect{UUID: id, Reason: "Failed to access user records"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected command; diff:\n%s", diff)
	}
	if n := l.Status.Snapshot().Online; n != 0 {
		t.Errorf("Online = %d, want 0", n)
	}
}

func TestLoop_KeepAlive(t *testing.T) {
	world := &recordingWorld{}
	l, _ := newTestLoop(t, newFakeStore("Alice"), world, 20*time.Millisecond)
	alice := records.OfflineUUID("Alice")

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: alice, Event: bridge.NewSession{Username: "Alice"}})

	all, ok := nextCommand(t, l).(bridge.All)
	if !ok || all.ID != packets.KeepAliveClientboundType {
		t.Fatalf("expected a KeepAlive sent to all sessions, got %+v", all)
	}
	var keepAlive packets.KeepAlive
	if err := protocol.Unmarshal(&keepAlive, all.Data); err != nil {
		t.Fatalf("error decoding KeepAlive: %v", err)
	}

	// The response is handed to the world like any other packet.
	data := protocol.Marshal(&packets.KeepAliveResponse{KeepAliveID: keepAlive.KeepAliveID})
	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: alice, Event: bridge.Packet{ID: packets.KeepAliveServerboundType, Data: data}})
	eventually(t, "the world to receive the response", func() bool { return len(world.received()) == 1 })

	want := []bridge.Packet{{ID: packets.KeepAliveServerboundType, Data: data}}
	if diff := cmp.Diff(want, world.received()); diff != "" {
		t.Errorf("unexpected packets forwarded to the world; diff:\n%s", diff)
	}
}

func TestLoop_PacketFromUnknownSession(t *testing.T) {
	world := &recordingWorld{}
	l, cancel := newTestLoop(t, newFakeStore(), world, 0)

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: uuid.New(), Event: bridge.Packet{ID: 0x03, Data: []byte{0x00}}})
	eventually(t, "the event to be consumed", func() bool { return l.Bridge.Events.Len() == 0 })
	cancel()
	l.Wait()

	if got := world.received(); len(got) != 0 {
		t.Errorf("expected packets from unknown sessions to be dropped, got %+v", got)
	}
}

func TestLoop_ShutdownDrainsEvents(t *testing.T) {
	store := newFakeStore("Alice")
	l, cancel := newTestLoop(t, store, nil, 0)
	alice := records.OfflineUUID("Alice")

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: alice, Event: bridge.NewSession{Username: "Alice"}})
	eventually(t, "Alice to be online", func() bool { return store.isOnline(alice) })

	l.Bridge.Events.Push(bridge.NetRecvMsg{UUID: alice, Event: bridge.EndSession{}})
	cancel()
	l.Wait()

	if store.isOnline(alice) {
		t.Errorf("expected the final EndSession to be processed before exiting")
	}
	if l.Status.Snapshot().Online != 0 {
		t.Errorf("expected no players online after shutdown")
	}
}
