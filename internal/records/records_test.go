package records

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcrodman/craftmine/internal/core/data"
	"github.com/dcrodman/craftmine/internal/world"
)

func setUpStore(t *testing.T) (*DBStore, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("error initializing test database: %s", err)
	}
	if err = db.AutoMigrate(&data.User{}); err != nil {
		t.Fatalf("error auto migrating db: %s", err)
	}

	defaults := world.Properties{
		DefaultGamemode: world.Creative,
		Dimension:       world.Overworld,
		Spawn:           world.Point{X: 0, Y: 64, Z: 0},
	}
	return NewDBStore(db, defaults), db
}

func TestOfflineUUID(t *testing.T) {
	a, b := OfflineUUID("Alice"), OfflineUUID("Alice")
	if a != b {
		t.Errorf("OfflineUUID() is not stable: %s != %s", a, b)
	}
	if a == OfflineUUID("alice") {
		t.Errorf("OfflineUUID() should be case sensitive")
	}
	if a.Version() != 5 {
		t.Errorf("OfflineUUID() version = %d, want 5", a.Version())
	}
}

func TestDBStore_LoadOrCreate(t *testing.T) {
	store, db := setUpStore(t)
	ctx := context.Background()

	got, err := store.LoadOrCreate(ctx, OfflineUUID("Alice"), "Alice")
	if err != nil {
		t.Fatalf("LoadOrCreate() returned unexpected error: %v", err)
	}
	want := &UserRecord{
		UUID:     OfflineUUID("Alice"),
		Username: "Alice",
		World:    "overworld",
		Gamemode: world.Creative,
		X:        0.5,
		Y:        64,
		Z:        0.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadOrCreate() returned unexpected record; diff:\n%s", diff)
	}

	// The record was persisted, not just cached.
	user, err := data.FindUserByUUID(db, want.UUID.String())
	if err != nil || user == nil {
		t.Fatalf("FindUserByUUID() = (%v, %v), expected the created user", user, err)
	}

	again, err := store.LoadOrCreate(ctx, OfflineUUID("Alice"), "Alice")
	if err != nil {
		t.Fatalf("LoadOrCreate() returned unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Errorf("LoadOrCreate() returned a different record on the second call; diff:\n%s", diff)
	}

	var count int64
	db.Model(&data.User{}).Count(&count)
	if count != 1 {
		t.Errorf("LoadOrCreate() created %d users, want 1", count)
	}
}

func TestDBStore_SaveAndLoad(t *testing.T) {
	store, _ := setUpStore(t)
	ctx := context.Background()

	r, err := store.LoadOrCreate(ctx, OfflineUUID("Bob"), "Bob")
	if err != nil {
		t.Fatalf("LoadOrCreate() returned unexpected error: %v", err)
	}
	r.X, r.Y, r.Z = 100, 70, -20
	r.Gamemode = world.Survival
	if err := store.Save(ctx, r); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	// Skip the cache to make sure the database has the new values.
	store.cache.remove(r.UUID.String())
	got, err := store.LoadByUUID(ctx, r.UUID)
	if err != nil {
		t.Fatalf("LoadByUUID() returned unexpected error: %v", err)
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Errorf("LoadByUUID() returned unexpected record; diff:\n%s", diff)
	}
}

func TestDBStore_LoadByUUIDMissing(t *testing.T) {
	store, _ := setUpStore(t)
	if _, err := store.LoadByUUID(context.Background(), uuid.New()); err == nil {
		t.Errorf("LoadByUUID() expected an error for an unknown player")
	}
	if err := store.Save(context.Background(), &UserRecord{UUID: uuid.New()}); err == nil {
		t.Errorf("Save() expected an error for an unknown player")
	}
}

func TestDBStore_SetOnline(t *testing.T) {
	store, db := setUpStore(t)
	ctx := context.Background()

	r, err := store.LoadOrCreate(ctx, OfflineUUID("Carol"), "Carol")
	if err != nil {
		t.Fatalf("LoadOrCreate() returned unexpected error: %v", err)
	}
	if err := store.SetOnline(ctx, r.UUID, true); err != nil {
		t.Fatalf("SetOnline() returned unexpected error: %v", err)
	}
	user, _ := data.FindUserByUUID(db, r.UUID.String())
	if user == nil || !user.Online {
		t.Errorf("SetOnline(true) did not mark %s online", r.UUID)
	}
}

func TestDBStore_ClosedDatabase(t *testing.T) {
	store, db := setUpStore(t)
	if err := data.Shutdown(db); err != nil {
		t.Fatalf("Shutdown() returned unexpected error: %v", err)
	}
	if _, err := store.LoadOrCreate(context.Background(), OfflineUUID("Dave"), "Dave"); err == nil {
		t.Errorf("LoadOrCreate() expected an error once the database is closed")
	}
}

func TestDBStore_LoadOrCreateRename(t *testing.T) {
	store, db := setUpStore(t)
	ctx := context.Background()
	id := uuid.New()

	if _, err := store.LoadOrCreate(ctx, id, "Erin"); err != nil {
		t.Fatalf("LoadOrCreate() returned unexpected error: %v", err)
	}
	got, err := store.LoadOrCreate(ctx, id, "Erin2")
	if err != nil {
		t.Fatalf("LoadOrCreate() returned unexpected error: %v", err)
	}
	if got.Username != "Erin2" {
		t.Errorf("LoadOrCreate() username = %s, want Erin2", got.Username)
	}
	user, _ := data.FindUserByUUID(db, id.String())
	if user == nil || user.Username != "Erin2" {
		t.Errorf("LoadOrCreate() did not persist the new username: %+v", user)
	}
}
