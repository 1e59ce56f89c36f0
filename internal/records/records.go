// Package records loads and persists the per-player records the server keeps
// between sessions.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcrodman/craftmine/internal/core/data"
	"github.com/dcrodman/craftmine/internal/world"
)

// UserRecord is what the server remembers about a player.
type UserRecord struct {
	UUID       uuid.UUID
	Username   string
	World      string
	Gamemode   world.Gamemode
	X, Y, Z    float64
	Yaw, Pitch float32
}

// Store is the user record collaborator used during login and by the game loop.
type Store interface {
	// LoadOrCreate returns the record for the player, creating one with the
	// world's defaults if they have never joined before.
	LoadOrCreate(ctx context.Context, id uuid.UUID, username string) (*UserRecord, error)
	LoadByUUID(ctx context.Context, id uuid.UUID) (*UserRecord, error)
	Save(ctx context.Context, record *UserRecord) error
	SetOnline(ctx context.Context, id uuid.UUID, online bool) error
}

// OfflineUUID derives the identity of a player on a server that does not
// authenticate accounts. The same name always maps to the same UUID.
func OfflineUUID(username string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(username))
}

// DBStore is a Store backed by the database with an in-memory cache in front.
type DBStore struct {
	db       *gorm.DB
	cache    *cache
	defaults world.Properties
}

func NewDBStore(db *gorm.DB, defaults world.Properties) *DBStore {
	return &DBStore{
		db:       db,
		cache:    newCache(10 * time.Minute),
		defaults: defaults,
	}
}

func (s *DBStore) LoadOrCreate(ctx context.Context, id uuid.UUID, username string) (*UserRecord, error) {
	if r, ok := s.cache.get(id.String()); ok && r.Username == username {
		return r, nil
	}

	db := s.db.WithContext(ctx)
	user, err := data.FindUserByUUID(db, id.String())
	if err != nil {
		return nil, fmt.Errorf("error loading user record for %s: %w", username, err)
	}

	if user == nil {
		user = &data.User{
			UUID:     id.String(),
			Username: username,
			World:    s.defaults.Dimension.String(),
			Gamemode: uint8(s.defaults.DefaultGamemode),
			X:        float64(s.defaults.Spawn.X) + 0.5,
			Y:        float64(s.defaults.Spawn.Y),
			Z:        float64(s.defaults.Spawn.Z) + 0.5,
		}
		if err := data.CreateUser(db, user); err != nil {
			return nil, fmt.Errorf("error creating user record for %s: %w", username, err)
		}
	} else if user.Username != username {
		// Accounts can be renamed; the UUID is what identifies the player.
		user.Username = username
		if err := data.SaveUser(db, user); err != nil {
			return nil, fmt.Errorf("error renaming user record %s: %w", id, err)
		}
	}

	r, err := fromUser(user)
	if err != nil {
		return nil, err
	}
	s.cache.put(r)
	return r, nil
}

func (s *DBStore) LoadByUUID(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	if r, ok := s.cache.get(id.String()); ok {
		return r, nil
	}

	user, err := data.FindUserByUUID(s.db.WithContext(ctx), id.String())
	if err != nil {
		return nil, fmt.Errorf("error loading user record %s: %w", id, err)
	} else if user == nil {
		return nil, fmt.Errorf("no user record for %s", id)
	}

	r, err := fromUser(user)
	if err != nil {
		return nil, err
	}
	s.cache.put(r)
	return r, nil
}

func (s *DBStore) Save(ctx context.Context, record *UserRecord) error {
	db := s.db.WithContext(ctx)
	user, err := data.FindUserByUUID(db, record.UUID.String())
	if err != nil {
		return fmt.Errorf("error loading user record %s: %w", record.UUID, err)
	} else if user == nil {
		return fmt.Errorf("no user record for %s", record.UUID)
	}

	user.Username = record.Username
	user.World = record.World
	user.Gamemode = uint8(record.Gamemode)
	user.X, user.Y, user.Z = record.X, record.Y, record.Z
	user.Yaw, user.Pitch = record.Yaw, record.Pitch
	if err := data.SaveUser(db, user); err != nil {
		s.cache.remove(record.UUID.String())
		return fmt.Errorf("error saving user record %s: %w", record.UUID, err)
	}
	s.cache.put(record)
	return nil
}

func (s *DBStore) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	if err := data.SetUserOnline(s.db.WithContext(ctx), id.String(), online); err != nil {
		return fmt.Errorf("error updating online status of %s: %w", id, err)
	}
	return nil
}

func fromUser(user *data.User) (*UserRecord, error) {
	id, err := uuid.Parse(user.UUID)
	if err != nil {
		return nil, fmt.Errorf("user record %d has a malformed uuid: %w", user.ID, err)
	}
	return &UserRecord{
		UUID:     id,
		Username: user.Username,
		World:    user.World,
		Gamemode: world.Gamemode(user.Gamemode),
		X:        user.X,
		Y:        user.Y,
		Z:        user.Z,
		Yaw:      user.Yaw,
		Pitch:    user.Pitch,
	}, nil
}
