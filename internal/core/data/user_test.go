package data

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func seedRandomUsers(t *testing.T, db *gorm.DB) {
	t.Helper()
	for i := 0; i < 10; i++ {
		if err := CreateUser(db, generateUser(t)); err != nil {
			t.Fatalf("error seeding test user: %v", err)
		}
	}
}

func generateUser(t *testing.T) *User {
	t.Helper()
	return &User{
		UUID:     uuid.NewString(),
		Username: "user" + strconv.Itoa(rand.Intn(1000000)),
		World:    "overworld",
		Gamemode: 1,
		Y:        64,
	}
}

func assertUsersMatch(t *testing.T, expected *User, got *User) {
	t.Helper()
	// Timestamps lose precision on the way through the database.
	opt := cmpopts.IgnoreFields(User{}, "CreatedAt", "UpdatedAt", "LastLogin")
	if diff := cmp.Diff(expected, got, opt); diff != "" {
		t.Errorf("user did not match expected; diff:\n%s", diff)
	}
}

func TestFindUserByUUID(t *testing.T) {
	db := setUpDatabase(t)
	seedRandomUsers(t, db)

	testUser := generateUser(t)
	tests := []struct {
		name     string
		seedData func(db *gorm.DB)
		want     *User
		wantErr  bool
	}{
		{
			name:     "user does not exist",
			seedData: func(db *gorm.DB) {},
			want:     nil,
			wantErr:  false,
		},
		{
			name: "user exists",
			seedData: func(db *gorm.DB) {
				if err := CreateUser(db, testUser); err != nil {
					t.Fatalf("error creating test user data: %s", err)
				}
			},
			want:    testUser,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.seedData(db)

			user, err := FindUserByUUID(db, testUser.UUID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindUserByUUID() wantErr = %v, error = %v", tt.wantErr, err)
			}
			assertUsersMatch(t, tt.want, user)
		})
	}
}

func TestFindUserByUsername(t *testing.T) {
	db := setUpDatabase(t)
	seedRandomUsers(t, db)

	older := &User{UUID: uuid.NewString(), Username: "Alice", LastLogin: time.Now().Add(-time.Hour)}
	newer := &User{UUID: uuid.NewString(), Username: "Alice", LastLogin: time.Now()}
	for _, u := range []*User{older, newer} {
		if err := CreateUser(db, u); err != nil {
			t.Fatalf("error creating test user data: %s", err)
		}
	}

	user, err := FindUserByUsername(db, "Alice")
	if err != nil {
		t.Fatalf("FindUserByUsername() returned unexpected error: %v", err)
	}
	if user == nil || user.UUID != newer.UUID {
		t.Errorf("FindUserByUsername() = %v, expected the most recently active user %s", user, newer.UUID)
	}

	missing, err := FindUserByUsername(db, "Bob")
	if err != nil || missing != nil {
		t.Errorf("FindUserByUsername() for a missing name = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestSaveUser(t *testing.T) {
	db := setUpDatabase(t)

	user := generateUser(t)
	if err := CreateUser(db, user); err != nil {
		t.Fatalf("error creating test user data: %s", err)
	}

	user.X, user.Y, user.Z = 10.5, 70, -3
	user.Gamemode = 0
	if err := SaveUser(db, user); err != nil {
		t.Fatalf("SaveUser() returned unexpected error: %v", err)
	}

	got, err := FindUserByUUID(db, user.UUID)
	if err != nil {
		t.Fatalf("FindUserByUUID() returned unexpected error: %v", err)
	}
	assertUsersMatch(t, user, got)
}

func TestSetUserOnline(t *testing.T) {
	db := setUpDatabase(t)

	user := generateUser(t)
	if err := CreateUser(db, user); err != nil {
		t.Fatalf("error creating test user data: %s", err)
	}

	if err := SetUserOnline(db, user.UUID, true); err != nil {
		t.Fatalf("SetUserOnline() returned unexpected error: %v", err)
	}
	got, _ := FindUserByUUID(db, user.UUID)
	if !got.Online || got.LastLogin.IsZero() {
		t.Errorf("SetUserOnline(true) did not mark the user online: %+v", got)
	}

	if err := ResetOnlineUsers(db); err != nil {
		t.Fatalf("ResetOnlineUsers() returned unexpected error: %v", err)
	}
	got, _ = FindUserByUUID(db, user.UUID)
	if got.Online {
		t.Errorf("ResetOnlineUsers() left the user online")
	}
}
