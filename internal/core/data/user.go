package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// User is the persistent record of a player, created the first time they log in.
type User struct {
	ID       uint64 `gorm:"primaryKey"`
	UUID     string `gorm:"uniqueIndex; not null"`
	Username string `gorm:"index; not null"`
	World    string `gorm:"default:overworld"`
	Gamemode uint8

	// Last known position.
	X     float64
	Y     float64
	Z     float64
	Yaw   float32
	Pitch float32

	Online    bool `gorm:"default:false"`
	LastLogin time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindUserByUUID returns the User with the given UUID or nil if there is no match.
func FindUserByUUID(db *gorm.DB, uuid string) (*User, error) {
	var user User
	err := db.Where("uuid = ?", uuid).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// FindUserByUsername returns the most recently active User with the name or
// nil if there is no match. Names are not unique over time in online mode.
func FindUserByUsername(db *gorm.DB, username string) (*User, error) {
	var user User
	err := db.Where("username = ?", username).Order("last_login desc").First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// CreateUser persists the User record to the database.
func CreateUser(db *gorm.DB, user *User) error {
	return db.Create(user).Error
}

// SaveUser writes every field of an existing User back to the database.
func SaveUser(db *gorm.DB, user *User) error {
	return db.Save(user).Error
}

// SetUserOnline flips the online flag, recording the login time when going online.
func SetUserOnline(db *gorm.DB, uuid string, online bool) error {
	updates := map[string]interface{}{"online": online}
	if online {
		updates["last_login"] = time.Now()
	}
	return db.Model(&User{}).Where("uuid = ?", uuid).Updates(updates).Error
}

// ResetOnlineUsers marks every user offline. Used on startup since no one can
// be connected before the server is.
func ResetOnlineUsers(db *gorm.DB) error {
	return db.Model(&User{}).Where("online = ?", true).Update("online", false).Error
}
