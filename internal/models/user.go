package models

import "time"

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique email address, usable as login identifier.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	IsAdmin bool `gorm:"not null;default:false"` // Admin capability flag.

	AccessExpiresAt *time.Time // Access window end; nil means unlimited.

	ClickLogs []ClickLog `gorm:"foreignKey:UserID"` // Related click events.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// AccessValid reports whether the account's access window covers the instant.
func (u *User) AccessValid(now time.Time) bool {
	if u == nil {
		return false
	}
	if u.AccessExpiresAt == nil {
		return true
	}
	return u.AccessExpiresAt.After(now)
}
