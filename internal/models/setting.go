package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting stores a JSON configuration value keyed by name.
type Setting struct {
	Key   string         `gorm:"primaryKey;type:text"` // Setting name.
	Value datatypes.JSON // JSON-encoded value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
