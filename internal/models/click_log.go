package models

import "time"

// Button names accepted by the click logger.
const (
	// ButtonTelegram is the Telegram call-to-action button.
	ButtonTelegram = "telegram"
	// ButtonCompra is the purchase call-to-action button.
	ButtonCompra = "compra"
)

// ValidButtonName reports whether the name belongs to the fixed button set.
func ValidButtonName(name string) bool {
	return name == ButtonTelegram || name == ButtonCompra
}

// ClickLog records a single button click by a user. Rows are append-only.
type ClickLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID     uint64 `gorm:"not null;index"`     // Owning user.
	ButtonName string `gorm:"type:text;not null"` // One of the fixed button names.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Click timestamp.
}
