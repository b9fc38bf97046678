package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered trader and the owner of a cash balance.
type User struct {
	ID        uint            `gorm:"primaryKey"`
	Username  string          `gorm:"size:64;not null;uniqueIndex"`
	Hash      string          `gorm:"not null"`
	Cash      decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	CreatedAt time.Time
}
