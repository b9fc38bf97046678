package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of a trade.
type TransactionType string

const (
	Buy  TransactionType = "BUY"
	Sell TransactionType = "SELL"
)

// Holding is a user's current share count for one symbol.
// Rows are kept when shares drop to zero.
type Holding struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_holding_user_symbol"`
	Symbol string `gorm:"size:16;not null;uniqueIndex:idx_holding_user_symbol"`
	Name   string
	Shares int64 `gorm:"not null"`
}

// Transaction is one entry of the append-only trade log.
type Transaction struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"not null;index:idx_transaction_user_time"`
	Type      TransactionType `gorm:"size:4;not null"`
	Symbol    string          `gorm:"size:16;not null"`
	Name      string
	Shares    int64           `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Timestamp time.Time       `gorm:"not null;index:idx_transaction_user_time"`
}

// Total is the cash value of the transaction.
func (t Transaction) Total() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}
