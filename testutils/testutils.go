// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stocks-simulator/database"
	"stocks-simulator/events"
	"stocks-simulator/models"
	"stocks-simulator/quotes"
)

// NewDB returns a migrated in-memory SQLite database. A single connection is
// kept open so every query sees the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given cash balance.
func CreateUser(t *testing.T, db *gorm.DB, username string, cash int64) models.User {
	t.Helper()
	u := models.User{Username: username, Hash: "x", Cash: decimal.NewFromInt(cash)}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// StaticQuotes is a Provider backed by a fixed price table.
type StaticQuotes struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	failed map[string]error
	Calls  int
}

func NewStaticQuotes(prices map[string]int64) *StaticQuotes {
	s := &StaticQuotes{prices: map[string]decimal.Decimal{}, failed: map[string]error{}}
	for sym, p := range prices {
		s.prices[sym] = decimal.NewFromInt(p)
	}
	return s
}

// SetPrice changes or adds a symbol's price.
func (s *StaticQuotes) SetPrice(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
	delete(s.failed, symbol)
}

// Fail makes lookups for symbol return err.
func (s *StaticQuotes) Fail(symbol string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[symbol] = err
}

func (s *StaticQuotes) Lookup(_ context.Context, symbol string) (quotes.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	symbol = quotes.NormalizeSymbol(symbol)
	if err, ok := s.failed[symbol]; ok {
		return quotes.Quote{}, err
	}
	price, ok := s.prices[symbol]
	if !ok {
		return quotes.Quote{}, fmt.Errorf("%s: %w", symbol, quotes.ErrNotFound)
	}
	return quotes.Quote{Symbol: symbol, Name: symbol + " Inc", Price: price}, nil
}

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []events.TradeEvent
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, ev events.TradeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, ev)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("Assertion failed: %s", msg)
	}
}
