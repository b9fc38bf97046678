package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stocks-simulator/events"
	"stocks-simulator/models"
	"stocks-simulator/quotes"
)

// Engine validates trade intents and applies them to the ledger. Each trade
// debits or credits one user, touches one holding and appends one
// transaction inside a single store transaction.
type Engine struct {
	db        *gorm.DB
	quotes    quotes.Provider
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewEngine(db *gorm.DB, provider quotes.Provider, publisher events.Publisher, logger *zap.Logger) *Engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Engine{
		db:        db,
		quotes:    provider,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Quote resolves symbol through the quote provider. Any failure is reported
// as ErrInvalidSymbol.
func (e *Engine) Quote(ctx context.Context, symbol string) (quotes.Quote, error) {
	symbol = quotes.NormalizeSymbol(symbol)
	if symbol == "" {
		return quotes.Quote{}, fmt.Errorf("%w: blank symbol", ErrInvalidSymbol)
	}
	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quotes.ErrNotFound) {
			e.logger.Warn("Quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return quotes.Quote{}, fmt.Errorf("%w: %s: %w", ErrInvalidSymbol, symbol, err)
	}
	return q, nil
}

// Buy purchases shares of symbol at the current quoted price.
func (e *Engine) Buy(ctx context.Context, userID uint, symbol, shares string) (models.Transaction, error) {
	quote, err := e.Quote(ctx, symbol)
	if err != nil {
		return models.Transaction{}, err
	}
	count, err := ParseShares(shares)
	if err != nil {
		return models.Transaction{}, err
	}
	cost := quote.Price.Mul(decimal.NewFromInt(count))

	txn := models.Transaction{
		UserID: userID,
		Type:   models.Buy,
		Symbol: quote.Symbol,
		Name:   quote.Name,
		Shares: count,
		Price:  quote.Price,
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if cost.GreaterThan(user.Cash) {
			return fmt.Errorf("%w: cost %s exceeds cash %s", ErrInsufficientFunds, cost.StringFixed(2), user.Cash.StringFixed(2))
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("cash", user.Cash.Sub(cost)).Error; err != nil {
			return fmt.Errorf("debit cash: %w", err)
		}

		holding := models.Holding{UserID: userID, Symbol: quote.Symbol, Name: quote.Name, Shares: count}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "symbol"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"shares": gorm.Expr("holdings.shares + ?", count)}),
		}).Create(&holding).Error; err != nil {
			return fmt.Errorf("upsert holding: %w", err)
		}

		txn.Timestamp = e.now()
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	e.logger.Info("Bought shares",
		zap.Uint("user_id", userID),
		zap.String("symbol", txn.Symbol),
		zap.Int64("shares", count),
		zap.String("price", txn.Price.String()))
	e.publish(ctx, txn)
	return txn, nil
}

// Sell sells shares of a held symbol at the current quoted price. A holding
// that reaches zero shares is kept.
func (e *Engine) Sell(ctx context.Context, userID uint, symbol, shares string) (models.Transaction, error) {
	symbol = quotes.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.Transaction{}, fmt.Errorf("%w: blank symbol", ErrInvalidSymbol)
	}
	var held models.Holding
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ? AND shares > 0", userID, symbol).
		Take(&held).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Transaction{}, fmt.Errorf("%w: %s not held", ErrInvalidSymbol, symbol)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("load holding: %w", err)
	}

	quote, err := e.Quote(ctx, symbol)
	if err != nil {
		return models.Transaction{}, err
	}
	count, err := ParseShares(shares)
	if err != nil {
		return models.Transaction{}, err
	}
	proceeds := quote.Price.Mul(decimal.NewFromInt(count))

	txn := models.Transaction{
		UserID: userID,
		Type:   models.Sell,
		Symbol: symbol,
		Name:   quote.Name,
		Shares: count,
		Price:  quote.Price,
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		var holding models.Holding
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND symbol = ?", userID, symbol).
			Take(&holding).Error; err != nil {
			return fmt.Errorf("lock holding: %w", err)
		}
		if count > holding.Shares {
			return fmt.Errorf("%w: selling %d of %d %s", ErrInsufficientShares, count, holding.Shares, symbol)
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("cash", user.Cash.Add(proceeds)).Error; err != nil {
			return fmt.Errorf("credit cash: %w", err)
		}
		if err := tx.Model(&models.Holding{}).Where("id = ?", holding.ID).
			Update("shares", holding.Shares-count).Error; err != nil {
			return fmt.Errorf("decrement holding: %w", err)
		}

		txn.Timestamp = e.now()
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	e.logger.Info("Sold shares",
		zap.Uint("user_id", userID),
		zap.String("symbol", symbol),
		zap.Int64("shares", count),
		zap.String("price", txn.Price.String()))
	e.publish(ctx, txn)
	return txn, nil
}

func lockUser(tx *gorm.DB, userID uint) (models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	if err != nil {
		return user, fmt.Errorf("lock user: %w", err)
	}
	return user, nil
}

// publish forwards a committed trade. Failures are logged and never undo it.
func (e *Engine) publish(ctx context.Context, txn models.Transaction) {
	ev := events.TradeEvent{
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Type:          string(txn.Type),
		Symbol:        txn.Symbol,
		Shares:        txn.Shares,
		Price:         txn.Price,
		Timestamp:     txn.Timestamp,
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Error("Trade event publish failed", zap.Uint("transaction_id", txn.ID), zap.Error(err))
	}
}
