package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stocks-simulator/models"
)

// Position is a holding annotated with its live price.
type Position struct {
	Symbol      string
	Name        string
	Shares      int64
	Price       decimal.Decimal
	Value       decimal.Decimal
	Unavailable bool
}

// Portfolio is the read-only view of a user's account.
type Portfolio struct {
	Username      string
	Cash          decimal.Decimal
	Positions     []Position
	HoldingsValue decimal.Decimal
	GrandTotal    decimal.Decimal
	// Unpriced lists symbols whose quote lookup failed. Their value is left
	// out of HoldingsValue and GrandTotal.
	Unpriced []string
}

// Portfolio lists the user's non-empty holdings at current prices.
func (e *Engine) Portfolio(ctx context.Context, userID uint) (Portfolio, error) {
	user, err := e.Account(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}

	var holdings []models.Holding
	if err := e.db.WithContext(ctx).
		Where("user_id = ? AND shares > 0", userID).
		Order("symbol").
		Find(&holdings).Error; err != nil {
		return Portfolio{}, fmt.Errorf("load holdings: %w", err)
	}

	view := Portfolio{
		Username:      user.Username,
		Cash:          user.Cash,
		Positions:     make([]Position, 0, len(holdings)),
		HoldingsValue: decimal.Zero,
	}
	for _, h := range holdings {
		pos := Position{Symbol: h.Symbol, Name: h.Name, Shares: h.Shares}
		q, err := e.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			e.logger.Warn("Pricing holding failed", zap.String("symbol", h.Symbol), zap.Error(err))
			pos.Unavailable = true
			view.Unpriced = append(view.Unpriced, h.Symbol)
			view.Positions = append(view.Positions, pos)
			continue
		}
		if q.Name != "" {
			pos.Name = q.Name
		}
		pos.Price = q.Price
		pos.Value = q.Price.Mul(decimal.NewFromInt(h.Shares))
		view.HoldingsValue = view.HoldingsValue.Add(pos.Value)
		view.Positions = append(view.Positions, pos)
	}
	view.GrandTotal = view.HoldingsValue.Add(view.Cash)
	return view, nil
}

// History returns the user's transactions, oldest first.
func (e *Engine) History(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp, id").
		Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return txns, nil
}

// Cash returns the user's available cash.
func (e *Engine) Cash(ctx context.Context, userID uint) (decimal.Decimal, error) {
	user, err := e.Account(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Cash, nil
}

// OwnedSymbols lists the symbols the user can currently sell.
func (e *Engine) OwnedSymbols(ctx context.Context, userID uint) ([]string, error) {
	var symbols []string
	if err := e.db.WithContext(ctx).Model(&models.Holding{}).
		Where("user_id = ? AND shares > 0", userID).
		Order("symbol").
		Pluck("symbol", &symbols).Error; err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	return symbols, nil
}

// Account loads the user row.
func (e *Engine) Account(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	err := e.db.WithContext(ctx).Take(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	if err != nil {
		return user, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
