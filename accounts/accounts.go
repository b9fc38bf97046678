package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"stocks-simulator/models"
)

var (
	ErrMissingUsername    = errors.New("must provide username")
	ErrMissingPassword    = errors.New("must provide password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password does not meet the policy")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
)

// Service stores and checks user credentials.
type Service struct {
	db          *gorm.DB
	initialCash decimal.Decimal
	cost        int
	logger      *zap.Logger
}

func NewService(db *gorm.DB, initialCash decimal.Decimal, logger *zap.Logger) *Service {
	return &Service{db: db, initialCash: initialCash, cost: bcrypt.DefaultCost, logger: logger}
}

// Register creates a user funded with the initial cash balance.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (models.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return models.User{}, ErrMissingUsername
	case password == "":
		return models.User{}, ErrMissingPassword
	case confirmation == "" || password != confirmation:
		return models.User{}, ErrPasswordMismatch
	}
	if err := ValidatePassword(password); err != nil {
		return models.User{}, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&existing).Error; err != nil {
		return models.User{}, fmt.Errorf("check username: %w", err)
	}
	if existing > 0 {
		return models.User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Username: username, Hash: string(hash), Cash: s.initialCash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("Registered user", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords produce the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return models.User{}, ErrMissingUsername
	case password == "":
		return models.User{}, ErrMissingPassword
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}
