package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSession means the request is anonymous.
var ErrNoSession = errors.New("no active session")

// Identity is the authenticated side of the session state machine.
type Identity struct {
	UserID    uint
	SessionID string
}

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues and resolves session tokens. The token is a signed JWT
// naming a session id; the session itself lives in Redis so logout takes
// effect immediately.
type Manager struct {
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(rdb *redis.Client, secret string, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func sessionKey(id string) string {
	return "session:" + id
}

// Start opens a session for userID and returns the signed token.
func (m *Manager) Start(ctx context.Context, userID uint) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}
	if err := m.rdb.Set(ctx, sessionKey(id), userID, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Resolve maps a token back to its identity. Any invalid, expired or revoked
// token yields ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, token string) (Identity, error) {
	c, err := m.parse(token)
	if err != nil {
		return Identity{}, err
	}
	stored, err := m.rdb.Get(ctx, sessionKey(c.SessionID)).Result()
	if err == redis.Nil {
		return Identity{}, ErrNoSession
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load session: %w", err)
	}
	if stored != c.Subject {
		return Identity{}, ErrNoSession
	}
	uid, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return Identity{}, ErrNoSession
	}
	return Identity{UserID: uint(uid), SessionID: c.SessionID}, nil
}

// End revokes the session named by token. Ending an invalid token is a no-op.
func (m *Manager) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	c, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.rdb.Del(ctx, sessionKey(c.SessionID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) parse(token string) (*claims, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || c.SessionID == "" {
		return nil, ErrNoSession
	}
	return &c, nil
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
