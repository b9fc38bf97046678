package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type countingProvider struct {
	calls int
	quote Quote
	err   error
}

func (p *countingProvider) Lookup(_ context.Context, symbol string) (Quote, error) {
	p.calls++
	if p.err != nil {
		return Quote{}, p.err
	}
	q := p.quote
	q.Symbol = symbol
	return q, nil
}

func TestNewCache_DisabledReturnsInner(t *testing.T) {
	inner := &countingProvider{}
	if got := NewCache(inner, nil, time.Minute, zap.NewNop()); got != Provider(inner) {
		t.Errorf("NewCache() with nil client should return the inner provider")
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if got := NewCache(inner, rdb, 0, zap.NewNop()); got != Provider(inner) {
		t.Errorf("NewCache() with zero ttl should return the inner provider")
	}
}

func TestCache_Lookup(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingProvider{quote: Quote{Name: "Netflix Inc", Price: decimal.NewFromInt(500)}}
	c := NewCache(inner, rdb, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := c.Lookup(ctx, "nflx")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	second, err := c.Lookup(ctx, "NFLX")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner provider calls = %d, want 1", inner.calls)
	}
	if !first.Price.Equal(second.Price) || second.Name != "Netflix Inc" || second.Symbol != "NFLX" {
		t.Errorf("cached quote = %+v, want %+v", second, first)
	}
	if !mr.Exists("stock:NFLX:quote") {
		t.Errorf("expected stock:NFLX:quote in redis")
	}

	mr.FastForward(2 * time.Minute)
	if _, err := c.Lookup(ctx, "NFLX"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner provider calls after expiry = %d, want 2", inner.calls)
	}
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := &countingProvider{err: ErrNotFound}
	c := NewCache(inner, rdb, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := c.Lookup(context.Background(), "ZZZZ"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner provider calls = %d, want 2", inner.calls)
	}
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	inner := &countingProvider{quote: Quote{Name: "Netflix Inc", Price: decimal.NewFromInt(500)}}
	c := NewCache(inner, rdb, time.Minute, zap.NewNop())
	mr.Close()

	q, err := c.Lookup(context.Background(), "NFLX")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !q.Price.Equal(decimal.NewFromInt(500)) {
		t.Errorf("price = %v, want 500", q.Price)
	}
}
