package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/money"
	"github.com/noah-isme/toko-discount/internal/resilience"
)

type countingSource struct {
	calls  int
	err    error
	tables discount.Tables
}

func (s *countingSource) Load(context.Context) (discount.Tables, error) {
	s.calls++
	if s.err != nil {
		return discount.Tables{}, s.err
	}
	return s.tables, nil
}

func TestCachedServesWithinTTL(t *testing.T) {
	src := &countingSource{tables: Fixtures()}
	c := NewCached(src, time.Minute, zerolog.Nop())
	now := time.Unix(100, 0)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.Load(ctx)
	require.NoError(t, err)
	_, err = c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	_, err = c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)

	c.Invalidate()
	_, err = c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, src.calls)
}

func TestCachedFallsBackToLastGood(t *testing.T) {
	src := &countingSource{tables: discount.Tables{Brands: map[string]money.Percent{"PUMA": money.MustPercent("40")}}}
	c := NewCached(src, 0, zerolog.Nop())
	ctx := context.Background()

	_, err := c.Load(ctx)
	require.NoError(t, err)

	src.err = errors.New("redis down")
	tables, err := c.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, tables.Brands, "PUMA")
	require.Equal(t, 2, src.calls)
}

func TestCachedPropagatesFirstFailure(t *testing.T) {
	c := NewCached(&countingSource{err: ErrNotFound}, time.Minute, zerolog.Nop())
	_, err := c.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Error(t, c.Ping(context.Background()))
}

func TestCachedBreakerSkipsSourceWhileOpen(t *testing.T) {
	src := &countingSource{tables: Fixtures()}
	breaker := resilience.NewBreaker(resilience.Options{MinRequests: 1, OpenFor: time.Hour, Target: "rules"})
	c := NewCached(src, 0, zerolog.Nop()).WithBreaker(breaker)
	ctx := context.Background()

	_, err := c.Load(ctx)
	require.NoError(t, err)

	src.err = errors.New("redis down")
	_, err = c.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, resilience.Open, breaker.State())

	tables, err := c.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, tables.Vouchers, "SUPER69")
	require.Equal(t, 2, src.calls)
}

func TestCachedBreakerOpenWithoutTables(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.Options{MinRequests: 1, OpenFor: time.Hour})
	c := NewCached(&countingSource{err: errors.New("down")}, time.Minute, zerolog.Nop()).WithBreaker(breaker)
	ctx := context.Background()

	_, err := c.Load(ctx)
	require.Error(t, err)
	_, err = c.Load(ctx)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
}
