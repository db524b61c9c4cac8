package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type payload struct {
	Customers int    `json:"customers"`
	Label     string `json:"label"`
}

type failingStore struct{}

func (failingStore) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error { return errors.New("down") }
func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (failingStore) Delete(context.Context, ...string) error { return errors.New("down") }

func TestViewCacheGetSetAndInvalidate(t *testing.T) {
	views := NewViewCache(newTestDatabaseStore(t), time.Minute)
	ctx := context.Background()

	var out payload
	require.False(t, views.GetJSON(ctx, RouteDashboard, "org-1", "stats", &out))

	views.SetJSON(ctx, RouteDashboard, "org-1", "stats", payload{Customers: 3, Label: "acme"})
	require.True(t, views.GetJSON(ctx, RouteDashboard, "org-1", "stats", &out))
	require.Equal(t, payload{Customers: 3, Label: "acme"}, out)

	// other scopes are untouched
	views.SetJSON(ctx, RouteDashboard, "org-2", "stats", payload{Customers: 9})

	views.Invalidate(ctx, "/dashboard/", "org-1")
	require.False(t, views.GetJSON(ctx, RouteDashboard, "org-1", "stats", &out))

	var other payload
	require.True(t, views.GetJSON(ctx, RouteDashboard, "org-2", "stats", &other))
	require.Equal(t, 9, other.Customers)
}

func TestRememberLoadsOnceUntilInvalidated(t *testing.T) {
	views := NewViewCache(newTestDatabaseStore(t), time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Customers: calls}, nil
	}

	first, err := Remember(ctx, views, RouteDashboard, "org-1", "stats", load)
	require.NoError(t, err)
	second, err := Remember(ctx, views, RouteDashboard, "org-1", "stats", load)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)

	views.Invalidate(ctx, RouteDashboard, "org-1")
	third, err := Remember(ctx, views, RouteDashboard, "org-1", "stats", load)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, 2, third.Customers)
}

func TestRememberIgnoresWritesRacingInvalidation(t *testing.T) {
	views := NewViewCache(newTestDatabaseStore(t), time.Minute)
	ctx := context.Background()

	_, err := Remember(ctx, views, RouteDashboard, "org-1", "stats", func(ctx context.Context) (payload, error) {
		views.Invalidate(ctx, RouteDashboard, "org-1")
		return payload{Label: "stale"}, nil
	})
	require.NoError(t, err)

	var out payload
	require.False(t, views.GetJSON(ctx, RouteDashboard, "org-1", "stats", &out), "stale write must land on a dead generation")
}

func TestRememberPropagatesLoadErrors(t *testing.T) {
	views := NewViewCache(newTestDatabaseStore(t), time.Minute)

	_, err := Remember(context.Background(), views, RouteDashboard, "org-1", "", func(context.Context) (payload, error) {
		return payload{}, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
}

func TestViewCacheToleratesStoreFailures(t *testing.T) {
	views := NewViewCache(failingStore{}, 0)
	ctx := context.Background()
	require.Equal(t, time.Minute, views.TTL())

	views.Invalidate(ctx, RouteSettings, "org-1")
	views.SetJSON(ctx, RouteDashboard, "org-1", "", payload{})

	var out payload
	require.False(t, views.GetJSON(ctx, RouteDashboard, "org-1", "", &out))

	value, err := Remember(ctx, views, RouteDashboard, "org-1", "", func(context.Context) (payload, error) {
		return payload{Customers: 1}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, value.Customers)
}

func TestNilViewCacheIsNoop(t *testing.T) {
	var views *ViewCache
	require.Nil(t, NewViewCache(nil, time.Minute))

	views.Invalidate(context.Background(), RouteDashboard, "org")
	views.SetJSON(context.Background(), RouteDashboard, "org", "", payload{})
	require.False(t, views.GetJSON(context.Background(), RouteDashboard, "org", "", &payload{}))

	value, err := Remember(context.Background(), views, RouteDashboard, "org", "", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, value)
}

func TestNormaliseRoute(t *testing.T) {
	require.Equal(t, "/dashboard", normaliseRoute("dashboard/"))
	require.Equal(t, "/", normaliseRoute("/"))
	require.Equal(t, "/", normaliseRoute(""))
}
