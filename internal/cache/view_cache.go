package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/strivetech/saiplatform/pkg/logger"
	"github.com/strivetech/saiplatform/pkg/metrics"
)

const (
	// RouteDashboard identifies cached dashboard payloads.
	RouteDashboard = "/dashboard"
	// RouteSettings identifies organization settings views.
	RouteSettings = "/settings"

	defaultViewTTL        = time.Minute
	minGenerationLifetime = 24 * time.Hour
)

// Invalidator marks cached views stale after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, route, scope string)
}

// ViewCache stores rendered payloads keyed by route and scope. Each
// (route, scope) pair has a generation counter; Invalidate bumps it so every
// payload written under the previous generation is unreachable at once.
// Store failures are logged and reported as misses.
type ViewCache struct {
	store  Store
	ttl    time.Duration
	genTTL time.Duration
	log    *zap.Logger
}

// NewViewCache wraps store. Payloads live for ttl; a non-positive ttl uses one minute.
func NewViewCache(store Store, ttl time.Duration) *ViewCache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	genTTL := ttl * 2
	if genTTL < minGenerationLifetime {
		genTTL = minGenerationLifetime
	}
	return &ViewCache{
		store:  store,
		ttl:    ttl,
		genTTL: genTTL,
		log:    logger.WithModule("view_cache"),
	}
}

// TTL returns the payload lifetime.
func (v *ViewCache) TTL() time.Duration {
	if v == nil {
		return 0
	}
	return v.ttl
}

// Invalidate bumps the generation for (route, scope).
func (v *ViewCache) Invalidate(ctx context.Context, route, scope string) {
	if v == nil {
		return
	}
	if _, _, err := v.store.IncrementWithTTL(ensureContext(ctx), generationKey(route, scope), v.genTTL); err != nil {
		v.log.Warn("invalidate view failed",
			zap.String("route", route),
			zap.String("scope", scope),
			zap.Error(err),
		)
	}
}

// GetJSON decodes the cached payload into dest and reports whether it was present.
func (v *ViewCache) GetJSON(ctx context.Context, route, scope, variant string, dest interface{}) bool {
	if v == nil {
		return false
	}
	ctx = ensureContext(ctx)

	key, err := v.payloadKey(ctx, route, scope, variant)
	if err != nil {
		v.observe(route, "error", err)
		return false
	}

	raw, ok, err := v.store.Get(ctx, key)
	if err != nil {
		v.observe(route, "error", err)
		return false
	}
	if !ok {
		v.observe(route, "miss", nil)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		v.observe(route, "error", fmt.Errorf("decode cached payload: %w", err))
		return false
	}

	v.observe(route, "hit", nil)
	return true
}

// SetJSON encodes value and stores it under the current generation.
func (v *ViewCache) SetJSON(ctx context.Context, route, scope, variant string, value interface{}) {
	if v == nil {
		return
	}
	ctx = ensureContext(ctx)

	key, err := v.payloadKey(ctx, route, scope, variant)
	if err != nil {
		v.observe(route, "error", err)
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		v.observe(route, "error", fmt.Errorf("encode payload: %w", err))
		return
	}
	if err := v.store.Set(ctx, key, raw, v.ttl); err != nil {
		v.observe(route, "error", err)
	}
}

// Remember returns the cached payload for (route, scope, variant) or calls load
// and caches its result. The generation is captured before load runs, so an
// invalidation that lands while loading leaves the fresh write unreachable.
func Remember[T any](ctx context.Context, v *ViewCache, route, scope, variant string, load func(context.Context) (T, error)) (T, error) {
	if v == nil {
		return load(ctx)
	}
	ctx = ensureContext(ctx)

	key, err := v.payloadKey(ctx, route, scope, variant)
	if err != nil {
		v.observe(route, "error", err)
		return load(ctx)
	}

	if raw, ok, err := v.store.Get(ctx, key); err != nil {
		v.observe(route, "error", err)
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			v.observe(route, "hit", nil)
			return cached, nil
		}
		v.observe(route, "error", errors.New("decode cached payload"))
	} else {
		v.observe(route, "miss", nil)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	if raw, err := json.Marshal(value); err == nil {
		if err := v.store.Set(ctx, key, raw, v.ttl); err != nil {
			v.observe(route, "error", err)
		}
	}
	return value, nil
}

func (v *ViewCache) payloadKey(ctx context.Context, route, scope, variant string) (string, error) {
	generation, err := v.generation(ctx, route, scope)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("view:%s:%s:g%d", normaliseRoute(route), scope, generation)
	if variant != "" {
		key += ":" + variant
	}
	return key, nil
}

func (v *ViewCache) generation(ctx context.Context, route, scope string) (int64, error) {
	raw, ok, err := v.store.Get(ctx, generationKey(route, scope))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, errors.New("view cache: corrupt generation counter")
	}
	return value, nil
}

func (v *ViewCache) observe(route, result string, err error) {
	metrics.ViewCacheResults.WithLabelValues(route, result).Inc()
	if err != nil {
		v.log.Warn("view cache unavailable", zap.String("route", route), zap.Error(err))
	}
}

func generationKey(route, scope string) string {
	return fmt.Sprintf("viewgen:%s:%s", normaliseRoute(route), scope)
}

func normaliseRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if trimmed := strings.TrimRight(route, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}
