// Package requestctx carries the authenticated actor and the requested
// organization through context.Context from middleware into services.
package requestctx

import (
	"context"
	"strings"
)

// Actor captures the authenticated user that initiated a request.
type Actor struct {
	UserID    string
	Email     string
	Name      string
	IPAddress string
	UserAgent string
}

type actorContextKey struct{}
type organizationContextKey struct{}

// WithActor injects actor metadata into the supplied context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFrom extracts the actor stored on ctx. The boolean is false when no
// authenticated user is present.
func ActorFrom(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok || actor.UserID == "" {
		return Actor{}, false
	}
	return actor, true
}

// WithOrganization records the organization the caller asked to act within.
// Blank ids leave ctx unchanged.
func WithOrganization(ctx context.Context, orgID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ctx
	}
	return context.WithValue(ctx, organizationContextKey{}, orgID)
}

// OrganizationFrom returns the requested organization id, if any.
func OrganizationFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	orgID, ok := ctx.Value(organizationContextKey{}).(string)
	return orgID, ok && orgID != ""
}
