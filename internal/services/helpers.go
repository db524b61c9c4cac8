package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/requestctx"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// requireActor returns the authenticated user bound to ctx.
func requireActor(ctx context.Context) (requestctx.Actor, error) {
	actor, ok := requestctx.ActorFrom(ctx)
	if !ok {
		return requestctx.Actor{}, apperrors.ErrUnauthorized
	}
	return actor, nil
}

// storageError classifies err for callers: AppErrors pass through untouched,
// anything else is a transient storage failure.
func storageError(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Storage(err, op)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailLocalPart returns the portion of email before the @, used as a display
// name for users that have not signed in yet.
func emailLocalPart(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
