package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/requestctx"
)

// ActiveOrganizationResolver decides which organization a request operates on.
//
// The organization requested on the context wins and must be one of the
// user's memberships. Otherwise the user's persisted selection is used while
// it is still a membership, falling back to the most recently joined one.
type ActiveOrganizationResolver struct {
	db      *gorm.DB
	queries *OrganizationQueries
}

// NewActiveOrganizationResolver constructs a resolver using the provided database handle.
func NewActiveOrganizationResolver(db *gorm.DB, queries *OrganizationQueries) (*ActiveOrganizationResolver, error) {
	if db == nil {
		return nil, errors.New("active organization resolver: db is required")
	}
	if queries == nil {
		var err error
		if queries, err = NewOrganizationQueries(db); err != nil {
			return nil, err
		}
	}
	return &ActiveOrganizationResolver{db: db, queries: queries}, nil
}

// Resolve returns the active membership of userID with its organization
// preloaded, or nil when the user belongs to no organization.
func (r *ActiveOrganizationResolver) Resolve(ctx context.Context, userID string) (*models.OrganizationMember, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	if requested, ok := requestctx.OrganizationFrom(ctx); ok {
		member, err := r.queries.membership(ctx, r.db, userID, requested)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, ErrNotMember
		}
		return member, nil
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Select("id", "active_organization_id").
		Where("id = ?", userID).
		Take(&user).Error
	if err != nil && !isNotFound(err) {
		return nil, storageError(err, "active organization resolver: load user")
	}
	if err == nil && user.ActiveOrganizationID != nil {
		member, err := r.queries.membership(ctx, r.db, userID, *user.ActiveOrganizationID)
		if err != nil {
			return nil, err
		}
		if member != nil {
			return member, nil
		}
	}

	memberships, err := r.queries.GetUserOrganizations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	return &memberships[0], nil
}
