package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/models"
)

// OrganizationQueries exposes read-only organization and membership lookups.
// Absent rows are reported as nil results rather than errors.
type OrganizationQueries struct {
	db *gorm.DB
}

// NewOrganizationQueries constructs OrganizationQueries using the provided database handle.
func NewOrganizationQueries(db *gorm.DB) (*OrganizationQueries, error) {
	if db == nil {
		return nil, errors.New("organization queries: db is required")
	}
	return &OrganizationQueries{db: db}, nil
}

// GetOrganization returns the organization with id, or nil when none exists.
func (q *OrganizationQueries) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	return q.findOrganization(ensureContext(ctx), "id = ?", strings.TrimSpace(id))
}

// GetOrganizationBySlug returns the organization with slug, or nil when none exists.
func (q *OrganizationQueries) GetOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return q.findOrganization(ensureContext(ctx), "slug = ?", strings.TrimSpace(slug))
}

func (q *OrganizationQueries) findOrganization(ctx context.Context, cond string, value string) (*models.Organization, error) {
	if value == "" {
		return nil, nil
	}

	var org models.Organization
	err := q.db.WithContext(ctx).
		Preload("Subscription").
		Where(cond, value).
		Take(&org).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "organization queries: get organization")
	}
	return &org, nil
}

// GetUserOrganizations lists the user's memberships with their organizations,
// most recently joined first.
func (q *OrganizationQueries) GetUserOrganizations(ctx context.Context, userID string) ([]models.OrganizationMember, error) {
	ctx = ensureContext(ctx)

	memberships := make([]models.OrganizationMember, 0)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return memberships, nil
	}

	err := q.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&memberships).Error
	if err != nil {
		return nil, storageError(err, "organization queries: list user organizations")
	}
	return memberships, nil
}

// GetOrganizationMembers lists the members of an organization with their users,
// earliest joined first.
func (q *OrganizationQueries) GetOrganizationMembers(ctx context.Context, orgID string) ([]models.OrganizationMember, error) {
	ctx = ensureContext(ctx)

	members := make([]models.OrganizationMember, 0)
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return members, nil
	}

	err := q.db.WithContext(ctx).
		Preload("User").
		Where("organization_id = ?", orgID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, storageError(err, "organization queries: list members")
	}
	return members, nil
}

// CheckSlugAvailability reports whether no organization currently uses slug.
func (q *OrganizationQueries) CheckSlugAvailability(ctx context.Context, slug string) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("slug = ?", strings.TrimSpace(slug)).
		Count(&count).Error
	if err != nil {
		return false, storageError(err, "organization queries: check slug")
	}
	return count == 0, nil
}

// GetUserRoleInOrganization returns the user's role in orgID. The boolean is
// false when the user is not a member.
func (q *OrganizationQueries) GetUserRoleInOrganization(ctx context.Context, userID, orgID string) (models.MemberRole, bool, error) {
	member, err := q.membership(ensureContext(ctx), q.db, userID, orgID)
	if err != nil || member == nil {
		return "", false, err
	}
	return member.Role, true, nil
}

// membership loads the (user, organization) membership with its organization
// through db, returning nil when absent.
func (q *OrganizationQueries) membership(ctx context.Context, db *gorm.DB, userID, orgID string) (*models.OrganizationMember, error) {
	userID = strings.TrimSpace(userID)
	orgID = strings.TrimSpace(orgID)
	if userID == "" || orgID == "" {
		return nil, nil
	}

	var member models.OrganizationMember
	err := db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Take(&member).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "organization queries: load membership")
	}
	return &member, nil
}
