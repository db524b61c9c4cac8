package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/strivetech/saiplatform/internal/cache"
	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/internal/permissions"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
	"github.com/strivetech/saiplatform/pkg/logger"
	"github.com/strivetech/saiplatform/pkg/mail"
	"github.com/strivetech/saiplatform/pkg/validator"
)

const inviteDeliveryTimeout = 30 * time.Second

// CreateOrganizationInput carries the fields accepted when creating an organization.
type CreateOrganizationInput struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Slug         string `json:"slug" validate:"required,min=3,max=50,slug"`
	Description  string `json:"description" validate:"max=500"`
	BillingEmail string `json:"billing_email" validate:"omitempty,email"`
}

func (in CreateOrganizationInput) normalise() CreateOrganizationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Description = strings.TrimSpace(in.Description)
	in.BillingEmail = normaliseEmail(in.BillingEmail)
	return in
}

// InviteMemberInput carries the fields accepted when inviting a member.
type InviteMemberInput struct {
	OrganizationID string            `json:"organization_id" validate:"required,uuid"`
	Email          string            `json:"email" validate:"required,email"`
	Role           models.MemberRole `json:"role" validate:"required,oneof=ADMIN MODERATOR EMPLOYEE CLIENT"`
}

// UpdateMemberRoleInput carries the fields accepted when changing a member's role.
type UpdateMemberRoleInput struct {
	MemberID string            `json:"member_id" validate:"required,uuid"`
	Role     models.MemberRole `json:"role" validate:"required,oneof=ADMIN MODERATOR EMPLOYEE CLIENT"`
}

type memberReference struct {
	MemberID string `json:"member_id" validate:"required,uuid"`
}

type organizationReference struct {
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
}

// OrganizationService performs capability-gated organization and membership mutations.
type OrganizationService struct {
	db       *gorm.DB
	checker  *permissions.Checker
	queries  *OrganizationQueries
	activity *ActivityService
	views    cache.Invalidator
	notifier InviteNotifier
	now      func() time.Time

	pending sync.WaitGroup
}

// NewOrganizationService constructs an OrganizationService. The activity
// service, view invalidator and invite notifier are optional.
func NewOrganizationService(db *gorm.DB, checker *permissions.Checker, activity *ActivityService, views cache.Invalidator, notifier InviteNotifier) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	if checker == nil {
		var err error
		if checker, err = permissions.NewChecker(db); err != nil {
			return nil, err
		}
	}
	queries, err := NewOrganizationQueries(db)
	if err != nil {
		return nil, err
	}
	return &OrganizationService{
		db:       db,
		checker:  checker,
		queries:  queries,
		activity: activity,
		views:    views,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// CreateOrganization creates an organization owned by the current actor along
// with its FREE subscription.
func (s *OrganizationService) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*models.Organization, error) {
	ctx = ensureContext(ctx)
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	input = input.normalise()
	if err := validator.Check(input); err != nil {
		return nil, err
	}

	org := &models.Organization{
		Name:         input.Name,
		Slug:         input.Slug,
		Description:  input.Description,
		BillingEmail: input.BillingEmail,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Organization{}).Where("slug = ?", org.Slug).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrSlugTaken
		}

		if err := tx.Create(org).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrSlugTaken
			}
			return err
		}

		owner := models.OrganizationMember{
			UserID:         actor.UserID,
			OrganizationID: org.ID,
			Role:           models.MemberRoleOwner,
			JoinedAt:       s.now().UTC(),
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		subscription := models.Subscription{
			OrganizationID: org.ID,
			Tier:           models.TierFree,
			Status:         models.SubscriptionStatusActive,
		}
		if err := tx.Create(&subscription).Error; err != nil {
			return err
		}
		org.Subscription = &subscription

		return tx.Model(&models.User{}).
			Where("id = ? AND active_organization_id IS NULL", actor.UserID).
			Update("active_organization_id", org.ID).Error
	})
	if err != nil {
		return nil, storageError(err, "organization service: create organization")
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		OrganizationID: org.ID,
		UserID:         actor.UserID,
		Action:         ActionOrganizationCreated,
		EntityType:     "organization",
		EntityID:       org.ID,
		After:          map[string]any{"name": org.Name, "slug": org.Slug},
	})
	s.invalidate(ctx, org.ID, cache.RouteDashboard, cache.RouteSettings)

	return org, nil
}

// InviteTeamMember adds the user with the given email to an organization,
// provisioning a placeholder user when the email is unknown.
func (s *OrganizationService) InviteTeamMember(ctx context.Context, input InviteMemberInput) (*models.OrganizationMember, error) {
	ctx = ensureContext(ctx)
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	input.OrganizationID = strings.TrimSpace(input.OrganizationID)
	input.Email = normaliseEmail(input.Email)
	if err := validator.Check(input); err != nil {
		return nil, err
	}
	if !input.Role.Assignable() {
		return nil, apperrors.NewBadRequest("role is not assignable")
	}

	var (
		member  models.OrganizationMember
		orgName string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(ctx, tx, actor.UserID, input.OrganizationID, permissions.MemberInvite); err != nil {
			return err
		}

		var org models.Organization
		if err := tx.Select("id", "name").Where("id = ?", input.OrganizationID).Take(&org).Error; err != nil {
			if isNotFound(err) {
				return ErrOrganizationNotFound
			}
			return err
		}
		orgName = org.Name

		user, err := s.findOrCreatePlaceholder(tx, input.Email)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.OrganizationMember{}).
			Where("user_id = ? AND organization_id = ?", user.ID, org.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyMember
		}

		member = models.OrganizationMember{
			UserID:         user.ID,
			OrganizationID: org.ID,
			Role:           input.Role,
			JoinedAt:       s.now().UTC(),
		}
		if err := tx.Create(&member).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadyMember
			}
			return err
		}
		member.User = user
		return nil
	})
	if err != nil {
		return nil, storageError(err, "organization service: invite member")
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		OrganizationID: member.OrganizationID,
		UserID:         actor.UserID,
		Action:         ActionMemberInvited,
		EntityType:     "member",
		EntityID:       member.ID,
		After:          map[string]any{"email": input.Email, "role": string(member.Role)},
	})
	s.notifyInvite(ctx, InviteNotice{
		Email:            input.Email,
		OrganizationName: orgName,
		InviterName:      actor.Name,
		Role:             member.Role,
	})
	s.invalidate(ctx, member.OrganizationID, cache.RouteSettings, cache.RouteDashboard)

	return &member, nil
}

// findOrCreatePlaceholder returns the user registered under email, creating
// one inside a savepoint so a lost creation race can be re-read in tx.
func (s *OrganizationService) findOrCreatePlaceholder(tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := tx.Where("email = ?", email).Take(&user).Error
	if err == nil {
		return &user, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	user = models.User{
		Email: email,
		Name:  emailLocalPart(email),
		Role:  models.UserRoleEmployee,
	}
	err = tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(&user).Error
	})
	if err == nil {
		return &user, nil
	}
	if !isUniqueConstraintError(err) {
		return nil, err
	}

	var existing models.User
	if err := tx.Where("email = ?", email).Take(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// UpdateMemberRole changes the role of a non-owner member.
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, input UpdateMemberRoleInput) (*models.OrganizationMember, error) {
	ctx = ensureContext(ctx)
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	input.MemberID = strings.TrimSpace(input.MemberID)
	if err := validator.Check(input); err != nil {
		return nil, err
	}
	if !input.Role.Assignable() {
		return nil, apperrors.NewBadRequest("role is not assignable")
	}

	var (
		member       models.OrganizationMember
		previousRole models.MemberRole
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockMember(tx, input.MemberID, &member); err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actor.UserID, member.OrganizationID, permissions.MemberUpdateRole); err != nil {
			return err
		}
		if member.Role == models.MemberRoleOwner {
			return ErrOwnerRoleImmutable
		}

		previousRole = member.Role
		if previousRole == input.Role {
			return nil
		}
		if err := tx.Model(&member).Update("role", input.Role).Error; err != nil {
			return err
		}
		member.Role = input.Role
		return nil
	})
	if err != nil {
		return nil, storageError(err, "organization service: update member role")
	}

	if previousRole != member.Role {
		recordActivity(ctx, s.activity, ActivityEntry{
			OrganizationID: member.OrganizationID,
			UserID:         actor.UserID,
			Action:         ActionMemberRoleUpdated,
			EntityType:     "member",
			EntityID:       member.ID,
			Before:         map[string]any{"role": string(previousRole)},
			After:          map[string]any{"role": string(member.Role)},
		})
		s.invalidate(ctx, member.OrganizationID, cache.RouteSettings, cache.RouteDashboard)
	}

	return &member, nil
}

// RemoveMemberFromOrganization deletes a non-owner membership.
func (s *OrganizationService) RemoveMemberFromOrganization(ctx context.Context, memberID string) error {
	ctx = ensureContext(ctx)
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	ref := memberReference{MemberID: strings.TrimSpace(memberID)}
	if err := validator.Check(ref); err != nil {
		return err
	}

	var member models.OrganizationMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockMember(tx, ref.MemberID, &member); err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actor.UserID, member.OrganizationID, permissions.MemberRemove); err != nil {
			return err
		}
		if member.Role == models.MemberRoleOwner {
			return ErrOwnerNotRemovable
		}

		if err := tx.Delete(&models.OrganizationMember{}, "id = ?", member.ID).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ? AND active_organization_id = ?", member.UserID, member.OrganizationID).
			Update("active_organization_id", nil).Error
	})
	if err != nil {
		return storageError(err, "organization service: remove member")
	}

	recordActivity(ctx, s.activity, ActivityEntry{
		OrganizationID: member.OrganizationID,
		UserID:         actor.UserID,
		Action:         ActionMemberRemoved,
		EntityType:     "member",
		EntityID:       member.ID,
		Before:         map[string]any{"user_id": member.UserID, "role": string(member.Role)},
	})
	s.invalidate(ctx, member.OrganizationID, cache.RouteSettings, cache.RouteDashboard)

	return nil
}

// SetActiveOrganization persists orgID as the actor's active organization.
func (s *OrganizationService) SetActiveOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	ctx = ensureContext(ctx)
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	ref := organizationReference{OrganizationID: strings.TrimSpace(orgID)}
	if err := validator.Check(ref); err != nil {
		return nil, err
	}

	member, err := s.queries.membership(ctx, s.db, actor.UserID, ref.OrganizationID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", actor.UserID).
		Update("active_organization_id", member.OrganizationID).Error
	if err != nil {
		return nil, storageError(err, "organization service: set active organization")
	}
	return member.Organization, nil
}

// RequireCapability fails with Forbidden unless the actor holds capabilityID in orgID.
func (s *OrganizationService) RequireCapability(ctx context.Context, orgID, capabilityID string) error {
	ctx = ensureContext(ctx)
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	return s.authorize(ctx, s.db, actor.UserID, strings.TrimSpace(orgID), capabilityID)
}

// Wait blocks until in-flight invitation notices have been handed off.
func (s *OrganizationService) Wait() {
	s.pending.Wait()
}

func (s *OrganizationService) authorize(ctx context.Context, db *gorm.DB, userID, orgID, capabilityID string) error {
	if orgID == "" {
		return apperrors.ErrForbidden
	}
	allowed, err := s.checker.WithTx(db).Check(ctx, userID, orgID, capabilityID)
	if err != nil {
		return apperrors.Storage(err, "organization service: check capability")
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *OrganizationService) lockMember(tx *gorm.DB, memberID string, member *models.OrganizationMember) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", memberID).
		Take(member).Error
	if isNotFound(err) {
		return ErrMemberNotFound
	}
	return err
}

func (s *OrganizationService) invalidate(ctx context.Context, orgID string, routes ...string) {
	if s.views == nil {
		return
	}
	for _, route := range routes {
		s.views.Invalidate(ctx, route, orgID)
	}
}

func (s *OrganizationService) notifyInvite(ctx context.Context, notice InviteNotice) {
	if s.notifier == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inviteDeliveryTimeout)
		defer cancel()

		if err := s.notifier.NotifyInvite(sendCtx, notice); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
			logger.WithModule("organizations").Warn("failed to deliver invitation",
				zap.String("email", notice.Email),
				zap.Error(err),
			)
		}
	}()
}
