package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/auth"
	"github.com/strivetech/saiplatform/internal/models"
	apperrors "github.com/strivetech/saiplatform/pkg/errors"
)

// IdentityService maps verified external identities onto platform users.
type IdentityService struct {
	db *gorm.DB
}

// NewIdentityService constructs an IdentityService using the provided database handle.
func NewIdentityService(db *gorm.DB) (*IdentityService, error) {
	if db == nil {
		return nil, errors.New("identity service: db is required")
	}
	return &IdentityService{db: db}, nil
}

// Resolve returns the user bound to identity. Unknown subjects claim the
// placeholder user registered under the same email, or a new EMPLOYEE user is
// created.
func (s *IdentityService) Resolve(ctx context.Context, identity auth.ExternalIdentity) (*models.User, error) {
	ctx = ensureContext(ctx)
	identity = identity.Normalise()
	if identity.Subject == "" || identity.Email == "" {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.findBySubject(ctx, identity.Subject)
	if err != nil || user != nil {
		return user, err
	}

	user, err = s.claim(ctx, identity)
	if err != nil || user != nil {
		return user, err
	}

	return s.create(ctx, identity)
}

func (s *IdentityService) findBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("external_id = ?", subject).Take(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "identity service: find by subject")
	}
	return &user, nil
}

// claim binds identity to the user registered under its email. It returns nil
// when no such user exists.
func (s *IdentityService) claim(ctx context.Context, identity auth.ExternalIdentity) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", identity.Email).Take(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, storageError(err, "identity service: find by email")
	}
	if !user.IsPlaceholder() {
		return nil, ErrIdentityConflict
	}

	updates := map[string]any{"external_id": identity.Subject}
	if name := strings.TrimSpace(identity.Name); name != "" {
		updates["name"] = name
	}
	if avatar := strings.TrimSpace(identity.AvatarURL); avatar != "" {
		updates["avatar"] = avatar
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND (external_id IS NULL OR external_id = '')", user.ID).
		Updates(updates)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return s.reread(ctx, identity)
		}
		return nil, storageError(result.Error, "identity service: claim user")
	}
	if result.RowsAffected == 0 {
		return s.reread(ctx, identity)
	}

	return s.findBySubject(ctx, identity.Subject)
}

func (s *IdentityService) create(ctx context.Context, identity auth.ExternalIdentity) (*models.User, error) {
	subject := identity.Subject
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = emailLocalPart(identity.Email)
	}

	user := models.User{
		Email:      identity.Email,
		Name:       name,
		Avatar:     strings.TrimSpace(identity.AvatarURL),
		Role:       models.UserRoleEmployee,
		ExternalID: &subject,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return s.reread(ctx, identity)
		}
		return nil, storageError(err, "identity service: create user")
	}
	return &user, nil
}

// reread resolves a lost race against a concurrent provisioning of the same identity.
func (s *IdentityService) reread(ctx context.Context, identity auth.ExternalIdentity) (*models.User, error) {
	user, err := s.findBySubject(ctx, identity.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrIdentityConflict
	}
	return user, nil
}
