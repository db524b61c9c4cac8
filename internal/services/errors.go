package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/strivetech/saiplatform/pkg/errors"
)

var (
	ErrSlugTaken = apperrors.New(apperrors.KindConflict, "ORGANIZATION_SLUG_TAKEN", "Organization slug is already taken")

	ErrAlreadyMember = apperrors.New(apperrors.KindConflict, "MEMBER_EXISTS", "User is already a member of this organization")

	ErrMemberNotFound = apperrors.New(apperrors.KindNotFound, "MEMBER_NOT_FOUND", "Member not found")

	ErrOrganizationNotFound = apperrors.New(apperrors.KindNotFound, "ORGANIZATION_NOT_FOUND", "Organization not found")

	ErrNotMember = apperrors.New(apperrors.KindForbidden, "NOT_A_MEMBER", "You are not a member of this organization")

	ErrOwnerRoleImmutable = apperrors.New(apperrors.KindForbidden, "OWNER_ROLE_IMMUTABLE", "Cannot change owner role")

	ErrOwnerNotRemovable = apperrors.New(apperrors.KindForbidden, "OWNER_NOT_REMOVABLE", "Cannot remove owner from organization")

	ErrIdentityConflict = apperrors.New(apperrors.KindConflict, "IDENTITY_CONFLICT", "Email address is linked to another account")

	ErrEmailNotConfigured = apperrors.New(apperrors.KindTransient, "EMAIL_NOT_CONFIGURED", "Email delivery is not configured")

	ErrEmailDelivery = apperrors.New(apperrors.KindTransient, "EMAIL_DELIVERY_FAILED", "Email could not be delivered, please try again later")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
