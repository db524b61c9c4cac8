package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/models"
	"github.com/strivetech/saiplatform/pkg/metrics"
)

// Allows reports whether role holds capability, including its dependencies.
// Unknown capabilities are never allowed.
func Allows(role models.MemberRole, capabilityID string) bool {
	capability, ok := Get(capabilityID)
	if !ok || !grants(capability, role) {
		return false
	}

	deps, err := ResolveDependencies(capabilityID)
	if err != nil {
		return false
	}
	for _, dep := range deps {
		def, ok := Get(dep)
		if !ok || !grants(def, role) {
			return false
		}
	}
	return true
}

// CapabilitiesFor lists every capability granted to role.
func CapabilitiesFor(role models.MemberRole) []string {
	var out []string
	for id := range All() {
		if Allows(role, id) {
			out = append(out, id)
		}
	}
	return out
}

func grants(capability *Capability, role models.MemberRole) bool {
	for _, granted := range capability.Roles {
		if granted == role {
			return true
		}
	}
	return false
}

// Checker evaluates a user's capabilities within an organization from their membership.
type Checker struct {
	db *gorm.DB
}

// NewChecker constructs a checker backed by the provided database.
func NewChecker(db *gorm.DB) (*Checker, error) {
	if db == nil {
		return nil, errors.New("capability checker: db is required")
	}
	return &Checker{db: db}, nil
}

// WithTx returns a checker that reads through tx.
func (c *Checker) WithTx(tx *gorm.DB) *Checker {
	return &Checker{db: tx}
}

// Check reports whether userID may perform capabilityID in orgID. Users with
// no membership in orgID hold no capabilities.
func (c *Checker) Check(ctx context.Context, userID, orgID, capabilityID string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	userID = strings.TrimSpace(userID)
	orgID = strings.TrimSpace(orgID)
	if userID == "" || orgID == "" {
		return false, errors.New("capability checker: user id and organization id are required")
	}
	if _, ok := Get(capabilityID); !ok {
		return false, fmt.Errorf("%w %q", ErrUnknownCapability, capabilityID)
	}

	var member models.OrganizationMember
	err := c.db.WithContext(ctx).
		Select("role").
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.CapabilityChecks.WithLabelValues(capabilityID, "deny").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("capability checker: load membership: %w", err)
	}

	allowed := Allows(member.Role, capabilityID)
	result := "deny"
	if allowed {
		result = "allow"
	}
	metrics.CapabilityChecks.WithLabelValues(capabilityID, result).Inc()
	return allowed, nil
}
