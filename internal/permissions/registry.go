package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/strivetech/saiplatform/internal/models"
)

// Capability is an action a member may perform inside an organization.
// Roles lists the member roles granted the capability directly; a role also
// needs every capability in DependsOn.
type Capability struct {
	ID          string
	Description string
	DependsOn   []string
	Roles       []models.MemberRole
}

type capabilityRegistry struct {
	mu           sync.RWMutex
	capabilities map[string]*Capability
}

var globalRegistry = &capabilityRegistry{
	capabilities: make(map[string]*Capability),
}

var (
	errNilCapability  = errors.New("capability: nil definition")
	errEmptyID        = errors.New("capability: id is required")
	errDuplicateID    = errors.New("capability: already registered")
	errSelfDependency = errors.New("capability: cannot depend on itself")
	errUnknownRole    = errors.New("capability: unknown member role")
)

// Register adds a capability definition to the global registry.
func Register(capability *Capability) error {
	if capability == nil {
		return errNilCapability
	}

	id := strings.TrimSpace(capability.ID)
	if id == "" {
		return errEmptyID
	}

	def := cloneCapability(capability)
	def.ID = id

	depends, err := normaliseIDs(def.DependsOn, id)
	if err != nil {
		return err
	}
	def.DependsOn = depends

	for _, role := range def.Roles {
		if !role.Valid() {
			return fmt.Errorf("%w: %s", errUnknownRole, role)
		}
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.capabilities[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateID, id)
	}
	globalRegistry.capabilities[id] = def
	return nil
}

// MustRegister panics when Register fails. Used for built-in definitions.
func MustRegister(capabilities ...*Capability) {
	for _, capability := range capabilities {
		if err := Register(capability); err != nil {
			panic(err)
		}
	}
}

// Get returns a copy of the capability definition when registered.
func Get(id string) (*Capability, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	capability, ok := globalRegistry.capabilities[id]
	if !ok {
		return nil, false
	}
	return cloneCapability(capability), true
}

// All returns a copy of all registered capabilities keyed by ID.
func All() map[string]*Capability {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make(map[string]*Capability, len(globalRegistry.capabilities))
	for id, capability := range globalRegistry.capabilities {
		out[id] = cloneCapability(capability)
	}
	return out
}

// ValidateDependencies ensures that all dependencies reference known capabilities.
func ValidateDependencies() error {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	ids := make([]string, 0, len(globalRegistry.capabilities))
	for id := range globalRegistry.capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, dep := range globalRegistry.capabilities[id].DependsOn {
			if _, ok := globalRegistry.capabilities[dep]; !ok {
				return fmt.Errorf("capability: %s depends on unknown capability %s", id, dep)
			}
		}
	}
	return nil
}

func cloneCapability(capability *Capability) *Capability {
	if capability == nil {
		return nil
	}
	cp := *capability
	if len(capability.DependsOn) > 0 {
		cp.DependsOn = append([]string(nil), capability.DependsOn...)
	}
	if len(capability.Roles) > 0 {
		cp.Roles = append([]models.MemberRole(nil), capability.Roles...)
	}
	return &cp
}

func normaliseIDs(values []string, self string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if value == self {
			return nil, errSelfDependency
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result, nil
}

// unregister removes a definition. Tests only.
func unregister(id string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	delete(globalRegistry.capabilities, id)
}
