package permissions

import (
	"fmt"
)

var (
	// ErrUnknownCapability indicates a lookup failed because the capability has not been registered.
	ErrUnknownCapability = fmt.Errorf("capability: unknown capability")
	// ErrCircularDependency signals that a dependency graph contains a cycle.
	ErrCircularDependency = fmt.Errorf("capability: circular dependency detected")
)

// ResolveDependencies returns the full dependency chain for the specified capability.
func ResolveDependencies(capabilityID string) ([]string, error) {
	all := All()

	root, ok := all[capabilityID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCapability, capabilityID)
	}

	visited := make(map[string]bool, len(all))
	onStack := make(map[string]bool, len(all))
	var resolved []string

	var walk func(string) error
	walk = func(current string) error {
		capability, ok := all[current]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownCapability, current)
		}
		if onStack[current] {
			return fmt.Errorf("%w at %s", ErrCircularDependency, current)
		}
		if visited[current] {
			return nil
		}

		onStack[current] = true
		for _, dep := range capability.DependsOn {
			if err := walk(dep); err != nil {
				return err
			}
		}
		onStack[current] = false
		visited[current] = true

		if current != capabilityID {
			resolved = append(resolved, current)
		}
		return nil
	}

	for _, dep := range root.DependsOn {
		if err := walk(dep); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}
