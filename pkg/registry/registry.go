package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/ports"
)

// OperatorType describes one kind of operator and the ports it exposes.
type OperatorType struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Registry manages the known operator types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]OperatorType
}

var _ ports.OperatorCatalog = (*Registry)(nil)

// NewRegistry creates a registry holding types.
func NewRegistry(types ...OperatorType) *Registry {
	r := &Registry{
		types: make(map[string]OperatorType),
	}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// Register adds an operator type to the registry.
// If a type with the same name exists, it is overwritten.
func (r *Registry) Register(t OperatorType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name] = t
}

// Lookup returns the operator type with the name.
func (r *Registry) Lookup(name string) (OperatorType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// CheckOperator rejects operators of an unregistered type.
func (r *Registry) CheckOperator(op domain.OperatorPredicate) error {
	if _, ok := r.Lookup(op.OperatorType); !ok {
		return fmt.Errorf("operator %q has unknown type %q: %w", op.OperatorID, op.OperatorType, domain.ErrInvalidOperator)
	}
	return nil
}

// CheckPorts verifies that source is an output and target an input of their operators' types.
func (r *Registry) CheckPorts(source domain.OperatorPort, sourceType string, target domain.OperatorPort, targetType string) error {
	st, ok := r.Lookup(sourceType)
	if !ok || !slices.Contains(st.Outputs, source.PortID) {
		return fmt.Errorf("%s is not an output port of %q: %w", source, sourceType, domain.ErrInvalidLink)
	}
	tt, ok := r.Lookup(targetType)
	if !ok || !slices.Contains(tt.Inputs, target.PortID) {
		return fmt.Errorf("%s is not an input port of %q: %w", target, targetType, domain.ErrInvalidLink)
	}
	return nil
}
