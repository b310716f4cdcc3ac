package algorithms

import (
	"fmt"
	"sync"
)

// Factory creates a fresh algorithm instance.
type Factory func() Algorithm

type registration struct {
	tag     string
	name    string
	factory Factory
}

// Manager is the catalog of extraction variants, keyed by persisted tag.
type Manager struct {
	mu         sync.RWMutex
	algorithms map[string]registration
	order      []string
	current    string
}

// NewManager creates a manager with the given factories registered in order.
// The first registered algorithm becomes the current one.
func NewManager(factories ...Factory) *Manager {
	m := &Manager{
		algorithms: make(map[string]registration),
	}
	for _, f := range factories {
		m.Register(f)
	}
	return m
}

// Register adds a variant. Registering a tag twice replaces the factory but
// keeps its position.
func (m *Manager) Register(factory Factory) {
	probe := factory()

	m.mu.Lock()
	defer m.mu.Unlock()

	tag := probe.GetTag()
	if _, exists := m.algorithms[tag]; !exists {
		m.order = append(m.order, tag)
	}
	m.algorithms[tag] = registration{tag: tag, name: probe.GetName(), factory: factory}

	if m.current == "" {
		m.current = tag
	}
}

// New constructs the algorithm registered under tag.
func (m *Manager) New(tag string) (Algorithm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, exists := m.algorithms[tag]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, tag)
	}
	return reg.factory(), nil
}

// Restore constructs the variant that owns record.Tag and loads the record
// into it.
func (m *Manager) Restore(record *Record) (Algorithm, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedState)
	}

	algo, err := m.New(record.Tag)
	if err != nil {
		return nil, err
	}
	if err := algo.Deserialize(record); err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", record.Tag, err)
	}
	return algo, nil
}

// SetCurrentAlgorithm selects the variant used by default.
func (m *Manager) SetCurrentAlgorithm(tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.algorithms[tag]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAlgorithm, tag)
	}

	m.current = tag
	return nil
}

// GetCurrentAlgorithm returns the tag of the selected variant.
func (m *Manager) GetCurrentAlgorithm() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// TagForName resolves a display name to its tag.
func (m *Manager) TagForName(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tag := range m.order {
		if m.algorithms[tag].name == name {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
}

// GetAvailableAlgorithms returns display names in registration order.
func (m *Manager) GetAvailableAlgorithms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.order))
	for _, tag := range m.order {
		names = append(names, m.algorithms[tag].name)
	}
	return names
}
