package memory

import (
	"errors"
	"fmt"

	"github.com/SilentCathedral918/vytal-sub000/internal/logger"
)

// ZoneSpec names a zone and its capacity in bytes.
type ZoneSpec struct {
	Name     string
	Capacity int
}

// Manager owns a fixed set of named zones. The set is decided once by New and never
// changes; callers hold the *Manager and pass it to whatever needs memory.
//
// Registration is immutable, so different zones may be used from different goroutines.
// A single zone is not goroutine-safe.
type Manager struct {
	zones         map[string]*Zone
	order         []string
	totalCapacity int
}

// New registers one zone per spec, in order. Duplicate or empty names and non-positive
// capacities are rejected with ErrInvalidParam. On error every zone created so far is
// released.
func New(specs []ZoneSpec) (*Manager, error) {
	m := &Manager{
		zones: make(map[string]*Zone, len(specs)),
		order: make([]string, 0, len(specs)),
	}

	for _, spec := range specs {
		if spec.Name == "" {
			_ = m.Close()
			return nil, fmt.Errorf("register zone: empty name: %w", ErrInvalidParam)
		}
		if _, dup := m.zones[spec.Name]; dup {
			_ = m.Close()
			return nil, fmt.Errorf("register zone %q: duplicate name: %w", spec.Name, ErrInvalidParam)
		}
		z, err := NewZone(spec.Name, spec.Capacity)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("register zone: %w", err)
		}
		m.zones[spec.Name] = z
		m.order = append(m.order, spec.Name)
		m.totalCapacity += spec.Capacity

		logger.Info("registered zone", "zone", spec.Name, "capacity", spec.Capacity,
			"classes", z.table.len(), "mapped", z.region.Mapped())
	}

	return m, nil
}

// Zone returns the named zone, or ErrNotExist when it was never registered.
// An unknown name is a configuration bug and is logged at error level.
func (m *Manager) Zone(name string) (*Zone, error) {
	z, ok := m.zones[name]
	if !ok {
		logger.Error("zone not registered", "zone", name)
		return nil, fmt.Errorf("zone %q: %w", name, ErrNotExist)
	}
	return z, nil
}

// Zones returns the registered zones in registration order.
func (m *Manager) Zones() []*Zone {
	out := make([]*Zone, len(m.order))
	for i, name := range m.order {
		out[i] = m.zones[name]
	}
	return out
}

// Allocate serves size bytes from the named zone.
func (m *Manager) Allocate(zone string, size int) (Ref, []byte, error) {
	z, err := m.Zone(zone)
	if err != nil {
		return 0, nil, err
	}
	return z.Alloc(size)
}

// Deallocate returns a block to the named zone's free list for its class.
func (m *Manager) Deallocate(zone string, ref Ref, size int) error {
	z, err := m.Zone(zone)
	if err != nil {
		return err
	}
	return z.Free(ref, size)
}

// Clear zeroes the named zone and forgets all of its blocks.
func (m *Manager) Clear(zone string) error {
	z, err := m.Zone(zone)
	if err != nil {
		return err
	}
	z.Clear()
	return nil
}

// TotalCapacity returns the sum of all zone capacities.
func (m *Manager) TotalCapacity() int { return m.totalCapacity }

// Stats returns a snapshot of every zone in registration order.
func (m *Manager) Stats() []ZoneStats {
	out := make([]ZoneStats, len(m.order))
	for i, name := range m.order {
		out[i] = m.zones[name].Stats()
	}
	return out
}

// Close releases every zone region.
func (m *Manager) Close() error {
	var errs []error
	for _, name := range m.order {
		if err := m.zones[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close zone %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
