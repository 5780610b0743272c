package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/smartretail/storefront/pkg/logger"
	"github.com/smartretail/storefront/pkg/metrics"
	"github.com/smartretail/storefront/pkg/store"
)

// Machine is the single authoritative cart for a running session. Commands
// apply one at a time; every successful command writes the full state to the
// cart slot before it is considered complete. A persist failure degrades
// durability for the session, never the command itself.
type Machine struct {
	mu      sync.Mutex
	state   State
	version uint64

	store   store.Store
	logg    *logger.Logger
	metrics *metrics.SessionMetrics
}

// NewMachine restores the last persisted cart, or starts empty when the slot
// is missing or unreadable. Corrupt storage is treated as no cart, not an
// error.
func NewMachine(ctx context.Context, st store.Store, logg *logger.Logger, m *metrics.SessionMetrics) (*Machine, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}

	machine := &Machine{store: st, logg: logg, metrics: m}

	var persisted State
	found, err := st.Load(ctx, store.SlotCart, &persisted)
	if err != nil {
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "slot", store.SlotCart), "cart slot unreadable, starting empty")
		}
		return machine, nil
	}
	if found {
		machine.state = normalize(persisted)
	}
	return machine, nil
}

// Dispatch applies a command, persists the resulting state, and returns the
// new snapshot. Invalid commands reject before any mutation.
func (m *Machine) Dispatch(ctx context.Context, cmd Command) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := Apply(m.state, cmd)
	if err != nil {
		return m.snapshotLocked(), err
	}

	m.state = next
	m.version++
	m.metrics.IncCommand(cmd.Name())
	m.persistLocked(ctx)

	return m.snapshotLocked(), nil
}

func (m *Machine) persistLocked(ctx context.Context) {
	if err := m.store.Save(ctx, store.SlotCart, m.state); err != nil && m.logg != nil {
		// In-memory state stays authoritative for the running session.
		m.logg.Error(m.logg.WithField(ctx, "slot", store.SlotCart), "cart persist failed", err)
	}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Version increments on every applied command. Optimization results are
// scoped to the version in effect when the request was issued.
func (m *Machine) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// SnapshotVersion returns the state and version atomically.
func (m *Machine) SnapshotVersion() (State, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(), m.version
}

func (m *Machine) snapshotLocked() State {
	return cloneItems(m.state)
}
