package memory

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SilentCathedral918/vytal-sub000/internal/logger"
)

func newTestManager(t *testing.T, specs ...ZoneSpec) *Manager {
	t.Helper()
	m, err := New(specs)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	return m
}

func Test_Manager_RegistersInOrder(t *testing.T) {
	m := newTestManager(t,
		ZoneSpec{Name: "Containers", Capacity: 4096},
		ZoneSpec{Name: "Audio", Capacity: 1024},
		ZoneSpec{Name: "Render", Capacity: 2048},
	)

	assert.Equal(t, 4096+1024+2048, m.TotalCapacity())

	var names []string
	for _, z := range m.Zones() {
		names = append(names, z.Name())
	}
	assert.Equal(t, []string{"Containers", "Audio", "Render"}, names)

	stats := m.Stats()
	require.Len(t, stats, 3)
	assert.Equal(t, "Audio", stats[1].Name)
	assert.Equal(t, 1024, stats[1].Capacity)
}

func Test_Manager_RejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name  string
		specs []ZoneSpec
	}{
		{"empty name", []ZoneSpec{{Name: "", Capacity: 64}}},
		{"zero capacity", []ZoneSpec{{Name: "A", Capacity: 0}}},
		{"negative capacity", []ZoneSpec{{Name: "A", Capacity: -1}}},
		{"duplicate", []ZoneSpec{{Name: "A", Capacity: 64}, {Name: "A", Capacity: 128}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs)
			require.ErrorIs(t, err, ErrInvalidParam)
		})
	}
}

func Test_Manager_EmptyRegistry(t *testing.T) {
	m := newTestManager(t)
	assert.Zero(t, m.TotalCapacity())
	assert.Empty(t, m.Zones())
}

func Test_Manager_UnknownZone(t *testing.T) {
	prev := logger.L
	t.Cleanup(func() { logger.L = prev })
	var out bytes.Buffer
	require.NoError(t, logger.Init(logger.Options{Enabled: true, Level: slog.LevelError, Stderr: &out}))

	m := newTestManager(t, ZoneSpec{Name: "Containers", Capacity: 64})

	_, err := m.Zone("Physics")
	require.ErrorIs(t, err, ErrNotExist)
	_, _, err = m.Allocate("Physics", 8)
	require.ErrorIs(t, err, ErrNotExist)
	require.ErrorIs(t, m.Deallocate("Physics", 0, 8), ErrNotExist)
	require.ErrorIs(t, m.Clear("Physics"), ErrNotExist)

	assert.Contains(t, out.String(), "zone not registered")
	assert.Contains(t, out.String(), "Physics")
}

func Test_Manager_AllocateDeallocateClear(t *testing.T) {
	m := newTestManager(t,
		ZoneSpec{Name: "A", Capacity: 256},
		ZoneSpec{Name: "B", Capacity: 256},
	)

	ref, block, err := m.Allocate("A", 24)
	require.NoError(t, err)
	require.Len(t, block, 24)
	copy(block, "zone A owns these bytes")

	_, _, err = m.Allocate("B", 200)
	require.NoError(t, err)

	za, err := m.Zone("A")
	require.NoError(t, err)
	zb, err := m.Zone("B")
	require.NoError(t, err)
	assert.Equal(t, 32, za.Used())
	assert.Equal(t, 256, zb.Used(), "zones account independently")

	require.NoError(t, m.Deallocate("A", ref, 24))
	assert.Zero(t, za.Used())

	require.NoError(t, m.Clear("B"))
	assert.Zero(t, zb.Used())
	assert.Zero(t, zb.HighWater())
}

func Test_Manager_CloseReleasesZones(t *testing.T) {
	m, err := New([]ZoneSpec{{Name: "A", Capacity: 64}})
	require.NoError(t, err)
	require.NoError(t, m.Close())

	_, _, err = m.Allocate("A", 8)
	require.ErrorIs(t, err, ErrNotAllocated)
}
