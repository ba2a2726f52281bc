package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
)

func TestRefreshReportsProbeResults(t *testing.T) {
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "", 0)
	require.NoError(t, err)
	defer store.Close()

	healthy := true
	probes := []Probe{
		{Name: "postgresql", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("down")
		}},
	}
	m := New(probes, store, 0, nil)
	assert.False(t, m.IsOnline())

	m.Refresh()
	assert.True(t, m.IsOnline())
	status := m.GetStatus()
	assert.True(t, status.Buffer)
	assert.Equal(t, map[string]bool{"postgresql": true, "redis": true}, status.Services)

	healthy = false
	m.Refresh()
	assert.False(t, m.IsOnline())
	assert.False(t, m.GetStatus().Services["redis"])
}

func TestStatusWithoutProbes(t *testing.T) {
	m := New(nil, nil, 0, nil)
	m.Refresh()
	assert.True(t, m.IsOnline())
	assert.False(t, m.GetStatus().Buffer)
	m.Stop()
	m.Stop()
}
