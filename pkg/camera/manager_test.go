package camera

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_UpdateConfig(t *testing.T) {
	base := DefaultConfig()
	base.FrontDevice = 3
	m := NewManager(base)

	var notified []Config
	m.OnConfigChange = func(cfg Config) { notified = append(notified, cfg) }

	require.NoError(t, m.UpdateConfig(map[string]any{
		"quality":          float64(92),
		"preview_interval": "500ms",
		"acquire_timeout":  float64(2500),
		"initial_facing":   "user",
		"max_photos":       json.Number("4"),
	}))
	cfg := m.Config()
	assert.Equal(t, 92, cfg.Quality)
	assert.Equal(t, 500*time.Millisecond, cfg.PreviewInterval)
	assert.Equal(t, 2500*time.Millisecond, cfg.AcquireTimeout)
	assert.Equal(t, FacingFront, cfg.InitialFacing)
	assert.Equal(t, 4, cfg.MaxPhotos)
	assert.Len(t, notified, 1)
}

func TestManager_PresetKeepsDeviceMapping(t *testing.T) {
	base := DefaultConfig()
	base.FrontDevice, base.BackDevice = 5, 4
	m := NewManager(base)

	require.NoError(t, m.UpdateConfig(map[string]any{"preset": PresetLow, "quality": 50}))
	cfg := m.Config()
	assert.Equal(t, LowBandwidthConfig().Width, cfg.Width)
	assert.Equal(t, 50, cfg.Quality)
	assert.Equal(t, 5, cfg.FrontDevice)
	assert.Equal(t, 4, cfg.BackDevice)
}

func TestManager_RejectsBadUpdates(t *testing.T) {
	m := NewManager(DefaultConfig())
	before := m.Config()

	tests := []map[string]any{
		{"preset": "8k"},
		{"brightness": 1.0},
		{"width": "wide"},
		{"width": 640.5},
		{"width": 10},
		{"initial_facing": "sideways"},
		{"preview_interval": "soon"},
	}
	for _, params := range tests {
		assert.Error(t, m.UpdateConfig(params), "%v", params)
	}
	assert.Equal(t, before, m.Config())
}
