package wheel

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultLayout_Valid(t *testing.T) {
	l := DefaultLayout()
	require.NoError(t, l.Validate())
	assert.Equal(t, StickyCooldown, l.stickyCooldown())
	assert.Equal(t, PulseCooldown, l.pulseCooldown())
}

func TestLoadLayout_PartialOverride(t *testing.T) {
	path := writeFile(t, "layout.json", `{
		"name": "bench rig",
		"axes": {"steering": 1, "throttle": 2, "brake": 5, "stanley_k": 17, "stanley_v": 16},
		"brake_threshold": 90,
		"pulse_cooldown_ms": 750
	}`)

	l, err := LoadLayout(path)
	require.NoError(t, err)

	assert.Equal(t, "bench rig", l.Name)
	assert.Equal(t, 1, l.Axes.Steering)
	assert.Equal(t, 90, l.BrakeThreshold)
	assert.Equal(t, 750*time.Millisecond, l.pulseCooldown())

	// untouched fields keep G29 defaults
	assert.Equal(t, 711, l.Buttons.Handbrake)
	assert.Equal(t, RawRange{Min: 0, Max: 65535}, l.SteeringRaw)
	assert.Equal(t, 100, l.InitialSpeedLimit)
}

func TestLoadLayout_Errors(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = LoadLayout(writeFile(t, "bad.json", `{"axes": [`))
	require.Error(t, err)

	_, err = LoadLayout(writeFile(t, "dup.json", `{"buttons": {"gear_low": 711}}`))
	require.ErrorIs(t, err, ErrInvalidLayout)
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"duplicate axis", func(l *Layout) { l.Axes.Brake = l.Axes.Steering }},
		{"duplicate button", func(l *Layout) { l.Buttons.GPSSave = l.Buttons.StanleyReset }},
		{"degenerate throttle", func(l *Layout) { l.ThrottleRaw = RawRange{Min: 7, Max: 7} }},
		{"speed limit too high", func(l *Layout) { l.InitialSpeedLimit = 101 }},
		{"speed limit negative", func(l *Layout) { l.InitialSpeedLimit = -1 }},
		{"negative cooldown", func(l *Layout) { l.StickyCooldownMS = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := DefaultLayout()
			tt.mutate(&l)
			assert.ErrorIs(t, l.Validate(), ErrInvalidLayout)
		})
	}
}

func TestLayout_SameCodeAcrossKindsAllowed(t *testing.T) {
	l := DefaultLayout()
	l.Buttons.GearLow = l.Axes.Steering
	assert.NoError(t, l.Validate())
}
