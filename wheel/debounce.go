package wheel

import "time"

// ToggleID identifies a debounced control
type ToggleID string

const (
	ToggleHandbrake    ToggleID = "handbrake"
	ToggleStanleyDrive ToggleID = "stanley_drive"
	ToggleGPSSave      ToggleID = "gps_save"
	ToggleStanleyReset ToggleID = "stanley_reset"
)

// Default cooldowns
const (
	StickyCooldown = 200 * time.Millisecond
	PulseCooldown  = 500 * time.Millisecond
)

// Debouncer suspends repeated firings of a toggle within its cooldown.
// Each toggle id keeps its own last-fired time. Not safe for concurrent use;
// it belongs to a single decoder.
type Debouncer struct {
	last map[ToggleID]time.Time
}

// NewDebouncer creates a debouncer with no recorded firings
func NewDebouncer() *Debouncer {
	return &Debouncer{last: make(map[ToggleID]time.Time)}
}

// TryFire accepts the firing if id has never fired or at least cooldown has
// passed since its last accepted firing. The timestamp is only recorded on
// acceptance.
func (d *Debouncer) TryFire(id ToggleID, now time.Time, cooldown time.Duration) bool {
	if !d.ready(id, now, cooldown) {
		return false
	}
	d.last[id] = now
	return true
}

// TryFireRestart applies the same acceptance rule as TryFire but restarts
// the cooldown on every call, accepted or not. A button that keeps being
// pressed inside the window stays suppressed.
func (d *Debouncer) TryFireRestart(id ToggleID, now time.Time, cooldown time.Duration) bool {
	ok := d.ready(id, now, cooldown)
	d.last[id] = now
	return ok
}

func (d *Debouncer) ready(id ToggleID, now time.Time, cooldown time.Duration) bool {
	last, ok := d.last[id]
	if !ok {
		return true
	}
	return now.Sub(last) >= cooldown
}
