package wheel

import (
	"fmt"
	"time"
)

const (
	steeringOut    = 255
	throttleOut    = 255
	speedLimitMin  = 0
	speedLimitMax  = 100
	buttonReleased = 0
)

// Decoder turns raw wheel events into command state. It owns the state and
// the toggle timers; callers only ever see copies.
//
// Not safe for concurrent use. Feed it from a single loop.
type Decoder struct {
	layout  Layout
	axes    map[int]axisRole
	buttons map[int]buttonRole

	debounce *Debouncer
	state    CommandState
}

// NewDecoder validates the layout and returns a decoder in its initial
// state: toggles off, continuous controls neutral, speed limit at the
// layout's initial value.
func NewDecoder(layout Layout) (*Decoder, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	// Validate already rejected duplicates, so these cannot fail
	axes, _ := layout.axisRoles()
	buttons, _ := layout.buttonRoles()

	return &Decoder{
		layout:   layout,
		axes:     axes,
		buttons:  buttons,
		debounce: NewDebouncer(),
		state:    CommandState{SpeedLimitPercent: layout.InitialSpeedLimit},
	}, nil
}

// HandleEvent applies one event and returns the resulting snapshot. Events
// with codes the layout does not bind leave the state untouched.
func (d *Decoder) HandleEvent(ev RawEvent, now time.Time) (CommandState, error) {
	// the reset pulse lives for exactly one cycle
	d.state.StanleyResetPulse = false

	var err error
	switch ev.Kind {
	case Axis:
		err = d.applyAxis(ev)
	case Button:
		d.applyButton(ev, now)
	}
	if err != nil {
		return d.state, fmt.Errorf("%s code %d: %w", ev.Kind, ev.Code, err)
	}

	return d.state, nil
}

// Hold closes a cycle without an event, consuming any pending pulse
func (d *Decoder) Hold() CommandState {
	d.state.StanleyResetPulse = false
	return d.state
}

// State returns a copy of the current state
func (d *Decoder) State() CommandState {
	return d.state
}

// Layout returns the layout the decoder was built with
func (d *Decoder) Layout() Layout {
	return d.layout
}

func (d *Decoder) applyAxis(ev RawEvent) error {
	role, ok := d.axes[ev.Code]
	if !ok {
		return nil
	}

	switch role {
	case axisSteering:
		r := d.layout.SteeringRaw
		raw := clampInt(ev.Value, r.Min, r.Max)
		v, err := MapRangeInt(raw, r.Min, r.Max, -steeringOut, steeringOut)
		if err != nil {
			return err
		}
		d.state.Steering = v

	case axisThrottle:
		// pedal reports max when released
		r := d.layout.ThrottleRaw
		raw := clampInt(ev.Value, r.Min, r.Max)
		v, err := MapRangeInt(raw, r.Min, r.Max, throttleOut, 0)
		if err != nil {
			return err
		}
		d.state.Throttle = v

	case axisBrake:
		d.state.BrakeEngaged = ev.Value < d.layout.BrakeThreshold

	case axisStanleyK:
		d.state.StanleyK = -ev.Value

	case axisStanleyV:
		d.state.StanleyV = ev.Value
	}
	return nil
}

func (d *Decoder) applyButton(ev RawEvent, now time.Time) {
	if ev.Value == buttonReleased {
		return
	}
	role, ok := d.buttons[ev.Code]
	if !ok {
		return
	}

	switch role {
	case buttonGearLow:
		d.state.Gear = GearLow
	case buttonGearHigh:
		d.state.Gear = GearHigh

	case buttonSpeedUp:
		d.state.SpeedLimitPercent = clampInt(d.state.SpeedLimitPercent+1, speedLimitMin, speedLimitMax)
	case buttonSpeedDown:
		d.state.SpeedLimitPercent = clampInt(d.state.SpeedLimitPercent-1, speedLimitMin, speedLimitMax)

	case buttonHandbrake:
		d.flip(ToggleHandbrake, &d.state.HandbrakeOn, now)
	case buttonStanleyDrive:
		d.flip(ToggleStanleyDrive, &d.state.StanleyDriveOn, now)
	case buttonGPSSave:
		d.flip(ToggleGPSSave, &d.state.GPSSaveOn, now)

	case buttonStanleyReset:
		d.state.StanleyResetPulse = d.debounce.TryFireRestart(ToggleStanleyReset, now, d.layout.pulseCooldown())
	}
}

func (d *Decoder) flip(id ToggleID, field *bool, now time.Time) {
	if d.debounce.TryFire(id, now, d.layout.stickyCooldown()) {
		*field = !*field
	}
}
