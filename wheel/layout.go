package wheel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrInvalidLayout is returned when a layout cannot drive a decoder
var ErrInvalidLayout = errors.New("invalid layout")

// AxisCodes binds absolute axis codes to continuous controls
type AxisCodes struct {
	Steering int `json:"steering"`
	Throttle int `json:"throttle"`
	Brake    int `json:"brake"`
	StanleyK int `json:"stanley_k"`
	StanleyV int `json:"stanley_v"`
}

// ButtonCodes binds key codes to discrete controls
type ButtonCodes struct {
	GearLow      int `json:"gear_low"`
	GearHigh     int `json:"gear_high"`
	SpeedUp      int `json:"speed_up"`
	SpeedDown    int `json:"speed_down"`
	Handbrake    int `json:"handbrake"`
	StanleyDrive int `json:"stanley_drive"`
	GPSSave      int `json:"gps_save"`
	StanleyReset int `json:"stanley_reset"`
}

// RawRange is the span an axis reports
type RawRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Layout describes how a specific wheel reports its controls
type Layout struct {
	Name    string      `json:"name"`
	Axes    AxisCodes   `json:"axes"`
	Buttons ButtonCodes `json:"buttons"`

	SteeringRaw RawRange `json:"steering_raw"`
	ThrottleRaw RawRange `json:"throttle_raw"`

	// Brake raw values strictly below this engage the brake
	BrakeThreshold int `json:"brake_threshold"`

	InitialSpeedLimit int `json:"initial_speed_limit"`

	StickyCooldownMS int `json:"sticky_cooldown_ms"`
	PulseCooldownMS  int `json:"pulse_cooldown_ms"`
}

// DefaultLayout is the Logitech G29 mapping
func DefaultLayout() Layout {
	return Layout{
		Name: "Logitech G29 Driving Force Racing Wheel",
		Axes: AxisCodes{
			Steering: 0,
			Throttle: 2,
			Brake:    5,
			StanleyV: 16,
			StanleyK: 17,
		},
		Buttons: ButtonCodes{
			GearLow:      292,
			GearHigh:     293,
			GPSSave:      296,
			StanleyReset: 297,
			SpeedUp:      709,
			SpeedDown:    710,
			Handbrake:    711,
			StanleyDrive: 712,
		},
		SteeringRaw:       RawRange{Min: 0, Max: 65535},
		ThrottleRaw:       RawRange{Min: 0, Max: 255},
		BrakeThreshold:    150,
		InitialSpeedLimit: 100,
		StickyCooldownMS:  int(StickyCooldown / time.Millisecond),
		PulseCooldownMS:   int(PulseCooldown / time.Millisecond),
	}
}

// LoadLayout reads a JSON layout. Fields missing from the file keep their
// G29 defaults.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read file: %w", err)
	}

	l := DefaultLayout()
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal: %w", err)
	}

	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks that every code is bound once and every range is usable
func (l Layout) Validate() error {
	if l.SteeringRaw.Min == l.SteeringRaw.Max {
		return fmt.Errorf("%w: steering_raw: %w", ErrInvalidLayout, ErrInvalidRange)
	}
	if l.ThrottleRaw.Min == l.ThrottleRaw.Max {
		return fmt.Errorf("%w: throttle_raw: %w", ErrInvalidLayout, ErrInvalidRange)
	}
	if l.InitialSpeedLimit < 0 || l.InitialSpeedLimit > 100 {
		return fmt.Errorf("%w: initial_speed_limit %d outside 0..100", ErrInvalidLayout, l.InitialSpeedLimit)
	}
	if l.StickyCooldownMS < 0 || l.PulseCooldownMS < 0 {
		return fmt.Errorf("%w: negative cooldown", ErrInvalidLayout)
	}

	if _, err := l.axisRoles(); err != nil {
		return err
	}
	if _, err := l.buttonRoles(); err != nil {
		return err
	}
	return nil
}

func (l Layout) stickyCooldown() time.Duration {
	return time.Duration(l.StickyCooldownMS) * time.Millisecond
}

func (l Layout) pulseCooldown() time.Duration {
	return time.Duration(l.PulseCooldownMS) * time.Millisecond
}

type axisRole int

const (
	axisSteering axisRole = iota
	axisThrottle
	axisBrake
	axisStanleyK
	axisStanleyV
)

type buttonRole int

const (
	buttonGearLow buttonRole = iota
	buttonGearHigh
	buttonSpeedUp
	buttonSpeedDown
	buttonHandbrake
	buttonStanleyDrive
	buttonGPSSave
	buttonStanleyReset
)

func (l Layout) axisRoles() (map[int]axisRole, error) {
	bindings := []struct {
		name string
		code int
		role axisRole
	}{
		{"steering", l.Axes.Steering, axisSteering},
		{"throttle", l.Axes.Throttle, axisThrottle},
		{"brake", l.Axes.Brake, axisBrake},
		{"stanley_k", l.Axes.StanleyK, axisStanleyK},
		{"stanley_v", l.Axes.StanleyV, axisStanleyV},
	}

	roles := make(map[int]axisRole, len(bindings))
	for _, b := range bindings {
		if _, dup := roles[b.code]; dup {
			return nil, fmt.Errorf("%w: axis code %d bound twice (at %s)", ErrInvalidLayout, b.code, b.name)
		}
		roles[b.code] = b.role
	}
	return roles, nil
}

func (l Layout) buttonRoles() (map[int]buttonRole, error) {
	bindings := []struct {
		name string
		code int
		role buttonRole
	}{
		{"gear_low", l.Buttons.GearLow, buttonGearLow},
		{"gear_high", l.Buttons.GearHigh, buttonGearHigh},
		{"speed_up", l.Buttons.SpeedUp, buttonSpeedUp},
		{"speed_down", l.Buttons.SpeedDown, buttonSpeedDown},
		{"handbrake", l.Buttons.Handbrake, buttonHandbrake},
		{"stanley_drive", l.Buttons.StanleyDrive, buttonStanleyDrive},
		{"gps_save", l.Buttons.GPSSave, buttonGPSSave},
		{"stanley_reset", l.Buttons.StanleyReset, buttonStanleyReset},
	}

	roles := make(map[int]buttonRole, len(bindings))
	for _, b := range bindings {
		if _, dup := roles[b.code]; dup {
			return nil, fmt.Errorf("%w: button code %d bound twice (at %s)", ErrInvalidLayout, b.code, b.name)
		}
		roles[b.code] = b.role
	}
	return roles, nil
}
