package wheel

import (
	"fmt"
	"math"
	"strings"
)

// EventKind classifies a raw device event
type EventKind int

const (
	Axis EventKind = iota
	Button
)

func (k EventKind) String() string {
	switch k {
	case Axis:
		return "axis"
	case Button:
		return "button"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "axis":
		*k = Axis
	case "button":
		*k = Button
	default:
		return fmt.Errorf("unknown event kind %q", b)
	}
	return nil
}

// RawEvent is a single event as read from the device
type RawEvent struct {
	Kind  EventKind `json:"kind"`
	Code  int       `json:"code"`
	Value int       `json:"value"`
}

// Gear is the selected gear range
type Gear int

const (
	GearLow Gear = iota
	GearHigh
)

func (g Gear) String() string {
	if g == GearHigh {
		return "high"
	}
	return "low"
}

// CommandState holds the latest value of every logical control
type CommandState struct {
	Steering          int
	Throttle          int
	BrakeEngaged      bool
	Gear              Gear
	SpeedLimitPercent int
	HandbrakeOn       bool
	StanleyDriveOn    bool
	GPSSaveOn         bool
	StanleyResetPulse bool
	StanleyK          int
	StanleyV          int
}

// Vector positions. The order is a wire contract with every consumer.
const (
	IdxThrottle = iota
	IdxSteering
	IdxBrakeEngaged
	IdxGear
	IdxSpeedLimitPercent
	IdxHandbrakeOn
	IdxGPSSaveOn
	IdxStanleyResetPulse
	IdxStanleyDriveOn
	IdxStanleyK
	IdxStanleyV

	VectorLen
)

// VectorFields names each vector position. CAN signal names use the same
// strings.
var VectorFields = [VectorLen]string{
	"throttle",
	"steering",
	"brake_engaged",
	"gear",
	"speed_limit_percent",
	"handbrake_on",
	"gps_save_on",
	"stanley_reset_pulse",
	"stanley_drive_on",
	"stanley_k",
	"stanley_v",
}

// Vector is the fixed-length, fixed-position command published per snapshot
type Vector [VectorLen]int32

// Vector flattens the state into its published form
func (s CommandState) Vector() Vector {
	var v Vector
	v[IdxThrottle] = int32(s.Throttle)
	v[IdxSteering] = int32(s.Steering)
	v[IdxBrakeEngaged] = boolToInt32(s.BrakeEngaged)
	v[IdxGear] = int32(s.Gear)
	v[IdxSpeedLimitPercent] = int32(s.SpeedLimitPercent)
	v[IdxHandbrakeOn] = boolToInt32(s.HandbrakeOn)
	v[IdxGPSSaveOn] = boolToInt32(s.GPSSaveOn)
	v[IdxStanleyResetPulse] = boolToInt32(s.StanleyResetPulse)
	v[IdxStanleyDriveOn] = boolToInt32(s.StanleyDriveOn)
	v[IdxStanleyK] = int32(s.StanleyK)
	v[IdxStanleyV] = int32(s.StanleyV)
	return v
}

func (v Vector) String() string {
	var b strings.Builder
	for i, name := range VectorFields {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", name, v[i])
	}
	return b.String()
}

// Signals returns the vector keyed by field name, ready for CAN encoding
func (v Vector) Signals() map[string]float64 {
	out := make(map[string]float64, VectorLen)
	for i, name := range VectorFields {
		out[name] = float64(v[i])
	}
	return out
}

// VectorFromSignals rebuilds a vector from decoded CAN signals. Missing
// fields are left at zero.
func VectorFromSignals(values map[string]float64) Vector {
	var v Vector
	for i, name := range VectorFields {
		if f, ok := values[name]; ok {
			v[i] = int32(math.Round(f))
		}
	}
	return v
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
