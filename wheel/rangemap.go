package wheel

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned when a mapping is asked to scale from an
// empty input range.
var ErrInvalidRange = errors.New("invalid range")

// MapRange linearly maps value from [inMin, inMax] onto [outMin, outMax].
// Values outside the input range extrapolate; callers clamp first when they
// need bounded output.
func MapRange(value, inMin, inMax, outMin, outMax float64) (float64, error) {
	inSpan := inMax - inMin
	if inSpan == 0 {
		return 0, fmt.Errorf("%w: input bounds %v..%v", ErrInvalidRange, inMin, inMax)
	}
	scaled := (value - inMin) / inSpan
	return outMin + scaled*(outMax-outMin), nil
}

// MapRangeInt is MapRange for integer-valued controls, rounded to the
// nearest integer.
func MapRangeInt(value, inMin, inMax, outMin, outMax int) (int, error) {
	f, err := MapRange(float64(value), float64(inMin), float64(inMax), float64(outMin), float64(outMax))
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

// clampInt clamps v to the closed interval spanned by a and b, whichever
// order they come in.
func clampInt(v, a, b int) int {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
