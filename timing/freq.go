package timing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// VTimeInCycle counts clock cycles since the start of the simulation.
type VTimeInCycle uint64

// VTimeInSec is a simulated wall-clock duration in seconds.
type VTimeInSec float64

// FreqInHz is a clock frequency.
type FreqInHz uint64

// Defines the unit of frequency.
const (
	Hz  FreqInHz = 1
	KHz FreqInHz = 1e3
	MHz FreqInHz = 1e6
	GHz FreqInHz = 1e9
)

var (
	// ErrZeroFrequency is returned when a clock is configured without a
	// frequency.
	ErrZeroFrequency = errors.New("timing: frequency cannot be zero")

	// ErrInvalidFrequency is returned when a frequency string cannot be
	// parsed.
	ErrInvalidFrequency = errors.New("timing: invalid frequency")
)

// Period returns the time between two consecutive ticks.
func (f FreqInHz) Period() VTimeInSec {
	if f == 0 {
		panic(ErrZeroFrequency)
	}

	return VTimeInSec(1.0 / float64(f))
}

// Seconds converts a cycle count into simulated seconds.
func (f FreqInHz) Seconds(cycle VTimeInCycle) VTimeInSec {
	if f == 0 {
		panic(ErrZeroFrequency)
	}

	return VTimeInSec(float64(cycle) / float64(f))
}

// Cycles converts a duration into the number of whole cycles it covers.
func (f FreqInHz) Cycles(sec VTimeInSec) VTimeInCycle {
	if sec <= 0 {
		return 0
	}

	return VTimeInCycle(float64(sec) * float64(f))
}

// String prints the frequency with the largest unit that divides it.
func (f FreqInHz) String() string {
	switch {
	case f == 0:
		return "0Hz"
	case f%GHz == 0:
		return fmt.Sprintf("%dGHz", f/GHz)
	case f%MHz == 0:
		return fmt.Sprintf("%dMHz", f/MHz)
	case f%KHz == 0:
		return fmt.Sprintf("%dKHz", f/KHz)
	default:
		return fmt.Sprintf("%dHz", uint64(f))
	}
}

// ParseFreq parses strings such as "100MHz", "1GHz" or "5000". Units are case
// insensitive and a bare number is taken as Hz.
func ParseFreq(s string) (FreqInHz, error) {
	str := strings.TrimSpace(strings.ToLower(s))

	unit := Hz
	for _, u := range []struct {
		suffix string
		unit   FreqInHz
	}{
		{"ghz", GHz},
		{"mhz", MHz},
		{"khz", KHz},
		{"hz", Hz},
	} {
		if strings.HasSuffix(str, u.suffix) {
			unit = u.unit
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))

			break
		}
	}

	value, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}

	if value == 0 {
		return 0, ErrZeroFrequency
	}

	return FreqInHz(value) * unit, nil
}
