package verif

import (
	"errors"
	"fmt"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/timing"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("verif: invalid config")

// Config holds the knobs of a verification run.
type Config struct {
	// NumTransactions is how many random transactions the generator issues.
	NumTransactions int

	// Freq is the clock frequency. It only affects reported times.
	Freq timing.FreqInHz

	// AddrRange bounds the random addresses to [0, AddrRange). It must reach
	// past the last register so that the error path is exercised.
	AddrRange uint32

	// Seed makes the random stimulus reproducible.
	Seed int64

	// ResetCycles is how long reset is held before the first transfer.
	ResetCycles int

	// MaxCycles aborts a hung run. Zero derives a limit from the number of
	// transactions.
	MaxCycles timing.VTimeInCycle
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		NumTransactions: 20,
		Freq:            100 * timing.MHz,
		AddrRange:       32,
		Seed:            1,
		ResetCycles:     5,
	}
}

// Validate reports the first problem found in the configuration.
func (c Config) Validate() error {
	switch {
	case c.NumTransactions < 0:
		return fmt.Errorf("%w: negative transaction count %d",
			ErrInvalidConfig, c.NumTransactions)
	case c.Freq == 0:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, timing.ErrZeroFrequency)
	case c.AddrRange <= apb.NumRegisters:
		return fmt.Errorf(
			"%w: address range %d does not reach past register %d",
			ErrInvalidConfig, c.AddrRange, apb.NumRegisters-1)
	case c.ResetCycles < 1:
		return fmt.Errorf("%w: reset must be held for at least one cycle",
			ErrInvalidConfig)
	}

	return nil
}

// cyclesPerTransaction bounds the cycles one transaction can take: three for
// the handshake, one for the monitor and slack for the hand-offs.
const cyclesPerTransaction = 8

func (c Config) cycleLimit(numTransactions int) timing.VTimeInCycle {
	if c.MaxCycles > 0 {
		return c.MaxCycles
	}

	return timing.VTimeInCycle(
		c.ResetCycles + 16 + numTransactions*cyclesPerTransaction)
}
