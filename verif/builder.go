package verif

import (
	"log"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/idgen"
	"github.com/sarchlab/apbverif/timing"
	"github.com/sarchlab/apbverif/tracing"
)

// Builder creates verification environments.
type Builder struct {
	cfg        Config
	stimulus   Stimulus
	logger     *log.Logger
	verboseLog bool
	hooks      []hooking.Hook
}

// MakeBuilder returns a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithNumTransactions sets how many random transactions are issued.
func (b Builder) WithNumTransactions(n int) Builder {
	b.cfg.NumTransactions = n
	return b
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq timing.FreqInHz) Builder {
	b.cfg.Freq = freq
	return b
}

// WithAddrRange sets the range random addresses are drawn from.
func (b Builder) WithAddrRange(addrRange uint32) Builder {
	b.cfg.AddrRange = addrRange
	return b
}

// WithSeed sets the seed of the random stimulus.
func (b Builder) WithSeed(seed int64) Builder {
	b.cfg.Seed = seed
	return b
}

// WithResetCycles sets how long reset is held.
func (b Builder) WithResetCycles(n int) Builder {
	b.cfg.ResetCycles = n
	return b
}

// WithMaxCycles sets the watchdog limit.
func (b Builder) WithMaxCycles(n timing.VTimeInCycle) Builder {
	b.cfg.MaxCycles = n
	return b
}

// WithStimulus replaces the random stimulus. The transaction count of the
// configuration is then ignored.
func (b Builder) WithStimulus(s Stimulus) Builder {
	b.stimulus = s
	return b
}

// WithLogger prints the transaction log to logger.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithVerboseLog also logs generator, driver and slave activity.
func (b Builder) WithVerboseLog() Builder {
	b.verboseLog = true
	return b
}

// WithHook attaches an extra hook to every component.
func (b Builder) WithHook(h hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), h)
	return b
}

// Build wires a new environment. It panics if the configuration is invalid.
func (b Builder) Build(name string) *Env {
	if err := b.cfg.Validate(); err != nil {
		log.Panic(err)
	}

	stim := b.stimulus
	if stim == nil {
		stim = NewRandomStimulus(b.cfg.NumTransactions, b.cfg.AddrRange, b.cfg.Seed)
	}

	k := timing.NewKernel(b.cfg.Freq)
	k.SetCycleLimit(b.cfg.cycleLimit(stim.Len()))

	env := &Env{
		name:        name,
		cfg:         b.cfg,
		kernel:      k,
		bus:         apb.NewBus(),
		genToDrv:    timing.NewMailbox[apb.Transaction](k, name+".GenToDrv"),
		monToSco:    timing.NewMailbox[apb.Transaction](k, name+".MonToSco"),
		driverDone:  timing.NewEvent(k, name+".DriverDone"),
		verified:    timing.NewEvent(k, name+".Verified"),
		genComplete: timing.NewEvent(k, name+".GenComplete"),
	}

	env.Slave = apb.NewSlave(name+".Slave", env.bus)

	env.Generator = &Generator{
		HookableBase: hooking.NewHookableBase(),
		name:         name + ".Generator",
		stim:         stim,
		ids:          idgen.NewSequential(),
		toDriver:     env.genToDrv,
		driverDone:   env.driverDone,
		verified:     env.verified,
		completed:    env.genComplete,
	}

	env.Driver = &Driver{
		HookableBase: hooking.NewHookableBase(),
		name:         name + ".Driver",
		bus:          env.bus,
		in:           env.genToDrv,
		done:         env.driverDone,
	}

	env.Monitor = &Monitor{
		HookableBase: hooking.NewHookableBase(),
		name:         name + ".Monitor",
		bus:          env.bus,
		ids:          idgen.NewSequential(),
		out:          env.monToSco,
	}

	env.Scoreboard = &Scoreboard{
		HookableBase: hooking.NewHookableBase(),
		name:         name + ".Scoreboard",
		in:           env.monToSco,
		verified:     env.verified,
	}

	if b.logger != nil {
		logger := tracing.NewTransactionLogger(b.logger, b.cfg.Freq)
		logger.Verbose = b.verboseLog
		env.AttachHook(logger)
	}

	for _, h := range b.hooks {
		env.AttachHook(h)
	}

	return env
}
