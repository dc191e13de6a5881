package verif

import (
	"context"
	"sync"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

// Named is anything with a name, used to list the parts of an environment.
type Named interface {
	Name() string
}

// Result summarizes a run.
type Result struct {
	Stats

	// Issued is the number of transactions the generator issued.
	Issued int

	// Observed is the number of transfers the monitor saw.
	Observed int

	// Completed is true if the generator finished its whole stimulus.
	Completed bool

	Cycles   timing.VTimeInCycle
	Duration timing.VTimeInSec
}

// Passed reports whether the run completed without a single mismatch.
func (r Result) Passed() bool {
	return r.Completed && r.Mismatches == 0
}

// Env owns and wires the components of one verification run.
type Env struct {
	name string
	cfg  Config

	kernel *timing.Kernel
	bus    *apb.Bus

	Slave      *apb.Slave
	Generator  *Generator
	Driver     *Driver
	Monitor    *Monitor
	Scoreboard *Scoreboard

	genToDrv    *timing.Mailbox[apb.Transaction]
	monToSco    *timing.Mailbox[apb.Transaction]
	driverDone  *timing.Event
	verified    *timing.Event
	genComplete *timing.Event

	lock      sync.Mutex
	completed bool
}

// Name returns the name of the environment.
func (e *Env) Name() string {
	return e.name
}

// Config returns the configuration the environment was built with.
func (e *Env) Config() Config {
	return e.cfg
}

// Kernel returns the kernel that runs the environment.
func (e *Env) Kernel() *timing.Kernel {
	return e.kernel
}

// Bus returns the bus between the driver, the slave and the monitor.
func (e *Env) Bus() *apb.Bus {
	return e.bus
}

// Components lists the parts of the environment.
func (e *Env) Components() []Named {
	return []Named{e.Generator, e.Driver, e.Slave, e.Monitor, e.Scoreboard}
}

// AttachHook registers h with every component and with the kernel.
func (e *Env) AttachHook(h hooking.Hook) {
	for _, c := range e.hookables() {
		c.AcceptHook(h)
	}
}

func (e *Env) hookables() []hooking.Hookable {
	return []hooking.Hookable{
		e.kernel, e.Generator, e.Driver, e.Slave, e.Monitor, e.Scoreboard,
	}
}

// Run resets the slave, runs the stimulus to completion and returns the
// result. A non-nil error means the run was aborted; the result then holds
// what was checked before the abort.
func (e *Env) Run(ctx context.Context) (Result, error) {
	k := e.kernel

	k.Spawn(e.Slave.Name(), e.Slave.Run)
	k.Spawn(e.Monitor.Name(), e.Monitor.Run)
	k.Spawn(e.Scoreboard.Name(), e.Scoreboard.Run)
	k.Spawn(e.name, e.main)

	err := k.Run(ctx)
	if err == nil && !e.isCompleted() {
		err = ctx.Err()
	}

	return e.result(), err
}

func (e *Env) main(ctx context.Context, p *timing.Proc) error {
	if err := e.reset(p); err != nil {
		return err
	}

	k := p.Kernel()
	k.Spawn(e.Driver.Name(), e.Driver.Run)
	k.Spawn(e.Generator.Name(), e.Generator.Run)

	if err := e.genComplete.Wait(ctx); err != nil {
		return err
	}

	e.lock.Lock()
	e.completed = true
	e.lock.Unlock()

	k.Stop()

	return nil
}

// reset holds the slave in reset with every control signal low for the
// configured number of cycles, then releases it.
func (e *Env) reset(p *timing.Proc) error {
	if err := p.Next(timing.RegionDrive); err != nil {
		return err
	}

	e.bus.SetReset(true)
	e.bus.DriveAllLow()

	if err := p.Wait(e.cfg.ResetCycles, timing.RegionDrive); err != nil {
		return err
	}

	e.bus.SetReset(false)

	return nil
}

func (e *Env) isCompleted() bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	return e.completed
}

func (e *Env) result() Result {
	now := e.kernel.CurrentTime()

	return Result{
		Stats:     e.Scoreboard.Stats(),
		Issued:    e.Generator.Issued(),
		Observed:  e.Monitor.Observed(),
		Completed: e.isCompleted(),
		Cycles:    now,
		Duration:  e.cfg.Freq.Seconds(now),
	}
}
