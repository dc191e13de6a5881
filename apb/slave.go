package apb

import (
	"context"
	"fmt"
	"sync"

	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

// State is the protocol state of the slave.
type State int

// The slave states.
const (
	StateIdle State = iota
	StateWrite
	StateRead
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWrite:
		return "WRITE"
	case StateRead:
		return "READ"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fault is a set of injected validity faults.
type Fault uint8

// Faults that can be injected into the slave. While any is set, every ACCESS
// completes with PSlvErr and leaves the registers untouched.
const (
	FaultAddr Fault = 1 << iota
	FaultData
)

// Response is what the slave drives back for one cycle.
type Response struct {
	PRData  uint8
	PReady  bool
	PSlvErr bool
}

// HookPosStateChange fires when the slave changes state. Item is the new State
// and Detail the previous one.
var HookPosStateChange = &hooking.HookPos{Name: "Slave State Change"}

// HookPosAccess fires when an ACCESS phase completes. Item is a Transaction
// describing the access as the slave saw it.
var HookPosAccess = &hooking.HookPos{Name: "Slave Access"}

// Slave is the device under verification: a register file behind the two-phase
// handshake.
type Slave struct {
	*hooking.HookableBase

	name string
	bus  *Bus

	lock   sync.Mutex
	state  State
	regs   RegisterFile
	faults Fault
}

// NewSlave creates a slave attached to bus.
func NewSlave(name string, bus *Bus) *Slave {
	return &Slave{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		bus:          bus,
	}
}

// Name returns the name of the slave.
func (s *Slave) Name() string {
	return s.name
}

// State returns the current protocol state.
func (s *Slave) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.state
}

// InjectFault adds faults to the set of active faults.
func (s *Slave) InjectFault(f Fault) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.faults |= f
}

// ClearFaults removes every injected fault.
func (s *Slave) ClearFaults() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.faults = 0
}

// Registers returns a copy of the register file for debugging and
// monitoring. Verification components must not use it; they only see the
// slave through the bus.
func (s *Slave) Registers() [NumRegisters]uint8 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.regs.Contents()
}

// Run evaluates the slave once per cycle until the context is cancelled.
func (s *Slave) Run(_ context.Context, p *timing.Proc) error {
	for {
		if err := p.Next(timing.RegionEvaluate); err != nil {
			return err
		}

		in := s.bus.Snapshot()
		out := s.Step(in, p.Now())
		s.bus.DriveResponse(out)
	}
}

// Step evaluates one cycle with the given inputs, applies any register
// update and advances the state.
func (s *Slave) Step(in BusState, now timing.VTimeInCycle) Response {
	s.lock.Lock()

	prev := s.state
	out := s.respond(in)
	s.state = nextState(prev, in)
	next := s.state

	s.lock.Unlock()

	if s.NumHooks() == 0 {
		return out
	}

	if out.PReady {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosAccess,
			Item: Transaction{
				Addr:   in.PAddr,
				WData:  in.PWData,
				Sel:    in.PSel,
				Enable: in.PEnable,
				Write:  prev == StateWrite,
				RData:  out.PRData,
				Ready:  out.PReady,
				SlvErr: out.PSlvErr,
				Cycle:  now,
			},
		})
	}

	if next != prev {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosStateChange,
			Item:   next,
			Detail: prev,
		})
	}

	return out
}

func (s *Slave) respond(in BusState) Response {
	out := Response{}

	if !in.PResetN {
		return out
	}

	out.PSlvErr = in.InAccess() && (in.PAddr >= NumRegisters || s.faults != 0)

	if !in.InAccess() {
		return out
	}

	switch s.state {
	case StateWrite:
		out.PReady = true
		if !out.PSlvErr {
			s.regs.Write(in.PAddr, in.PWData)
		}
	case StateRead:
		out.PReady = true
		if !out.PSlvErr {
			out.PRData, _ = s.regs.Read(in.PAddr)
		}
	}

	return out
}

// nextState is the transition function of the protocol state machine.
func nextState(state State, in BusState) State {
	if !in.PResetN {
		return StateIdle
	}

	switch state {
	case StateIdle:
		switch {
		case in.PSel && in.PWrite:
			return StateWrite
		case in.PSel:
			return StateRead
		default:
			return StateIdle
		}
	case StateWrite, StateRead:
		if in.InAccess() || !in.PSel {
			return StateIdle
		}

		return state
	default:
		panic(fmt.Sprintf("apb: unknown state %d", int(state)))
	}
}
