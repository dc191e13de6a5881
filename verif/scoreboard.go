package verif

import (
	"context"
	"sync"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
	"github.com/sarchlab/apbverif/tracing"
)

// Stats counts the verdicts of a scoreboard.
type Stats struct {
	Checked    int
	Writes     int
	Reads      int
	Matches    int
	Mismatches int
	Faults     int
}

// Scoreboard checks observed transactions against its own reference memory.
// The reference memory is only ever updated from observed transactions; it is
// never read from or compared directly with the slave registers.
type Scoreboard struct {
	*hooking.HookableBase

	name string

	in       *timing.Mailbox[apb.Transaction]
	verified *timing.Event

	lock   sync.Mutex
	refMem [apb.NumRegisters]uint8
	stats  Stats
}

// Name returns the name of the scoreboard.
func (s *Scoreboard) Name() string {
	return s.name
}

// Stats returns the counters so far.
func (s *Scoreboard) Stats() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.stats
}

// Mismatches returns the number of reads that disagreed with the reference
// memory.
func (s *Scoreboard) Mismatches() int {
	return s.Stats().Mismatches
}

// Run checks every observed transaction until the context is cancelled,
// triggering the verified event after each.
func (s *Scoreboard) Run(ctx context.Context, _ *timing.Proc) error {
	for {
		tr, err := s.in.Get(ctx)
		if err != nil {
			return err
		}

		s.Check(tr)
		s.verified.Trigger()
	}
}

// Check judges one observed transaction and updates the reference memory and
// counters.
func (s *Scoreboard) Check(tr apb.Transaction) tracing.Check {
	s.lock.Lock()

	check := s.judge(tr)
	s.stats.Checked++

	switch check.Verdict {
	case tracing.VerdictWrite:
		s.stats.Writes++
	case tracing.VerdictMatch:
		s.stats.Reads++
		s.stats.Matches++
	case tracing.VerdictMismatch:
		if !tr.Write {
			s.stats.Reads++
		}
		s.stats.Mismatches++
	case tracing.VerdictFault:
		s.stats.Faults++
	}

	s.lock.Unlock()

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    tracing.HookPosVerify,
		Item:   tr,
		Detail: check,
	})

	return check
}

func (s *Scoreboard) judge(tr apb.Transaction) tracing.Check {
	if tr.SlvErr {
		return tracing.Check{Verdict: tracing.VerdictFault}
	}

	// A transfer to a missing register must be rejected.
	if !tr.InRange() {
		return tracing.Check{Verdict: tracing.VerdictMismatch}
	}

	if tr.Write {
		s.refMem[tr.Addr] = tr.WData
		return tracing.Check{Verdict: tracing.VerdictWrite}
	}

	expected := s.refMem[tr.Addr]
	if tr.RData != expected {
		return tracing.Check{Verdict: tracing.VerdictMismatch, Expected: expected}
	}

	return tracing.Check{Verdict: tracing.VerdictMatch, Expected: expected}
}
