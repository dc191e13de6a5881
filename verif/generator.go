package verif

import (
	"context"
	"sync"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/idgen"
	"github.com/sarchlab/apbverif/timing"
	"github.com/sarchlab/apbverif/tracing"
)

// Generator issues the transactions of a Stimulus in lockstep with the rest
// of the pipeline.
type Generator struct {
	*hooking.HookableBase

	name string
	stim Stimulus
	ids  idgen.Generator

	toDriver   *timing.Mailbox[apb.Transaction]
	driverDone *timing.Event
	verified   *timing.Event
	completed  *timing.Event

	lock   sync.Mutex
	issued int
}

// Name returns the name of the generator.
func (g *Generator) Name() string {
	return g.name
}

// Total returns the number of transactions the generator will issue.
func (g *Generator) Total() int {
	return g.stim.Len()
}

// Issued returns the number of transactions issued so far.
func (g *Generator) Issued() int {
	g.lock.Lock()
	defer g.lock.Unlock()

	return g.issued
}

// Run issues every transaction of the stimulus and triggers the completion
// event once all of them have been driven and verified.
func (g *Generator) Run(ctx context.Context, p *timing.Proc) error {
	for i := 0; i < g.stim.Len(); i++ {
		tr, err := g.stim.Next(i)
		if err != nil {
			return err
		}

		tr = apb.Transaction{
			ID:    g.ids.Generate(),
			Addr:  tr.Addr,
			WData: tr.WData,
			Write: tr.Write,
			Cycle: p.Now(),
		}

		g.InvokeHook(hooking.HookCtx{
			Domain: g,
			Pos:    tracing.HookPosIssue,
			Item:   tr,
		})

		g.toDriver.Put(tr)

		g.lock.Lock()
		g.issued++
		g.lock.Unlock()

		if err := g.driverDone.Wait(ctx); err != nil {
			return err
		}

		if err := g.verified.Wait(ctx); err != nil {
			return err
		}
	}

	g.completed.Trigger()

	return nil
}
