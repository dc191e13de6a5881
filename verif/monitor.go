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

// Monitor watches the bus and reconstructs every completed transfer. It never
// drives a signal.
type Monitor struct {
	*hooking.HookableBase

	name string
	bus  *apb.Bus
	ids  idgen.Generator

	out *timing.Mailbox[apb.Transaction]

	lock     sync.Mutex
	observed int
}

// Name returns the name of the monitor.
func (m *Monitor) Name() string {
	return m.name
}

// Observed returns the number of transfers seen so far.
func (m *Monitor) Observed() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.observed
}

// Run samples the bus every cycle until the context is cancelled.
func (m *Monitor) Run(_ context.Context, p *timing.Proc) error {
	for {
		if err := p.Next(timing.RegionSample); err != nil {
			return err
		}

		s := m.bus.Snapshot()
		if !s.PReady {
			continue
		}

		tr := apb.Transaction{
			ID:     m.ids.Generate(),
			Addr:   s.PAddr,
			WData:  s.PWData,
			Sel:    s.PSel,
			Enable: s.PEnable,
			Write:  s.PWrite,
			RData:  s.PRData,
			Ready:  s.PReady,
			SlvErr: s.PSlvErr,
			Cycle:  p.Now(),
		}

		if err := p.Next(timing.RegionSample); err != nil {
			return err
		}

		m.lock.Lock()
		m.observed++
		m.lock.Unlock()

		m.InvokeHook(hooking.HookCtx{
			Domain: m,
			Pos:    tracing.HookPosObserve,
			Item:   tr,
		})

		m.out.Put(tr)
	}
}
