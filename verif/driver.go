package verif

import (
	"context"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
	"github.com/sarchlab/apbverif/tracing"
)

// Driver turns transactions into the SETUP/ACCESS handshake on the bus.
type Driver struct {
	*hooking.HookableBase

	name string
	bus  *apb.Bus

	in   *timing.Mailbox[apb.Transaction]
	done *timing.Event
}

// Name returns the name of the driver.
func (d *Driver) Name() string {
	return d.name
}

// Run drives every transaction it receives and triggers the done event after
// each handshake.
func (d *Driver) Run(ctx context.Context, p *timing.Proc) error {
	for {
		tr, err := d.in.Get(ctx)
		if err != nil {
			return err
		}

		if err := d.Drive(p, tr); err != nil {
			return err
		}

		d.done.Trigger()
	}
}

// Drive performs one handshake. It takes three cycles: SETUP, ACCESS, and
// the return to idle levels.
func (d *Driver) Drive(p *timing.Proc, tr apb.Transaction) error {
	if err := p.Next(timing.RegionDrive); err != nil {
		return err
	}

	wdata := tr.WData
	if !tr.Write {
		wdata = 0
	}

	d.bus.DriveSetup(tr.Addr, tr.Write, wdata)

	if err := p.Next(timing.RegionDrive); err != nil {
		return err
	}

	d.bus.DriveAccess()

	if err := p.Next(timing.RegionDrive); err != nil {
		return err
	}

	d.bus.DriveIdle()

	tr.Cycle = p.Now()
	d.InvokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    tracing.HookPosDrive,
		Item:   tr,
	})

	return nil
}
