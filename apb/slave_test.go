package apb

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

func setupPhase(addr uint32, write bool, wdata uint8) BusState {
	return BusState{
		PResetN: true,
		PSel:    true,
		PAddr:   addr,
		PWrite:  write,
		PWData:  wdata,
	}
}

func accessPhase(addr uint32, write bool, wdata uint8) BusState {
	s := setupPhase(addr, write, wdata)
	s.PEnable = true

	return s
}

var idlePhase = BusState{PResetN: true}

var _ = Describe("Slave", func() {
	var s *Slave

	BeforeEach(func() {
		s = NewSlave("Slave", NewBus())
	})

	transfer := func(addr uint32, write bool, wdata uint8) Response {
		out := s.Step(setupPhase(addr, write, wdata), 0)
		Expect(out).To(Equal(Response{}))

		return s.Step(accessPhase(addr, write, wdata), 1)
	}

	It("should stay idle with no request", func() {
		out := s.Step(idlePhase, 0)

		Expect(out).To(Equal(Response{}))
		Expect(s.State()).To(Equal(StateIdle))
	})

	It("should enter WRITE or READ on SETUP", func() {
		s.Step(setupPhase(1, true, 0), 0)
		Expect(s.State()).To(Equal(StateWrite))

		s = NewSlave("Slave", NewBus())
		s.Step(setupPhase(1, false, 0), 0)
		Expect(s.State()).To(Equal(StateRead))
	})

	It("should complete a write in one ACCESS cycle", func() {
		out := transfer(3, true, 0x5a)

		Expect(out.PReady).To(BeTrue())
		Expect(out.PSlvErr).To(BeFalse())
		Expect(s.State()).To(Equal(StateIdle))
		Expect(s.Registers()[3]).To(Equal(uint8(0x5a)))
	})

	It("should read back a written value", func() {
		transfer(3, true, 0x5a)
		s.Step(idlePhase, 2)

		out := transfer(3, false, 0)

		Expect(out).To(Equal(Response{PRData: 0x5a, PReady: true}))
	})

	It("should hold the state while waiting for ACCESS", func() {
		s.Step(setupPhase(2, false, 0), 0)
		s.Step(setupPhase(2, false, 0), 1)

		Expect(s.State()).To(Equal(StateRead))
	})

	It("should abandon a transfer when PSel drops", func() {
		s.Step(setupPhase(2, true, 1), 0)
		s.Step(idlePhase, 1)

		Expect(s.State()).To(Equal(StateIdle))
		Expect(s.Registers()[2]).To(BeZero())
	})

	It("should reject an out-of-range write without touching registers", func() {
		out := transfer(20, true, 0x11)

		Expect(out.PReady).To(BeTrue())
		Expect(out.PSlvErr).To(BeTrue())
		Expect(s.State()).To(Equal(StateIdle))
		Expect(s.Registers()).To(Equal([NumRegisters]uint8{}))
	})

	It("should return zero on an out-of-range read", func() {
		out := transfer(31, false, 0)

		Expect(out).To(Equal(Response{PReady: true, PSlvErr: true}))
	})

	It("should not flag an error outside the ACCESS phase", func() {
		out := s.Step(setupPhase(25, true, 1), 0)

		Expect(out.PSlvErr).To(BeFalse())
	})

	It("should flag an error for any out-of-range ACCESS", func() {
		out := s.Step(accessPhase(25, true, 1), 0)

		Expect(out.PSlvErr).To(BeTrue())
		Expect(out.PReady).To(BeFalse())
	})

	It("should fail every access while a fault is injected", func() {
		transfer(4, true, 0x77)
		s.Step(idlePhase, 2)

		s.InjectFault(FaultData)
		out := transfer(4, true, 0x01)
		Expect(out.PSlvErr).To(BeTrue())
		Expect(s.Registers()[4]).To(Equal(uint8(0x77)))

		s.InjectFault(FaultAddr)
		out = transfer(4, false, 0)
		Expect(out).To(Equal(Response{PReady: true, PSlvErr: true}))

		s.ClearFaults()
		out = transfer(4, false, 0)
		Expect(out).To(Equal(Response{PRData: 0x77, PReady: true}))
	})

	It("should be forced idle while in reset", func() {
		s.Step(setupPhase(1, true, 5), 0)
		Expect(s.State()).To(Equal(StateWrite))

		in := accessPhase(1, true, 5)
		in.PResetN = false
		out := s.Step(in, 1)

		Expect(out).To(Equal(Response{}))
		Expect(s.State()).To(Equal(StateIdle))
		Expect(s.Registers()[1]).To(BeZero())
	})

	It("should report state changes and accesses through hooks", func() {
		var states []State
		var accesses []Transaction

		s.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			switch ctx.Pos {
			case HookPosStateChange:
				states = append(states, ctx.Item.(State))
			case HookPosAccess:
				accesses = append(accesses, ctx.Item.(Transaction))
			}
		}))

		transfer(9, true, 0xab)

		Expect(states).To(Equal([]State{StateWrite, StateIdle}))
		Expect(accesses).To(HaveLen(1))
		Expect(accesses[0].Addr).To(Equal(uint32(9)))
		Expect(accesses[0].Write).To(BeTrue())
		Expect(accesses[0].Cycle).To(Equal(timing.VTimeInCycle(1)))
	})

	It("should follow the bus when run as a process", func() {
		k := timing.NewKernel(100 * timing.MHz)
		bus := NewBus()
		s = NewSlave("Slave", bus)

		var readBack Response

		k.Spawn("Slave", s.Run)
		k.Spawn("Requester", func(_ context.Context, p *timing.Proc) error {
			steps := []func(){
				func() { bus.SetReset(false) },
				func() { bus.DriveSetup(6, true, 0xc3) },
				bus.DriveAccess,
				bus.DriveIdle,
				func() { bus.DriveSetup(6, false, 0) },
				bus.DriveAccess,
			}

			for _, step := range steps {
				if err := p.Next(timing.RegionDrive); err != nil {
					return err
				}

				step()
			}

			if err := p.Next(timing.RegionSample); err != nil {
				return err
			}

			snap := bus.Snapshot()
			readBack = Response{
				PRData:  snap.PRData,
				PReady:  snap.PReady,
				PSlvErr: snap.PSlvErr,
			}

			p.Kernel().Stop()

			return nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		Expect(k.Run(ctx)).To(Succeed())
		Expect(readBack).To(Equal(Response{PRData: 0xc3, PReady: true}))
		Expect(s.State()).To(Equal(StateIdle))
	})
})
