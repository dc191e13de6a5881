package verif

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

var _ = Describe("Driver", func() {
	var (
		k      *timing.Kernel
		bus    *apb.Bus
		driver *Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		k = timing.NewKernel(100 * timing.MHz)
		bus = apb.NewBus()
		bus.SetReset(false)

		driver = &Driver{
			HookableBase: hooking.NewHookableBase(),
			name:         "Driver",
			bus:          bus,
			in:           timing.NewMailbox[apb.Transaction](k, "In"),
			done:         timing.NewEvent(k, "Done"),
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		DeferCleanup(cancel)
	})

	sampleBus := func(cycles int) *[]apb.BusState {
		states := &[]apb.BusState{}

		k.Spawn("Sampler", func(_ context.Context, p *timing.Proc) error {
			for i := 0; i < cycles; i++ {
				if err := p.Next(timing.RegionSample); err != nil {
					return err
				}

				*states = append(*states, bus.Snapshot())
			}

			p.Kernel().Stop()

			return nil
		})

		return states
	}

	It("should drive SETUP, ACCESS and idle on consecutive cycles", func() {
		driver.in.Put(Write(5, 0xab))
		k.Spawn("Driver", driver.Run)
		states := sampleBus(4)

		Expect(k.Run(ctx)).To(Succeed())
		Expect(*states).To(HaveLen(4))

		setup, access, idle := (*states)[0], (*states)[1], (*states)[2]

		Expect(setup.InSetup()).To(BeTrue())
		Expect(setup.PAddr).To(Equal(uint32(5)))
		Expect(setup.PWrite).To(BeTrue())
		Expect(setup.PWData).To(Equal(uint8(0xab)))

		Expect(access.InAccess()).To(BeTrue())
		Expect(access.PAddr).To(Equal(uint32(5)))

		Expect(idle.PSel).To(BeFalse())
		Expect(idle.PEnable).To(BeFalse())
		Expect((*states)[3].PSel).To(BeFalse())

		Expect(driver.done.Pending()).To(Equal(1))
	})

	It("should not drive write data for a read", func() {
		tr := Read(2)
		tr.WData = 0x77
		driver.in.Put(tr)
		k.Spawn("Driver", driver.Run)
		states := sampleBus(2)

		Expect(k.Run(ctx)).To(Succeed())
		Expect((*states)[0].PWrite).To(BeFalse())
		Expect((*states)[0].PWData).To(BeZero())
	})
})
