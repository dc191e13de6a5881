package timing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apbverif/hooking"
)

type traceLog struct {
	lock    sync.Mutex
	entries []string
}

func (l *traceLog) add(format string, args ...any) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.entries = append(l.entries, fmt.Sprintf(format, args...))
}

func (l *traceLog) all() []string {
	l.lock.Lock()
	defer l.lock.Unlock()

	return append([]string(nil), l.entries...)
}

func regionLoop(log *traceLog, tag string, r Region, n int) ProcFunc {
	return func(_ context.Context, p *Proc) error {
		for i := 0; i < n; i++ {
			if err := p.Next(r); err != nil {
				return err
			}

			log.add("%s%d", tag, p.Now())
		}

		return nil
	}
}

var _ = Describe("Kernel", func() {
	var (
		k   *Kernel
		log *traceLog
		ctx context.Context
	)

	BeforeEach(func() {
		k = NewKernel(100 * MHz)
		log = &traceLog{}

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		DeferCleanup(cancel)
	})

	It("should dispatch regions in order regardless of spawn order", func() {
		k.Spawn("sample", regionLoop(log, "S", RegionSample, 3))
		k.Spawn("eval", regionLoop(log, "E", RegionEvaluate, 3))
		k.Spawn("drive", regionLoop(log, "D", RegionDrive, 3))

		Expect(k.Run(ctx)).To(Succeed())
		Expect(log.all()).To(Equal([]string{
			"D0", "E0", "S0",
			"D1", "E1", "S1",
			"D2", "E2", "S2",
		}))
	})

	It("should finish when every process has returned", func() {
		k.Spawn("p", func(_ context.Context, p *Proc) error {
			return p.Wait(3, RegionDrive)
		})

		Expect(k.Run(ctx)).To(Succeed())
		Expect(k.CurrentTime()).To(Equal(VTimeInCycle(2)))
	})

	It("should resume a later region in the same cycle", func() {
		k.Spawn("p", func(_ context.Context, p *Proc) error {
			if err := p.Next(RegionDrive); err != nil {
				return err
			}
			log.add("D%d", p.Now())

			if err := p.Next(RegionSample); err != nil {
				return err
			}
			log.add("S%d", p.Now())

			if err := p.Next(RegionEvaluate); err != nil {
				return err
			}
			log.add("E%d", p.Now())

			return nil
		})

		Expect(k.Run(ctx)).To(Succeed())
		Expect(log.all()).To(Equal([]string{"D0", "S0", "E1"}))
	})

	It("should hand mailbox items to a parked process in FIFO order", func() {
		mb := NewMailbox[int](k, "MB")

		k.Spawn("producer", func(_ context.Context, p *Proc) error {
			for i := 1; i <= 3; i++ {
				if err := p.Wait(2, RegionDrive); err != nil {
					return err
				}

				mb.Put(i)
			}

			return nil
		})

		k.Spawn("consumer", func(ctx context.Context, p *Proc) error {
			for i := 0; i < 3; i++ {
				v, err := mb.Get(ctx)
				if err != nil {
					return err
				}

				log.add("%d@%d", v, p.Now())
			}

			return nil
		})

		Expect(k.Run(ctx)).To(Succeed())
		Expect(log.all()).To(Equal([]string{"1@1", "2@3", "3@5"}))

		put, got := mb.Stats()
		Expect(put).To(Equal(uint64(3)))
		Expect(got).To(Equal(uint64(3)))
	})

	It("should keep event tokens triggered before the wait", func() {
		evt := NewEvent(k, "Done")
		pending := 0

		k.Spawn("p", func(ctx context.Context, p *Proc) error {
			evt.Trigger()
			evt.Trigger()
			pending = evt.Pending()

			if err := evt.Wait(ctx); err != nil {
				return err
			}

			return evt.Wait(ctx)
		})

		Expect(k.Run(ctx)).To(Succeed())
		Expect(pending).To(Equal(2))
		Expect(evt.Pending()).To(Equal(0))
	})

	It("should abort the run when a process fails", func() {
		boom := errors.New("boom")

		k.Spawn("clocked", regionLoop(log, "D", RegionDrive, 1000))
		k.Spawn("failing", func(_ context.Context, p *Proc) error {
			if err := p.Wait(2, RegionEvaluate); err != nil {
				return err
			}

			return boom
		})

		err := k.Run(ctx)
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(ContainSubstring("failing"))
		Expect(len(log.all())).To(BeNumerically("<", 1000))
	})

	It("should detect a deadlock", func() {
		mb := NewMailbox[int](k, "Never")

		k.Spawn("stuck", func(ctx context.Context, _ *Proc) error {
			_, err := mb.Get(ctx)
			return err
		})

		Expect(k.Run(ctx)).To(MatchError(ErrDeadlock))
	})

	It("should stop at the cycle limit", func() {
		k.SetCycleLimit(10)
		k.Spawn("forever", regionLoop(log, "D", RegionDrive, 1<<30))

		Expect(k.Run(ctx)).To(MatchError(ErrCycleLimit))
		Expect(k.CurrentTime()).To(Equal(VTimeInCycle(10)))
	})

	It("should stop when a process calls Stop", func() {
		k.Spawn("forever", regionLoop(log, "S", RegionSample, 1<<30))
		k.Spawn("stopper", func(_ context.Context, p *Proc) error {
			if err := p.Wait(4, RegionDrive); err != nil {
				return err
			}

			p.Kernel().Stop()

			return nil
		})

		Expect(k.Run(ctx)).To(Succeed())
		Expect(k.Stopped()).To(BeTrue())
		Expect(k.CurrentTime()).To(Equal(VTimeInCycle(3)))
	})

	It("should stop when the context is cancelled", func() {
		short, cancel := context.WithCancel(ctx)
		k.Spawn("forever", regionLoop(log, "D", RegionDrive, 1<<30))
		k.Spawn("canceller", func(_ context.Context, p *Proc) error {
			if err := p.Wait(5, RegionSample); err != nil {
				return err
			}

			cancel()

			return nil
		})

		Expect(k.Run(short)).To(Succeed())
	})

	It("should invoke the cycle end hook once per cycle", func() {
		cycles := []VTimeInCycle{}
		k.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosCycleEnd))
			cycles = append(cycles, ctx.Item.(VTimeInCycle))
		}))

		k.Spawn("p", regionLoop(log, "D", RegionDrive, 4))

		Expect(k.Run(ctx)).To(Succeed())
		Expect(cycles).To(Equal([]VTimeInCycle{0, 1, 2}))
	})

	It("should hold the clock while paused", func() {
		k.Pause()
		Expect(k.IsPaused()).To(BeTrue())

		k.Spawn("p", regionLoop(log, "D", RegionDrive, 3))

		done := make(chan error)
		go func() { done <- k.Run(ctx) }()

		Consistently(log.all, 50*time.Millisecond).Should(BeEmpty())

		k.Continue()
		Eventually(done).Should(Receive(BeNil()))
		Expect(log.all()).To(HaveLen(3))
	})

	It("should panic when run twice", func() {
		Expect(k.Run(ctx)).To(Succeed())
		Expect(func() { _ = k.Run(ctx) }).To(Panic())
	})
})
