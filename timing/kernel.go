package timing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/apbverif/hooking"
)

// Region orders the activity inside one clock cycle. Every process that waits
// on a region is released together, and the kernel moves on to the next region
// only after all of them have parked again.
type Region int

// The regions of a cycle, in dispatch order.
const (
	// RegionDrive is where the testbench drives inputs onto the bus.
	RegionDrive Region = iota

	// RegionEvaluate is where the device under test reacts to its inputs.
	RegionEvaluate

	// RegionSample is where passive observers read settled values.
	RegionSample

	numRegions
)

func (r Region) String() string {
	switch r {
	case RegionDrive:
		return "Drive"
	case RegionEvaluate:
		return "Evaluate"
	case RegionSample:
		return "Sample"
	default:
		return fmt.Sprintf("Region(%d)", int(r))
	}
}

// HookPosCycleEnd fires after the last region of every cycle. The hook item is
// the VTimeInCycle of the cycle that just completed.
var HookPosCycleEnd = &hooking.HookPos{Name: "CycleEnd"}

var (
	// ErrDeadlock is returned by Run when live processes remain but none of
	// them waits on the clock, so nothing can ever wake them.
	ErrDeadlock = errors.New("timing: all processes are blocked")

	// ErrCycleLimit is returned by Run when the watchdog limit is reached.
	ErrCycleLimit = errors.New("timing: cycle limit reached")
)

// ProcFunc is the body of a process. Returning a non-nil error that is not a
// cancellation aborts the whole run.
type ProcFunc func(ctx context.Context, p *Proc) error

// Proc is the handle a process uses to synchronize with the clock.
type Proc struct {
	name   string
	kernel *Kernel
}

// Name returns the name given at Spawn.
func (p *Proc) Name() string {
	return p.name
}

// Kernel returns the kernel that runs the process.
func (p *Proc) Kernel() *Kernel {
	return p.kernel
}

// Now returns the current cycle.
func (p *Proc) Now() VTimeInCycle {
	return p.kernel.CurrentTime()
}

// Next parks the process until the next dispatch of the given region. Called
// from inside region r, Next(r) resumes one cycle later, while a later region
// of the same cycle resumes in the same cycle.
func (p *Proc) Next(region Region) error {
	return p.kernel.waitRegion(region)
}

// Wait parks the process for n dispatches of the given region.
func (p *Proc) Wait(n int, region Region) error {
	for i := 0; i < n; i++ {
		if err := p.Next(region); err != nil {
			return err
		}
	}

	return nil
}

// Kernel is a cycle-based scheduler for goroutine processes that share one
// clock. Processes run truly concurrently, but the kernel only advances the
// clock when every process is parked, either on a region or on a kernel-aware
// primitive such as a Mailbox or an Event. This gives every run the same
// interleaving regardless of how the Go scheduler orders the goroutines.
type Kernel struct {
	*hooking.HookableBase

	freq      FreqInHz
	maxCycles VTimeInCycle

	lock    sync.Mutex
	settled *sync.Cond
	now     VTimeInCycle
	region  Region
	active  int
	live    int
	waiters [numRegions][]chan struct{}
	err     error
	started bool
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex
}

// NewKernel creates a kernel whose clock runs at freq.
func NewKernel(freq FreqInHz) *Kernel {
	if freq == 0 {
		panic(ErrZeroFrequency)
	}

	k := &Kernel{
		HookableBase: hooking.NewHookableBase(),
		freq:         freq,
	}
	k.settled = sync.NewCond(&k.lock)
	k.ctx, k.cancel = context.WithCancel(context.Background())

	return k
}

// SetCycleLimit makes Run fail with ErrCycleLimit once the clock reaches
// limit. Zero disables the watchdog.
func (k *Kernel) SetCycleLimit(limit VTimeInCycle) {
	k.lock.Lock()
	defer k.lock.Unlock()

	k.maxCycles = limit
}

// Freq returns the clock frequency.
func (k *Kernel) Freq() FreqInHz {
	return k.freq
}

// CurrentTime returns the current cycle.
func (k *Kernel) CurrentTime() VTimeInCycle {
	k.lock.Lock()
	defer k.lock.Unlock()

	return k.now
}

// CurrentTimeInSec returns the current time in simulated seconds.
func (k *Kernel) CurrentTimeInSec() VTimeInSec {
	return k.freq.Seconds(k.CurrentTime())
}

// CurrentRegion returns the region that was dispatched last.
func (k *Kernel) CurrentRegion() Region {
	k.lock.Lock()
	defer k.lock.Unlock()

	return k.region
}

// Spawn starts a process. Processes may be spawned before Run or from inside
// another process.
func (k *Kernel) Spawn(name string, fn ProcFunc) {
	p := &Proc{name: name, kernel: k}

	k.lock.Lock()
	if k.stopped {
		k.lock.Unlock()
		return
	}
	k.active++
	k.live++
	k.wg.Add(1)
	k.lock.Unlock()

	go func() {
		defer k.wg.Done()

		err := fn(k.ctx, p)
		k.exit(p, err)
	}()
}

func (k *Kernel) exit(p *Proc, err error) {
	k.lock.Lock()
	defer k.lock.Unlock()

	k.live--
	k.active--

	if err != nil && !errors.Is(err, context.Canceled) && k.err == nil {
		k.err = fmt.Errorf("process %s: %w", p.name, err)
		k.stopLocked()
	}

	k.settled.Broadcast()
}

// Run advances the clock until Stop is called, ctx is cancelled, a process
// fails, the cycle limit is reached or the processes deadlock. Run returns
// only after every process goroutine has exited.
func (k *Kernel) Run(ctx context.Context) error {
	k.lock.Lock()
	if k.started {
		k.lock.Unlock()
		panic("timing: kernel already started")
	}
	k.started = true
	k.lock.Unlock()

	stopWatching := context.AfterFunc(ctx, k.Stop)
	defer stopWatching()

	err := k.loop()

	k.Stop()
	k.wg.Wait()

	k.lock.Lock()
	defer k.lock.Unlock()

	if k.err != nil {
		return k.err
	}

	return err
}

func (k *Kernel) loop() error {
	for {
		k.pauseLock.Lock()
		done, err := k.runCycle()
		k.pauseLock.Unlock()

		if done {
			return err
		}
	}
}

func (k *Kernel) runCycle() (done bool, err error) {
	k.lock.Lock()

	for r := Region(0); r < numRegions; r++ {
		if !k.settle() {
			k.lock.Unlock()
			return true, nil
		}

		k.region = r
		k.wake(r)
	}

	if !k.settle() {
		k.lock.Unlock()
		return true, nil
	}

	if !k.anyWaiter() {
		live := k.live
		k.lock.Unlock()

		if live == 0 {
			return true, nil
		}

		return true, ErrDeadlock
	}

	cycle := k.now
	k.now++
	now := k.now
	limit := k.maxCycles
	k.lock.Unlock()

	if k.NumHooks() > 0 {
		k.InvokeHook(hooking.HookCtx{
			Domain: k,
			Pos:    HookPosCycleEnd,
			Item:   cycle,
		})
	}

	if limit > 0 && now >= limit {
		return true, fmt.Errorf("%w: %d cycles", ErrCycleLimit, limit)
	}

	return false, nil
}

// settle blocks until no process is runnable. It reports false if the kernel
// was stopped in the meantime. Must be called with the lock held.
func (k *Kernel) settle() bool {
	for k.active > 0 && !k.stopped {
		k.settled.Wait()
	}

	return !k.stopped
}

func (k *Kernel) wake(r Region) {
	waiters := k.waiters[r]
	k.waiters[r] = nil

	for _, ch := range waiters {
		k.active++
		close(ch)
	}
}

func (k *Kernel) anyWaiter() bool {
	for _, w := range k.waiters {
		if len(w) > 0 {
			return true
		}
	}

	return false
}

func (k *Kernel) waitRegion(r Region) error {
	if r < 0 || r >= numRegions {
		panic(fmt.Sprintf("timing: invalid region %d", int(r)))
	}

	ch := make(chan struct{})

	k.lock.Lock()
	if k.stopped {
		k.lock.Unlock()
		return k.ctx.Err()
	}
	k.waiters[r] = append(k.waiters[r], ch)
	k.parkLocked()
	k.lock.Unlock()

	select {
	case <-ch:
		return nil
	case <-k.ctx.Done():
		return k.ctx.Err()
	}
}

// park marks the calling process as blocked on a kernel-aware primitive.
func (k *Kernel) park() {
	k.lock.Lock()
	k.parkLocked()
	k.lock.Unlock()
}

func (k *Kernel) parkLocked() {
	k.active--
	if k.active <= 0 {
		k.settled.Broadcast()
	}
}

// unpark marks a blocked process as runnable again. It must be called before
// the process is actually released so that the kernel cannot advance in
// between.
func (k *Kernel) unpark() {
	k.lock.Lock()
	k.active++
	k.lock.Unlock()
}

// Stop ends the run. Blocked processes observe a cancelled context. Stop is
// safe to call from inside a process and more than once.
func (k *Kernel) Stop() {
	k.lock.Lock()
	k.stopLocked()
	k.lock.Unlock()

	k.Continue()
}

func (k *Kernel) stopLocked() {
	if k.stopped {
		return
	}

	k.stopped = true
	k.cancel()
	k.settled.Broadcast()
}

// Stopped reports whether the kernel has been stopped.
func (k *Kernel) Stopped() bool {
	k.lock.Lock()
	defer k.lock.Unlock()

	return k.stopped
}

// Pause prevents the kernel from starting new cycles until Continue is called.
// The cycle in progress is allowed to finish.
func (k *Kernel) Pause() {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	if k.isPaused {
		return
	}

	k.pauseLock.Lock()
	k.isPaused = true
}

// Continue resumes a paused kernel.
func (k *Kernel) Continue() {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	if !k.isPaused {
		return
	}

	k.pauseLock.Unlock()
	k.isPaused = false
}

// IsPaused reports whether Pause is in effect.
func (k *Kernel) IsPaused() bool {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	return k.isPaused
}
