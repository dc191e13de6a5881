package apb

import "sync"

// BusState is the value of every bus signal at one point in time.
type BusState struct {
	// PResetN is the active-low reset. The slave is held in reset while it
	// is false.
	PResetN bool

	PAddr   uint32
	PSel    bool
	PEnable bool
	PWrite  bool
	PWData  uint8

	PRData  uint8
	PReady  bool
	PSlvErr bool
}

// InAccess reports whether the bus is in the ACCESS phase.
func (s BusState) InAccess() bool {
	return s.PSel && s.PEnable
}

// InSetup reports whether the bus is in the SETUP phase.
func (s BusState) InSetup() bool {
	return s.PSel && !s.PEnable
}

// Bus is the shared signal set between the requester, the slave and any
// observer. The requester side owns PResetN, PAddr, PSel, PEnable, PWrite and
// PWData; the slave side owns PRData, PReady and PSlvErr.
type Bus struct {
	lock  sync.Mutex
	state BusState
}

// NewBus creates a bus with reset asserted and every other signal low.
func NewBus() *Bus {
	return &Bus{}
}

// Snapshot returns a consistent copy of all signals.
func (b *Bus) Snapshot() BusState {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.state
}

// SetReset asserts (true) or releases (false) the reset.
func (b *Bus) SetReset(asserted bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.PResetN = !asserted
}

// DriveSetup starts a transfer: PSel high, PEnable low, address, direction
// and write data presented.
func (b *Bus) DriveSetup(addr uint32, write bool, wdata uint8) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.PSel = true
	b.state.PEnable = false
	b.state.PAddr = addr
	b.state.PWrite = write
	b.state.PWData = wdata
}

// DriveAccess raises PEnable and keeps the SETUP values stable.
func (b *Bus) DriveAccess() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.PEnable = true
}

// DriveIdle returns the control signals to their idle levels. Address and
// write data keep their last values.
func (b *Bus) DriveIdle() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.PSel = false
	b.state.PEnable = false
	b.state.PWrite = false
}

// DriveAllLow forces every requester-side signal low.
func (b *Bus) DriveAllLow() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.PSel = false
	b.state.PEnable = false
	b.state.PWrite = false
	b.state.PAddr = 0
	b.state.PWData = 0
}

// DriveResponse sets the slave-side signals.
func (b *Bus) DriveResponse(out Response) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.state.PRData = out.PRData
	b.state.PReady = out.PReady
	b.state.PSlvErr = out.PSlvErr
}
