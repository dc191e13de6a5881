package apb

// NumRegisters is the number of byte registers behind the slave.
const NumRegisters = 16

// RegisterFile is the storage of the slave.
type RegisterFile struct {
	regs [NumRegisters]uint8
}

// Read returns the register at addr. ok is false when addr does not select a
// register.
func (r *RegisterFile) Read(addr uint32) (value uint8, ok bool) {
	if addr >= NumRegisters {
		return 0, false
	}

	return r.regs[addr], true
}

// Write stores value at addr and reports whether addr selects a register.
func (r *RegisterFile) Write(addr uint32, value uint8) bool {
	if addr >= NumRegisters {
		return false
	}

	r.regs[addr] = value

	return true
}

// Reset clears every register.
func (r *RegisterFile) Reset() {
	r.regs = [NumRegisters]uint8{}
}

// Contents returns a copy of all registers.
func (r *RegisterFile) Contents() [NumRegisters]uint8 {
	return r.regs
}
