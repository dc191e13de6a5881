package apb

import (
	"fmt"

	"github.com/sarchlab/apbverif/timing"
)

// Transaction is the record exchanged between the stages of the verification
// pipeline. Transactions are passed by value, so a copy handed to the next
// stage cannot be changed by the sender.
type Transaction struct {
	ID string

	Addr   uint32
	WData  uint8
	Sel    bool
	Enable bool
	Write  bool

	RData  uint8
	Ready  bool
	SlvErr bool

	// Cycle is when the transaction was issued or observed, depending on the
	// stage holding it.
	Cycle timing.VTimeInCycle
}

// InRange reports whether the address selects an existing register.
func (t Transaction) InRange() bool {
	return t.Addr < NumRegisters
}

// Kind returns "WRITE" or "READ".
func (t Transaction) Kind() string {
	if t.Write {
		return "WRITE"
	}

	return "READ"
}

func (t Transaction) String() string {
	return fmt.Sprintf(
		"id=%s %-5s addr=%d wdata=0x%02x rdata=0x%02x ready=%t slverr=%t",
		t.ID, t.Kind(), t.Addr, t.WData, t.RData, t.Ready, t.SlvErr,
	)
}
