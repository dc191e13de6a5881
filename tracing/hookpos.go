package tracing

import (
	"fmt"

	"github.com/sarchlab/apbverif/hooking"
)

// Hook positions raised by the verification components. The hook item is
// always an apb.Transaction.
var (
	// HookPosIssue fires when the generator hands a transaction to the
	// driver.
	HookPosIssue = &hooking.HookPos{Name: "Issue"}

	// HookPosDrive fires when the driver has finished the handshake of a
	// transaction.
	HookPosDrive = &hooking.HookPos{Name: "Drive"}

	// HookPosObserve fires when the monitor hands a reconstructed
	// transaction to the scoreboard.
	HookPosObserve = &hooking.HookPos{Name: "Observe"}

	// HookPosVerify fires when the scoreboard has judged a transaction. The
	// hook detail is a Check.
	HookPosVerify = &hooking.HookPos{Name: "Verify"}
)

// Verdict is the outcome of checking one observed transaction.
type Verdict int

// Possible verdicts.
const (
	// VerdictWrite is a valid write committed to the reference memory.
	VerdictWrite Verdict = iota
	// VerdictMatch is a valid read that returned the expected data.
	VerdictMatch
	// VerdictMismatch is a valid read that returned unexpected data.
	VerdictMismatch
	// VerdictFault is a transfer the slave rejected with an error.
	VerdictFault
)

func (v Verdict) String() string {
	switch v {
	case VerdictWrite:
		return "WRITE"
	case VerdictMatch:
		return "PASS"
	case VerdictMismatch:
		return "MISMATCH"
	case VerdictFault:
		return "FAULT"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Check is the detail attached to HookPosVerify.
type Check struct {
	Verdict Verdict

	// Expected is the reference value for reads; zero otherwise.
	Expected uint8
}
