package tracing

import (
	"fmt"
	"log"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

// Tags that prefix every line of the transaction log.
const (
	TagGenerator  = "GEN"
	TagDriver     = "DRV"
	TagSlave      = "DUT"
	TagMonitor    = "MON"
	TagScoreboard = "SCO"
)

// TransactionLogger is a hook that prints a human-readable line for every
// transaction passing a hook position. Lines carry a tag, the transaction
// fields and the simulation time.
type TransactionLogger struct {
	*log.Logger

	freq timing.FreqInHz

	// Verbose also prints what the generator issues, what the driver drives
	// and what the slave accesses. Otherwise only monitor and scoreboard
	// lines are printed.
	Verbose bool
}

// NewTransactionLogger returns a logger hook writing into logger. The
// frequency converts cycles into seconds.
func NewTransactionLogger(
	logger *log.Logger,
	freq timing.FreqInHz,
) *TransactionLogger {
	h := new(TransactionLogger)
	h.Logger = logger
	h.freq = freq

	return h
}

// Func writes the transaction information into the logger.
func (h *TransactionLogger) Func(ctx hooking.HookCtx) {
	tr, ok := ctx.Item.(apb.Transaction)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosObserve:
		h.print(TagMonitor, tr, "")
	case HookPosVerify:
		check, _ := ctx.Detail.(Check)
		h.print(TagScoreboard, tr, h.describe(tr, check))
	case HookPosIssue:
		if h.Verbose {
			h.print(TagGenerator, tr, "")
		}
	case HookPosDrive:
		if h.Verbose {
			h.print(TagDriver, tr, "")
		}
	case apb.HookPosAccess:
		if h.Verbose {
			h.print(TagSlave, tr, "")
		}
	}
}

func (h *TransactionLogger) describe(tr apb.Transaction, c Check) string {
	switch c.Verdict {
	case VerdictMatch:
		return "PASS"
	case VerdictMismatch:
		if !tr.InRange() {
			return "MISMATCH out-of-range transfer was accepted"
		}

		return fmt.Sprintf("MISMATCH expected=0x%02x", c.Expected)
	case VerdictFault:
		return "FAULT slave error"
	default:
		return c.Verdict.String()
	}
}

func (h *TransactionLogger) print(tag string, tr apb.Transaction, note string) {
	if note != "" {
		note = " " + note
	}

	h.Printf("[%s] %s%s @ cycle %d (%.9fs)",
		tag, tr, note, tr.Cycle, float64(h.freq.Seconds(tr.Cycle)))
}

