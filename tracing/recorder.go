package tracing

import (
	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/datarecording"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

// Names of the tables a RecordingHook writes.
const (
	TransferTable = "transfers"
	VerdictTable  = "verdicts"
)

// TransferEntry is one row of the transfer table: a transfer as the monitor
// reconstructed it.
type TransferEntry struct {
	ID     string
	Cycle  uint64
	Time   float64
	Addr   uint32
	WData  uint8
	Write  bool
	RData  uint8
	SlvErr bool
}

// VerdictEntry is one row of the verdict table.
type VerdictEntry struct {
	ID       string
	Cycle    uint64
	Addr     uint32
	Write    bool
	RData    uint8
	Expected uint8
	Verdict  string
}

// RecordingHook stores observed transfers and scoreboard verdicts in a
// DataRecorder.
type RecordingHook struct {
	recorder datarecording.DataRecorder
	freq     timing.FreqInHz
}

// NewRecordingHook creates the tables and returns a hook that fills them.
func NewRecordingHook(
	recorder datarecording.DataRecorder,
	freq timing.FreqInHz,
) *RecordingHook {
	recorder.CreateTable(TransferTable, TransferEntry{})
	recorder.CreateTable(VerdictTable, VerdictEntry{})

	return &RecordingHook{
		recorder: recorder,
		freq:     freq,
	}
}

// Func records the transaction carried by the hook context.
func (h *RecordingHook) Func(ctx hooking.HookCtx) {
	tr, ok := ctx.Item.(apb.Transaction)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosObserve:
		h.recorder.InsertData(TransferTable, TransferEntry{
			ID:     tr.ID,
			Cycle:  uint64(tr.Cycle),
			Time:   float64(h.freq.Seconds(tr.Cycle)),
			Addr:   tr.Addr,
			WData:  tr.WData,
			Write:  tr.Write,
			RData:  tr.RData,
			SlvErr: tr.SlvErr,
		})
	case HookPosVerify:
		check, _ := ctx.Detail.(Check)
		h.recorder.InsertData(VerdictTable, VerdictEntry{
			ID:       tr.ID,
			Cycle:    uint64(tr.Cycle),
			Addr:     tr.Addr,
			Write:    tr.Write,
			RData:    tr.RData,
			Expected: check.Expected,
			Verdict:  check.Verdict.String(),
		})
	}
}
