package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/hooking"
	"github.com/sarchlab/apbverif/timing"
)

var _ = Describe("RecordingHook", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		hook     *RecordingHook
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)

		recorder.EXPECT().CreateTable(TransferTable, TransferEntry{})
		recorder.EXPECT().CreateTable(VerdictTable, VerdictEntry{})

		hook = NewRecordingHook(recorder, 1*timing.GHz)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record observed transfers", func() {
		tr := apb.Transaction{
			ID: "1", Addr: 20, WData: 0x11, Write: true,
			Ready: true, SlvErr: true, Cycle: 4,
		}

		recorder.EXPECT().InsertData(TransferTable, TransferEntry{
			ID:     "1",
			Cycle:  4,
			Time:   4e-9,
			Addr:   20,
			WData:  0x11,
			Write:  true,
			SlvErr: true,
		})

		hook.Func(hooking.HookCtx{Pos: HookPosObserve, Item: tr})
	})

	It("should record verdicts", func() {
		tr := apb.Transaction{ID: "2", Addr: 3, RData: 0x5a, Cycle: 9}

		recorder.EXPECT().InsertData(VerdictTable, VerdictEntry{
			ID:       "2",
			Cycle:    9,
			Addr:     3,
			RData:    0x5a,
			Expected: 0x5a,
			Verdict:  "PASS",
		})

		hook.Func(hooking.HookCtx{
			Pos:    HookPosVerify,
			Item:   tr,
			Detail: Check{Verdict: VerdictMatch, Expected: 0x5a},
		})
	})

	It("should ignore other positions", func() {
		hook.Func(hooking.HookCtx{Pos: HookPosIssue, Item: apb.Transaction{}})
	})
})
