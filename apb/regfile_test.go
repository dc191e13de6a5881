package apb

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RegisterFile", func() {
	var rf *RegisterFile

	BeforeEach(func() {
		rf = &RegisterFile{}
	})

	It("should start zeroed", func() {
		Expect(rf.Contents()).To(Equal([NumRegisters]uint8{}))
	})

	It("should read back what was written", func() {
		Expect(rf.Write(3, 0x5a)).To(BeTrue())

		v, ok := rf.Read(3)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint8(0x5a)))
	})

	It("should reject addresses past the last register", func() {
		Expect(rf.Write(NumRegisters, 1)).To(BeFalse())
		Expect(rf.Write(20, 1)).To(BeFalse())

		_, ok := rf.Read(16)
		Expect(ok).To(BeFalse())
		Expect(rf.Contents()).To(Equal([NumRegisters]uint8{}))
	})

	It("should clear on reset", func() {
		rf.Write(15, 0xff)
		rf.Reset()

		Expect(rf.Contents()).To(Equal([NumRegisters]uint8{}))
	})
})
