package verif

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sarchlab/apbverif/apb"
)

// ErrRandomization is returned when no transaction can satisfy the stimulus
// constraints. It is fatal for the run.
var ErrRandomization = errors.New("verif: randomization failed")

// Stimulus is the source of the request fields of the transactions the
// generator issues. Result fields of the returned transactions are ignored.
type Stimulus interface {
	// Len returns how many transactions the stimulus provides.
	Len() int

	// Next returns the i-th transaction, 0 <= i < Len().
	Next(i int) (apb.Transaction, error)
}

// RandomStimulus draws addresses uniformly from [0, addrRange) and data
// uniformly from 0-255. Writes and reads alternate, starting with a write.
type RandomStimulus struct {
	count     int
	addrRange uint32
	rng       *rand.Rand
}

// NewRandomStimulus creates a random stimulus of count transactions.
func NewRandomStimulus(count int, addrRange uint32, seed int64) *RandomStimulus {
	return &RandomStimulus{
		count:     count,
		addrRange: addrRange,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Len returns the number of transactions.
func (s *RandomStimulus) Len() int {
	return s.count
}

// Next draws the i-th transaction.
func (s *RandomStimulus) Next(i int) (apb.Transaction, error) {
	if s.addrRange == 0 {
		return apb.Transaction{}, fmt.Errorf(
			"%w: empty address range", ErrRandomization)
	}

	return apb.Transaction{
		Addr:  uint32(s.rng.Int63n(int64(s.addrRange))),
		WData: uint8(s.rng.Intn(256)),
		Write: i%2 == 0,
	}, nil
}

// SequenceStimulus replays a fixed list of transactions.
type SequenceStimulus struct {
	transactions []apb.Transaction
}

// NewSequenceStimulus creates a stimulus that replays transactions in order.
func NewSequenceStimulus(transactions ...apb.Transaction) *SequenceStimulus {
	return &SequenceStimulus{transactions: transactions}
}

// Len returns the number of transactions.
func (s *SequenceStimulus) Len() int {
	return len(s.transactions)
}

// Next returns the i-th transaction.
func (s *SequenceStimulus) Next(i int) (apb.Transaction, error) {
	if i < 0 || i >= len(s.transactions) {
		return apb.Transaction{}, fmt.Errorf(
			"%w: sequence has no transaction %d", ErrRandomization, i)
	}

	return s.transactions[i], nil
}

// Write is a shorthand for a write request.
func Write(addr uint32, data uint8) apb.Transaction {
	return apb.Transaction{Addr: addr, WData: data, Write: true}
}

// Read is a shorthand for a read request.
func Read(addr uint32) apb.Transaction {
	return apb.Transaction{Addr: addr}
}
