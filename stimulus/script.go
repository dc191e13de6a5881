// Package stimulus loads directed stimulus written in Starlark.
//
// A script either assigns a list to the global "transactions" or defines a
// function "generate(n)" that returns one. Every element is a dict with the
// keys "addr", "data" and "write"; the builtins write(addr, data) and
// read(addr) build such dicts. NUM_REGISTERS is predeclared.
//
//	def generate(n):
//	    out = []
//	    for i in range(n):
//	        out.append(write(i % 20, i))
//	        out.append(read(i % 20))
//	    return out
package stimulus

import (
	"log"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/apbverif/apb"
	"github.com/sarchlab/apbverif/verif"
)

// Names a script uses to hand over its transactions.
const (
	TransactionsGlobal = "transactions"
	GenerateFunc       = "generate"
)

var _ verif.Stimulus = (*Script)(nil)

// Script is a stimulus whose transactions were produced by a Starlark
// program.
type Script struct {
	name         string
	transactions []apb.Transaction
}

// LoadFile reads and evaluates the script at path. n is passed to generate.
func LoadFile(path string, n int) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read stimulus script")
	}

	return Load(path, src, n)
}

// Load evaluates a script held in memory. name is used in error messages.
func Load(name string, src []byte, n int) (*Script, error) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			log.Printf("[%s] %s", name, msg)
		},
	}

	opts := syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(
		&opts, thread, name, src, predeclared())
	if err != nil {
		return nil, errors.Wrapf(err, "script %s", name)
	}

	value, err := transactionsOf(thread, globals, n)
	if err != nil {
		return nil, errors.Wrapf(err, "script %s", name)
	}

	transactions, err := decodeList(value)
	if err != nil {
		return nil, errors.Wrapf(err, "script %s", name)
	}

	return &Script{name: name, transactions: transactions}, nil
}

// Name returns the name the script was loaded under.
func (s *Script) Name() string {
	return s.name
}

// Len returns the number of transactions.
func (s *Script) Len() int {
	return len(s.transactions)
}

// Next returns the i-th transaction.
func (s *Script) Next(i int) (apb.Transaction, error) {
	if i < 0 || i >= len(s.transactions) {
		return apb.Transaction{}, errors.Wrapf(verif.ErrRandomization,
			"script %s has no transaction %d", s.name, i)
	}

	return s.transactions[i], nil
}

func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"NUM_REGISTERS": starlark.MakeInt(apb.NumRegisters),
		"write":         starlark.NewBuiltin("write", builtinWrite),
		"read":          starlark.NewBuiltin("read", builtinRead),
	}
}

func builtinWrite(
	_ *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var addr, data int

	err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"addr", &addr, "data", &data)
	if err != nil {
		return nil, err
	}

	return makeDict(addr, data, true), nil
}

func builtinRead(
	_ *starlark.Thread,
	b *starlark.Builtin,
	args starlark.Tuple,
	kwargs []starlark.Tuple,
) (starlark.Value, error) {
	var addr int

	err := starlark.UnpackArgs(b.Name(), args, kwargs, "addr", &addr)
	if err != nil {
		return nil, err
	}

	return makeDict(addr, 0, false), nil
}

func makeDict(addr, data int, write bool) *starlark.Dict {
	d := starlark.NewDict(3)
	_ = d.SetKey(starlark.String("addr"), starlark.MakeInt(addr))
	_ = d.SetKey(starlark.String("data"), starlark.MakeInt(data))
	_ = d.SetKey(starlark.String("write"), starlark.Bool(write))

	return d
}

func transactionsOf(
	thread *starlark.Thread,
	globals starlark.StringDict,
	n int,
) (starlark.Value, error) {
	if fn, ok := globals[GenerateFunc]; ok {
		callable, ok := fn.(starlark.Callable)
		if !ok {
			return nil, errors.Errorf("%s is a %s, not a function",
				GenerateFunc, fn.Type())
		}

		return starlark.Call(thread, callable,
			starlark.Tuple{starlark.MakeInt(n)}, nil)
	}

	if list, ok := globals[TransactionsGlobal]; ok {
		return list, nil
	}

	return nil, errors.Errorf("neither %s nor %s() is defined",
		TransactionsGlobal, GenerateFunc)
}

func decodeList(value starlark.Value) ([]apb.Transaction, error) {
	iterable, ok := value.(starlark.Iterable)
	if !ok {
		return nil, errors.Errorf("want a list of transactions, got %s",
			value.Type())
	}

	var transactions []apb.Transaction

	iter := iterable.Iterate()
	defer iter.Done()

	var elem starlark.Value
	for i := 0; iter.Next(&elem); i++ {
		tr, err := decodeTransaction(elem)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}

		transactions = append(transactions, tr)
	}

	return transactions, nil
}

func decodeTransaction(value starlark.Value) (apb.Transaction, error) {
	d, ok := value.(*starlark.Dict)
	if !ok {
		return apb.Transaction{}, errors.Errorf("want a dict, got %s",
			value.Type())
	}

	for _, key := range d.Keys() {
		switch key {
		case starlark.String("addr"),
			starlark.String("data"),
			starlark.String("write"):
		default:
			return apb.Transaction{}, errors.Errorf("unknown key %s", key)
		}
	}

	addr, err := intField(d, "addr", math.MaxUint32, true)
	if err != nil {
		return apb.Transaction{}, err
	}

	data, err := intField(d, "data", math.MaxUint8, false)
	if err != nil {
		return apb.Transaction{}, err
	}

	write, _, err := d.Get(starlark.String("write"))
	if err != nil {
		return apb.Transaction{}, err
	}

	return apb.Transaction{
		Addr:  uint32(addr),
		WData: uint8(data),
		Write: write != nil && bool(write.Truth()),
	}, nil
}

func intField(
	d *starlark.Dict,
	key string,
	maxValue int64,
	required bool,
) (int64, error) {
	v, found, err := d.Get(starlark.String(key))
	if err != nil {
		return 0, err
	}

	if !found {
		if required {
			return 0, errors.Errorf("missing %s", key)
		}

		return 0, nil
	}

	i, ok := v.(starlark.Int)
	if !ok {
		return 0, errors.Errorf("%s must be an int, got %s", key, v.Type())
	}

	i64, ok := i.Int64()
	if !ok || i64 < 0 || i64 > maxValue {
		return 0, errors.Errorf("%s %s out of range [0, %d]", key, i, maxValue)
	}

	return i64, nil
}
