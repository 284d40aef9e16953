package tflite

import (
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// decodeBudgetFactor bounds the bytes decoded from a model to this multiple of
// its size. Tables and vectors may be shared by any number of references.
const decodeBudgetFactor = 4

// tableCost is charged for every table decoded into a struct.
const tableCost = 16

// table wraps a flatbuffers table and addresses fields by their schema index.
// Out-of-range reads and an exhausted budget panic; Parse recovers them into
// ErrMalformedModel.
type table struct {
	tab    flatbuffers.Table
	budget *int64
}

func rootTable(buf []byte) table {
	n := flatbuffers.GetUOffsetT(buf)
	budget := int64(len(buf)) * decodeBudgetFactor
	return table{tab: flatbuffers.Table{Bytes: buf, Pos: n}, budget: &budget}
}

func (t table) at(pos flatbuffers.UOffsetT) table {
	return table{tab: flatbuffers.Table{Bytes: t.tab.Bytes, Pos: pos}, budget: t.budget}
}

// charge accounts for n bytes about to be copied out of the buffer.
func (t table) charge(n int64) {
	*t.budget -= n
	if *t.budget < 0 {
		panic(fmt.Sprintf("decoded size exceeds %dx the model size", decodeBudgetFactor))
	}
}

// slot returns the field's offset relative to the table start, or 0 when absent.
func (t table) slot(field int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.tab.Offset(flatbuffers.VOffsetT(4 + 2*field)))
}

func (t table) uint32(field int, def uint32) uint32 {
	if o := t.slot(field); o != 0 {
		return t.tab.GetUint32(o + t.tab.Pos)
	}
	return def
}

func (t table) int32(field int, def int32) int32 {
	if o := t.slot(field); o != 0 {
		return t.tab.GetInt32(o + t.tab.Pos)
	}
	return def
}

func (t table) int8(field int, def int8) int8 {
	if o := t.slot(field); o != 0 {
		return t.tab.GetInt8(o + t.tab.Pos)
	}
	return def
}

func (t table) uint64(field int, def uint64) uint64 {
	if o := t.slot(field); o != 0 {
		return t.tab.GetUint64(o + t.tab.Pos)
	}
	return def
}

func (t table) bool(field int) bool {
	if o := t.slot(field); o != 0 {
		return t.tab.GetBool(o + t.tab.Pos)
	}
	return false
}

func (t table) string(field int) string {
	if o := t.slot(field); o != 0 {
		b := t.tab.ByteVector(o + t.tab.Pos)
		t.charge(int64(len(b)))
		return string(b)
	}
	return ""
}

func (t table) child(field int) (table, bool) {
	o := t.slot(field)
	if o == 0 {
		return table{}, false
	}
	t.charge(tableCost)
	return t.at(t.tab.Indirect(o + t.tab.Pos)), true
}

// vector returns the start and length of a vector field after checking that
// length*elemSize bytes fit in the buffer. It does not charge the budget;
// callers that copy elements do.
func (t table) vector(field int, elemSize int) (flatbuffers.UOffsetT, int) {
	o := t.slot(field)
	if o == 0 {
		return 0, 0
	}
	n := t.tab.VectorLen(o)
	start := t.tab.Vector(o)
	if n < 0 || int64(start)+int64(n)*int64(elemSize) > int64(len(t.tab.Bytes)) {
		panic(fmt.Sprintf("vector field %d overruns buffer", field))
	}
	return start, n
}

func (t table) vectorLen(field int) int {
	_, n := t.vector(field, flatbuffers.SizeUOffsetT)
	return n
}

func (t table) tables(field int) []table {
	start, n := t.vector(field, flatbuffers.SizeUOffsetT)
	t.charge(int64(n) * tableCost)
	out := make([]table, n)
	for i := 0; i < n; i++ {
		out[i] = t.at(t.tab.Indirect(start + flatbuffers.UOffsetT(i*flatbuffers.SizeUOffsetT)))
	}
	return out
}

func (t table) int32s(field int) []int32 {
	start, n := t.vector(field, flatbuffers.SizeInt32)
	if n == 0 {
		return nil
	}
	t.charge(int64(n) * flatbuffers.SizeInt32)
	out := make([]int32, n)
	for i := range out {
		out[i] = t.tab.GetInt32(start + flatbuffers.UOffsetT(i*flatbuffers.SizeInt32))
	}
	return out
}

func (t table) float32s(field int) []float32 {
	start, n := t.vector(field, flatbuffers.SizeFloat32)
	if n == 0 {
		return nil
	}
	t.charge(int64(n) * flatbuffers.SizeFloat32)
	out := make([]float32, n)
	for i := range out {
		out[i] = t.tab.GetFloat32(start + flatbuffers.UOffsetT(i*flatbuffers.SizeFloat32))
	}
	return out
}

func (t table) int64s(field int) []int64 {
	start, n := t.vector(field, flatbuffers.SizeInt64)
	if n == 0 {
		return nil
	}
	t.charge(int64(n) * flatbuffers.SizeInt64)
	out := make([]int64, n)
	for i := range out {
		out[i] = t.tab.GetInt64(start + flatbuffers.UOffsetT(i*flatbuffers.SizeInt64))
	}
	return out
}
