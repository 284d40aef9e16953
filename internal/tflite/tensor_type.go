package tflite

import "fmt"

// TensorType mirrors the TensorType enum of the TFLite schema.
type TensorType int8

const (
	TensorTypeFloat32    TensorType = 0
	TensorTypeFloat16    TensorType = 1
	TensorTypeInt32      TensorType = 2
	TensorTypeUint8      TensorType = 3
	TensorTypeInt64      TensorType = 4
	TensorTypeString     TensorType = 5
	TensorTypeBool       TensorType = 6
	TensorTypeInt16      TensorType = 7
	TensorTypeComplex64  TensorType = 8
	TensorTypeInt8       TensorType = 9
	TensorTypeFloat64    TensorType = 10
	TensorTypeComplex128 TensorType = 11
	TensorTypeUint64     TensorType = 12
	TensorTypeResource   TensorType = 13
	TensorTypeVariant    TensorType = 14
	TensorTypeUint32     TensorType = 15
	TensorTypeUint16     TensorType = 16
	TensorTypeInt4       TensorType = 17
	TensorTypeBfloat16   TensorType = 18
)

type typeInfo struct {
	name     string
	elemSize int
	dynamic  bool
}

var typeInfos = map[TensorType]typeInfo{
	TensorTypeFloat32:    {"float32", 4, false},
	TensorTypeFloat16:    {"float16", 2, false},
	TensorTypeInt32:      {"int32", 4, false},
	TensorTypeUint8:      {"uint8", 1, false},
	TensorTypeInt64:      {"int64", 8, false},
	TensorTypeString:     {"string", 0, true},
	TensorTypeBool:       {"bool", 1, false},
	TensorTypeInt16:      {"int16", 2, false},
	TensorTypeComplex64:  {"complex64", 8, false},
	TensorTypeInt8:       {"int8", 1, false},
	TensorTypeFloat64:    {"float64", 8, false},
	TensorTypeComplex128: {"complex128", 16, false},
	TensorTypeUint64:     {"uint64", 8, false},
	TensorTypeResource:   {"resource", 0, true},
	TensorTypeVariant:    {"variant", 0, true},
	TensorTypeUint32:     {"uint32", 4, false},
	TensorTypeUint16:     {"uint16", 2, false},
	TensorTypeInt4:       {"int4", 1, false},
	TensorTypeBfloat16:   {"bfloat16", 2, false},
}

// Known reports whether t is a type this reader understands.
func (t TensorType) Known() bool {
	_, ok := typeInfos[t]
	return ok
}

// String returns the dtype name, e.g. "float32".
func (t TensorType) String() string {
	if info, ok := typeInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("unknown(%d)", int8(t))
}

// Dynamic reports whether tensors of this type have no fixed byte size.
func (t TensorType) Dynamic() bool {
	return typeInfos[t].dynamic
}

// ByteSize returns the storage needed for numElements values of this type.
// INT4 values are packed two per byte.
func (t TensorType) ByteSize(numElements int64) int64 {
	if t == TensorTypeInt4 {
		return (numElements + 1) / 2
	}
	return numElements * int64(typeInfos[t].elemSize)
}
