package tflite

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// FileIdentifier is the flatbuffer file identifier of TFLite schema v3 models.
const FileIdentifier = "TFL3"

var (
	ErrMalformedModel = errors.New("malformed tflite model")
	ErrModelTooLarge  = errors.New("tflite model exceeds size limit")
)

// Schema field indices, in declaration order of schema.fbs.
const (
	modelVersion       = 0
	modelSubgraphs     = 2
	modelDescription   = 3
	modelBuffers       = 4
	modelMetadata      = 6
	modelSignatureDefs = 7

	subgraphTensors   = 0
	subgraphInputs    = 1
	subgraphOutputs   = 2
	subgraphOperators = 3
	subgraphName      = 4

	tensorShape          = 0
	tensorType           = 1
	tensorBuffer         = 2
	tensorName           = 3
	tensorQuantization   = 4
	tensorIsVariable     = 5
	tensorSparsity       = 6
	tensorShapeSignature = 7

	quantMin                = 0
	quantMax                = 1
	quantScale              = 2
	quantZeroPoint          = 3
	quantQuantizedDimension = 6

	sparsityTraversalOrder = 0
	sparsityBlockMap       = 1
	sparsityDimMetadata    = 2

	bufferData   = 0
	bufferOffset = 1
	bufferSize   = 2

	metadataName   = 0
	metadataBuffer = 1

	signatureInputs        = 0
	signatureOutputs       = 1
	signatureKey           = 2
	signatureSubgraphIndex = 4

	tensorMapName  = 0
	tensorMapIndex = 1
)

type Model struct {
	Version       uint32
	Description   string
	Subgraphs     []Subgraph
	Buffers       []Buffer
	Metadata      []Metadata
	SignatureDefs []SignatureDef
}

type Subgraph struct {
	Name          string
	Tensors       []Tensor
	Inputs        []int32
	Outputs       []int32
	OperatorCount int
}

type Tensor struct {
	Name           string
	Shape          []int32
	ShapeSignature []int32
	Type           TensorType
	Buffer         uint32
	Quantization   *Quantization
	Sparsity       *Sparsity
	IsVariable     bool
}

type Quantization struct {
	Min                []float32
	Max                []float32
	Scale              []float32
	ZeroPoint          []int64
	QuantizedDimension int32
}

type Sparsity struct {
	TraversalOrder []int32
	BlockMap       []int32
	DimCount       int
}

// Buffer records only the size of a buffer's payload; tensor data is never copied.
type Buffer struct {
	DataLen  int64
	External bool
}

type Metadata struct {
	Name   string
	Buffer uint32
}

type SignatureDef struct {
	Key           string
	SubgraphIndex uint32
	Inputs        []TensorMap
	Outputs       []TensorMap
}

type TensorMap struct {
	Name        string
	TensorIndex uint32
}

// Parse decodes a TFLite flatbuffer. It never panics on malformed input.
func Parse(buf []byte) (m *Model, err error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrMalformedModel, len(buf))
	}
	if string(buf[4:8]) != FileIdentifier {
		return nil, fmt.Errorf("%w: file identifier %q, want %q", ErrMalformedModel, buf[4:8], FileIdentifier)
	}

	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("%w: %v", ErrMalformedModel, r)
		}
	}()

	m = decodeModel(rootTable(buf))
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadFile reads and parses the model at path, rejecting files over maxBytes.
// A maxBytes of zero or less disables the limit.
func ReadFile(path string, maxBytes int64) (*Model, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	buf, err := ReadAll(f, maxBytes)
	if err != nil {
		return nil, nil, err
	}
	m, err := Parse(buf)
	if err != nil {
		return nil, nil, err
	}
	return m, buf, nil
}

// ReadAll reads r to EOF, failing with ErrModelTooLarge past maxBytes.
func ReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read model: %w", err)
		}
		return buf, nil
	}
	buf, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	if int64(len(buf)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrModelTooLarge, maxBytes)
	}
	return buf, nil
}

func decodeModel(t table) *Model {
	m := &Model{
		Version:     t.uint32(modelVersion, 0),
		Description: t.string(modelDescription),
	}
	for _, st := range t.tables(modelSubgraphs) {
		m.Subgraphs = append(m.Subgraphs, decodeSubgraph(st))
	}
	for _, bt := range t.tables(modelBuffers) {
		m.Buffers = append(m.Buffers, decodeBuffer(bt))
	}
	for _, mt := range t.tables(modelMetadata) {
		m.Metadata = append(m.Metadata, Metadata{
			Name:   mt.string(metadataName),
			Buffer: mt.uint32(metadataBuffer, 0),
		})
	}
	for _, dt := range t.tables(modelSignatureDefs) {
		m.SignatureDefs = append(m.SignatureDefs, SignatureDef{
			Key:           dt.string(signatureKey),
			SubgraphIndex: dt.uint32(signatureSubgraphIndex, 0),
			Inputs:        decodeTensorMaps(dt.tables(signatureInputs)),
			Outputs:       decodeTensorMaps(dt.tables(signatureOutputs)),
		})
	}
	return m
}

func decodeSubgraph(t table) Subgraph {
	sg := Subgraph{
		Name:          t.string(subgraphName),
		Inputs:        t.int32s(subgraphInputs),
		Outputs:       t.int32s(subgraphOutputs),
		OperatorCount: t.vectorLen(subgraphOperators),
	}
	for _, tt := range t.tables(subgraphTensors) {
		sg.Tensors = append(sg.Tensors, decodeTensor(tt))
	}
	return sg
}

func decodeTensor(t table) Tensor {
	ts := Tensor{
		Name:       t.string(tensorName),
		Shape:      t.int32s(tensorShape),
		Type:       TensorType(t.int8(tensorType, 0)),
		Buffer:     t.uint32(tensorBuffer, 0),
		IsVariable: t.bool(tensorIsVariable),
	}
	if ts.Shape == nil {
		ts.Shape = []int32{}
	}
	ts.ShapeSignature = t.int32s(tensorShapeSignature)
	if ts.ShapeSignature == nil {
		ts.ShapeSignature = ts.Shape
	}
	if qt, ok := t.child(tensorQuantization); ok {
		ts.Quantization = &Quantization{
			Min:                qt.float32s(quantMin),
			Max:                qt.float32s(quantMax),
			Scale:              qt.float32s(quantScale),
			ZeroPoint:          qt.int64s(quantZeroPoint),
			QuantizedDimension: qt.int32(quantQuantizedDimension, 0),
		}
	}
	if st, ok := t.child(tensorSparsity); ok {
		ts.Sparsity = &Sparsity{
			TraversalOrder: st.int32s(sparsityTraversalOrder),
			BlockMap:       st.int32s(sparsityBlockMap),
			DimCount:       st.vectorLen(sparsityDimMetadata),
		}
	}
	return ts
}

func decodeBuffer(t table) Buffer {
	_, n := t.vector(bufferData, 1)
	if n > 0 {
		return Buffer{DataLen: int64(n)}
	}
	// Models over 2GB keep payloads after the flatbuffer; offset 1 marks an empty buffer.
	if off := t.uint64(bufferOffset, 0); off > 1 {
		return Buffer{DataLen: int64(t.uint64(bufferSize, 0)), External: true}
	}
	return Buffer{}
}

func decodeTensorMaps(ts []table) []TensorMap {
	out := make([]TensorMap, 0, len(ts))
	for _, t := range ts {
		out = append(out, TensorMap{
			Name:        t.string(tensorMapName),
			TensorIndex: t.uint32(tensorMapIndex, 0),
		})
	}
	return out
}

func (m *Model) validate() error {
	for si, sg := range m.Subgraphs {
		n := int32(len(sg.Tensors))
		for _, idx := range sg.Inputs {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: subgraph %d input index %d out of range", ErrMalformedModel, si, idx)
			}
		}
		for _, idx := range sg.Outputs {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: subgraph %d output index %d out of range", ErrMalformedModel, si, idx)
			}
		}
		for ti, t := range sg.Tensors {
			if t.Buffer != 0 && int(t.Buffer) >= len(m.Buffers) {
				return fmt.Errorf("%w: tensor %d references buffer %d of %d", ErrMalformedModel, ti, t.Buffer, len(m.Buffers))
			}
		}
	}
	for _, sd := range m.SignatureDefs {
		if int(sd.SubgraphIndex) >= len(m.Subgraphs) {
			return fmt.Errorf("%w: signature %q references subgraph %d", ErrMalformedModel, sd.Key, sd.SubgraphIndex)
		}
	}
	return nil
}

// BufferFor returns the buffer a tensor points at, or a zero Buffer if none.
func (m *Model) BufferFor(t Tensor) Buffer {
	if int(t.Buffer) < len(m.Buffers) {
		return m.Buffers[t.Buffer]
	}
	return Buffer{}
}
