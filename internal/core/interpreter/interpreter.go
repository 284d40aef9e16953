// Package interpreter exposes the inspection surface of a TFLite interpreter:
// tensor allocation and input/output tensor details. It never executes a model.
package interpreter

import (
	"errors"
	"fmt"
	"math"

	"tflite-inspector/internal/core/domain"
	"tflite-inspector/internal/tflite"
)

// tensorAlignment matches the TFLite arena's default tensor alignment.
const tensorAlignment = 64

type Option func(*Interpreter)

// WithSubgraph selects the subgraph to inspect. The default is 0.
func WithSubgraph(index int) Option {
	return func(it *Interpreter) {
		it.subgraphIndex = index
	}
}

type Interpreter struct {
	model         *tflite.Model
	subgraphIndex int
	plan          *domain.AllocationPlan
}

func New(model *tflite.Model, opts ...Option) (*Interpreter, error) {
	if model == nil || len(model.Subgraphs) == 0 {
		return nil, domain.ErrNoSubgraphs
	}
	it := &Interpreter{model: model}
	for _, opt := range opts {
		opt(it)
	}
	if it.subgraphIndex < 0 || it.subgraphIndex >= len(model.Subgraphs) {
		return nil, fmt.Errorf("%w: subgraph %d requested, model has %d", domain.ErrInvalidModel, it.subgraphIndex, len(model.Subgraphs))
	}
	return it, nil
}

// LoadFile reads the model at path and builds an interpreter for it.
func LoadFile(path string, maxBytes int64, opts ...Option) (*Interpreter, error) {
	model, _, err := tflite.ReadFile(path, maxBytes)
	if err != nil {
		return nil, translateError(err)
	}
	return New(model, opts...)
}

// LoadBytes parses buf and builds an interpreter for it.
func LoadBytes(buf []byte, opts ...Option) (*Interpreter, error) {
	if len(buf) == 0 {
		return nil, domain.ErrEmptyModel
	}
	model, err := tflite.Parse(buf)
	if err != nil {
		return nil, translateError(err)
	}
	return New(model, opts...)
}

func translateError(err error) error {
	switch {
	case errors.Is(err, tflite.ErrModelTooLarge):
		return fmt.Errorf("%w: %v", domain.ErrModelTooLarge, err)
	case errors.Is(err, tflite.ErrMalformedModel):
		return fmt.Errorf("%w: %v", domain.ErrInvalidModel, err)
	default:
		return err
	}
}

func (it *Interpreter) subgraph() tflite.Subgraph {
	return it.model.Subgraphs[it.subgraphIndex]
}

func (it *Interpreter) Allocated() bool {
	return it.plan != nil
}

// AllocateTensors validates every tensor of the subgraph and plans its storage.
// Repeated calls return the first plan.
func (it *Interpreter) AllocateTensors() (domain.AllocationPlan, error) {
	if it.plan != nil {
		return *it.plan, nil
	}

	sg := it.subgraph()
	plan := domain.AllocationPlan{
		DynamicTensors: []int{},
		TensorBytes:    make([]int64, len(sg.Tensors)),
	}
	for i, t := range sg.Tensors {
		if !t.Type.Known() {
			return domain.AllocationPlan{}, fmt.Errorf("%w: tensor %d (%s) has unsupported type %s", domain.ErrInvalidTensor, i, t.Name, t.Type)
		}
		n, err := numElements(t.Shape)
		if err != nil {
			return domain.AllocationPlan{}, fmt.Errorf("%w: tensor %d (%s): %v", domain.ErrInvalidTensor, i, t.Name, err)
		}
		if t.Type.Dynamic() {
			plan.DynamicTensors = append(plan.DynamicTensors, i)
			continue
		}

		size := t.Type.ByteSize(n)
		plan.TensorBytes[i] = size

		buf := it.model.BufferFor(t)
		if buf.DataLen > 0 {
			if t.Sparsity == nil && buf.DataLen != size {
				return domain.AllocationPlan{}, fmt.Errorf("%w: tensor %d (%s) buffer holds %d bytes, shape needs %d", domain.ErrInvalidTensor, i, t.Name, buf.DataLen, size)
			}
			plan.ConstantBytes += buf.DataLen
			continue
		}
		plan.ArenaBytes += alignUp(size)
	}

	it.plan = &plan
	return plan, nil
}

func numElements(shape []int32) (int64, error) {
	n := int64(1)
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension %d in shape %v", d, shape)
		}
		if d != 0 && n > math.MaxInt64/16/int64(d) {
			return 0, fmt.Errorf("shape %v overflows", shape)
		}
		n *= int64(d)
	}
	return n, nil
}

func alignUp(n int64) int64 {
	return (n + tensorAlignment - 1) / tensorAlignment * tensorAlignment
}

func (it *Interpreter) InputDetails() []domain.TensorDetails {
	return it.details(it.subgraph().Inputs)
}

func (it *Interpreter) OutputDetails() []domain.TensorDetails {
	return it.details(it.subgraph().Outputs)
}

func (it *Interpreter) details(indices []int32) []domain.TensorDetails {
	tensors := it.subgraph().Tensors
	out := make([]domain.TensorDetails, 0, len(indices))
	for _, idx := range indices {
		out = append(out, tensorDetails(int(idx), tensors[idx]))
	}
	return out
}

func tensorDetails(index int, t tflite.Tensor) domain.TensorDetails {
	d := domain.TensorDetails{
		Name:           t.Name,
		Index:          index,
		Shape:          append([]int32{}, t.Shape...),
		ShapeSignature: append([]int32{}, t.ShapeSignature...),
		DType:          t.Type.String(),
		QuantizationParameters: domain.QuantizationParameters{
			Scales:     []float32{},
			ZeroPoints: []int64{},
		},
	}

	if q := t.Quantization; q != nil {
		d.QuantizationParameters.Scales = append(d.QuantizationParameters.Scales, q.Scale...)
		d.QuantizationParameters.ZeroPoints = append(d.QuantizationParameters.ZeroPoints, q.ZeroPoint...)
		d.QuantizationParameters.QuantizedDimension = q.QuantizedDimension
		// The legacy pair only describes per-tensor quantization.
		if len(q.Scale) == 1 && len(q.ZeroPoint) == 1 {
			d.Quantization = domain.QuantizationPair{Scale: q.Scale[0], ZeroPoint: q.ZeroPoint[0]}
		}
	}

	if s := t.Sparsity; s != nil {
		d.SparsityParameters = domain.SparsityParameters{
			TraversalOrder: s.TraversalOrder,
			BlockMap:       s.BlockMap,
			DimCount:       s.DimCount,
		}
	}
	return d
}

// SignatureList returns every signature of the model, whatever its subgraph.
func (it *Interpreter) SignatureList() []domain.SignatureDetails {
	out := make([]domain.SignatureDetails, 0, len(it.model.SignatureDefs))
	for _, sd := range it.model.SignatureDefs {
		sig := domain.SignatureDetails{
			Key:           sd.Key,
			SubgraphIndex: int(sd.SubgraphIndex),
			Inputs:        make(map[string]int, len(sd.Inputs)),
			Outputs:       make(map[string]int, len(sd.Outputs)),
		}
		for _, tm := range sd.Inputs {
			sig.Inputs[tm.Name] = int(tm.TensorIndex)
		}
		for _, tm := range sd.Outputs {
			sig.Outputs[tm.Name] = int(tm.TensorIndex)
		}
		out = append(out, sig)
	}
	return out
}

func (it *Interpreter) Summary() domain.ModelSummary {
	sg := it.subgraph()
	names := make([]string, 0, len(it.model.Metadata))
	for _, m := range it.model.Metadata {
		names = append(names, m.Name)
	}
	return domain.ModelSummary{
		SchemaVersion: it.model.Version,
		Description:   it.model.Description,
		SubgraphCount: len(it.model.Subgraphs),
		TensorCount:   len(sg.Tensors),
		OperatorCount: sg.OperatorCount,
		BufferCount:   len(it.model.Buffers),
		Metadata:      names,
	}
}
