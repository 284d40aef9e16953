package testutil

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"tflite-inspector/internal/tflite"
)

// TensorSpec describes one tensor of a fixture model.
type TensorSpec struct {
	Name               string
	Shape              []int32
	ShapeSignature     []int32
	Type               tflite.TensorType
	Data               []byte // constant payload; stored in its own buffer
	Scales             []float32
	ZeroPoints         []int64
	QuantizedDimension int32
	Sparse             bool
}

// SignatureSpec maps signature names to tensor indices of subgraph 0.
type SignatureSpec struct {
	Key     string
	Inputs  map[string]uint32
	Outputs map[string]uint32
}

// ModelSpec describes a single-subgraph fixture model.
type ModelSpec struct {
	Description string
	Tensors     []TensorSpec
	Inputs      []int32
	Outputs     []int32
	Operators   int
	Signatures  []SignatureSpec
	Metadata    []string
	// ExtraSubgraphs appends empty subgraphs after the primary one.
	ExtraSubgraphs int
	// TensorRepeats lists tensor 0 this many more times at the end of the
	// tensors vector, every entry pointing at the same table.
	TensorRepeats int
}

// BuildModel serializes ms as a TFLite flatbuffer with the TFL3 identifier.
func BuildModel(ms ModelSpec) []byte {
	b := flatbuffers.NewBuilder(1024)

	// Buffer 0 is the empty sentinel; constant tensors get buffers 1..n.
	bufferOffsets := []flatbuffers.UOffsetT{emptyTable(b, 3)}
	bufferIndex := make([]uint32, len(ms.Tensors))
	for i, ts := range ms.Tensors {
		if ts.Data == nil {
			continue
		}
		data := b.CreateByteVector(ts.Data)
		b.StartObject(3)
		b.PrependUOffsetTSlot(0, data, 0)
		bufferOffsets = append(bufferOffsets, b.EndObject())
		bufferIndex[i] = uint32(len(bufferOffsets) - 1)
	}

	tensorOffsets := make([]flatbuffers.UOffsetT, len(ms.Tensors))
	for i, ts := range ms.Tensors {
		tensorOffsets[i] = buildTensor(b, ts, bufferIndex[i])
	}
	for i := 0; i < ms.TensorRepeats; i++ {
		tensorOffsets = append(tensorOffsets, tensorOffsets[0])
	}

	operatorOffsets := make([]flatbuffers.UOffsetT, ms.Operators)
	for i := range operatorOffsets {
		operatorOffsets[i] = emptyTable(b, 1)
	}

	tensors := offsetVector(b, tensorOffsets)
	inputs := int32Vector(b, ms.Inputs)
	outputs := int32Vector(b, ms.Outputs)
	operators := offsetVector(b, operatorOffsets)
	name := b.CreateString("main")
	b.StartObject(5)
	b.PrependUOffsetTSlot(0, tensors, 0)
	b.PrependUOffsetTSlot(1, inputs, 0)
	b.PrependUOffsetTSlot(2, outputs, 0)
	b.PrependUOffsetTSlot(3, operators, 0)
	b.PrependUOffsetTSlot(4, name, 0)
	subgraphOffsets := []flatbuffers.UOffsetT{b.EndObject()}
	for i := 0; i < ms.ExtraSubgraphs; i++ {
		subgraphOffsets = append(subgraphOffsets, emptyTable(b, 5))
	}

	signatureOffsets := make([]flatbuffers.UOffsetT, 0, len(ms.Signatures))
	for _, sig := range ms.Signatures {
		in := offsetVector(b, tensorMaps(b, sig.Inputs))
		out := offsetVector(b, tensorMaps(b, sig.Outputs))
		key := b.CreateString(sig.Key)
		b.StartObject(5)
		b.PrependUOffsetTSlot(0, in, 0)
		b.PrependUOffsetTSlot(1, out, 0)
		b.PrependUOffsetTSlot(2, key, 0)
		signatureOffsets = append(signatureOffsets, b.EndObject())
	}

	metadataOffsets := make([]flatbuffers.UOffsetT, 0, len(ms.Metadata))
	for _, m := range ms.Metadata {
		mn := b.CreateString(m)
		b.StartObject(2)
		b.PrependUOffsetTSlot(0, mn, 0)
		metadataOffsets = append(metadataOffsets, b.EndObject())
	}

	subgraphs := offsetVector(b, subgraphOffsets)
	buffers := offsetVector(b, bufferOffsets)
	signatures := offsetVector(b, signatureOffsets)
	metadata := offsetVector(b, metadataOffsets)
	description := b.CreateString(ms.Description)

	b.StartObject(8)
	b.PrependUint32Slot(0, 3, 0)
	b.PrependUOffsetTSlot(2, subgraphs, 0)
	b.PrependUOffsetTSlot(3, description, 0)
	b.PrependUOffsetTSlot(4, buffers, 0)
	b.PrependUOffsetTSlot(6, metadata, 0)
	b.PrependUOffsetTSlot(7, signatures, 0)
	model := b.EndObject()

	b.FinishWithFileIdentifier(model, []byte(tflite.FileIdentifier))
	return b.FinishedBytes()
}

// SimpleModel is a float32 model with one [1,16000] input and one [1,3] output,
// in the shape of a small audio classifier.
func SimpleModel() []byte {
	return BuildModel(ModelSpec{
		Description: "fixture",
		Tensors: []TensorSpec{
			{Name: "serving_default_input:0", Shape: []int32{1, 16000}, ShapeSignature: []int32{-1, 16000}, Type: tflite.TensorTypeFloat32},
			{Name: "StatefulPartitionedCall:0", Shape: []int32{1, 3}, Type: tflite.TensorTypeFloat32},
		},
		Inputs:    []int32{0},
		Outputs:   []int32{1},
		Operators: 2,
		Signatures: []SignatureSpec{{
			Key:     "serving_default",
			Inputs:  map[string]uint32{"input": 0},
			Outputs: map[string]uint32{"output_0": 1},
		}},
		Metadata: []string{"min_runtime_version"},
	})
}

func buildTensor(b *flatbuffers.Builder, ts TensorSpec, buffer uint32) flatbuffers.UOffsetT {
	name := b.CreateString(ts.Name)
	shape := int32Vector(b, ts.Shape)
	var signature flatbuffers.UOffsetT
	if ts.ShapeSignature != nil {
		signature = int32Vector(b, ts.ShapeSignature)
	}

	var quant flatbuffers.UOffsetT
	if ts.Scales != nil || ts.ZeroPoints != nil {
		scales := float32Vector(b, ts.Scales)
		zeroPoints := int64Vector(b, ts.ZeroPoints)
		b.StartObject(7)
		b.PrependUOffsetTSlot(2, scales, 0)
		b.PrependUOffsetTSlot(3, zeroPoints, 0)
		b.PrependInt32Slot(6, ts.QuantizedDimension, 0)
		quant = b.EndObject()
	}

	var sparsity flatbuffers.UOffsetT
	if ts.Sparse {
		order := int32Vector(b, []int32{0, 1})
		b.StartObject(3)
		b.PrependUOffsetTSlot(0, order, 0)
		sparsity = b.EndObject()
	}

	b.StartObject(8)
	b.PrependUOffsetTSlot(0, shape, 0)
	b.PrependInt8Slot(1, int8(ts.Type), 0)
	b.PrependUint32Slot(2, buffer, 0)
	b.PrependUOffsetTSlot(3, name, 0)
	b.PrependUOffsetTSlot(4, quant, 0)
	b.PrependUOffsetTSlot(6, sparsity, 0)
	b.PrependUOffsetTSlot(7, signature, 0)
	return b.EndObject()
}

func tensorMaps(b *flatbuffers.Builder, m map[string]uint32) []flatbuffers.UOffsetT {
	out := make([]flatbuffers.UOffsetT, 0, len(m))
	for name, idx := range m {
		n := b.CreateString(name)
		b.StartObject(2)
		b.PrependUOffsetTSlot(0, n, 0)
		b.PrependUint32Slot(1, idx, 0)
		out = append(out, b.EndObject())
	}
	return out
}

func emptyTable(b *flatbuffers.Builder, fields int) flatbuffers.UOffsetT {
	b.StartObject(fields)
	return b.EndObject()
}

func offsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func int32Vector(b *flatbuffers.Builder, vals []int32) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeInt32, len(vals), flatbuffers.SizeInt32)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependInt32(vals[i])
	}
	return b.EndVector(len(vals))
}

func int64Vector(b *flatbuffers.Builder, vals []int64) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeInt64, len(vals), flatbuffers.SizeInt64)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependInt64(vals[i])
	}
	return b.EndVector(len(vals))
}

func float32Vector(b *flatbuffers.Builder, vals []float32) flatbuffers.UOffsetT {
	b.StartVector(flatbuffers.SizeFloat32, len(vals), flatbuffers.SizeFloat32)
	for i := len(vals) - 1; i >= 0; i-- {
		b.PrependFloat32(vals[i])
	}
	return b.EndVector(len(vals))
}
