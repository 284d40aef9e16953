package domain

// ============================================================================
// Tensor Details
// ============================================================================

// QuantizationPair is the legacy per-tensor (scale, zero_point) pair.
type QuantizationPair struct {
	Scale     float32 `json:"scale"`
	ZeroPoint int64   `json:"zero_point"`
}

// QuantizationParameters holds per-axis quantization.
type QuantizationParameters struct {
	Scales             []float32 `json:"scales"`
	ZeroPoints         []int64   `json:"zero_points"`
	QuantizedDimension int32     `json:"quantized_dimension"`
}

// SparsityParameters is empty for dense tensors.
type SparsityParameters struct {
	TraversalOrder []int32 `json:"traversal_order,omitempty"`
	BlockMap       []int32 `json:"block_map,omitempty"`
	DimCount       int     `json:"dim_count,omitempty"`
}

// IsEmpty reports whether the tensor is dense.
func (s SparsityParameters) IsEmpty() bool {
	return len(s.TraversalOrder) == 0 && len(s.BlockMap) == 0 && s.DimCount == 0
}

// TensorDetails describes one input or output tensor of a model.
type TensorDetails struct {
	Name                   string                 `json:"name"`
	Index                  int                    `json:"index"`
	Shape                  []int32                `json:"shape"`
	ShapeSignature         []int32                `json:"shape_signature"`
	DType                  string                 `json:"dtype"`
	Quantization           QuantizationPair       `json:"quantization"`
	QuantizationParameters QuantizationParameters `json:"quantization_parameters"`
	SparsityParameters     SparsityParameters     `json:"sparsity_parameters"`
}

// SignatureDetails lists a signature's named inputs and outputs as tensor indices.
type SignatureDetails struct {
	Key           string         `json:"key"`
	SubgraphIndex int            `json:"subgraph_index"`
	Inputs        map[string]int `json:"inputs"`
	Outputs       map[string]int `json:"outputs"`
}

// ModelSummary is the model-level metadata reported alongside tensor details.
type ModelSummary struct {
	SchemaVersion uint32   `json:"schema_version"`
	Description   string   `json:"description"`
	SubgraphCount int      `json:"subgraph_count"`
	TensorCount   int      `json:"tensor_count"`
	OperatorCount int      `json:"operator_count"`
	BufferCount   int      `json:"buffer_count"`
	Metadata      []string `json:"metadata"`
}

// AllocationPlan is the result of allocating a subgraph's tensors.
type AllocationPlan struct {
	ArenaBytes     int64   `json:"arena_bytes"`
	ConstantBytes  int64   `json:"constant_bytes"`
	DynamicTensors []int   `json:"dynamic_tensors"`
	TensorBytes    []int64 `json:"tensor_bytes"`
}
