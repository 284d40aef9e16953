// Package report renders tensor details for people (text) and tools (JSON).
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"tflite-inspector/internal/core/domain"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Report struct {
	Model      string                    `json:"model"`
	Summary    domain.ModelSummary       `json:"summary"`
	Allocation domain.AllocationPlan     `json:"allocation"`
	Inputs     []domain.TensorDetails    `json:"inputs"`
	Outputs    []domain.TensorDetails    `json:"outputs"`
	Signatures []domain.SignatureDetails `json:"signatures"`
}

// Write renders r in the given format.
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case FormatJSON:
		return JSON(w, r)
	case FormatText, "":
		return Text(w, r.Inputs, r.Outputs)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Text prints the input and output details the way the classic shape-checker does.
func Text(w io.Writer, inputs, outputs []domain.TensorDetails) error {
	if _, err := fmt.Fprintln(w, "Input shape :\n", formatDetailsList(inputs)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "Output shape: \n", formatDetailsList(outputs))
	return err
}

func JSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func formatDetailsList(details []domain.TensorDetails) string {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, FormatDetails(d))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// numpyType maps a tensor type name to the numpy scalar type that holds it.
func numpyType(dtype string) string {
	switch dtype {
	case "bool":
		return "bool_"
	case "string":
		return "bytes_"
	case "resource", "variant":
		return "object_"
	default:
		return dtype
	}
}

// FormatDetails renders one tensor's details as a dict literal.
func FormatDetails(d domain.TensorDetails) string {
	var b strings.Builder
	b.WriteString("{")
	fmt.Fprintf(&b, "'name': %s, ", quote(d.Name))
	fmt.Fprintf(&b, "'index': %d, ", d.Index)
	fmt.Fprintf(&b, "'shape': %s, ", intArray(d.Shape))
	fmt.Fprintf(&b, "'shape_signature': %s, ", intArray(d.ShapeSignature))
	fmt.Fprintf(&b, "'dtype': <class 'numpy.%s'>, ", numpyType(d.DType))
	fmt.Fprintf(&b, "'quantization': (%s, %d), ", formatFloat(d.Quantization.Scale), d.Quantization.ZeroPoint)
	fmt.Fprintf(&b, "'quantization_parameters': {'scales': %s, 'zero_points': %s, 'quantized_dimension': %d}, ",
		floatArray(d.QuantizationParameters.Scales),
		int64Array(d.QuantizationParameters.ZeroPoints),
		d.QuantizationParameters.QuantizedDimension)
	fmt.Fprintf(&b, "'sparsity_parameters': %s", formatSparsity(d.SparsityParameters))
	b.WriteString("}")
	return b.String()
}

func formatSparsity(s domain.SparsityParameters) string {
	if s.IsEmpty() {
		return "{}"
	}
	return fmt.Sprintf("{'traversal_order': %s, 'block_map': %s, 'dim_metadata': %d}",
		intArray(s.TraversalOrder), intArray(s.BlockMap), s.DimCount)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}

func intArray(vals []int32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return "array([" + strings.Join(parts, ", ") + "], dtype=int32)"
}

func int64Array(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "array([" + strings.Join(parts, ", ") + "], dtype=int32)"
}

func floatArray(vals []float32) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatFloat(v)
	}
	return "array([" + strings.Join(parts, ", ") + "], dtype=float32)"
}

// formatFloat prints the shortest float32 representation, always with a decimal point.
func formatFloat(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "nan"
	case math.IsInf(float64(f), 1):
		return "inf"
	case math.IsInf(float64(f), -1):
		return "-inf"
	}
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
