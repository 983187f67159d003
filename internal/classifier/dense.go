package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Supported layer activations.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSoftmax = "softmax"
)

// DenseSpec is the JSON form of a feed-forward network exported from the
// training notebook. Weights are row-major, one row per output unit.
type DenseSpec struct {
	InputSize int         `json:"input_size"`
	Layers    []LayerSpec `json:"layers"`
}

// LayerSpec describes one fully connected layer.
type LayerSpec struct {
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
	Activation string      `json:"activation"`
}

type denseLayer struct {
	weights    *mat.Dense
	bias       *mat.VecDense
	activation string
}

// DenseModel evaluates a stack of fully connected layers.
type DenseModel struct {
	inputSize int
	layers    []denseLayer
}

// NewDenseModel validates spec and builds the model.
func NewDenseModel(spec DenseSpec) (*DenseModel, error) {
	if spec.InputSize <= 0 {
		return nil, errors.New("dense model: input_size must be positive")
	}
	if len(spec.Layers) == 0 {
		return nil, errors.New("dense model: no layers")
	}

	m := &DenseModel{inputSize: spec.InputSize}
	in := spec.InputSize
	for i, l := range spec.Layers {
		rows := len(l.Weights)
		if rows == 0 {
			return nil, fmt.Errorf("dense model: layer %d has no units", i)
		}
		if len(l.Bias) != rows {
			return nil, fmt.Errorf("dense model: layer %d has %d biases for %d units", i, len(l.Bias), rows)
		}

		flat := make([]float64, 0, rows*in)
		for r, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("dense model: layer %d row %d has %d weights, want %d", i, r, len(row), in)
			}
			flat = append(flat, row...)
		}

		act := l.Activation
		switch act {
		case "":
			act = ActivationLinear
		case ActivationLinear, ActivationReLU, ActivationSoftmax:
		default:
			return nil, fmt.Errorf("dense model: layer %d has unknown activation %q", i, l.Activation)
		}

		m.layers = append(m.layers, denseLayer{
			weights:    mat.NewDense(rows, in, flat),
			bias:       mat.NewVecDense(rows, append([]float64(nil), l.Bias...)),
			activation: act,
		})
		in = rows
	}

	return m, nil
}

// LoadDenseModel decodes a DenseSpec from r.
func LoadDenseModel(r io.Reader) (*DenseModel, error) {
	var spec DenseSpec
	if err := json.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode dense model: %w", err)
	}
	return NewDenseModel(spec)
}

// LoadDenseModelFile reads a DenseSpec file from disk.
func LoadDenseModelFile(path string) (*DenseModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	return LoadDenseModel(f)
}

// InputSize implements Model.
func (m *DenseModel) InputSize() int { return m.inputSize }

// OutputSize is the number of units in the final layer.
func (m *DenseModel) OutputSize() int {
	rows, _ := m.layers[len(m.layers)-1].weights.Dims()
	return rows
}

// Run implements Model.
func (m *DenseModel) Run(input []float32) ([]float32, error) {
	if len(input) != m.inputSize {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInputShape, len(input), m.inputSize)
	}

	data := make([]float64, len(input))
	for i, v := range input {
		data[i] = float64(v)
	}
	x := mat.NewVecDense(len(data), data)

	for _, l := range m.layers {
		rows, _ := l.weights.Dims()
		y := mat.NewVecDense(rows, nil)
		y.MulVec(l.weights, x)
		y.AddVec(y, l.bias)
		activate(l.activation, y.RawVector().Data)
		x = y
	}

	raw := x.RawVector().Data
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v)
	}
	return out, nil
}

func activate(kind string, v []float64) {
	switch kind {
	case ActivationReLU:
		for i, x := range v {
			if x < 0 {
				v[i] = 0
			}
		}
	case ActivationSoftmax:
		peak := math.Inf(-1)
		for _, x := range v {
			if x > peak {
				peak = x
			}
		}
		var sum float64
		for i, x := range v {
			v[i] = math.Exp(x - peak)
			sum += v[i]
		}
		for i := range v {
			v[i] /= sum
		}
	}
}
