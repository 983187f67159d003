// Package classifier adapts an opaque numeric model to the sign label set.
package classifier

import (
	"errors"
	"fmt"

	"github.com/ayusman/signroute/internal/features"
)

var (
	// ErrModelNotLoaded is returned when classification is attempted without a model.
	ErrModelNotLoaded = errors.New("classifier model not loaded")
	// ErrInputShape is returned when the model does not accept a features.Vector.
	ErrInputShape = errors.New("model input shape mismatch")
	// ErrOutputShape is returned when the model output is not aligned to the labels.
	ErrOutputShape = errors.New("model output shape mismatch")
	// ErrNoLabels is returned when the label set is empty.
	ErrNoLabels = errors.New("label set is empty")
)

// Model is a pre-trained function from the feature vector to one score per label.
type Model interface {
	// InputSize is the number of values Run expects.
	InputSize() int
	// Run evaluates the model. The returned slice is owned by the caller.
	Run(input []float32) ([]float32, error)
}

// Distribution is one score per label, aligned to the label set.
// Scores are comparable but not guaranteed to sum to 1.
type Distribution []float32

// Argmax returns the index and value of the highest score. On ties the
// lowest index wins. An empty distribution returns -1.
func (d Distribution) Argmax() (int, float32) {
	best := -1
	var bestVal float32
	for i, p := range d {
		if best < 0 || p > bestVal {
			best = i
			bestVal = p
		}
	}
	return best, bestVal
}

// Adapter runs feature vectors through a Model and returns label-aligned
// distributions. It is read-only after construction.
type Adapter struct {
	model  Model
	labels []string
}

// New binds a model to its label set.
func New(model Model, labels []string) (*Adapter, error) {
	if model == nil {
		return nil, ErrModelNotLoaded
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	if n := model.InputSize(); n != features.Size {
		return nil, fmt.Errorf("%w: model expects %d values, encoder produces %d", ErrInputShape, n, features.Size)
	}
	if sized, ok := model.(interface{ OutputSize() int }); ok && sized.OutputSize() != len(labels) {
		return nil, fmt.Errorf("%w: model has %d outputs for %d labels", ErrOutputShape, sized.OutputSize(), len(labels))
	}

	return &Adapter{
		model:  model,
		labels: append([]string(nil), labels...),
	}, nil
}

// Load reads a dense model and its labels file from disk.
func Load(modelPath, labelsPath string) (*Adapter, error) {
	model, err := LoadDenseModelFile(modelPath)
	if err != nil {
		return nil, err
	}
	labels, err := LoadLabelsFile(labelsPath)
	if err != nil {
		return nil, err
	}
	return New(model, labels)
}

// Classify runs v through the model.
func (a *Adapter) Classify(v features.Vector) (Distribution, error) {
	if a == nil || a.model == nil {
		return nil, ErrModelNotLoaded
	}
	if n := a.model.InputSize(); n != len(v) {
		return nil, fmt.Errorf("%w: model expects %d values, got %d", ErrInputShape, n, len(v))
	}

	out, err := a.model.Run(v[:])
	if err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	if len(out) != len(a.labels) {
		return nil, fmt.Errorf("%w: %d scores for %d labels", ErrOutputShape, len(out), len(a.labels))
	}

	return Distribution(out), nil
}

// Labels returns a copy of the label set.
func (a *Adapter) Labels() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.labels...)
}

// FuncModel adapts a plain function to Model. Useful for fakes.
type FuncModel struct {
	Size int
	Fn   func(input []float32) ([]float32, error)
}

// InputSize implements Model.
func (m FuncModel) InputSize() int { return m.Size }

// Run implements Model.
func (m FuncModel) Run(input []float32) ([]float32, error) { return m.Fn(input) }

// Constant returns a FuncModel that always yields scores.
func Constant(scores ...float32) FuncModel {
	return FuncModel{
		Size: features.Size,
		Fn: func([]float32) ([]float32, error) {
			return append([]float32(nil), scores...), nil
		},
	}
}
