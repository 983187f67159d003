// Package fixtures provides a small deterministic sign model and recorded
// landmark sessions for tests.
//
// The model only looks at the wrist x coordinate of the first hand: near 0
// it reads "A", around 0.5 "B" and near 1 "C". Points in between fall below
// the confidence gate.
package fixtures

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ayusman/signroute/internal/classifier"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/features"
)

//go:embed sessions/*.jsonl
var sessionsFS embed.FS

// Labels is the label set of Model, in output order.
var Labels = []string{"A", "B", "C"}

// Wrist x positions that the model reads with confidence.
const (
	WristA   = 0.0
	WristB   = 0.5
	WristC   = 1.0
	WristLow = 0.05 // A and B nearly tied
)

// ModelSpec returns the network definition of the fixture model.
func ModelSpec() classifier.DenseSpec {
	row := func(wrist float64) []float64 {
		w := make([]float64, features.Size)
		w[0] = wrist
		return w
	}
	return classifier.DenseSpec{
		InputSize: features.Size,
		Layers: []classifier.LayerSpec{{
			Weights:    [][]float64{row(-10), row(0), row(10)},
			Bias:       []float64{5, 4, -5},
			Activation: classifier.ActivationSoftmax,
		}},
	}
}

// Adapter returns the fixture model bound to Labels.
func Adapter() (*classifier.Adapter, error) {
	model, err := classifier.NewDenseModel(ModelSpec())
	if err != nil {
		return nil, err
	}
	return classifier.New(model, Labels)
}

// WriteModel writes the model and labels files into dir, named the way the
// data directory expects them.
func WriteModel(dir string) (modelPath, labelsPath string, err error) {
	data, err := json.Marshal(ModelSpec())
	if err != nil {
		return "", "", err
	}

	modelPath = filepath.Join(dir, "model.json")
	if err := os.WriteFile(modelPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("write model: %w", err)
	}
	labelsPath = filepath.Join(dir, "labels.txt")
	if err := os.WriteFile(labelsPath, []byte(strings.Join(Labels, "\n")+"\n"), 0644); err != nil {
		return "", "", fmt.Errorf("write labels: %w", err)
	}
	return modelPath, labelsPath, nil
}

// Hand returns a right hand with its wrist at x.
func Hand(x float64) detector.HandLandmarks {
	h := detector.HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[detector.Wrist] = detector.Point3D{X: x, Y: 0.8}
	for i := 1; i < detector.NumLandmarks; i++ {
		h.Points[i] = detector.Point3D{X: 0.5, Y: 0.7 - float64(i-1)*0.02}
	}
	return h
}

// Session returns the raw JSON-lines content of a recorded session.
//
// hello.jsonl: three "A" frames, an empty frame, a low confidence frame,
// then four "B" frames. Replayed through the vote window it decides "A" on
// frame 3 and "B" on frame 9.
func Session(name string) ([]byte, error) {
	data, err := sessionsFS.ReadFile("sessions/" + name)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}
	return data, nil
}

// SessionFrames decodes every line of a recorded session.
func SessionFrames(name string) ([][]detector.HandLandmarks, error) {
	data, err := Session(name)
	if err != nil {
		return nil, err
	}

	var frames [][]detector.HandLandmarks
	for i, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		hands, err := detector.DecodeHands(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, i+1, err)
		}
		frames = append(frames, hands)
	}
	return frames, nil
}
