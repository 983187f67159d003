package fixtures

import (
	"testing"

	"github.com/ayusman/signroute/internal/classifier"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/features"
)

func TestAdapter_Readings(t *testing.T) {
	a, err := Adapter()
	if err != nil {
		t.Fatalf("Adapter() error = %v", err)
	}

	tests := []struct {
		name      string
		wrist     float64
		wantIndex int
		confident bool
	}{
		{"A", WristA, 0, true},
		{"B", WristB, 1, true},
		{"C", WristC, 2, true},
		{"low", WristLow, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, err := a.Classify(features.Encode([]detector.HandLandmarks{Hand(tt.wrist)}))
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			idx, conf := dist.Argmax()
			if idx != tt.wantIndex {
				t.Errorf("Argmax() index = %d, want %d", idx, tt.wantIndex)
			}
			if got := conf >= 0.70; got != tt.confident {
				t.Errorf("confidence %f, confident = %v, want %v", conf, got, tt.confident)
			}
		})
	}
}

func TestWriteModel(t *testing.T) {
	modelPath, labelsPath, err := WriteModel(t.TempDir())
	if err != nil {
		t.Fatalf("WriteModel() error = %v", err)
	}

	a, err := classifier.Load(modelPath, labelsPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := a.Labels(); len(got) != len(Labels) {
		t.Errorf("Labels() = %v, want %v", got, Labels)
	}
}

func TestSessionFrames(t *testing.T) {
	frames, err := SessionFrames("hello.jsonl")
	if err != nil {
		t.Fatalf("SessionFrames() error = %v", err)
	}
	if len(frames) != 9 {
		t.Fatalf("got %d frames, want 9", len(frames))
	}
	if len(frames[3]) != 0 {
		t.Errorf("frame 4 has %d hands, want none", len(frames[3]))
	}
	if got := frames[0][0].Points[detector.Wrist].X; got != WristA {
		t.Errorf("frame 1 wrist x = %f, want %f", got, WristA)
	}

	if _, err := Session("missing.jsonl"); err == nil {
		t.Error("expected error for missing session")
	}
}
