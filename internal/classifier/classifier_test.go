package classifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/signroute/internal/features"
)

func TestDistribution_Argmax(t *testing.T) {
	tests := []struct {
		name    string
		dist    Distribution
		wantIdx int
		wantVal float32
	}{
		{"single max", Distribution{0.1, 0.85, 0.05}, 1, 0.85},
		{"tie picks lowest index", Distribution{0.2, 0.4, 0.4}, 1, 0.4},
		{"all equal", Distribution{0.25, 0.25, 0.25, 0.25}, 0, 0.25},
		{"negative scores", Distribution{-3, -1, -2}, 1, -1},
		{"empty", Distribution{}, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, val := tt.dist.Argmax()
			if idx != tt.wantIdx || val != tt.wantVal {
				t.Errorf("Argmax() = (%d, %f), want (%d, %f)", idx, val, tt.wantIdx, tt.wantVal)
			}
		})
	}
}

func TestNew(t *testing.T) {
	labels := []string{"A", "B", "C"}

	t.Run("nil model", func(t *testing.T) {
		if _, err := New(nil, labels); !errors.Is(err, ErrModelNotLoaded) {
			t.Errorf("expected ErrModelNotLoaded, got %v", err)
		}
	})

	t.Run("no labels", func(t *testing.T) {
		if _, err := New(Constant(1), nil); !errors.Is(err, ErrNoLabels) {
			t.Errorf("expected ErrNoLabels, got %v", err)
		}
	})

	t.Run("wrong input size", func(t *testing.T) {
		m := FuncModel{Size: 63, Fn: func([]float32) ([]float32, error) { return nil, nil }}
		if _, err := New(m, labels); !errors.Is(err, ErrInputShape) {
			t.Errorf("expected ErrInputShape, got %v", err)
		}
	})

	t.Run("labels are copied", func(t *testing.T) {
		in := []string{"A", "B"}
		a, err := New(Constant(0.5, 0.5), in)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		in[0] = "changed"
		if got := a.Labels()[0]; got != "A" {
			t.Errorf("label 0 = %q, want A", got)
		}
	})
}

func TestAdapter_Classify(t *testing.T) {
	t.Run("passes the vector through", func(t *testing.T) {
		var seen []float32
		m := FuncModel{Size: features.Size, Fn: func(in []float32) ([]float32, error) {
			seen = append([]float32(nil), in...)
			return []float32{0.1, 0.85, 0.05}, nil
		}}
		a, err := New(m, []string{"A", "B", "C"})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		var v features.Vector
		v[0], v[125] = 1, 2
		dist, err := a.Classify(v)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}

		if diff := cmp.Diff(Distribution{0.1, 0.85, 0.05}, dist); diff != "" {
			t.Errorf("distribution mismatch (-want +got):\n%s", diff)
		}
		if len(seen) != features.Size || seen[0] != 1 || seen[125] != 2 {
			t.Errorf("model saw unexpected input (len %d)", len(seen))
		}
	})

	t.Run("nil adapter", func(t *testing.T) {
		var a *Adapter
		if _, err := a.Classify(features.Vector{}); !errors.Is(err, ErrModelNotLoaded) {
			t.Errorf("expected ErrModelNotLoaded, got %v", err)
		}
	})

	t.Run("output not aligned to labels", func(t *testing.T) {
		a, _ := New(Constant(0.5, 0.5), []string{"A", "B", "C"})
		if _, err := a.Classify(features.Vector{}); !errors.Is(err, ErrOutputShape) {
			t.Errorf("expected ErrOutputShape, got %v", err)
		}
	})

	t.Run("model error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		m := FuncModel{Size: features.Size, Fn: func([]float32) ([]float32, error) { return nil, boom }}
		a, _ := New(m, []string{"A"})
		if _, err := a.Classify(features.Vector{}); !errors.Is(err, boom) {
			t.Errorf("expected wrapped model error, got %v", err)
		}
	})
}

func TestLoadLabels(t *testing.T) {
	t.Run("one per line", func(t *testing.T) {
		got, err := LoadLabels(strings.NewReader("A\nB\r\nC\n\n"))
		if err != nil {
			t.Fatalf("LoadLabels() error = %v", err)
		}
		if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
			t.Errorf("labels mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := LoadLabels(strings.NewReader("\n\n")); !errors.Is(err, ErrNoLabels) {
			t.Errorf("expected ErrNoLabels, got %v", err)
		}
	})

	t.Run("interior blank line", func(t *testing.T) {
		if _, err := LoadLabels(strings.NewReader("A\n\nB\n")); err == nil {
			t.Error("expected error for interior blank line")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadLabelsFile(t.TempDir() + "/nope.txt"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
