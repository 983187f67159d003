package vote

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var abcd = []string{"A", "B", "C", "D"}

func feed(s *Smoother, indices ...int) (string, bool) {
	var label string
	var ok bool
	for _, i := range indices {
		label, ok = s.Vote(i)
	}
	return label, ok
}

func TestThreshold(t *testing.T) {
	if WindowSize != 7 || Threshold != 3 {
		t.Fatalf("WindowSize/Threshold = %d/%d, want 7/3", WindowSize, Threshold)
	}
}

func TestSmoother_Saturation(t *testing.T) {
	s := NewSmoother(abcd)

	label, ok := feed(s, 2, 2, 2, 2, 2, 2, 2)

	if !ok || label != "C" {
		t.Errorf("Vote() = (%q, %v), want (C, true)", label, ok)
	}
	if diff := cmp.Diff([]int{2, 2, 2, 2, 2, 2, 2}, s.Window()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestSmoother_ThresholdBoundary(t *testing.T) {
	t.Run("counts 3,2,2 decide", func(t *testing.T) {
		s := NewSmoother(abcd)
		label, ok := feed(s, 1, 0, 2, 1, 0, 2, 1)
		if !ok || label != "B" {
			t.Errorf("Vote() = (%q, %v), want (B, true)", label, ok)
		}
	})

	t.Run("counts 2,2,2,1 do not decide", func(t *testing.T) {
		s := NewSmoother(abcd)
		label, ok := feed(s, 0, 1, 2, 0, 1, 2, 3)
		if ok {
			t.Errorf("Vote() = (%q, %v), want no decision", label, ok)
		}
	})

	t.Run("needs three entries", func(t *testing.T) {
		s := NewSmoother(abcd)
		if _, ok := feed(s, 3, 3); ok {
			t.Error("two votes should not decide")
		}
		if label, ok := s.Vote(3); !ok || label != "D" {
			t.Errorf("third vote = (%q, %v), want (D, true)", label, ok)
		}
	})
}

func TestSmoother_TieBreakLowestIndex(t *testing.T) {
	s := NewSmoother(abcd)

	// C and B both reach 3; B has the lower index
	label, ok := feed(s, 2, 1, 2, 1, 2, 1)

	if !ok || label != "B" {
		t.Errorf("Vote() = (%q, %v), want (B, true)", label, ok)
	}
}

func TestSmoother_Eviction(t *testing.T) {
	s := NewSmoother(abcd)

	feed(s, 0, 1, 1, 2, 2, 3, 3)
	if s.Len() != WindowSize {
		t.Fatalf("Len() = %d, want %d", s.Len(), WindowSize)
	}

	s.Vote(3)

	want := []int{1, 1, 2, 2, 3, 3, 3}
	if diff := cmp.Diff(want, s.Window()); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != WindowSize {
		t.Errorf("Len() = %d after eviction, want %d", s.Len(), WindowSize)
	}
}

func TestSmoother_EvictedEntryNotCounted(t *testing.T) {
	s := NewSmoother(abcd)

	// A has 3 while it is in the window
	label, ok := feed(s, 0, 0, 0, 1, 2, 3, 1)
	if !ok || label != "A" {
		t.Fatalf("Vote() = (%q, %v), want (A, true)", label, ok)
	}

	// the first A falls out: A=2, B=2, C=2, D=1
	if label, ok := s.Vote(2); ok {
		t.Errorf("Vote() = (%q, %v), evicted entry still counted", label, ok)
	}
}

func TestSmoother_OutOfRangeIgnored(t *testing.T) {
	s := NewSmoother(abcd)
	feed(s, 1, 1)

	for _, idx := range []int{-1, 4, 99} {
		if _, ok := s.Vote(idx); ok {
			t.Errorf("Vote(%d) decided", idx)
		}
	}
	if diff := cmp.Diff([]int{1, 1}, s.Window()); diff != "" {
		t.Errorf("window changed by out-of-range votes (-want +got):\n%s", diff)
	}
}

func TestSmoother_Reset(t *testing.T) {
	s := NewSmoother(abcd)
	feed(s, 0, 0, 0)

	s.Reset()

	if s.Len() != 0 || len(s.Window()) != 0 {
		t.Errorf("window not empty after Reset: %v", s.Window())
	}
	if _, ok := feed(s, 0, 0); ok {
		t.Error("old entries survived Reset")
	}
}

func TestSmoother_VoteIndex(t *testing.T) {
	s := NewSmoother(abcd)
	feed(s, 2, 2, 2)

	// the pushed index loses to the standing majority
	got, ok := s.VoteIndex(1)
	if !ok || got != 2 {
		t.Errorf("VoteIndex(1) = (%d, %v), want (2, true)", got, ok)
	}
	if got, ok := s.VoteIndex(7); ok || got != -1 {
		t.Errorf("VoteIndex(7) = (%d, %v), want (-1, false)", got, ok)
	}
}
