// Package vote debounces per-frame predictions with a sliding-window
// majority vote.
package vote

const (
	// WindowSize is the number of accepted predictions remembered.
	WindowSize = 7
	// Threshold is the minimum count a label needs inside the window.
	Threshold = WindowSize / 2
)

// Smoother keeps the last WindowSize label indices and reports a label once
// it dominates them. It is not safe for concurrent use; the pipeline's single
// worker owns it.
type Smoother struct {
	labels []string
	buf    [WindowSize]int
	head   int // index of the oldest entry
	n      int
	counts []int
}

// NewSmoother returns an empty Smoother over labels.
func NewSmoother(labels []string) *Smoother {
	return &Smoother{
		labels: labels,
		counts: make([]int, len(labels)),
	}
}

// Vote records index and returns the stabilized label, if any.
//
// The winner is the index with the highest count in the window; on a tie
// the lowest index wins. It is reported only when its count reaches
// Threshold. An index outside the label set is ignored and leaves the
// window unchanged.
func (s *Smoother) Vote(index int) (string, bool) {
	best, ok := s.VoteIndex(index)
	if !ok {
		return "", false
	}
	return s.labels[best], true
}

// VoteIndex is Vote reporting the winning label index instead of the label.
func (s *Smoother) VoteIndex(index int) (int, bool) {
	if index < 0 || index >= len(s.labels) {
		return -1, false
	}

	s.push(index)

	best, count := s.tally()
	if count < Threshold {
		return -1, false
	}
	return best, true
}

func (s *Smoother) push(index int) {
	if s.n < WindowSize {
		s.buf[(s.head+s.n)%WindowSize] = index
		s.n++
		return
	}
	// full: overwrite the oldest and advance
	s.buf[s.head] = index
	s.head = (s.head + 1) % WindowSize
}

// tally returns the winning index and its count.
func (s *Smoother) tally() (int, int) {
	for i := range s.counts {
		s.counts[i] = 0
	}
	for i := 0; i < s.n; i++ {
		s.counts[s.buf[(s.head+i)%WindowSize]]++
	}

	best, bestCount := 0, 0
	for i, c := range s.counts {
		if c > bestCount {
			best, bestCount = i, c
		}
	}
	return best, bestCount
}

// Window returns the remembered indices, oldest first.
func (s *Smoother) Window() []int {
	out := make([]int, s.n)
	for i := range out {
		out[i] = s.buf[(s.head+i)%WindowSize]
	}
	return out
}

// Len returns the number of remembered indices.
func (s *Smoother) Len() int { return s.n }

// Reset empties the window.
func (s *Smoother) Reset() {
	s.head, s.n = 0, 0
}
