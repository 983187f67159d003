package speech

import (
	"context"
	"sync"
)

// MockRecognizer is a Recognizer for testing. Each Listen call emits the
// configured hypotheses in order and then waits for cancellation.
type MockRecognizer struct {
	mu         sync.Mutex
	hypotheses []Hypothesis
	err        error
	calls      int
}

// NewMockRecognizer creates a MockRecognizer that emits hyps on every run.
func NewMockRecognizer(hyps ...Hypothesis) *MockRecognizer {
	return &MockRecognizer{hypotheses: hyps}
}

// SetError makes subsequent Listen calls fail immediately with err.
func (m *MockRecognizer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Listen has been called.
func (m *MockRecognizer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Listen implements Recognizer.
func (m *MockRecognizer) Listen(ctx context.Context, emit func(Hypothesis)) error {
	m.mu.Lock()
	m.calls++
	err := m.err
	hyps := append([]Hypothesis(nil), m.hypotheses...)
	m.mu.Unlock()

	if err != nil {
		return err
	}

	for _, h := range hyps {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		emit(h)
	}

	<-ctx.Done()
	return ctx.Err()
}
