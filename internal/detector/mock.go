package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	sequence [][]HandLandmarks
	err      error
	calls    int
	closed   bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.sequence = nil
}

// SetSequence queues per-call results. Once exhausted, Detect falls back to
// the hands set with SetHands.
func (m *MockDetector) SetSequence(frames [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequence = frames
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.sequence) > 0 {
		next := m.sequence[0]
		m.sequence = m.sequence[1:]
		return next, nil
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ZeroHand returns a hand whose 21 points are all at the origin.
func ZeroHand() HandLandmarks {
	return HandLandmarks{Handedness: "Right", Score: 1}
}

// SequentialHand returns a hand whose coordinates are 1, 2, 3, ... in
// flattened point order, scaled by step. Handy for checking layouts.
func SequentialHand(step float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Left", Score: 0.9}
	for i := range h.Points {
		base := float64(i*3) * step
		h.Points[i] = Point3D{X: base + step, Y: base + 2*step, Z: base + 3*step}
	}
	return h
}

// OpenPalmLandmarks returns a right hand with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
		Points: [NumLandmarks]Point3D{
			Wrist:     {X: 0.50, Y: 0.80},
			ThumbCMC:  {X: 0.55, Y: 0.75, Z: 0.02},
			ThumbMCP:  {X: 0.62, Y: 0.70, Z: 0.03},
			ThumbIP:   {X: 0.68, Y: 0.65, Z: 0.03},
			ThumbTip:  {X: 0.73, Y: 0.60, Z: 0.03},
			IndexMCP:  {X: 0.55, Y: 0.68},
			IndexPIP:  {X: 0.57, Y: 0.55},
			IndexDIP:  {X: 0.58, Y: 0.45},
			IndexTip:  {X: 0.58, Y: 0.35},
			MiddleMCP: {X: 0.50, Y: 0.66},
			MiddlePIP: {X: 0.50, Y: 0.52},
			MiddleDIP: {X: 0.50, Y: 0.40},
			MiddleTip: {X: 0.50, Y: 0.28},
			RingMCP:   {X: 0.45, Y: 0.68},
			RingPIP:   {X: 0.43, Y: 0.55},
			RingDIP:   {X: 0.42, Y: 0.45},
			RingTip:   {X: 0.42, Y: 0.35},
			PinkyMCP:  {X: 0.40, Y: 0.70},
			PinkyPIP:  {X: 0.37, Y: 0.60},
			PinkyDIP:  {X: 0.35, Y: 0.50},
			PinkyTip:  {X: 0.34, Y: 0.42},
		},
	}
}

// FistLandmarks returns a right hand with every finger curled into the palm.
func FistLandmarks() HandLandmarks {
	return HandLandmarks{
		Handedness: "Right",
		Score:      0.93,
		Points: [NumLandmarks]Point3D{
			Wrist:     {X: 0.50, Y: 0.80},
			ThumbCMC:  {X: 0.55, Y: 0.76},
			ThumbMCP:  {X: 0.58, Y: 0.71},
			ThumbIP:   {X: 0.56, Y: 0.67, Z: -0.03},
			ThumbTip:  {X: 0.52, Y: 0.66, Z: -0.05},
			IndexMCP:  {X: 0.55, Y: 0.70, Z: -0.02},
			IndexPIP:  {X: 0.55, Y: 0.68, Z: -0.05},
			IndexDIP:  {X: 0.52, Y: 0.70, Z: -0.04},
			IndexTip:  {X: 0.50, Y: 0.72, Z: -0.02},
			MiddleMCP: {X: 0.50, Y: 0.68, Z: -0.02},
			MiddlePIP: {X: 0.50, Y: 0.66, Z: -0.05},
			MiddleDIP: {X: 0.47, Y: 0.68, Z: -0.04},
			MiddleTip: {X: 0.45, Y: 0.70, Z: -0.02},
			RingMCP:   {X: 0.45, Y: 0.70, Z: -0.02},
			RingPIP:   {X: 0.45, Y: 0.68, Z: -0.05},
			RingDIP:   {X: 0.42, Y: 0.70, Z: -0.04},
			RingTip:   {X: 0.40, Y: 0.72, Z: -0.02},
			PinkyMCP:  {X: 0.40, Y: 0.72, Z: -0.02},
			PinkyPIP:  {X: 0.40, Y: 0.70, Z: -0.05},
			PinkyDIP:  {X: 0.37, Y: 0.72, Z: -0.04},
			PinkyTip:  {X: 0.35, Y: 0.74, Z: -0.02},
		},
	}
}
