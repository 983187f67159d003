package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Activity detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultHold is how long the gate stays active after the last motion.
	DefaultHold = 2 * time.Second
)

// ActivityGate decides whether frames are worth sending to the hand
// detector. It opens on scene motion and closes again once nothing has moved
// for the hold duration, so a signer holding a pose keeps being recognized
// for a while after they stop moving.
type ActivityGate struct {
	threshold   float64
	hold        time.Duration
	now         func() time.Time
	prevGray    gocv.Mat
	initialized bool
	active      bool
	lastMotion  time.Time
	lastChange  float64
	mu          sync.Mutex
}

// NewActivityGate creates a gate. threshold is the percentage of pixels that
// must change between frames to count as motion; hold <= 0 uses DefaultHold.
func NewActivityGate(threshold float64, hold time.Duration) *ActivityGate {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &ActivityGate{
		threshold: threshold,
		hold:      hold,
		now:       time.Now,
		prevGray:  gocv.NewMat(),
	}
}

// Observe feeds the next frame and reports whether the gate is open, and
// whether this frame changed its state.
//
// Frames are converted to grayscale and blurred, then differenced against the
// previous frame. The share of pixels whose difference exceeds DiffThreshold
// is compared with the gate threshold.
func (g *ActivityGate) Observe(frame *gocv.Mat) (active, changed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	was := g.active
	if g.motion(frame) {
		g.lastMotion = g.now()
		g.active = true
	} else if g.active && g.now().Sub(g.lastMotion) > g.hold {
		g.active = false
	}

	return g.active, g.active != was
}

func (g *ActivityGate) motion(frame *gocv.Mat) bool {
	if frame == nil || frame.Empty() {
		return false
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !g.initialized || blurred.Rows() != g.prevGray.Rows() || blurred.Cols() != g.prevGray.Cols() {
		blurred.CopyTo(&g.prevGray)
		g.initialized = true
		g.lastChange = 0
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()
	g.lastChange = float64(nonZero) / float64(total) * 100.0

	blurred.CopyTo(&g.prevGray)

	return g.lastChange > g.threshold
}

// Active reports whether the gate is open.
func (g *ActivityGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// LastChange returns the percentage of pixels that changed in the last
// observed frame.
func (g *ActivityGate) LastChange() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastChange
}

// Reset closes the gate and forgets the baseline frame.
func (g *ActivityGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clear()
}

// Close releases resources used by the gate.
func (g *ActivityGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clear()
}

func (g *ActivityGate) clear() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.initialized = false
	g.active = false
	g.lastChange = 0
}
