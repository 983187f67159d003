package detector

import "gocv.io/x/gocv"

// MaxHands is the number of hands the landmarker reports per frame.
const MaxHands = 2

// Detector defines the capability every hand landmark source provides.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks in
	// the order the underlying model reports them.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the location of the landmarker service script.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the script.
	PythonPath string

	// ModelPath is the hand_landmarker.task asset handed to the script.
	ModelPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      MaxHands,
		MinConfidence: 0.5,
	}
}
