// Package detector provides hand landmark types and the detector capability
// consumed by the sign classification pipeline.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

var (
	// ErrLandmarkCount is returned when a decoded hand does not carry exactly NumLandmarks points.
	ErrLandmarkCount = errors.New("hand must have exactly 21 landmarks")
	// ErrNonFinite is returned when a landmark coordinate is NaN or infinite.
	ErrNonFinite = errors.New("landmark coordinate is not finite")
)

// Point3D is a landmark in image-relative normalized coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right", informational only
	Score      float64               `json:"score,omitempty"`
}

// Validate reports an error if any coordinate is NaN or infinite.
func (h *HandLandmarks) Validate() error {
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("point %d: %w", i, ErrNonFinite)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Frame is the wire form of one detection result: the hands the landmarker
// reported for a single frame.
type Frame struct {
	Hands []jsonHand `json:"hands"`
}

// jsonHand is the variable-length wire form of a hand, checked before it
// becomes a fixed-size HandLandmarks.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

func (h jsonHand) toHandLandmarks() (HandLandmarks, error) {
	if len(h.Points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d", ErrLandmarkCount, len(h.Points))
	}

	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(lm.Points[:], h.Points)

	return lm, nil
}

// DecodeHands parses a `{"hands": [...]}` document as produced by the
// landmarker service, the replay files and the HTTP landmark bridge.
func DecodeHands(data []byte) ([]HandLandmarks, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("parse hands: %w", err)
	}

	hands := make([]HandLandmarks, 0, len(frame.Hands))
	for i, h := range frame.Hands {
		lm, err := h.toHandLandmarks()
		if err != nil {
			return nil, fmt.Errorf("hand %d: %w", i, err)
		}
		hands = append(hands, lm)
	}

	return hands, nil
}

// EncodeHands is the inverse of DecodeHands.
func EncodeHands(hands []HandLandmarks) ([]byte, error) {
	frame := Frame{Hands: make([]jsonHand, len(hands))}
	for i, h := range hands {
		frame.Hands[i] = jsonHand{
			Points:     h.Points[:],
			Handedness: h.Handedness,
			Score:      h.Score,
		}
	}
	return json.Marshal(frame)
}
