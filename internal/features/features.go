// Package features turns per-frame hand landmarks into the fixed-length
// vector the sign classifier was trained on.
//
// Layout: two hand slots of 21 points × (x, y, z). Slot 0 holds the first
// hand the detector reported, slot 1 the second; an absent hand is 63
// zeros. Slots follow detector order, not left/right.
package features

import "github.com/ayusman/signroute/internal/detector"

const (
	// Dims is the number of coordinates per landmark.
	Dims = 3
	// SlotSize is the number of values one hand occupies.
	SlotSize = detector.NumLandmarks * Dims
	// Size is the full vector length.
	Size = detector.MaxHands * SlotSize
)

// Vector is the classifier input.
type Vector [Size]float32

// Encode flattens up to the first two hands into a Vector. Extra hands are
// ignored; missing hands leave their slot zeroed.
func Encode(hands []detector.HandLandmarks) Vector {
	var v Vector
	for slot := 0; slot < detector.MaxHands && slot < len(hands); slot++ {
		off := slot * SlotSize
		for i, p := range hands[slot].Points {
			j := off + i*Dims
			v[j] = float32(p.X)
			v[j+1] = float32(p.Y)
			v[j+2] = float32(p.Z)
		}
	}
	return v
}

// Slot returns the values of hand slot i.
func (v *Vector) Slot(i int) []float32 {
	return v[i*SlotSize : (i+1)*SlotSize]
}
