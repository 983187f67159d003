package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultRotation matches the sensor orientation of portrait phone cameras.
const DefaultRotation = 90

var (
	// ErrInvalidRotation is returned for rotations other than 0, 90, 180 and 270.
	ErrInvalidRotation = errors.New("rotation must be 0, 90, 180 or 270")
	// ErrDecode is returned when image bytes cannot be decoded.
	ErrDecode = errors.New("cannot decode image")
)

// ValidRotation reports whether degrees is a supported clockwise rotation.
func ValidRotation(degrees int) bool {
	switch degrees {
	case 0, 90, 180, 270:
		return true
	}
	return false
}

// Rotate returns a clockwise-rotated copy of src. The caller closes the result.
func Rotate(src *gocv.Mat, degrees int) (gocv.Mat, error) {
	dst := gocv.NewMat()

	switch degrees {
	case 0:
		src.CopyTo(&dst)
	case 90:
		gocv.Rotate(*src, &dst, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(*src, &dst, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(*src, &dst, gocv.Rotate90CounterClockwise)
	default:
		dst.Close()
		return gocv.Mat{}, fmt.Errorf("%w: %d", ErrInvalidRotation, degrees)
	}
	return dst, nil
}

// Decode decodes encoded image bytes (JPEG, PNG, ...) and applies rotation.
// The caller closes the returned Mat.
func Decode(data []byte, rotation int) (*gocv.Mat, error) {
	if !ValidRotation(rotation) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRotation, rotation)
	}
	if len(data) == 0 {
		return nil, ErrDecode
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if img.Empty() {
		img.Close()
		return nil, ErrDecode
	}

	if rotation == 0 {
		return &img, nil
	}

	rotated, err := Rotate(&img, rotation)
	img.Close()
	if err != nil {
		return nil, err
	}
	return &rotated, nil
}
