// Package capture reads frames from a camera or video source using GoCV.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEmptyFrame is returned when the device produced an empty frame.
	ErrEmptyFrame = errors.New("captured frame is empty")
	// ErrEndOfStream is returned when a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
)

// Source produces frames for the recognition loop.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Camera captures from a device index ("0") or a video file or stream URL,
// rotating every frame by a fixed number of degrees.
type Camera struct {
	device   string
	rotation int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
	fps      int
}

// NewCamera creates a Camera for device. rotation must be 0, 90, 180 or 270.
func NewCamera(device string, rotation int) (*Camera, error) {
	if !ValidRotation(rotation) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRotation, rotation)
	}
	return &Camera{
		device:   device,
		rotation: rotation,
		fps:      DefaultFPS,
	}, nil
}

// Device returns the device string the camera was created with.
func (c *Camera) Device() string {
	return c.device
}

// Open opens the camera for capturing frames.
// Devices are set to 640x480 for performance.
func (c *Camera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var target interface{} = c.device
	if id, err := strconv.Atoi(c.device); err == nil {
		target = id
	}

	capture, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return fmt.Errorf("open %q: %w", c.device, err)
	}

	if _, ok := target.(int); ok {
		capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
		capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads and rotates a single frame.
// The caller is responsible for closing the returned Mat.
func (c *Camera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrEndOfStream
	}

	if mat.Empty() {
		mat.Close()
		return nil, ErrEmptyFrame
	}

	if c.rotation == 0 {
		return &mat, nil
	}

	rotated, err := Rotate(&mat, c.rotation)
	mat.Close()
	if err != nil {
		return nil, err
	}
	return &rotated, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *Camera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *Camera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
