package app

import (
	"errors"
	"time"

	"github.com/ayusman/signroute/internal/capture"
	"github.com/ayusman/signroute/internal/worker"
)

// runCapture reads frames from the camera and submits them to the worker.
//
// Loop logic:
//  1. Tick at IdleFPS
//  2. Skip ticks while recognition is disabled
//  3. With an activity gate, switch to ActiveFPS when it opens and back to
//     IdleFPS when it closes; frames seen while closed are discarded
//  4. Submit; a full queue drops the frame
//  5. A finite source ends the loop at end of stream
func (a *App) runCapture(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	cam := a.config.Camera
	fps := IdleFPS
	if a.gate == nil && cam.FPS() > 0 {
		fps = cam.FPS()
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		if !a.IsEnabled() {
			continue
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				a.logger.Info("camera stream ended")
				return
			}
			a.logger.Warn("error reading frame", "error", err)
			continue
		}

		if a.gate != nil {
			active, changed := a.gate.Observe(frame)
			if changed {
				next := IdleFPS
				if active {
					next = ActiveFPS
				}
				cam.SetFPS(next)
				ticker.Reset(time.Second / time.Duration(next))
				a.logger.Debug("capture rate changed", "fps", next, "change_percent", a.gate.LastChange())
			}
			if !active {
				frame.Close()
				continue
			}
		}

		if _, err := a.SubmitFrame(frame); err != nil {
			if errors.Is(err, worker.ErrQueueFull) {
				a.logger.Debug("dropping frame, worker busy")
				continue
			}
			if errors.Is(err, worker.ErrStopped) || errors.Is(err, ErrNotRunning) {
				return
			}
			a.logger.Warn("failed to submit frame", "error", err)
		}
	}
}
