// Package pipeline turns one frame's hand detection into a debounced sign
// label: encode, classify, gate on confidence, vote.
package pipeline

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/signroute/internal/classifier"
	"github.com/ayusman/signroute/internal/detector"
	"github.com/ayusman/signroute/internal/features"
	"github.com/ayusman/signroute/internal/vote"
)

// ConfidenceThreshold is the minimum top score a frame needs to be voted on.
const ConfidenceThreshold float32 = 0.70

var (
	// ErrNotInitialized is returned by New when the classifier is missing or has no labels.
	ErrNotInitialized = errors.New("pipeline not initialized")
	// ErrNoDetector is returned by ProcessFrame when the pipeline has no detector.
	ErrNoDetector = errors.New("pipeline has no detector")
	// ErrDetect wraps detector failures.
	ErrDetect = errors.New("detect hands")
)

// Reason explains the outcome of one processed frame.
type Reason string

const (
	// ReasonDecided means the vote window produced a label.
	ReasonDecided Reason = "decided"
	// ReasonNoHands means the detector found nothing; the window was not touched.
	ReasonNoHands Reason = "no_hands"
	// ReasonLowConfidence means the top score was below ConfidenceThreshold; the window was not touched.
	ReasonLowConfidence Reason = "low_confidence"
	// ReasonNoMajority means the frame was voted on but no label dominates yet.
	ReasonNoMajority Reason = "no_majority"
)

// Prediction is the outcome of one frame. Index and Confidence describe this
// frame's top score. Label and LabelIndex are the window's majority and are
// set only when Reason is ReasonDecided.
type Prediction struct {
	Label      string  `json:"label,omitempty"`
	LabelIndex int     `json:"label_index"`
	Index      int     `json:"index"`
	Confidence float32 `json:"confidence"`
	Reason     Reason  `json:"reason"`
	Hands      int     `json:"hands"`
}

// Decided reports whether the prediction carries a stabilized label.
func (p Prediction) Decided() bool {
	return p.Reason == ReasonDecided
}

// Classifier is the capability the pipeline needs from the model layer.
type Classifier interface {
	Classify(v features.Vector) (classifier.Distribution, error)
	Labels() []string
}

// Pipeline owns the vote window. It must be driven by a single goroutine;
// see the worker package.
type Pipeline struct {
	detector   detector.Detector
	classifier Classifier
	labels     []string
	smoother   *vote.Smoother
}

// New builds a pipeline. det may be nil when frames are only ever submitted
// as already-detected hands.
func New(det detector.Detector, cls Classifier) (*Pipeline, error) {
	if cls == nil {
		return nil, fmt.Errorf("%w: no classifier", ErrNotInitialized)
	}
	labels := cls.Labels()
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrNotInitialized)
	}

	return &Pipeline{
		detector:   det,
		classifier: cls,
		labels:     labels,
		smoother:   vote.NewSmoother(labels),
	}, nil
}

// ProcessFrame runs the detector on frame and then ProcessHands.
// The caller keeps ownership of frame.
func (p *Pipeline) ProcessFrame(frame *gocv.Mat) (Prediction, error) {
	if p.detector == nil {
		return Prediction{Index: -1, LabelIndex: -1}, ErrNoDetector
	}

	hands, err := p.detector.Detect(frame)
	if err != nil {
		return Prediction{Index: -1, LabelIndex: -1}, fmt.Errorf("%w: %w", ErrDetect, err)
	}

	return p.ProcessHands(hands)
}

// ProcessHands classifies one frame's hands and feeds the vote window.
// A frame with no hands, or whose top score is below ConfidenceThreshold,
// never enters the window.
func (p *Pipeline) ProcessHands(hands []detector.HandLandmarks) (Prediction, error) {
	pred := Prediction{Index: -1, LabelIndex: -1, Hands: len(hands)}

	if len(hands) == 0 {
		pred.Reason = ReasonNoHands
		return pred, nil
	}

	for i := 0; i < len(hands) && i < detector.MaxHands; i++ {
		if err := hands[i].Validate(); err != nil {
			return pred, fmt.Errorf("hand %d: %w", i, err)
		}
	}

	dist, err := p.classifier.Classify(features.Encode(hands))
	if err != nil {
		return pred, fmt.Errorf("classify: %w", err)
	}

	pred.Index, pred.Confidence = dist.Argmax()
	if pred.Index < 0 {
		return pred, fmt.Errorf("classify: %w", classifier.ErrOutputShape)
	}
	if pred.Confidence < ConfidenceThreshold {
		pred.Reason = ReasonLowConfidence
		return pred, nil
	}

	winner, ok := p.smoother.VoteIndex(pred.Index)
	if !ok {
		pred.Reason = ReasonNoMajority
		return pred, nil
	}

	pred.Label = p.labels[winner]
	pred.LabelIndex = winner
	pred.Reason = ReasonDecided
	return pred, nil
}

// Reset clears the vote window.
func (p *Pipeline) Reset() {
	p.smoother.Reset()
}

// Window returns the vote window, oldest first.
func (p *Pipeline) Window() []int {
	return p.smoother.Window()
}

// Labels returns the label set the pipeline votes over.
func (p *Pipeline) Labels() []string {
	return append([]string(nil), p.labels...)
}
