// Package publish forwards stabilized predictions and transcripts to an MQTT
// broker.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/signroute/internal/pipeline"
)

const (
	qos            = 1
	publishTimeout = 5 * time.Second
	disconnectWait = 250
)

var (
	// ErrNotConnected is returned when publishing before Connect.
	ErrNotConnected = errors.New("mqtt publisher not connected")
	// ErrTimeout is returned when the broker does not acknowledge in time.
	ErrTimeout = errors.New("mqtt publish timed out")
)

// Config configures a Publisher.
type Config struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	DeviceID    string
}

// PredictionMessage is the JSON payload for a stabilized sign. Index is the
// position of Label in the label set; FrameIndex is the argmax of the frame
// that produced the decision and may name a different sign.
type PredictionMessage struct {
	DeviceID   string    `json:"device_id"`
	Label      string    `json:"label"`
	Index      int       `json:"index"`
	FrameIndex int       `json:"frame_index"`
	Confidence float32   `json:"confidence"`
	Hands      int       `json:"hands"`
	Time       time.Time `json:"time"`
}

// TranscriptMessage is the JSON payload for a final transcript.
type TranscriptMessage struct {
	DeviceID  string    `json:"device_id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	Time      time.Time `json:"time"`
}

// client is the subset of paho.Client used here.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher sends messages to MQTT. It is safe for concurrent use.
type Publisher struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	client client
}

// New creates a Publisher. Call Connect before publishing.
func New(cfg Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "signroute"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = cfg.ClientID
	}
	return &Publisher{cfg: cfg, logger: logger}
}

// Connect dials the broker and marks the device online. The connection is
// closed when ctx is done.
func (p *Publisher) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(p.cfg.BrokerURL).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetWill(TopicOnline(p.cfg.TopicPrefix, p.cfg.DeviceID), "0", qos, true)

	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.logger.Error("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c paho.Client) {
		c.Publish(TopicOnline(p.cfg.TopicPrefix, p.cfg.DeviceID), qos, true, "1")
		p.logger.Info("mqtt connected", "broker", p.cfg.BrokerURL)
	})

	c := paho.NewClient(opts)
	token := c.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		c.Disconnect(0)
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	p.mu.Lock()
	p.client = c
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.Close()
	}()

	return nil
}

// PublishPrediction sends a decided prediction. Undecided predictions are
// ignored.
func (p *Publisher) PublishPrediction(pred pipeline.Prediction) error {
	if !pred.Decided() {
		return nil
	}
	msg := PredictionMessage{
		DeviceID:   p.cfg.DeviceID,
		Label:      pred.Label,
		Index:      pred.LabelIndex,
		FrameIndex: pred.Index,
		Confidence: pred.Confidence,
		Hands:      pred.Hands,
		Time:       time.Now().UTC(),
	}
	return p.publish(TopicPrediction(p.cfg.TopicPrefix, p.cfg.DeviceID), msg)
}

// PublishTranscript sends a final speech transcript.
func (p *Publisher) PublishTranscript(sessionID, text string) error {
	msg := TranscriptMessage{
		DeviceID:  p.cfg.DeviceID,
		SessionID: sessionID,
		Text:      text,
		Time:      time.Now().UTC(),
	}
	return p.publish(TopicTranscript(p.cfg.TopicPrefix, p.cfg.DeviceID), msg)
}

func (p *Publisher) publish(topic string, payload any) error {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()

	if c == nil {
		return ErrNotConnected
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	token := c.Publish(topic, qos, false, body)
	if !token.WaitTimeout(publishTimeout) {
		return ErrTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

// Close marks the device offline and disconnects. It is safe to call more
// than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	c := p.client
	p.client = nil
	p.mu.Unlock()

	if c == nil {
		return
	}
	c.Publish(TopicOnline(p.cfg.TopicPrefix, p.cfg.DeviceID), qos, true, "0").WaitTimeout(publishTimeout)
	c.Disconnect(disconnectWait)
}
