// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ayusman/signroute/internal/capture"
)

// File names inside the data directory.
const (
	DBFile     = "signroute.db"
	ModelFile  = "model.json"
	LabelsFile = "labels.txt"
)

// Config holds every runtime setting. Flags on the command line override the
// environment.
type Config struct {
	DataDir    string
	HTTPAddr   string
	WebDir     string
	ModelPath  string
	LabelsPath string

	// Camera is a device index or video path; empty disables capture.
	Camera          string
	CameraRotation  int
	CameraFPS       int
	MotionThreshold float64
	QueueSize       int

	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
	DeviceID        string

	// SpeechCommand runs an external recognizer; empty disables speech.
	SpeechCommand string

	LogLevel  string
	LogFormat string
	Tray      bool
}

// Load reads SIGNROUTE_* variables. Paths left empty are derived from the
// data directory by ApplyDefaults.
func Load() Config {
	hostname, _ := os.Hostname()

	return Config{
		DataDir:         getenvDefault("SIGNROUTE_DATA_DIR", defaultDataDir()),
		HTTPAddr:        getenvDefault("SIGNROUTE_HTTP_ADDR", ":8080"),
		WebDir:          os.Getenv("SIGNROUTE_WEB_DIR"),
		ModelPath:       os.Getenv("SIGNROUTE_MODEL"),
		LabelsPath:      os.Getenv("SIGNROUTE_LABELS"),
		Camera:          os.Getenv("SIGNROUTE_CAMERA"),
		CameraRotation:  getenvIntDefault("SIGNROUTE_CAMERA_ROTATION", 0),
		CameraFPS:       getenvIntDefault("SIGNROUTE_CAMERA_FPS", capture.DefaultFPS),
		MotionThreshold: getenvFloatDefault("SIGNROUTE_MOTION_THRESHOLD", 0),
		QueueSize:       getenvIntDefault("SIGNROUTE_QUEUE_SIZE", 2),
		MQTTBrokerURL:   os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:    getenvDefault("SIGNROUTE_MQTT_CLIENT_ID", "signroute"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTTopicPrefix: getenvDefault("MQTT_TOPIC_PREFIX", "signroute"),
		DeviceID:        getenvDefault("SIGNROUTE_DEVICE_ID", hostname),
		SpeechCommand:   os.Getenv("SIGNROUTE_SPEECH_COMMAND"),
		LogLevel:        getenvDefault("SIGNROUTE_LOG_LEVEL", "info"),
		LogFormat:       getenvDefault("SIGNROUTE_LOG_FORMAT", "text"),
		Tray:            getenvBoolDefault("SIGNROUTE_TRAY", false),
	}
}

// ApplyDefaults fills the model and labels paths from the data directory.
func (c *Config) ApplyDefaults() {
	if c.ModelPath == "" {
		c.ModelPath = filepath.Join(c.DataDir, ModelFile)
	}
	if c.LabelsPath == "" {
		c.LabelsPath = filepath.Join(c.DataDir, LabelsFile)
	}
}

// DBPath returns the history database location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, DBFile)
}

// Validate reports the first problem with c. The model and labels files
// must exist; recognition cannot start without them.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory is required")
	}
	if err := requireFile("model", c.ModelPath); err != nil {
		return err
	}
	if err := requireFile("labels", c.LabelsPath); err != nil {
		return err
	}
	if !capture.ValidRotation(c.CameraRotation) {
		return fmt.Errorf("camera rotation %d: %w", c.CameraRotation, capture.ErrInvalidRotation)
	}
	if c.CameraFPS <= 0 {
		return fmt.Errorf("camera fps must be positive, got %d", c.CameraFPS)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive, got %d", c.QueueSize)
	}
	if c.MotionThreshold < 0 || c.MotionThreshold > 100 {
		return fmt.Errorf("motion threshold must be between 0 and 100, got %g", c.MotionThreshold)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := formatOf(c.LogFormat); err != nil {
		return err
	}
	return nil
}

func requireFile(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s path is required", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s file: %w", what, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s file %s is a directory", what, path)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signroute"
	}
	return filepath.Join(home, ".signroute")
}

func getenvDefault(key, val string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return val
}

func getenvIntDefault(key string, val int) int {
	v := os.Getenv(key)
	if v == "" {
		return val
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return val
	}
	return n
}

func getenvFloatDefault(key string, val float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return val
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return val
	}
	return f
}

func getenvBoolDefault(key string, val bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return val
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return val
	}
	return b
}
