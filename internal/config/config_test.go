package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/signroute/internal/capture"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SIGNROUTE_DATA_DIR", "SIGNROUTE_HTTP_ADDR", "SIGNROUTE_QUEUE_SIZE", "SIGNROUTE_TRAY", "MQTT_TOPIC_PREFIX"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if filepath.Base(cfg.DataDir) != ".signroute" {
		t.Errorf("DataDir = %q, want ~/.signroute", cfg.DataDir)
	}
	if cfg.QueueSize != 2 || cfg.CameraFPS != capture.DefaultFPS {
		t.Errorf("QueueSize/CameraFPS = %d/%d", cfg.QueueSize, cfg.CameraFPS)
	}
	if cfg.MQTTTopicPrefix != "signroute" || cfg.Tray {
		t.Errorf("MQTTTopicPrefix/Tray = %q/%v", cfg.MQTTTopicPrefix, cfg.Tray)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SIGNROUTE_DATA_DIR", "/var/lib/signroute")
	t.Setenv("SIGNROUTE_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("SIGNROUTE_CAMERA", "1")
	t.Setenv("SIGNROUTE_CAMERA_ROTATION", "270")
	t.Setenv("SIGNROUTE_MOTION_THRESHOLD", "1.5")
	t.Setenv("SIGNROUTE_QUEUE_SIZE", "not-a-number")
	t.Setenv("SIGNROUTE_TRAY", "true")
	t.Setenv("MQTT_BROKER_URL", "tcp://broker:1883")

	cfg := Load()

	if cfg.DataDir != "/var/lib/signroute" || cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("DataDir/HTTPAddr = %q/%q", cfg.DataDir, cfg.HTTPAddr)
	}
	if cfg.Camera != "1" || cfg.CameraRotation != 270 || cfg.MotionThreshold != 1.5 {
		t.Errorf("camera settings = %q/%d/%g", cfg.Camera, cfg.CameraRotation, cfg.MotionThreshold)
	}
	if cfg.QueueSize != 2 {
		t.Errorf("QueueSize = %d, want default for unparsable value", cfg.QueueSize)
	}
	if !cfg.Tray || cfg.MQTTBrokerURL != "tcp://broker:1883" {
		t.Errorf("Tray/MQTTBrokerURL = %v/%q", cfg.Tray, cfg.MQTTBrokerURL)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{DataDir: "/data", LabelsPath: "/elsewhere/labels.txt"}
	cfg.ApplyDefaults()

	if cfg.ModelPath != filepath.Join("/data", ModelFile) {
		t.Errorf("ModelPath = %q", cfg.ModelPath)
	}
	if cfg.LabelsPath != "/elsewhere/labels.txt" {
		t.Errorf("LabelsPath overwritten: %q", cfg.LabelsPath)
	}
	if cfg.DBPath() != filepath.Join("/data", DBFile) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{ModelFile, LabelsFile} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := Config{DataDir: dir, CameraFPS: 5, QueueSize: 2, LogLevel: "info", LogFormat: "text"}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing model", func(c *Config) { c.ModelPath = filepath.Join(c.DataDir, "nope.json") }},
		{"empty labels path", func(c *Config) { c.LabelsPath = "" }},
		{"model is a directory", func(c *Config) { c.ModelPath = c.DataDir }},
		{"bad rotation", func(c *Config) { c.CameraRotation = 45 }},
		{"zero fps", func(c *Config) { c.CameraFPS = 0 }},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }},
		{"motion threshold", func(c *Config) { c.MotionThreshold = 150 }},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}

	t.Run("missing model wraps not exist", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.ModelPath = filepath.Join(cfg.DataDir, "nope.json")
		if err := cfg.Validate(); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Validate() error = %v, want os.ErrNotExist", err)
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("ParseLevel(trace) should fail")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "info", "json")
		if err != nil {
			t.Fatalf("NewLogger() error = %v", err)
		}
		logger.Debug("hidden")
		logger.Info("sign recognized", "label", "B")

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("output is not a single JSON line: %v\n%s", err, buf.String())
		}
		if line["msg"] != "sign recognized" || line["label"] != "B" {
			t.Errorf("log line = %v", line)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "debug", "text")
		if err != nil {
			t.Fatalf("NewLogger() error = %v", err)
		}
		logger.Debug("frame dropped", "queue", 2)
		if !strings.Contains(buf.String(), "frame dropped") || !strings.Contains(buf.String(), "queue=2") {
			t.Errorf("text output = %q", buf.String())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		if _, err := NewLogger(&bytes.Buffer{}, "info", "yaml"); err == nil {
			t.Error("NewLogger() should reject unknown formats")
		}
	})
}
