package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/signroute/internal/app"
	"github.com/ayusman/signroute/internal/capture"
	"github.com/ayusman/signroute/internal/classifier"
	"github.com/ayusman/signroute/internal/config"
	"github.com/ayusman/signroute/internal/events"
	"github.com/ayusman/signroute/internal/pipeline"
	"github.com/ayusman/signroute/internal/publish"
	"github.com/ayusman/signroute/internal/server"
	"github.com/ayusman/signroute/internal/speech"
	"github.com/ayusman/signroute/internal/store"
	"github.com/ayusman/signroute/internal/tray"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run recognition and the HTTP/WebSocket bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), c.cfg, c.logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.cfg.HTTPAddr, "addr", c.cfg.HTTPAddr, "HTTP listen address")
	flags.StringVar(&c.cfg.WebDir, "web-dir", c.cfg.WebDir, "static UI directory (searched for when empty)")
	flags.StringVar(&c.cfg.Camera, "camera", c.cfg.Camera, "camera index or video path; empty disables capture")
	flags.IntVar(&c.cfg.CameraRotation, "rotation", c.cfg.CameraRotation, "camera rotation in degrees: 0, 90, 180 or 270")
	flags.IntVar(&c.cfg.CameraFPS, "fps", c.cfg.CameraFPS, "camera frames per second")
	flags.Float64Var(&c.cfg.MotionThreshold, "motion-threshold", c.cfg.MotionThreshold, "percent of changed pixels that switches to active capture; 0 disables")
	flags.IntVar(&c.cfg.QueueSize, "queue-size", c.cfg.QueueSize, "frames allowed to wait for the worker")
	flags.StringVar(&c.cfg.MQTTBrokerURL, "mqtt-broker", c.cfg.MQTTBrokerURL, "MQTT broker URL; empty disables publishing")
	flags.StringVar(&c.cfg.MQTTClientID, "mqtt-client-id", c.cfg.MQTTClientID, "MQTT client ID")
	flags.StringVar(&c.cfg.MQTTTopicPrefix, "mqtt-topic-prefix", c.cfg.MQTTTopicPrefix, "MQTT topic prefix")
	flags.StringVar(&c.cfg.DeviceID, "device-id", c.cfg.DeviceID, "device ID used in MQTT topics")
	flags.StringVar(&c.cfg.SpeechCommand, "speech-command", c.cfg.SpeechCommand, "speech recognizer command line; empty disables speech")
	flags.BoolVar(&c.cfg.Tray, "tray", c.cfg.Tray, "show the system tray icon")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	cls, err := classifier.Load(cfg.ModelPath, cfg.LabelsPath)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	hub := events.NewHub()
	defer hub.Close()

	appCfg := app.Config{
		Classifier:      cls,
		MotionThreshold: cfg.MotionThreshold,
		Store:           st,
		Hub:             hub,
		QueueSize:       cfg.QueueSize,
		Logger:          logger,
	}

	if cfg.Camera != "" {
		cam, err := capture.NewCamera(cfg.Camera, cfg.CameraRotation)
		if err != nil {
			return err
		}
		cam.SetFPS(cfg.CameraFPS)
		appCfg.Camera = cam
	}

	if cfg.MQTTBrokerURL != "" {
		pub := publish.New(publish.Config{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			TopicPrefix: cfg.MQTTTopicPrefix,
			DeviceID:    cfg.DeviceID,
		}, logger)
		defer pub.Close()

		// Connect retries until the broker answers; recognition does not wait.
		go func() {
			if err := pub.Connect(ctx); err != nil && ctx.Err() == nil {
				logger.Error("mqtt unavailable", "error", err)
			}
		}()
		appCfg.Publisher = pub
	}

	if rec := speechRecognizer(cfg.SpeechCommand); rec != nil {
		appCfg.Recognizer = rec
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		logger.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       a,
		Logger:    logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe(ctx, cfg.HTTPAddr)
		cancel()
	}()

	if cfg.Tray {
		runTray(ctx, cancel, a, uiURL(cfg.HTTPAddr), logger)
	}

	err = <-errCh
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("shutting down")
	return err
}

// runTray blocks until the tray quits or ctx is done.
func runTray(ctx context.Context, cancel context.CancelFunc, a *app.App, url string, logger *slog.Logger) {
	t := tray.New()

	a.OnDecision(func(p pipeline.Prediction) {
		t.SetLastSign(p.Label, p.Confidence)
	})
	t.OnToggle(a.SetEnabled)
	t.OnListen(func(listening bool) error {
		if !listening {
			a.StopListening()
			return nil
		}
		_, err := a.StartListening()
		if err != nil {
			logger.Warn("speech unavailable", "error", err)
		}
		return err
	})
	t.OnReset(func() {
		if err := a.Reset(ctx); err != nil {
			logger.Warn("reset failed", "error", err)
		}
	})
	t.OnOpenUI(func() {
		if err := openBrowser(url); err != nil {
			logger.Warn("open browser failed", "url", url, "error", err)
		}
	})
	t.OnQuit(cancel)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// speechRecognizer splits a recognizer command line. A blank command
// disables speech.
func speechRecognizer(command string) *speech.CommandRecognizer {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return speech.NewCommandRecognizer(fields[0], fields[1:]...)
}

// uiURL turns a listen address into a browsable URL.
func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web"}
	if dataDir != "" {
		candidates = append(candidates, filepath.Join(dataDir, "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
