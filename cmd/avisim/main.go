package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	avi "github.com/Apoll011/avi-device"
	"github.com/Apoll011/avi-device/internal/audio"
	"github.com/Apoll011/avi-device/internal/config"
)

const (
	defaultConfigPath = "configs/avisim.yaml"
	serviceName       = "avisim"
	serviceVersion    = "1.0.0"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	streamPeer := flag.String("stream-peer", "", "Peer to run a periodic audio stream demo against")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Simulator starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.Uint64("device_id", cfg.Device.DeviceID),
		slog.String("gateway", cfg.Gateway.Address),
	)

	// Prometheus metrics endpoint
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				logger.Error("Metrics endpoint failed", slog.String("error", err.Error()))
			}
		}()
		logger.Info("Metrics endpoint started", slog.String("address", cfg.Metrics.Address))
	}

	// Transport: a real UDP socket wrapped in the injected-callback shape.
	conn, err := newUDPTransport(cfg.Gateway.BindAddress, cfg.Gateway.Address)
	if err != nil {
		logger.Error("Failed to create UDP transport", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	handler := avi.MessageHandlerFunc(func(topic string, data []byte) {
		logger.Info("Message delivered",
			slog.String("topic", topic),
			slog.Int("size", len(data)),
			slog.String("data", string(data)),
		)
	})

	scratch := make([]byte, cfg.Device.ScratchSize)
	instance, err := avi.New(
		avi.Config{
			DeviceID:        cfg.Device.DeviceID,
			QueueCapacity:   cfg.Device.QueueCapacity,
			MaxStreams:      cfg.Device.MaxStreams,
			CommandsPerPoll: cfg.Device.CommandsPerPoll,
		},
		scratch, conn, handler,
		avi.WithLogger(logger),
		avi.WithMetrics(registry),
	)
	if err != nil {
		logger.Error("Failed to create instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer instance.Close()

	if err := instance.Connect(); err != nil {
		logger.Error("Failed to queue connect", slog.String("error", err.Error()))
		os.Exit(1)
	}

	commandTopic := fmt.Sprintf("avi/home/device_%d/command", cfg.Device.DeviceID)
	if err := instance.Subscribe(commandTopic); err != nil {
		logger.Warn("Failed to queue subscribe", slog.String("error", err.Error()))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	pollTicker := time.NewTicker(cfg.Gateway.GetPollInterval())
	defer pollTicker.Stop()
	eventTicker := time.NewTicker(2 * time.Second)
	defer eventTicker.Stop()

	logger.Info("Entering main loop",
		slog.Duration("poll_interval", cfg.Gateway.GetPollInterval()),
		slog.String("command_topic", commandTopic),
	)

	counter := 0
	for {
		select {
		case sig := <-sigChan:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			logger.Info("Simulator stopped")
			return

		case <-pollTicker.C:
			if err := instance.Poll(); err != nil {
				logger.Warn("Poll reported errors", slog.String("error", err.Error()))
			}

		case <-eventTicker.C:
			counter++
			simulateActivity(instance, logger, counter, *streamPeer)
		}
	}
}

// simulateActivity produces the periodic traffic a real device would: button
// presses, sensor readings, a publish, and optionally one short audio burst.
func simulateActivity(instance *avi.Instance, logger *slog.Logger, counter int, streamPeer string) {
	if err := instance.ButtonPressed(1, avi.PressDouble); err != nil {
		logger.Warn("Button press rejected", slog.String("error", err.Error()))
	}

	temperature := 20.0 + float32(counter)*0.5
	if err := instance.UpdateSensorFloat("kitchen_temp", temperature); err != nil {
		logger.Warn("Sensor update rejected", slog.String("error", err.Error()))
	}

	if err := instance.UpdateSensorInt("battery", int32(100-counter%100)); err != nil {
		logger.Warn("Sensor update rejected", slog.String("error", err.Error()))
	}

	payload := fmt.Sprintf(`{"counter":%d}`, counter)
	if err := instance.Publish("avi/home/heartbeat", []byte(payload)); err != nil {
		logger.Warn("Publish rejected", slog.String("error", err.Error()))
	}

	if streamPeer != "" && counter%5 == 0 {
		runStreamBurst(instance, logger, streamPeer)
	}
}

// runStreamBurst starts a stream, queues one framed PCM buffer, and closes
// the stream again. The frames drain over the following polls.
func runStreamBurst(instance *avi.Instance, logger *slog.Logger, peer string) {
	const streamID = 1

	if err := instance.StartStream(streamID, peer, "sim-burst"); err != nil {
		logger.Warn("Stream start rejected", slog.String("error", err.Error()))
		return
	}

	framer, err := audio.NewFramer(avi.MaxPCMSize)
	if err != nil {
		logger.Error("Failed to create framer", slog.String("error", err.Error()))
		return
	}

	// One second of silence at 8 kHz mono 16-bit.
	pcm := make([]byte, 16000)
	for _, frame := range framer.Split(pcm) {
		if err := instance.SendAudio(streamID, frame); err != nil {
			logger.Warn("Audio frame rejected", slog.String("error", err.Error()))
			break
		}
	}

	if err := instance.CloseStream(streamID); err != nil {
		logger.Warn("Stream close rejected", slog.String("error", err.Error()))
	}
}

// initLogger creates and configures the structured logger based on configuration.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
