// assistant connects to the local voice-processing backend and bridges it
// to the console: transcriptions and responses are printed as they stream
// in, typed lines are sent as text input.
//
// Usage: go run ./cmd/assistant --config configs/assistant.local.yaml
//
// Console commands:
//
//	/start   begin listening (microphone capture on the backend)
//	/stop    stop listening
//	/status  request a backend status push
//	/quit    disconnect and exit
//
// Any other line is sent to the backend as a text_input message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kit678/VoiceAgentPlanner/internal/audio"
	"github.com/kit678/VoiceAgentPlanner/internal/config"
	"github.com/kit678/VoiceAgentPlanner/internal/metrics"
	"github.com/kit678/VoiceAgentPlanner/internal/protocol"
	"github.com/kit678/VoiceAgentPlanner/internal/session"
	"github.com/kit678/VoiceAgentPlanner/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (empty = built-in defaults)")
	urlOverride := flag.String("url", "", "backend WebSocket URL (overrides config)")
	flag.Parse()

	// Load configuration first so the log level applies from the start
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if *urlOverride != "" {
		cfg.Server.URL = *urlOverride
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting assistant client",
		"version", version.Version,
		"commit", version.Commit,
		"backend", cfg.Server.URL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		go func() {
			logger.Info("metrics listening", "addr", addr, "path", cfg.Metrics.Path)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	// Create the session
	mgr := session.NewManager(session.Config{
		URL:                  cfg.Server.URL,
		HandshakeTimeout:     cfg.Session.HandshakeTimeout,
		WriteTimeout:         cfg.Session.WriteTimeout,
		PingInterval:         cfg.Session.PingInterval,
		PongTimeout:          cfg.Session.PongTimeout,
		ReconnectBaseDelay:   cfg.Session.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Session.ReconnectMaxDelay,
		MaxReconnectAttempts: cfg.Session.MaxReconnectAttempts,
		QueueCapacity:        cfg.Queue.Capacity,
		QueueOverflow:        session.OverflowPolicy(cfg.Queue.Overflow),
		ReadBufferSize:       cfg.Session.ReadBufferSize,
	}, logger)

	mgr.OnConnectionChange(func(s session.State) {
		fmt.Printf("[session] %s\n", s)
	})
	mgr.OnTranscription(func(t protocol.TranscriptionPayload) {
		marker := "…"
		if t.IsFinal {
			marker = fmt.Sprintf("(%.2f)", t.Confidence)
		}
		fmt.Printf("[you] %s %s\n", t.Text, marker)
	})
	mgr.OnResponse(func(r protocol.ResponsePayload) {
		fmt.Printf("[assistant] %s\n", r.Text)
	})
	mgr.OnError(func(msg string) {
		fmt.Printf("[error] %s\n", msg)
	})
	mgr.Handle(protocol.KindStatus, func(env protocol.Envelope) {
		var s protocol.StatusPayload
		if err := protocol.DecodePayload(env, &s); err != nil {
			logger.Warn("malformed status payload", "error", err)
			return
		}
		fmt.Printf("[status] listening=%v pipeline_ready=%v %s\n", s.Listening, s.PipelineReady, s.Message)
	})
	mgr.Handle(protocol.KindAudioResponse, func(env protocol.Envelope) {
		buf, format, err := audio.DecodeResponseEnvelope(env)
		if err != nil {
			logger.Warn("malformed audio response", "error", err)
			return
		}
		// Playback belongs to the UI layer; just report what arrived.
		fmt.Printf("[audio] %d bytes (%s)\n", len(buf), format)
	})

	if err := mgr.Connect(ctx); err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}

	// Console loop
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
			case line == "/quit":
				cancel()
				return
			case line == "/start":
				mgr.StartListening()
			case line == "/stop":
				mgr.StopListening()
			case line == "/status":
				mgr.RequestStatus()
			default:
				result, err := mgr.SendText(line)
				if err != nil {
					logger.Warn("send failed", "error", err)
					continue
				}
				if result != session.SendTransmitted {
					fmt.Printf("[session] message %s\n", result)
				}
			}
		}
		cancel()
	}()

	<-ctx.Done()

	mgr.Disconnect()
	logger.Info("assistant client stopped",
		"queued", mgr.QueueStats().Len,
	)
}

func loadConfig(path string) (*config.ClientConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
