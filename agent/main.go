package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krsna-app/krsna/api/store"
	"github.com/krsna-app/krsna/pkg/otel"
	"github.com/krsna-app/krsna/shared/config"
	"github.com/krsna-app/krsna/shared/db"
	"github.com/krsna-app/krsna/shared/llm"
	"github.com/krsna-app/krsna/shared/protocol"
)

const reconnectDelay = 5 * time.Second

func main() {
	cfg := struct {
		DatabaseURL  string
		ServerURL    string
		AgentSecret  string
		LLMURL       string
		LLMAPIKey    string
		LLMModel     string
		MetricsAddr  string
		OTLPEndpoint string
		Environment  string
	}{
		DatabaseURL:  config.MustEnv("DATABASE_URL"),
		ServerURL:    config.MustEnv("SERVER_URL"),
		AgentSecret:  config.GetEnv("KRSNA_AGENT_SECRET", ""),
		LLMURL:       config.MustEnv("LLM_URL"),
		LLMAPIKey:    config.GetEnv("LLM_API_KEY", ""),
		LLMModel:     config.GetEnv("LLM_MODEL", "nvidia/nemotron-3-nano-30b-a3b:free"),
		MetricsAddr:  config.GetEnv("KRSNA_AGENT_METRICS_ADDR", ":9091"),
		OTLPEndpoint: config.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Environment:  config.GetEnv("KRSNA_ENVIRONMENT", "development"),
	}

	if cfg.OTLPEndpoint != "" {
		result, err := otel.Init(otel.Config{
			ServiceName:  "krsna-agent",
			Environment:  cfg.Environment,
			OTLPEndpoint: cfg.OTLPEndpoint,
		})
		if err != nil {
			slog.Error("failed to initialize opentelemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				result.Shutdown(shutdownCtx)
			}()
			slog.SetDefault(result.Logger)
			slog.Info("opentelemetry initialized", "endpoint", cfg.OTLPEndpoint)
		}
	} else {
		slog.SetDefault(slog.New(otel.NewPrettyHandler()))
		slog.Info("opentelemetry not configured, OTEL_EXPORTER_OTLP_ENDPOINT not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.ConnectSimple(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("database connected")

	s := store.New(pool)
	client := llm.NewClient(cfg.LLMURL, cfg.LLMAPIKey, cfg.LLMModel)
	slog.Info("llm client created", "model", cfg.LLMModel)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := runAgentLoop(ctx, cfg.ServerURL, cfg.AgentSecret, s, client); err != nil {
				slog.Error("agent loop error", "error", err)
			}
			slog.Info("reconnecting", "delay", reconnectDelay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
}

func runAgentLoop(ctx context.Context, serverURL, agentSecret string, s Store, client ChatStreamer) error {
	slog.Info("connecting to server", "url", serverURL)

	header := http.Header{}
	if agentSecret != "" {
		header.Set("Authorization", "Bearer "+agentSecret)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL, header)
	if err != nil {
		return err
	}
	defer conn.Close()
	slog.Info("connected to server")

	if err := subscribeAsAgent(conn); err != nil {
		return err
	}
	slog.Info("registered as agent")

	notifier := NewWSNotifier(conn)
	executor := NewExecutor(s)
	sessions := NewSessionManager(AgentDeps{
		Store:    s,
		LLM:      client,
		Notifier: notifier,
		Executor: executor,
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			slog.Error("decode error", "error", err)
			continue
		}

		if env.Type != protocol.TypeUserMessage || env.UserID == "" {
			continue
		}

		msg, err := protocol.DecodeBody[protocol.UserMessage](env)
		if err != nil {
			slog.Error("user message decode error", "error", err)
			continue
		}

		slog.Info("user message received", "user_id", env.UserID, "message_id", msg.ID)
		go func(userID string, msg *protocol.UserMessage) {
			if err := sessions.HandleUserMessage(ctx, userID, msg); err != nil {
				slog.Error("turn error", "user_id", userID, "error", err)
			}
		}(env.UserID, msg)
	}
}

func subscribeAsAgent(conn *websocket.Conn) error {
	env := protocol.NewEnvelope("", protocol.TypeSubscribe, protocol.Subscribe{AgentMode: true})
	data, err := env.Encode()
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}

	_, ackData, err := conn.ReadMessage()
	if err != nil {
		return err
	}

	ackEnv, err := protocol.DecodeEnvelope(ackData)
	if err != nil {
		return fmt.Errorf("decode subscribe ack: %w", err)
	}
	ack, err := protocol.DecodeBody[protocol.SubscribeAck](ackEnv)
	if err != nil {
		return fmt.Errorf("decode subscribe ack body: %w", err)
	}
	if !ack.Success {
		return fmt.Errorf("subscribe rejected: %s", ack.Error)
	}
	return nil
}
