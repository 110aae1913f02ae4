package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"webmoe/pkg/bot"
	"webmoe/pkg/config"
	"webmoe/pkg/discourse"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 18420

	maxPayloadBytes = 1 << 20
)

// Service hosts every configured bridge on one HTTP server and manages the
// bot adapter lifecycle around it.
type Service struct {
	cfg         *config.Config
	log         *slog.Logger
	bots        *bot.Registry
	adapters    []bot.Adapter
	dispatchers []*Dispatcher
}

// NewService wires adapters and bridge dispatchers from config.
func NewService(cfg *config.Config, adapters []bot.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one bot adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	bots := bot.NewRegistry()
	for _, adapter := range adapters {
		bots.Register(adapter)
	}

	dispatchers := make([]*Dispatcher, 0, len(cfg.Bridges))
	for _, bridgeCfg := range cfg.Bridges {
		dispatcher, err := NewDispatcher(bridgeCfg, bots, log)
		if err != nil {
			return nil, err
		}
		dispatchers = append(dispatchers, dispatcher)
	}

	return &Service{
		cfg:         cfg,
		log:         log.With("component", "bridge.service"),
		bots:        bots,
		adapters:    adapters,
		dispatchers: dispatchers,
	}, nil
}

// Run connects the bot adapters and serves webhooks until ctx is canceled.
//
// An adapter that fails to connect stays registered offline: its bridges
// keep answering with the "Bot is not online" envelope instead of taking
// the whole service down.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for _, adapter := range s.adapters {
		if err := adapter.Start(ctx); err != nil {
			s.log.Warn("Bot adapter failed to start", "bot_id", adapter.ID(), "error", err)
			continue
		}
		s.log.Info("Bot adapter started", "bot_id", adapter.ID())
	}
	defer func() {
		for _, adapter := range s.adapters {
			if err := adapter.Close(); err != nil {
				s.log.Warn("Bot adapter close failed", "bot_id", adapter.ID(), "error", err)
			}
		}
	}()

	server := &http.Server{
		Addr:              s.listenAddr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Webhook server started", "address", server.Addr, "bridges", s.bridgeNames())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start webhook server: %w", err)
	}

	return nil
}

// Handler builds the HTTP routing table for all bridges plus process health.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	for _, dispatcher := range s.dispatchers {
		mux.HandleFunc("POST "+dispatcher.Path(), s.handleWebhook(dispatcher))
		mux.HandleFunc("GET "+dispatcher.Path(), s.handleWebhookHealth)
	}

	mux.HandleFunc("GET /healthz", s.handleWebhookHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return mux
}

// handleWebhook accepts one Discourse event and responds with the bridge
// envelope. The HTTP status is 2xx for every outcome; the envelope status
// field is authoritative.
func (s *Service) handleWebhook(dispatcher *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		eventName := r.Header.Get(discourse.EventHeader)

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
		if err != nil {
			s.log.Warn("Failed to read webhook body", "bridge", dispatcher.Name(), "request_id", requestID, "error", err)
			payload = nil
		}

		envelope := dispatcher.Dispatch(r.Context(), eventName, payload)
		s.log.Info("Webhook handled",
			"bridge", dispatcher.Name(), "request_id", requestID,
			"event", eventName, "status", envelope.Status)

		writeJSON(w, http.StatusOK, envelope)
	}
}

// handleWebhookHealth answers reachability checks without touching bot or
// broadcast logic.
func (s *Service) handleWebhookHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, OK())
}

// handleReady reports ready once at least one bot is online.
func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	for _, b := range s.bots.All() {
		if b.Status() == bot.StatusOnline {
			writeJSON(w, http.StatusOK, OK())
			return
		}
	}

	writeJSON(w, http.StatusServiceUnavailable, Error(ReasonBotNotOnline))
}

func (s *Service) listenAddr() string {
	host := strings.TrimSpace(s.cfg.Server.Host)
	if host == "" {
		host = defaultHost
	}

	port := s.cfg.Server.Port
	if port <= 0 {
		port = defaultPort
	}

	return host + ":" + strconv.Itoa(port)
}

func (s *Service) bridgeNames() string {
	names := make([]string, 0, len(s.dispatchers))
	for _, dispatcher := range s.dispatchers {
		names = append(names, dispatcher.Name())
	}

	return strings.Join(names, ",")
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
