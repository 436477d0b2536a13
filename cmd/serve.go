package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vigil/config"
	"vigil/detect"
	"vigil/ingest"
	"vigil/util/goroutine"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxRequestBody = 8 * 1024 * 1024 // 8MB per evaluate request

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the evaluation API over HTTP",
		Long: `Loads the configured detections once and serves:

  POST /api/v1/evaluate   events in (JSON or NDJSON), verdicts out
  GET  /api/v1/rules      loaded detections
  GET  /metrics           Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			registry := detect.NewRegistry()
			loader := detect.NewLoader(registry, logger)
			if _, err := loader.LoadMany(cfg.RulesDir); err != nil {
				return err
			}
			engine := detect.NewEngine(registry, cfg.Engine.Workers, logger)

			srv := newServer(cfg, engine, logger)
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			httpServer := &http.Server{
				Addr:         addr,
				Handler:      srv.routes(),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				defer goroutine.Recover("http-server", logger)
				logger.Infof("Evaluation API listening on %s (%d detections)", addr, registry.Len())
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Infof("Received %s, shutting down", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}

// server holds the HTTP handler dependencies.
type server struct {
	cfg     *config.Config
	engine  *detect.Engine
	logger  *zap.SugaredLogger
	limiter *rate.Limiter
}

func newServer(cfg *config.Config, engine *detect.Engine, logger *zap.SugaredLogger) *server {
	return &server{
		cfg:     cfg,
		engine:  engine,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateLimit*2),
	}
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/evaluate", s.handleEvaluate).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/rules", s.handleRules).Methods(http.MethodGet)
	if s.cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
	return r
}

func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	events, err := ingest.LoadEvents(body)
	if err != nil {
		s.logger.Warnf("Rejected evaluate request: %v", err)
		http.Error(w, fmt.Sprintf("invalid events payload: %v", err), http.StatusBadRequest)
		return
	}

	var ruleIDs []string
	if raw := r.URL.Query().Get("rules"); raw != "" {
		ruleIDs = splitCommaList(raw)
	}
	matchingOnly := r.URL.Query().Get("matching") == "true"

	verdicts := s.engine.Run(events, ruleIDs)
	if matchingOnly {
		filtered := verdicts[:0]
		for _, v := range verdicts {
			if v.Matched {
				filtered = append(filtered, v)
			}
		}
		verdicts = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(verdicts); err != nil {
		s.logger.Errorf("Failed to write verdicts: %v", err)
	}
}

func (s *server) handleRules(w http.ResponseWriter, r *http.Request) {
	type ruleInfo struct {
		ID        string   `json:"id"`
		SourceRef string   `json:"source_ref"`
		Enabled   bool     `json:"enabled"`
		LogTypes  []string `json:"log_types,omitempty"`
		Tags      []string `json:"tags,omitempty"`
	}
	units := s.engine.Registry().Units()
	infos := make([]ruleInfo, 0, len(units))
	for _, u := range units {
		infos = append(infos, ruleInfo{
			ID: u.ID, SourceRef: u.SourceRef, Enabled: u.Enabled,
			LogTypes: u.LogTypes, Tags: u.Tags,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		s.logger.Errorf("Failed to write rules: %v", err)
	}
}

func splitCommaList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
