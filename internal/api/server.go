// Package api exposes the wallet and trade executor over HTTP REST.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/internal/config"
	"github.com/okanewa/tradewallet/internal/executor"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	exec   *executor.Executor
	log    *slog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, exec *executor.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, exec: exec, log: logger}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	s.log.Info("shutting down API server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/wallet", s.handleWallet)
		r.Get("/wallet/summary", s.handleWalletSummary)
		r.Post("/wallet/reset", s.handleWalletReset)

		r.Get("/quote/{symbol}", s.handleQuote)

		r.Post("/simulate", s.handleSimulate)
		r.Post("/trades", s.handleTrade)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TradeRequest is the body for POST /api/v1/trades and /api/v1/simulate.
type TradeRequest struct {
	Decision string `json:"decision"`
	Date     string `json:"date,omitempty"` // YYYY-MM-DD, default latest
}

// ResetRequest is the body for POST /api/v1/wallet/reset.
type ResetRequest struct {
	Cash     *float64           `json:"cash,omitempty"`
	Holdings map[string]float64 `json:"holdings,omitempty"`
}

// TradeResult is the response payload for an executed or previewed trade.
type TradeResult struct {
	Executed bool   `json:"executed"`
	Message  string `json:"message"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.exec.Wallet().State(),
	})
}

func (s *Server) handleWalletSummary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	valuation, err := s.exec.Valuate(ctx, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"summary":   s.exec.Wallet().Summary(),
			"valuation": valuation,
		},
	})
}

func (s *Server) handleWalletReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cash := decimal.NewFromFloat(s.cfg.Wallet.InitialCash)
	if req.Cash != nil {
		if *req.Cash < 0 {
			writeError(w, http.StatusBadRequest, "cash must not be negative")
			return
		}
		cash = decimal.NewFromFloat(*req.Cash)
	}

	var holdings map[string]decimal.Decimal
	if req.Holdings != nil {
		holdings = make(map[string]decimal.Decimal, len(req.Holdings))
		for sym, qty := range req.Holdings {
			if qty < 0 {
				writeError(w, http.StatusBadRequest, "holding quantities must not be negative")
				return
			}
			holdings[utils.NormalizeSymbol(sym)] = decimal.NewFromFloat(qty)
		}
	}

	if err := s.exec.Wallet().Reset(cash, holdings); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.exec.Wallet().State(),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	date := r.URL.Query().Get("date")

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.exec.Oracle().GetQuote(ctx, symbol, date),
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTradeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: TradeResult{
			Executed: false,
			Message:  s.exec.Simulate(ctx, req.Decision, req.Date),
		},
	})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTradeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	executed, msg := s.exec.Execute(ctx, req.Decision, req.Date)
	status := http.StatusOK
	if !executed {
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, APIResponse{
		Success: executed,
		Data: TradeResult{
			Executed: executed,
			Message:  msg,
		},
	})
}

// decodeTradeRequest decodes and validates a trade body, writing the
// error response itself on failure.
func decodeTradeRequest(w http.ResponseWriter, r *http.Request) (TradeRequest, bool) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Decision == "" {
		writeError(w, http.StatusBadRequest, "decision is required")
		return req, false
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date; use YYYY-MM-DD")
			return req, false
		}
	}
	return req, true
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
