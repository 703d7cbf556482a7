package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/monitoring"
	"github.com/taste-karachi/advisor-cli/internal/retrieval"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP consultation API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAdvisor(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		// Background alert loop over the audit log.
		checker := monitoring.NewChecker(
			monitoring.NewCollector(env.Store),
			monitoring.NewAlerter(cfg.Monitoring),
			cfg.Monitoring,
		)
		go checker.Run(ctx)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env, cfg.Monitoring.LookbackWindowHours),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// sessionRegistry holds in-memory chat sessions. The registry itself is
// concurrency-safe; individual sessions are single-writer, matching the
// conversation context contract.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*model.ConversationContext
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*model.ConversationContext)}
}

func (r *sessionRegistry) get(id string) (*model.ConversationContext, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.sessions[id]
	return conv, ok
}

func (r *sessionRegistry) put(id string, conv *model.ConversationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = conv
}

// chatRequest is the body of POST /v1/chat/{session}. A new session opens
// with features; follow-up turns carry a message.
type chatRequest struct {
	Features *model.RestaurantFeatures `json:"features,omitempty"`
	Message  string                    `json:"message,omitempty"`
}

func newRouter(env *advisorEnv, lookbackHours int) http.Handler {
	sessions := newSessionRegistry()

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/advise", func(w http.ResponseWriter, req *http.Request) {
		var features model.RestaurantFeatures
		if err := json.NewDecoder(req.Body).Decode(&features); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		resp, err := env.Advisor.Advise(req.Context(), features)
		if err != nil {
			writeAdviseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/v1/chat/{session}", func(w http.ResponseWriter, req *http.Request) {
		sessionID := chi.URLParam(req, "session")

		var body chatRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		conv, ok := sessions.get(sessionID)
		if !ok {
			if body.Features == nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown session: features are required to open one"})
				return
			}
			conv, resp, err := env.Advisor.StartConversation(req.Context(), *body.Features)
			if err != nil {
				writeAdviseError(w, err)
				return
			}
			sessions.put(sessionID, conv)
			writeJSON(w, http.StatusOK, resp)
			return
		}

		if body.Message == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
			return
		}
		resp, err := env.Advisor.Turn(req.Context(), conv, body.Message)
		if err != nil {
			writeAdviseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/v1/metrics", func(w http.ResponseWriter, req *http.Request) {
		payload := map[string]any{
			"process": env.Counters.Snapshot(),
		}
		if env.Store != nil {
			window, err := monitoring.NewCollector(env.Store).Collect(req.Context(), lookbackHours)
			if err != nil {
				zap.L().Warn("metrics window collection failed", zap.Error(err))
			} else {
				payload["window"] = window
			}
		}
		writeJSON(w, http.StatusOK, payload)
	})

	return r
}

func writeAdviseError(w http.ResponseWriter, err error) {
	if eris.Is(err, retrieval.ErrUnavailable) {
		zap.L().Error("review store unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "review store unavailable"})
		return
	}
	zap.L().Error("consultation failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
