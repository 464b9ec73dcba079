package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dmateos/courtside/internal/auth"
	"github.com/dmateos/courtside/internal/config"
	"github.com/dmateos/courtside/internal/handlers"
	"github.com/dmateos/courtside/internal/middleware"
	"github.com/dmateos/courtside/internal/store/sqlstore"
	"github.com/dmateos/courtside/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	st, err := sqlstore.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	hub := ws.NewHub(st, logger)

	conversationHandler := &handlers.ConversationHandler{Store: st, Logger: logger}
	notificationHandler := &handlers.NotificationHandler{Store: st, Logger: logger}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// WebSocket endpoint; the token rides in as a query parameter.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, verifier, w, r)
	})

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Authenticate(verifier))
	api.HandleFunc("/conversations", conversationHandler.List).Methods("GET")
	api.HandleFunc("/conversations/direct", conversationHandler.CreateDirect).Methods("POST")
	api.HandleFunc("/conversations/team", conversationHandler.CreateTeam).Methods("POST")
	api.HandleFunc("/conversations/{id}/messages", conversationHandler.GetMessages).Methods("GET")
	api.HandleFunc("/notifications", notificationHandler.List).Methods("GET")
	api.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods("PUT")

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loggingMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("took", time.Since(start)))
		})
	}
}
