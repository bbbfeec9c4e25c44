package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"access-gateway/middleware/accessctrl"
	"access-gateway/middleware/accessctrl/domain"
	"access-gateway/middleware/accessctrl/infra"

	"github.com/rs/zerolog"
)

func main() {
	// Exemplo: injetando o middleware diretamente no seu webserver (sem proxy)
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store := infra.NewWindowStore(1*time.Minute, 5)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	hours := domain.AccessHours{StartHour: 21, EndHour: 18}

	h := http.Handler(mux)
	h = accessctrl.ConcurrencyMiddleware(accessctrl.ConcurrencyOptions{Max: 50, Logger: logger})(h)
	h = accessctrl.Middleware(accessctrl.Options{
		WindowStore: store,
		RatePolicy: domain.RatePolicy{
			Window:    1 * time.Minute,
			MaxEvents: 5,
			Methods:   []string{http.MethodPost},
		},
		AccessHours:        &hours,
		ProtectedPaths:     []string{"/admin"},
		TrustXForwardedFor: true,
		AddDecisionHeaders: true,
		Logger:             logger,
	})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("example server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}
