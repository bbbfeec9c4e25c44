package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"access-gateway/middleware/accessctrl"
	"access-gateway/middleware/accessctrl/domain"
	"access-gateway/middleware/accessctrl/infra"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "access-gateway").Logger()

	cfg, err := readConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}

	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid UPSTREAM_URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// estratégia de rate limit: janela deslizante (padrão) ou token bucket.
	var windowStore domain.WindowStore
	switch cfg.rateStrategy {
	case "sliding":
		s := infra.NewWindowStore(cfg.rateWindow, cfg.rateMaxEvents)
		s.StartJanitor(ctx)
		windowStore = s
	case "bucket":
		s := infra.NewBucketStore(cfg.bucketRPS, cfg.bucketBurst)
		s.StartJanitor(ctx)
		windowStore = s
	default:
		logger.Fatal().Str("strategy", cfg.rateStrategy).Msg("unknown RATE_STRATEGY (use sliding or bucket)")
	}

	memStats := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.statsTrackKeys))
	var statsStore domain.StatsStore
	switch cfg.statsBackend {
	case "memory":
		statsStore = memStats
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancelPing()
		if err != nil {
			logger.Fatal().Err(err).Msg("redis stats ping error")
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackKeys(cfg.statsTrackKeys),
		)
	case "off":
		// sem stats
	default:
		logger.Fatal().Str("backend", cfg.statsBackend).Msg("unknown STATS_BACKEND (use memory, redis or off)")
	}

	var hours *domain.AccessHours
	if cfg.hoursEnabled {
		hours = &domain.AccessHours{StartHour: cfg.startHour, EndHour: cfg.endHour}
	}

	h := http.Handler(proxy)
	h = accessctrl.ConcurrencyMiddleware(accessctrl.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         logger,
	})(h)
	h = accessctrl.Middleware(accessctrl.Options{
		WindowStore: windowStore,
		RatePolicy: domain.RatePolicy{
			Window:       cfg.rateWindow,
			MaxEvents:    cfg.rateMaxEvents,
			Methods:      cfg.rateMethods,
			PathPrefixes: cfg.ratePaths,
		},
		RetryAfter:         cfg.retryAfter,
		AccessHours:        hours,
		ProtectedPaths:     cfg.protectedPaths,
		AllowedRoles:       cfg.allowedRoles,
		KeyHeader:          cfg.keyHeader,
		TrustXForwardedFor: cfg.trustXFF,
		RejectStatus:       cfg.rejectStatus,
		AddDecisionHeaders: cfg.addHeaders,
		Logger:             logger,
		LogRequests:        cfg.logRequests,
		Stats:              statsStore,
	})(h)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if cfg.statsBackend == "memory" {
		router.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"total":     memStats.Total(),
				"by_route":  memStats.ByRoute(),
				"by_reason": memStats.ByReason(),
			})
		})
	}
	router.Handle("/*", h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.listenAddr).Str("upstream", target.String()).Msg("gateway listening")
	logger.Info().
		Str("strategy", cfg.rateStrategy).
		Dur("window", cfg.rateWindow).
		Int("max_events", cfg.rateMaxEvents).
		Strs("methods", cfg.rateMethods).
		Strs("paths", cfg.ratePaths).
		Msg("rate limit")
	logger.Info().
		Bool("enabled", cfg.hoursEnabled).
		Int("start_hour", cfg.startHour).
		Int("end_hour", cfg.endHour).
		Msg("access hours")
	logger.Info().
		Strs("protected", cfg.protectedPaths).
		Strs("roles", cfg.allowedRoles).
		Msg("role gate")
	logger.Info().
		Str("backend", cfg.statsBackend).
		Int("concurrency_max", cfg.concurrencyMax).
		Msg("observability")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

type config struct {
	listenAddr  string
	upstreamURL string

	rateStrategy  string
	rateWindow    time.Duration
	rateMaxEvents int
	rateMethods   []string
	ratePaths     []string
	bucketRPS     float64
	bucketBurst   int
	retryAfter    time.Duration

	hoursEnabled bool
	startHour    int
	endHour      int

	protectedPaths []string
	allowedRoles   []string

	keyHeader    string
	trustXFF     bool
	rejectStatus int
	addHeaders   bool
	logRequests  bool

	concurrencyMax     int
	concurrencyTimeout time.Duration

	statsBackend       string
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackKeys     bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = os.Getenv("UPSTREAM_URL")

	cfg.rateStrategy = strings.ToLower(getenvDefault("RATE_STRATEGY", "sliding"))
	cfg.rateWindow = getenvDurationDefault("RATE_WINDOW", 1*time.Minute)
	cfg.rateMaxEvents = getenvIntDefault("RATE_MAX_EVENTS", 5)
	cfg.rateMethods = getenvListDefault("RATE_METHODS", []string{http.MethodPost})
	cfg.ratePaths = getenvListDefault("RATE_PATHS", []string{"/api/"})
	cfg.bucketRPS = getenvFloatDefault("BUCKET_RPS", 10)
	cfg.bucketBurst = getenvIntDefault("BUCKET_BURST", 20)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 1*time.Second)

	cfg.hoursEnabled = getenvBoolDefault("ACCESS_HOURS_ENABLED", true)
	cfg.startHour = getenvIntDefault("ACCESS_START_HOUR", 21)
	cfg.endHour = getenvIntDefault("ACCESS_END_HOUR", 18)

	cfg.protectedPaths = getenvListDefault("PROTECTED_PATHS", []string{"/admin"})
	cfg.allowedRoles = getenvListDefault("ALLOWED_ROLES", []string{"admin", "moderator"})

	cfg.keyHeader = os.Getenv("KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.rejectStatus = getenvIntDefault("REJECT_STATUS", http.StatusForbidden)
	cfg.addHeaders = getenvBoolDefault("ADD_DECISION_HEADERS", false)
	cfg.logRequests = getenvBoolDefault("LOG_REQUESTS", false)

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.statsBackend = strings.ToLower(getenvDefault("STATS_BACKEND", "memory"))
	cfg.statsRedisAddr = getenvDefault("STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "accessctrl:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackKeys = getenvBoolDefault("STATS_TRACK_KEYS", false)

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if cfg.rateWindow <= 0 {
		return config{}, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.rateMaxEvents <= 0 {
		return config{}, errors.New("RATE_MAX_EVENTS must be > 0")
	}
	if cfg.startHour < 0 || cfg.startHour > 23 || cfg.endHour < 0 || cfg.endHour > 23 {
		return config{}, errors.New("ACCESS_START_HOUR and ACCESS_END_HOUR must be in 0..23")
	}
	if cfg.bucketRPS <= 0 {
		return config{}, errors.New("BUCKET_RPS must be > 0")
	}
	if cfg.bucketBurst <= 0 {
		return config{}, errors.New("BUCKET_BURST must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.statsBackend == "redis" && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("STATS_REDIS_ADDR is required when STATS_BACKEND=redis")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getenvListDefault(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
