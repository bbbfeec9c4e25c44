package accessctrl

import (
	"net"
	"net/http"
	"strings"
	"time"

	"access-gateway/middleware/accessctrl/application"
	"access-gateway/middleware/accessctrl/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-Id"

type KeyFunc func(r *http.Request) string

type Options struct {
	// WindowStore nil desliga o rate limit; RatePolicy define janela, máximo
	// e o predicado método/path que decide quais requisições consomem vaga.
	WindowStore domain.WindowStore
	RatePolicy  domain.RatePolicy
	// RetryAfter é o fallback quando o store não estima (ex: token bucket).
	RetryAfter time.Duration

	// AccessHours nil desliga a janela de horário.
	AccessHours *domain.AccessHours

	// ProtectedPaths vazio desliga o gate de papel.
	ProtectedPaths []string
	AllowedRoles   []string

	KeyFn              KeyFunc
	PrincipalFn        PrincipalFunc
	KeyHeader          string
	TrustXForwardedFor bool

	// RejectStatus padrão é 403: negações de política são "forbidden",
	// qualquer que seja o gate.
	RejectStatus       int
	AddDecisionHeaders bool

	// Logger zero-value é silencioso (zerolog sem writer não emite nada).
	Logger zerolog.Logger
	// LogRequests liga uma linha por requisição (sink request_logging),
	// além das linhas de negação que sempre saem.
	LogRequests bool
	Stats       domain.StatsStore

	// Now injeta o relógio (testes). Padrão time.Now.
	Now func() time.Time
}

type windowInfo interface {
	Window() time.Duration
	MaxEvents() int
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if ip := clientIP(r, trustXFF); ip != "" {
			return ip
		}
		return "anonymous"
	}
}

// clientIP resolve o IP do cliente: primeiro IP do X-Forwarded-For quando
// confiável, senão o host de RemoteAddr.
func clientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			if len(parts) > 0 {
				if ip := strings.TrimSpace(parts[0]); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// Middleware monta a cadeia de gates na ordem fixa horário -> rate limit ->
// papel e devolve o wrapper http.Handler. A primeira negação curto-circuita
// com RejectStatus e o texto do motivo; o próximo handler não é chamado.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusForbidden
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.PrincipalFn == nil {
		opts.PrincipalFn = DefaultPrincipalFunc()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var gates []domain.Gate
	if opts.AccessHours != nil {
		gates = append(gates, application.TimeGate{Hours: *opts.AccessHours})
	}
	if opts.WindowStore != nil {
		gates = append(gates, application.RateGate{
			Store:      opts.WindowStore,
			Policy:     opts.RatePolicy,
			RetryAfter: opts.RetryAfter,
		})
	}
	if len(opts.ProtectedPaths) > 0 {
		gates = append(gates, application.RoleGate{
			Protected: opts.ProtectedPaths,
			Roles:     opts.AllowedRoles,
		})
	}
	chain := application.Chain{Gates: gates}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := opts.Now()

			reqID := strings.TrimSpace(r.Header.Get(headerRequestID))
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(headerRequestID, reqID)

			rc := domain.RequestContext{
				Key:       domain.Key(opts.KeyFn(r)),
				Method:    r.Method,
				Path:      r.URL.Path,
				ClientIP:  clientIP(r, opts.TrustXForwardedFor),
				Now:       now,
				Principal: opts.PrincipalFn(r),
			}

			if opts.AddDecisionHeaders {
				w.Header().Set("X-Access-Key", string(rc.Key))
				if wi, ok := opts.WindowStore.(windowInfo); ok {
					w.Header().Set("X-RateLimit-Window", wi.Window().String())
					w.Header().Set("X-RateLimit-Max", formatInt(wi.MaxEvents()))
				}
				if ri, ok := opts.WindowStore.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
				}
			}

			dec := chain.Decide(rc)
			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:     rc.Key,
					Allowed: dec.Allowed,
					Reason:  dec.Reason,
					Method:  rc.Method,
					Path:    rc.Path,
					At:      now,
				})
			}
			if opts.LogRequests {
				opts.Logger.Info().
					Str("sink", "request_logging").
					Str("req_id", reqID).
					Str("user", rc.Principal.DisplayName()).
					Str("method", rc.Method).
					Str("path", rc.Path).
					Bool("allowed", dec.Allowed).
					Msg("request")
			}
			if !dec.Allowed {
				logDenial(opts, reqID, rc, dec)
				if dec.RetryAfter > 0 {
					w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter.Seconds())))
				}
				http.Error(w, dec.Message, opts.RejectStatus)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// logDenial emite exatamente uma linha por negação, no sink da política que
// negou, com os campos que cada política promete.
func logDenial(opts Options, reqID string, rc domain.RequestContext, dec domain.Decision) {
	switch dec.Reason {
	case domain.ReasonRateLimited:
		opts.Logger.Warn().
			Str("sink", "rate_limiting").
			Str("req_id", reqID).
			Str("client_id", string(rc.Key)).
			Str("reason", dec.Reason.String()).
			Dur("window", opts.RatePolicy.Window).
			Int("max_events", opts.RatePolicy.MaxEvents).
			Msg("request denied")
	case domain.ReasonOutsideAllowedHours:
		opts.Logger.Warn().
			Str("sink", "access_restriction").
			Str("req_id", reqID).
			Str("user", rc.Principal.DisplayName()).
			Str("client_ip", rc.ClientIP).
			Int("hour", rc.Now.Hour()).
			Time("time", rc.Now).
			Msg("request denied")
	case domain.ReasonInsufficientRole:
		opts.Logger.Warn().
			Str("sink", "role_permission").
			Str("req_id", reqID).
			Str("user", rc.Principal.DisplayName()).
			Str("path", rc.Path).
			Msg("request denied")
	default:
		opts.Logger.Warn().
			Str("req_id", reqID).
			Str("reason", dec.Reason.String()).
			Msg("request denied")
	}
}
