package application

import (
	"time"

	"access-gateway/middleware/accessctrl/domain"
)

// DefaultRateLimitMessage é o texto devolvido quando o limiter nega.
const DefaultRateLimitMessage = "you have exceeded the allowed number of messages in this window, slow down please"

// RateGate aplica o rate limit por janela deslizante.
//
// Só requisições que casam com Policy.Applies consomem vaga; as demais nem
// leem o store. Sem store configurado, o gate vira um no-op.
type RateGate struct {
	Store  domain.WindowStore
	Policy domain.RatePolicy

	// RetryAfter é usado quando o store não souber estimar (ex: token bucket).
	RetryAfter time.Duration

	Message string
}

func (g RateGate) Check(rc domain.RequestContext) domain.Decision {
	if g.Store == nil {
		return domain.Allow()
	}
	if !g.Policy.Applies(rc.Method, rc.Path) {
		return domain.Allow()
	}

	res := g.Store.Admit(rc.Key, rc.Now)
	if res.Allowed {
		return domain.Allow()
	}

	retry := res.RetryAfter
	if retry <= 0 {
		retry = g.RetryAfter
	}
	if retry <= 0 {
		retry = 1 * time.Second
	}

	msg := g.Message
	if msg == "" {
		msg = DefaultRateLimitMessage
	}
	return domain.Decision{
		Allowed:    false,
		Reason:     domain.ReasonRateLimited,
		Message:    msg,
		RetryAfter: retry,
	}
}
