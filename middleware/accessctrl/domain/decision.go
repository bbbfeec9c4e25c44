package domain

// Camada de domínio do controle de acesso.
//
// Cada política é um Gate: recebe o contexto da requisição e devolve uma
// Decision. A composição é uma lista ordenada percorrida pela camada de
// application, sem herança.

import "time"

// Reason identifica por que uma requisição foi negada.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonRateLimited
	ReasonOutsideAllowedHours
	ReasonInsufficientRole
)

func (r Reason) String() string {
	switch r {
	case ReasonRateLimited:
		return "rate_limited"
	case ReasonOutsideAllowedHours:
		return "outside_allowed_hours"
	case ReasonInsufficientRole:
		return "insufficient_role"
	default:
		return "none"
	}
}

// Decision é o resultado de um gate (ou da cadeia inteira).
//
// Negações são valores, nunca erros: o chamador traduz para status HTTP.
type Decision struct {
	Allowed bool
	Reason  Reason

	// Message é o texto devolvido ao cliente quando negar.
	Message string

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Allow é a decisão neutra de passagem.
func Allow() Decision { return Decision{Allowed: true} }

// RequestContext carrega o que os gates precisam saber de uma requisição,
// sem expor net/http. Now é injetado pelo adapter (testável).
type RequestContext struct {
	Key       Key
	Method    string
	Path      string
	ClientIP  string
	Now       time.Time
	Principal Principal
}

// Gate representa uma política que decide allow/deny para uma requisição.
//
// Implementações podem ter estado (ex: janela deslizante) ou não (ex: horário).
type Gate interface {
	Check(rc RequestContext) Decision
}
