package domain

import (
	"strings"
	"time"
)

// Key identifica o cliente para fins de rate limit (ex: IP, API key, usuário).
type Key string

// AdmitResult é o resultado de uma tentativa de admissão na janela.
type AdmitResult struct {
	Allowed bool

	// Count é o total de eventos na janela após a poda (incluindo o evento
	// atual quando admitido).
	Count int

	// RetryAfter estima quando a vaga mais antiga expira. Só faz sentido
	// quando Allowed=false; 0 significa "sem recomendação".
	RetryAfter time.Duration
}

// WindowStore mantém o estado por chave e decide admitir ou não um evento
// no instante `now`.
//
// O ciclo ler-podar-anexar de uma mesma chave deve ser serializado pela
// implementação (mutex por shard/chave); duas requisições concorrentes não
// podem ser ambas admitidas quando resta uma única vaga.
type WindowStore interface {
	Admit(key Key, now time.Time) AdmitResult
}

// RatePolicy parametriza o limiter e o predicado de aplicabilidade.
//
// Só requisições que casam com Methods e PathPrefixes consomem vaga na
// janela; as demais nem tocam o estado.
type RatePolicy struct {
	Window    time.Duration
	MaxEvents int

	// Methods vazio aplica a todos os métodos.
	Methods []string

	// PathPrefixes vazio aplica a todos os paths; senão, casa por prefixo.
	PathPrefixes []string
}

// Applies implementa o predicado (method, path) -> bool da política.
func (p RatePolicy) Applies(method, path string) bool {
	if len(p.Methods) > 0 {
		ok := false
		for _, m := range p.Methods {
			if strings.EqualFold(m, method) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(p.PathPrefixes) == 0 {
		return true
	}
	for _, prefix := range p.PathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AccessHours configura a janela de horário permitida.
//
// A regra é a comparação literal `hour < StartHour && hour > EndHour`:
// com os padrões 21/18 apenas as horas 19 e 20 são negadas, e os limites
// 18 e 21 passam. Mantida assim de propósito (paridade de comportamento);
// ver DESIGN.md antes de "consertar".
type AccessHours struct {
	StartHour int // 0–23
	EndHour   int // 0–23
}

// Denies informa se a hora dada cai fora da janela permitida.
func (h AccessHours) Denies(hour int) bool {
	return hour < h.StartHour && hour > h.EndHour
}
