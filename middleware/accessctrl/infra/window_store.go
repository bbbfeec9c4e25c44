package infra

import (
	"hash/fnv"
	"sync"
	"time"

	"access-gateway/middleware/accessctrl/domain"
)

// WindowStore é a implementação em memória da janela deslizante: uma fatia
// ordenada de timestamps por chave, podada de forma preguiçosa a cada Admit.
//
// O mapa é particionado em shards com mutex próprio: o ciclo ler-podar-anexar
// de uma chave roda inteiro sob o lock do shard dela, então duas requisições
// concorrentes nunca são ambas admitidas na última vaga. Chaves distintas em
// shards distintos não se bloqueiam.
//
// Entradas nunca expiram sozinhas; o janitor (StartJanitor) remove chaves
// ociosas há mais de idleTTL. Sem ele o crescimento é ilimitado por cliente
// distinto — o mesmo comportamento do processo original.
type WindowStore struct {
	shards []windowShard

	window time.Duration
	max    int

	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type windowShard struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	// stamps fica ordenado por construção: só anexamos `now` no fim.
	stamps   []time.Time
	lastSeen time.Time
}

type WindowOption func(*WindowStore)

func WithWindowIdleTTL(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.idleTTL = d }
}

func WithWindowCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

func WithWindowShards(n int) WindowOption {
	return func(s *WindowStore) {
		if n > 0 {
			s.shards = make([]windowShard, n)
		}
	}
}

func NewWindowStore(window time.Duration, maxEvents int, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		shards:       make([]windowShard, 16),
		window:       window,
		max:          maxEvents,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*windowEntry)
	}
	return s
}

func (s *WindowStore) Window() time.Duration       { return s.window }
func (s *WindowStore) MaxEvents() int              { return s.max }
func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Admit implementa domain.WindowStore.
//
// Poda os timestamps com `now - ts >= window`, conta o que sobrou e, se ainda
// houver vaga, anexa `now`. Chave desconhecida começa com janela vazia (a
// primeira requisição sempre passa com max >= 1).
func (s *WindowStore) Admit(key domain.Key, now time.Time) domain.AdmitResult {
	sh := s.shard(string(key))

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[string(key)]
	if !ok {
		ent = &windowEntry{}
		sh.entries[string(key)] = ent
	}
	ent.lastSeen = now

	// poda preguiçosa: mantém apenas o que ainda está dentro da janela.
	kept := ent.stamps[:0]
	for _, ts := range ent.stamps {
		if now.Sub(ts) < s.window {
			kept = append(kept, ts)
		}
	}
	ent.stamps = kept

	if len(ent.stamps) >= s.max {
		retry := time.Duration(0)
		if len(ent.stamps) > 0 {
			retry = ent.stamps[0].Add(s.window).Sub(now)
			if retry < 0 {
				retry = 0
			}
		}
		return domain.AdmitResult{Allowed: false, Count: len(ent.stamps), RetryAfter: retry}
	}

	ent.stamps = append(ent.stamps, now)
	return domain.AdmitResult{Allowed: true, Count: len(ent.stamps)}
}

func (s *WindowStore) shard(key string) *windowShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.shards[int(h.Sum32())%len(s.shards)]
}

// Len devolve o total de chaves vivas (todas as shards). Útil em testes.
func (s *WindowStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Cleanup remove chaves sem atividade há mais de idleTTL.
// Nunca remove entradas com timestamps ainda dentro da janela.
func (s *WindowStore) Cleanup() {
	now := time.Now()
	cutoff := now.Add(-s.idleTTL)

	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if !ent.lastSeen.Before(cutoff) {
				continue
			}
			if len(ent.stamps) > 0 && now.Sub(ent.stamps[len(ent.stamps)-1]) < s.window {
				continue
			}
			delete(sh.entries, k)
		}
		sh.mu.Unlock()
	}
}

// StartJanitor inicia uma goroutine que limpa chaves inativas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
