package infra

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"access-gateway/middleware/accessctrl/domain"
)

func TestWindowStore_FirstRequestAlwaysAllowed(t *testing.T) {
	s := NewWindowStore(time.Minute, 1)

	res := s.Admit("k", time.Now())
	if !res.Allowed {
		t.Fatalf("expected first request to pass")
	}
	if res.Count != 1 {
		t.Fatalf("expected count=1, got %d", res.Count)
	}
}

func TestWindowStore_DeniesBeyondMaxWithinWindow(t *testing.T) {
	s := NewWindowStore(time.Minute, 3)
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if res := s.Admit("k", base.Add(time.Duration(i)*time.Second)); !res.Allowed {
			t.Fatalf("expected request %d allowed", i+1)
		}
	}

	// quarta dentro da janela: nega
	res := s.Admit("k", base.Add(10*time.Second))
	if res.Allowed {
		t.Fatalf("expected fourth request denied")
	}
	if res.Count != 3 {
		t.Fatalf("expected count=3 on denial, got %d", res.Count)
	}
	// a vaga mais antiga (base) expira em base+60s => faltam 50s
	if res.RetryAfter != 50*time.Second {
		t.Fatalf("expected RetryAfter=50s, got %s", res.RetryAfter)
	}
}

func TestWindowStore_AllowsAgainAfterWindowElapses(t *testing.T) {
	s := NewWindowStore(time.Minute, 3)
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Admit("k", base.Add(time.Duration(i)*time.Second))
	}

	// depois de W desde a primeira, a primeira vaga já expirou
	res := s.Admit("k", base.Add(time.Minute))
	if !res.Allowed {
		t.Fatalf("expected request after window to pass")
	}
	if res.Count != 3 {
		t.Fatalf("expected the expired stamp pruned (count=3), got %d", res.Count)
	}
}

func TestWindowStore_KeysAreIndependent(t *testing.T) {
	s := NewWindowStore(time.Minute, 1)
	now := time.Now()

	if res := s.Admit("a", now); !res.Allowed {
		t.Fatalf("expected key a allowed")
	}
	if res := s.Admit("b", now); !res.Allowed {
		t.Fatalf("expected key b unaffected by key a")
	}
	if res := s.Admit("a", now); res.Allowed {
		t.Fatalf("expected key a denied on second request")
	}
}

func TestWindowStore_ConcurrentAdmitsNeverOverAdmit(t *testing.T) {
	// K requisições concorrentes, max N: exatamente N passam,
	// independente do entrelaçamento.
	const K = 64
	const N = 5

	s := NewWindowStore(time.Minute, N)
	now := time.Now()

	var admitted int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < K; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if res := s.Admit("k", now); res.Allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if admitted != N {
		t.Fatalf("expected exactly %d admitted, got %d", N, admitted)
	}
}

func TestWindowStore_CleanupRemovesIdleKeepsActive(t *testing.T) {
	s := NewWindowStore(50*time.Millisecond, 5, WithWindowIdleTTL(10*time.Millisecond), WithWindowCleanupEvery(0))

	s.Admit("idle", time.Now().Add(-time.Minute))
	s.Admit("active", time.Now())

	s.Cleanup()

	if got := s.Len(); got != 1 {
		t.Fatalf("expected only the active key to survive, got %d keys", got)
	}
}

func TestWindowStore_CleanupKeepsKeysWithLiveStamps(t *testing.T) {
	// lastSeen antigo mas timestamp ainda dentro da janela: não evita.
	s := NewWindowStore(time.Hour, 5, WithWindowIdleTTL(time.Nanosecond), WithWindowCleanupEvery(0))

	s.Admit("k", time.Now().Add(-time.Minute))
	time.Sleep(2 * time.Millisecond)

	s.Cleanup()

	if got := s.Len(); got != 1 {
		t.Fatalf("expected key with live stamps to survive, got %d keys", got)
	}
}

func TestWindowStore_ShardOptionIsStable(t *testing.T) {
	s := NewWindowStore(time.Minute, 1, WithWindowShards(4))
	now := time.Now()

	s.Admit("k", now)
	if res := s.Admit("k", now); res.Allowed {
		t.Fatalf("expected same key to land on the same shard and be denied")
	}
}

var _ domain.WindowStore = (*WindowStore)(nil)
