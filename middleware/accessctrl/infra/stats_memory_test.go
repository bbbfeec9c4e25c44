package infra

import (
	"context"
	"testing"

	"access-gateway/middleware/accessctrl/domain"
)

func TestMemoryStatsStore_CountsAllowedAndDenied(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Key: "k1", Allowed: true, Method: "GET", Path: "/a"})
	_ = s.Record(ctx, domain.StatsEvent{Key: "k1", Allowed: false, Reason: domain.ReasonRateLimited, Method: "POST", Path: "/a"})
	_ = s.Record(ctx, domain.StatsEvent{Key: "k2", Allowed: false, Reason: domain.ReasonInsufficientRole, Method: "GET", Path: "/admin"})

	total := s.Total()
	if total.Allowed != 1 || total.Denied != 2 {
		t.Fatalf("expected total 1/2, got %d/%d", total.Allowed, total.Denied)
	}

	byReason := s.ByReason()
	if byReason["rate_limited"] != 1 || byReason["insufficient_role"] != 1 {
		t.Fatalf("unexpected reason counters: %v", byReason)
	}

	byKey := s.ByKey()
	if byKey["k1"].Allowed != 1 || byKey["k1"].Denied != 1 {
		t.Fatalf("unexpected counters for k1: %+v", byKey["k1"])
	}

	byRoute := s.ByRoute()
	if byRoute["POST /a"].Denied != 1 {
		t.Fatalf("unexpected counters for POST /a: %+v", byRoute["POST /a"])
	}
}

func TestMemoryStatsStore_KeysNotTrackedByDefault(t *testing.T) {
	s := NewMemoryStatsStore()

	_ = s.Record(context.Background(), domain.StatsEvent{Key: "k", Allowed: true})

	if len(s.ByKey()) != 0 {
		t.Fatalf("expected no per-key tracking by default")
	}
}
