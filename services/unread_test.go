package services

import (
	"strings"
	"testing"
)

func TestCountUnviewed(t *testing.T) {
	ids := []uint{1, 2, 3, 4, 5}

	if got := countUnviewed(ids, nil); got != 5 {
		t.Errorf("no viewed set: count = %d, want 5", got)
	}

	viewed := map[uint]bool{2: true, 4: true}
	if got := countUnviewed(ids, viewed); got != 3 {
		t.Errorf("partial overlap: count = %d, want 3", got)
	}

	all := map[uint]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	if got := countUnviewed(ids, all); got != 0 {
		t.Errorf("full overlap: count = %d, want 0", got)
	}

	// Viewed ids outside the unread set never go negative
	stale := map[uint]bool{100: true, 200: true}
	if got := countUnviewed(ids, stale); got != 5 {
		t.Errorf("stale viewed entries: count = %d, want 5", got)
	}

	if got := countUnviewed(nil, viewed); got != 0 {
		t.Errorf("no unread: count = %d, want 0", got)
	}
}

func TestSimulatedTransferCompletes(t *testing.T) {
	provider := SimulatedTransferProvider{}
	result, err := provider.Execute(nil, TransferRequest{
		Amount:   10000,
		Currency: "XOF",
		Method:   "mobile_money",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "completed" {
		t.Errorf("status = %q, want completed", result.Status)
	}
	if !strings.HasPrefix(result.Reference, "MM-") {
		t.Errorf("reference %q should carry the mobile money prefix", result.Reference)
	}
}

func TestSimulatedTransferKeepsReference(t *testing.T) {
	provider := SimulatedTransferProvider{}
	result, err := provider.Execute(nil, TransferRequest{Reference: "temp-abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reference != "temp-abc" {
		t.Errorf("reference = %q, want temp-abc", result.Reference)
	}
}
