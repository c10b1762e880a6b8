package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/majin-sajjad/danny-bot/pkg/errors"
)

func TestRankOrdersByPointsThenDealsThenUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// alice: 2 points from one self-gen. bob: 2 points from two standards,
	// so deal count ranks him above alice. carol: 4 points, on top.
	f.mustRecord(t, 100, 1, "alice", "solar", "self", 0, 1)
	f.mustRecord(t, 100, 2, "bob", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 2, "bob", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 3, "carol", "solar", "self", 0, 1)
	f.mustRecord(t, 100, 3, "carol", "solar", "self", 0, 1)

	entries, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	wantOrder := []int64{3, 2, 1}
	for i, entry := range entries {
		if entry.UserID != wantOrder[i] {
			t.Fatalf("position %d: user %d, want %d", i, entry.UserID, wantOrder[i])
		}
		if entry.Rank != i+1 {
			t.Fatalf("position %d: rank %d, want %d", i, entry.Rank, i+1)
		}
	}

	if entries[0].TotalPoints != 4 || entries[0].SelfGeneratedDeals != 2 {
		t.Fatalf("carol entry: %+v", entries[0])
	}
	if entries[1].TotalPoints != 2 || entries[1].StandardDeals != 2 {
		t.Fatalf("bob entry: %+v", entries[1])
	}
}

func TestRankTieBreaksByUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Identical points and deal counts: the lower user id wins.
	f.mustRecord(t, 100, 7, "greg", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 3, "carol", "solar", "standard", 0, 1)

	entries, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != 3 || entries[1].UserID != 7 {
		t.Fatalf("unexpected tie-break order: %+v", entries)
	}
}

func TestRankMixedDealBreakdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustRecord(t, 100, 1, "alice", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 1, "alice", "solar", "self", 0, 1)

	entries, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.TotalPoints != 3 || e.TotalDeals != 2 || e.StandardDeals != 1 || e.SelfGeneratedDeals != 1 {
		t.Fatalf("unexpected aggregate: %+v", e)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustRecord(t, 100, 1, "alice", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 2, "bob", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 3, "carol", "fiber", "self", 0, 1)

	first, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
		if err != nil {
			t.Fatalf("Rank failed on run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestRankExcludesDisputedAndUnverified(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := f.mustRecord(t, 100, 1, "alice", "solar", "standard", 0, 1)
	flagged := f.mustRecord(t, 100, 2, "bob", "solar", "self", 0, 1)
	unverified := f.mustRecord(t, 100, 3, "carol", "solar", "standard", 0, 1)

	// A disputed deal stops counting even while still marked verified.
	if err := f.ledger.SetVerification(ctx, flagged.ID, 100, true, true, "challenged"); err != nil {
		t.Fatalf("SetVerification failed: %v", err)
	}
	if err := f.ledger.SetVerification(ctx, unverified.ID, 100, false, false, "pending review"); err != nil {
		t.Fatalf("SetVerification failed: %v", err)
	}

	entries, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != kept.UserID {
		t.Fatalf("expected only alice, got %+v", entries)
	}
}

func TestRankScopesToGuild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustRecord(t, 100, 1, "alice", "solar", "standard", 0, 1)
	f.mustRecord(t, 200, 2, "bob", "solar", "standard", 0, 1)

	entries, err := f.leaderboard.Rank(ctx, 100, WindowWeek(1))
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != 1 {
		t.Fatalf("expected only guild 100 entries, got %+v", entries)
	}

	_, err = f.leaderboard.Rank(ctx, 0, WindowWeek(1))
	if !errors.IsCode(err, errors.ErrValidation) {
		t.Fatalf("zero guild: expected %s, got %v", errors.ErrValidation, err)
	}
}

func TestRankTodayWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Deals inserted now land inside today's window whatever their week.
	f.mustRecord(t, 100, 1, "alice", "solar", "standard", 0, 1)
	f.mustRecord(t, 100, 1, "alice", "solar", "standard", 0, 2)

	entries, err := f.leaderboard.Rank(ctx, 100, WindowToday())
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(entries) != 1 || entries[0].TotalDeals != 2 {
		t.Fatalf("today window: got %+v", entries)
	}
}

func TestHistoryRequiresValidWeek(t *testing.T) {
	f := newFixture(t)

	_, err := f.leaderboard.History(context.Background(), 100, 0)
	if !errors.IsCode(err, errors.ErrValidation) {
		t.Fatalf("expected %s, got %v", errors.ErrValidation, err)
	}
}
