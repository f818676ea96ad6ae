package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/finchat/advisor/consts"
)

func TestMemoryStoreGetUnknownReturnsEmptyState(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	state, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(state.History) != 0 {
		t.Fatalf("expected empty history, got %d turns", len(state.History))
	}
	if state.Profile.Age != nil || state.Profile.Income != nil {
		t.Fatal("expected empty profile")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	ctx := context.Background()
	state := NewState()
	age := 28
	state.Profile.Age = &age
	state.Append(consts.RoleUser, "hello")
	state.Append(consts.RoleAssistant, "hi, what are your goals?")

	if err := store.Put(ctx, "s1", state); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(state.History, got.History); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if got.Profile.Age == nil || *got.Profile.Age != 28 {
		t.Fatal("profile age not persisted")
	}
}

func TestMemoryStoreReturnsSnapshots(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	ctx := context.Background()
	state := NewState()
	state.Append(consts.RoleUser, "first")
	if err := store.Put(ctx, "s1", state); err != nil {
		t.Fatalf("Put: %v", err)
	}

	a, _ := store.Get(ctx, "s1")
	a.Append(consts.RoleUser, "mutating my copy")

	b, _ := store.Get(ctx, "s1")
	if len(b.History) != 1 {
		t.Fatalf("stored state leaked a caller mutation: %d turns", len(b.History))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	state := NewState()
	income := 52000.0
	state.Profile.Income = &income
	state.Profile.FinancialGoal = consts.GoalRetirement
	state.Append(consts.RoleUser, "saving for retirement")
	state.Append(consts.RoleAssistant, "good plan. how much do you earn?")

	if err := store.Put(ctx, "s1", state); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(state.History, got.History); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
	if got.Profile.Income == nil || *got.Profile.Income != 52000 {
		t.Fatal("income not persisted")
	}
	if got.Profile.FinancialGoal != consts.GoalRetirement {
		t.Fatalf("goal not persisted: %q", got.Profile.FinancialGoal)
	}

	// Overwrite with a longer history; Put replaces wholesale.
	state.Append(consts.RoleUser, "I make $52000")
	if err := store.Put(ctx, "s1", state); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, err = store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if len(got.History) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got.History))
	}
}

func TestSQLiteStoreUnknownID(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()

	state, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(state.History) != 0 {
		t.Fatal("expected fresh state for unknown id")
	}
}
