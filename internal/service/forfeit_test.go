package service

import (
	"errors"
	"testing"
	"time"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

func TestForfeit_DuelAwardsTheOtherSide(t *testing.T) {
	tbl := testTables()
	b := startedDuel(t, tbl)
	b.Sides[1].Pending = &game.PendingAction{Move: "haunt", Turn: 1}

	changed, err := Forfeit(b, "side-2", "bob")
	if err != nil || !changed {
		t.Fatalf("expected a recorded forfeit, got changed=%v err=%v", changed, err)
	}
	if b.Status != game.StatusAborted || b.Winner != "side-1" {
		t.Fatalf("expected side-1 to win by forfeit, got status=%s winner=%q", b.Status, b.Winner)
	}
	if b.Message != "alice wins by forfeit." {
		t.Fatalf("unexpected message %q", b.Message)
	}
	s := &b.Sides[1]
	if !s.Forfeited || !s.Defeated || s.Pending != nil {
		t.Fatalf("unexpected forfeited side %+v", s)
	}
	if countEvents(b, game.EventForfeit) != 1 {
		t.Fatalf("expected one forfeit journal entry")
	}
}

func TestForfeit_Idempotent(t *testing.T) {
	tbl := testTables()
	b := startedDuel(t, tbl)
	if _, err := Forfeit(b, "side-2", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The battle is terminal now; repeating is a silent no-op.
	changed, err := Forfeit(b, "side-2", "bob")
	if changed || err != nil {
		t.Fatalf("expected a no-op, got changed=%v err=%v", changed, err)
	}
	changed, err = Forfeit(b, "side-1", "alice")
	if changed || err != nil {
		t.Fatalf("expected a no-op on a finished battle, got changed=%v err=%v", changed, err)
	}
}

func TestForfeit_Guards(t *testing.T) {
	tbl := testTables()

	b := startedDuel(t, tbl)
	if _, err := Forfeit(b, "side-9", ""); !errors.Is(err, ErrSideNotFound) {
		t.Fatalf("expected ErrSideNotFound, got %v", err)
	}
	if _, err := Forfeit(b, "side-1", "mallory"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	wild := startedWild(t, tbl)
	if _, err := Forfeit(wild, "side-2", ""); !errors.Is(err, ErrScriptedSide) {
		t.Fatalf("expected ErrScriptedSide, got %v", err)
	}
}

func TestForfeit_FormingBattleDisbands(t *testing.T) {
	tbl := testTables()
	b, err := NewBattle(tbl, "b1", game.KindDuel, []SideSpec{seat("alice", "bruiser"), {}}, 1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed, err := Forfeit(b, "side-1", "alice")
	if err != nil || !changed {
		t.Fatalf("expected the forfeit to land, got changed=%v err=%v", changed, err)
	}
	if b.Status != game.StatusAborted || b.Winner != "" {
		t.Fatalf("expected a disbanded battle, got status=%s winner=%q", b.Status, b.Winner)
	}
	last := b.Events[len(b.Events)-1]
	if last.Kind != game.EventBattleEnded || last.Detail != "disbanded" {
		t.Fatalf("unexpected journal entry %+v", last)
	}
}

func TestForfeit_FreeForAllContinues(t *testing.T) {
	tbl := testTables()
	specs := []SideSpec{seat("alice", "bruiser"), seat("bob", "shade"), seat("cara", "bruiser")}
	b, err := NewBattle(tbl, "b1", game.KindFreeForAll, specs, 1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changed, err := Forfeit(b, "side-3", "cara")
	if err != nil || !changed {
		t.Fatalf("expected the forfeit to land, got changed=%v err=%v", changed, err)
	}
	if b.Status != game.StatusAwaiting || b.Winner != "" {
		t.Fatalf("two sides remain, the battle must continue: status=%s winner=%q", b.Status, b.Winner)
	}
	if !b.Sides[2].Defeated {
		t.Fatalf("the forfeiting side must be out")
	}
	if b.RemainingSides() != 2 {
		t.Fatalf("expected 2 remaining sides, got %d", b.RemainingSides())
	}
}
