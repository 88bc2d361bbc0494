package service

import (
	"testing"
	"time"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

func TestAnyRealAction(t *testing.T) {
	tbl := testTables()

	b := startedDuel(t, tbl)
	if AnyRealAction(b) {
		t.Fatalf("no side has acted yet")
	}
	if err := SubmitMove(tbl, b, ActionRequest{SideID: "side-1", Move: "jab", Turn: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !AnyRealAction(b) {
		t.Fatalf("a submitted action must count")
	}

	b = startedDuel(t, tbl)
	b.Sides[0].Pending = &game.PendingAction{Move: game.StruggleName, Turn: 1, Fallback: true}
	if AnyRealAction(b) {
		t.Fatalf("an injected fallback must not count")
	}

	wild := startedWild(t, tbl)
	wild.Sides[1].Pending = &game.PendingAction{Move: "haunt", Turn: 1}
	if AnyRealAction(wild) {
		t.Fatalf("a scripted pick must not count")
	}
}

func TestFillTimedOut(t *testing.T) {
	tbl := testTables()
	b := startedDuel(t, tbl)
	if err := SubmitMove(tbl, b, ActionRequest{SideID: "side-1", Move: "jab", Turn: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	filled := FillTimedOut(b)
	if len(filled) != 1 || filled[0] != "side-2" {
		t.Fatalf("expected only side-2 filled, got %v", filled)
	}
	p := b.Sides[1].Pending
	if p == nil || p.Move != game.StruggleName || !p.Fallback || p.Turn != 1 {
		t.Fatalf("unexpected fallback action %+v", p)
	}
	if !b.AllReady() {
		t.Fatalf("the battle must be ready to resolve after filling")
	}
	last := b.Events[len(b.Events)-1]
	if last.Kind != game.EventTimeout || last.Side != "side-2" {
		t.Fatalf("expected a timeout journal entry, got %+v", last)
	}
	// The submitted action is untouched.
	if b.Sides[0].Pending.Fallback {
		t.Fatalf("side-1's real action must not be marked as fallback")
	}
}

func TestFillTimedOut_OnlyWhileAwaiting(t *testing.T) {
	tbl := testTables()
	b := startedDuel(t, tbl)
	b.Status = game.StatusCompleted
	if filled := FillTimedOut(b); filled != nil {
		t.Fatalf("expected no fills on a finished battle, got %v", filled)
	}
}

func TestExpire(t *testing.T) {
	tbl := testTables()
	b := startedDuel(t, tbl)
	b.Sides[0].Pending = &game.PendingAction{Move: "jab", Turn: 1}
	b.ActionDeadline = time.Now().Add(time.Minute)

	Expire(b)
	if b.Status != game.StatusExpired || b.Winner != "" {
		t.Fatalf("expected an expired battle, got status=%s winner=%q", b.Status, b.Winner)
	}
	if b.Sides[0].Pending != nil {
		t.Fatalf("expiry must clear pending actions")
	}
	if !b.ActionDeadline.IsZero() {
		t.Fatalf("expiry must clear the deadline")
	}
	last := b.Events[len(b.Events)-1]
	if last.Kind != game.EventBattleEnded || last.Detail != "expired" {
		t.Fatalf("unexpected journal entry %+v", last)
	}

	// Expiring twice changes nothing.
	before := len(b.Events)
	Expire(b)
	if len(b.Events) != before {
		t.Fatalf("a second expiry must be a no-op")
	}
}
