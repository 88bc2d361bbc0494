package arena

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/service"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/storage"
)

func testTables() *game.Tables {
	return &game.Tables{
		Species: map[string]game.Species{
			"bruiser": {
				Name:      "bruiser",
				Types:     []string{"normal"},
				BaseHP:    50,
				BaseStats: game.Stats{Attack: 50, Defense: 50, Speed: 50},
				Learnset:  []string{"jab", "guard"},
			},
		},
		Moves: map[string]game.MoveDef{
			"jab": {Name: "jab", Type: "normal", Power: 40, Accuracy: 100, Uses: 10, Target: game.TargetOpponent},
			"guard": {
				Name: "guard", Type: "normal", Power: 0, Accuracy: 100, Uses: 10, Target: game.TargetSelf,
				Effect: game.MoveEffect{Stat: "defense", Stages: 1, StatChance: 1, StatTarget: game.TargetSelf},
			},
		},
		Chart: game.TypeChart{},
		Balance: game.Balance{
			VarianceMin: 100, VarianceMax: 100,
			CritMultiplier:     1.5,
			ParalysisSpeedMult: 0.5,
			BurnAttackMult:     0.5,
			BurnTickDivisor:    16,
			PoisonTickDivisor:  8,
			SleepTurnsMin:      2, SleepTurnsMax: 2,
			ConfusionTurnsMin: 2, ConfusionTurnsMax: 2,
			ConfusionSelfHitPower: 40,
		},
	}
}

func testOptions() Options {
	return Options{
		ActionTimeout:  time.Hour,
		IdleLimit:      3,
		PersistRetries: 1,
		RetryBackoff:   time.Millisecond,
		Mailbox:        16,
	}
}

func openArenaRepo(t *testing.T) (storage.Repository, *gorm.DB) {
	t.Helper()
	db, err := storage.OpenAndMigrate(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	return storage.NewSQLiteRepository(db), db
}

func newTestRegistry(t *testing.T, opts Options) (*Registry, storage.Repository) {
	t.Helper()
	repo, _ := openArenaRepo(t)
	return NewRegistry(testTables(), repo, opts), repo
}

func duelSpecs(a, b string) []service.SideSpec {
	return []service.SideSpec{
		{Participant: a, Roster: []service.RosterSpec{{Species: "bruiser"}}},
		{Participant: b, Roster: []service.RosterSpec{{Species: "bruiser"}}},
	}
}

func jabRequest(b *game.Battle, sideID string) service.ActionRequest {
	side := b.Side(sideID)
	return service.ActionRequest{
		SideID:      sideID,
		Participant: side.Participant,
		Move:        "jab",
		Turn:        b.Turn,
	}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// flakyRepo fails snapshot writes on demand; everything else passes
// through to the real repository.
type flakyRepo struct {
	storage.Repository
	mu   sync.Mutex
	fail bool
}

func (f *flakyRepo) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *flakyRepo) SaveSnapshot(b *game.Battle) error {
	f.mu.Lock()
	failing := f.fail
	f.mu.Unlock()
	if failing {
		return errors.New("disk full")
	}
	return f.Repository.SaveSnapshot(b)
}

func TestCreate_StartsSessionAndPersists(t *testing.T) {
	reg, repo := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != game.StatusAwaiting || b.Turn != 1 {
		t.Fatalf("expected a started duel, got %s turn %d", b.Status, b.Turn)
	}
	if reg.Count() != 1 {
		t.Fatalf("expected one live session, got %d", reg.Count())
	}

	stored, err := repo.LatestSnapshot(b.ID)
	if err != nil || stored.Turn != 1 {
		t.Fatalf("initial snapshot missing: %+v, %v", stored, err)
	}

	// Handed-out state is a copy; scribbling on it must not leak into
	// the session.
	b.Message = "tampered"
	got, err := reg.State(b.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if got.Message == "tampered" {
		t.Fatalf("registry returned aliased state")
	}
	if got.ActionDeadline.IsZero() {
		t.Fatalf("expected an armed action deadline")
	}
}

func TestCreate_WildStartsWithScriptedPick(t *testing.T) {
	reg, _ := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindWild, []service.SideSpec{
		{Participant: "alice", Roster: []service.RosterSpec{{Species: "bruiser"}}},
		{Scripted: true, Roster: []service.RosterSpec{{Species: "bruiser"}}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != game.StatusAwaiting {
		t.Fatalf("wild battles start seated, got %s", b.Status)
	}
	var scripted *game.Side
	for i := range b.Sides {
		if b.Sides[i].Scripted {
			scripted = &b.Sides[i]
		}
	}
	if scripted == nil || scripted.Pending == nil || scripted.Pending.Turn != 1 {
		t.Fatalf("expected the scripted side to have picked, got %+v", scripted)
	}
	if b.ActionDeadline.IsZero() {
		t.Fatalf("expected an armed action deadline")
	}
}

func TestCreate_ParticipantBusy(t *testing.T) {
	reg, _ := newTestRegistry(t, testOptions())

	first, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reg.Create(game.KindDuel, duelSpecs("alice", "carol")); !errors.Is(err, ErrParticipantBusy) {
		t.Fatalf("expected ErrParticipantBusy, got %v", err)
	}
	if reg.Count() != 1 {
		t.Fatalf("failed create must not leave a session behind")
	}

	// Once the battle retires, both seats free up.
	if _, err := reg.Forfeit(first.ID, "side-1", "alice"); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	waitUntil(t, "session eviction", func() bool { return reg.Count() == 0 })
	if _, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob")); err != nil {
		t.Fatalf("expected freed participants to create again, got %v", err)
	}
}

func TestJoin_FillsOpenSeat(t *testing.T) {
	reg, _ := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindDuel, []service.SideSpec{
		{Participant: "alice", Roster: []service.RosterSpec{{Species: "bruiser"}}},
		{},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != game.StatusForming {
		t.Fatalf("open seat should leave the battle forming, got %s", b.Status)
	}

	joined, err := reg.Join(b.ID, "bob", []service.RosterSpec{{Species: "bruiser"}})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Status != game.StatusAwaiting || joined.Turn != 1 {
		t.Fatalf("expected the join to start the battle, got %s turn %d", joined.Status, joined.Turn)
	}

	if _, err := reg.Join("missing", "carol", []service.RosterSpec{{Species: "bruiser"}}); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound, got %v", err)
	}
	if _, err := reg.Join(b.ID, "carol", []service.RosterSpec{{Species: "bruiser"}}); !errors.Is(err, service.ErrNotForming) {
		t.Fatalf("expected ErrNotForming, got %v", err)
	}
	// The rejected join must roll carol's reservation back.
	if _, err := reg.Create(game.KindDuel, duelSpecs("carol", "dave")); err != nil {
		t.Fatalf("carol should be free after the rejected join, got %v", err)
	}
}

func TestSubmitAction_ResolvesWhenAllIn(t *testing.T) {
	reg, repo := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	st, resolved, err := reg.SubmitAction(b.ID, jabRequest(b, "side-1"))
	if err != nil || resolved {
		t.Fatalf("first submission must wait, got resolved=%v err=%v", resolved, err)
	}
	if st.Turn != 1 {
		t.Fatalf("turn advanced early")
	}

	st, resolved, err = reg.SubmitAction(b.ID, jabRequest(b, "side-2"))
	if err != nil || !resolved {
		t.Fatalf("second submission must resolve, got resolved=%v err=%v", resolved, err)
	}
	if st.Turn != 2 || st.Status != game.StatusAwaiting {
		t.Fatalf("expected turn 2 awaiting, got turn %d %s", st.Turn, st.Status)
	}
	for i := range st.Sides {
		if hp := st.Sides[i].Roster[0].HP; hp != 91 {
			t.Fatalf("side %d HP = %d, want 91", i, hp)
		}
	}

	if _, err := repo.SnapshotAt(b.ID, 2); err != nil {
		t.Fatalf("resolved turn was not persisted: %v", err)
	}
	turns, err := reg.History(b.ID)
	if err != nil || len(turns) != 2 || turns[0] != 1 || turns[1] != 2 {
		t.Fatalf("expected history [1 2], got %v, %v", turns, err)
	}
	old, err := reg.StateAt(b.ID, 1)
	if err != nil || old.Turn != 1 {
		t.Fatalf("expected the turn 1 snapshot, got %+v, %v", old, err)
	}
	if _, err := reg.StateAt("missing", 1); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound, got %v", err)
	}
	if _, err := reg.History("missing"); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound, got %v", err)
	}
}

func TestFinishedBattleServesFromStorage(t *testing.T) {
	reg, _ := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reg.Forfeit(b.ID, "side-1", "alice"); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	waitUntil(t, "session eviction", func() bool { return reg.Count() == 0 })

	st, err := reg.State(b.ID)
	if err != nil {
		t.Fatalf("state after eviction: %v", err)
	}
	if st.Status != game.StatusAborted || st.Winner != "side-2" {
		t.Fatalf("expected the stored terminal state, got %s winner %q", st.Status, st.Winner)
	}

	if _, _, err := reg.SubmitAction(b.ID, jabRequest(b, "side-2")); !errors.Is(err, ErrBattleFinished) {
		t.Fatalf("expected ErrBattleFinished, got %v", err)
	}
	if _, err := reg.State("missing"); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound, got %v", err)
	}
	if _, _, err := reg.ForceTimeout(b.ID); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("expected ErrBattleNotFound for an evicted battle, got %v", err)
	}
}

func TestTimeout_FillsMissingActions(t *testing.T) {
	opts := testOptions()
	opts.ActionTimeout = 5 * time.Millisecond
	reg, _ := newTestRegistry(t, opts)

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := reg.SubmitAction(b.ID, jabRequest(b, "side-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	waitUntil(t, "deadline sweep to resolve the turn", func() bool {
		return reg.SweepTimeouts(time.Now()) > 0
	})

	st, err := reg.State(b.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Turn != 2 {
		t.Fatalf("expected the sweep to resolve turn 1, got turn %d", st.Turn)
	}
	if st.IdleTimeouts != 0 {
		t.Fatalf("a turn with a real action must not count as idle")
	}
	timedOut, struggled := false, false
	for _, e := range st.Events {
		if e.Kind == game.EventTimeout && e.Side == "side-2" {
			timedOut = true
		}
		if e.Kind == game.EventMoveUsed && e.Side == "side-2" && e.Move == game.StruggleName {
			struggled = true
		}
	}
	if !timedOut || !struggled {
		t.Fatalf("expected side-2 to struggle on timeout, events %+v", st.Events)
	}
}

func TestTimeout_IdleBattleExpires(t *testing.T) {
	opts := testOptions()
	opts.ActionTimeout = time.Millisecond
	opts.IdleLimit = 2
	reg, _ := newTestRegistry(t, opts)

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	waitUntil(t, "idle battle to expire", func() bool {
		reg.SweepTimeouts(time.Now())
		return reg.Count() == 0
	})

	st, err := reg.State(b.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Status != game.StatusExpired {
		t.Fatalf("expected the battle to expire, got %s", st.Status)
	}
	if st.Winner != "" {
		t.Fatalf("expired battles have no winner, got %q", st.Winner)
	}
}

func TestPersistFailureFreezesThenThaws(t *testing.T) {
	repo, _ := openArenaRepo(t)
	flaky := &flakyRepo{Repository: repo}
	reg := NewRegistry(testTables(), flaky, testOptions())

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := reg.SubmitAction(b.ID, jabRequest(b, "side-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	flaky.setFail(true)
	if _, _, err := reg.SubmitAction(b.ID, jabRequest(b, "side-2")); !errors.Is(err, ErrBattleFrozen) {
		t.Fatalf("expected ErrBattleFrozen, got %v", err)
	}

	st, err := reg.State(b.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !st.Frozen || st.Turn != 1 {
		t.Fatalf("expected a frozen battle still on turn 1, got frozen=%v turn %d", st.Frozen, st.Turn)
	}
	if st.Side("side-2").Pending != nil {
		t.Fatalf("the unpersisted submission must be discarded")
	}
	if _, _, err := reg.SubmitAction(b.ID, jabRequest(b, "side-2")); !errors.Is(err, ErrBattleFrozen) {
		t.Fatalf("frozen battles reject actions, got %v", err)
	}

	// The sweep retries persistence while the repo still fails and the
	// battle stays frozen.
	reg.SweepTimeouts(time.Now())
	st, _ = reg.State(b.ID)
	if !st.Frozen {
		t.Fatalf("battle thawed while writes still fail")
	}

	flaky.setFail(false)
	waitUntil(t, "battle to thaw", func() bool {
		reg.SweepTimeouts(time.Now())
		st, err := reg.State(b.ID)
		return err == nil && !st.Frozen
	})

	st, resolved, err := reg.SubmitAction(b.ID, jabRequest(b, "side-2"))
	if err != nil || !resolved {
		t.Fatalf("thawed battle must accept actions, got resolved=%v err=%v", resolved, err)
	}
	if st.Turn != 2 {
		t.Fatalf("expected turn 2 after the thawed resolution, got %d", st.Turn)
	}
}

func recoverableBattle(id, p1, p2 string) *game.Battle {
	mk := func(idx int, participant string) game.Side {
		return game.Side{
			ID:          fmt.Sprintf("side-%d", idx),
			Participant: participant,
			Roster: []game.Combatant{{
				Species: "bruiser",
				Level:   50,
				HP:      110,
				MaxHP:   110,
				Stats:   game.Stats{Attack: 55, Defense: 55, Speed: 55},
				Moves:   []game.MoveSlot{{Name: "jab", UsesLeft: 10}},
			}},
		}
	}
	b := &game.Battle{
		ID:       id,
		Kind:     game.KindDuel,
		Turn:     1,
		Status:   game.StatusAwaiting,
		Sides:    []game.Side{mk(1, p1), mk(2, p2)},
		RandSeed: 7,
		Message:  "The battle has started. Choose your actions.",
	}
	b.Record(game.Event{Kind: game.EventBattleStarted})
	b.Record(game.Event{Kind: game.EventTurnOpened})
	return b
}

func TestRecover_RestoresActiveBattles(t *testing.T) {
	repo, _ := openArenaRepo(t)
	if err := repo.SaveSnapshot(recoverableBattle("b-live", "dora", "edgar")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	done := recoverableBattle("b-done", "fay", "gus")
	done.Status = game.StatusCompleted
	done.Winner = "side-1"
	if err := repo.SaveSnapshot(done); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(testTables(), repo, testOptions())
	n, err := reg.Recover()
	if err != nil || n != 1 {
		t.Fatalf("expected one recovered battle, got %d, %v", n, err)
	}
	if reg.Count() != 1 {
		t.Fatalf("expected one live session, got %d", reg.Count())
	}

	// The recovered battle is live again: reservations hold and play
	// continues where the snapshot stopped.
	if _, err := reg.Create(game.KindDuel, duelSpecs("dora", "zed")); !errors.Is(err, ErrParticipantBusy) {
		t.Fatalf("expected ErrParticipantBusy for a recovered participant, got %v", err)
	}
	st, err := reg.State("b-live")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.ActionDeadline.IsZero() {
		t.Fatalf("recovery must re-arm the action deadline")
	}
	if _, _, err := reg.SubmitAction("b-live", jabRequest(st, "side-1")); err != nil {
		t.Fatalf("submit to recovered battle: %v", err)
	}
	res, resolved, err := reg.SubmitAction("b-live", jabRequest(st, "side-2"))
	if err != nil || !resolved || res.Turn != 2 {
		t.Fatalf("recovered battle did not resolve: resolved=%v turn=%d err=%v", resolved, res.Turn, err)
	}
}

func TestRecover_TombstonesBadRows(t *testing.T) {
	repo, db := openArenaRepo(t)

	if err := repo.SaveSnapshot(recoverableBattle("a-dup", "dora", "edgar")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Same participant again: recovery adopts the first battle and
	// quarantines the second.
	if err := repo.SaveSnapshot(recoverableBattle("b-dup", "dora", "hana")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// A blob that does not decode.
	corrupt := storage.BattleRecord{
		BattleID:      "c-corrupt",
		Turn:          1,
		SchemaVersion: storage.SchemaVersion,
		Status:        string(game.StatusAwaiting),
		State:         []byte("junk"),
	}
	if err := db.Create(&corrupt).Error; err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}
	// A battle referencing a species the current tables do not define.
	ghost := recoverableBattle("d-ghost", "ivy", "jude")
	ghost.Sides[0].Roster[0].Species = "ghostkin"
	if err := repo.SaveSnapshot(ghost); err != nil {
		t.Fatalf("seed: %v", err)
	}

	reg := NewRegistry(testTables(), repo, testOptions())
	n, err := reg.Recover()
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if n != 1 || reg.Count() != 1 {
		t.Fatalf("expected exactly the first battle back, got n=%d live=%d", n, reg.Count())
	}

	for _, id := range []string{"b-dup", "c-corrupt", "d-ghost"} {
		st, err := repo.LatestSnapshot(id)
		if err != nil {
			t.Fatalf("tombstone read %s: %v", id, err)
		}
		if st.Status != game.StatusAborted {
			t.Fatalf("expected %s tombstoned, got %s", id, st.Status)
		}
	}
	recs, err := repo.ListActiveRecords()
	if err != nil || len(recs) != 1 || recs[0].BattleID != "a-dup" {
		t.Fatalf("expected only a-dup active, got %+v, %v", recs, err)
	}
}

func TestSubscribe_BacklogAndLiveEvents(t *testing.T) {
	reg, _ := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	backlog, ch, cancel, err := reg.Subscribe(b.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if len(backlog) != len(b.Events) {
		t.Fatalf("backlog has %d events, want %d", len(backlog), len(b.Events))
	}

	if _, _, err := reg.SubmitAction(b.ID, jabRequest(b, "side-1")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	select {
	case e, ok := <-ch:
		if !ok || e.Kind != game.EventActionStored {
			t.Fatalf("expected a live action_stored event, got %+v ok=%v", e, ok)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no live event arrived")
	}

	// Ending the battle closes the stream after the final events.
	if _, err := reg.Forfeit(b.ID, "side-2", "bob"); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	sawEnd := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				if !sawEnd {
					t.Fatalf("stream closed without a battle_ended event")
				}
				return
			}
			if e.Kind == game.EventBattleEnded {
				sawEnd = true
			}
		case <-deadline:
			t.Fatalf("stream never closed after the battle ended")
		}
	}
}

func TestSubscribe_FinishedBattleIsClosedBacklog(t *testing.T) {
	reg, _ := newTestRegistry(t, testOptions())

	b, err := reg.Create(game.KindDuel, duelSpecs("alice", "bob"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reg.Forfeit(b.ID, "side-1", "alice"); err != nil {
		t.Fatalf("forfeit: %v", err)
	}
	waitUntil(t, "session eviction", func() bool { return reg.Count() == 0 })

	backlog, ch, cancel, err := reg.Subscribe(b.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if len(backlog) == 0 || backlog[len(backlog)-1].Kind != game.EventBattleEnded {
		t.Fatalf("expected the complete journal, got %+v", backlog)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected an already closed channel")
	}
}
