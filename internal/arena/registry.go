package arena

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/dedupe"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/engine"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/logging"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/service"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/storage"
)

var (
	// ErrBattleNotFound is returned when no live session and no stored
	// snapshot exist for a battle ID.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrParticipantBusy is returned when a participant tries to enter a
	// second battle while one is still running.
	ErrParticipantBusy = errors.New("participant already has an active battle")
)

// Registry owns every live Session and routes battle requests to them.
// Finished battles drop out of memory on their own; reads for those are
// served straight from storage.
type Registry struct {
	tbl  *game.Tables
	repo storage.Repository
	opts Options

	mu            sync.Mutex
	sessions      map[string]*Session
	byParticipant map[string]string
}

func NewRegistry(tbl *game.Tables, repo storage.Repository, opts Options) *Registry {
	return &Registry{
		tbl:           tbl,
		repo:          repo,
		opts:          opts.withDefaults(),
		sessions:      make(map[string]*Session),
		byParticipant: make(map[string]string),
	}
}

// Create builds a battle from the seat plan, reserves its participants,
// writes the initial snapshot, and spawns the session. The battle only
// exists once that first write succeeded.
func (r *Registry) Create(kind game.BattleKind, specs []service.SideSpec) (*game.Battle, error) {
	seed, err := engine.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("seed battle stream: %w", err)
	}
	b, err := service.NewBattle(r.tbl, uuid.NewString(), kind, specs, seed, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if b.Status == game.StatusAwaiting {
		// Wild battles start fully seated, so the first turn opens here.
		rng := engine.Replay(b.RandSeed, b.RandDraws)
		service.ScriptedPicks(r.tbl, b, rng)
		b.ActionDeadline = time.Now().UTC().Add(r.opts.ActionTimeout)
	}

	owners := participants(b)
	r.mu.Lock()
	for _, p := range owners {
		if _, busy := r.byParticipant[p]; busy {
			r.mu.Unlock()
			return nil, ErrParticipantBusy
		}
	}
	for _, p := range owners {
		r.byParticipant[p] = b.ID
	}
	r.mu.Unlock()

	b.CheckpointTurn = b.Turn
	if err := r.repo.SaveSnapshot(b); err != nil {
		r.release(b.ID, owners)
		return nil, fmt.Errorf("persist new battle: %w", err)
	}

	sess := newSession(b, r.tbl, r.repo, r.opts, false, r.remove)
	r.mu.Lock()
	r.sessions[b.ID] = sess
	r.mu.Unlock()

	snap := b.Clone()
	sess.start()
	logging.Info("battle created", logging.Fields{"battle": b.ID, "kind": string(kind), "status": string(b.Status)})
	return snap, nil
}

// Join seats a participant in a forming battle. The reservation is
// taken optimistically before the mailbox round trip and rolled back if
// the session rejects the join.
func (r *Registry) Join(battleID, participant string, roster []service.RosterSpec) (*game.Battle, error) {
	sess := r.lookup(battleID)
	if sess == nil {
		return nil, ErrBattleNotFound
	}

	reserved := false
	r.mu.Lock()
	if held, ok := r.byParticipant[participant]; ok {
		if held != battleID {
			r.mu.Unlock()
			return nil, ErrParticipantBusy
		}
	} else if participant != "" {
		r.byParticipant[participant] = battleID
		reserved = true
	}
	r.mu.Unlock()

	resp := sess.post(envelope{kind: msgJoin, participant: participant, roster: roster})
	if resp.err != nil && reserved {
		r.release(battleID, []string{participant})
	}
	return resp.battle, resp.err
}

// SubmitAction stores one side's move for the current turn. The second
// return value reports whether that submission completed the turn and
// the battle resolved it.
func (r *Registry) SubmitAction(battleID string, req service.ActionRequest) (*game.Battle, bool, error) {
	sess := r.lookup(battleID)
	if sess == nil {
		b, err := r.loadStored(battleID)
		if err != nil {
			return nil, false, err
		}
		if b.Status.Terminal() {
			return nil, false, ErrBattleFinished
		}
		return nil, false, ErrBattleNotFound
	}
	resp := sess.post(envelope{kind: msgSubmit, action: req})
	return resp.battle, resp.resolved, resp.err
}

// Forfeit concedes a seat. The participant's reservation is released on
// success so they can start over even while the abandoned battle plays
// out without them.
func (r *Registry) Forfeit(battleID, sideID, participant string) (*game.Battle, error) {
	sess := r.lookup(battleID)
	if sess == nil {
		return nil, ErrBattleNotFound
	}
	resp := sess.post(envelope{kind: msgForfeit, sideID: sideID, participant: participant})
	if resp.err == nil && participant != "" {
		r.release(battleID, []string{participant})
	}
	return resp.battle, resp.err
}

// State returns the current battle, from the live session when there is
// one and from the latest snapshot otherwise.
func (r *Registry) State(battleID string) (*game.Battle, error) {
	if sess := r.lookup(battleID); sess != nil {
		resp := sess.post(envelope{kind: msgState})
		if resp.err == nil {
			return resp.battle, nil
		}
		// The session finished between lookup and post; fall through to
		// the snapshot it wrote on the way out.
	}
	return r.loadStored(battleID)
}

// StateAt returns the battle as it stood at one recorded turn.
func (r *Registry) StateAt(battleID string, turn int) (*game.Battle, error) {
	b, err := r.repo.SnapshotAt(battleID, turn)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrBattleNotFound
	}
	return b, err
}

// History lists the turns a battle has snapshots for.
func (r *Registry) History(battleID string) ([]int, error) {
	v, err, _ := dedupe.HistoryGroup.Do(battleID, func() (interface{}, error) {
		return r.repo.HistoryTurns(battleID)
	})
	if err != nil {
		return nil, err
	}
	turns := v.([]int)
	if len(turns) == 0 {
		return nil, ErrBattleNotFound
	}
	out := make([]int, len(turns))
	copy(out, turns)
	return out, nil
}

// Subscribe attaches a listener to a battle's event journal. It returns
// the backlog so far plus a channel of everything after it, and a
// cancel function. For finished battles the backlog is complete and the
// channel comes back already closed.
func (r *Registry) Subscribe(battleID string) ([]game.Event, <-chan game.Event, func(), error) {
	sess := r.lookup(battleID)
	if sess != nil {
		resp := sess.post(envelope{kind: msgSubscribe})
		if resp.err == nil {
			ch := resp.events
			cancel := func() { sess.post(envelope{kind: msgUnsubscribe, events: ch}) }
			return resp.backlog, ch, cancel, nil
		}
	}
	b, err := r.loadStored(battleID)
	if err != nil {
		return nil, nil, nil, err
	}
	done := make(chan game.Event)
	close(done)
	return b.Events, done, func() {}, nil
}

// TimedOut lists the battles the deadline sweep should wake right now.
func (r *Registry) TimedOut(now time.Time) []string {
	r.mu.Lock()
	var due []string
	for id, sess := range r.sessions {
		if sess.due(now) {
			due = append(due, id)
		}
	}
	r.mu.Unlock()
	sort.Strings(due)
	return due
}

// ForceTimeout delivers a deadline tick to one battle. The session
// re-checks the clock itself, so a tick that lost a race with a
// submission is a harmless no-op.
func (r *Registry) ForceTimeout(battleID string) (*game.Battle, bool, error) {
	sess := r.lookup(battleID)
	if sess == nil {
		return nil, false, ErrBattleNotFound
	}
	resp := sess.post(envelope{kind: msgTimeout})
	return resp.battle, resp.resolved, resp.err
}

// SweepTimeouts wakes every due battle once and reports how many
// resolved a turn because of it. Mailbox pressure is skipped quietly;
// the next tick will find those battles still due.
func (r *Registry) SweepTimeouts(now time.Time) int {
	resolved := 0
	for _, id := range r.TimedOut(now) {
		_, didResolve, err := r.ForceTimeout(id)
		if err == nil && didResolve {
			resolved++
		}
	}
	return resolved
}

// Count reports how many battles are live in memory.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Recover restores every non-terminal battle from storage into a live
// session. Snapshots that fail to decode, reference tables that no
// longer exist, or collide with an already bound participant are
// tombstoned instead of crashing the boot.
func (r *Registry) Recover() (int, error) {
	recs, err := r.repo.ListActiveRecords()
	if err != nil {
		return 0, fmt.Errorf("list recoverable battles: %w", err)
	}
	recovered := 0
	for i := range recs {
		rec := &recs[i]
		b, err := storage.DecodeBattle(rec.State)
		if err == nil {
			err = r.tablesStillKnow(b)
		}
		if err == nil && !r.adopt(b) {
			err = errors.New("participant already bound to another battle")
		}
		if err != nil {
			logging.Error("battle recovery failed", err, logging.Fields{"battle": rec.BattleID, "turn": rec.Turn})
			if mErr := r.repo.MarkRecoveryFailed(rec.BattleID, err.Error()); mErr != nil {
				logging.Error("recovery tombstone write failed", mErr, logging.Fields{"battle": rec.BattleID})
			}
			continue
		}
		recovered++
	}
	if recovered > 0 {
		logging.Info("battles recovered", logging.Fields{"count": recovered})
	}
	return recovered, nil
}

// adopt registers a recovered battle and spawns its session. It fails
// when a participant or the battle ID is already taken.
func (r *Registry) adopt(b *game.Battle) bool {
	r.mu.Lock()
	if _, exists := r.sessions[b.ID]; exists {
		r.mu.Unlock()
		return false
	}
	owners := participants(b)
	for _, p := range owners {
		if _, busy := r.byParticipant[p]; busy {
			r.mu.Unlock()
			return false
		}
	}
	sess := newSession(b, r.tbl, r.repo, r.opts, true, r.remove)
	r.sessions[b.ID] = sess
	for _, p := range owners {
		r.byParticipant[p] = b.ID
	}
	r.mu.Unlock()
	sess.start()
	return true
}

// tablesStillKnow verifies that a stored battle only references species
// and moves the current tables define.
func (r *Registry) tablesStillKnow(b *game.Battle) error {
	for i := range b.Sides {
		for j := range b.Sides[i].Roster {
			c := &b.Sides[i].Roster[j]
			if _, ok := r.tbl.SpeciesByName(c.Species); !ok {
				return fmt.Errorf("unknown species %q", c.Species)
			}
			for _, slot := range c.Moves {
				if _, ok := r.tbl.MoveByName(slot.Name); !ok {
					return fmt.Errorf("unknown move %q", slot.Name)
				}
			}
		}
	}
	return nil
}

// remove is the session eviction callback, run by the loop goroutine
// after its final snapshot. It frees the battle's participants.
func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	if r.sessions[s.id] == s {
		delete(r.sessions, s.id)
	}
	for _, p := range participants(s.battle) {
		if r.byParticipant[p] == s.id {
			delete(r.byParticipant, p)
		}
	}
	r.mu.Unlock()
	logging.Info("battle retired", logging.Fields{"battle": s.id, "status": string(s.battle.Status)})
}

func (r *Registry) lookup(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

func (r *Registry) release(battleID string, owners []string) {
	r.mu.Lock()
	for _, p := range owners {
		if r.byParticipant[p] == battleID {
			delete(r.byParticipant, p)
		}
	}
	r.mu.Unlock()
}

// loadStored reads the latest snapshot, collapsing concurrent reads of
// the same battle into one query. Every caller still gets its own copy.
func (r *Registry) loadStored(battleID string) (*game.Battle, error) {
	v, err, _ := dedupe.StateGroup.Do(battleID, func() (interface{}, error) {
		return r.repo.LatestSnapshot(battleID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBattleNotFound
		}
		return nil, err
	}
	return v.(*game.Battle).Clone(), nil
}

func participants(b *game.Battle) []string {
	var out []string
	for i := range b.Sides {
		if p := b.Sides[i].Participant; p != "" {
			out = append(out, p)
		}
	}
	return out
}
