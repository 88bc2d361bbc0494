package arena

// Package arena keeps live battles in memory. Every battle gets one
// Session goroutine that owns the state and a mailbox that serializes
// every mutation, so the engine itself never needs a lock. The Registry
// routes requests to sessions and falls back to storage for battles
// that have already finished.

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/engine"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/logging"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/service"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/storage"
)

var (
	// ErrBattleFinished is returned for requests that reach a battle
	// after it entered a terminal state.
	ErrBattleFinished = errors.New("battle already finished")
	// ErrBattleFrozen is returned while snapshot writes are failing and
	// the battle refuses new mutations.
	ErrBattleFrozen = errors.New("battle frozen while persistence recovers")
	// ErrMailboxFull is returned when a battle's mailbox cannot accept
	// another request right now.
	ErrMailboxFull = errors.New("battle mailbox is full")
)

const (
	DefaultActionTimeout  = 60 * time.Second
	DefaultIdleLimit      = 3
	DefaultPersistRetries = 3

	defaultRetryBackoff = 200 * time.Millisecond
	defaultMailbox      = 64
	subscriberBuffer    = 128
)

// Options tunes session behavior. Zero values fall back to defaults.
type Options struct {
	// ActionTimeout is how long each turn waits for pending actions
	// before the deadline sweep fills the gaps.
	ActionTimeout time.Duration
	// IdleLimit is the number of consecutive deadline expiries, with no
	// real action from anyone, after which a battle expires.
	IdleLimit int
	// PersistRetries is how many times a failed snapshot write is
	// retried before the battle freezes.
	PersistRetries int
	// RetryBackoff is the pause between snapshot write retries.
	RetryBackoff time.Duration
	// Mailbox is the per-battle request buffer size.
	Mailbox int
}

func (o Options) withDefaults() Options {
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = DefaultActionTimeout
	}
	if o.IdleLimit <= 0 {
		o.IdleLimit = DefaultIdleLimit
	}
	if o.PersistRetries <= 0 {
		o.PersistRetries = DefaultPersistRetries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultRetryBackoff
	}
	if o.Mailbox <= 0 {
		o.Mailbox = defaultMailbox
	}
	return o
}

type msgKind int

const (
	msgState msgKind = iota
	msgJoin
	msgSubmit
	msgForfeit
	msgTimeout
	msgSubscribe
	msgUnsubscribe
)

type envelope struct {
	kind        msgKind
	participant string
	roster      []service.RosterSpec
	action      service.ActionRequest
	sideID      string
	events      chan game.Event
	reply       chan response
}

type response struct {
	battle   *game.Battle
	resolved bool
	backlog  []game.Event
	events   chan game.Event
	err      error
}

// Session is the single goroutine owner of one live battle. All reads
// and mutations travel through its mailbox; callers get deep copies
// back and never share memory with the loop.
type Session struct {
	id        string
	tbl       *game.Tables
	repo      storage.Repository
	opts      Options
	recovered bool
	evict     func(*Session)

	mu     sync.Mutex
	closed bool
	inbox  chan envelope

	// deadlineNano and frozenFlag mirror loop state for the timeout
	// scanner, which must not post into every mailbox just to look.
	deadlineNano atomic.Int64
	frozenFlag   atomic.Bool

	// Owned by the run loop after start.
	battle *game.Battle
	rng    *engine.Stream
	subs   []chan game.Event
}

func newSession(b *game.Battle, tbl *game.Tables, repo storage.Repository, opts Options, recovered bool, evict func(*Session)) *Session {
	s := &Session{
		id:        b.ID,
		tbl:       tbl,
		repo:      repo,
		opts:      opts,
		recovered: recovered,
		evict:     evict,
		inbox:     make(chan envelope, opts.Mailbox),
		battle:    b,
		rng:       engine.Replay(b.RandSeed, b.RandDraws),
	}
	s.syncFlags()
	return s
}

func (s *Session) start() {
	go s.run()
}

// post hands an envelope to the run loop and waits for its reply. The
// closed check and the send happen under one lock so no envelope can
// slip in after the loop has drained its mailbox for the last time.
func (s *Session) post(env envelope) response {
	env.reply = make(chan response, 1)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return response{err: ErrBattleFinished}
	}
	select {
	case s.inbox <- env:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return response{err: ErrMailboxFull}
	}
	return <-env.reply
}

// due reports whether the timeout scanner should wake this session,
// either because its action deadline passed or because it froze and a
// persistence retry is owed.
func (s *Session) due(now time.Time) bool {
	if s.frozenFlag.Load() {
		return true
	}
	dl := s.deadlineNano.Load()
	return dl != 0 && now.UnixNano() >= dl
}

func (s *Session) run() {
	s.bootstrap()
	for !s.battle.Status.Terminal() {
		s.handle(<-s.inbox)
	}
	s.shutdown()
}

// bootstrap re-arms a battle restored from storage: scripted sides that
// lost their picks choose again from the replayed stream, humans get a
// fresh deadline, and the refreshed state is written back.
func (s *Session) bootstrap() {
	if s.recovered && s.battle.Status == game.StatusAwaiting {
		b := s.battle
		service.ScriptedPicks(s.tbl, b, s.rng)
		b.ActionDeadline = time.Now().UTC().Add(s.opts.ActionTimeout)
		b.CheckpointTurn = b.Turn
		if !s.persistWithRetry(b) {
			b.Frozen = true
		}
	}
	s.syncFlags()
}

func (s *Session) handle(env envelope) {
	switch env.kind {
	case msgState:
		env.reply <- response{battle: s.battle.Clone()}
	case msgSubscribe:
		s.handleSubscribe(env)
	case msgUnsubscribe:
		s.handleUnsubscribe(env)
	case msgJoin:
		s.mutate(env, func(work *game.Battle) (bool, bool, error) {
			if err := service.JoinBattle(s.tbl, work, env.participant, env.roster); err != nil {
				return false, false, err
			}
			s.prepareTurn(work)
			return false, true, nil
		})
	case msgSubmit:
		s.mutate(env, func(work *game.Battle) (bool, bool, error) {
			if err := service.SubmitMove(s.tbl, work, env.action); err != nil {
				return false, false, err
			}
			if !work.AllReady() {
				return false, true, nil
			}
			engine.ResolveTurn(work, s.tbl, s.rng)
			s.prepareTurn(work)
			return true, true, nil
		})
	case msgForfeit:
		s.mutate(env, func(work *game.Battle) (bool, bool, error) {
			changed, err := service.Forfeit(work, env.sideID, env.participant)
			if err != nil || !changed {
				return false, false, err
			}
			if work.Status == game.StatusAwaiting && work.AllReady() {
				engine.ResolveTurn(work, s.tbl, s.rng)
				s.prepareTurn(work)
				return true, true, nil
			}
			return false, true, nil
		})
	case msgTimeout:
		s.handleTimeout(env)
	default:
		env.reply <- response{err: errors.New("unknown battle request")}
	}
}

// mutate runs one state change with snapshot-or-rollback semantics: the
// change is applied to a clone, persisted, and only then swapped in. A
// reply therefore always describes durable state. When persistence
// fails the live battle is untouched, the random stream is rewound to
// the last durable draw count, and the battle freezes.
func (s *Session) mutate(env envelope, apply func(*game.Battle) (resolved, dirty bool, err error)) {
	if s.battle.Frozen {
		env.reply <- response{err: ErrBattleFrozen}
		return
	}
	base := s.battle
	work := base.Clone()
	resolved, dirty, err := apply(work)
	if err != nil {
		s.rewind(base)
		env.reply <- response{err: err}
		return
	}
	if !dirty {
		env.reply <- response{battle: work}
		return
	}
	work.CheckpointTurn = work.Turn
	if !s.persistWithRetry(work) {
		base.Frozen = true
		s.rewind(base)
		s.syncFlags()
		env.reply <- response{err: ErrBattleFrozen}
		return
	}
	prev := len(base.Events)
	s.battle = work
	s.syncFlags()
	env.reply <- response{battle: work.Clone(), resolved: resolved}
	s.publish(work.Events[prev:])
}

// rewind resets the stream after a rejected or unpersisted change so
// the next draw lines up with the last durable snapshot again.
func (s *Session) rewind(base *game.Battle) {
	if s.rng.Draws() != base.RandDraws {
		s.rng = engine.Replay(base.RandSeed, base.RandDraws)
	}
}

// prepareTurn runs the bookkeeping for a freshly opened turn: scripted
// sides pick immediately and the action deadline restarts.
func (s *Session) prepareTurn(work *game.Battle) {
	if work.Status != game.StatusAwaiting {
		return
	}
	service.ScriptedPicks(s.tbl, work, s.rng)
	work.ActionDeadline = time.Now().UTC().Add(s.opts.ActionTimeout)
}

// handleTimeout is the deadline sweep entry point. Frozen battles use
// the sweep tick to retry persistence instead. The deadline is checked
// again here because a submission may have resolved the turn between
// the scan and this message.
func (s *Session) handleTimeout(env envelope) {
	b := s.battle
	if b.Frozen {
		s.retryFrozen(env)
		return
	}
	if b.Status != game.StatusAwaiting || b.ActionDeadline.IsZero() || time.Now().Before(b.ActionDeadline) {
		env.reply <- response{battle: b.Clone()}
		return
	}
	s.mutate(env, func(work *game.Battle) (bool, bool, error) {
		if !service.AnyRealAction(work) {
			work.IdleTimeouts++
			if work.IdleTimeouts >= s.opts.IdleLimit {
				service.Expire(work)
				return true, true, nil
			}
		}
		service.FillTimedOut(work)
		engine.ResolveTurn(work, s.tbl, s.rng)
		s.prepareTurn(work)
		return true, true, nil
	})
}

// retryFrozen attempts to write the current state again. On success
// the battle thaws and its deadline restarts, since nobody could act
// while it was frozen.
func (s *Session) retryFrozen(env envelope) {
	b := s.battle
	b.Frozen = false
	if b.Status == game.StatusAwaiting {
		b.ActionDeadline = time.Now().UTC().Add(s.opts.ActionTimeout)
	}
	b.CheckpointTurn = b.Turn
	if !s.persistWithRetry(b) {
		b.Frozen = true
	} else {
		logging.Info("battle thawed", logging.Fields{"battle": b.ID, "turn": b.Turn})
	}
	s.syncFlags()
	env.reply <- response{battle: b.Clone()}
}

func (s *Session) persistWithRetry(b *game.Battle) bool {
	var err error
	for attempt := 0; attempt <= s.opts.PersistRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.opts.RetryBackoff)
		}
		if err = s.repo.SaveSnapshot(b); err == nil {
			return true
		}
	}
	logging.Error("battle snapshot write failed", err, logging.Fields{
		"battle":   b.ID,
		"turn":     b.Turn,
		"attempts": s.opts.PersistRetries + 1,
	})
	return false
}

// syncFlags mirrors deadline and frozen state into atomics after every
// swap so the scanner reads them without touching the mailbox.
func (s *Session) syncFlags() {
	b := s.battle
	if b.Status == game.StatusAwaiting && !b.ActionDeadline.IsZero() {
		s.deadlineNano.Store(b.ActionDeadline.UnixNano())
	} else {
		s.deadlineNano.Store(0)
	}
	s.frozenFlag.Store(b.Frozen)
}

// handleSubscribe registers a listener and snapshots the journal in the
// same mailbox step, so the backlog plus the channel together carry
// every event exactly once.
func (s *Session) handleSubscribe(env envelope) {
	ch := make(chan game.Event, subscriberBuffer)
	s.subs = append(s.subs, ch)
	backlog := make([]game.Event, len(s.battle.Events))
	copy(backlog, s.battle.Events)
	env.reply <- response{backlog: backlog, events: ch}
}

func (s *Session) handleUnsubscribe(env envelope) {
	for i, ch := range s.subs {
		if ch == env.events {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(ch)
			break
		}
	}
	env.reply <- response{}
}

func (s *Session) publish(events []game.Event) {
	if len(events) == 0 {
		return
	}
	for _, ch := range s.subs {
		for _, e := range events {
			select {
			case ch <- e:
			default:
				// Slow listeners miss events rather than stalling the
				// battle; the websocket layer resyncs from a state read.
			}
		}
	}
}

// shutdown runs once the battle is terminal: it flips the closed flag,
// answers everything already queued, closes the event channels, and
// removes the session from the registry.
func (s *Session) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	for {
		select {
		case env := <-s.inbox:
			if env.kind == msgState {
				env.reply <- response{battle: s.battle.Clone()}
				continue
			}
			env.reply <- response{err: ErrBattleFinished}
		default:
			for _, ch := range s.subs {
				close(ch)
			}
			s.subs = nil
			s.deadlineNano.Store(0)
			s.frozenFlag.Store(false)
			if s.evict != nil {
				s.evict(s)
			}
			return
		}
	}
}
