package engine

import (
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
)

// --- Turn context and helpers ------------------------------------------
type turnContext struct {
	b     *game.Battle
	tbl   *game.Tables
	rng   *Stream
	batch []game.Event
}

func newTurnContext(b *game.Battle, tbl *game.Tables, rng *Stream) *turnContext {
	return &turnContext{b: b, tbl: tbl, rng: rng, batch: make([]game.Event, 0, 16)}
}

// emit stamps the event into the battle journal and keeps a copy in the
// batch returned to the caller for live subscribers.
func (tc *turnContext) emit(e game.Event) {
	tc.batch = append(tc.batch, tc.b.Record(e))
}

func (tc *turnContext) balance() game.Balance { return tc.tbl.Balance }

// speciesTypes returns the defender's type list for effectiveness lookups.
func (tc *turnContext) speciesTypes(c *game.Combatant) []string {
	if sp, ok := tc.tbl.SpeciesByName(c.Species); ok {
		return sp.Types
	}
	return nil
}
