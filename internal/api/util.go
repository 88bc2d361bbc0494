package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/arena"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/constants"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/service"
)

// parseBattleID validates the battle ID path parameter. IDs are UUIDs;
// anything else is rejected before it reaches the registry.
func parseBattleID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("battleID"))
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidBattleID})
		return "", false
	}
	return id, true
}

// battleView marshals a battle for an API response. The random stream
// internals are always stripped, and while the battle is still running
// the pending actions of sides the caller does not own are reduced to a
// submitted marker, so nobody can read an opponent's move before the
// turn resolves.
func battleView(b *game.Battle, caller string) (interface{}, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	delete(out, "rand_seed")
	delete(out, "rand_draws")
	if b.Status.Terminal() {
		return out, nil
	}
	sides, _ := out["sides"].([]interface{})
	for _, sv := range sides {
		sm, ok := sv.(map[string]interface{})
		if !ok {
			continue
		}
		owner, _ := sm["participant"].(string)
		if caller != "" && owner == caller {
			continue
		}
		pending, ok := sm["pending"].(map[string]interface{})
		if !ok {
			continue
		}
		masked := map[string]interface{}{"submitted": true}
		if turn, ok := pending["turn"]; ok {
			masked["turn"] = turn
		}
		sm["pending"] = masked
	}
	return out, nil
}

// respondBattle writes a redacted battle state with the given HTTP code.
func respondBattle(c *gin.Context, code int, b *game.Battle, caller string) {
	view, err := battleView(b, caller)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchBattle})
		return
	}
	c.JSON(code, view)
}

// writeBattleError maps registry and service errors onto HTTP statuses.
// Unrecognized errors collapse into a 500 with the handler's fallback
// message so internals never leak to clients.
func writeBattleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, arena.ErrBattleNotFound):
		c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrBattleNotFound})
	case errors.Is(err, arena.ErrBattleFinished):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrBattleFinished})
	case errors.Is(err, arena.ErrBattleFrozen):
		c.JSON(http.StatusServiceUnavailable, gin.H{constants.JSONKeyError: constants.ErrBattleFrozen})
	case errors.Is(err, arena.ErrMailboxFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{constants.JSONKeyError: constants.ErrBattleBusy})
	case errors.Is(err, arena.ErrParticipantBusy):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrParticipantBusy})
	case errors.Is(err, service.ErrNotParticipant),
		errors.Is(err, service.ErrScriptedSide):
		c.JSON(http.StatusForbidden, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, service.ErrDuplicateParticipant),
		errors.Is(err, service.ErrNotForming),
		errors.Is(err, service.ErrBattleFull),
		errors.Is(err, service.ErrNotAwaitingActions),
		errors.Is(err, service.ErrSideOut),
		errors.Is(err, service.ErrStaleTurn),
		errors.Is(err, service.ErrDuplicateAction):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: err.Error()})
	case errors.Is(err, service.ErrUnknownKind),
		errors.Is(err, service.ErrSideCount),
		errors.Is(err, service.ErrWildNeedsScripted),
		errors.Is(err, service.ErrScriptedNotAllowed),
		errors.Is(err, service.ErrScriptedSeatOpen),
		errors.Is(err, service.ErrRosterSize),
		errors.Is(err, service.ErrUnknownSpecies),
		errors.Is(err, service.ErrUnknownMove),
		errors.Is(err, service.ErrMoveNotLearnable),
		errors.Is(err, service.ErrTooManyMoves),
		errors.Is(err, service.ErrNoParticipant),
		errors.Is(err, service.ErrSideNotFound),
		errors.Is(err, service.ErrMoveNotUsable),
		errors.Is(err, service.ErrBadTarget):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: fallback})
	}
}

// toRosterSpecs converts request roster entries into service specs.
func toRosterSpecs(entries []RosterPayload) []service.RosterSpec {
	out := make([]service.RosterSpec, 0, len(entries))
	for _, e := range entries {
		out = append(out, service.RosterSpec{Species: e.Species, Level: e.Level, Moves: e.Moves})
	}
	return out
}
