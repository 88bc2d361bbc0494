package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/constants"
)

// GetBattle returns the current battle state. Pass ?participant= to see
// your own pending action; everyone else's stays masked until the turn
// resolves.
func (h *BattleHandler) GetBattle(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	b, err := h.reg.State(id)
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedFetchBattle)
		return
	}
	respondBattle(c, http.StatusOK, b, c.Query("participant"))
}

// GetHistory lists the turns a battle has recorded snapshots for.
func (h *BattleHandler) GetHistory(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	turns, err := h.reg.History(id)
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedFetchHistory)
		return
	}
	c.JSON(http.StatusOK, gin.H{"battle_id": id, "turns": turns})
}

// GetTurn returns the battle as it stood when the given turn was
// recorded. Pending actions stay masked here too; the current turn's
// row may still be in play.
func (h *BattleHandler) GetTurn(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	turn, err := strconv.Atoi(c.Param("turn"))
	if err != nil || turn < 0 {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidTurn})
		return
	}
	b, err := h.reg.StateAt(id, turn)
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedFetchHistory)
		return
	}
	view, err := battleView(b, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchHistory})
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListSpecies returns the loaded species table, sorted by name.
func (h *BattleHandler) ListSpecies(c *gin.Context) {
	names := make([]string, 0, len(h.tbl.Species))
	for name := range h.tbl.Species {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]interface{}, 0, len(names))
	for _, name := range names {
		out = append(out, h.tbl.Species[name])
	}
	c.JSON(http.StatusOK, out)
}

// ListMoves returns the loaded move table, sorted by name.
func (h *BattleHandler) ListMoves(c *gin.Context) {
	names := make([]string, 0, len(h.tbl.Moves))
	for name := range h.tbl.Moves {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]interface{}, 0, len(names))
	for _, name := range names {
		out = append(out, h.tbl.Moves[name])
	}
	c.JSON(http.StatusOK, out)
}
