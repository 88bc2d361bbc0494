package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/constants"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/service"
)

// RosterPayload is one requested roster entry. Level zero takes the
// default level and an empty move list takes the first learnable moves.
type RosterPayload struct {
	Species string   `json:"species"`
	Level   int      `json:"level"`
	Moves   []string `json:"moves"`
}

type CreateBattlePayload struct {
	Kind        string          `json:"kind"`
	Participant string          `json:"participant"`
	Roster      []RosterPayload `json:"roster"`
	// Sides is the total seat count for free-for-all battles. Duels and
	// wild encounters always have two.
	Sides int `json:"sides"`
	// Wild describes the scripted encounter of a wild battle.
	Wild *RosterPayload `json:"wild"`
}

// CreateBattle opens a new battle with the caller in the first seat and
// returns its ID. Duels and free-for-alls leave the remaining seats open
// for joins; wild battles start immediately.
func (h *BattleHandler) CreateBattle(c *gin.Context) {
	var req CreateBattlePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	kind := game.BattleKind(strings.TrimSpace(req.Kind))
	specs := []service.SideSpec{{Participant: req.Participant, Roster: toRosterSpecs(req.Roster)}}
	switch kind {
	case game.KindDuel:
		specs = append(specs, service.SideSpec{})
	case game.KindFreeForAll:
		seats := req.Sides
		if seats == 0 {
			seats = game.MinSides
		}
		for i := 1; i < seats; i++ {
			specs = append(specs, service.SideSpec{})
		}
	case game.KindWild:
		if req.Wild == nil {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
			return
		}
		specs = append(specs, service.SideSpec{
			Scripted: true,
			Roster:   []service.RosterSpec{{Species: req.Wild.Species, Level: req.Wild.Level, Moves: req.Wild.Moves}},
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: service.ErrUnknownKind.Error()})
		return
	}

	b, err := h.reg.Create(kind, specs)
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedCreateBattle)
		return
	}

	sideID := ""
	for i := range b.Sides {
		if b.Sides[i].Participant == req.Participant {
			sideID = b.Sides[i].ID
			break
		}
	}
	c.JSON(http.StatusCreated, gin.H{
		"battle_id":              b.ID,
		"side_id":                sideID,
		constants.JSONKeyStatus:  string(b.Status),
		constants.JSONKeyMessage: b.Message,
	})
}

type JoinBattlePayload struct {
	Participant string          `json:"participant"`
	Roster      []RosterPayload `json:"roster"`
}

// JoinBattle seats the caller in an open slot of a forming battle.
func (h *BattleHandler) JoinBattle(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	var req JoinBattlePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	b, err := h.reg.Join(id, req.Participant, toRosterSpecs(req.Roster))
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedJoinBattle)
		return
	}
	respondBattle(c, http.StatusOK, b, req.Participant)
}

type ForfeitPayload struct {
	SideID      string `json:"side_id"`
	Participant string `json:"participant"`
}

// ForfeitBattle concedes the caller's seat. Repeating a forfeit is a
// no-op and returns the current state again.
func (h *BattleHandler) ForfeitBattle(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	var req ForfeitPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	b, err := h.reg.Forfeit(id, req.SideID, req.Participant)
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedForfeit)
		return
	}
	respondBattle(c, http.StatusOK, b, req.Participant)
}
