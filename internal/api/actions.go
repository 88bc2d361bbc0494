package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/constants"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/game"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/service"
)

type ActionPayload struct {
	SideID      string `json:"side_id"`
	Participant string `json:"participant"`
	Move        string `json:"move"`
	// Target is optional; it must match the move's targeting mode when
	// set. TargetSide names the victim when several opponents stand.
	Target     string `json:"target"`
	TargetSide string `json:"target_side"`
	Turn       int    `json:"turn"`
}

// SubmitAction stores a side's chosen move for the current turn. When
// the submission completes the turn it resolves before the reply, so
// the returned state already shows the outcome.
func (h *BattleHandler) SubmitAction(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	var req ActionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}

	b, resolved, err := h.reg.SubmitAction(id, service.ActionRequest{
		SideID:      req.SideID,
		Participant: req.Participant,
		Move:        req.Move,
		Target:      game.TargetRef{Kind: game.TargetKind(req.Target), Side: req.TargetSide},
		Turn:        req.Turn,
	})
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedStoreAction)
		return
	}

	view, vErr := battleView(b, req.Participant)
	if vErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedStoreAction})
		return
	}
	msg := "Action stored. Waiting for the other sides."
	if resolved {
		msg = "Turn resolved."
	}
	c.JSON(http.StatusOK, gin.H{
		constants.JSONKeyMessage: msg,
		"resolved":               resolved,
		"battle":                 view,
	})
}
