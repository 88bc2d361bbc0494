package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Killerdash117/veramon-reunited-sub000/internal/constants"
	"github.com/Killerdash117/veramon-reunited-sub000/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API carries no credentials, so cross-origin clients are fine.
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteWait = 10 * time.Second

// BattleEvents streams a battle's journal over a websocket: first the
// backlog recorded so far, then live events as turns resolve. The
// subscription is taken before the upgrade so a missing battle still
// gets a plain HTTP error, and the server closes the socket once the
// battle reaches a terminal state.
func (h *BattleHandler) BattleEvents(c *gin.Context) {
	id, ok := parseBattleID(c)
	if !ok {
		return
	}
	backlog, events, cancel, err := h.reg.Subscribe(id)
	if err != nil {
		writeBattleError(c, err, constants.ErrFailedSubscribe)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		// Upgrade already wrote the HTTP error response.
		logging.Error("websocket upgrade failed", err, logging.Fields{constants.LogFieldBattleID: id})
		return
	}
	defer conn.Close()
	defer cancel()

	for _, e := range backlog {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(e); err != nil {
			return
		}
	}

	// Drain the read side so client close frames are noticed; the
	// journal stream is one-directional and inbound data is discarded.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, open := <-events:
			if !open {
				deadline := time.Now().Add(wsWriteWait)
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "battle finished")
				_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
