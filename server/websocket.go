package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	searchpilot "github.com/Desarso/searchpilot"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriter serializes writes to a WebSocket connection.
type wsWriter struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsWriter) writeEvent(channel string, payload interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(map[string]interface{}{"channel": channel, "data": payload})
}

func (w *wsWriter) writeError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(map[string]string{"error": message})
}

func (w *wsWriter) writeDone(turnID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(map[string]string{"type": "done", "turnId": turnID})
}

// handleTurnWS runs turns over a WebSocket. Each incoming message is a
// TurnPayload; stream events go back as {channel, data} frames.
func (s *Server) handleTurnWS(c *gin.Context) {
	chatID := c.Param("chatID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	writer := &wsWriter{conn: conn}

	for {
		var payload TurnPayload
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Error("websocket read failed", "chat_id", chatID, "error", err)
			}
			return
		}

		lock := s.lockChat(chatID)
		lock.Lock()

		state, err := s.copilot.Store.LoadChat(chatID)
		if err != nil {
			lock.Unlock()
			_ = writer.writeError(err.Error())
			continue
		}

		result := s.copilot.Submit(c.Request.Context(), state, searchpilot.TurnRequest{
			Form:  payload.Form,
			Skip:  payload.Skip,
			Retry: payload.Retry,
		})
		s.bridgeWS(writer, result)
		lock.Unlock()
	}
}

func (s *Server) bridgeWS(writer *wsWriter, result searchpilot.TurnResult) {
	uiCh, genCh, colCh := result.UI, result.Generating, result.Collapsed
	for uiCh != nil || genCh != nil || colCh != nil {
		select {
		case ev, ok := <-uiCh:
			if !ok {
				uiCh = nil
				continue
			}
			s.writeOrLog(writer, "ui", ev)
		case v, ok := <-genCh:
			if !ok {
				genCh = nil
				continue
			}
			s.writeOrLog(writer, "generating", v)
		case v, ok := <-colCh:
			if !ok {
				colCh = nil
				continue
			}
			s.writeOrLog(writer, "collapsed", v)
		}
	}
	if err := writer.writeDone(result.TurnID); err != nil {
		s.log.Error("websocket write failed", "error", err)
	}
}

func (s *Server) writeOrLog(writer *wsWriter, channel string, payload interface{}) {
	if err := writer.writeEvent(channel, payload); err != nil {
		s.log.Error("websocket write failed", "channel", channel, "error", err)
	}
}
