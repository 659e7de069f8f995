package nostrelay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sasha-s/go-deadlock"
	"github.com/stackerstan/go-nostr"

	"taskledger/taskledger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = pongWait / 2

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024
)

// WebSocket serializes writes to one connection, gorilla/websocket allows only one concurrent writer.
type WebSocket struct {
	conn  *websocket.Conn
	mutex *deadlock.Mutex
}

func (ws *WebSocket) WriteJSON(v interface{}) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	if err := ws.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.conn.WriteMessage(websocket.TextMessage, b)
}

func (ws *WebSocket) WriteMessage(t int, b []byte) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()
	if err := ws.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.conn.WriteMessage(t, b)
}

//handleWebsocket handles connections from clients. Messages from one connection are handled in the order they arrive.
func (r *Relay) handleWebsocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		taskledger.LogCLI("failed to upgrade websocket", 3)
		return
	}
	ws := &WebSocket{conn: conn, mutex: &deadlock.Mutex{}}
	if !r.track(ws) {
		conn.Close()
		return
	}
	done := make(chan struct{})

	// pinger
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					taskledger.LogCLI("couldn't ping, exterminating socket", 3)
					conn.Close()
					return
				}
			}
		}
	}()

	go func() {
		defer func() {
			close(done)
			conn.Close()
			r.untrack(ws)
		}()
		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					taskledger.LogCLI("unexpected close of websocket", 3)
				}
				return
			}
			// req.Context() ends when the handler returns, the connection outlives it
			if reply := r.handleMessage(context.Background(), ws, message); reply != nil {
				if err := ws.WriteJSON(reply); err != nil {
					taskledger.LogCLI(err.Error(), 3)
					return
				}
			}
		}
	}()
}

// handleMessage processes one client message. It returns the reply to send, if any.
func (r *Relay) handleMessage(ctx context.Context, ws *WebSocket, message []byte) []interface{} {
	var request []jsoniter.RawMessage
	if err := json.Unmarshal(message, &request); err != nil {
		return []interface{}{"NOTICE", "invalid: could not decode message"}
	}
	if len(request) < 2 {
		return []interface{}{"NOTICE", "invalid: request has less than 2 parameters"}
	}
	var typ string
	if err := json.Unmarshal(request[0], &typ); err != nil {
		return []interface{}{"NOTICE", "invalid: message type is not a string"}
	}
	switch typ {
	case "EVENT":
		var evt nostr.Event
		if err := json.Unmarshal(request[1], &evt); err != nil {
			return []interface{}{"NOTICE", "invalid: failed to decode event"}
		}
		receipt, err := r.ledger.HandleEvent(ctx, taskledger.ConvertToInternalEvent(&evt))
		if err != nil {
			return []interface{}{"OK", evt.ID, false, fmt.Sprintf("%s: %s", taskledger.Reason(err), err)}
		}
		b, err := json.Marshal(receipt)
		if err != nil {
			taskledger.LogCLI(err.Error(), 1)
		}
		return []interface{}{"OK", evt.ID, true, string(b)}
	case "REQ":
		var id string
		if err := json.Unmarshal(request[1], &id); err != nil || id == "" {
			return []interface{}{"NOTICE", "invalid: REQ has no <id>"}
		}
		for _, raw := range request[2:] {
			var q Query
			if err := json.Unmarshal(raw, &q); err != nil {
				return []interface{}{"CLOSED", id, "invalid: failed to decode query"}
			}
			result, err := r.answer(q)
			if err != nil {
				return []interface{}{"CLOSED", id, fmt.Sprintf("%s: %s", taskledger.Reason(err), err)}
			}
			if err := ws.WriteJSON([]interface{}{"EVENT", id, result}); err != nil {
				taskledger.LogCLI(err.Error(), 3)
				return nil
			}
		}
		return []interface{}{"EOSE", id}
	case "CLOSE":
		var id string
		if err := json.Unmarshal(request[1], &id); err != nil || id == "" {
			return []interface{}{"NOTICE", "invalid: CLOSE has no <id>"}
		}
		// queries are answered in full before EOSE, so there is never anything left to close
		return []interface{}{"CLOSED", id, ""}
	}
	return []interface{}{"NOTICE", "invalid: unknown message type " + typ}
}
