package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"phenomap/inference"
	"phenomap/schema"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsReply 每条输入消息对应一条回复
type wsReply struct {
	Type       string              `json:"type"`
	Assignment *assignmentResponse `json:"assignment,omitempty"`
	Error      string              `json:"error,omitempty"`
	Status     int                 `json:"status,omitempty"`
}

func RegisterWebSocketHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ws/assign/{schema...}", handleAssignWebSocket)
}

// handleAssignWebSocket 交互式分配：每条文本消息是一个字段值JSON对象
func handleAssignWebSocket(w http.ResponseWriter, r *http.Request) {
	_, svc, err := lookupService(r.PathValue("schema"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		currentLogger().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := currentLogger().With(zap.String("request_id", GetRequestID(r.Context())))
	logger.Info("websocket client connected", zap.String("schema", svc.Schema().Name))

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	replies := make(chan wsReply, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case reply, ok := <-replies:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if !ok {
					conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				if err := conn.WriteJSON(reply); err != nil {
					logger.Warn("websocket write failed", zap.Error(err))
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	ctx := r.Context()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		reply := assignMessage(ctx, svc, message)
		select {
		case replies <- reply:
		case <-done:
			return
		}
	}
	close(replies)
	<-done
	logger.Info("websocket client disconnected")
}

func assignMessage(ctx context.Context, svc *inference.Service, message []byte) wsReply {
	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(message))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return errorReply(fmt.Errorf("%w: %v", schema.ErrInvalidInput, err))
	}
	values, err := valuesFromJSON(body)
	if err != nil {
		return errorReply(err)
	}
	a, err := svc.Assign(ctx, values)
	if err != nil {
		return errorReply(err)
	}
	resp := newAssignmentResponse(a)
	return wsReply{Type: "assignment", Assignment: &resp}
}

func errorReply(err error) wsReply {
	return wsReply{Type: "error", Error: err.Error(), Status: statusFor(err)}
}
