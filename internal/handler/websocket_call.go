package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/code-100-precent/TableEcho/pkg/logger"
	"github.com/code-100-precent/TableEcho/pkg/recognizer"
)

var callUpgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 1024 * 1024, // 回包携带整段音频
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamEvent 流式连接上行事件
type StreamEvent struct {
	Type       string  `json:"type"` // start / transcript / stop
	CallID     string  `json:"callId"`
	CallerID   string  `json:"callerPhone"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"isFinal"`
	Reason     string  `json:"reason"`
	Duration   int     `json:"durationSec"`
}

// StreamMessage 流式连接下行消息
type StreamMessage struct {
	Type    string        `json:"type"` // turn / caption / error / stopped
	CallID  string        `json:"callId,omitempty"`
	Caption string        `json:"caption,omitempty"`
	Turn    *TurnResponse `json:"turn,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// HandleCallStream 双向流式通话连接
// 一条连接承载一通电话的全部事件，中间转写以字幕消息回显
func (h *Handlers) HandleCallStream(c *gin.Context) {
	conn, err := callUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("failed to upgrade call stream", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		var event StreamEvent
		if err := conn.ReadJSON(&event); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("call stream closed unexpectedly", zap.Error(err))
			}
			return
		}
		if event.CallID == "" && event.Type != "start" {
			conn.WriteJSON(StreamMessage{Type: "error", Error: "callId is required"})
			continue
		}

		switch event.Type {
		case "start":
			// 网关未分配通话ID时由服务端生成
			if event.CallID == "" {
				event.CallID = uuid.NewString()
			}
			out, err := h.coordinator.OnCallStart(ctx, event.CallID, event.CallerID)
			if err != nil {
				conn.WriteJSON(StreamMessage{Type: "error", Error: err.Error()})
				continue
			}
			conn.WriteJSON(StreamMessage{Type: "turn", CallID: event.CallID, Turn: turnResponse(out)})

		case "transcript":
			if !event.IsFinal {
				// 中间结果回显为实时字幕，不触发轮次
				h.relay.HandleEvent(ctx, recognizer.TranscriptEvent{
					CallID: event.CallID, Text: event.Text,
				})
				conn.WriteJSON(StreamMessage{Type: "caption", Caption: event.Text})
				continue
			}
			out, err := h.relay.HandleEvent(ctx, recognizer.TranscriptEvent{
				CallID:     event.CallID,
				Text:       event.Text,
				Confidence: event.Confidence,
				IsFinal:    true,
			})
			if err != nil {
				conn.WriteJSON(StreamMessage{Type: "error", Error: err.Error()})
				continue
			}
			if out != nil {
				conn.WriteJSON(StreamMessage{Type: "turn", Turn: turnResponse(out)})
			}

		case "stop":
			if event.Reason == "" {
				event.Reason = "completed"
			}
			if err := h.coordinator.OnCallStop(ctx, event.CallID, event.Reason, event.Duration); err != nil {
				conn.WriteJSON(StreamMessage{Type: "error", Error: err.Error()})
				return
			}
			conn.WriteJSON(StreamMessage{Type: "stopped"})
			return

		default:
			conn.WriteJSON(StreamMessage{Type: "error", Error: "unknown event type: " + event.Type})
		}
	}
}
