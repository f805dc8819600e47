package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/recognizer"
	"github.com/code-100-precent/TableEcho/pkg/response"
	"github.com/code-100-precent/TableEcho/pkg/voice"
)

// CallStartRequest 通话开始回调
type CallStartRequest struct {
	CallID      string `json:"callId" binding:"required"`
	CallerPhone string `json:"callerPhone"`
}

// TranscriptRequest 转写事件回调
type TranscriptRequest struct {
	CallID     string  `json:"callId" binding:"required"`
	Text       string  `json:"text" binding:"required"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"isFinal"`
}

// CallStopRequest 通话结束回调
type CallStopRequest struct {
	CallID      string `json:"callId" binding:"required"`
	Reason      string `json:"reason"`
	DurationSec int    `json:"durationSec"`
}

// TurnResponse 一轮对话的响应载荷，音频以base64下发
type TurnResponse struct {
	Text           string `json:"text,omitempty"`
	Audio          []byte `json:"audio,omitempty"`
	ShouldEnd      bool   `json:"shouldEnd,omitempty"`
	ShouldTransfer bool   `json:"shouldTransfer,omitempty"`
	TransferReason string `json:"transferReason,omitempty"`
	Dropped        bool   `json:"dropped,omitempty"`
}

func turnResponse(out *voice.TurnOutput) *TurnResponse {
	if out == nil {
		return nil
	}
	return &TurnResponse{
		Text:           out.Text,
		Audio:          out.Audio,
		ShouldEnd:      out.ShouldEnd,
		ShouldTransfer: out.ShouldTransfer,
		TransferReason: out.TransferReason,
		Dropped:        out.Dropped,
	}
}

// HandleCallStart 通话开始，返回开场白
func (h *Handlers) HandleCallStart(c *gin.Context) {
	var req CallStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Parameter error", err.Error())
		return
	}

	out, err := h.coordinator.OnCallStart(c.Request.Context(), req.CallID, req.CallerPhone)
	if err != nil {
		if errors.Is(err, voice.ErrSessionExists) {
			response.Fail(c, "Call already started", req.CallID)
			return
		}
		response.Fail(c, "Failed to start call", err.Error())
		return
	}
	response.Success(c, turnResponse(out))
}

// HandleTranscript 转写事件，最终结果可能返回一轮回复
func (h *Handlers) HandleTranscript(c *gin.Context) {
	var req TranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Parameter error", err.Error())
		return
	}

	out, err := h.relay.HandleEvent(c.Request.Context(), recognizer.TranscriptEvent{
		CallID:     req.CallID,
		Text:       req.Text,
		Confidence: req.Confidence,
		IsFinal:    req.IsFinal,
	})
	if err != nil {
		if errors.Is(err, voice.ErrSessionMissing) {
			// 会话已过期，网关应挂断而不是重试
			response.Fail(c, "Session missing", req.CallID)
			return
		}
		response.Fail(c, "Failed to process transcript", err.Error())
		return
	}
	response.Success(c, turnResponse(out))
}

// HandleCallStop 通话结束回调，重复收尾是空操作
func (h *Handlers) HandleCallStop(c *gin.Context) {
	var req CallStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Parameter error", err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = "completed"
	}

	if err := h.coordinator.OnCallStop(c.Request.Context(), req.CallID, req.Reason, req.DurationSec); err != nil {
		response.Fail(c, "Failed to finalize call", err.Error())
		return
	}
	response.Success(c, gin.H{"finalized": true})
}

// ListCallRecords 最近通话列表
func (h *Handlers) ListCallRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := models.GetRecentCallRecords(h.db, limit)
	if err != nil {
		response.Fail(c, "Failed to list call records", err.Error())
		return
	}
	response.Success(c, records)
}

// GetCallRecord 单条通话详情
func (h *Handlers) GetCallRecord(c *gin.Context) {
	record, err := models.GetCallRecordByCallID(h.db, c.Param("callId"))
	if err != nil {
		response.Fail(c, "Call record not found", c.Param("callId"))
		return
	}
	response.Success(c, record)
}

// ListReservations 指定日期的预订列表
func (h *Handlers) ListReservations(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Fail(c, "Parameter error", "date is required")
		return
	}
	reservations, err := models.GetReservationsByDate(h.db, date)
	if err != nil {
		response.Fail(c, "Failed to list reservations", err.Error())
		return
	}
	response.Success(c, reservations)
}
