package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/llm"
)

// ActionResult 动作执行的统一结果，原样回灌给推理引擎作为下一轮回复的依据
// 单个动作失败从不中断通话，以 success:false 的形式进入上下文
type ActionResult struct {
	Success        bool                   `json:"success"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Error          string                 `json:"error,omitempty"`
	ShouldEnd      bool                   `json:"shouldEnd,omitempty"`
	ShouldTransfer bool                   `json:"shouldTransfer,omitempty"`
	TransferReason string                 `json:"transferReason,omitempty"`
}

// JSON 序列化结果，序列化失败时退化为最小错误对象
func (r ActionResult) JSON() string {
	raw, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"result serialization failed"}`
	}
	return string(raw)
}

func failure(format string, args ...interface{}) ActionResult {
	return ActionResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Dispatcher 动作分发器，把推理引擎产出的结构化动作映射到具体处理函数
// 参数在分发边界上反序列化成每个动作的专用结构并完成校验，处理函数拿到的都是合法输入
type Dispatcher struct {
	db           *gorm.DB
	availability *Availability
	finalizer    *Finalizer
	maxPartySize int
	log          *zap.Logger

	now func() time.Time
}

// NewDispatcher 创建动作分发器
func NewDispatcher(db *gorm.DB, availability *Availability, finalizer *Finalizer, maxPartySize int, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		db:           db,
		availability: availability,
		finalizer:    finalizer,
		maxPartySize: maxPartySize,
		log:          log,
		now:          time.Now,
	}
}

// Dispatch 执行一次动作调用
// 会话的Caller/Collected/Pending可能被处理函数就地修改，由协调器负责写回存储
func (d *Dispatcher) Dispatch(ctx context.Context, session *Session, action llm.ActionCall) ActionResult {
	d.log.Info("dispatching action",
		zap.String("callId", session.CallID),
		zap.String("action", action.Name))

	var result ActionResult
	switch action.Name {
	case ActionCheckAvailability:
		result = d.checkAvailability(action.Arguments)
	case ActionCreateReservation:
		result = d.createReservation(session, action.Arguments)
	case ActionModifyReservation:
		result = d.modifyReservation(action.Arguments)
	case ActionCancelReservation:
		result = d.cancelReservation(action.Arguments)
	case ActionGetCustomerReservations:
		result = d.getCustomerReservations(session)
	case ActionUpdateCustomerName:
		result = d.updateCustomerName(session, action.Arguments)
	case ActionAnswerFAQ:
		result = d.answerFAQ(action.Arguments)
	case ActionTransferToHuman:
		result = d.transferToHuman(session, action.Arguments)
	case ActionEndCall:
		result = d.endCall(ctx, session, action.Arguments)
	default:
		result = failure("unknown action %q", action.Name)
	}

	if !result.Success {
		d.log.Warn("action failed",
			zap.String("callId", session.CallID),
			zap.String("action", action.Name),
			zap.String("error", result.Error))
	}
	return result
}

type checkAvailabilityArgs struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"partySize"`
}

func (d *Dispatcher) checkAvailability(raw json.RawMessage) ActionResult {
	var args checkAvailabilityArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if err := d.validateSlot(args.Date, args.Time, args.PartySize); err != nil {
		return failure("%v", err)
	}

	available, alternatives, err := d.availability.CheckSlot(args.Date, args.Time)
	if err != nil {
		return failure("availability check failed: %v", err)
	}

	data := map[string]interface{}{
		"available": available,
		"date":      args.Date,
		"time":      args.Time,
		"partySize": args.PartySize,
	}
	if !available {
		data["alternatives"] = alternatives
	}
	return ActionResult{Success: true, Data: data}
}

type createReservationArgs struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	PartySize       int    `json:"partySize"`
	SpecialRequests string `json:"specialRequests"`
}

func (d *Dispatcher) createReservation(session *Session, raw json.RawMessage) ActionResult {
	if session.Caller == nil {
		return failure("caller identity is not resolved, ask for the caller's phone number first")
	}

	var args createReservationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if err := d.validateSlot(args.Date, args.Time, args.PartySize); err != nil {
		return failure("%v", err)
	}

	reservation := &models.Reservation{
		CustomerID:      session.Caller.ID,
		Date:            args.Date,
		Time:            args.Time,
		PartySize:       args.PartySize,
		SpecialRequests: args.SpecialRequests,
		CallID:          session.CallID,
	}
	if err := models.CreateReservation(d.db, reservation); err != nil {
		return failure("could not save the reservation: %v", err)
	}

	if err := models.IncrementReservationCount(d.db, session.Caller.ID); err != nil {
		d.log.Warn("failed to bump reservation counter",
			zap.String("callId", session.CallID), zap.Error(err))
	}
	if err := models.LinkReservationToCall(d.db, session.CallID, reservation.ID); err != nil {
		d.log.Warn("failed to link reservation to call record",
			zap.String("callId", session.CallID), zap.Error(err))
	}

	session.Collected.Date = args.Date
	session.Collected.Time = args.Time
	session.Collected.PartySize = args.PartySize
	session.Collected.SpecialRequests = args.SpecialRequests
	session.Collected.LastReservationID = reservation.ID

	return ActionResult{Success: true, Data: map[string]interface{}{
		"reservationId":    reservation.ID,
		"confirmationCode": reservation.ConfirmationCode,
		"date":             reservation.Date,
		"time":             reservation.Time,
		"partySize":        reservation.PartySize,
	}}
}

type modifyReservationArgs struct {
	ReservationID uint    `json:"reservationId"`
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	PartySize     *int    `json:"partySize"`
	SpecialReqs   *string `json:"specialRequests"`
}

func (d *Dispatcher) modifyReservation(raw json.RawMessage) ActionResult {
	var args modifyReservationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if args.ReservationID == 0 {
		return failure("reservationId is required")
	}

	if _, err := models.GetReservationByID(d.db, args.ReservationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure("reservation %d not found", args.ReservationID)
		}
		return failure("reservation lookup failed: %v", err)
	}

	// 补丁语义：只更新提供了的字段
	fields := map[string]interface{}{}
	if args.Date != nil {
		if err := d.availability.ValidateDate(*args.Date); err != nil {
			return failure("%v", err)
		}
		fields["date"] = *args.Date
	}
	if args.Time != nil {
		if err := d.availability.ValidateTime(*args.Time); err != nil {
			return failure("%v", err)
		}
		fields["time"] = *args.Time
	}
	if args.PartySize != nil {
		if err := d.availability.ValidatePartySize(*args.PartySize, d.maxPartySize); err != nil {
			return failure("%v", err)
		}
		fields["party_size"] = *args.PartySize
	}
	if args.SpecialReqs != nil {
		fields["special_requests"] = *args.SpecialReqs
	}
	if len(fields) == 0 {
		return failure("nothing to change, provide at least one field")
	}

	if err := models.UpdateReservationFields(d.db, args.ReservationID, fields); err != nil {
		return failure("could not update the reservation: %v", err)
	}
	return ActionResult{Success: true, Data: map[string]interface{}{
		"reservationId": args.ReservationID,
		"updated":       true,
	}}
}

type cancelReservationArgs struct {
	ReservationID uint `json:"reservationId"`
}

func (d *Dispatcher) cancelReservation(raw json.RawMessage) ActionResult {
	var args cancelReservationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if args.ReservationID == 0 {
		return failure("reservationId is required")
	}

	if _, err := models.GetReservationByID(d.db, args.ReservationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return failure("reservation %d not found", args.ReservationID)
		}
		return failure("reservation lookup failed: %v", err)
	}
	if err := models.CancelReservation(d.db, args.ReservationID); err != nil {
		return failure("could not cancel the reservation: %v", err)
	}
	return ActionResult{Success: true, Data: map[string]interface{}{
		"reservationId": args.ReservationID,
		"cancelled":     true,
	}}
}

func (d *Dispatcher) getCustomerReservations(session *Session) ActionResult {
	// 未知来电者不报错，返回空列表
	if session.Caller == nil {
		return ActionResult{Success: true, Data: map[string]interface{}{
			"reservations": []interface{}{},
		}}
	}

	today := d.now().Format(dateLayout)
	reservations, err := models.GetUpcomingReservations(d.db, session.Caller.ID, today, 10)
	if err != nil {
		return failure("reservation lookup failed: %v", err)
	}

	list := make([]map[string]interface{}, 0, len(reservations))
	for _, r := range reservations {
		list = append(list, map[string]interface{}{
			"reservationId":    r.ID,
			"confirmationCode": r.ConfirmationCode,
			"date":             r.Date,
			"time":             r.Time,
			"partySize":        r.PartySize,
		})
	}
	return ActionResult{Success: true, Data: map[string]interface{}{
		"reservations": list,
	}}
}

type updateCustomerNameArgs struct {
	Name string `json:"name"`
}

func (d *Dispatcher) updateCustomerName(session *Session, raw json.RawMessage) ActionResult {
	if session.Caller == nil {
		return failure("caller identity is not resolved")
	}

	var args updateCustomerNameArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if args.Name == "" {
		return failure("name is required")
	}

	if err := models.UpdateCustomerName(d.db, session.Caller.ID, args.Name); err != nil {
		return failure("could not save the name: %v", err)
	}
	// 镜像到会话快照，本通电话后续轮次无需重查
	session.Caller.Name = args.Name

	return ActionResult{Success: true, Data: map[string]interface{}{
		"name": args.Name,
	}}
}

type answerFAQArgs struct {
	Question string `json:"question"`
}

func (d *Dispatcher) answerFAQ(raw json.RawMessage) ActionResult {
	var args answerFAQArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if args.Question == "" {
		return failure("question is required")
	}

	entry, err := models.SearchFAQ(d.db, args.Question)
	if err != nil {
		return failure("faq lookup failed: %v", err)
	}
	// 查不到答案是正常情况，不是错误
	if entry == nil {
		return ActionResult{Success: true, Data: map[string]interface{}{
			"found": false,
		}}
	}
	return ActionResult{Success: true, Data: map[string]interface{}{
		"found":    true,
		"question": entry.Question,
		"answer":   entry.Answer,
	}}
}

type transferToHumanArgs struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (d *Dispatcher) transferToHuman(session *Session, raw json.RawMessage) ActionResult {
	var args transferToHumanArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if args.Reason == "" {
		return failure("reason is required")
	}

	if err := models.SetCallTransfer(d.db, session.CallID, args.Reason, args.Notes); err != nil {
		return failure("could not record the transfer: %v", err)
	}
	// 实际转接由传输层响应标志完成，这里只做登记
	session.Pending.TransferRequested = true

	return ActionResult{
		Success:        true,
		ShouldTransfer: true,
		TransferReason: args.Reason,
		Data: map[string]interface{}{
			"transferring": true,
		},
	}
}

type endCallArgs struct {
	Reason string `json:"reason"`
}

func (d *Dispatcher) endCall(ctx context.Context, session *Session, raw json.RawMessage) ActionResult {
	var args endCallArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return failure("invalid arguments: %v", err)
	}
	if args.Reason == "" {
		args.Reason = "completed"
	}

	session.Pending.EndRequested = true

	// 收尾在产出动作结果的同时同步执行，之后会话即被释放
	duration := int(d.now().Sub(session.CreatedAt).Seconds())
	if err := d.finalizer.Finalize(ctx, session.CallID, args.Reason, duration); err != nil {
		d.log.Error("finalization failed during end_call",
			zap.String("callId", session.CallID), zap.Error(err))
		return ActionResult{
			Success:   false,
			Error:     fmt.Sprintf("finalization failed: %v", err),
			ShouldEnd: true,
		}
	}

	return ActionResult{
		Success:   true,
		ShouldEnd: true,
		Data: map[string]interface{}{
			"ended":  true,
			"reason": args.Reason,
		},
	}
}

func (d *Dispatcher) validateSlot(date, slot string, partySize int) error {
	if err := d.availability.ValidateDate(date); err != nil {
		return err
	}
	if err := d.availability.ValidateTime(slot); err != nil {
		return err
	}
	return d.availability.ValidatePartySize(partySize, d.maxPartySize)
}
