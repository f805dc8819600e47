package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/llm"
	"github.com/code-100-precent/TableEcho/pkg/synthesizer"
)

// 一轮对话失败时的兜底话术，通话继续而不是冷场
const fallbackUtterance = "I'm sorry, I had trouble with that. Could you say that again?"

// 收尾回复生成失败时的兜底告别语
const goodbyeUtterance = "Thank you for calling. Goodbye!"

// Options 协调器的业务参数
type Options struct {
	BusinessName string
	OpeningHour  int
	ClosingHour  int
}

// Coordinator 轮次协调器，通话状态机的唯一推动者
// 每个callID的事件流串行到达，多通电话之间相互独立，没有全局锁
type Coordinator struct {
	store      *SessionStore
	db         *gorm.DB
	provider   llm.Provider
	synth      synthesizer.Service
	dispatcher *Dispatcher
	finalizer  *Finalizer
	opt        Options
	log        *zap.Logger

	// inFlight 进行中轮次守卫，同一callID同时最多一轮
	inFlight sync.Map

	now func() time.Time
}

// NewCoordinator 创建轮次协调器
func NewCoordinator(store *SessionStore, db *gorm.DB, provider llm.Provider,
	synth synthesizer.Service, dispatcher *Dispatcher, finalizer *Finalizer,
	opt Options, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store:      store,
		db:         db,
		provider:   provider,
		synth:      synth,
		dispatcher: dispatcher,
		finalizer:  finalizer,
		opt:        opt,
		log:        log,
		now:        time.Now,
	}
}

// OnCallStart 通话开始：建档、建会话、播报开场白
// 同一callID重复开始属于传输层缺陷，直接报错而不是覆盖已有会话
func (c *Coordinator) OnCallStart(ctx context.Context, callID, callerAddr string) (*TurnOutput, error) {
	caller := c.resolveCaller(callID, callerAddr)

	session := NewSession(callID, caller)
	session.CreatedAt = c.now()
	if err := c.store.Create(ctx, session); err != nil {
		return nil, err
	}

	record := &models.CallRecord{CallID: callID, CallerPhone: callerAddr}
	if caller != nil {
		record.CustomerID = &caller.ID
	}
	if err := models.CreateCallRecord(c.db, record); err != nil {
		c.log.Warn("failed to create call record",
			zap.String("callId", callID), zap.Error(err))
	}

	greeting := c.buildGreeting(caller)
	if _, err := c.store.Update(ctx, callID, func(s *Session) error {
		s.Append(llm.RoleAssistant, greeting)
		s.TurnState = TurnListening
		return nil
	}); err != nil {
		return nil, err
	}

	out := &TurnOutput{Text: greeting}
	audio, err := c.synth.Synthesize(ctx, greeting)
	if err != nil {
		// 开场白合成失败不终止通话，降级为纯文本，转写保持完整
		c.log.Warn("greeting synthesis failed, continuing text-only",
			zap.String("callId", callID), zap.Error(err))
	} else {
		out.Audio = audio
	}

	c.log.Info("call started",
		zap.String("callId", callID),
		zap.String("caller", callerAddr),
		zap.Bool("knownCaller", caller != nil && caller.Name != ""))
	return out, nil
}

// OnInterimTranscript 中间识别结果仅供展示，从不触发轮次，也不改会话状态
func (c *Coordinator) OnInterimTranscript(callID, text string) {
	c.log.Debug("interim transcript",
		zap.String("callId", callID), zap.String("text", text))
}

// OnFinalTranscript 处理一条最终识别结果，完成一轮对话
// 当前已有轮次进行中时该事件被丢弃（不排队不阻塞），这是传输层背压的正常表现
func (c *Coordinator) OnFinalTranscript(ctx context.Context, callID, text string) (*TurnOutput, error) {
	if _, busy := c.inFlight.LoadOrStore(callID, struct{}{}); busy {
		c.log.Warn("turn already in flight, dropping transcript",
			zap.String("callId", callID), zap.String("text", text))
		return &TurnOutput{Dropped: true}, nil
	}
	defer c.inFlight.Delete(callID)

	session, err := c.store.Update(ctx, callID, func(s *Session) error {
		s.TurnState = TurnProcessing
		s.Append(llm.RoleUser, text)
		return nil
	})
	if err != nil {
		// 会话已过期时不允许中途重建通话
		return nil, err
	}

	convCtx := c.conversationContext(session)
	out := &TurnOutput{}
	responseText := ""

	reply, err := c.provider.Converse(ctx, session.Messages(), convCtx, ActionTools())
	switch {
	case err != nil:
		c.log.Error("reasoning round failed",
			zap.String("callId", callID), zap.Error(err))
		responseText = fallbackUtterance

	case reply.Action != nil:
		result := c.dispatcher.Dispatch(ctx, session, *reply.Action)
		session.Append(llm.RoleActionResult, result.JSON())
		out.ShouldEnd = result.ShouldEnd
		out.ShouldTransfer = result.ShouldTransfer
		out.TransferReason = result.TransferReason

		followUp, err := c.provider.FollowUp(ctx, session.Messages(), convCtx,
			*reply.Action, json.RawMessage(result.JSON()))
		if err != nil {
			c.log.Error("follow-up round failed",
				zap.String("callId", callID), zap.Error(err))
			if out.ShouldEnd {
				responseText = goodbyeUtterance
			} else {
				responseText = fallbackUtterance
			}
		} else {
			responseText = followUp
		}

	default:
		responseText = reply.Text
		if responseText == "" {
			responseText = fallbackUtterance
		}
	}

	session.Append(llm.RoleAssistant, responseText)

	nextState := TurnListening
	if out.ShouldEnd || out.ShouldTransfer {
		nextState = TurnEnding
	}

	// 把本轮的全部改动写回最新存储值，end_call已释放会话时跳过
	if _, err := c.store.Update(ctx, callID, func(latest *Session) error {
		latest.Caller = session.Caller
		latest.History = session.History
		latest.Collected = session.Collected
		latest.Pending = session.Pending
		latest.TurnState = nextState
		return nil
	}); err != nil {
		c.log.Debug("session gone before write-back",
			zap.String("callId", callID), zap.Error(err))
	}

	out.Text = responseText
	audio, synthErr := c.synth.Synthesize(ctx, responseText)
	if synthErr != nil {
		c.log.Warn("response synthesis failed, returning text-only",
			zap.String("callId", callID), zap.Error(synthErr))
	} else {
		out.Audio = audio
	}
	return out, nil
}

// OnCallStop 传输层通话结束通知，无论当前处于什么状态都执行收尾
// 会话已被对话内end_call收尾过时，这里是空操作
func (c *Coordinator) OnCallStop(ctx context.Context, callID, reason string, durationSec int) error {
	return c.finalizer.Finalize(ctx, callID, reason, durationSec)
}

// resolveCaller 按来电号码建档或取档，失败时以匿名来电继续
func (c *Coordinator) resolveCaller(callID, callerAddr string) *models.Customer {
	if callerAddr == "" {
		return nil
	}
	caller, err := models.GetOrCreateCustomer(c.db, callerAddr)
	if err != nil {
		c.log.Warn("failed to resolve caller, continuing anonymous",
			zap.String("callId", callID),
			zap.String("caller", callerAddr),
			zap.Error(err))
		return nil
	}
	if err := models.TouchCustomerLastCall(c.db, caller.ID, c.now()); err != nil {
		c.log.Warn("failed to touch caller last-call time",
			zap.String("callId", callID), zap.Error(err))
	}
	return caller
}

// buildGreeting 构造开场白，熟客带姓名，有近期预订时一并提起
func (c *Coordinator) buildGreeting(caller *models.Customer) string {
	if caller == nil || caller.Name == "" {
		return fmt.Sprintf("Thank you for calling %s! How can I help you today?", c.opt.BusinessName)
	}

	today := c.now().Format(dateLayout)
	upcoming, err := models.GetUpcomingReservations(c.db, caller.ID, today, 1)
	if err != nil {
		c.log.Warn("failed to look up upcoming reservations for greeting",
			zap.Uint("customerId", caller.ID), zap.Error(err))
	}
	if len(upcoming) > 0 {
		r := upcoming[0]
		return fmt.Sprintf("Thank you for calling %s, %s! I see you have a reservation for %d on %s at %s. How can I help you today?",
			c.opt.BusinessName, caller.Name, r.PartySize, r.Date, r.Time)
	}
	return fmt.Sprintf("Thank you for calling %s, %s! How can I help you today?",
		c.opt.BusinessName, caller.Name)
}

func (c *Coordinator) conversationContext(session *Session) llm.ConversationContext {
	return llm.ConversationContext{
		BusinessName: c.opt.BusinessName,
		CallerName:   session.CallerName(),
		CallerPhone:  session.CallerPhone(),
		CurrentDate:  c.now().Format(dateLayout),
		OpeningHour:  c.opt.OpeningHour,
		ClosingHour:  c.opt.ClosingHour,
	}
}
