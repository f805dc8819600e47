package voice

import (
	"errors"
	"strings"
	"time"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/llm"
)

// TurnState 通话轮次状态机
type TurnState string

const (
	TurnGreeting   TurnState = "greeting"   // 开场白播报中
	TurnListening  TurnState = "listening"  // 等待来电者说话
	TurnProcessing TurnState = "processing" // 正在处理一轮对话
	TurnEnding     TurnState = "ending"     // 通话收尾，终态
)

var (
	// ErrSessionExists 同一callID重复创建会话，说明传输层重复上报了call start
	ErrSessionExists = errors.New("voice: session already exists")

	// ErrSessionMissing 会话不存在或已过期
	ErrSessionMissing = errors.New("voice: session missing")
)

// HistoryEntry 会话历史中的一条记录
type HistoryEntry struct {
	Role      string    `json:"role"` // system / user / assistant / action-result
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CollectedData 跨轮次累积的预订要素，只是草稿，动作提交前不具权威性
type CollectedData struct {
	Date              string `json:"date,omitempty"`
	Time              string `json:"time,omitempty"`
	PartySize         int    `json:"partySize,omitempty"`
	SpecialRequests   string `json:"specialRequests,omitempty"`
	LastReservationID uint   `json:"lastReservationId,omitempty"` // 本通电话最近创建的预订
}

// PendingFlags 动作执行后由协调器消费的控制标志
type PendingFlags struct {
	TransferRequested bool `json:"transferRequested"`
	EndRequested      bool `json:"endRequested"`
}

// Session 单通电话的会话状态，一个callID对应一个
// 来电者信息是通话开始时的快照，通话期间不与外部存储保持同步
type Session struct {
	CallID    string           `json:"callId"`
	Caller    *models.Customer `json:"caller,omitempty"`
	TurnState TurnState        `json:"turnState"`
	History   []HistoryEntry   `json:"history"`
	Collected CollectedData    `json:"collected"`
	Pending   PendingFlags     `json:"pending"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewSession 创建初始会话
func NewSession(callID string, caller *models.Customer) *Session {
	return &Session{
		CallID:    callID,
		Caller:    caller,
		TurnState: TurnGreeting,
		CreatedAt: time.Now(),
	}
}

// Append 追加一条历史记录，历史只增不减
func (s *Session) Append(role, content string) {
	s.History = append(s.History, HistoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Messages 将完整历史转换为推理引擎的消息序列
func (s *Session) Messages() []llm.Message {
	out := make([]llm.Message, 0, len(s.History))
	for _, entry := range s.History {
		out = append(out, llm.Message{Role: entry.Role, Content: entry.Content})
	}
	return out
}

// Transcript 将历史按顺序压平为一段文字转写，只保留双方说出口的内容
func (s *Session) Transcript() string {
	var sb strings.Builder
	for _, entry := range s.History {
		switch entry.Role {
		case llm.RoleUser:
			sb.WriteString("User: ")
		case llm.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			continue
		}
		sb.WriteString(entry.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// CallerName 来电者姓名，未知时返回空串
func (s *Session) CallerName() string {
	if s.Caller == nil {
		return ""
	}
	return s.Caller.Name
}

// CallerPhone 来电号码，未知时返回空串
func (s *Session) CallerPhone() string {
	if s.Caller == nil {
		return ""
	}
	return s.Caller.Phone
}

// TurnOutput 一轮对话的产出：文本、音频和控制标志
type TurnOutput struct {
	Text           string `json:"text"`
	Audio          []byte `json:"-"`
	ShouldEnd      bool   `json:"shouldEnd,omitempty"`
	ShouldTransfer bool   `json:"shouldTransfer,omitempty"`
	TransferReason string `json:"transferReason,omitempty"`
	Dropped        bool   `json:"dropped,omitempty"` // 轮次守卫丢弃了该事件
}
