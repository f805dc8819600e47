package llm

import (
	"context"
	"encoding/json"
)

// 消息角色，与会话历史保持一致
const (
	RoleSystem       = "system"
	RoleUser         = "user"
	RoleAssistant    = "assistant"
	RoleActionResult = "action-result"
)

// Message 统一的消息格式
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ActionCall 推理引擎请求执行的结构化动作
type ActionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Reply 一轮推理的结果：纯文本回复或一次动作调用（二选一）
type Reply struct {
	Text   string
	Action *ActionCall
}

// ToolDefinition 动作词表中单个动作的定义
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ConversationContext 每轮推理附带的业务上下文
type ConversationContext struct {
	BusinessName string
	CallerName   string
	CallerPhone  string
	CurrentDate  string // YYYY-MM-DD
	OpeningHour  int
	ClosingHour  int
}

// AnalysisTask 通话结束后的分析任务类型
type AnalysisTask string

const (
	AnalysisSummary   AnalysisTask = "summary"
	AnalysisIntent    AnalysisTask = "intent"
	AnalysisSentiment AnalysisTask = "sentiment"
)

// Provider 统一的推理引擎接口
// 所有提供者（OpenAI 等）都需要实现这个接口
type Provider interface {
	// Converse 执行一轮推理：输入完整历史和动作词表，
	// 返回自由文本或恰好一个动作调用（提供多个时取第一个）
	Converse(ctx context.Context, messages []Message, convCtx ConversationContext, tools []ToolDefinition) (*Reply, error)

	// FollowUp 根据动作执行结果生成面向来电者的自然语言答复
	FollowUp(ctx context.Context, messages []Message, convCtx ConversationContext, action ActionCall, result json.RawMessage) (string, error)

	// Analyze 对完整通话转写执行一次分析任务
	Analyze(ctx context.Context, task AnalysisTask, transcript string) (string, error)
}
