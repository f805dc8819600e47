package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultModel 未指定模型时的默认值
const DefaultModel = "gpt-4o-mini"

// OpenAIProvider 基于 go-openai 的推理引擎实现
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider 创建 OpenAI 提供者
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Converse 执行一轮推理
func (p *OpenAIProvider) Converse(ctx context.Context, messages []Message, convCtx ConversationContext, tools []ToolDefinition) (*Reply, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: p.buildMessages(messages, convCtx),
		Tools:    buildTools(tools),
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0].Message

	// 模型一次提供多个工具调用时只取第一个
	if len(choice.ToolCalls) > 0 {
		toolCall := choice.ToolCalls[0]
		return &Reply{
			Action: &ActionCall{
				Name:      toolCall.Function.Name,
				Arguments: json.RawMessage(toolCall.Function.Arguments),
			},
		}, nil
	}

	return &Reply{Text: choice.Content}, nil
}

// FollowUp 根据动作执行结果生成自然语言答复
func (p *OpenAIProvider) FollowUp(ctx context.Context, messages []Message, convCtx ConversationContext, action ActionCall, result json.RawMessage) (string, error) {
	chatMessages := p.buildMessages(messages, convCtx)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(
			"You just executed the action %q with arguments %s. The result was: %s. "+
				"Reply to the caller in one or two short spoken sentences based on this result. "+
				"Do not mention the action by name.",
			action.Name, string(action.Arguments), string(result)),
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: chatMessages,
	})
	if err != nil {
		return "", fmt.Errorf("follow-up completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("follow-up completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Analyze 对通话转写执行一次分析任务
func (p *OpenAIProvider) Analyze(ctx context.Context, task AnalysisTask, transcript string) (string, error) {
	prompt, ok := analysisPrompts[task]
	if !ok {
		return "", fmt.Errorf("unknown analysis task: %s", task)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return "", fmt.Errorf("analysis %s failed: %w", task, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("analysis %s returned no choices", task)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var analysisPrompts = map[AnalysisTask]string{
	AnalysisSummary: "Summarize this phone call transcript in two sentences or less. " +
		"Mention any reservation that was made, changed or cancelled.",
	AnalysisIntent: "Classify the primary intent of this phone call transcript. " +
		"Answer with exactly one of: reservation, modification, cancellation, inquiry, complaint, other.",
	AnalysisSentiment: "Classify the overall sentiment of the caller in this transcript. " +
		"Answer with exactly one of: positive, neutral, negative.",
}

// buildMessages 构造发送给模型的消息序列：系统提示 + 完整会话历史
// action-result 历史条目以系统消息的形式回放
func (p *OpenAIProvider) buildMessages(messages []Message, convCtx ConversationContext) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buildSystemPrompt(convCtx),
	})

	for _, msg := range messages {
		role := msg.Role
		content := msg.Content
		if role == RoleActionResult {
			role = openai.ChatMessageRoleSystem
			content = "[action result] " + content
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: content})
	}
	return out
}

// buildSystemPrompt 根据业务上下文构造系统提示词
func buildSystemPrompt(convCtx ConversationContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the phone assistant of the restaurant %q. ", convCtx.BusinessName)
	sb.WriteString("You take reservations, answer questions and help callers over the phone. ")
	sb.WriteString("Keep replies short and natural, they will be spoken aloud. ")
	fmt.Fprintf(&sb, "Today is %s. Opening hours are %02d:00 to %02d:00. ",
		convCtx.CurrentDate, convCtx.OpeningHour, convCtx.ClosingHour)
	if convCtx.CallerName != "" {
		fmt.Fprintf(&sb, "The caller is %s (%s). ", convCtx.CallerName, convCtx.CallerPhone)
	} else if convCtx.CallerPhone != "" {
		fmt.Fprintf(&sb, "The caller's number is %s, their name is not on file yet. ", convCtx.CallerPhone)
	}
	sb.WriteString("When the caller asks for something covered by one of your tools, call that tool instead of improvising.")
	return sb.String()
}

// buildTools 转换动作词表为 OpenAI 工具定义
func buildTools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, def := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return out
}
