package recognizer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/code-100-precent/TableEcho/pkg/voice"
)

// TranscriptEvent 语音识别产出的一条转写事件
// 中间结果只用于展示，最终结果带置信度并可能开启一轮对话
type TranscriptEvent struct {
	CallID     string    `json:"callId"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	IsFinal    bool      `json:"isFinal"`
	Timestamp  time.Time `json:"timestamp"`
}

// TurnEngine 转写事件的下游消费方
type TurnEngine interface {
	OnInterimTranscript(callID, text string)
	OnFinalTranscript(ctx context.Context, callID, text string) (*voice.TurnOutput, error)
}

// Relay 转写事件中继，在进入轮次协调器之前应用置信度下限
// 低置信度的最终结果按中间结果对待：记录日志但不开轮次
type Relay struct {
	engine        TurnEngine
	minConfidence float64
	log           *logrus.Entry
}

// NewRelay 创建转写中继
func NewRelay(engine TurnEngine, minConfidence float64) *Relay {
	return &Relay{
		engine:        engine,
		minConfidence: minConfidence,
		log:           logrus.WithField("module", "recognizer"),
	}
}

// HandleEvent 分发一条转写事件，返回值仅对真正开启了轮次的最终结果非空
func (r *Relay) HandleEvent(ctx context.Context, event TranscriptEvent) (*voice.TurnOutput, error) {
	if event.Text == "" {
		return nil, nil
	}

	if !event.IsFinal {
		r.engine.OnInterimTranscript(event.CallID, event.Text)
		return nil, nil
	}

	if event.Confidence > 0 && event.Confidence < r.minConfidence {
		r.log.WithFields(logrus.Fields{
			"callId":     event.CallID,
			"confidence": event.Confidence,
			"text":       event.Text,
		}).Warn("final transcript below confidence floor, ignoring")
		return nil, nil
	}

	return r.engine.OnFinalTranscript(ctx, event.CallID, event.Text)
}
