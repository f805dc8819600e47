package voice

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/llm"
)

// 分析失败时写入的中性占位值，单项失败不阻断收尾
const (
	placeholderSummary   = "unavailable"
	placeholderIntent    = "unknown"
	placeholderSentiment = "neutral"
)

// Finalizer 通话收尾：压平转写、并发分析、补全通话记录、释放会话
// 同一callID重复收尾是正常情况（对话内end_call和传输层call stop都会触发），吸收为空操作
type Finalizer struct {
	db       *gorm.DB
	store    *SessionStore
	provider llm.Provider
	log      *zap.Logger
}

// NewFinalizer 创建通话收尾器
func NewFinalizer(db *gorm.DB, store *SessionStore, provider llm.Provider, log *zap.Logger) *Finalizer {
	return &Finalizer{db: db, store: store, provider: provider, log: log}
}

// Finalize 执行一次通话收尾
// 会话已不存在时仍尝试补全通话记录，已补全过的记录不会被二次覆盖
func (f *Finalizer) Finalize(ctx context.Context, callID, reason string, durationSec int) error {
	session, err := f.store.Get(ctx, callID)
	if err != nil && !errors.Is(err, ErrSessionMissing) {
		return err
	}

	var transcript string
	status := models.CallStatusCompleted
	if session != nil {
		transcript = session.Transcript()
		if session.Pending.TransferRequested {
			status = models.CallStatusTransferred
		}
	}

	summary, intent, sentiment := f.analyze(ctx, callID, transcript)

	updated, err := models.CompleteCallRecord(f.db, callID, models.CallCompletion{
		Status:      status,
		DurationSec: durationSec,
		EndReason:   reason,
		Transcript:  transcript,
		Summary:     summary,
		Intent:      intent,
		Sentiment:   sentiment,
	})
	if err != nil {
		return err
	}
	if !updated {
		f.log.Debug("call already finalized, skipping",
			zap.String("callId", callID), zap.String("reason", reason))
	}

	if session != nil {
		if err := f.store.Delete(ctx, callID); err != nil {
			f.log.Warn("failed to delete session after finalization",
				zap.String("callId", callID), zap.Error(err))
		}
	}

	f.log.Info("call finalized",
		zap.String("callId", callID),
		zap.String("status", string(status)),
		zap.String("reason", reason),
		zap.Int("durationSec", durationSec),
		zap.Bool("recordUpdated", updated))
	return nil
}

// analyze 并发执行摘要、意图、情感三项分析，互不影响，失败落占位值
func (f *Finalizer) analyze(ctx context.Context, callID, transcript string) (summary, intent, sentiment string) {
	summary, intent, sentiment = placeholderSummary, placeholderIntent, placeholderSentiment
	if transcript == "" {
		return
	}

	tasks := []struct {
		task llm.AnalysisTask
		dest *string
	}{
		{llm.AnalysisSummary, &summary},
		{llm.AnalysisIntent, &intent},
		{llm.AnalysisSentiment, &sentiment},
	}

	var wg sync.WaitGroup
	for _, item := range tasks {
		wg.Add(1)
		go func(task llm.AnalysisTask, dest *string) {
			defer wg.Done()
			result, err := f.provider.Analyze(ctx, task, transcript)
			if err != nil {
				f.log.Warn("call analysis failed",
					zap.String("callId", callID),
					zap.String("task", string(task)),
					zap.Error(err))
				return
			}
			*dest = result
		}(item.task, item.dest)
	}
	wg.Wait()
	return
}
