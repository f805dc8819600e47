package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-100-precent/TableEcho/internal/models"
	"github.com/code-100-precent/TableEcho/pkg/llm"
)

func seedFinalizerCall(t *testing.T, env *testEnv, callID string) {
	t.Helper()
	require.NoError(t, models.CreateCallRecord(env.db, &models.CallRecord{CallID: callID}))

	session := NewSession(callID, nil)
	session.Append(llm.RoleAssistant, "Thank you for calling!")
	session.Append(llm.RoleUser, "I'd like a table for two")
	require.NoError(t, env.store.Create(context.Background(), session))
}

func TestFinalizeRunsThreeAnalysesAndReleasesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedFinalizerCall(t, env, "C1")

	env.provider.analyze = map[llm.AnalysisTask]string{
		llm.AnalysisSummary:   "caller asked for a table",
		llm.AnalysisIntent:    "reservation",
		llm.AnalysisSentiment: "positive",
	}

	require.NoError(t, env.finalizer.Finalize(ctx, "C1", "completed", 95))
	assert.Equal(t, 3, env.provider.analyzeCalls)

	record, err := models.GetCallRecordByCallID(env.db, "C1")
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCompleted, record.Status)
	assert.Equal(t, 95, record.DurationSec)
	assert.Equal(t, "caller asked for a table", record.Summary)
	assert.Equal(t, "reservation", record.Intent)
	assert.Equal(t, "positive", record.Sentiment)
	assert.Contains(t, record.Transcript, "User: I'd like a table for two")

	_, err = env.store.Get(ctx, "C1")
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestFinalizeTwiceKeepsFirstRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedFinalizerCall(t, env, "C1")

	require.NoError(t, env.finalizer.Finalize(ctx, "C1", "completed", 95))
	require.NoError(t, env.finalizer.Finalize(ctx, "C1", "transport-stop", 142))

	record, err := models.GetCallRecordByCallID(env.db, "C1")
	require.NoError(t, err)
	assert.Equal(t, 95, record.DurationSec)
	assert.Equal(t, "completed", record.EndReason)
}

func TestFinalizeAnalysisFailureUsesPlaceholders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedFinalizerCall(t, env, "C1")

	env.provider.analyzeErr = errors.New("analysis upstream down")

	require.NoError(t, env.finalizer.Finalize(ctx, "C1", "completed", 60))

	record, err := models.GetCallRecordByCallID(env.db, "C1")
	require.NoError(t, err)
	assert.Equal(t, placeholderSummary, record.Summary)
	assert.Equal(t, placeholderIntent, record.Intent)
	assert.Equal(t, placeholderSentiment, record.Sentiment)
}

func TestFinalizeWithoutSessionSkipsAnalysis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, models.CreateCallRecord(env.db, &models.CallRecord{CallID: "C2"}))

	// session expired independently, finalization still completes the record
	require.NoError(t, env.finalizer.Finalize(ctx, "C2", "abandoned", 0))
	assert.Zero(t, env.provider.analyzeCalls)

	record, err := models.GetCallRecordByCallID(env.db, "C2")
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCompleted, record.Status)
	require.NotNil(t, record.EndedAt)
	assert.Empty(t, record.Transcript)
}

func TestFinalizeTransferredCallStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, models.CreateCallRecord(env.db, &models.CallRecord{CallID: "C3"}))

	session := NewSession("C3", nil)
	session.Append(llm.RoleUser, "get me a human")
	session.Pending.TransferRequested = true
	require.NoError(t, env.store.Create(ctx, session))

	require.NoError(t, env.finalizer.Finalize(ctx, "C3", "transferred", 30))

	record, err := models.GetCallRecordByCallID(env.db, "C3")
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusTransferred, record.Status)
}
