package recognizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-100-precent/TableEcho/pkg/voice"
)

type fakeEngine struct {
	interims []string
	finals   []string
}

func (e *fakeEngine) OnInterimTranscript(callID, text string) {
	e.interims = append(e.interims, text)
}

func (e *fakeEngine) OnFinalTranscript(ctx context.Context, callID, text string) (*voice.TurnOutput, error) {
	e.finals = append(e.finals, text)
	return &voice.TurnOutput{Text: "ok"}, nil
}

func TestRelayRoutesInterimsWithoutOpeningTurn(t *testing.T) {
	engine := &fakeEngine{}
	relay := NewRelay(engine, 0.4)

	out, err := relay.HandleEvent(context.Background(), TranscriptEvent{
		CallID: "C1", Text: "book a ta", IsFinal: false,
	})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, []string{"book a ta"}, engine.interims)
	assert.Empty(t, engine.finals)
}

func TestRelayDropsLowConfidenceFinals(t *testing.T) {
	engine := &fakeEngine{}
	relay := NewRelay(engine, 0.4)

	out, err := relay.HandleEvent(context.Background(), TranscriptEvent{
		CallID: "C1", Text: "mumble mumble", IsFinal: true, Confidence: 0.12,
	})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, engine.finals)
}

func TestRelayPassesConfidentFinals(t *testing.T) {
	engine := &fakeEngine{}
	relay := NewRelay(engine, 0.4)

	out, err := relay.HandleEvent(context.Background(), TranscriptEvent{
		CallID: "C1", Text: "a table for two please", IsFinal: true, Confidence: 0.93,
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"a table for two please"}, engine.finals)
}

func TestRelayTreatsZeroConfidenceAsUnscored(t *testing.T) {
	engine := &fakeEngine{}
	relay := NewRelay(engine, 0.4)

	// transports that do not score finals still get through
	out, err := relay.HandleEvent(context.Background(), TranscriptEvent{
		CallID: "C1", Text: "a table for two please", IsFinal: true,
	})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestRelayIgnoresEmptyText(t *testing.T) {
	engine := &fakeEngine{}
	relay := NewRelay(engine, 0.4)

	out, err := relay.HandleEvent(context.Background(), TranscriptEvent{
		CallID: "C1", Text: "", IsFinal: true, Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, engine.finals)
	assert.Empty(t, engine.interims)
}
