package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteCallRecordIsIdempotent(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Customer{}, &CallRecord{})

	record := &CallRecord{CallID: "CA001", CallerPhone: "+15550001111"}
	require.NoError(t, CreateCallRecord(db, record))
	assert.Equal(t, CallStatusInProgress, record.Status)

	updated, err := CompleteCallRecord(db, "CA001", CallCompletion{
		Status:      CallStatusCompleted,
		DurationSec: 142,
		EndReason:   "completed",
		Transcript:  "User: hi\nAssistant: hello",
		Summary:     "greeting only",
		Intent:      "other",
		Sentiment:   "neutral",
	})
	require.NoError(t, err)
	assert.True(t, updated)

	// Second completion must be a no-op and must not overwrite the duration
	updated, err = CompleteCallRecord(db, "CA001", CallCompletion{
		Status:      CallStatusCompleted,
		DurationSec: 999,
		EndReason:   "transport-stop",
	})
	require.NoError(t, err)
	assert.False(t, updated)

	final, err := GetCallRecordByCallID(db, "CA001")
	require.NoError(t, err)
	assert.Equal(t, 142, final.DurationSec)
	assert.Equal(t, "completed", final.EndReason)
	assert.NotNil(t, final.EndedAt)
}

func TestSetCallTransfer(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Customer{}, &CallRecord{})

	require.NoError(t, CreateCallRecord(db, &CallRecord{CallID: "CA002"}))
	require.NoError(t, SetCallTransfer(db, "CA002", "complex request", "caller wants a private room"))

	record, err := GetCallRecordByCallID(db, "CA002")
	require.NoError(t, err)
	assert.Equal(t, "complex request", record.TransferReason)
	assert.Equal(t, "caller wants a private room", record.TransferNotes)
}

func TestLinkReservationToCall(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Customer{}, &Reservation{}, &CallRecord{})

	require.NoError(t, CreateCallRecord(db, &CallRecord{CallID: "CA003"}))

	reservation := &Reservation{Date: "2025-06-01", Time: "19:00", PartySize: 4}
	require.NoError(t, CreateReservation(db, reservation))

	require.NoError(t, LinkReservationToCall(db, "CA003", reservation.ID))

	record, err := GetCallRecordByCallID(db, "CA003")
	require.NoError(t, err)
	require.NotNil(t, record.ReservationID)
	assert.Equal(t, reservation.ID, *record.ReservationID)
}
