package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReservationDB(t *testing.T) *gorm.DB {
	return setupTestDBWithSilentLogger(t,
		&Customer{},
		&Reservation{},
	)
}

func TestCreateReservationGeneratesCode(t *testing.T) {
	db := setupReservationDB(t)

	customer := &Customer{Phone: "+15550001111"}
	require.NoError(t, db.Create(customer).Error)

	reservation := &Reservation{
		CustomerID: customer.ID,
		Date:       "2025-06-01",
		Time:       "19:00",
		PartySize:  4,
	}
	require.NoError(t, CreateReservation(db, reservation))

	assert.NotZero(t, reservation.ID)
	assert.Len(t, reservation.ConfirmationCode, 8)
	assert.Equal(t, ReservationStatusConfirmed, reservation.Status)

	found, err := GetReservationByCode(db, reservation.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, reservation.ID, found.ID)
}

func TestUpdateReservationFieldsIsPatch(t *testing.T) {
	db := setupReservationDB(t)

	reservation := &Reservation{
		Date:      "2025-06-01",
		Time:      "19:00",
		PartySize: 4,
	}
	require.NoError(t, CreateReservation(db, reservation))

	err := UpdateReservationFields(db, reservation.ID, map[string]interface{}{
		"party_size": 6,
	})
	require.NoError(t, err)

	updated, err := GetReservationByID(db, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.PartySize)
	// Untouched fields stay as they were
	assert.Equal(t, "2025-06-01", updated.Date)
	assert.Equal(t, "19:00", updated.Time)
}

func TestCancelReservation(t *testing.T) {
	db := setupReservationDB(t)

	reservation := &Reservation{Date: "2025-06-01", Time: "19:00", PartySize: 2}
	require.NoError(t, CreateReservation(db, reservation))

	require.NoError(t, CancelReservation(db, reservation.ID))

	cancelled, err := GetReservationByID(db, reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, ReservationStatusCancelled, cancelled.Status)
}

func TestCountReservationsInWindow(t *testing.T) {
	db := setupReservationDB(t)

	seed := []Reservation{
		{Date: "2025-06-01", Time: "18:30", PartySize: 2},
		{Date: "2025-06-01", Time: "19:00", PartySize: 4},
		{Date: "2025-06-01", Time: "19:30", PartySize: 2},
		{Date: "2025-06-01", Time: "20:30", PartySize: 2}, // outside the window
		{Date: "2025-06-02", Time: "19:00", PartySize: 2}, // other date
	}
	for i := range seed {
		require.NoError(t, CreateReservation(db, &seed[i]))
	}

	// Cancelled reservations do not count
	require.NoError(t, CancelReservation(db, seed[2].ID))

	count, err := CountReservationsInWindow(db, "2025-06-01", "18:30", "19:30")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGetUpcomingReservations(t *testing.T) {
	db := setupReservationDB(t)

	customer := &Customer{Phone: "+15550002222"}
	require.NoError(t, db.Create(customer).Error)

	seed := []Reservation{
		{CustomerID: customer.ID, Date: "2025-05-20", Time: "18:00", PartySize: 2},
		{CustomerID: customer.ID, Date: "2025-06-01", Time: "19:00", PartySize: 4},
		{CustomerID: customer.ID, Date: "2025-06-05", Time: "20:00", PartySize: 2},
	}
	for i := range seed {
		require.NoError(t, CreateReservation(db, &seed[i]))
	}

	upcoming, err := GetUpcomingReservations(db, customer.ID, "2025-05-25", 0)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "2025-06-01", upcoming[0].Date)
	assert.Equal(t, "2025-06-05", upcoming[1].Date)
}
