package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedFAQ(t *testing.T) *gorm.DB {
	db := setupTestDBWithSilentLogger(t, &FAQEntry{})

	entries := []FAQEntry{
		{Question: "Do you have parking?", Answer: "Yes, free parking behind the building.", Keywords: "parking,car,garage", Enabled: true},
		{Question: "Are dogs allowed?", Answer: "Dogs are welcome on the patio.", Keywords: "dog,pet,animal", Enabled: true},
		{Question: "Old entry", Answer: "outdated", Keywords: "parking", Enabled: false},
	}
	for i := range entries {
		require.NoError(t, CreateFAQEntry(db, &entries[i]))
	}
	return db
}

func TestSearchFAQBestMatch(t *testing.T) {
	db := seedFAQ(t)

	entry, err := SearchFAQ(db, "Is there parking for my car nearby?")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Do you have parking?", entry.Question)
}

func TestSearchFAQNoMatchReturnsNil(t *testing.T) {
	db := seedFAQ(t)

	entry, err := SearchFAQ(db, "what is the meaning of life")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSearchFAQIgnoresDisabledEntries(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &FAQEntry{})
	require.NoError(t, CreateFAQEntry(db, &FAQEntry{
		Question: "hidden", Answer: "hidden", Keywords: "parking", Enabled: false,
	}))

	entry, err := SearchFAQ(db, "parking?")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCustomerHelpers(t *testing.T) {
	db := setupTestDBWithSilentLogger(t, &Customer{})

	customer, err := GetOrCreateCustomer(db, "+15550003333")
	require.NoError(t, err)
	assert.NotZero(t, customer.ID)

	again, err := GetOrCreateCustomer(db, "+15550003333")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, again.ID)

	require.NoError(t, UpdateCustomerName(db, customer.ID, "Maria"))
	require.NoError(t, IncrementReservationCount(db, customer.ID))
	require.NoError(t, IncrementReservationCount(db, customer.ID))

	fresh, err := GetCustomerByPhone(db, "+15550003333")
	require.NoError(t, err)
	assert.Equal(t, "Maria", fresh.Name)
	assert.Equal(t, 2, fresh.ReservationCount)
}
