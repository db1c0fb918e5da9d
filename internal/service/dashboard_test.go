package service

import (
	"testing"
	"time"

	"rxmatch-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAvailability(t *testing.T) {
	now := time.Now()

	// Rows arrive ordered by matched_at descending, as the store returns
	// them. The same medicine+pharmacy pair appears via two prescriptions.
	rows := []models.AvailabilityEntry{
		{MedicineID: 7, PharmacyID: 1, MedicineName: "Amoxicillin 250mg", MatchedAt: now},
		{MedicineID: 9, PharmacyID: 2, MedicineName: "Ibuprofen", MatchedAt: now.Add(-time.Minute)},
		{MedicineID: 7, PharmacyID: 1, MedicineName: "Amoxicillin 250mg", MatchedAt: now.Add(-time.Hour)},
		{MedicineID: 7, PharmacyID: 2, MedicineName: "Amoxicillin 250mg", MatchedAt: now.Add(-2 * time.Hour)},
	}

	entries := dedupeAvailability(rows)

	assert.Len(t, entries, 3)

	// The survivor for (7, 1) is the most recent match.
	assert.Equal(t, int64(7), entries[0].MedicineID)
	assert.Equal(t, int64(1), entries[0].PharmacyID)
	assert.Equal(t, now, entries[0].MatchedAt)

	// Same medicine at a different pharmacy is a distinct purchasable item.
	assert.Equal(t, int64(9), entries[1].MedicineID)
	assert.Equal(t, int64(7), entries[2].MedicineID)
	assert.Equal(t, int64(2), entries[2].PharmacyID)
}

func TestDedupeAvailabilityEmpty(t *testing.T) {
	entries := dedupeAvailability(nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDedupeAvailabilityNoDuplicates(t *testing.T) {
	rows := []models.AvailabilityEntry{
		{MedicineID: 1, PharmacyID: 1},
		{MedicineID: 2, PharmacyID: 1},
	}

	entries := dedupeAvailability(rows)
	assert.Equal(t, rows, entries)
}
