package store

import (
	"context"
	"database/sql"
	"fmt"

	"rxmatch-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertMatch conditionally records an availability fact. The uniqueness
// constraint on the (prescription, medicine, pharmacy) triple decides the
// outcome at the storage layer, so two concurrent reconciliations of the
// same prescription cannot both insert. Returns true when a new row was
// created, false when the triple was already recorded.
func (s *Store) InsertMatch(ctx context.Context, match *models.MatchRecord) (bool, error) {
	query := `
		INSERT INTO matches (prescription_id, medicine_id, pharmacy_id, medicine_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (prescription_id, medicine_id, pharmacy_id) DO NOTHING
		RETURNING id, matched_at, notified`

	err := s.db.GetContext(ctx, match, query,
		match.PrescriptionID, match.MedicineID, match.PharmacyID, match.MedicineName)
	if err == sql.ErrNoRows || IsUniqueViolation(err) {
		// Triple already recorded, leave it untouched.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert match: %w", err)
	}
	return true, nil
}

// GetMatchesByPrescriptionIDs retrieves all match records for a set of
// prescriptions, most recent first.
func (s *Store) GetMatchesByPrescriptionIDs(ctx context.Context, ids []int64) ([]models.MatchRecord, error) {
	if len(ids) == 0 {
		return []models.MatchRecord{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM matches WHERE prescription_id IN (?) ORDER BY matched_at DESC", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var matches []models.MatchRecord
	err = s.db.SelectContext(ctx, &matches, query, args...)
	return matches, err
}

// GetAvailabilityByPrescriptionIDs retrieves the joined availability rows
// for a set of prescriptions, most recent match first. Deduplication by
// (medicine, pharmacy) happens in the service layer.
func (s *Store) GetAvailabilityByPrescriptionIDs(ctx context.Context, ids []int64) ([]models.AvailabilityEntry, error) {
	if len(ids) == 0 {
		return []models.AvailabilityEntry{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT mt.medicine_id, mt.pharmacy_id, mt.medicine_name,
		       ph.name AS pharmacy_name, ph.location AS pharmacy_location,
		       md.price, md.quantity, mt.matched_at,
		       pr.created_at AS prescribed_at
		FROM matches mt
		JOIN medicines md ON md.id = mt.medicine_id
		JOIN pharmacies ph ON ph.id = mt.pharmacy_id
		JOIN prescriptions pr ON pr.id = mt.prescription_id
		WHERE mt.prescription_id IN (?)
		ORDER BY mt.matched_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var entries []models.AvailabilityEntry
	err = s.db.SelectContext(ctx, &entries, query, args...)
	return entries, err
}

// GetUnnotifiedMatches retrieves matches whose patient has not been
// notified yet, oldest first.
func (s *Store) GetUnnotifiedMatches(ctx context.Context, limit int) ([]models.MatchRecord, error) {
	var matches []models.MatchRecord
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE notified = FALSE ORDER BY matched_at LIMIT $1", limit)
	return matches, err
}

// MarkMatchNotified flips the notified flag after a successful delivery.
// The flag is the only match field ever updated.
func (s *Store) MarkMatchNotified(ctx context.Context, matchID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE matches SET notified = TRUE WHERE id = $1", matchID)
	return err
}
