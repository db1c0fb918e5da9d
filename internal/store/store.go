package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"rxmatch-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// EnsureSchema creates tables, constraints and indexes if missing. The
// uniqueness constraint on (prescription_id, medicine_id, pharmacy_id) is
// what makes reconciliation idempotent under concurrent writers.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetUserIDByEmail looks up a registered patient account by email.
// Returns ErrNotFound when no account exists for the address.
func (s *Store) GetUserIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, "SELECT id FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreatePharmacy inserts a new pharmacy. A duplicate email yields ErrConflict.
func (s *Store) CreatePharmacy(ctx context.Context, pharmacy *models.Pharmacy) error {
	query := `
		INSERT INTO pharmacies (name, owner_name, email, location, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, pharmacy, query,
		pharmacy.Name, pharmacy.OwnerName, pharmacy.Email, pharmacy.Location,
		pharmacy.Latitude, pharmacy.Longitude)
	if IsUniqueViolation(err) {
		return fmt.Errorf("pharmacy email %s: %w", pharmacy.Email, ErrConflict)
	}
	return err
}

// GetPharmacyByID retrieves a pharmacy by ID
func (s *Store) GetPharmacyByID(ctx context.Context, id int64) (*models.Pharmacy, error) {
	var pharmacy models.Pharmacy
	err := s.db.GetContext(ctx, &pharmacy, "SELECT * FROM pharmacies WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pharmacy %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &pharmacy, nil
}

// UpsertMedicine creates a medicine or, when the pharmacy already lists the
// name, updates its quantity, price and expiry in place.
func (s *Store) UpsertMedicine(ctx context.Context, medicine *models.Medicine) error {
	query := `
		INSERT INTO medicines (pharmacy_id, name, quantity, price, expiry_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pharmacy_id, name) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    price = EXCLUDED.price,
		    expiry_date = EXCLUDED.expiry_date,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, medicine, query,
		medicine.PharmacyID, medicine.Name, medicine.Quantity, medicine.Price, medicine.ExpiryDate)
}

// GetMedicineByID retrieves a medicine by ID
func (s *Store) GetMedicineByID(ctx context.Context, id int64) (*models.Medicine, error) {
	var medicine models.Medicine
	err := s.db.GetContext(ctx, &medicine, "SELECT * FROM medicines WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &medicine, nil
}

// GetMedicinesByPharmacy retrieves a pharmacy's inventory, newest first
func (s *Store) GetMedicinesByPharmacy(ctx context.Context, pharmacyID int64) ([]models.Medicine, error) {
	var medicines []models.Medicine
	err := s.db.SelectContext(ctx, &medicines,
		"SELECT * FROM medicines WHERE pharmacy_id = $1 ORDER BY created_at DESC", pharmacyID)
	return medicines, err
}

// DeleteMedicine removes an inventory line; dependent matches cascade.
func (s *Store) DeleteMedicine(ctx context.Context, id, pharmacyID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM medicines WHERE id = $1 AND pharmacy_id = $2", id, pharmacyID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}
	return nil
}

// SearchMedicinesByName scans every pharmacy's inventory for names
// containing the fragment, case-insensitively. A full-table substring scan
// is intentional; the expected inventory scale does not justify an index.
func (s *Store) SearchMedicinesByName(ctx context.Context, fragment string) ([]models.StockedMedicine, error) {
	query := `
		SELECT m.*, p.name AS pharmacy_name, p.location AS pharmacy_location
		FROM medicines m
		JOIN pharmacies p ON p.id = m.pharmacy_id
		WHERE m.name ILIKE $1
		ORDER BY m.id`

	var medicines []models.StockedMedicine
	err := s.db.SelectContext(ctx, &medicines, query, "%"+escapeLike(fragment)+"%")
	return medicines, err
}

// escapeLike neutralizes LIKE wildcards so the fragment matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// CreatePrescription persists a new prescription
func (s *Store) CreatePrescription(ctx context.Context, prescription *models.Prescription) error {
	query := `
		INSERT INTO prescriptions (doctor_id, user_id, patient_name, patient_email, age, diagnosis, notes, medications)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, prescription, query,
		prescription.DoctorID, prescription.UserID, prescription.PatientName,
		prescription.PatientEmail, prescription.Age, prescription.Diagnosis,
		prescription.Notes, prescription.Medications)
}

// GetPrescriptionByID retrieves a prescription by ID
func (s *Store) GetPrescriptionByID(ctx context.Context, id int64) (*models.Prescription, error) {
	var prescription models.Prescription
	err := s.db.GetContext(ctx, &prescription, "SELECT * FROM prescriptions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("prescription %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &prescription, nil
}

// GetPrescriptionsByPatient retrieves prescriptions belonging to a patient,
// newest first. A prescription belongs to the patient when its linked
// account matches OR its patient_email matches; either side alone is enough.
func (s *Store) GetPrescriptionsByPatient(ctx context.Context, accountID int64, email string) ([]models.Prescription, error) {
	var prescriptions []models.Prescription
	err := s.db.SelectContext(ctx, &prescriptions,
		`SELECT * FROM prescriptions
		 WHERE user_id = $1 OR patient_email = $2
		 ORDER BY created_at DESC`,
		accountID, email)
	return prescriptions, err
}
