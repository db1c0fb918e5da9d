package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Pharmacy represents a registered medical shop
type Pharmacy struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerName string    `db:"owner_name" json:"owner_name"`
	Email     string    `db:"email" json:"email"`
	Location  string    `db:"location" json:"location"`
	Latitude  *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Medicine represents an inventory line owned by one pharmacy.
// Names are unique per pharmacy; two pharmacies may stock the same name.
type Medicine struct {
	ID         int64      `db:"id" json:"id"`
	PharmacyID int64      `db:"pharmacy_id" json:"pharmacy_id"`
	Name       string     `db:"name" json:"name"`
	Quantity   int        `db:"quantity" json:"quantity"`
	Price      float64    `db:"price" json:"price"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// StockedMedicine is a medicine row joined with its owning pharmacy,
// the unit the matcher scans over.
type StockedMedicine struct {
	Medicine
	PharmacyName     string `db:"pharmacy_name" json:"pharmacy_name"`
	PharmacyLocation string `db:"pharmacy_location" json:"pharmacy_location"`
}

// MedicationEntry is one prescribed medication line. All fields are free
// text as written by the doctor; Name is the only field the matcher reads.
type MedicationEntry struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// MedicationList stores medication entries as a JSONB column.
type MedicationList []MedicationEntry

func (m MedicationList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MedicationList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into MedicationList", src)
	}
}

// Prescription is immutable once created; the matcher only ever reads it.
// UserID links a registered patient account and is nil when the patient is
// known only by email.
type Prescription struct {
	ID           int64          `db:"id" json:"id"`
	DoctorID     int64          `db:"doctor_id" json:"doctor_id"`
	UserID       *int64         `db:"user_id" json:"user_id,omitempty"`
	PatientName  string         `db:"patient_name" json:"patient_name"`
	PatientEmail string         `db:"patient_email" json:"patient_email"`
	Age          int            `db:"age" json:"age"`
	Diagnosis    string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes        string         `db:"notes" json:"notes,omitempty"`
	Medications  MedicationList `db:"medications" json:"medications"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// MatchRecord is one availability fact: the medicine for a prescribed entry
// is stocked at a pharmacy. The triple (prescription, medicine, pharmacy) is
// the natural key; MedicineName holds the name as prescribed, not the
// inventory name. Notified is owned by the notification worker.
type MatchRecord struct {
	ID             int64     `db:"id" json:"id"`
	PrescriptionID int64     `db:"prescription_id" json:"prescription_id"`
	MedicineID     int64     `db:"medicine_id" json:"medicine_id"`
	PharmacyID     int64     `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineName   string    `db:"medicine_name" json:"medicine_name"`
	MatchedAt      time.Time `db:"matched_at" json:"matched_at"`
	Notified       bool      `db:"notified" json:"notified"`
}

// AvailabilityEntry is one row of the patient-facing "where can I buy this"
// view, a match joined with inventory, pharmacy and prescription data.
type AvailabilityEntry struct {
	MedicineID       int64     `db:"medicine_id" json:"medicine_id"`
	PharmacyID       int64     `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineName     string    `db:"medicine_name" json:"medicine_name"`
	PharmacyName     string    `db:"pharmacy_name" json:"pharmacy_name"`
	PharmacyLocation string    `db:"pharmacy_location" json:"pharmacy_location"`
	Price            float64   `db:"price" json:"price"`
	Quantity         int       `db:"quantity" json:"quantity"`
	MatchedAt        time.Time `db:"matched_at" json:"matched_at"`
	PrescribedAt     time.Time `db:"prescribed_at" json:"prescribed_at"`
}
