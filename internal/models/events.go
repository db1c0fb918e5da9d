package models

import "time"

// Event types
const (
	EventTypePrescriptionCreated = "PRESCRIPTION_CREATED"
	EventTypeMedicineMatched     = "MEDICINE_MATCHED"
	EventTypeMatchNotified       = "MATCH_NOTIFIED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PrescriptionCreatedEvent published after a prescription is persisted
type PrescriptionCreatedEvent struct {
	BaseEvent
	PrescriptionID int64  `json:"prescription_id"`
	DoctorID       int64  `json:"doctor_id"`
	PatientEmail   string `json:"patient_email"`
	EntryCount     int    `json:"entry_count"`
}

// MedicineMatchedEvent published once per newly recorded match. Carries
// everything the notifier needs so it never has to re-read the ledger.
type MedicineMatchedEvent struct {
	BaseEvent
	MatchID          int64  `json:"match_id"`
	PrescriptionID   int64  `json:"prescription_id"`
	MedicineID       int64  `json:"medicine_id"`
	PharmacyID       int64  `json:"pharmacy_id"`
	MedicineName     string `json:"medicine_name"`
	PharmacyName     string `json:"pharmacy_name"`
	PharmacyLocation string `json:"pharmacy_location"`
	PatientName      string `json:"patient_name"`
	PatientEmail     string `json:"patient_email"`
}

// MatchNotifiedEvent published after the patient was emailed about a match
type MatchNotifiedEvent struct {
	BaseEvent
	MatchID        int64  `json:"match_id"`
	PrescriptionID int64  `json:"prescription_id"`
	PatientEmail   string `json:"patient_email"`
}
