package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rxmatch-service/internal/broker"
	"rxmatch-service/internal/models"
	"rxmatch-service/internal/store"
	"rxmatch-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrescriptionService handles the doctor-facing prescription workflow.
type PrescriptionService struct {
	store          *store.Store
	matcher        *MatcherService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewPrescriptionService creates a new prescription service
func NewPrescriptionService(
	store *store.Store,
	matcher *MatcherService,
	eventPublisher *broker.EventPublisher,
) *PrescriptionService {
	return &PrescriptionService{
		store:          store,
		matcher:        matcher,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreatePrescriptionRequest represents a request to create a prescription
type CreatePrescriptionRequest struct {
	DoctorID     int64                    `json:"doctor_id" binding:"required"`
	PatientName  string                   `json:"patient_name" binding:"required"`
	PatientEmail string                   `json:"patient_email" binding:"required,email"`
	Age          int                      `json:"age"`
	Diagnosis    string                   `json:"diagnosis"`
	Notes        string                   `json:"notes"`
	Medications  []models.MedicationEntry `json:"medications" binding:"required,min=1"`
}

// CreatePrescriptionResponse represents the response after creating a prescription
type CreatePrescriptionResponse struct {
	PrescriptionID int64  `json:"prescription_id"`
	MatchesCreated int    `json:"matches_created"`
	Warning        string `json:"warning,omitempty"`
}

// Create persists a prescription and reconciles it against pharmacy
// inventories. Reconciliation is best-effort relative to prescription
// durability: a matching failure surfaces as a soft warning, never as a
// failed save.
func (s *PrescriptionService) Create(ctx context.Context, req *CreatePrescriptionRequest) (*CreatePrescriptionResponse, error) {
	ctx, span := util.StartSpan(ctx, "PrescriptionService.Create")
	defer span.End()

	prescription := &models.Prescription{
		DoctorID:     req.DoctorID,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		Age:          req.Age,
		Diagnosis:    req.Diagnosis,
		Notes:        req.Notes,
		Medications:  req.Medications,
	}

	// Link a registered patient account when one exists for the email.
	accountID, err := s.store.GetUserIDByEmail(ctx, req.PatientEmail)
	if err == nil {
		prescription.UserID = &accountID
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up patient account: %w", err)
	}

	if err := s.store.CreatePrescription(ctx, prescription); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	util.PrescriptionsCreatedTotal.Inc()
	s.logger.Info("Prescription created",
		zap.Int64("prescription_id", prescription.ID),
		zap.Int64("doctor_id", prescription.DoctorID))

	event := &models.PrescriptionCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePrescriptionCreated,
			Timestamp: time.Now(),
		},
		PrescriptionID: prescription.ID,
		DoctorID:       prescription.DoctorID,
		PatientEmail:   prescription.PatientEmail,
		EntryCount:     len(prescription.Medications),
	}
	if err := s.eventPublisher.PublishPrescriptionCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PrescriptionCreated event", zap.Error(err))
	}

	resp := &CreatePrescriptionResponse{PrescriptionID: prescription.ID}

	result, err := s.matcher.Reconcile(ctx, prescription.ID)
	if err != nil {
		s.logger.Warn("Reconciliation failed, prescription saved without matches",
			zap.Int64("prescription_id", prescription.ID),
			zap.Error(err))
		resp.Warning = "prescription saved, but pharmacy matching failed"
		return resp, nil
	}

	resp.MatchesCreated = result.Created
	return resp, nil
}

// Get retrieves a prescription together with its match records.
func (s *PrescriptionService) Get(ctx context.Context, id int64) (*models.Prescription, []models.MatchRecord, error) {
	prescription, err := s.store.GetPrescriptionByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	matches, err := s.store.GetMatchesByPrescriptionIDs(ctx, []int64{id})
	if err != nil {
		return nil, nil, err
	}

	return prescription, matches, nil
}
