package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rxmatch-service/internal/broker"
	"rxmatch-service/internal/models"
	"rxmatch-service/internal/redisclient"
	"rxmatch-service/internal/store"
	"rxmatch-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MatcherService reconciles prescriptions against pharmacy inventories.
// It is the sole writer of match records.
type MatcherService struct {
	store          *store.Store
	cache          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewMatcherService creates a new matcher service
func NewMatcherService(
	store *store.Store,
	cache *redisclient.Client,
	eventPublisher *broker.EventPublisher,
) *MatcherService {
	return &MatcherService{
		store:          store,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ReconcileResult reports the outcome of one reconciliation run
type ReconcileResult struct {
	PrescriptionID int64                `json:"prescription_id"`
	Created        int                  `json:"created"`
	Existing       int                  `json:"existing"`
	Matches        []models.MatchRecord `json:"matches,omitempty"`
}

// Reconcile scans all pharmacy inventories for each prescribed medication
// name and records one match per (prescription, medicine, pharmacy) triple.
// Triples already recorded are left untouched, so re-invoking for the same
// prescription is safe: the second run creates zero records. Zero matches is
// a valid, silent outcome.
func (m *MatcherService) Reconcile(ctx context.Context, prescriptionID int64) (*ReconcileResult, error) {
	ctx, span := util.StartSpan(ctx, "MatcherService.Reconcile")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReconcileLatency.Observe(time.Since(start).Seconds())
	}()

	prescription, err := m.store.GetPrescriptionByID(ctx, prescriptionID)
	if err != nil {
		util.ReconcileFailedTotal.WithLabelValues("prescription_missing").Inc()
		return nil, fmt.Errorf("failed to load prescription: %w", err)
	}

	result := &ReconcileResult{PrescriptionID: prescription.ID}

	for _, entry := range prescription.Medications {
		name := normalizeName(entry.Name)
		if name == "" {
			continue
		}

		medicines, err := m.store.SearchMedicinesByName(ctx, name)
		if err != nil {
			util.ReconcileFailedTotal.WithLabelValues("inventory_scan").Inc()
			return nil, fmt.Errorf("inventory scan failed for %q: %w", entry.Name, err)
		}

		for i := range medicines {
			medicine := &medicines[i]
			match := &models.MatchRecord{
				PrescriptionID: prescription.ID,
				MedicineID:     medicine.ID,
				PharmacyID:     medicine.PharmacyID,
				MedicineName:   entry.Name,
			}

			created, err := m.store.InsertMatch(ctx, match)
			if err != nil {
				util.ReconcileFailedTotal.WithLabelValues("insert_failed").Inc()
				return nil, fmt.Errorf("failed to record match for medicine %d: %w", medicine.ID, err)
			}

			if !created {
				result.Existing++
				util.MatchesExistingTotal.Inc()
				continue
			}

			result.Created++
			result.Matches = append(result.Matches, *match)
			util.MatchesCreatedTotal.Inc()

			m.publishMatched(ctx, prescription, match, medicine)
		}
	}

	if result.Created > 0 {
		m.invalidateView(ctx, prescription)
	}

	m.logger.Info("Reconcile completed",
		zap.Int64("prescription_id", prescription.ID),
		zap.Int("created", result.Created),
		zap.Int("existing", result.Existing))

	return result, nil
}

func (m *MatcherService) publishMatched(ctx context.Context, prescription *models.Prescription, match *models.MatchRecord, medicine *models.StockedMedicine) {
	event := &models.MedicineMatchedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeMedicineMatched,
			Timestamp: time.Now(),
		},
		MatchID:          match.ID,
		PrescriptionID:   prescription.ID,
		MedicineID:       medicine.ID,
		PharmacyID:       medicine.PharmacyID,
		MedicineName:     medicine.Name,
		PharmacyName:     medicine.PharmacyName,
		PharmacyLocation: medicine.PharmacyLocation,
		PatientName:      prescription.PatientName,
		PatientEmail:     prescription.PatientEmail,
	}

	if err := m.eventPublisher.PublishMedicineMatched(ctx, event); err != nil {
		m.logger.Error("Failed to publish MedicineMatched event",
			zap.Int64("match_id", match.ID),
			zap.Error(err))
	}
}

func (m *MatcherService) invalidateView(ctx context.Context, prescription *models.Prescription) {
	var accountID int64
	if prescription.UserID != nil {
		accountID = *prescription.UserID
	}

	if err := m.cache.InvalidateAvailability(ctx, accountID, prescription.PatientEmail); err != nil {
		m.logger.Warn("Failed to invalidate availability cache",
			zap.Int64("prescription_id", prescription.ID),
			zap.Error(err))
	}
}

// normalizeName trims and case-folds a prescribed medication name.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
