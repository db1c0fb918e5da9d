package service

import (
	"context"
	"fmt"
	"time"

	"rxmatch-service/internal/models"
	"rxmatch-service/internal/redisclient"
	"rxmatch-service/internal/store"
	"rxmatch-service/internal/util"

	"go.uber.org/zap"
)

// DashboardService builds the patient-facing availability view.
type DashboardService struct {
	store    *store.Store
	cache    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store *store.Store, cache *redisclient.Client, cacheTTL time.Duration) *DashboardService {
	return &DashboardService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// PatientIdentity identifies a patient by registered account, by email, or
// both. A prescription belongs to the patient when either side matches.
type PatientIdentity struct {
	AccountID int64
	Email     string
}

// BuildAvailabilityView returns at most one entry per (medicine, pharmacy)
// pair across all of the patient's prescriptions, most recent match first.
// An empty view is a valid outcome, not an error.
func (s *DashboardService) BuildAvailabilityView(ctx context.Context, identity PatientIdentity) ([]models.AvailabilityEntry, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.BuildAvailabilityView")
	defer span.End()

	start := time.Now()
	defer func() {
		util.AvailabilityViewLatency.Observe(time.Since(start).Seconds())
	}()

	cacheKey := redisclient.AvailabilityKey(identity.AccountID, identity.Email)
	if cached, ok, err := s.cache.GetAvailabilityView(ctx, cacheKey); err != nil {
		s.logger.Warn("Availability cache read failed", zap.Error(err))
	} else if ok {
		util.AvailabilityCacheHits.Inc()
		return cached, nil
	}
	util.AvailabilityCacheMisses.Inc()

	prescriptions, err := s.store.GetPrescriptionsByPatient(ctx, identity.AccountID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load prescriptions: %w", err)
	}
	if len(prescriptions) == 0 {
		return []models.AvailabilityEntry{}, nil
	}

	ids := make([]int64, len(prescriptions))
	for i := range prescriptions {
		ids[i] = prescriptions[i].ID
	}

	rows, err := s.store.GetAvailabilityByPrescriptionIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}

	entries := dedupeAvailability(rows)

	if err := s.cache.SetAvailabilityView(ctx, cacheKey, entries, s.cacheTTL); err != nil {
		s.logger.Warn("Availability cache write failed", zap.Error(err))
	}

	return entries, nil
}

// dedupeAvailability collapses rows to one entry per (medicine, pharmacy)
// pair. Rows arrive ordered by matched_at descending, so the survivor is
// always the most recent match for the pair.
func dedupeAvailability(rows []models.AvailabilityEntry) []models.AvailabilityEntry {
	seen := make(map[[2]int64]struct{}, len(rows))
	entries := make([]models.AvailabilityEntry, 0, len(rows))

	for _, row := range rows {
		key := [2]int64{row.MedicineID, row.PharmacyID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, row)
	}

	return entries
}
