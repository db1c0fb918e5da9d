package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rxmatch-service/internal/models"
	"rxmatch-service/internal/service"
	"rxmatch-service/internal/store"
	"rxmatch-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	prescriptions *service.PrescriptionService
	matcher       *service.MatcherService
	dashboard     *service.DashboardService
	store         *store.Store
}

// NewHandler creates a new HTTP handler
func NewHandler(
	prescriptions *service.PrescriptionService,
	matcher *service.MatcherService,
	dashboard *service.DashboardService,
	st *store.Store,
) *Handler {
	return &Handler{
		prescriptions: prescriptions,
		matcher:       matcher,
		dashboard:     dashboard,
		store:         st,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/prescriptions", h.createPrescription)
		v1.GET("/prescriptions/:id", h.getPrescription)
		v1.POST("/prescriptions/:id/reconcile", h.reconcilePrescription)

		v1.GET("/availability", h.getAvailability)

		v1.POST("/pharmacies", h.createPharmacy)
		v1.GET("/pharmacies/:id/medicines", h.listMedicines)
		v1.POST("/medicines", h.upsertMedicine)
		v1.DELETE("/medicines/:id", h.deleteMedicine)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createPrescription persists a prescription and reconciles it. A
// reconciliation failure still returns 201 with a warning; the
// prescription's durability never depends on matching.
func (h *Handler) createPrescription(c *gin.Context) {
	var req service.CreatePrescriptionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.prescriptions.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create prescription",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// getPrescription handles get prescription by ID
func (h *Handler) getPrescription(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prescription ID"})
		return
	}

	prescription, matches, err := h.prescriptions.Get(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to load prescription",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prescription": prescription,
		"matches":      matches,
	})
}

// reconcilePrescription re-runs matching for a prescription. Safe to call
// any number of times; already-recorded triples are left untouched.
func (h *Handler) reconcilePrescription(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prescription ID"})
		return
	}

	result, err := h.matcher.Reconcile(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Reconciliation failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// getAvailability returns the deduplicated availability view for a patient.
// A storage failure degrades to an empty list plus an error indicator
// rather than failing the dashboard render.
func (h *Handler) getAvailability(c *gin.Context) {
	accountID, _ := strconv.ParseInt(c.Query("account_id"), 10, 64)
	email := c.Query("email")

	if accountID == 0 && email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id or email is required"})
		return
	}

	identity := service.PatientIdentity{AccountID: accountID, Email: email}
	entries, err := h.dashboard.BuildAvailabilityView(c.Request.Context(), identity)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"entries": []models.AvailabilityEntry{},
			"error":   "availability lookup failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// createPharmacy registers a pharmacy
func (h *Handler) createPharmacy(c *gin.Context) {
	var pharmacy models.Pharmacy
	if err := c.ShouldBindJSON(&pharmacy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.store.CreatePharmacy(c.Request.Context(), &pharmacy); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrConflict) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":   "Failed to create pharmacy",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, pharmacy)
}

// listMedicines lists a pharmacy's inventory
func (h *Handler) listMedicines(c *gin.Context) {
	pharmacyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pharmacy ID"})
		return
	}

	medicines, err := h.store.GetMedicinesByPharmacy(c.Request.Context(), pharmacyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list medicines",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicines": medicines})
}

// upsertMedicine creates or updates an inventory line. Matching only reads
// inventory at reconcile time, so a medicine added later will not
// retroactively match existing prescriptions.
func (h *Handler) upsertMedicine(c *gin.Context) {
	var medicine models.Medicine
	if err := c.ShouldBindJSON(&medicine); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if medicine.PharmacyID == 0 || medicine.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pharmacy_id and name are required"})
		return
	}

	if err := h.store.UpsertMedicine(c.Request.Context(), &medicine); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to save medicine",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, medicine)
}

// deleteMedicine removes an inventory line
func (h *Handler) deleteMedicine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid medicine ID"})
		return
	}

	pharmacyID, err := strconv.ParseInt(c.Query("pharmacy_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pharmacy_id is required"})
		return
	}

	if err := h.store.DeleteMedicine(c.Request.Context(), id, pharmacyID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{
			"error":   "Failed to delete medicine",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
