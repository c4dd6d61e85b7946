package warranty

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Ngonie-x/warrant-register/internal/ratelimit"
	custom_error "github.com/Ngonie-x/warrant-register/pkg/errors"
	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/Ngonie-x/warrant-register/pkg/security"
	"github.com/gin-gonic/gin"
)

const defaultExpiryHorizonDays = 30

// Lifecycle is the service surface the handler drives.
type Lifecycle interface {
	Register(request *models.RegisterWarrantyRequest, actor models.Actor) (*models.RegistrationResult, error)
	Check(assetExternalID int64) (*models.WarrantyCheckResult, error)
	Get(id int) (*models.WarrantyRecord, error)
	Update(id int, request *models.UpdateWarrantyRequest, actor models.Actor) (*models.WarrantyRecord, error)
	ChangeStatus(id int, request *models.StatusUpdateRequest, actor models.Actor) (*models.WarrantyRecord, error)
	Delete(id int, actor models.Actor) error
}

// ListStore serves the read-side list and expiry queries.
type ListStore interface {
	List(query *ListQuery) (*models.WarrantyListResult, error)
	Expiring(days int) ([]models.WarrantyRecord, error)
}

// AuditReader returns the trail for one record.
type AuditReader interface {
	GetWarrantyLog(warrantyID int, action string) ([]models.AuditEntry, error)
}

type Handler struct {
	service Lifecycle
	store   ListStore
	stats   StatisticsSource
	audit   AuditReader
	limiter *ratelimit.RateLimiter
}

func NewHandler(service Lifecycle, store ListStore, stats StatisticsSource, audit AuditReader, limiter *ratelimit.RateLimiter) *Handler {
	return &Handler{
		service: service,
		store:   store,
		stats:   stats,
		audit:   audit,
		limiter: limiter,
	}
}

// RegisterPublicRoutes exposes the two endpoints the external asset-management
// system calls directly, throttled per client IP.
func (h *Handler) RegisterPublicRoutes(router *gin.Engine) {
	public := router.Group("/api/warranty", h.limiter.Middleware())
	{
		public.POST("/register", h.register)
		public.GET("/check/:assetID", h.check)
	}
}

// RegisterRoutes wires the authenticated management surface.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/warranties", h.list)
	router.GET("/warranties/statistics", h.statistics)
	router.GET("/warranties/expiring", h.expiring)
	router.GET("/warranties/:id", h.get)
	router.PATCH("/warranties/:id", h.update)
	router.DELETE("/warranties/:id", security.Authorize("admin"), h.remove)
	router.POST("/warranties/:id/status", security.Authorize("moderator"), h.changeStatus)
	router.GET("/warranties/:id/audit", h.auditTrail)
}

func (h *Handler) register(c *gin.Context) {
	var request models.RegisterWarrantyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.service.Register(&request, security.CurrentActor(c))
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			// Expected outcome for retries, reported as a non-success body.
			c.JSON(http.StatusOK, result)
			return
		}
		var validationErr *custom_error.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration request", "details": validationErr.Problems})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to register warranty", "details": err.Error()})
		return
	}

	h.stats.Invalidate()
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) check(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("assetID"), 10, 64)
	if err != nil || assetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset id"})
		return
	}

	result, err := h.service.Check(assetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to check registration", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) list(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}
	query.Normalize()

	result, err := h.store.List(&query)
	if err != nil {
		h.respondError(c, err, "Unable to list warranties")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warranty id"})
		return
	}

	record, err := h.service.Get(id)
	if err != nil {
		h.respondError(c, err, "Unable to get warranty")
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) update(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warranty id"})
		return
	}

	var request models.UpdateWarrantyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	record, err := h.service.Update(id, &request, security.CurrentActor(c))
	if err != nil {
		h.respondError(c, err, "Unable to update warranty")
		return
	}

	h.stats.Invalidate()
	c.JSON(http.StatusOK, record)
}

func (h *Handler) changeStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warranty id"})
		return
	}

	var request models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	record, err := h.service.ChangeStatus(id, &request, security.CurrentActor(c))
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Status transition not allowed", "details": err.Error()})
			return
		}
		h.respondError(c, err, "Unable to change warranty status")
		return
	}

	h.stats.Invalidate()
	c.JSON(http.StatusOK, record)
}

func (h *Handler) remove(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warranty id"})
		return
	}

	if err := h.service.Delete(id, security.CurrentActor(c)); err != nil {
		h.respondError(c, err, "Unable to delete warranty")
		return
	}

	h.stats.Invalidate()
	c.JSON(http.StatusOK, gin.H{"message": "Warranty deleted"})
}

func (h *Handler) auditTrail(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warranty id"})
		return
	}

	entries, err := h.audit.GetWarrantyLog(id, c.Query("action"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to get audit trail", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *Handler) statistics(c *gin.Context) {
	horizon := defaultExpiryHorizonDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		horizon = parsed
	}

	stats, err := h.stats.Statistics(horizon)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to compute statistics", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) expiring(c *gin.Context) {
	days := defaultExpiryHorizonDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		days = parsed
	}

	records, err := h.store.Expiring(days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to list expiring warranties", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(records), "results": records})
}

func (h *Handler) respondError(c *gin.Context, err error, message string) {
	var validationErr *custom_error.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": validationErr.Problems})
		return
	}

	var notFoundErr *custom_error.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
