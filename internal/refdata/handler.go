package refdata

import (
	"net/http"

	"github.com/Ngonie-x/warrant-register/pkg/models"
	"github.com/gin-gonic/gin"
)

// ReferenceStore is the repository surface the handler needs.
type ReferenceStore interface {
	SyncDepartments(items []models.NamedSyncItem) (*models.SyncResult, error)
	SyncCategories(items []models.NamedSyncItem) (*models.SyncResult, error)
	SyncProfiles(items []models.ProfileSyncItem) (*models.SyncResult, error)
	GetDepartments() ([]models.Department, error)
	GetCategories() ([]models.Category, error)
	GetProfiles() ([]models.Profile, error)
}

type Handler struct {
	store ReferenceStore
}

func NewHandler(store ReferenceStore) *Handler {
	return &Handler{store: store}
}

// RegisterPublicRoutes exposes the sync endpoints called service-to-service
// by the external asset-management system.
func (h *Handler) RegisterPublicRoutes(router *gin.Engine) {
	sync := router.Group("/api/sync")
	{
		sync.POST("/departments", h.syncDepartments)
		sync.POST("/categories", h.syncCategories)
		sync.POST("/profiles", h.syncProfiles)
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/departments", h.getDepartments)
	router.GET("/categories", h.getCategories)
	router.GET("/profiles", h.getProfiles)
}

func (h *Handler) syncDepartments(c *gin.Context) {
	var req struct {
		Departments []models.NamedSyncItem `json:"departments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sync payload", "details": err.Error()})
		return
	}

	result, err := h.store.SyncDepartments(req.Departments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to sync departments", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) syncCategories(c *gin.Context) {
	var req struct {
		Categories []models.NamedSyncItem `json:"categories" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sync payload", "details": err.Error()})
		return
	}

	result, err := h.store.SyncCategories(req.Categories)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to sync categories", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) syncProfiles(c *gin.Context) {
	var req struct {
		Profiles []models.ProfileSyncItem `json:"profiles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sync payload", "details": err.Error()})
		return
	}

	result, err := h.store.SyncProfiles(req.Profiles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to sync profiles", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) getDepartments(c *gin.Context) {
	departments, err := h.store.GetDepartments()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve departments", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (h *Handler) getCategories(c *gin.Context) {
	categories, err := h.store.GetCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve categories", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) getProfiles(c *gin.Context) {
	profiles, err := h.store.GetProfiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve profiles", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profiles)
}
