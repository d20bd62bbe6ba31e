package packages

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	storePackages "github.com/advaitbhat/tripnest/internal/store/packages"
)

// Public catalog endpoints consumed by the marketing site.
type PackagesHandler struct {
	log  *zap.Logger
	repo *storePackages.PackagesRepository
}

func NewPackagesHandler(log *zap.Logger, repo *storePackages.PackagesRepository) *PackagesHandler {
	return &PackagesHandler{log: log, repo: repo}
}

func (h *PackagesHandler) Register(r *gin.Engine) {
	r.GET("/v1/packages", h.list)
	r.GET("/v1/packages/:id", h.get)
}

func (h *PackagesHandler) list(c *gin.Context) {
	agencyID := c.Query("agency_id")
	if agencyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing agency_id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.repo.ListByAgency(c.Request.Context(), agencyID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": items, "limit": limit, "offset": offset})
}

func (h *PackagesHandler) get(c *gin.Context) {
	p, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "package not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}
