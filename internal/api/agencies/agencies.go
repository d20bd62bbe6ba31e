package agencies

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtMiddleware "github.com/advaitbhat/tripnest/internal/middleware"
	storeAgencies "github.com/advaitbhat/tripnest/internal/store/agencies"
)

type AgenciesHandler struct {
	log    *zap.Logger
	repo   *storeAgencies.AgenciesRepository
	secret string
}

func NewAgenciesHandler(log *zap.Logger, repo *storeAgencies.AgenciesRepository, secret string) *AgenciesHandler {
	return &AgenciesHandler{log: log, repo: repo, secret: secret}
}

func (h *AgenciesHandler) Register(r *gin.Engine) {
	protected := r.Group("/v1/agencies")
	protected.Use(jwtMiddleware.Middleware(h.secret))
	{
		protected.GET("/me", h.me)
		protected.PUT("/me", h.update)
	}
}

func (h *AgenciesHandler) me(c *gin.Context) {
	agency, err := h.repo.GetByID(c.Request.Context(), c.GetString("aid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if agency == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "agency not found"})
		return
	}
	c.JSON(http.StatusOK, agency)
}

type updateRequest struct {
	Name        string            `json:"name" binding:"required"`
	Phone       string            `json:"phone"`
	Website     string            `json:"website"`
	Description string            `json:"description"`
	SocialLinks map[string]string `json:"social_links"`
}

func (h *AgenciesHandler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agency := &storeAgencies.Agency{
		ID:          c.GetString("aid"),
		Name:        req.Name,
		Phone:       req.Phone,
		Website:     req.Website,
		Description: req.Description,
		SocialLinks: req.SocialLinks,
	}
	updated, err := h.repo.UpdateProfile(c.Request.Context(), agency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "agency not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
