package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	jwtMiddleware "github.com/advaitbhat/tripnest/internal/middleware"
	authService "github.com/advaitbhat/tripnest/internal/service/auth"
)

type AuthHandler struct {
	log    *zap.Logger
	svc    *authService.AuthService
	secret string
}

func NewAuthHandler(log *zap.Logger, svc *authService.AuthService, secret string) *AuthHandler {
	return &AuthHandler{log: log, svc: svc, secret: secret}
}

func (h *AuthHandler) Register(r *gin.Engine) {
	r.POST("/v1/auth/signup", h.signup)
	r.POST("/v1/auth/login", h.login)

	protected := r.Group("/v1/auth")
	protected.Use(jwtMiddleware.Middleware(h.secret))
	{
		protected.POST("/password", h.changePassword)
	}
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req authService.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, authService.ErrAgencyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req authService.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) changePassword(c *gin.Context) {
	var req authService.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.svc.ChangePassword(c.Request.Context(), c.GetString("aid"), req)
	if err != nil {
		if errors.Is(err, authService.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password changed"})
}
