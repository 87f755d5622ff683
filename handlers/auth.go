package handlers

import (
	"net/http"

	"tow-dispatch-api/middleware"
	"tow-dispatch-api/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a customer account and returns a session token
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if !bindBody(c, &req) {
		return
	}
	sess, err := h.Auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Login authenticates a user and returns a session token
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if !bindBody(c, &req) {
		return
	}
	sess, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// GetProfile returns the authenticated user's profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
