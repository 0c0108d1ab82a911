package rest

import (
	"errors"
	"net/http"

	"github.com/KevinKickass/OpenPedalCore/internal/auth"
	"github.com/KevinKickass/OpenPedalCore/internal/storage"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Login request/response types
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// API token management
type CreateAPITokenRequest struct {
	Name        string         `json:"name" binding:"required"`
	Permissions []string       `json:"permissions"`
	Metadata    map[string]any `json:"metadata"`
}

type CreateAPITokenResponse struct {
	Token       string         `json:"token"` // Only returned once!
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Permissions []string       `json:"permissions"`
	Metadata    map[string]any `json:"metadata"`
}

// User Management
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=viewer editor admin"`
}

type UpdateUserRequest struct {
	Password *string `json:"password,omitempty" binding:"omitempty,min=8"`
	Role     *string `json:"role,omitempty" binding:"omitempty,oneof=viewer editor admin"`
}

// Auth handlers
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaAuth, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	pair, err := s.authService.Login(
		c.Request.Context(),
		req.Username,
		req.Password,
		c.ClientIP(),
		c.GetHeader("User-Agent"),
	)
	if err != nil {
		if errors.Is(err, auth.ErrAccountLocked) {
			respondError(c, types.AreaAuth, http.StatusForbidden, "Account locked", nil)
			return
		}
		respondError(c, types.AreaAuth, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Server) refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaAuth, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	pair, err := s.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, types.AreaAuth, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (s *Server) logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaAuth, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := s.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, types.AreaAuth, http.StatusInternalServerError, "Failed to logout", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (s *Server) getCurrentUser(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		respondError(c, types.AreaAuth, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	if principal.UserID == nil {
		// API token or anonymous caller
		c.JSON(http.StatusOK, gin.H{
			"token_name":  principal.TokenName,
			"permissions": principal.Permissions,
		})
		return
	}

	user, err := s.authService.GetUserByID(c.Request.Context(), *principal.UserID)
	if err != nil {
		respondError(c, types.AreaUser, http.StatusNotFound, "User not found", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"permissions": principal.Permissions,
	})
}

// API token management (Admin only)
func (s *Server) createAPIToken(c *gin.Context) {
	var req CreateAPITokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaToken, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	// Default to read permission if none specified
	if len(req.Permissions) == 0 {
		req.Permissions = []string{string(auth.PermRead)}
	}

	principal, _ := auth.PrincipalFrom(c)
	token, apiToken, err := s.authService.CreateAPIToken(
		c.Request.Context(),
		req.Name,
		req.Permissions,
		principal.UserID,
		req.Metadata,
	)
	if err != nil {
		s.logger.Error("Failed to create API token", zap.Error(err))
		respondError(c, types.AreaToken, http.StatusInternalServerError, "Failed to create token", err.Error())
		return
	}

	c.JSON(http.StatusCreated, CreateAPITokenResponse{
		Token:       token, // Only time this is returned!
		ID:          apiToken.ID,
		Name:        apiToken.Name,
		Permissions: apiToken.Permissions,
		Metadata:    apiToken.Metadata,
	})
}

func (s *Server) listAPITokens(c *gin.Context) {
	tokens, err := s.authService.ListAPITokens(c.Request.Context())
	if err != nil {
		respondError(c, types.AreaToken, http.StatusInternalServerError, "Failed to list tokens", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (s *Server) deleteAPIToken(c *gin.Context) {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, types.AreaToken, http.StatusBadRequest, "Invalid token ID", err.Error())
		return
	}

	if err := s.authService.DeleteAPIToken(c.Request.Context(), tokenID); err != nil {
		storageError(c, types.AreaToken, "Failed to delete token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token deleted"})
}

func (s *Server) updateAPIToken(c *gin.Context) {
	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, types.AreaToken, http.StatusBadRequest, "Invalid token ID", err.Error())
		return
	}

	var req struct {
		Name     *string        `json:"name"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaToken, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := s.authService.UpdateAPIToken(c.Request.Context(), tokenID, req.Name, req.Metadata); err != nil {
		storageError(c, types.AreaToken, "Failed to update token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token updated"})
}

// User Management (Admin only)
func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaUser, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	user, err := s.authService.CreateUser(c.Request.Context(), req.Username, req.Password, auth.Role(req.Role))
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			respondError(c, types.AreaUser, http.StatusConflict, "Username already taken", nil)
			return
		}
		respondError(c, types.AreaUser, http.StatusInternalServerError, "Failed to create user", err.Error())
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, types.AreaUser, http.StatusInternalServerError, "Failed to list users", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) updateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, types.AreaUser, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.AreaUser, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	var role *auth.Role
	if req.Role != nil {
		r := auth.Role(*req.Role)
		role = &r
	}

	if err := s.authService.UpdateUser(c.Request.Context(), userID, req.Password, role); err != nil {
		storageError(c, types.AreaUser, "Failed to update user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

func (s *Server) deleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, types.AreaUser, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}

	if err := s.authService.DeleteUser(c.Request.Context(), userID); err != nil {
		storageError(c, types.AreaUser, "Failed to delete user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func storageError(c *gin.Context, area, message string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, area, http.StatusNotFound, "Not found", nil)
		return
	}
	respondError(c, area, http.StatusInternalServerError, message, err.Error())
}
