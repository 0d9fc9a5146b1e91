package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/example/govsol/internal/auth"
	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
	"github.com/example/govsol/internal/service"
)

type registerPayload struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	NationalID string `json:"national_id"`

	ProvinceID   *uint `json:"province_id"`
	DistrictID   *uint `json:"district_id"`
	DSDivisionID *uint `json:"ds_division_id"`
	GNDivisionID *uint `json:"gn_division_id"`
}

// register creates a citizen or official account. Citizens are usable right
// away; official accounts start unapproved and cannot be assigned issues
// until an administrator approves them.
func (s *Server) register(c *gin.Context) {
	var payload registerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := hierarchy.Role(payload.Role)
	if role == "" {
		role = hierarchy.RoleCitizen
	}
	if !role.Valid() || role == hierarchy.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if existing, err := s.users.FindByUsername(ctx, payload.Username); err == nil && existing != nil {
		fail(c, errors.Wrapf(service.ErrConflict, "username %s is taken", payload.Username))
		return
	}

	user := &models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		FullName:     payload.FullName,
		Role:         role,
		Phone:        payload.Phone,
		Address:      payload.Address,
		NationalID:   payload.NationalID,
		ProvinceID:   payload.ProvinceID,
		DistrictID:   payload.DistrictID,
		DSDivisionID: payload.DSDivisionID,
		GNDivisionID: payload.GNDivisionID,
		IsApproved:   role == hierarchy.RoleCitizen,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// login verifies credentials and issues a bearer token.
func (s *Server) login(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.FindByUsername(c.Request.Context(), payload.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, payload.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account disabled"})
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Role, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
