// Package http exposes the public REST API.
package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/example/govsol/internal/auth"
	"github.com/example/govsol/internal/models"
	"github.com/example/govsol/internal/objectstore"
	"github.com/example/govsol/internal/service"
)

// UserAccounts is the account access the API layer needs for registration,
// login and token authentication.
type UserAccounts interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// DivisionCatalog serves the administrative division lookups backing the
// cascading location dropdowns.
type DivisionCatalog interface {
	Provinces(ctx context.Context) ([]models.Province, error)
	Districts(ctx context.Context, provinceID uint) ([]models.District, error)
	DSDivisions(ctx context.Context, districtID uint) ([]models.DSDivision, error)
	GNDivisions(ctx context.Context, dsDivisionID uint) ([]models.GNDivision, error)
}

// Deps collects the collaborators of the API server. Files and Limiter may be
// nil; attachment uploads and the submission cap then degrade gracefully.
type Deps struct {
	Issues        *service.IssueService
	Notifications *service.NotificationService
	Users         UserAccounts
	Divisions     DivisionCatalog
	Tokens        *auth.TokenIssuer
	Files         *objectstore.Store
	Limiter       *RateLimiter
}

// Server wraps the gin engine and collaborators needed to handle API requests.
type Server struct {
	Engine *gin.Engine

	issues        *service.IssueService
	notifications *service.NotificationService
	users         UserAccounts
	divisions     DivisionCatalog
	tokens        *auth.TokenIssuer
	files         *objectstore.Store
	limiter       *RateLimiter
}

// NewServer constructs a new API server and registers routes.
func NewServer(d Deps) *Server {
	router := gin.Default()
	srv := &Server{
		Engine:        router,
		issues:        d.Issues,
		notifications: d.Notifications,
		users:         d.Users,
		divisions:     d.Divisions,
		tokens:        d.Tokens,
		files:         d.Files,
		limiter:       d.Limiter,
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	api := s.Engine.Group("/api")

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	api.GET("/divisions/provinces", s.provinces)
	api.GET("/divisions/districts", s.districts)
	api.GET("/divisions/ds-divisions", s.dsDivisions)
	api.GET("/divisions/gn-divisions", s.gnDivisions)

	api.POST("/issues", s.authOptional(), s.issueCap(), s.createIssue)
	api.GET("/issues", s.authOptional(), s.listIssues)
	api.GET("/issues/mine", s.authRequired(), s.myIssues)
	api.GET("/issues/escalated", s.authRequired(), s.escalatedIssues)
	api.GET("/issues/:id", s.getIssue)
	api.GET("/issues/:id/responses", s.issueResponses)
	api.GET("/issues/:id/escalations", s.issueEscalations)
	api.POST("/issues/:id/respond", s.authRequired(), s.respond)
	api.POST("/issues/:id/attachments", s.authOptional(), s.uploadIssueAttachment)
	api.POST("/responses/:id/attachments", s.authRequired(), s.uploadResponseAttachment)
	api.GET("/attachments/:id/url", s.attachmentURL)

	api.GET("/dashboard/stats", s.authRequired(), s.dashboardStats)

	api.GET("/notifications", s.authRequired(), s.listNotifications)
	api.POST("/notifications/:id/read", s.authRequired(), s.markNotificationRead)
}

// statusFor maps domain errors onto HTTP status codes. Anything outside the
// known taxonomy is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
