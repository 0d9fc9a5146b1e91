package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/example/govsol/internal/models"
	"github.com/example/govsol/internal/service"
)

// attachmentLinkTTL is how long a presigned attachment download link stays
// valid.
const attachmentLinkTTL = 15 * time.Minute

type createIssuePayload struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
	Language    string `json:"language"`
	Priority    string `json:"priority"`

	ProvinceID   uint   `json:"province_id" binding:"required"`
	DistrictID   uint   `json:"district_id" binding:"required"`
	DSDivisionID uint   `json:"ds_division_id" binding:"required"`
	GNDivisionID uint   `json:"gn_division_id"`
	Address      string `json:"address"`

	IsAnonymous      bool   `json:"is_anonymous"`
	AnonymousName    string `json:"anonymous_name"`
	AnonymousPhone   string `json:"anonymous_phone"`
	AnonymousAddress string `json:"anonymous_address"`
	AnonymousID      string `json:"anonymous_national_id"`
}

func (s *Server) createIssue(c *gin.Context) {
	var payload createIssuePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.CreateIssueInput{
		Title:            payload.Title,
		Description:      payload.Description,
		Category:         models.Category(payload.Category),
		Language:         payload.Language,
		Priority:         models.Priority(payload.Priority),
		ProvinceID:       payload.ProvinceID,
		DistrictID:       payload.DistrictID,
		DSDivisionID:     payload.DSDivisionID,
		GNDivisionID:     payload.GNDivisionID,
		Address:          payload.Address,
		IsAnonymous:      payload.IsAnonymous,
		AnonymousName:    payload.AnonymousName,
		AnonymousPhone:   payload.AnonymousPhone,
		AnonymousAddress: payload.AnonymousAddress,
		AnonymousID:      payload.AnonymousID,
	}

	issue, err := s.issues.Create(c.Request.Context(), currentUser(c), in, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (s *Server) listIssues(c *gin.Context) {
	issues, err := s.issues.List(c.Request.Context(), currentUser(c), filtersFromQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (s *Server) myIssues(c *gin.Context) {
	user := currentUser(c)
	issues, err := s.issues.ListByReporter(c.Request.Context(), user.ID, filtersFromQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (s *Server) escalatedIssues(c *gin.Context) {
	issues, err := s.issues.EscalatedFrom(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

// getIssue resolves by numeric ID or public reference number, so citizens can
// track their submission with the reference alone.
func (s *Server) getIssue(c *gin.Context) {
	issue, err := s.issues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (s *Server) issueResponses(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	responses, err := s.issues.Responses(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

func (s *Server) issueEscalations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	escalations, err := s.issues.Escalations(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, escalations)
}

func (s *Server) respond(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var payload struct {
		Type           string `json:"response_type" binding:"required"`
		Message        string `json:"message"`
		Language       string `json:"language"`
		AdditionalDays int    `json:"additional_days"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.RespondInput{
		Type:           models.ResponseType(payload.Type),
		Message:        payload.Message,
		Language:       payload.Language,
		AdditionalDays: payload.AdditionalDays,
	}
	response, err := s.issues.Respond(c.Request.Context(), id, currentUser(c), in, time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

func (s *Server) uploadIssueAttachment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	key, contentType, ok := s.storeUpload(c)
	if !ok {
		return
	}
	attachment := &models.IssueAttachment{
		IssueID:     id,
		ObjectKey:   key,
		Type:        models.AttachmentTypeFor(contentType),
		Description: c.PostForm("description"),
	}
	if err := s.issues.AttachToIssue(c.Request.Context(), attachment); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

func (s *Server) uploadResponseAttachment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	key, _, ok := s.storeUpload(c)
	if !ok {
		return
	}
	attachment := &models.ResponseAttachment{
		ResponseID:  id,
		ObjectKey:   key,
		Description: c.PostForm("description"),
	}
	if err := s.issues.AttachToResponse(c.Request.Context(), attachment); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// attachmentURL returns a short-lived presigned download link for an
// attachment's object. File bytes never pass through the API process.
func (s *Server) attachmentURL(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	attachment, err := s.issues.Attachment(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if s.files == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}
	url, err := s.files.PresignedURL(c.Request.Context(), attachment.ObjectKey, attachmentLinkTTL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": attachmentLinkTTL.String()})
}

// storeUpload pushes the uploaded form file into the object store and returns
// its key and content type.
func (s *Server) storeUpload(c *gin.Context) (key, contentType string, ok bool) {
	if s.files == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return "", "", false
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return "", "", false
	}
	f, err := header.Open()
	if err != nil {
		fail(c, errors.WithStack(err))
		return "", "", false
	}
	defer f.Close()

	contentType = header.Header.Get("Content-Type")
	key, err = s.files.Upload(c.Request.Context(), header.Filename, contentType, f, header.Size)
	if err != nil {
		fail(c, err)
		return "", "", false
	}
	return key, contentType, true
}

func (s *Server) dashboardStats(c *gin.Context) {
	stats, err := s.issues.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// pathID parses the :id path segment, answering 400 itself on garbage.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// filtersFromQuery reads the common listing filters off the query string.
func filtersFromQuery(c *gin.Context) service.IssueFilters {
	f := service.IssueFilters{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Search:   c.Query("search"),
	}
	if n, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		f.Limit = n
	}
	if n, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		f.Offset = n
	}
	return f
}
