package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listNotifications(c *gin.Context) {
	user := currentUser(c)
	notifications, err := s.notifications.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user := currentUser(c)
	if err := s.notifications.MarkRead(c.Request.Context(), id, user.ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
