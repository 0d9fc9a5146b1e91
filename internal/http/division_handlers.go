package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) provinces(c *gin.Context) {
	provinces, err := s.divisions.Provinces(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, provinces)
}

func (s *Server) districts(c *gin.Context) {
	districts, err := s.divisions.Districts(c.Request.Context(), queryID(c, "province_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, districts)
}

func (s *Server) dsDivisions(c *gin.Context) {
	divisions, err := s.divisions.DSDivisions(c.Request.Context(), queryID(c, "district_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, divisions)
}

func (s *Server) gnDivisions(c *gin.Context) {
	divisions, err := s.divisions.GNDivisions(c.Request.Context(), queryID(c, "ds_division_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, divisions)
}

// queryID reads an optional numeric query parameter; 0 means absent.
func queryID(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
