package server

import (
	"net/http"
	"strings"
	"time"

	occurrencedomain "github.com/elrc-run/attendly/internal/occurrence/domain"
	"github.com/gin-gonic/gin"
)

type createOccurrenceRequest struct {
	Title         string `json:"title"`
	ScheduledTime string `json:"scheduled_time"`
}

func (s *Server) CreateOccurrence(c *gin.Context) {
	var req createOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	at, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledTime))
	if err != nil {
		AbortWithError(c, newValidationError("scheduled_time", "invalid_scheduled_time", "must be an RFC 3339 timestamp"))
		return
	}

	resp, err := s.occurrenceSvc.Create(c.Request.Context(), occurrencedomain.CreateRequest{
		Title:         strings.TrimSpace(req.Title),
		ScheduledTime: at,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOccurrences(c *gin.Context) {
	var query struct {
		From     string `form:"from"`
		To       string `form:"to"`
		Notified string `form:"notified"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := occurrencedomain.ListRequest{}

	if raw := strings.TrimSpace(query.From); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("from", "invalid_from", "must be an RFC 3339 timestamp"))
			return
		}
		req.From = &from
	}
	if raw := strings.TrimSpace(query.To); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("to", "invalid_to", "must be an RFC 3339 timestamp"))
			return
		}
		req.To = &to
	}
	switch strings.TrimSpace(query.Notified) {
	case "":
	case "true":
		v := true
		req.Notified = &v
	case "false":
		v := false
		req.Notified = &v
	default:
		AbortWithError(c, newValidationError("notified", "invalid_notified", "must be true or false"))
		return
	}

	resp, err := s.occurrenceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOccurrence(c *gin.Context) {
	resp, err := s.occurrenceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetOccurrenceRecord resolves the external tracking record for an
// occurrence. The occurrence must exist locally before the record store
// is consulted.
func (s *Server) GetOccurrenceRecord(c *gin.Context) {
	occ, err := s.occurrenceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rec, err := s.recordsSvc.GetRecord(c.Request.Context(), occ.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (s *Server) BackfillOccurrences(c *gin.Context) {
	created, err := s.backfill.MaterializeUntilNextSunday(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": created, "created": len(created)})
}
