package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"morningbrief/render"
	"morningbrief/storage"
	"morningbrief/types"
)

type runRequest struct {
	DryRun bool `json:"dry_run"`
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)

	g := r.Group("/api/briefing")
	g.POST("/run", s.handleRun)
	g.GET("/status", s.handleStatus)
	g.GET("/latest", s.handleLatest)
	g.GET("/latest.html", s.handleLatestHTML)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": s.state.State()})
}

// handleRun starts a run in the background and returns 202 Accepted immediately.
func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	runID, err := s.Trigger("api", req.DryRun)
	if errors.Is(err, types.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": s.state.State()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "run_id": runID, "dry_run": req.DryRun})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Status())
}

// latest returns the briefing from this process, falling back to the archive.
// It writes the error response itself and returns nil when there is none.
func (s *Server) latest(c *gin.Context) *types.Briefing {
	if b := s.state.Latest(); b != nil {
		return b
	}
	if s.archive != nil {
		b, err := s.archive.Latest(c.Request.Context())
		switch {
		case err == nil && b != nil:
			return b
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			s.logger.Error("archive lookup failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "archive unavailable"})
			return nil
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no briefing yet"})
	return nil
}

func (s *Server) handleLatest(c *gin.Context) {
	b := s.latest(c)
	if b == nil {
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleLatestHTML(c *gin.Context) {
	b := s.latest(c)
	if b == nil {
		return
	}
	html, err := render.HTML(b)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}
