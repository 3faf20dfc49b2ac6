package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/types"
)

// Build information, settable at build time using ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: code, Message: message})
}

// healthCheck handles GET /health, a basic liveness check.
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "memograph",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

// livenessCheck handles GET /live for orchestrator probes.
func (s *Server) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// readinessCheck handles GET /ready. The graph store is probed with a
// bounded timeout; a failing probe degrades readiness instead of panicking.
func (s *Server) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{}
	status := http.StatusOK
	overall := "ready"

	start := time.Now()
	if err := s.engine.Ping(ctx); err != nil {
		checks["database"] = gin.H{
			"status":   "unhealthy",
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		}
		status = http.StatusServiceUnavailable
		overall = "not ready"
	} else {
		checks["database"] = gin.H{
			"status":   "healthy",
			"duration": time.Since(start).String(),
		}
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"service":   "memograph",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// learn handles POST /api/v1/learn.
func (s *Server) learn(c *gin.Context) {
	var req LearnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.engine.Learn(c.Request.Context(), req.Text, &memograph.LearnOptions{
		ContextID:   req.ContextID,
		ContextName: req.ContextName,
		ValidFrom:   req.ValidFrom,
		ValidTo:     req.ValidTo,
	})
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// learnBatch handles POST /api/v1/learn/batch.
func (s *Server) learnBatch(c *gin.Context) {
	var req LearnBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.Items) == 0 {
		errorJSON(c, http.StatusBadRequest, "invalid_request", "items cannot be empty")
		return
	}

	result, err := s.engine.LearnBatch(c.Request.Context(), req.Items, &memograph.BatchOptions{
		ContextName: req.ContextName,
		ValidFrom:   req.ValidFrom,
		ValidTo:     req.ValidTo,
	})
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ask handles POST /api/v1/ask.
func (s *Server) ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.engine.Ask(c.Request.Context(), req.Query, &memograph.AskOptions{
		Strategy:            memograph.Strategy(req.Strategy),
		Limit:               req.Limit,
		MaxDepth:            req.MaxDepth,
		Contexts:            req.Contexts,
		ValidAt:             req.ValidAt,
		SimilarityThreshold: req.SimilarityThreshold,
		IncludeStats:        req.IncludeStats,
	})
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// getDocument handles GET /api/v1/documents/:id.
func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.engine.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	if doc == nil {
		errorJSON(c, http.StatusNotFound, "not_found", "document does not exist")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// deleteDocument handles DELETE /api/v1/documents/:id.
func (s *Server) deleteDocument(c *gin.Context) {
	deleted, err := s.engine.DeleteDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	if !deleted {
		errorJSON(c, http.StatusNotFound, "not_found", "document does not exist")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// stats handles GET /api/v1/stats.
func (s *Server) stats(c *gin.Context) {
	stats, err := s.engine.GetStats(c.Request.Context())
	if err != nil {
		s.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeEngineError maps engine errors to HTTP statuses.
func (s *Server) writeEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, memograph.ErrNoScope):
		errorJSON(c, http.StatusPreconditionFailed, "no_scope", err.Error())
	case errors.Is(err, memograph.ErrNoQuery), errors.Is(err, types.ErrEmptyText):
		errorJSON(c, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		errorJSON(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
