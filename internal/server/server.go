// Package server publishes the steward tools over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agenthands/steward/internal/core"
	"github.com/agenthands/steward/internal/core/model"
	"github.com/agenthands/steward/internal/history"
	"github.com/agenthands/steward/internal/logging"
)

// RunLister lists recorded tool runs.
type RunLister interface {
	List(ctx context.Context, limit int) ([]history.Run, error)
}

type Server struct {
	Steward *core.Steward
	History RunLister
	logger  *zap.Logger
}

func NewServer(steward *core.Steward, runs RunLister, logger *zap.Logger) *Server {
	return &Server{Steward: steward, History: runs, logger: logging.OrNop(logger)}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/tools", s.ListTools)
	r.POST("/tools/:name", s.CallTool)
	r.GET("/runs", s.ListRuns)

	return r
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Server) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.Steward.Tools()})
}

func (s *Server) CallTool(c *gin.Context) {
	name := c.Param("name")
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "tool": name})
		return
	}

	result, err := s.Steward.Call(c.Request.Context(), name, body)
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("tool failed", zap.String("tool", name), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error(), "tool": name})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListRuns(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	runs, err := s.History.List(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownTool), errors.Is(err, model.ErrInputNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSchemaMismatch), errors.Is(err, model.ErrUnknownColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
