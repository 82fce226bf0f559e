// Package server exposes a parsed log over a small read-only JSON API. It is
// the interface external presentation layers (tables, charts) consume; no
// upload or mutation endpoints exist.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/crimson-sun/pipelens/internal/config"
	"github.com/crimson-sun/pipelens/internal/stats"
	"github.com/crimson-sun/pipelens/pkg/pipelens"
)

// APIResponse is the envelope for every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server serves the reconstructed forest of one parsed log.
type Server struct {
	parser     *pipelens.Parser
	cfg        config.ServerConfig
	topN       int
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New creates a Server around an already-parsed Parser.
func New(parser *pipelens.Parser, cfg config.ServerConfig, topN int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
		engine.Use(cors.New(corsConfig))
	}

	s := &Server{
		parser: parser,
		cfg:    cfg,
		topN:   topN,
		logger: logger.With("component", "server"),
		engine: engine,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.health)
	api.GET("/tasks", s.tasks)
	api.GET("/stats/nodes", s.nodeStats)
	api.GET("/stats/phases", s.phaseStats)
	api.GET("/process-ids", s.processIDs)
	api.GET("/thread-ids", s.threadIDs)
	api.GET("/tasks/:id/owner", s.taskOwner)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{
		"version": config.Version,
		"tasks":   len(s.parser.Tasks()),
	}})
}

func (s *Server) tasks(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: s.parser.Tasks()})
}

func (s *Server) nodeStats(c *gin.Context) {
	rows := stats.Aggregate(s.parser.Tasks())
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{
		"all":      rows,
		"slowest":  stats.TopSlowest(rows, s.topN),
		"frequent": stats.TopFrequent(rows, s.topN),
		"failed":   stats.TopFailed(rows, s.topN),
	}})
}

func (s *Server) phaseStats(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: stats.AggregatePhases(s.parser.Tasks())})
}

func (s *Server) processIDs(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: s.parser.ProcessIDs()})
}

func (s *Server) threadIDs(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: s.parser.ThreadIDs()})
}

func (s *Server) taskOwner(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "task id must be an integer"})
		return
	}
	pid, ok := s.parser.TaskProcessID(id)
	if !ok {
		c.JSON(http.StatusNotFound, APIResponse{Success: false, Error: fmt.Sprintf("no owner recorded for task %d", id)})
		return
	}
	tid, _ := s.parser.TaskThreadID(id)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: gin.H{
		"task_id":    id,
		"process_id": pid,
		"thread_id":  tid,
	}})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.logger.Info("serving parsed log", "addr", s.cfg.Addr())
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
