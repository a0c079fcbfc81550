package ui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"surveytab/app"
	"surveytab/internal"
	"surveytab/ports"
	"surveytab/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Services are the application services a transport serves
type Services struct {
	Tables    *app.TableService
	Variables *app.VariableService
	Snapshots ports.SnapshotProvider
}

// Server is the gin HTTP server for the tabulation API
type Server struct {
	router   *gin.Engine
	services Services
	logger   *internal.Logger
}

// NewServer creates a server with its middleware and routes installed
func NewServer(services Services) *Server {
	s := &Server{
		router:   gin.New(),
		services: services,
		logger:   internal.DefaultLogger.With("http"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery(), middleware.CORS())
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.POST("/generate_table", s.handleGenerateTable)

	api := s.router.Group("/api")
	{
		api.GET("/schema", s.handleSchema)
		api.GET("/analysis_table", s.handleAnalysisTable)
		api.GET("/dataset/status", s.handleDatasetStatus)
		api.POST("/dataset/refresh", s.handleDatasetRefresh)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until the server fails
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(StatusFor(err), errorBody(s.logger, err))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"dataset": snapshotStatus(s.services.Snapshots.Peek()),
	})
}

func (s *Server) handleGenerateTable(c *gin.Context) {
	var req app.TableRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	resp, err := s.services.Tables.Generate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSchema(c *gin.Context) {
	resp, err := s.services.Variables.Schema(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAnalysisTable(c *gin.Context) {
	req := app.ParseVariableQuery(c.Request.URL.Query())
	resp, err := s.services.Variables.Table(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDatasetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotStatus(s.services.Snapshots.Peek()))
}

func (s *Server) handleDatasetRefresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
	defer cancel()
	snap, err := refreshSnapshot(ctx, s.services.Snapshots)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotStatus(snap))
}
