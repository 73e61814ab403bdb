// Package server wires the repositories, domain components and HTTP surface
// together and owns the HTTP server lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"visitation-service/internal/assignment"
	"visitation-service/internal/cache"
	"visitation-service/internal/cascade"
	"visitation-service/internal/config"
	"visitation-service/internal/database"
	"visitation-service/internal/event"
	"visitation-service/internal/handlers"
	"visitation-service/internal/metrics"
	"visitation-service/internal/repository"
	"visitation-service/internal/schedule"
	"visitation-service/internal/scope"
	"visitation-service/internal/sla"
	"visitation-service/internal/workload"
)

// Server hosts the visitation service HTTP API.
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	db        *database.Database
	publisher event.Publisher
	hierarchy cache.PathReader
	metrics   *metrics.Collector

	// Repositories
	officerRepo  *repository.OfficerRepository
	citizenRepo  *repository.CitizenRepository
	visitRepo    *repository.VisitRepository
	leaveRepo    *repository.LeaveRepository
	roleRepo     *repository.RoleConfigRepository
	alertRepo    *repository.AlertRepository

	// Domain components
	resolver *scope.Resolver
	gauge    *workload.Gauge
	engine   *assignment.Engine
	detector *schedule.Detector
	cascade  *cascade.Handler
	monitor  *sla.Monitor

	// Handlers
	assignmentHandler *handlers.AssignmentHandler
	visitHandler      *handlers.VisitHandler
	leaveHandler      *handlers.LeaveHandler
	transferHandler   *handlers.TransferHandler
	citizenHandler    *handlers.CitizenHandler
	slaHandler        *handlers.SLAHandler
	healthHandler     *handlers.HealthHandler

	router     *gin.Engine
	httpServer *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, logger *zap.Logger, db *database.Database, publisher event.Publisher, hierarchy cache.PathReader, collector *metrics.Collector) *Server {
	return &Server{
		config:    cfg,
		logger:    logger.Named("server"),
		db:        db,
		publisher: publisher,
		hierarchy: hierarchy,
		metrics:   collector,
	}
}

// Initialize sets up repositories, domain components, handlers and routes.
func (s *Server) Initialize() error {
	s.initRepositories()
	s.initComponents()
	s.initHandlers()
	s.initHTTPServer()

	s.logger.Info("Server initialized", zap.Int("port", s.config.Server.HTTPPort))
	return nil
}

// Monitor exposes the SLA monitor for the scheduler.
func (s *Server) Monitor() *sla.Monitor {
	return s.monitor
}

// CitizenRepo exposes the citizen repository for the scheduler's summary.
func (s *Server) CitizenRepo() *repository.CitizenRepository {
	return s.citizenRepo
}

// AlertRepo exposes the alert repository for the scheduler's summary.
func (s *Server) AlertRepo() *repository.AlertRepository {
	return s.alertRepo
}

func (s *Server) initRepositories() {
	s.officerRepo = repository.NewOfficerRepository(s.db, s.logger)
	s.citizenRepo = repository.NewCitizenRepository(s.db, s.logger)
	s.visitRepo = repository.NewVisitRepository(s.db, s.logger)
	s.leaveRepo = repository.NewLeaveRepository(s.db, s.logger)
	s.roleRepo = repository.NewRoleConfigRepository(s.db, s.logger)
	s.alertRepo = repository.NewAlertRepository(s.db, s.logger)
}

func (s *Server) initComponents() {
	s.resolver = scope.NewResolver(s.roleRepo, s.officerRepo, s.config.Scope.RoleConfigTTL, s.logger)
	s.gauge = workload.NewGauge(s.visitRepo, s.citizenRepo)
	s.engine = assignment.NewEngine(s.officerRepo, s.gauge, s.officerRepo, s.logger)
	s.detector = schedule.NewDetector(s.visitRepo, s.logger)
	s.cascade = cascade.NewHandler(s.visitRepo, s.officerRepo, s.citizenRepo, s.engine, s.publisher, s.logger)
	s.monitor = sla.NewMonitor(s.config.SLA, s.alertRepo, s.citizenRepo, s.visitRepo, s.logger)
}

func (s *Server) initHandlers() {
	s.assignmentHandler = handlers.NewAssignmentHandler(s.engine, s.detector, s.metrics, s.logger)
	s.visitHandler = handlers.NewVisitHandler(s.visitRepo, s.detector, s.metrics, s.logger)
	s.leaveHandler = handlers.NewLeaveHandler(s.leaveRepo, s.cascade, s.metrics, s.logger)
	s.transferHandler = handlers.NewTransferHandler(s.cascade, s.officerRepo, s.hierarchy, s.metrics, s.logger)
	s.citizenHandler = handlers.NewCitizenHandler(s.citizenRepo, s.logger)
	s.slaHandler = handlers.NewSLAHandler(s.monitor, s.logger)
	s.healthHandler = handlers.NewHealthHandler(s.db)
}

func (s *Server) initHTTPServer() {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	if s.config.Debug {
		s.router.Use(gin.Logger())
	}
	s.router.Use(handlers.MetricsMiddleware(s.metrics))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf(":%d", s.config.Server.HTTPPort),
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler.Health)
	s.router.GET("/health/ready", s.healthHandler.Ready)
	s.router.GET("/health/live", s.healthHandler.Live)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.Use(handlers.ScopeMiddleware(s.resolver, s.logger))
	{
		assignments := v1.Group("/assignments")
		{
			assignments.POST("/select", s.assignmentHandler.SelectOfficer)
			assignments.POST("/check-conflict", s.assignmentHandler.CheckConflict)
		}

		officers := v1.Group("/officers")
		{
			officers.GET("/:id/schedule", s.assignmentHandler.GetSchedule)
			officers.POST("/:id/transfer/preview", s.transferHandler.PreviewTransfer)
			officers.POST("/:id/transfer", s.transferHandler.ExecuteTransfer)
		}

		visits := v1.Group("/visits")
		{
			visits.POST("", s.visitHandler.CreateVisit)
			visits.GET("", s.visitHandler.ListVisits)
			visits.GET("/:id", s.visitHandler.GetVisit)
			visits.PUT("/:id/status", s.visitHandler.UpdateStatus)
		}

		leaves := v1.Group("/leaves")
		{
			leaves.POST("", s.leaveHandler.CreateLeave)
			leaves.PUT("/:id/approve", s.leaveHandler.ApproveLeave)
			leaves.PUT("/:id/reject", s.leaveHandler.RejectLeave)
		}

		citizens := v1.Group("/citizens")
		{
			citizens.GET("", s.citizenHandler.ListCitizens)
			citizens.GET("/:id", s.citizenHandler.GetCitizen)
		}

		slaRoutes := v1.Group("/sla")
		{
			slaRoutes.GET("/breaches", s.slaHandler.GetBreaches)
			slaRoutes.GET("/compliance", s.slaHandler.GetCompliance)
		}
	}
}

// Start begins serving HTTP traffic. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "HTTP server failed")
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
