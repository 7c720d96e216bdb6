// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/infrastructure/storage"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the server exposes
type Services struct {
	Auth     service.AuthService
	Expense  service.ExpenseService
	Approval service.ApprovalService
	Admin    service.AdminService
	User     service.UserService
	Receipts port.ReceiptParser
	// ReceiptFiles persists uploaded receipts so their paths can be
	// attached to expenses.
	ReceiptFiles *storage.ReceiptStore
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	tokens     *auth.TokenService
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, tokens *auth.TokenService, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		tokens:   tokens,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")

	// Public auth endpoints
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", handlers.Signup)
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/forgot-password", handlers.ForgotPassword)
	}

	// Authenticated endpoints
	authed := api.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.POST("/expenses", handlers.CreateExpense)
		authed.GET("/expenses", handlers.MyExpenses)
		authed.GET("/expenses/:id", handlers.GetExpense)
		authed.POST("/expenses/:id/submit", handlers.SubmitExpense)

		authed.POST("/receipts/scan", handlers.ScanReceipt)

		authed.GET("/approvals/pending", handlers.PendingApprovals)
		authed.POST("/approvals/:id/decide", handlers.Decide)
	}

	// Admin-only endpoints
	admin := api.Group("/admin")
	admin.Use(s.authMiddleware(), s.requireAdmin())
	{
		admin.POST("/rules", handlers.CreateRule)
		admin.GET("/rules", handlers.ListRules)
		admin.GET("/expenses", handlers.AllExpenses)
		admin.POST("/expenses/:id/override", handlers.OverrideStatus)
		admin.GET("/expenses/report", handlers.ExportReport)
		admin.POST("/users", handlers.CreateUser)
		admin.GET("/users", handlers.ListUsers)
		admin.PUT("/users/:id", handlers.UpdateUser)
		admin.POST("/users/:id/resend-password", handlers.ResendPassword)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
