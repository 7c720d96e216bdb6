package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/engine"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/config"
	"github.com/expenseflow/expenseflow/internal/infrastructure/email"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/currency"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/ocr"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/repository"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
	"github.com/expenseflow/expenseflow/internal/infrastructure/storage"
	"github.com/expenseflow/expenseflow/internal/infrastructure/worker"
	httpserver "github.com/expenseflow/expenseflow/internal/interfaces/http"
	"github.com/expenseflow/expenseflow/internal/report"
	"github.com/expenseflow/expenseflow/pkg/database"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ExpenseFlow",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	db, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	txManager := sqlite.NewDB(db, logger)
	companyRepo := repository.NewCompanyRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)
	ruleRepo := repository.NewRuleRepository(db, logger)
	expenseRepo := repository.NewExpenseRepository(db, logger)
	approvalRepo := repository.NewApprovalRepository(db, logger)

	// Initialize approval engine
	approvalEngine := engine.New(ruleRepo, userRepo, expenseRepo, approvalRepo, txManager, logger)

	// Initialize email delivery. The SMTP sender is wrapped in a queue
	// worker so HTTP requests never wait on the mail server.
	smtpSender := email.NewSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, logger)
	emailWorker := worker.NewEmailWorker(smtpSender, cfg.SMTP.QueueSize, logger)

	workers := worker.NewManager(logger)
	workers.Register(emailWorker)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := workers.StartAll(workerCtx); err != nil {
		logger.Fatal("Failed to start background workers", zap.Error(err))
	}

	// Initialize external adapters
	converter := currency.NewConverter(logger)
	receiptParser := ocr.NewReceiptParser(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	receiptStore := storage.NewReceiptStore(cfg.Storage.ReceiptsDir, logger)
	exporter := report.NewExporter(logger)

	// Initialize services
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	serviceLogger := utils.NewSugaredAdapter(logger)

	services := httpserver.Services{
		Auth:         service.NewAuthService(companyRepo, userRepo, txManager, tokens, emailWorker, serviceLogger),
		Expense:      service.NewExpenseService(expenseRepo, userRepo, companyRepo, converter, approvalEngine, serviceLogger),
		Approval:     service.NewApprovalService(approvalRepo, expenseRepo, userRepo, approvalEngine, emailWorker, serviceLogger),
		Admin:        service.NewAdminService(ruleRepo, expenseRepo, approvalRepo, userRepo, txManager, exporter, serviceLogger),
		User:         service.NewUserService(userRepo, emailWorker, serviceLogger),
		Receipts:     receiptParser,
		ReceiptFiles: receiptStore,
	}

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, services, tokens, serviceLogger)

	serverCtx, stopServer := context.WithCancel(context.Background())
	defer stopServer()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(serverCtx)
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	stopServer()
	if err := workers.StopAll(); err != nil {
		logger.Error("Worker shutdown error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
