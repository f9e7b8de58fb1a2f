package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"titledesk/internal/auth"
	"titledesk/internal/config"
	"titledesk/internal/handler"
	"titledesk/internal/handler/sse"
	"titledesk/internal/jobs"
	"titledesk/internal/metrics"
	"titledesk/internal/middleware"
	"titledesk/internal/onedrive"
	"titledesk/internal/permissions"
	"titledesk/internal/repository/postgres"
	"titledesk/internal/service"
	serviceAuth "titledesk/internal/service/auth"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	tokens, err := auth.NewHMACTokenService(cfg.JWTSecret, cfg.JWTTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()
	logger.Info("database connected", "max_conns", pool.Config().MaxConns)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	appRepo := postgres.NewApplicationRepository(repoConfig)
	queryRepo := postgres.NewQueryRepository(repoConfig)
	docRepo := postgres.NewApplicationDocumentRepository(repoConfig)
	companyRepo := postgres.NewCompanyRepository(repoConfig)
	branchRepo := postgres.NewBranchRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	roleRepo := postgres.NewRoleRepository(repoConfig)
	notificationRepo := postgres.NewNotificationRepository(repoConfig)
	auditRepo := postgres.NewAuditLogRepository(repoConfig)
	settingsRepo := postgres.NewSettingsRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	catalog, err := permissions.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load permission catalog: %v", err)
	}
	if err := catalog.Sync(ctx, roleRepo); err != nil {
		log.Fatalf("Failed to sync permission catalog: %v", err)
	}
	logger.Info("permission catalog synced", "permissions", len(catalog.All()))

	auditService := service.NewAuditService(auditRepo, logger)
	settingsStore := service.NewSettingsStore(settingsRepo, txManager, auditService, logger)
	if err := settingsStore.Load(ctx); err != nil {
		log.Fatalf("Failed to load app settings: %v", err)
	}

	drive, err := onedrive.NewClient(cfg.GraphBaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to create OneDrive client: %v", err)
	}
	scope := serviceAuth.NewCompanyScopeAuthorizer(companyRepo)
	fileNumbers := service.NewFileNumberGenerator(appRepo, settingsRepo, settingsStore, logger)

	appService := service.NewApplicationService(appRepo, txManager, fileNumbers, settingsStore, scope, drive, auditService, cfg.OneDriveRootFolder, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)
	queryService := service.NewQueryService(queryRepo, appRepo, userRepo, appService, notificationService, auditService, txManager, logger)
	docService := service.NewDocumentService(docRepo, appService, drive, auditService, cfg.OneDriveRootFolder, logger)
	companyService := service.NewCompanyService(companyRepo, auditService, logger)
	branchService := service.NewBranchService(branchRepo, auditService, logger)
	userService := service.NewUserService(userRepo, roleRepo, catalog, txManager, auditService, logger)
	roleService := service.NewRoleService(roleRepo, catalog, txManager, auditService, logger)
	authService := service.NewAuthService(userRepo, roleRepo, tokens, service.NewLogMailer(logger), auditService,
		cfg.FrontendURL, cfg.ResetTokenTTL, logger)

	logger.Info("services initialized")

	appHandler := handler.NewApplicationHandler(appService, logger)
	queryHandler := handler.NewQueryHandler(queryService, logger)
	docHandler := handler.NewDocumentHandler(docService, logger)
	companyHandler := handler.NewCompanyHandler(companyService, logger)
	branchHandler := handler.NewBranchHandler(branchService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	roleHandler := handler.NewRoleHandler(roleService, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, sse.DefaultConfig(), logger)
	auditHandler := handler.NewAuditHandler(auditService, logger)
	settingsHandler := handler.NewSettingsHandler(settingsStore, logger)
	driveHandler := handler.NewOneDriveHandler(drive, logger)

	authenticate := middleware.Auth(tokens, authService, logger)

	// protect wraps h with authentication and, when slugs are given, an any-of permission check
	protect := func(h http.HandlerFunc, slugs ...string) http.Handler {
		var next http.Handler = h
		if len(slugs) > 0 {
			next = middleware.RequirePermission(slugs...)(next)
		}
		return authenticate(next)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	limited := func(h http.HandlerFunc) http.Handler {
		return limiter.Handler(h)
	}

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /metrics", metrics.Handler())

	// Auth routes
	mux.Handle("POST /api/auth/register", limited(authHandler.Register))
	mux.Handle("POST /api/auth/login", limited(authHandler.Login))
	mux.Handle("POST /api/auth/forgot-password", limited(authHandler.ForgotPassword))
	mux.Handle("POST /api/auth/reset-password", limited(authHandler.ResetPassword))
	mux.Handle("GET /api/auth/profile", protect(authHandler.GetProfile))
	mux.Handle("PATCH /api/auth/profile", protect(authHandler.UpdateProfile))
	mux.Handle("POST /api/auth/change-password", protect(authHandler.ChangePassword))

	// Application routes
	mux.Handle("GET /api/applications", protect(appHandler.ListApplications, "view_applications"))
	mux.Handle("POST /api/applications", protect(appHandler.CreateApplication, "create_applications"))
	mux.Handle("GET /api/applications/{id}", protect(appHandler.GetApplication, "view_applications"))
	mux.Handle("PATCH /api/applications/{id}", protect(appHandler.UpdateApplication, "edit_applications"))
	mux.Handle("PATCH /api/applications/{id}/status", protect(appHandler.UpdateStatus, "edit_applications"))
	mux.Handle("DELETE /api/applications/{id}", protect(appHandler.DeleteApplication, "delete_applications"))

	// Query routes
	mux.Handle("GET /api/applications/{id}/queries", protect(queryHandler.ListQueries, "view_applications"))
	mux.Handle("POST /api/applications/{id}/queries", protect(queryHandler.RaiseQuery, "manage_queries"))
	mux.Handle("PATCH /api/queries/{id}/resolve", protect(queryHandler.ResolveQuery, "manage_queries"))
	mux.Handle("PATCH /api/queries/{id}/unresolve", protect(queryHandler.UnresolveQuery, "manage_queries"))

	// Application document routes
	mux.Handle("GET /api/applications/{id}/documents", protect(docHandler.ListDocuments, "view_applications"))
	mux.Handle("POST /api/applications/{id}/documents", protect(docHandler.UploadDocument, "upload_documents"))
	mux.Handle("POST /api/applications/{id}/documents/generate", protect(docHandler.GenerateDocument, "upload_documents"))
	mux.Handle("DELETE /api/application-documents/{id}", protect(docHandler.DeleteDocument, "upload_documents"))
	mux.Handle("GET /api/applications/{id}/pdf-uploads", protect(docHandler.ListPDFUploads, "view_applications"))

	// Company routes
	mux.Handle("GET /api/companies", protect(companyHandler.ListCompanies, "view_companies"))
	mux.Handle("POST /api/companies", protect(companyHandler.CreateCompany, "manage_companies"))
	mux.Handle("GET /api/companies/{id}", protect(companyHandler.GetCompany, "view_companies"))
	mux.Handle("PUT /api/companies/{id}", protect(companyHandler.UpdateCompany, "manage_companies"))
	mux.Handle("DELETE /api/companies/{id}", protect(companyHandler.DeleteCompany, "manage_companies"))
	mux.Handle("GET /api/companies/{id}/documents", protect(companyHandler.ListCompanyFiles, "view_companies"))
	mux.Handle("POST /api/companies/{id}/documents", protect(companyHandler.AddCompanyFile, "manage_companies"))
	mux.Handle("DELETE /api/company-documents/{id}", protect(companyHandler.DeleteCompanyFile, "manage_companies"))

	// Branch routes
	mux.Handle("GET /api/branches", protect(branchHandler.ListBranches, "view_branches"))
	mux.Handle("POST /api/branches", protect(branchHandler.CreateBranch, "manage_branches"))
	mux.Handle("GET /api/branches/{id}", protect(branchHandler.GetBranch, "view_branches"))
	mux.Handle("PUT /api/branches/{id}", protect(branchHandler.UpdateBranch, "manage_branches"))
	mux.Handle("DELETE /api/branches/{id}", protect(branchHandler.DeleteBranch, "manage_branches"))

	// User routes
	mux.Handle("GET /api/users", protect(userHandler.ListUsers, "view_users"))
	mux.Handle("POST /api/users", protect(userHandler.CreateUser, "manage_users"))
	mux.Handle("GET /api/users/{id}", protect(userHandler.GetUser, "view_users"))
	mux.Handle("PATCH /api/users/{id}", protect(userHandler.UpdateUser, "manage_users"))
	mux.Handle("DELETE /api/users/{id}", protect(userHandler.DeleteUser, "manage_users"))
	mux.Handle("POST /api/users/{id}/force-logout", protect(userHandler.ForceLogout, "manage_users"))
	mux.Handle("GET /api/users/{id}/permissions", protect(userHandler.GetUserPermissions, "view_users", "manage_users"))
	mux.Handle("PUT /api/users/{id}/permissions", protect(userHandler.SetUserPermissions, "manage_users"))

	// Role and permission routes
	mux.Handle("GET /api/permissions", protect(roleHandler.ListPermissions, "view_roles", "manage_roles"))
	mux.Handle("GET /api/roles", protect(roleHandler.ListRoles, "view_roles", "manage_users"))
	mux.Handle("POST /api/roles", protect(roleHandler.CreateRole, "manage_roles"))
	mux.Handle("GET /api/roles/{id}", protect(roleHandler.GetRole, "view_roles"))
	mux.Handle("PUT /api/roles/{id}", protect(roleHandler.UpdateRole, "manage_roles"))
	mux.Handle("DELETE /api/roles/{id}", protect(roleHandler.DeleteRole, "manage_roles"))

	// Notification routes (own notifications only)
	mux.Handle("GET /api/notifications", protect(notificationHandler.ListNotifications))
	mux.Handle("GET /api/notifications/unread-count", protect(notificationHandler.UnreadCount))
	mux.Handle("GET /api/notifications/stream", protect(notificationHandler.StreamUnreadCount)) // SSE
	mux.Handle("PATCH /api/notifications/read-all", protect(notificationHandler.MarkAllRead))
	mux.Handle("PATCH /api/notifications/{id}/read", protect(notificationHandler.MarkRead))
	mux.Handle("DELETE /api/notifications/{id}", protect(notificationHandler.DeleteNotification))

	// Audit and settings routes
	mux.Handle("GET /api/audit-logs", protect(auditHandler.ListAuditLogs, "view_audit_logs"))
	mux.Handle("GET /api/app-settings", protect(settingsHandler.GetSettings, "view_settings"))
	mux.Handle("PUT /api/app-settings", protect(settingsHandler.UpdateSettings, "manage_settings"))
	mux.Handle("POST /api/app-settings/reload", protect(settingsHandler.ReloadSettings, "manage_settings"))

	// OneDrive proxy routes
	mux.Handle("POST /onedrive/folders", protect(driveHandler.CreateFolder, "use_onedrive", "upload_documents"))
	mux.Handle("POST /onedrive/files", protect(driveHandler.CreateFile, "use_onedrive", "upload_documents"))
	mux.Handle("POST /onedrive/copy", protect(driveHandler.CopyItem, "use_onedrive", "upload_documents"))
	mux.Handle("POST /onedrive/upload", protect(driveHandler.Upload, "use_onedrive", "upload_documents"))
	mux.Handle("GET /onedrive/items/{id}/content", protect(driveHandler.Download, "use_onedrive", "upload_documents"))
	mux.Handle("POST /onedrive/items/{id}/lock", protect(driveHandler.Lock, "use_onedrive", "upload_documents"))
	mux.Handle("POST /onedrive/items/{id}/unlock", protect(driveHandler.Unlock, "use_onedrive", "upload_documents"))
	mux.Handle("DELETE /onedrive/items/{id}", protect(driveHandler.DeleteItem, "use_onedrive", "upload_documents"))
	mux.Handle("POST /onedrive/pdf-upload", protect(docHandler.UploadPDF, "upload_documents"))

	// Build middleware chain
	// Order: CORS → RequestID → Logger/Metrics → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = metrics.InstrumentHandler(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.RequestID(h)

	// CORS - outermost so OPTIONS pre-flight requests never reach auth
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID", handler.DriveTokenHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      0, // Disabled to allow long-lived SSE streams
		IdleTimeout:       60 * time.Second,
	}

	scheduler := jobs.NewScheduler(logger)
	if err := scheduler.Every(10*time.Minute, "prune_rate_limiters", jobs.PruneRateLimiters(limiter, logger)); err != nil {
		log.Fatalf("Failed to schedule job: %v", err)
	}
	if err := scheduler.Every(time.Hour, "purge_reset_tokens", jobs.PurgeResetTokens(userRepo, logger)); err != nil {
		log.Fatalf("Failed to schedule job: %v", err)
	}
	scheduler.Start()

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	logger.Info("server stopped")
}
