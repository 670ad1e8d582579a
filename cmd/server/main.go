package main

import (
	"context"
	"errors"
	"lawconnect/config"
	"lawconnect/db"
	"lawconnect/handlers"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/services/jobs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
		Environment: cfg.Environment,
	}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	services.InitializeStorage(cfg)
	if err := services.SeedAdminFromEnv(db.DB); err != nil {
		log.Printf("[WARNING] Admin seed failed: %v", err)
	}
	middleware.InitAssetVersions("static")

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-CSRF-Token"},
		AllowCredentials: true,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	e.Use(middleware.CSPNonce())
	e.Use(middleware.LoadUser())
	e.Use(middleware.CSRF(cfg.IsProduction()))

	// Static files
	e.Static("/static", "static")
	e.GET("/media/avatars/:id", handlers.AvatarHandler)

	// Public routes
	e.GET("/", handlers.HomeHandler)
	e.GET("/health", handlers.HealthHandler)
	e.GET("/login", handlers.LoginHandler)
	e.POST("/login", handlers.LoginPostHandler, middleware.LoginRateLimiter.Middleware())
	e.GET("/register", handlers.RegisterHandler)
	e.POST("/register", handlers.RegisterPostHandler, middleware.RegisterRateLimiter.Middleware())
	e.POST("/logout", handlers.LogoutHandler)

	// Websocket push for open conversations
	e.GET("/ws/threads/:id", handlers.ThreadSocketHandler, middleware.RequireAuth())
	e.GET("/ws/notifications", handlers.NotificationSocketHandler, middleware.RequireAuth())

	registerClientRoutes(e.Group("/client", middleware.RequireAuth(), middleware.RequireRole(models.RoleClient)))
	registerLawyerRoutes(e.Group("/lawyer", middleware.RequireAuth(), middleware.RequireRole(models.RoleLawyer)))
	registerAPIRoutes(e.Group("/api"))

	// Background jobs
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := jobs.StartScheduler(ctx, db.DB, cfg); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	for _, limiter := range middleware.All {
		limiter.StartCleanup(ctx.Done())
	}

	go func() {
		log.Printf("Server starting on port %s (environment: %s)", cfg.ServerPort, cfg.Environment)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARNING] Graceful shutdown failed: %v", err)
	}
}

// registerSharedRoutes mounts the pages both roles have, under their prefix
func registerSharedRoutes(g *echo.Group) {
	g.GET("/dashboard", handlers.DashboardHandler)

	g.GET("/cases", handlers.CasesHandler)
	g.GET("/cases/:id", handlers.CaseDetailHandler)
	g.POST("/cases/:id/status", handlers.UpdateCaseStatusHandler)
	g.POST("/cases/:id/updates", handlers.AddCaseUpdateHandler)

	g.GET("/requests", handlers.CaseRequestsHandler)

	messages := middleware.MessageRateLimiter.Middleware()
	g.GET("/messages", handlers.MessagesHandler)
	g.POST("/messages/start", handlers.StartThreadHandler)
	g.GET("/messages/:id", handlers.MessagesHandler)
	g.GET("/messages/:id/list", handlers.MessageListHandler)
	g.POST("/messages/:id", handlers.SendMessageHandler, messages)

	g.GET("/appointments", handlers.AppointmentsHandler)
	g.POST("/appointments", handlers.CreateAppointmentHandler)
	g.POST("/appointments/:id/status", handlers.AppointmentStatusHandler)

	g.GET("/documents", handlers.DocumentsHandler)
	g.POST("/documents", handlers.UploadDocumentHandler)
	g.GET("/documents/:id/download", handlers.DownloadDocumentHandler)
	g.DELETE("/documents/:id", handlers.DeleteDocumentHandler)
	g.POST("/folders", handlers.CreateFolderHandler)
	g.POST("/folders/:id/delete", handlers.DeleteFolderHandler)

	g.GET("/invoices", handlers.InvoicesHandler)
	g.GET("/invoices/export", handlers.ExportInvoicesHandler)
	g.GET("/invoices/:id/pdf", handlers.InvoicePDFHandler)

	g.GET("/notifications", handlers.NotificationsHandler)
	g.POST("/notifications/read-all", handlers.MarkAllNotificationsReadHandler)
	g.POST("/notifications/:id/read", handlers.MarkNotificationReadHandler)
	g.DELETE("/notifications/:id", handlers.DeleteNotificationHandler)

	twoFactor := middleware.TwoFactorRateLimiter.Middleware()
	g.GET("/profile", handlers.ProfileHandler)
	g.POST("/profile", handlers.UpdateProfileHandler)
	g.POST("/profile/avatar", handlers.UploadAvatarHandler)
	g.POST("/settings/2fa/setup", handlers.SetupTwoFactorHandler)
	g.POST("/settings/2fa/verify", handlers.VerifyTwoFactorHandler, twoFactor)
	g.POST("/settings/2fa/disable", handlers.DisableTwoFactorHandler, twoFactor)
}

func registerClientRoutes(g *echo.Group) {
	registerSharedRoutes(g)

	g.POST("/cases", handlers.CreateCaseHandler)
	g.POST("/cases/:id/delete", handlers.DeleteCaseHandler)

	g.POST("/requests", handlers.CreateCaseRequestHandler)
	g.POST("/requests/:id/delete", handlers.WithdrawCaseRequestHandler)

	g.GET("/lawyers", handlers.LawyersHandler)
	g.GET("/lawyers/:id", handlers.LawyerDetailHandler)

	g.POST("/invoices/:id/pay", handlers.PayInvoiceHandler)
}

func registerLawyerRoutes(g *echo.Group) {
	registerSharedRoutes(g)

	g.POST("/cases/:id/accept", handlers.AcceptCaseHandler)
	g.POST("/requests/:id/respond", handlers.RespondCaseRequestHandler)

	g.GET("/clients", handlers.ClientsHandler)
	g.GET("/clients/:id", handlers.ClientDetailHandler)

	g.POST("/invoices", handlers.CreateInvoiceHandler)
	g.DELETE("/invoices/:id", handlers.DeleteInvoiceHandler)

	g.GET("/analytics", handlers.AnalyticsHandler)
	g.POST("/profile/practice", handlers.UpdatePracticeHandler)
}

func registerAPIRoutes(api *echo.Group) {
	auth := middleware.RequireAPIAuth()
	lawyer := middleware.RequireAPIRole(models.RoleLawyer)
	client := middleware.RequireAPIRole(models.RoleClient)

	users := api.Group("/users")
	users.POST("/register", handlers.APIRegisterHandler, middleware.RegisterRateLimiter.Middleware())
	users.POST("/login", handlers.APILoginHandler, middleware.LoginRateLimiter.Middleware())
	users.POST("/logout", handlers.APILogoutHandler, auth)
	users.GET("/me", handlers.APIMeHandler, auth)
	users.PUT("/me", handlers.APIUpdateMeHandler, auth)
	users.GET("/clients", handlers.APIListClientsHandler, auth, lawyer)
	users.GET("/clients/:id", handlers.APIGetClientHandler, auth, lawyer)
	users.GET("/lawyers", handlers.APIListLawyersHandler, auth)
	users.GET("/lawyers/:id", handlers.APIGetLawyerHandler, auth)

	law := api.Group("/law", auth)

	law.GET("/cases", handlers.APIListCasesHandler)
	law.POST("/cases", handlers.APICreateCaseHandler, client)
	law.GET("/cases/:id", handlers.APIGetCaseHandler)
	law.PUT("/cases/:id", handlers.APIUpdateCaseHandler)
	law.DELETE("/cases/:id", handlers.APIDeleteCaseHandler, client)
	law.POST("/cases/:id/accept", handlers.APIAcceptCaseHandler, lawyer)

	law.GET("/case-updates", handlers.APIListCaseUpdatesHandler)
	law.POST("/case-updates", handlers.APICreateCaseUpdateHandler)
	law.DELETE("/case-updates/:id", handlers.APIDeleteCaseUpdateHandler)

	law.GET("/case-requests", handlers.APIListCaseRequestsHandler)
	law.POST("/case-requests", handlers.APICreateCaseRequestHandler, client)
	law.GET("/case-requests/:id", handlers.APIGetCaseRequestHandler)
	law.POST("/case-requests/:id/respond", handlers.APIRespondCaseRequestHandler, lawyer)
	law.DELETE("/case-requests/:id", handlers.APIDeleteCaseRequestHandler, client)

	law.GET("/appointments", handlers.APIListAppointmentsHandler)
	law.POST("/appointments", handlers.APICreateAppointmentHandler)
	law.GET("/appointments/:id", handlers.APIGetAppointmentHandler)
	law.PUT("/appointments/:id", handlers.APIUpdateAppointmentHandler)
	law.DELETE("/appointments/:id", handlers.APIDeleteAppointmentHandler)

	law.GET("/folders", handlers.APIListFoldersHandler)
	law.POST("/folders", handlers.APICreateFolderHandler)
	law.PUT("/folders/:id", handlers.APIRenameFolderHandler)
	law.DELETE("/folders/:id", handlers.APIDeleteFolderHandler)

	law.GET("/documents", handlers.APIListDocumentsHandler)
	law.POST("/documents", handlers.APIUploadDocumentHandler)
	law.GET("/documents/:id", handlers.APIGetDocumentHandler)
	law.GET("/documents/:id/download", handlers.DownloadDocumentHandler)
	law.PUT("/documents/:id", handlers.APIUpdateDocumentHandler)
	law.DELETE("/documents/:id", handlers.APIDeleteDocumentHandler)

	law.GET("/threads", handlers.APIListThreadsHandler)
	law.POST("/threads", handlers.APIStartThreadHandler)
	law.GET("/messages", handlers.APIListMessagesHandler)
	law.POST("/messages", handlers.APISendMessageHandler, middleware.MessageRateLimiter.Middleware())

	law.GET("/invoices", handlers.APIListInvoicesHandler)
	law.POST("/invoices", handlers.APICreateInvoiceHandler, lawyer)
	law.GET("/invoices/export", handlers.ExportInvoicesHandler)
	law.GET("/invoices/:id", handlers.APIGetInvoiceHandler)
	law.PUT("/invoices/:id", handlers.APIUpdateInvoiceHandler, lawyer)
	law.POST("/invoices/:id/pay", handlers.APIPayInvoiceHandler)
	law.GET("/invoices/:id/pdf", handlers.InvoicePDFHandler)
	law.DELETE("/invoices/:id", handlers.APIDeleteInvoiceHandler, lawyer)

	notifications := api.Group("/notifications", auth)
	notifications.GET("", handlers.APIListNotificationsHandler)
	notifications.POST("/read-all", handlers.APIMarkAllNotificationsReadHandler)
	notifications.POST("/:id/read", handlers.APIMarkNotificationReadHandler)
	notifications.DELETE("/:id", handlers.APIDeleteNotificationHandler)

	twoFactor := api.Group("/2fa", auth)
	twoFactor.POST("/setup", handlers.APISetupTwoFactorHandler)
	twoFactor.POST("/verify", handlers.APIVerifyTwoFactorHandler, middleware.TwoFactorRateLimiter.Middleware())
	twoFactor.POST("/disable", handlers.APIDisableTwoFactorHandler, middleware.TwoFactorRateLimiter.Middleware())
}
