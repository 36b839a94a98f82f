// Package main runs the conference registration portal HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/confera/backend/config"
	"github.com/confera/backend/internal/analytics"
	"github.com/confera/backend/internal/auth"
	"github.com/confera/backend/internal/email"
	"github.com/confera/backend/internal/emaillogs"
	"github.com/confera/backend/internal/manuscripts"
	"github.com/confera/backend/internal/middleware"
	"github.com/confera/backend/internal/models"
	"github.com/confera/backend/internal/notifications"
	"github.com/confera/backend/internal/payments"
	"github.com/confera/backend/internal/registrations"
	"github.com/confera/backend/internal/settings"
	"github.com/confera/backend/internal/worker"
	"github.com/confera/backend/pkg/database"
	"github.com/confera/backend/pkg/queue"
	"github.com/confera/backend/pkg/redis"
	"github.com/confera/backend/pkg/response"
	"github.com/confera/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		ManuscriptsBucket:    cfg.AWS.ManuscriptsBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth and admin seeding
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)
	if err := auth.EnsureAdmin(ctx, authRepo, cfg.Admin.Email, cfg.Admin.Password, logger); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	// Settings
	settingsRepo := settings.NewRepository(pool)
	if err := settingsRepo.EnsureDefaults(ctx, cfg.Conference.Name, cfg.Conference.AuthorIDPrefix); err != nil {
		logger.Fatal("seed settings", zap.Error(err))
	}
	settingsHandler := settings.NewHandler(settingsRepo, logger)

	// Registration lifecycle
	regRepo := registrations.NewRepository(pool)
	regService := registrations.NewService(regRepo, settingsRepo, logger)
	regHandler := registrations.NewHandler(regService, logger)

	// Notifications
	notifRepo := notifications.NewRepository(pool)
	notifHandler := notifications.NewHandler(notifRepo, authRepo, logger)

	// Email queue and audit log
	jobQueue := queue.NewQueue(rdb.Client, logger)
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	// Manuscripts
	manuscriptHandler := manuscripts.NewHandler(regService, s3Client, logger)

	// Payments
	payu := payments.NewPayU(cfg.PayU.MerchantKey, cfg.PayU.Salt, cfg.PayU.BaseURL)
	cashfree := payments.NewCashfree(cfg.Cashfree.AppID, cfg.Cashfree.SecretKey, cfg.Cashfree.BaseURL)
	paymentRepo := payments.NewRepository(pool)
	paymentService := payments.NewService(paymentRepo, regService, settingsRepo, payu, cashfree,
		cfg.Server.BaseURL+"/payment/return", logger)
	paymentHandler := payments.NewHandler(paymentService, logger)

	// Analytics
	analyticsHandler := analytics.NewHandler(pool, logger)

	registerLifecycleHooks(regService, settingsRepo, notifRepo, jobQueue)

	// Background email worker (also runs standalone via cmd/worker)
	var sender email.Sender = email.Nop{}
	if brevo := email.NewBrevo(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FromName, logger); brevo.Configured() {
		sender = brevo
	} else {
		logger.Warn("email sender not configured, outbound mail disabled")
	}
	emailProcessor := worker.NewEmailProcessor(sender, emailLogsRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/settings/public", settingsHandler.GetPublic)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Gateway webhooks (no JWT; signature verified in handler)
	router.POST("/payments/webhook/payu", paymentHandler.PayUWebhook)
	router.POST("/payments/webhook/cashfree", paymentHandler.CashfreeWebhook)

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Author wizard
		api.GET("/me/registration", regHandler.GetMine)
		api.PUT("/me/registration/draft", regHandler.SaveDraft)
		api.POST("/me/registration/submit", regHandler.Submit)
		api.POST("/me/registration/manuscript", manuscriptHandler.Upload)
		api.GET("/me/registration/manuscript", manuscriptHandler.Download)
		api.POST("/me/registration/payment", paymentHandler.Initiate)
		api.POST("/payments/verify", paymentHandler.Verify)

		// Notification feed
		api.GET("/me/notifications", notifHandler.List)
		api.POST("/me/notifications/read-all", notifHandler.MarkAllRead)
		api.POST("/me/notifications/:id/read", notifHandler.MarkRead)

		// Admin
		admin := api.Group("", middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/registrations", regHandler.List)
			admin.GET("/registrations/export/csv", regHandler.ExportCSV)
			admin.GET("/registrations/manuscripts/export", manuscriptHandler.ExportZIP)
			admin.GET("/registrations/:id", regHandler.GetByID)
			admin.PATCH("/registrations/:id/review", regHandler.Review)
			admin.POST("/registrations/:id/attendance", regHandler.SetAttendance)
			admin.GET("/registrations/:id/manuscript", manuscriptHandler.DownloadByID)
			admin.GET("/registrations/:id/payments", paymentHandler.ListByRegistration)
			admin.GET("/registrations/:id/emails", emailLogsHandler.ListByRegistration)
			admin.GET("/attendance/verify/:authorID", regHandler.VerifyAttendance)
			admin.GET("/analytics", analyticsHandler.Summary)
			admin.GET("/emails", emailLogsHandler.List)
			admin.GET("/settings", settingsHandler.Get)
			admin.PUT("/settings", settingsHandler.Update)
			admin.POST("/notifications/broadcast", notifHandler.Broadcast)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go emailProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// registerLifecycleHooks connects the state machine's post-commit hooks
// to the notification feed and the email queue.
func registerLifecycleHooks(
	regService *registrations.Service,
	settingsRepo *settings.Repository,
	notifRepo *notifications.Repository,
	jobQueue *queue.Queue,
) {
	conferenceName := func(ctx context.Context) string {
		s, err := settingsRepo.Current(ctx)
		if err != nil {
			return "the conference"
		}
		return s.ConferenceName
	}
	enqueue := func(ctx context.Context, reg *models.Registration, emailType, subject, body string) error {
		return jobQueue.EnqueueEmail(ctx, queue.EmailPayload{
			EmailType:      emailType,
			RegistrationID: reg.ID,
			RecipientEmail: reg.PersonalDetails.Email,
			RecipientName:  reg.PersonalDetails.FullName,
			Subject:        subject,
			Body:           body,
		})
	}

	regService.AfterSubmit(func(ctx context.Context, reg *models.Registration) error {
		return notifRepo.Create(ctx, &models.Notification{
			UserID:  reg.UserID,
			Title:   "Submission received",
			Message: "Your registration has been submitted and is now under review.",
			Type:    models.NotificationSubmission,
		})
	})
	regService.AfterSubmit(func(ctx context.Context, reg *models.Registration) error {
		subject, body := email.SubmissionReceived(reg, conferenceName(ctx))
		return enqueue(ctx, reg, email.TypeSubmission, subject, body)
	})

	regService.AfterDecision(func(ctx context.Context, reg *models.Registration) error {
		msg := "Your registration status is now " + string(reg.Status) + "."
		if reg.Status == models.StatusAccepted {
			msg = "Your paper has been accepted. Please complete the registration fee payment."
		}
		return notifRepo.Create(ctx, &models.Notification{
			UserID:  reg.UserID,
			Title:   "Review update",
			Message: msg,
			Type:    models.NotificationReview,
		})
	})
	regService.AfterDecision(func(ctx context.Context, reg *models.Registration) error {
		if !reg.Status.Terminal() {
			return nil
		}
		subject, body := email.Decision(reg, conferenceName(ctx))
		return enqueue(ctx, reg, email.TypeDecision, subject, body)
	})

	regService.AfterPayment(func(ctx context.Context, reg *models.Registration) error {
		return notifRepo.Create(ctx, &models.Notification{
			UserID:  reg.UserID,
			Title:   "Payment received",
			Message: "Your registration fee payment has been received. Your registration is complete.",
			Type:    models.NotificationPayment,
		})
	})
	regService.AfterPayment(func(ctx context.Context, reg *models.Registration) error {
		subject, body := email.PaymentReceipt(reg, conferenceName(ctx))
		return enqueue(ctx, reg, email.TypeReceipt, subject, body)
	})
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
