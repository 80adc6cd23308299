package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub/api/handler"
	apiMiddleware "learnhub/api/middleware"
	"learnhub/api/routes"
	"learnhub/config"
	"learnhub/internal/gdpr"
	"learnhub/internal/repository"
	"learnhub/internal/security"
	"learnhub/internal/service"
	"learnhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := config.NewLogger(cfg)

	db, err := config.ConnectionDb(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}
	if err := config.Migrate(db); err != nil {
		logger.WithError(err).Fatal("migrate database")
	}
	validate := validator.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	journal, err := security.NewFileJournal(cfg.SecurityLogDir)
	if err != nil {
		logger.WithError(err).Fatal("open security journal")
	}
	monitorOpts := []security.Option{security.WithMetrics(security.NewMetrics(registry))}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("parse REDIS_URL")
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		monitorOpts = append(monitorOpts, security.WithBlockList(security.NewRedisBlockList(rdb)))
		logger.Info("using redis block list")
	}
	var notifiers []security.Notifier
	if cfg.ResendAPIKey != "" && len(cfg.AlertEmailTo) > 0 {
		notifiers = append(notifiers, security.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AlertEmailTo))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := security.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
		defer kafkaNotifier.Close()
		notifiers = append(notifiers, kafkaNotifier)
	}
	monitorOpts = append(monitorOpts, security.WithNotifiers(notifiers...))
	monitor := security.NewMonitor(cfg.Security, journal, logger.WithField("component", "security"), monitorOpts...)
	defer monitor.Close()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	verificationRepo := repository.NewVerificationTokenRepository(db)
	mfaRepo := repository.NewMFASecretRepository(db)

	auditLog, err := gdpr.NewFileAuditLog(cfg.GDPRAuditDir)
	if err != nil {
		logger.WithError(err).Fatal("open gdpr audit log")
	}
	gdprService, err := gdpr.NewService(cfg.GDPR, gdpr.Repositories{
		Users:         userRepo,
		Progress:      repository.NewProgressRepository(db),
		Courses:       repository.NewCourseRepository(db),
		Projects:      repository.NewProjectRepository(db),
		Messages:      repository.NewMessageRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Mentorships:   repository.NewMentorshipRepository(db),
		Sessions:      sessionRepo,
		Tokens:        verificationRepo,
		Steps:         repository.NewDeletionStepRepository(db),
	}, auditLog, logger.WithField("component", "gdpr"),
		gdpr.WithEventSink(monitor),
		gdpr.WithMetrics(gdpr.NewMetrics(registry)),
	)
	if err != nil {
		logger.WithError(err).Fatal("init gdpr service")
	}

	accessManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: 15 * time.Minute,
	}
	mfaIssuer := service.MFATokenIssuerJWT{
		Secret: []byte(cfg.MFAJWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    5 * time.Minute,
	}

	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		verificationRepo,
		mfaRepo,
		monitor,
		service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppBaseURL),
		service.BcryptPasswordHasher{},
		service.JWTAccessIssuer{Manager: &accessManager},
		mfaIssuer,
		service.NewTOTPProvider(cfg.JWTIssuer),
		utils.RealClock{},
		service.AuthConfig{
			AccessTokenTTL:       15 * time.Minute,
			RefreshTokenTTL:      30 * 24 * time.Hour,
			VerificationTokenTTL: 24 * time.Hour,
			ResetTokenTTL:        30 * time.Minute,
			MFATokenTTL:          5 * time.Minute,
			MFAIssuer:            cfg.JWTIssuer,
		},
		logger.WithField("component", "auth"),
	)

	authHandler := handler.NewAuthHandler(authService, validate)
	authHandler.Events = monitor
	authHandler.CookieDomain = cfg.CookieDomain
	authHandler.SecureCookies = cfg.CookieSecure

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.NewRouter(app, monitor,
		apiMiddleware.AuthMiddleware{JWT: &accessManager},
		authHandler,
		handler.NewSecurityHandler(monitor, validate),
		handler.NewGDPRHandler(gdprService, validate, monitor),
	)
	router.Metrics = registry
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		monitor.Run(ctx)
		return nil
	})
	g.Go(func() error {
		gdprService.RunCleanup(ctx, 24*time.Hour)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped")
	}
	logger.Info("shutdown complete")
}
