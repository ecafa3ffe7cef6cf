package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"agencyhub/api/handler"
	apiMiddleware "agencyhub/api/middleware"
	"agencyhub/api/routes"
	"agencyhub/config"
	"agencyhub/internal/repository"
	"agencyhub/internal/service"
	"agencyhub/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}

	validate := validator.New()

	tokens := utils.TokenManager{
		AccessSecret:    []byte(cfg.JWTSecret),
		RefreshSecret:   []byte(cfg.JWTRefreshSecret),
		TwoFactorSecret: []byte(cfg.TwoFactorJWTSecret),
		Issuer:          cfg.JWTIssuer,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		SetupTokenTTL:   cfg.SetupTokenTTL,
		VerifyTokenTTL:  cfg.VerifyTokenTTL,
	}

	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	securityRepo := repository.NewSecurityLogRepository(db)

	hasher := service.BcryptPasswordHasher{}
	notifier := service.NewNotifier(logger)
	totpProvider := service.NewTOTPProvider(cfg.TwoFAAppName)
	emailSender := service.NewResendEmailSender(cfg.ResendAPIKey, cfg.From(), cfg.AppBaseURL)

	authService := service.NewAuthService(
		userRepo,
		securityRepo,
		notificationRepo,
		emailSender,
		notifier,
		hasher,
		tokens,
		totpProvider,
		service.RealClock{},
		service.AuthConfig{
			ResetTokenTTL: cfg.ResetTokenTTL,
			TOTPIssuer:    cfg.TwoFAAppName,
		},
	)
	adminService := service.NewAdminService(
		userRepo,
		notificationRepo,
		securityRepo,
		emailSender,
		notifier,
		service.RealClock{},
	)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := service.SeedAdmin(seedCtx, userRepo, hasher, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		logger.WithError(err).Fatal("failed to seed admin account")
	}
	cancel()

	sweeper := service.NewAdminExpirySweeper(userRepo, notificationRepo, securityRepo, logger, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	authHandler := handler.NewAuthHandler(authService, validate, logger)
	adminHandler := handler.NewAdminHandler(adminService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, logger)

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

	authMiddleware := apiMiddleware.AuthMiddleware{Tokens: tokens, Users: userRepo}
	router := routes.NewRouter(app, authHandler, adminHandler, notificationHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
