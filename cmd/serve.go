package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/controller"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/cookie"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/mailer"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/repository"
	"github.com/vibast-solutions/ms-go-taskboard-auth/app/service"
	"github.com/vibast-solutions/ms-go-taskboard-auth/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vinovest/sqlx"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the auth and project access API.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	sender, err := newMailSender(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mail sender")
	}

	e := newHTTPServer(cfg, db, sender)
	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)

	go func() {
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

func newMailSender(cfg *config.Config) (mailer.Sender, error) {
	if cfg.SMTP.Host == "" {
		logrus.Warn("SMTP_HOST is empty, emails will only be logged")
		return mailer.NewLogSender(), nil
	}

	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func newHTTPServer(cfg *config.Config, db *sqlx.DB, sender mailer.Sender) *echo.Echo {
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewProjectMemberRepository(db)

	authService := service.NewUserAuthService(userRepo, sender, cfg)
	accessService := service.NewProjectAccessService(memberRepo, userRepo)
	jar := cookie.NewJar(cfg.Cookie, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	registerRoutes(e, routeDeps{
		userAuth:       controller.NewUserAuthController(authService, jar),
		projectMembers: controller.NewProjectMemberController(accessService),
		auth:           middleware.NewAuthMiddleware(authService, jar),
		project:        middleware.NewProjectMiddleware(accessService),
	})

	return e
}
