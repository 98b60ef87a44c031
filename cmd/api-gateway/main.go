package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/biniyam0960/Student-information-System/api/swagger"
	"github.com/biniyam0960/Student-information-System/internal/handler"
	internalmiddleware "github.com/biniyam0960/Student-information-System/internal/middleware"
	"github.com/biniyam0960/Student-information-System/internal/repository"
	"github.com/biniyam0960/Student-information-System/internal/service"
	"github.com/biniyam0960/Student-information-System/migrations"
	"github.com/biniyam0960/Student-information-System/pkg/cache"
	"github.com/biniyam0960/Student-information-System/pkg/config"
	"github.com/biniyam0960/Student-information-System/pkg/database"
	"github.com/biniyam0960/Student-information-System/pkg/events"
	"github.com/biniyam0960/Student-information-System/pkg/jobs"
	"github.com/biniyam0960/Student-information-System/pkg/logger"
	"github.com/biniyam0960/Student-information-System/pkg/mailer"
	"github.com/biniyam0960/Student-information-System/pkg/storage"
)

// @title Student Information System API
// @version 1.0.0
// @description Enrollment, grading, attendance and records for a school.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Close()
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Error("server stopped", zap.Error(err))
		logr.Sync() //nolint:errcheck
		logger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB, migrations.FS, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	publisher, err := newPublisher(cfg.Events, logr)
	if err != nil {
		return err
	}
	defer publisher.Close() //nolint:errcheck

	var mail mailer.Mailer = mailer.NewLogMailer(logr)
	if cfg.Mail.Enabled {
		mail = mailer.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	gpaCache := service.NewCacheService(cacheRepo, metrics, cfg.Grades.CacheTTL, logr, cfg.Grades.CacheEnabled && redisClient != nil)

	notifications := service.NewNotificationService(publisher, mail, studentRepo, sectionRepo, courseRepo, logr)
	mux := jobs.NewMux()
	notifications.Register(mux)
	queue := jobs.NewQueue("notifications", mux.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Workers.Concurrency,
		MaxRetries: cfg.Workers.Retries,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, gpaCache, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, gpaCache, validate, logr)
	sectionSvc := service.NewSectionService(sectionRepo, gpaCache, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentSvc, sectionRepo, queue, metrics, validate, logr, service.EnrollmentConfig{
		AutoPromote: cfg.Enrollment.AutoPromote,
	})
	gradeSvc := service.NewGradeService(assignmentRepo, gradeRepo, sectionRepo, studentSvc, gpaCache, metrics, validate, logr, service.GradeConfig{
		CacheTTL: cfg.Grades.CacheTTL,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sectionRepo, studentSvc, validate, logr)
	exportSvc := service.NewExportService(gradeSvc, enrollmentRepo, studentSvc, sectionRepo, files,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL), metrics,
		service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		}, logr)
	exportSvc.StartCleanup(ctx)

	checks := map[string]handler.Pinger{"database": db.PingContext}
	var limiter internalmiddleware.RateLimiter
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		limiter = internalmiddleware.NewRedisTokenBucket(redisClient, cfg.RateLimit)
	} else if cfg.RateLimit.Enabled {
		logr.Warn("rate limiting requested without redis; login is not throttled")
	}

	router := newRouter(routerDeps{
		cfg:      cfg,
		logger:   logr,
		tokens:   authSvc,
		limiter:  limiter,
		audit:    userRepo,
		observer: metrics,
		handlers: handlers{
			auth:        handler.NewAuthHandler(authSvc),
			students:    handler.NewStudentHandler(studentSvc),
			teachers:    handler.NewTeacherHandler(teacherSvc),
			departments: handler.NewDepartmentHandler(departmentSvc),
			courses:     handler.NewCourseHandler(courseSvc),
			sections:    handler.NewSectionHandler(sectionSvc),
			enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
			grades:      handler.NewGradeHandler(gradeSvc),
			attendance:  handler.NewAttendanceHandler(attendanceSvc),
			exports:     handler.NewExportHandler(exportSvc),
			ops:         handler.NewMetricsHandler(metrics, checks),
		},
	})

	return serve(ctx, router, cfg.Port, logr)
}

func newPublisher(cfg config.EventsConfig, logr *zap.Logger) (events.Publisher, error) {
	if !cfg.Enabled {
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("connect event broker: %w", err)
	}
	logr.Info("publishing enrollment events", zap.String("exchange", cfg.Exchange))
	return publisher, nil
}

func serve(ctx context.Context, h http.Handler, port int, logr *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		return srv.Close()
	}
	return nil
}
