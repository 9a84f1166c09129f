package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/unitime-io/unitime-api/api/swagger"
	"github.com/unitime-io/unitime-api/internal/handler"
	"github.com/unitime-io/unitime-api/internal/middleware"
	"github.com/unitime-io/unitime-api/internal/models"
	"github.com/unitime-io/unitime-api/internal/repository"
	"github.com/unitime-io/unitime-api/internal/service"
	"github.com/unitime-io/unitime-api/pkg/cache"
	"github.com/unitime-io/unitime-api/pkg/config"
	"github.com/unitime-io/unitime-api/pkg/database"
	"github.com/unitime-io/unitime-api/pkg/lock"
	"github.com/unitime-io/unitime-api/pkg/logger"
	"github.com/unitime-io/unitime-api/pkg/mail"
	corsmiddleware "github.com/unitime-io/unitime-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unitime-io/unitime-api/pkg/middleware/requestid"
)

// @title UniTime API
// @version 1.0.0
// @description University timetabling backend with automatic generation
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const generationLockKey = "unitime:generation:lock"

// seededRand makes generation runs reproducible when GENERATOR_RAND_SEED
// is set.
func seededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching and run locking degraded", zap.Error(err))
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	validate := validator.New()

	// Repositories.
	slotRepo := repository.NewSlotRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	userRepo := repository.NewUserRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	unavailabilityRepo := repository.NewUnavailabilityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Outbound mail.
	var sender mail.Sender = mail.NopSender{}
	if cfg.Mail.Enabled {
		sender = mail.NewSendgridSender(cfg.Mail.SendgridKey, cfg.Mail.FromName, cfg.Mail.FromEmail, logr)
	}
	mailer := service.NewMailerService(sender, service.MailerConfig{
		Workers:    cfg.Mail.WorkerConcurrency,
		MaxRetries: cfg.Mail.WorkerRetries,
	}, logr)
	mailer.Start(context.Background())
	defer mailer.Stop()

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TimetableTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, mailer, validate, logr, service.AuthConfig{
		TokenSecret:     cfg.JWT.Secret,
		TokenExpiry:     cfg.JWT.Expiration,
		Issuer:          cfg.JWT.Issuer,
		FrontendBaseURL: cfg.Mail.FrontendBaseURL,
	})
	catalogSvc := service.NewCatalogService(roomRepo, teacherRepo, groupRepo, courseRepo, validate, logr)
	timetableSvc := service.NewTimetableService(slotRepo, roomRepo, service.TimetableStats{
		Rooms:    roomRepo,
		Teachers: teacherRepo,
		Courses:  courseRepo,
		Users:    userRepo,
	}, cacheSvc, validate, logr)

	generatorOpts := []service.GeneratorOption{
		service.WithAbsences(unavailabilityRepo),
		service.WithRunMetrics(metricsSvc),
		service.WithInvalidator(timetableSvc),
	}
	if redisClient != nil {
		generatorOpts = append(generatorOpts, service.WithRunLocker(lock.NewMutex(redisClient, generationLockKey, cfg.Generator.LockTTL)))
	}
	if cfg.Generator.RandSeed != 0 {
		generatorOpts = append(generatorOpts, service.WithRand(seededRand(cfg.Generator.RandSeed)))
	}
	generatorSvc := service.NewGeneratorService(slotRepo, groupRepo, courseRepo, teacherRepo, roomRepo, logr, generatorOpts...)

	reservationSvc := service.NewReservationService(reservationRepo, slotRepo, teacherRepo, mailer, timetableSvc, validate, logr)
	absenceSvc := service.NewAbsenceService(unavailabilityRepo, validate, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, mailer, validate, logr)
	exportSvc := service.NewExportService(slotRepo, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	generatorHandler := handler.NewGeneratorHandler(generatorSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	reservationHandler := handler.NewReservationHandler(reservationSvc, absenceSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Profile)
	auth.GET("/pending", middleware.JWT(authSvc), middleware.RBAC(models.RoleAdmin), authHandler.ListPending)
	auth.POST("/validate/:id", middleware.JWT(authSvc), middleware.RBAC(models.RoleAdmin), authHandler.Validate)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RBAC(models.RoleAdmin)

	rooms := protected.Group("/rooms")
	rooms.GET("", catalogHandler.ListRooms)
	rooms.GET("/:id", catalogHandler.GetRoom)
	rooms.POST("", adminOnly, catalogHandler.CreateRoom)
	rooms.PUT("/:id", adminOnly, catalogHandler.UpdateRoom)
	rooms.DELETE("/:id", adminOnly, catalogHandler.DeleteRoom)

	teachers := protected.Group("/teachers")
	teachers.GET("", catalogHandler.ListTeachers)
	teachers.GET("/:id", catalogHandler.GetTeacher)
	teachers.POST("", adminOnly, catalogHandler.CreateTeacher)
	teachers.PUT("/:id", adminOnly, catalogHandler.UpdateTeacher)
	teachers.DELETE("/:id", adminOnly, catalogHandler.DeleteTeacher)
	teachers.GET("/:id/reservations", reservationHandler.ListByTeacher)
	teachers.GET("/:id/unavailabilities", reservationHandler.ListAbsences)

	groups := protected.Group("/groups")
	groups.GET("", catalogHandler.ListGroups)
	groups.GET("/:id", catalogHandler.GetGroup)
	groups.POST("", adminOnly, catalogHandler.CreateGroup)
	groups.PUT("/:id", adminOnly, catalogHandler.UpdateGroup)
	groups.DELETE("/:id", adminOnly, catalogHandler.DeleteGroup)

	courses := protected.Group("/courses")
	courses.GET("", catalogHandler.ListCourses)
	courses.GET("/:id", catalogHandler.GetCourse)
	courses.POST("", adminOnly, catalogHandler.CreateCourse)
	courses.PUT("/:id", adminOnly, catalogHandler.UpdateCourse)
	courses.DELETE("/:id", adminOnly, catalogHandler.DeleteCourse)

	timetable := protected.Group("/timetable")
	timetable.POST("/generate", adminOnly, generatorHandler.Generate)
	timetable.GET("/groups/:id", timetableHandler.GroupTimetable)
	timetable.GET("/teachers/:id", timetableHandler.TeacherTimetable)
	timetable.GET("/rooms/free", timetableHandler.SearchFreeRooms)

	protected.GET("/stats", adminOnly, timetableHandler.Stats)

	reservations := protected.Group("/reservations")
	reservations.POST("", middleware.RBAC(models.RoleAdmin, models.RoleTeacher), reservationHandler.Create)
	reservations.GET("", adminOnly, reservationHandler.List)
	reservations.PATCH("/:id/status", adminOnly, reservationHandler.UpdateStatus)
	reservations.DELETE("/:id", adminOnly, reservationHandler.Delete)

	unavailabilities := protected.Group("/unavailabilities")
	unavailabilities.POST("", middleware.RBAC(models.RoleAdmin, models.RoleTeacher), reservationHandler.DeclareAbsence)
	unavailabilities.DELETE("/:id", middleware.RBAC(models.RoleAdmin, models.RoleTeacher), reservationHandler.WithdrawAbsence)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.POST("", adminOnly, notificationHandler.Broadcast)
	notifications.DELETE("/:id", adminOnly, notificationHandler.Delete)

	export := protected.Group("/export")
	export.GET("/groups/:id/pdf", exportHandler.GroupPDF)
	export.GET("/groups/:id/csv", exportHandler.GroupCSV)
	export.GET("/teachers/:id/pdf", exportHandler.TeacherPDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
