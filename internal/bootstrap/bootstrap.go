package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/destinpq/destinpq-lms-sub000/internal/app/controllers"
	appMigrations "github.com/destinpq/destinpq-lms-sub000/internal/app/migrations"
	appRepos "github.com/destinpq/destinpq-lms-sub000/internal/app/repositories"
	appRoutes "github.com/destinpq/destinpq-lms-sub000/internal/app/routes"
	appServices "github.com/destinpq/destinpq-lms-sub000/internal/app/services"
	"github.com/destinpq/destinpq-lms-sub000/internal/config"
	"github.com/destinpq/destinpq-lms-sub000/internal/db"
	"github.com/destinpq/destinpq-lms-sub000/internal/jobs"
	appMiddleware "github.com/destinpq/destinpq-lms-sub000/internal/middleware"
	pkgAuth "github.com/destinpq/destinpq-lms-sub000/internal/pkg/auth"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/email"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/filestorage"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/helpers"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/logger"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/meeting"
	"github.com/destinpq/destinpq-lms-sub000/internal/pkg/websocket"
)

// DefaultConfigPath is read when CONFIG_PATH is not set.
const DefaultConfigPath = "configs/config.yaml"

// Dependencies is everything the server wires together at startup.
type Dependencies struct {
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Hub            *websocket.Hub
	WSHandler      *websocket.Handler
	Reminders      *jobs.ReminderJob
	TokenPurge     *jobs.TokenPurgeJob
	FileStorage    *filestorage.LocalStorage
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger reads configPath (plus dotenv and environment) and
// configures the global logger from the logging section.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = config.GetEnv("CONFIG_PATH", DefaultConfigPath)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.FromSettings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase opens the connection pool and, when database.auto_migrate is
// on, applies pending migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Connecting to PostgreSQL")
	database, err := db.NewPostgresDB(ctx, cfg, lgr.With().Str("component", "db").Logger())
	if err != nil {
		lgr.Error().Err(err).Msg("PostgreSQL connection failed")
		return nil, err
	}
	lgr.Info().Msg("PostgreSQL connected")

	if !cfg.Database.AutoMigrate {
		lgr.Info().Msg("Automatic migrations disabled")
		return database, nil
	}
	if _, err := RunMigrations(ctx, database.Pool, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// RunMigrations applies the embedded SQL migrations and returns how many ran.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Applying schema migrations")
	migrator := appMigrations.NewMigrator(pool, appMigrations.Source(), lgr.With().Str("component", "migrations").Logger())
	applied, err := migrator.Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Schema migration failed")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return applied, nil
}

// NewJWTService builds the token service from the jwt section.
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})
}

// NewNotifier builds the email notifier for the configured driver.
func NewNotifier(cfg *config.Config, lgr zerolog.Logger) email.Notifier {
	emailLogger := lgr.With().Str("component", "email").Logger()
	sender := email.NewSender(email.Config{
		Driver:         cfg.Email.Driver,
		FromAddress:    cfg.Email.FromAddress,
		FromName:       cfg.Email.FromName,
		SMTPHost:       cfg.Email.SMTPHost,
		SMTPPort:       cfg.Email.SMTPPort,
		SMTPUsername:   cfg.Email.SMTPUsername,
		SMTPPassword:   cfg.Email.SMTPPassword,
		SMTPUseTLS:     cfg.Email.SMTPUseTLS,
		SendGridAPIKey: cfg.Email.SendGridAPIKey,
	}, emailLogger)
	lgr.Info().Str("driver", cfg.Email.Driver).Msg("Email sender configured")
	return email.NewTemplateNotifier(sender, cfg.Email.FromName, emailLogger)
}

// NewMeetingProvider returns the Zoom client, or a provider that reports
// itself disabled.
func NewMeetingProvider(cfg *config.Config, lgr zerolog.Logger) meeting.Provider {
	if strings.ToLower(cfg.Meeting.Provider) != config.MeetingProviderZoom {
		lgr.Info().Msg("Meeting provider disabled")
		return meeting.NoopProvider{}
	}
	lgr.Info().Msg("Using Zoom meeting provider")
	return meeting.NewZoomProvider(meeting.ZoomConfig{
		AccountID:    cfg.Meeting.AccountID,
		ClientID:     cfg.Meeting.ClientID,
		ClientSecret: cfg.Meeting.ClientSecret,
		SDKKey:       cfg.Meeting.SDKKey,
		SDKSecret:    cfg.Meeting.SDKSecret,
		APIBaseURL:   cfg.Meeting.APIBaseURL,
		AuthURL:      cfg.Meeting.AuthURL,
		Timeout:      helpers.ParseDuration(cfg.Meeting.Timeout, 10*time.Second),
	}, lgr.With().Str("component", "zoom").Logger())
}

// BuildDependencies wires repositories, services, controllers, the websocket
// hub and the background jobs.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(database.Pool)

	baseURL := strings.TrimRight(cfg.Server.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Server.Port
	}
	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, baseURL+filestorage.URLPrefix)
	if err != nil {
		lgr.Error().Err(err).Msg("Upload directory unusable")
		return nil, fmt.Errorf("file storage: %w", err)
	}

	deps.JWTService = NewJWTService(cfg)
	notifier := NewNotifier(cfg, lgr)

	deps.Hub = websocket.NewHub(lgr.With().Str("component", "websocket").Logger())

	deps.Services = appServices.NewServices(appServices.Deps{
		Users:        deps.Repos.UserRepository,
		Tokens:       deps.Repos.TokenRepository,
		Courses:      deps.Repos.CourseRepository,
		Workshops:    deps.Repos.WorkshopRepository,
		Homework:     deps.Repos.HomeworkRepository,
		Achievements: deps.Repos.AchievementRepository,
		Messages:     deps.Repos.MessageRepository,
		JWT:          deps.JWTService,
		Notifier:     notifier,
		Meetings:     NewMeetingProvider(cfg, lgr),
		Storage:      deps.FileStorage,
		Publisher:    deps.Hub,
		Timezone:     cfg.Reminders.Timezone,
		Logger:       lgr,
	})
	svc := deps.Services

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository)
	deps.WSHandler = websocket.NewHandler(deps.Hub, svc.Message, lgr.With().Str("component", "websocket").Logger())

	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(svc.Auth, lgr),
		User:        appControllers.NewUserController(svc.User, lgr),
		Course:      appControllers.NewCourseController(svc.Course, lgr),
		Workshop:    appControllers.NewWorkshopController(svc.Workshop, lgr),
		Homework:    appControllers.NewHomeworkController(svc.Homework, lgr),
		Achievement: appControllers.NewAchievementController(svc.Achievement),
		Message:     appControllers.NewMessageController(svc.Message, lgr),
		Health:      appControllers.NewHealthController(database, lgr),
	}

	if cfg.Reminders.Enabled {
		deps.Reminders = jobs.NewReminderJob(
			deps.Repos.WorkshopRepository,
			notifier,
			cfg.Reminders.Schedule,
			helpers.ParseLocation(cfg.Reminders.Timezone),
			lgr.With().Str("component", "reminders").Logger(),
		)
	}

	deps.TokenPurge = jobs.NewTokenPurgeJob(
		deps.Repos.TokenRepository,
		jobs.TokenPurgeSchedule,
		lgr.With().Str("component", "token-purge").Logger(),
	)

	return deps, nil
}

// SetupRouter builds the gin engine: recovery, request logging, CORS, swagger,
// the API routes and the static uploads directory.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Gin release mode")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Gin debug mode")
	}

	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr.With().Str("component", "http").Logger()))
	router.Use(appMiddleware.CORS(appMiddleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
		MaxAge:         helpers.ParseDuration(cfg.CORS.MaxAge, 12*time.Hour),
	}))
	router.MaxMultipartMemory = filestorage.MaxUploadSize

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.WSHandler)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Static(filestorage.URLPrefix, deps.FileStorage.BasePath())
	lgr.Info().Str("path", deps.FileStorage.BasePath()).Msg("Static file serving configured for uploads directory")

	return router
}
