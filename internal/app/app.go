package app

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/taskforce/taskmanager/internal/config"
	"github.com/taskforce/taskmanager/internal/db"
	"github.com/taskforce/taskmanager/internal/repository"
	"github.com/taskforce/taskmanager/internal/service"
	"github.com/taskforce/taskmanager/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Repos         *repository.Repositories
	AuthService   *service.AuthService
	UserService   *service.UserService
	TaskService   *service.TaskService
	AvatarService *service.AvatarService
}

// New connects to the database, applies pending migrations and wires the services.
func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.EmailLogMode,
	)

	a, err := Wire(cfg, database, emailService)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

// Wire builds the services on an already migrated database.
func Wire(cfg *config.Config, database *sqlx.DB, mailer service.Mailer) (*App, error) {
	repos := repository.New(database)

	avatarStore, err := storage.New(cfg, storage.NewDatabaseStore(repos.Users))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	authService := service.NewAuthService(repos.Users, repos.Tokens, cfg.JWTSecret, cfg.JWTExpiry, cfg.BcryptCost)
	avatarService := service.NewAvatarService(avatarStore, cfg.AvatarSize, cfg.AvatarMaxBytes)
	userService := service.NewUserService(
		repos,
		repository.NewTransactor(database),
		authService,
		avatarService,
		mailer,
		cfg.EmailTimeout,
	)
	taskService := service.NewTaskService(repos.Tasks)

	return &App{
		Cfg:           cfg,
		DB:            database,
		Repos:         repos,
		AuthService:   authService,
		UserService:   userService,
		TaskService:   taskService,
		AvatarService: avatarService,
	}, nil
}

// Close waits for pending emails and closes the database.
func (a *App) Close() error {
	a.UserService.Wait()
	slog.Debug("background emails drained")
	return db.Close(a.DB)
}
