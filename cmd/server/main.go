// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gurkanbulca/taskhub/internal/config"
	"github.com/gurkanbulca/taskhub/internal/database"
	"github.com/gurkanbulca/taskhub/internal/events"
	"github.com/gurkanbulca/taskhub/internal/logger"
	"github.com/gurkanbulca/taskhub/internal/middleware"
	"github.com/gurkanbulca/taskhub/internal/repository"
	"github.com/gurkanbulca/taskhub/internal/repository/memory"
	"github.com/gurkanbulca/taskhub/internal/repository/postgres"
	"github.com/gurkanbulca/taskhub/internal/service"
	"github.com/gurkanbulca/taskhub/internal/transport/rest"
	"github.com/gurkanbulca/taskhub/internal/transport/rpc"
	"github.com/gurkanbulca/taskhub/pkg/auth"
	"github.com/gurkanbulca/taskhub/pkg/email"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()

	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenDuration)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	broker := events.NewBroker(cfg.Events.Buffer, log.Named("events"))
	securityLogger := service.NewSecurityLogger(log)
	authService := service.NewAuthService(repos.users, tokens, newEmailService(ctx, cfg, log), securityLogger, cfg.Admin.Secret, log)

	handler := rest.NewHandler(log, rest.Services{
		Auth:      authService,
		Users:     service.NewUserService(repos.users, log),
		Roles:     service.NewRoleService(repos.users, securityLogger, log),
		Teams:     service.NewTeamService(repos.teams, repos.users, log),
		Tasks:     service.NewTaskService(repos.tasks, repos.users, repos.teams, broker, log),
		Analytics: service.NewAnalyticsService(repos.tasks, repos.teams, nil, log),
	}, cfg.JWT.CookieName, cfg.JWT.TokenDuration, cfg.IsProduction())

	app := rest.NewApp(handler, middleware.NewAuth(authService, cfg.JWT.CookieName, securityLogger), log, cfg.Server.RequestTimeout)
	grpcServer := rpc.NewServer(rpc.Config{
		Addr:       net.JoinHostPort("", cfg.Server.GRPCPort),
		Reflection: cfg.Server.EnableReflection,
	}, broker, authService, securityLogger, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		broker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})
	g.Go(func() error {
		addr := net.JoinHostPort("", cfg.Server.HTTPPort)
		log.Infow("HTTP server listening", "addr", addr, "environment", cfg.Server.Environment)
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			log.Warnw("HTTP shutdown", "error", err)
		}
		return nil
	})

	err = g.Wait()
	authService.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Infow("server stopped")
	return nil
}

type repositories struct {
	users repository.UserRepository
	teams repository.TeamRepository
	tasks repository.TaskRepository
	close func()
}

func openRepositories(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warnw("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users: store.Users(),
			teams: store.Teams(),
			tasks: store.Tasks(),
			close: func() {},
		}, nil
	}

	db, err := database.NewPostgres(ctx, database.Config{
		DSN:          cfg.Database.DSN(),
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, log.Named("database"))
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &repositories{
		users: postgres.NewUserRepository(db),
		teams: postgres.NewTeamRepository(db, log.Named("repository.team")),
		tasks: postgres.NewTaskRepository(db),
		close: func() {
			if err := db.Close(); err != nil {
				log.Warnw("close database", "error", err)
			}
		},
	}, nil
}

func newEmailService(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) email.EmailService {
	if cfg.Email.TestingMode || cfg.IsDevelopment() {
		log.Infow("using mock email service")
		return email.NewMockEmailService()
	}

	smtp := email.NewSMTPEmailService(cfg.ToEmailConfig())
	if err := smtp.TestConnection(ctx); err != nil {
		log.Warnw("SMTP connection test failed", "host", cfg.Email.SMTPHost, "error", err)
	}
	return smtp
}
