package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"phonebook.org/internal/audit"
	"phonebook.org/internal/auth"
	"phonebook.org/internal/config"
	"phonebook.org/internal/directory"
	"phonebook.org/internal/httpapi"
	"phonebook.org/internal/migrate"
	"phonebook.org/internal/obs"
	"phonebook.org/internal/store/pg"
)

func main() {
	envFile := pflag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	pflag.Parse()

	// .env не обязателен
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	if err := run(); err != nil {
		obs.Logger().Fatal("phonebook-api stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(obs.LogConfig{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	obs.SetLogger(logger)
	defer func() { _ = logger.Sync() }()

	obs.Init()
	obs.InitBuildInfo(obs.Version, obs.Commit)

	var (
		db         *sql.DB
		identities auth.IdentityStore
		entries    directory.Store
	)
	if cfg.InMemory() {
		logger.Warn("PHONEBOOK_PG_DSN not set, using in-memory stores")
		identities = auth.NewMemoryStore()
		entries = directory.NewMemoryStore(directory.WithUniquePhone(cfg.UniquePhone))
	} else {
		store, err := pg.Open(cfg.DatabaseDSN, pg.WithUniquePhone(cfg.UniquePhone))
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()
		db = store.DB()

		if cfg.MigrateOnStart {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			applied, err := migrate.NewManager(db, pg.Migrations(), pg.Seeds()).Up(ctx)
			cancel()
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if len(applied) > 0 {
				logger.Info("migrations applied", zap.Strings("files", applied))
			}
		}
		identities = store
		entries = store
	}

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret),
		auth.WithIssuer(cfg.JWTIssuer),
		auth.WithTokenTTL(cfg.TokenTTL),
	)
	if err != nil {
		return err
	}
	authSvc, err := auth.NewService(identities, tokens, auth.WithBcryptCost(cfg.BcryptCost))
	if err != nil {
		return err
	}

	dirOpts := []directory.Option{}
	if cfg.AuditJournal != "" {
		journal, err := audit.OpenFileJournal(cfg.AuditJournal)
		if err != nil {
			return fmt.Errorf("audit journal: %w", err)
		}
		defer journal.Close()
		dirOpts = append(dirOpts, directory.WithJournal(journal))
	}
	dirSvc, err := directory.NewService(entries, dirOpts...)
	if err != nil {
		return err
	}

	probe := httpapi.ReadyProbe{DB: db}
	api, err := httpapi.New(httpapi.Options{
		Auth:         authSvc,
		Directory:    dirSvc,
		Ready:        probe,
		Version:      obs.Version,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", obs.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer()
		httpapi.NewGRPCServer(probe, obs.Version).Register(grpcSrv)
		go func() {
			logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
