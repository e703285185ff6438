package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/galhr/portal/backend/internal/auth"
	"github.com/galhr/portal/backend/internal/config"
	"github.com/galhr/portal/backend/internal/domain"
	"github.com/galhr/portal/backend/internal/handler"
	"github.com/galhr/portal/backend/internal/memstore"
	"github.com/galhr/portal/backend/internal/otp"
	"github.com/galhr/portal/backend/internal/queue"
	"github.com/galhr/portal/backend/internal/repository"
	"github.com/galhr/portal/backend/internal/storage"
)

func main() {
	/**********************************************
	 * load config and create logger
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	/**********************************************
	 * open the store selected by STORE_BACKEND
	 **********************************************/
	var store handler.Store
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		mem := memstore.New()
		if cfg.Store.SeedFixtures {
			hash, err := auth.HashPassword(cfg.Seed.User.Password)
			if err != nil {
				logger.Error("could not hash fixture password", "error", err)
				os.Exit(1)
			}
			mem.LoadFixtures(hash, time.Now())
			logger.Info("loaded fixture data set")
		}
		store = mem
		logger.Warn("using the in-memory store, data is lost on exit")
	default:
		dbpool, err := repository.Open(context.Background(), cfg)
		if err != nil {
			logger.Error("could not open database", "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()
		store = repository.NewRepository(cfg, dbpool)
	}

	/**********************************************
	 * make sure the initial admin exists
	 **********************************************/
	passwordHash, err := auth.HashPassword(cfg.InitialAdmin.Password)
	if err != nil {
		logger.Error("could not hash initial admin password", "error", err)
		return
	}
	initialAdmin := &domain.User{
		Email:        cfg.InitialAdmin.Email,
		Name:         cfg.InitialAdmin.Name,
		Role:         domain.RoleAdmin,
		PasswordHash: passwordHash,
	}
	if err := store.CreateUser(context.Background(), initialAdmin); err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			// already created on an earlier start
		default:
			logger.Error("could not create initial admin", "error", err)
			return
		}
	}

	/**********************************************
	 * connect rabbitmq, or only log mail
	 **********************************************/
	var mail handler.MailPublisher = queue.NewLogPublisher(logger)
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("could not connect to rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("could not open channel", "error", err)
			return
		}
		defer ch.Close()

		if err := queue.DeclareMailQueue(ch, cfg.RabbitMQ.Queue); err != nil {
			logger.Error("could not declare queue", "error", err)
			return
		}
		mail = queue.NewAMQPPublisher(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	} else {
		logger.Warn("RABBITMQ_DSN not set, mail is logged instead of sent")
	}

	/**********************************************
	 * connect redis, or keep codes in memory
	 **********************************************/
	var codes handler.CodeStore = otp.NewMemoryStore()
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			logger.Error("could not connect to redis", "error", err)
			return
		}
		codes = otp.NewRedisStore(rdb, time.Duration(cfg.Redis.OperationExpiration)*time.Second)
	}

	/**********************************************
	 * open file storage
	 **********************************************/
	files, err := storage.New(cfg.Storage.Dir, cfg.Storage.PublicBaseURL, cfg.Storage.MaxUploadSize)
	if err != nil {
		logger.Error("could not open file storage", "error", err)
		return
	}

	/**********************************************
	 * create handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, store, mail, codes, files)
	if err != nil {
		logger.Error("could not create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * start HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("could not shut down cleanly", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
