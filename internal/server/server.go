package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chirpnet/apiserver/config"
	"github.com/chirpnet/apiserver/internal/auth"
	"github.com/chirpnet/apiserver/internal/db"
	"github.com/chirpnet/apiserver/internal/handlers"
	"github.com/chirpnet/apiserver/internal/mq"
	"github.com/chirpnet/apiserver/internal/notify"
	"github.com/chirpnet/apiserver/internal/services"
	"github.com/chirpnet/apiserver/internal/storage"
	"github.com/chirpnet/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server, router, and background consumers.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
	sender     notify.Sender
	log        zerolog.Logger

	notifyCancel context.CancelFunc
}

// New constructs a Server with its full dependency graph.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn().Msg("JWT_SECRET is unset; using the development default")
	}

	userRepo := store.NewUserRepository(dbConn)
	tweetRepo := store.NewTweetRepository(dbConn)

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokens(cfg.Auth)
	guard := auth.RequireAuth(tokens)

	broker, err := newBroker(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	avatars, err := newAvatarStorage(ctx, cfg.Storage)
	if err != nil {
		if broker != nil {
			_ = broker.Close()
		}
		_ = dbConn.Close()
		return nil, err
	}

	sender := notify.NewLogSender(log)
	var dispatcher notify.Dispatcher
	if broker != nil {
		dispatcher = notify.NewMQDispatcher(broker)
	} else {
		dispatcher = notify.NewDirectDispatcher(sender)
	}

	authService := services.NewAuthService(userRepo, hasher, tokens)
	userService := services.NewUserService(userRepo, avatars)
	tweetService := services.NewTweetService(tweetRepo, userRepo, dispatcher, log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService, guard)
	})
	router.Route("/tweets", func(r chi.Router) {
		handlers.TweetRouter(r, tweetService, guard)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, guard)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
		sender:     sender,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the notification consumer (when a broker is configured) and
// the HTTP server.
func (s *Server) Start() error {
	if s.broker != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.notifyCancel = cancel
		go func() {
			err := notify.Consume(ctx, s.broker, s.sender)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error().Err(err).Msg("notification consumer stopped")
			}
		}()
	}

	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the consumer and closes the broker, database, and server.
func (s *Server) Shutdown() error {
	if s.notifyCancel != nil {
		s.notifyCancel()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newBroker(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

func newAvatarStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	s := storage.NewStorage(backend)
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
