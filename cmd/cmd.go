package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchdeck-backend/internal/config"
	"matchdeck-backend/internal/handlers"
	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/middleware"
	"matchdeck-backend/internal/repository"
	"matchdeck-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const configPath = "config.yaml"

func Run() {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Connect to database
	db, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, db, cfg.Feed.Channel); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		log.Info().Msg("Database schema up to date")
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Initialize services
	verifier, err := services.NewTokenVerifier(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token verifier")
	}

	var photoSigner services.PhotoSigner
	if cfg.AWS.S3Bucket != "" {
		photoService, err := services.NewPhotoService(ctx, cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create photo service")
		}
		photoSigner = photoService
	} else {
		log.Warn().Msg("No photo bucket configured, serving stored photo URLs as is")
	}

	var pushService *services.PushService
	if cfg.APNs.KeyPath != "" {
		apnsClient, err := services.NewAPNsClient(cfg.APNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create APNs client")
		}
		pushService = services.NewPushService(deviceRepo, apnsClient, cfg.APNs.Topic)
	} else {
		log.Warn().Msg("APNs not configured, match pushes disabled")
		pushService = services.NewPushService(deviceRepo, nil, "")
	}

	sessionStore := newSessionStore(ctx, cfg.Redis)

	wsHub := services.NewWSHub()
	profileService := services.NewProfileService(profileRepo, photoSigner)
	chatService := services.NewChatService(chatRepo, profileRepo)
	messageService := services.NewMessageService(messageRepo, chatService)
	inboxService := services.NewInboxService(chatService, messageRepo, profileService)
	sessionService := services.NewSessionService(profileService, chatService, sessionStore, wsHub, pushService)
	feed := services.NewFeed(db, messageRepo, wsHub, cfg.Feed.Channel, cfg.Feed.ReconnectDelay)

	go feed.Run(ctx)

	// Initialize handlers
	deckHandler := handlers.NewDeckHandler(sessionService)
	chatHandler := handlers.NewChatHandler(chatService, messageService, inboxService)
	profileHandler := handlers.NewProfileHandler(profileService, pushService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, verifier, messageService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(verifier))

		r.Get("/deck", deckHandler.GetDeck)
		r.Post("/deck", deckHandler.StartDeck)
		r.Post("/deck/swipe", deckHandler.Swipe)
		r.Post("/deck/actions/{action}", deckHandler.Act)
		r.Get("/deck/matches", deckHandler.GetMatches)

		r.Get("/profiles/{profile_id}", profileHandler.GetProfileDetail)
		r.Post("/profiles/me/photos", profileHandler.UploadPhoto)
		r.Put("/devices", profileHandler.RegisterDevice)

		r.Post("/chats", chatHandler.OpenChat)
		r.Get("/chats/{chat_id}/messages", chatHandler.GetMessages)
		r.Post("/chats/{chat_id}/messages", chatHandler.SendMessage)
		r.Get("/inbox", chatHandler.GetInbox)
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the insert feed before closing sockets
	stop()
	wsHub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// IssueToken prints a signed development token for userID
func IssueToken(userID string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.Log.Level)

	verifier, err := services.NewTokenVerifier(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token verifier")
	}

	token, err := verifier.Issue(userID, 30*24*time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}
	fmt.Println(token)
}

// newSessionStore returns a Redis store when Redis answers and falls back to memory otherwise
func newSessionStore(ctx context.Context, cfg config.RedisConfig) services.SessionStore {
	if cfg.Addr == "" {
		log.Info().Msg("Redis not configured, keeping deck sessions in memory")
		return services.NewMemorySessionStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, keeping deck sessions in memory")
		client.Close()
		return services.NewMemorySessionStore()
	}

	log.Info().Str("addr", cfg.Addr).Msg("Redis connection established")
	return services.NewRedisSessionStore(client, cfg.TTL)
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
