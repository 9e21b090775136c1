package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/layer-3/casque/adapters/directory"
	"github.com/layer-3/casque/adapters/events"
	"github.com/layer-3/casque/adapters/radius"
	"github.com/layer-3/casque/adapters/store"
	"github.com/layer-3/casque/adapters/tokenizer"
	"github.com/layer-3/casque/config"
	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/logger"
	"github.com/layer-3/casque/ports"
	"github.com/layer-3/casque/service"
	transport "github.com/layer-3/casque/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the login service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides LISTEN_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	casqueCfg, err := config.LoadFile(cfg.CasqueConf)
	if err != nil {
		return err
	}

	// Generate a new ECDSA key pair; assertions do not outlive the process
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		sessions ports.SessionStore
		claims   ports.Directory
		eventPub ports.EventPublisher
	)

	switch cfg.Store {
	case "memory":
		mem := store.NewMemoryStore(cfg.AttemptTTL)
		go sweep(ctx, mem, cfg.AttemptTTL, log)
		sessions = mem
		claims = newSeededDirectory()
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			watermill.NewSlogLogger(log),
		)
		if err != nil {
			return fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		defer publisher.Close()

		sessions = store.NewRedisStore(redisClient, cfg.AttemptTTL)
		claims = directory.NewRedisDirectory(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	attempts := service.NewAttemptStore(sessions)
	authService := service.NewAuthService(
		service.NewTokenIDResolver(claims),
		radius.NewClient(casqueCfg, cfg.RadiusTimeout),
		attempts,
		eventPub,
		service.NewLogoutNotifier(attempts, eventPub),
		log,
	)

	tok := tokenizer.NewJWTTokenizer(privateKey)
	handlers := transport.NewAuthHandlers(authService, tok, cfg.SubjectTTL, log)
	router := transport.SetupRouter(handlers, tok, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "casque_server", casqueCfg.Address, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newSeededDirectory builds an in-memory directory from CASQUE_TOKEN_<USER> variables
func newSeededDirectory() ports.Directory {
	dir := directory.NewMemoryDirectory()
	for user, token := range tokensFromEnv(os.Environ()) {
		dir.SetClaim(user, core.TokenIDClaim, token)
	}
	return dir
}

func sweep(ctx context.Context, mem *store.MemoryStore, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mem.Sweep()
			log.Debug("swept expired attempts")
		}
	}
}
