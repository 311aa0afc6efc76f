package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batch_txt_bot/internal/config"
	"batch_txt_bot/src"
	"batch_txt_bot/src/access"
	"batch_txt_bot/src/backend"
	"batch_txt_bot/src/backend/exampur"
	"batch_txt_bot/src/backend/penpencil"
	"batch_txt_bot/src/conversation"
	"batch_txt_bot/src/extractor"
	"batch_txt_bot/src/logger"
	"batch_txt_bot/src/metrics"
	"batch_txt_bot/src/model"
	"batch_txt_bot/src/server"
	"batch_txt_bot/src/storage"
	"batch_txt_bot/src/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	envFile      string
	messagesFile string

	rootCmd = &cobra.Command{
		Use:   "batch_txt_bot",
		Short: "Telegram bot that extracts batch contents into text files",
		Long: `batch_txt_bot walks users through /pw and /kgs dialogues, lists their
batches from the content platforms and sends back a text file of links.`,
		SilenceUsage: true,
		RunE:         runBot,
	}
)

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.Flags().StringVar(&messagesFile, "messages", "", "YAML file overriding user-facing messages")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", envFile, err)
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		return err
	}

	closer, err := logger.InitLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	msgs, err := config.LoadMessages(messagesFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	httpClient := backend.NewHTTPClient(cfg.HTTP.Timeout)
	x := extractor.New(cfg.Artifact.Dir, m)

	bot, err := telegram.NewBot(cfg.Bot)
	if err != nil {
		return err
	}
	faults := telegram.NewAuditReporter(bot.API, cfg.Bot.AuditChatID)

	pw := conversation.NewPWFlow(penpencil.New(cfg.Penpencil, httpClient, m), x, cfg.Bot.AuditChatID)
	kgs := conversation.NewKGSFlow(exampur.New(cfg.Exampur, httpClient, m), x)
	manager := conversation.NewManager(conversation.Config{
		Store:    store,
		TTL:      cfg.Session.TTL,
		Outbox:   telegram.NewOutbox(bot.API),
		Faults:   faults,
		Metrics:  m,
		Messages: msgs,
	}, pw, kgs)

	gate := access.NewGate(cfg.Bot.OwnerID, []string{conversation.CommandStart, pw.Name(), kgs.Name()}, m)
	dispatcher := telegram.NewDispatcher(conversation.NewService(manager, gate), faults, cfg.Bot.Workers)

	gin.SetMode(gin.ReleaseMode)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx, dispatcher)
	})
	g.Go(func() error {
		return server.Run(gctx, cfg.Server.Port, server.NewRouter(store, m))
	})
	if mem, ok := store.(*storage.MemoryStorage); ok {
		g.Go(func() error {
			sweepSessions(gctx, mem, cfg.Session.TTL)
			return nil
		})
	}

	logger.Info().
		Str("session_backend", cfg.Session.Backend).
		Int("workers", cfg.Bot.Workers).
		Int("port", cfg.Server.Port).
		Msg("Bot started")

	err = g.Wait()
	logger.Info().Msg("Bot stopped")
	return err
}

func newStore(ctx context.Context, cfg model.SessionConfig) (storage.Store, error) {
	if cfg.Backend == "redis" {
		store, err := storage.NewRedisStorage(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return storage.NewMemoryStorage(), nil
}

// sweepSessions evicts abandoned in-memory sessions once per ttl
func sweepSessions(ctx context.Context, mem *storage.MemoryStorage, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				logger.Debug().Int("evicted", n).Msg("Expired sessions swept")
			}
		}
	}
}
