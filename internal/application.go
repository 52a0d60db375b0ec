package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-bot/internal/config"
	"github.com/rocketscienceinc/tictactoe-bot/internal/repository"
	"github.com/rocketscienceinc/tictactoe-bot/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-bot/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-bot/transport/cli"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	matchRepo, closeStorage, err := newMatchRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	matchManager := usecase.NewMatchManager(logger, matchRepo)

	shell := cli.New(logger, matchManager, cli.Options{
		Prompt:      conf.Shell.Prompt,
		HistoryFile: conf.Shell.HistoryFile,
		HumanMark:   conf.Match.HumanMark,
		BotDelay:    conf.Match.BotDelay,
	})

	log.Info("Starting shell", "storage", conf.Storage)

	if err = shell.Run(ctx); err != nil {
		return fmt.Errorf("shell error: %w", err)
	}

	return nil
}

func newMatchRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.MatchRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		return repository.NewInMemoryMatchRepository(), func() {}, nil
	}

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewMatchRepository(redisStorage), closeStorage, nil
}
