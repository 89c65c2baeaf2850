package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/relay_bot/internal/ai"
	"github.com/Vovarama1992/relay_bot/internal/bot"
	"github.com/Vovarama1992/relay_bot/internal/config"
	"github.com/Vovarama1992/relay_bot/internal/delivery"
	"github.com/Vovarama1992/relay_bot/internal/domain"
	"github.com/Vovarama1992/relay_bot/internal/error_notificator"
	"github.com/Vovarama1992/relay_bot/internal/featuretoken"
	"github.com/Vovarama1992/relay_bot/internal/history"
	"github.com/Vovarama1992/relay_bot/internal/infra"
	"github.com/Vovarama1992/relay_bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "relay_bot"

func main() {
	if err := run(); err != nil {
		log.Fatalf("%s: %v", serviceName, err)
	}
}

func run() error {

	// =========================================================================
	// FLAGS / ENV
	// =========================================================================

	var envFile string
	var dev bool

	flagSet := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "path to the .env file")
	flagSet.BoolVar(&dev, "dev", false, "human readable debug logging")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	baseLogger, err := newLogger(dev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zl := logger.NewZapLogger(baseLogger.Sugar())

	cfg, err := config.Load(os.LookupEnv, baseLogger.Named("config"))
	if err != nil {
		return err
	}

	keyMode, err := history.ParseKeyMode(cfg.ConvoMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// IN-MEMORY STATE
	// =========================================================================

	historyBucket := history.NewBucket(cfg.ConvoRetention)
	tokenBucket := featuretoken.NewBucket(cfg.ImageUserTokens, cfg.ImageTokenLifespan,
		featuretoken.WithOnExpire(func(t *featuretoken.Token) {
			baseLogger.Debug("image token expired", zap.String("user_id", t.UserID))
		}),
	)

	// =========================================================================
	// CLIENTS
	// =========================================================================

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("init telegram bot: %w", err)
	}
	api.Debug = dev

	openAIClient := ai.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	aiService := ai.NewService(openAIClient, ai.Options{
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		ImageModel:   cfg.ImageModel,
	}, baseLogger.Named("ai"))

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	errInfra := error_notificator.NewInfra(api, api.Self.UserName, cfg.AdminChatIDs)
	errService := error_notificator.NewService(errInfra, baseLogger.Named("notificator"))

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	opts := []bot.Option{bot.WithNotifier(errService)}
	if cfg.S3.Enabled() {
		s3Client, err := infra.NewS3Client(ctx, infra.S3Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
		})
		if err != nil {
			return fmt.Errorf("init s3: %w", err)
		}
		opts = append(opts, bot.WithArchive(domain.NewImageArchive(s3Client)))
	}

	botService := bot.NewService(bot.Config{
		Self:                  telegram.Identity(api),
		KeyMode:               keyMode,
		SystemPrompt:          cfg.SystemPrompt,
		AutoEngageProbability: cfg.AutoEngageProbability,
		AutoEngageMinMessages: cfg.AutoEngageMinMessages,
		AutoReactProbability:  cfg.AutoReactProbability,
		ImageFeature:          cfg.ImageFeature,
		ImageTag:              cfg.ImageTag,
		PageLimit:             telegram.MaxMessageLength,
	}, historyBucket, tokenBucket, aiService, baseLogger.Named("bot"), opts...)

	botApp := telegram.NewBotApp(api, botService, baseLogger.Named("telegram"))

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	adminHandler := delivery.NewAdminHandler(historyBucket, tokenBucket, zl)
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           delivery.NewRouter(adminHandler, cfg.AdminToken),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// =========================================================================
	// RUN
	// =========================================================================

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return historyBucket.Run(gctx) })
	g.Go(func() error { return tokenBucket.Run(gctx) })
	g.Go(func() error { return botApp.Run(gctx) })

	g.Go(func() error {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "listening at " + srv.Addr,
			Service: serviceName,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	baseLogger.Info("shutdown complete", zap.Error(err))
	return multierr.Append(err, ignoreClosed(baseLogger.Sync()))
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Sync on a terminal stdout reports EINVAL or ENOTTY.
func ignoreClosed(err error) error {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
