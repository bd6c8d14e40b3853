// Command server runs the reminder engine: the scheduler loop, the delivery
// event worker, and the webhook HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"docwatch/internal/platform/config"
	"docwatch/internal/platform/httpserver"
	"docwatch/internal/platform/logger"
	platformpg "docwatch/internal/platform/postgres"
	platformredis "docwatch/internal/platform/redis"
	"docwatch/internal/reminder/callbacktoken"
	"docwatch/internal/reminder/confirm"
	"docwatch/internal/reminder/dispatch"
	"docwatch/internal/reminder/events"
	"docwatch/internal/reminder/handler"
	"docwatch/internal/reminder/scheduler"
	"docwatch/internal/reminder/store"
	memorystore "docwatch/internal/reminder/store/memory"
	pgstore "docwatch/internal/reminder/store/postgres"
	"docwatch/internal/reminder/transport"
)

const eventBufferSize = 256

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	documents, recipients, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}

	redisClient, err := platformredis.New(ctx, cfg.Storage.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, worker, kafkaStore, err := buildEvents(ctx, cfg, log)
	if err != nil {
		return err
	}
	if kafkaStore != nil {
		defer kafkaStore.Close()
	}

	signer := callbacktoken.New(cfg.Server.CallbackSigningKey, cfg.Server.CallbackTokenTTL)
	httpClient := &http.Client{Timeout: cfg.Reminder.TransportTimeout}

	var renderer dispatch.Renderer
	if cfg.Transports.RendererURL != "" {
		renderer = transport.NewHTTPRenderer(cfg.Transports.RendererURL, httpClient)
	}

	var chatSender dispatch.ChatSender = transport.LogChatSender{Logger: log}
	if cfg.Transports.ChatWebhookURL != "" {
		chatSender = transport.NewChatGateway(cfg.Transports.ChatWebhookURL, httpClient)
	}
	var smsSender dispatch.SMSSender = transport.LogSMSSender{Logger: log}
	if cfg.Transports.SMSGatewayURL != "" {
		smsSender = transport.NewSMSGateway(cfg.Transports.SMSGatewayURL, httpClient)
	}
	var voiceCaller dispatch.VoiceCaller = transport.LogVoiceCaller{Logger: log}
	if cfg.Transports.VoiceGatewayURL != "" {
		voiceCaller = transport.NewVoiceGateway(cfg.Transports.VoiceGatewayURL, httpClient)
	}

	chat := dispatch.NewChat(renderer, chatSender, log,
		cfg.Reminder.RenderTimeout, cfg.Reminder.TransportTimeout)
	sms := dispatch.NewSMS(renderer, smsSender, log,
		cfg.Reminder.RenderTimeout, cfg.Reminder.TransportTimeout)
	voice := dispatch.NewVoice(renderer, voiceCaller, signer, log, dispatch.VoiceConfig{
		CompanyName:      cfg.Reminder.CompanyName,
		CallbackBaseURL:  cfg.Server.CallbackBaseURL,
		Interactive:      cfg.Reminder.VoicePolicy == config.VoiceInteractive,
		RenderTimeout:    cfg.Reminder.RenderTimeout,
		TransportTimeout: cfg.Reminder.TransportTimeout,
	})

	engineOpts := []scheduler.Option{scheduler.WithEventPublisher(publisher)}
	if redisClient != nil {
		lockTTL := cfg.Reminder.TickInterval / 2
		engineOpts = append(engineOpts,
			scheduler.WithTickLock(scheduler.NewRedisTickLock(redisClient.Client, lockTTL, log)))
	}
	engine := scheduler.NewEngine(documents, recipients, chat, sms, voice,
		scheduler.Settings{
			ChatThresholdDays:  cfg.Reminder.ChatThresholdDays,
			SMSThresholdDays:   cfg.Reminder.SMSThresholdDays,
			VoiceThresholdDays: cfg.Reminder.VoiceThresholdDays,
			CallRetryInterval:  cfg.Reminder.CallRetryInterval,
			TickInterval:       cfg.Reminder.TickInterval,
			StartupDelay:       cfg.Reminder.StartupDelay,
			FireAndForget:      cfg.Reminder.VoicePolicy == config.VoiceFireAndForget,
		}, log, engineOpts...)

	confirmations := confirm.NewService(documents, log, confirm.WithEventPublisher(publisher))
	server := httpserver.New(cfg.Server.Addr, handler.New(confirmations, signer, log).Router())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return engine.Run(groupCtx)
	})
	group.Go(func() error {
		return worker.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("webhook server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Info("reminder engine started",
		"voice_policy", string(cfg.Reminder.VoicePolicy),
		"tick_interval", cfg.Reminder.TickInterval.String(),
		"postgres", cfg.Storage.PostgresDSN != "",
		"redis", cfg.Storage.RedisURL != "",
		"kafka", len(cfg.Storage.KafkaBrokers) > 0)

	return group.Wait()
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (store.DocumentStore, store.RecipientStore, error) {
	db, err := platformpg.Open(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		log.Info("no postgres dsn configured, ledger runs in memory")
		return memorystore.NewDocumentStore(), memorystore.NewRecipientStore(), nil
	}
	return pgstore.NewDocumentStore(db), pgstore.NewRecipientStore(db), nil
}

func buildEvents(ctx context.Context, cfg config.Config, log *slog.Logger) (events.Publisher, *events.Worker, *events.KafkaStore, error) {
	publisher := events.NewChannelPublisher(eventBufferSize, log)

	if len(cfg.Storage.KafkaBrokers) == 0 {
		log.Info("no kafka brokers configured, delivery events stay in memory")
		worker := events.NewWorker(publisher.Events(), events.NewMemoryStore(), log)
		return publisher, worker, nil, nil
	}

	kafkaStore, err := events.NewKafkaStore(ctx, cfg.Storage.KafkaBrokers, cfg.Storage.KafkaTopic)
	if err != nil {
		return nil, nil, nil, err
	}
	worker := events.NewWorker(publisher.Events(), kafkaStore, log)
	return publisher, worker, kafkaStore, nil
}
