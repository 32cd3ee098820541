package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"contest-bot/internal/bot"
	"contest-bot/internal/common/cache"
	"contest-bot/internal/common/config"
	"contest-bot/internal/common/logger"
	"contest-bot/internal/domain/broadcast"
	"contest-bot/internal/domain/channel"
	"contest-bot/internal/domain/contest"
	"contest-bot/internal/domain/setting"
	"contest-bot/internal/domain/user"
	apphttp "contest-bot/internal/http"
	"contest-bot/internal/platform/postgres"
	"contest-bot/internal/platform/redis"
	"contest-bot/internal/platform/telegram"
	"contest-bot/internal/repository/memory"
	pgrepo "contest-bot/internal/repository/postgres"
	"contest-bot/internal/repository/postgres/migrations"
	broadcastsvc "contest-bot/internal/service/broadcast"
	"contest-bot/internal/service/channels"
	contestsvc "contest-bot/internal/service/contest"
	"contest-bot/internal/service/gate"
	"contest-bot/internal/service/ledger"
	"contest-bot/internal/service/settings"
	"contest-bot/internal/service/stats"
	usersvc "contest-bot/internal/service/user"
	"contest-bot/internal/session"
	"contest-bot/internal/workers"
)

// @title           Contest Bot Admin API
// @version         1.0
// @description     Read-only operator API of the channel-gated referral contest bot.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data of an operator listed in ADMIN_IDS

// @tag.name admin
// @tag.description Operator read-only API

const (
	webhookPath     = "/telegram/webhook"
	eventTimeout    = 30 * time.Second
	shutdownTimeout = 30 * time.Second
	botProfileTTL   = 24 * time.Hour
)

type repositories struct {
	users      user.Repository
	channels   channel.Repository
	contests   contest.Repository
	settings   setting.Repository
	broadcasts broadcast.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init("contest-bot", cfg.Debug)
	logger.Info().Str("version", "1.0.0").Bool("debug", cfg.Debug).Msg("Starting contest bot")

	adminIDs, err := cfg.AdminIDList()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid ADMIN_IDS")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid CONTEST_TIMEZONE")
	}
	if len(adminIDs) == 0 {
		logger.Warn().Msg("ADMIN_IDS is empty, admin panel is unreachable")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checks []apphttp.Check

	// Хранилище: Postgres, либо память для локальной разработки
	var repos repositories
	if cfg.PostgresEnabled() {
		pg, err := postgres.NewClient(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pg.Close()

		if cfg.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx, migrations.FS); err != nil {
				logger.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		}

		db := pg.GetDB()
		repos = repositories{
			users:      pgrepo.NewUserRepository(db),
			channels:   pgrepo.NewChannelRepository(db),
			contests:   pgrepo.NewContestRepository(db),
			settings:   pgrepo.NewSettingRepository(db),
			broadcasts: pgrepo.NewBroadcastRepository(db),
		}
		checks = append(checks, apphttp.Check{Name: "postgres", Fn: pg.HealthCheck})
	} else {
		logger.Warn().Msg("DATABASE_URL is not set, using in-memory storage")
		repos = repositories{
			users:      memory.NewUserRepository(),
			channels:   memory.NewChannelRepository(),
			contests:   memory.NewContestRepository(),
			settings:   memory.NewSettingRepository(),
			broadcasts: memory.NewBroadcastRepository(),
		}
	}

	var (
		sessions session.Store
		cacheSvc *cache.CacheService
		rdb      *redis.Client
	)
	if cfg.RedisEnabled() {
		rdb, err = redis.Open(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		sessions = session.NewRedisStore(rdb.Client, cfg.Redis.SessionTTL, cfg.Redis.LockTTL)
		cacheSvc = cache.NewCacheService(rdb.Client)
		checks = append(checks, apphttp.Check{Name: "redis", Fn: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		logger.Warn().Msg("REDIS_HOST is not set, sessions are kept in memory")
		sessions = session.NewMemoryStore(cfg.Redis.SessionTTL)
	}

	tg := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.RequestTimeout)

	var me telegram.User
	err = cacheSvc.GetOrSet(ctx, cache.KeyBotProfile, &me, botProfileTTL, func() (interface{}, error) {
		return tg.GetMe(ctx)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to resolve bot profile")
	}
	logger.Info().Str("username", me.Username).Int64("bot_id", me.ID).Msg("Bot profile resolved")

	// Сервисы
	ldg := ledger.New(repos.users)
	userSvc := usersvc.NewService(repos.users, ldg, cfg.Points.PerReferral)
	channelSvc := channels.NewService(repos.channels, tg, cacheSvc)
	contestSvc := contestsvc.NewService(repos.contests, loc)
	settingsSvc := settings.NewService(repos.settings)
	statsSvc := stats.NewService(userSvc, channelSvc, contestSvc)
	gt := gate.New(tg, channelSvc, gate.Config{
		Timeout:     cfg.Gate.Timeout,
		Concurrency: cfg.Gate.Concurrency,
	})

	engine := broadcastsvc.NewEngine(tg, repos.broadcasts, broadcastsvc.Config{
		RatePerSecond: cfg.Broadcast.RatePerSecond,
		Workers:       cfg.Broadcast.Workers,
		SendTimeout:   cfg.Broadcast.SendTimeout,
	})
	runner := broadcastsvc.NewRunner(ctx, engine, bot.BroadcastReport(tg, cfg.Telegram.RequestTimeout))

	machine := bot.NewMachine(bot.Deps{
		Sessions: sessions,
		Users:    userSvc,
		Ledger:   ldg,
		Gate:     gt,
		Channels: channelSvc,
		Contests: contestSvc,
		Settings: settingsSvc,
		Stats:    statsSvc,
		Runner:   runner,
	}, bot.Config{
		AdminIDs:          adminIDs,
		BotUsername:       me.Username,
		PerReferral:       cfg.Points.PerReferral,
		SubscriptionBonus: cfg.Points.SubscriptionBonus,
	})
	dispatcher := bot.NewDispatcher(ctx, machine, tg, eventTimeout)

	// Удаление бота из канала: через Redis stream, если он есть
	var events bot.ChatEvents
	if rdb != nil {
		events = workers.NewStreamPublisher(rdb.Client)
		go workers.NewRedisStreamWorker(rdb.Client, channelSvc).Start(ctx)
	} else {
		events = workers.NewDirectEvents(channelSvc)
	}
	router := bot.NewRouter(dispatcher, events)

	handler := apphttp.NewRouter(apphttp.Deps{
		Updates:    router,
		Stats:      statsSvc,
		Rating:     userSvc,
		Broadcasts: repos.broadcasts,
		Checks:     checks,
	}, apphttp.Options{
		Debug:         cfg.Debug,
		Origins:       cfg.Server.Origins,
		BotToken:      cfg.Telegram.BotToken,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		AdminIDs:      adminIDs,
		InitDataTTL:   cfg.Telegram.InitDataTTL,
	})
	server := apphttp.NewServer(cfg.Server.Port, handler)

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	if cfg.Telegram.WebhookURL != "" {
		url := strings.TrimRight(cfg.Telegram.WebhookURL, "/") + webhookPath
		if err := tg.SetWebhook(ctx, url, cfg.Telegram.WebhookSecret); err != nil {
			logger.Fatal().Err(err).Msg("Failed to register webhook")
		}
		logger.Info().Str("url", url).Msg("Webhook registered")
	} else {
		go func() {
			if err := workers.NewPoller(tg, router.Route, 0).Run(ctx); err != nil {
				logger.Error().Err(err).Msg("Long polling stopped")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	dispatcher.Wait()
	runner.Wait()

	logger.Info().Msg("Server exited")
}
