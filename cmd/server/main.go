package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/bot"
	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/db"
	domainrepo "github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/goroutine"
	httpHandlers "github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	httpRouter "github.com/ignatzorin/freelance-escrow/internal/http/router"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/metrics"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/repository/memory"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/syncutil"
	"github.com/ignatzorin/freelance-escrow/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logFormat := "json"
	if !cfg.IsProduction() {
		logFormat = "text"
	}
	logger.Init(cfg.LogLevel, logFormat)

	// Хранилище.
	var (
		store  domainrepo.Store
		dbConn *sqlx.DB
	)
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Log.Warn("main: данные хранятся только в памяти и пропадут при перезапуске")
		store = memory.NewStore().Repositories()
	default:
		dsn := cfg.DatabaseURL
		if cfg.StorageDriver == config.StorageSQLite {
			dsn = cfg.SQLitePath
		}
		dbConn, err = db.Open(ctx, cfg.StorageDriver, dsn)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}
		conn := dbConn.DB
		goroutine.SafeGoWithContext(ctx, "db-stats", func(ctx context.Context) {
			metrics.StartDBStatsCollector(ctx, conn, 15*time.Second)
		})
		store = repository.NewStore(dbConn)
	}

	// События: ядро публикует, подписчики доставляют.
	events := service.NewBroadcaster()
	locks := &syncutil.KeyedMutex{}

	// Сервисы.
	ledgerService := service.NewLedgerService(store, locks, events)
	orderService := service.NewOrderService(store, ledgerService, locks, events)
	requestService := service.NewEscrowRequestService(store, ledgerService, locks, events, cfg.CommissionRate)
	reviewService := service.NewReviewService(store, locks, events)
	accountService := service.NewAccountService(store, locks)
	catalogService := service.NewCatalogService(store)
	statsService := service.NewStatsService(store)
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(store.Accounts, tokenManager, cfg.AdminIDs, cfg.AdminPasswordHash)

	// Вебсокеты.
	hub := ws.NewHub()
	events.Subscribe(hub)
	hub.Start(ctx)

	// Telegram бот.
	if cfg.BotEnabled() {
		tgBot, err := bot.New(cfg.TelegramBotToken, bot.Services{
			Accounts: accountService,
			Ledger:   ledgerService,
			Orders:   orderService,
			Requests: requestService,
			Reviews:  reviewService,
			Catalog:  catalogService,
			Stats:    statsService,
			Auth:     authService,
		}, cfg.Currency)
		if err != nil {
			log.Fatalf("main: не удалось запустить бота: %v", err)
		}
		notifier := bot.NewNotifier(tgBot.Sender(), cfg.Currency, cfg.AdminIDs)
		notifier.Start(ctx)
		events.Subscribe(notifier)

		goroutine.SafeGo("telegram-bot", tgBot.Start)
		defer tgBot.Stop()
	} else {
		logger.Log.Info("main: TELEGRAM_BOT_TOKEN не задан, бот отключён")
	}

	// Истечение заявок и заказов услуг.
	worker := service.NewExpiryWorker(requestService, orderService, cfg.EscrowRequestTTL, cfg.OrderConfirmTTL, cfg.ExpiryScanInterval)
	worker.Start(ctx)

	// HTTP хэндлеры.
	engine := httpRouter.SetupRouter(
		cfg,
		authService,
		httpHandlers.NewHealthHandler(dbConn, cfg.StorageDriver),
		httpHandlers.NewAccountHandler(accountService, ledgerService),
		httpHandlers.NewOrderHandler(orderService),
		httpHandlers.NewCatalogHandler(catalogService, orderService),
		httpHandlers.NewEscrowRequestHandler(requestService),
		httpHandlers.NewReviewHandler(reviewService),
		httpHandlers.NewAdminHandler(authService, orderService, statsService),
		httpHandlers.NewWSHandler(hub, authService, cfg.AllowedOrigins),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGoWithContext(ctx, "http-shutdown", func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
