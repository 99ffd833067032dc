package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/parcel-trip-backend/internal/config"
	"github.com/ignatzorin/parcel-trip-backend/internal/db"
	"github.com/ignatzorin/parcel-trip-backend/internal/domain/valueobject"
	"github.com/ignatzorin/parcel-trip-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/parcel-trip-backend/internal/http/router"
	"github.com/ignatzorin/parcel-trip-backend/internal/infrastructure/messaging"
	"github.com/ignatzorin/parcel-trip-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/parcel-trip-backend/internal/infrastructure/routing"
	"github.com/ignatzorin/parcel-trip-backend/internal/interface/http/handler"
	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
	"github.com/ignatzorin/parcel-trip-backend/internal/service"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/bid"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/shipment"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/trip"
	"github.com/ignatzorin/parcel-trip-backend/internal/usecase/wallet"
	"github.com/ignatzorin/parcel-trip-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	log := logger.Init(cfg.LogLevel, cfg.Env)
	goroutine.SetLogger(log)

	penalties := valueobject.PenaltySchedule{Accepted: cfg.PenaltyRateAccepted, InTransit: cfg.PenaltyRateInTransit}
	if err := penalties.Validate(); err != nil {
		log.Fatalf("main: некорректные ставки штрафов: %v", err)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	store := persistence.NewPostgresStore(dbConn)
	cache := service.NewCacheService(ctx, time.Minute)
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	getShipmentUC := shipment.NewGetShipmentUseCase(store)

	// Реалтайм и уведомления.
	hub := ws.NewHub(ws.AuthorizerFunc(func(ctx context.Context, userID, shipmentID uuid.UUID) bool {
		_, err := getShipmentUC.Execute(ctx, shipmentID, userID)
		return err == nil
	}), log)
	goroutine.SafeGoWithContext(ctx, "ws-hub", hub.Run)

	producer := messaging.NewKafkaProducer(cfg.KafkaBrokers, cfg.NotificationTopic)
	defer func() {
		if err := producer.Close(); err != nil {
			log.WithError(err).Warn("main: ошибка закрытия kafka producer")
		}
	}()

	notifications := service.NewNotificationService(store.Users(), producer, hub, cfg.NotificationQueueSize, log)
	notifications.Start(ctx)

	// Внешние сервисы маршрутов и геокодирования.
	planner := routing.NewPlanner(
		routing.NewOSRMClient(cfg.RouteServiceURL),
		routing.NewNominatimClient(cfg.GeocoderURL, cfg.GeocoderUserAgent),
		cache,
		routing.PlannerConfig{
			RouteTimeout:   cfg.RouteTimeout,
			RouteCacheTTL:  cfg.RouteCacheTTL,
			GeocodeTimeout: cfg.GeocoderTimeout,
		},
		log,
	)

	handlers := httpRouter.Handlers{
		Shipment: handler.NewShipmentHandler(
			shipment.NewCreateShipmentUseCase(store),
			getShipmentUC,
			shipment.NewListMyShipmentsUseCase(store),
			shipment.NewClaimShipmentUseCase(store, notifications),
			shipment.NewConfirmOTPUseCase(store, notifications),
			shipment.NewCancelShipmentUseCase(store, penalties, notifications),
			shipment.NewQuoteCancellationUseCase(store, penalties),
		),
		Bid: handler.NewBidHandler(
			bid.NewCreateBidUseCase(store, notifications),
			bid.NewAcceptBidUseCase(store, notifications),
			bid.NewAcceptInitialPriceUseCase(store, notifications),
			bid.NewRejectBidUseCase(store, notifications),
			bid.NewRejectAllBidsUseCase(store, notifications),
			bid.NewWithdrawBidUseCase(store, notifications),
			bid.NewListShipmentBidsUseCase(store),
			bid.NewListMyBidsUseCase(store),
		),
		Trip: handler.NewTripHandler(
			trip.NewGetTripUseCase(store),
			trip.NewCanModifyUseCase(store),
			trip.NewReleaseTripUseCase(store, notifications),
			trip.NewSearchCorridorUseCase(store, planner, cfg.CorridorThresholdKm, log),
		),
		Geo: handler.NewGeoHandler(planner),
		Wallet: handler.NewWalletHandler(
			wallet.NewGetBalanceUseCase(store),
			wallet.NewTopUpUseCase(store),
			wallet.NewListTransactionsUseCase(store),
		),
		WS:     handler.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(dbConn),
	}

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager, store.Users(), cache)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo("http-shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
