package app

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs-lzh/hotel-management/config"
	"github.com/qs-lzh/hotel-management/internal/auth"
	"github.com/qs-lzh/hotel-management/internal/cache"
	"github.com/qs-lzh/hotel-management/internal/mq"
	"github.com/qs-lzh/hotel-management/internal/repository"
	"github.com/qs-lzh/hotel-management/internal/service/domain"
	"github.com/qs-lzh/hotel-management/internal/service/workflow"
)

type App struct {
	Config *config.Config

	// DB is nil when the in-memory store is used.
	DB       *gorm.DB
	Store    repository.Store
	Cache    *cache.RedisCache
	Logger   *zap.Logger
	MQConn   *amqp.Connection
	Producer *mq.Producer
	Tokens   *auth.TokenManager

	AccountService    domain.AccountService
	SessionService    domain.SessionService
	HotelService      domain.HotelService
	RoomService       domain.RoomService
	ManagementService domain.ManagementService
	BookingService    domain.BookingService

	BookingWorkflow      *workflow.BookingWorkflow
	NotificationWorkflow *workflow.NotificationWorkflow
}

// New wires the services. cache and mqConn are optional.
func New(config *config.Config, logger *zap.Logger, db *gorm.DB, store repository.Store, redisCache *cache.RedisCache, mqConn *amqp.Connection) *App {
	var (
		locker   domain.RoomLocker
		denylist domain.TokenDenylist
	)
	if redisCache != nil {
		locker = redisCache
		denylist = redisCache
	}

	tokens := auth.NewTokenManager(config.JWTSecret, config.TokenTTL)
	accountService := domain.NewAccountService(store, auth.NewPasswordHasher(config.BcryptCost), logger)
	sessionService := domain.NewSessionService(store, accountService, tokens, denylist, logger)
	hotelService := domain.NewHotelService(store, logger)
	roomService := domain.NewRoomService(store, logger)
	managementService := domain.NewManagementService(store, logger)
	bookingService := domain.NewBookingService(store, locker, config.RoomLockTTL, logger)

	// The publisher is attached in Init once the exchange exists.
	bookingWorkflow := workflow.NewBookingWorkflow(bookingService, nil, logger)
	notificationWorkflow := workflow.NewNotificationWorkflow(logger)

	return &App{
		Config:               config,
		DB:                   db,
		Store:                store,
		Cache:                redisCache,
		Logger:               logger,
		MQConn:               mqConn,
		Tokens:               tokens,
		AccountService:       accountService,
		SessionService:       sessionService,
		HotelService:         hotelService,
		RoomService:          roomService,
		ManagementService:    managementService,
		BookingService:       bookingService,
		BookingWorkflow:      bookingWorkflow,
		NotificationWorkflow: notificationWorkflow,
	}
}

func (app *App) Init(ctx context.Context) error {
	// init database
	if app.DB != nil {
		if err := repository.Migrate(app.DB); err != nil {
			return err
		}
	}
	if app.Config.AdminUsername != "" {
		if err := app.AccountService.EnsureAdmin(ctx, app.Config.AdminUsername, app.Config.AdminPassword, app.Config.AdminEmail); err != nil {
			return err
		}
	}

	// init rabbit mq
	if app.MQConn == nil {
		app.Logger.Warn("RABBIT_MQ_URL not set, booking events are disabled")
		return nil
	}
	if err := mq.InitQueues(app.MQConn); err != nil {
		return err
	}
	producer, err := mq.NewProducer(app.MQConn, mq.BookingEventsExchange)
	if err != nil {
		return err
	}
	app.Producer = producer
	app.BookingWorkflow.Publisher = producer

	return app.NotificationWorkflow.Start(app.MQConn)
}

func (app *App) Close() error {
	var errs []error
	if app.Producer != nil {
		errs = append(errs, app.Producer.Close())
	}
	if app.MQConn != nil {
		errs = append(errs, app.MQConn.Close())
	}
	if app.Cache != nil {
		errs = append(errs, app.Cache.Close())
	}
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
