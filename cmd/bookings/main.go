package main

import (
	"driveshare/internal/bookings/handler"
	"driveshare/internal/bookings/repository"
	"driveshare/internal/bookings/service"
	"driveshare/internal/bookings/validator"
	"driveshare/internal/notifications"
	usersrepo "driveshare/internal/users/repository"
	vehicleshandler "driveshare/internal/vehicles/handler"
	vehiclesrepo "driveshare/internal/vehicles/repository"
	"driveshare/pkg/app"
	"driveshare/pkg/config"
	"driveshare/pkg/contracts"
	"driveshare/pkg/kafka"
	kafka_config "driveshare/pkg/kafka/config"
	kafka_middleware "driveshare/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	notifier, producer := initNotifier(cfg)
	if producer != nil {
		defer producer.Close()
	}

	vehicleRepo := vehiclesrepo.NewMongoVehicleRepository(cfg)
	bookingService := initServices(cfg, vehicleRepo, notifier)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, contracts.Handlers{
		handler.NewBookingHandler(bookingService, cfg.Log),
		vehicleshandler.NewVehicleHandler(vehicleRepo, cfg.Log),
	})
	serverApp.Run()
}

func initNotifier(cfg *config.Config) (notifications.Notifier, *kafka.Producer) {
	kafkaCfg := kafka_config.Load()

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, booking events disabled", "error", err)
		return notifications.NoopNotifier{}, nil
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())

	cfg.Log.Info("Booking event producer initialized", "topic", cfg.BookingEventsTopic)
	return notifications.NewKafkaNotifier(producer, cfg.Log), producer
}

func initServices(cfg *config.Config, vehicleRepo vehiclesrepo.VehicleRepository, notifier notifications.Notifier) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewVehicleLockRepository(cfg)
	userRepo := usersrepo.NewMongoUserRepository(cfg)

	bookingService := service.NewBookingService(
		cfg,
		bookingRepo,
		lockRepo,
		vehicleRepo,
		userRepo,
		bookingValidator,
		notifier,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
