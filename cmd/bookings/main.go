package main

import (
	"nido/internal/bookings/events"
	"nido/internal/bookings/handler"
	"nido/internal/bookings/repository"
	"nido/internal/bookings/service"
	"nido/internal/bookings/validator"
	guestrepository "nido/internal/guests/repository"
	slotrepository "nido/internal/slots/repository"
	"nido/pkg/app"
	"nido/pkg/clock"
	"nido/pkg/config"
	"nido/pkg/kafka"
	kafkaconfig "nido/pkg/kafka/config"
	kafkamiddleware "nido/pkg/kafka/middleware"
)

const ServiceName = "bookings"

// @title Nido Bookings API
// @version 1.0
// @description API documentation for the booking engine microservice.
// @BasePath /
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	bookingService, producer := initServices(cfg)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Warn("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.BookingService, *kafka.Producer) {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewSlotLockRepository(cfg)
	slotRepo := slotrepository.NewMongoSlotRepository(cfg)
	guestRepo := guestrepository.NewMongoGuestRepository(cfg)

	publisher, producer := initPublisher(cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		slotRepo,
		guestRepo,
		bookingValidator,
		publisher,
		cfg,
		clock.System(),
	)

	cfg.Log.Info("Bookings service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, producer
}

// initPublisher wires the booking event stream. Kafka being down degrades to
// a no-op publisher rather than blocking bookings.
func initPublisher(cfg *config.Config) (events.Publisher, *kafka.Producer) {
	kafkaCfg := kafkaconfig.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Warn("Kafka configuration invalid, booking events disabled", "error", err)
		return events.NopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, kafkaCfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, booking events disabled", "error", err)
		return events.NopPublisher{}, nil
	}

	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafkamiddleware.MetricsProducerMiddleware())

	return events.NewKafkaPublisher(producer, cfg.Log), producer
}
