package main

import (
	"nido/internal/guests/handler"
	"nido/internal/guests/repository"
	"nido/internal/guests/service"
	"nido/internal/guests/validator"
	"nido/pkg/app"
	"nido/pkg/config"
)

const ServiceName = "guests"

// @title Nido Guests API
// @version 1.0
// @description API documentation for the guest list and visit ledger microservice.
// @BasePath /
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Guests service")
	guestService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewGuestHandler(guestService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.GuestService {
	guestValidator := validator.NewGuestValidator(cfg.Log)
	guestRepo := repository.NewMongoGuestRepository(cfg)
	guestService := service.NewGuestService(
		guestRepo,
		guestValidator,
		cfg,
	)

	cfg.Log.Info("Guests service initialized", "database", cfg.MongoDatabaseName)
	return guestService
}
