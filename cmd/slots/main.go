package main

import (
	"nido/internal/slots/handler"
	"nido/internal/slots/repository"
	"nido/internal/slots/service"
	"nido/internal/slots/validator"
	"nido/pkg/app"
	"nido/pkg/clock"
	"nido/pkg/config"
)

const ServiceName = "slots"

// @title Nido Slots API
// @version 1.0
// @description API documentation for the availability slots microservice.
// @BasePath /
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Slots service")
	slotService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewSlotHandler(slotService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.SlotService {
	slotValidator := validator.NewSlotValidator(cfg.Log)
	slotRepo := repository.NewMongoSlotRepository(cfg)
	slotService := service.NewSlotService(
		slotRepo,
		slotValidator,
		cfg,
		clock.System(),
	)

	cfg.Log.Info("Slots service initialized", "database", cfg.MongoDatabaseName)
	return slotService
}
