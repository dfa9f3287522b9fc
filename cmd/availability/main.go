package main

import (
	availabilityhandler "docket/internal/availability/handler"
	availabilityrepo "docket/internal/availability/repository"
	availabilityservice "docket/internal/availability/service"
	availabilityvalidator "docket/internal/availability/validator"
	clientmeetingsrepo "docket/internal/clientmeetings/repository"
	"docket/internal/health"
	internalmeetingsrepo "docket/internal/internalmeetings/repository"
	"docket/internal/slots"
	slotshandler "docket/internal/slots/handler"
	"docket/pkg/app"
	"docket/pkg/clock"
	"docket/pkg/config"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Availability service")
	clk := clock.System()

	availabilityRepo := availabilityrepo.NewMongoAvailabilityRepository(cfg)
	exceptionRepo := availabilityrepo.NewMongoExceptionRepository(cfg)
	availabilityService := availabilityservice.NewAvailabilityService(
		availabilityRepo,
		exceptionRepo,
		availabilityvalidator.NewAvailabilityValidator(cfg.Log),
		clk,
		cfg,
	)

	generator := slots.NewGenerator(slots.Sources{
		Templates:        availabilityRepo,
		Exceptions:       exceptionRepo,
		ClientMeetings:   clientmeetingsrepo.NewMongoClientMeetingRepository(cfg),
		InternalMeetings: internalmeetingsrepo.NewMongoInternalMeetingRepository(cfg),
	}, clk, cfg)
	cfg.Log.Info("Availability services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		health.NewHandler(cfg.Client.Mongo, cfg.Log),
		nil,
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		slotshandler.NewSlotHandler(generator, cfg.Log),
	)
	serverApp.Run()
}
