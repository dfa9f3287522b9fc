package main

import (
	"context"

	availabilityrepo "docket/internal/availability/repository"
	clientmeetingshandler "docket/internal/clientmeetings/handler"
	clientmeetingsrepo "docket/internal/clientmeetings/repository"
	clientmeetingsservice "docket/internal/clientmeetings/service"
	"docket/internal/events"
	"docket/internal/health"
	internalmeetingshandler "docket/internal/internalmeetings/handler"
	internalmeetingsrepo "docket/internal/internalmeetings/repository"
	internalmeetingsservice "docket/internal/internalmeetings/service"
	internalmeetingsvalidator "docket/internal/internalmeetings/validator"
	linkshandler "docket/internal/links/handler"
	linksrepo "docket/internal/links/repository"
	linksservice "docket/internal/links/service"
	linksvalidator "docket/internal/links/validator"
	reservationshandler "docket/internal/reservations/handler"
	"docket/internal/reservations/lock"
	reservationsservice "docket/internal/reservations/service"
	reservationsvalidator "docket/internal/reservations/validator"
	"docket/internal/slots"
	"docket/pkg/app"
	"docket/pkg/clock"
	"docket/pkg/config"
	mongotx "docket/pkg/db/mongo"
	"docket/pkg/sealer"
)

const ServiceName = "meetings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.ReservationLockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Meetings service")
	clk := clock.System()

	linkSealer := newSealer(cfg)
	publisher, metrics, err := events.FromConfig(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	locker, err := lock.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize reservation lock", "error", err)
	}

	linkRepo := linksrepo.NewMongoBookingLinkRepository(cfg)
	clientMeetingRepo := clientmeetingsrepo.NewMongoClientMeetingRepository(cfg)
	internalMeetingRepo := internalmeetingsrepo.NewMongoInternalMeetingRepository(cfg)

	generator := slots.NewGenerator(slots.Sources{
		Templates:        availabilityrepo.NewMongoAvailabilityRepository(cfg),
		Exceptions:       availabilityrepo.NewMongoExceptionRepository(cfg),
		ClientMeetings:   clientMeetingRepo,
		InternalMeetings: internalMeetingRepo,
	}, clk, cfg)

	linkService := linksservice.NewBookingLinkService(
		linkRepo,
		linksvalidator.NewBookingLinkValidator(cfg.Log),
		linkSealer,
		publisher,
		clk,
		cfg,
	)
	reservationService := reservationsservice.NewReservationService(reservationsservice.Deps{
		Links:        linkService,
		LinkStore:    linkRepo,
		Meetings:     clientMeetingRepo,
		Slots:        generator,
		Locker:       locker,
		Transactions: mongotx.NewTransactionManager(cfg.Client.Mongo),
		Publisher:    publisher,
	}, reservationsvalidator.NewReservationValidator(cfg.Log), clk, cfg)
	clientMeetingService := clientmeetingsservice.NewClientMeetingService(clientMeetingRepo, publisher, clk, cfg)
	internalMeetingService := internalmeetingsservice.NewInternalMeetingService(
		internalMeetingRepo,
		internalmeetingsvalidator.NewInternalMeetingValidator(cfg.Log),
		publisher,
		clk,
		cfg,
	)
	cfg.Log.Info("Meetings services initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.ReservationLockBackend,
	)

	healthHandler := health.NewHandler(cfg.Client.Mongo, cfg.Log)
	if metrics != nil {
		healthHandler.WithEventMetrics(metrics)
	}
	if cfg.Client.Redis != nil {
		healthHandler.AddCheck("redis", func(ctx context.Context) error {
			return cfg.Client.Redis.Ping(ctx).Err()
		})
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		healthHandler,
		[]string{reservationshandler.BookingPrefix},
		linkshandler.NewBookingLinkHandler(linkService, cfg.Log),
		reservationshandler.NewReservationHandler(reservationService, cfg.Log),
		clientmeetingshandler.NewClientMeetingHandler(clientMeetingService, cfg.Log),
		internalmeetingshandler.NewInternalMeetingHandler(internalMeetingService, cfg.Log),
	)
	serverApp.OnShutdown(publisher)
	serverApp.Run()
}

// newSealer uses BOOKING_LINK_SECRET; without it tokens are sealed with an
// ephemeral key and stop resolving after a restart.
func newSealer(cfg *config.Config) *sealer.Sealer {
	if cfg.BookingLinkSecret == "" {
		cfg.Log.Warn("BOOKING_LINK_SECRET not set, using an ephemeral key")
		s, err := sealer.Random()
		if err != nil {
			cfg.Log.Fatal("Failed to create booking link sealer", "error", err)
		}
		return s
	}

	s, err := sealer.FromBase64(cfg.BookingLinkSecret)
	if err != nil {
		cfg.Log.Fatal("Invalid BOOKING_LINK_SECRET", "error", err)
	}
	return s
}
