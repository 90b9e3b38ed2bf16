package main

import (
	"eventms/internal/availability"
	eventshandler "eventms/internal/events/handler"
	eventsrepository "eventms/internal/events/repository"
	eventsservice "eventms/internal/events/service"
	eventsvalidator "eventms/internal/events/validator"
	invitationshandler "eventms/internal/invitations/handler"
	invitationsrepository "eventms/internal/invitations/repository"
	invitationsservice "eventms/internal/invitations/service"
	invitationsvalidator "eventms/internal/invitations/validator"
	paymentshandler "eventms/internal/payments/handler"
	paymentsrepository "eventms/internal/payments/repository"
	paymentsservice "eventms/internal/payments/service"
	remindersrepository "eventms/internal/reminders/repository"
	remindersworker "eventms/internal/reminders/worker"
	venueshandler "eventms/internal/venues/handler"
	venuesrepository "eventms/internal/venues/repository"
	venuesservice "eventms/internal/venues/service"
	venuesvalidator "eventms/internal/venues/validator"
	"eventms/pkg/app"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	"eventms/pkg/contracts"
	"eventms/pkg/kafka"
	kafka_config "eventms/pkg/kafka/config"
)

const ServiceName = "eventms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	notifications, err := kafka.NewProducer(kafkaCfg, kafkaCfg.TopicNotifications)
	if err != nil {
		cfg.Log.Fatal("Failed to create notifications producer", "error", err)
	}
	reminderProducer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.TopicReminders)
	if err != nil {
		cfg.Log.Fatal("Failed to create reminders producer", "error", err)
	}

	engine := availability.NewEngine(cfg.DefaultEventDuration)

	eventRepo := eventsrepository.NewMongoEventRepository(cfg)
	lockRepo := eventsrepository.NewVenueLockRepository(cfg)
	venueRepo := venuesrepository.NewMongoVenueRepository(cfg)
	paymentRepo := paymentsrepository.NewMongoPaymentRepository(cfg)
	reminderRepo := remindersrepository.NewMongoReminderRepository(cfg)
	invitationRepo := invitationsrepository.NewMongoInvitationRepository(cfg)

	eventService := eventsservice.NewEventService(
		eventRepo,
		lockRepo,
		engine,
		reminderRepo,
		invitationRepo,
		notifications,
		eventsvalidator.NewEventValidator(cfg.Log),
		cfg,
	)
	venueService := venuesservice.NewVenueService(
		venueRepo,
		eventRepo,
		engine,
		venuesvalidator.NewVenueValidator(cfg.Log),
		cfg,
	)
	paymentService := paymentsservice.NewPaymentService(paymentRepo, eventService, cfg)
	invitationService := invitationsservice.NewInvitationService(
		invitationRepo,
		eventService,
		notifications,
		invitationsvalidator.NewInvitationValidator(cfg.Log),
		cfg,
	)

	reminderWorker := remindersworker.NewWorker(reminderRepo, reminderProducer, cfg)
	reminderWorker.Start()

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	handlers := contracts.HandlerGroup{
		eventshandler.NewEventHandler(eventService, cfg.Log),
		venueshandler.NewVenueHandler(venueService, cfg.Log),
		paymentshandler.NewPaymentHandler(paymentService, cfg.Log),
		invitationshandler.NewInvitationHandler(invitationService, cfg.Log),
	}
	publicHandlers := contracts.HandlerGroup{
		invitationshandler.NewPublicInvitationHandler(invitationService, cfg.Log),
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers, publicHandlers, auth.NewJWTAuthenticator(cfg.JWTSecret))
	serverApp.OnShutdown(reminderWorker)
	serverApp.OnShutdown(stopFunc(func() {
		if err := notifications.Close(); err != nil {
			cfg.Log.Error("Failed to close notifications producer", "error", err)
		}
		if err := reminderProducer.Close(); err != nil {
			cfg.Log.Error("Failed to close reminders producer", "error", err)
		}
	}))
	serverApp.OnShutdown(stopFunc(cfg.Client.GracefulShutdown))
	serverApp.Run()
}

type stopFunc func()

func (f stopFunc) Stop() { f() }
