package config

import (
	"context"
	"fmt"
	"log"

	"github.com/bpay/checkout-system/card-service/application"
	"github.com/bpay/checkout-system/card-service/handlers"
	"github.com/bpay/checkout-system/card-service/infrastructure"
	sharedinfra "github.com/bpay/checkout-system/shared/infrastructure"
	"github.com/bpay/checkout-system/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	CardRepository infrastructure.PostgresCardRepository

	// Use Cases
	IssueCard    *application.IssueCard
	GetCard      *application.GetCard
	CaptureCard  *application.CaptureCard
	FreezeCard   *application.FreezeCard
	UnfreezeCard *application.UnfreezeCard
	CancelCard   *application.CancelCard

	// HTTP Handlers
	CardHandlers *handlers.CardHandlers

	// Event Handlers
	CardEventHandlers *handlers.CardEventHandlers

	// Infrastructure
	EventStore      *sharedinfra.PostgresEventStore
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.CardServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
		tel, telemetryShutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			log.Printf("Failed to initialize telemetry: %v", err)
			// Continue without telemetry rather than failing
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = telemetryShutdown
		}
	}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	deps.DB = db

	// Initialize AWS infrastructure
	snsPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = snsPublisher

	// Every published event is appended to the event stream before it leaves
	// the service
	deps.EventStore = sharedinfra.NewPostgresEventStore(db)
	eventPublisher := sharedinfra.NewStoringPublisher(deps.EventStore, snsPublisher)

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	// Initialize repositories
	deps.CardRepository = *infrastructure.NewPostgresCardRepository(db)

	// Initialize use cases
	deps.IssueCard = application.NewIssueCard(&deps.CardRepository, eventPublisher)
	deps.GetCard = application.NewGetCard(&deps.CardRepository)
	deps.CaptureCard = application.NewCaptureCard(&deps.CardRepository, eventPublisher)
	deps.FreezeCard = application.NewFreezeCard(&deps.CardRepository, eventPublisher)
	deps.UnfreezeCard = application.NewUnfreezeCard(&deps.CardRepository, eventPublisher)
	deps.CancelCard = application.NewCancelCard(&deps.CardRepository, eventPublisher)

	// Initialize handlers
	deps.CardHandlers = handlers.NewCardHandlers(
		deps.GetCard,
		deps.CaptureCard,
		deps.FreezeCard,
		deps.UnfreezeCard,
		deps.CancelCard,
	)
	deps.CardEventHandlers = handlers.NewCardEventHandlers(deps.IssueCard)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
