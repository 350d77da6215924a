package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bpay/checkout-system/checkout-service/application"
	"github.com/bpay/checkout-system/checkout-service/handlers"
	"github.com/bpay/checkout-system/checkout-service/infrastructure"
	"github.com/bpay/checkout-system/shared/choreography"
	"github.com/bpay/checkout-system/shared/events"
	sharedinfra "github.com/bpay/checkout-system/shared/infrastructure"
	"github.com/bpay/checkout-system/shared/telemetry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	CheckoutRepository infrastructure.PostgresCheckoutRepository

	// Use Cases
	QuoteAllocation       *application.QuoteAllocation
	CreateCheckout        *application.CreateCheckout
	GetCheckout           *application.GetCheckout
	UpdateCheckoutSources *application.UpdateCheckoutSources
	SubmitCheckout        *application.SubmitCheckout
	ReopenCheckout        *application.ReopenCheckout
	HandleGatewayWebhooks *application.HandleGatewayWebhooks
	ProcessGatewayUpdates *application.ProcessGatewayUpdates
	ProcessCardIssued     *application.ProcessCardIssued

	// HTTP Handlers
	CheckoutHandlers *handlers.CheckoutHandlers

	// Event Handlers
	CheckoutEventHandlers *handlers.CheckoutEventHandlers
	EventRouter           *choreography.EventRouter

	// Infrastructure
	EventStore      *sharedinfra.PostgresEventStore
	EventPublisher  *sharedinfra.SNSPublisherAdapter
	EventSubscriber *sharedinfra.SQSSubscriberAdapter
	PaymentGateway  *infrastructure.HTTPPaymentGateway

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize telemetry first
	if config.Telemetry.Enabled {
		telConfig := telemetry.CheckoutServiceConfig.WithOTLPEndpoint(config.Telemetry.OTLPEndpoint)
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
	deps.CheckoutRepository = *infrastructure.NewPostgresCheckoutRepository(db)

	// Initialize the payment gateway client
	deps.PaymentGateway = infrastructure.NewHTTPPaymentGateway(
		config.Gateway.BaseURL,
		config.Gateway.APIKey,
		time.Duration(config.Gateway.TimeoutSeconds)*time.Second,
	)

	// Initialize use cases
	deps.QuoteAllocation = application.NewQuoteAllocation()
	deps.CreateCheckout = application.NewCreateCheckout(&deps.CheckoutRepository, eventPublisher)
	deps.GetCheckout = application.NewGetCheckout(&deps.CheckoutRepository)
	deps.UpdateCheckoutSources = application.NewUpdateCheckoutSources(&deps.CheckoutRepository, eventPublisher)
	deps.SubmitCheckout = application.NewSubmitCheckout(&deps.CheckoutRepository, deps.PaymentGateway, eventPublisher, config.Gateway.Provider)
	deps.ReopenCheckout = application.NewReopenCheckout(&deps.CheckoutRepository, eventPublisher)
	deps.HandleGatewayWebhooks = application.NewHandleGatewayWebhooks(eventPublisher)
	deps.ProcessGatewayUpdates = application.NewProcessGatewayUpdates(&deps.CheckoutRepository, eventPublisher)
	deps.ProcessCardIssued = application.NewProcessCardIssued(&deps.CheckoutRepository, eventPublisher)

	// Initialize handlers
	deps.CheckoutHandlers = handlers.NewCheckoutHandlers(
		deps.QuoteAllocation,
		deps.CreateCheckout,
		deps.GetCheckout,
		deps.UpdateCheckoutSources,
		deps.SubmitCheckout,
		deps.ReopenCheckout,
		deps.HandleGatewayWebhooks,
	)
	deps.CheckoutEventHandlers = handlers.NewCheckoutEventHandlers(
		deps.ProcessGatewayUpdates,
		deps.ProcessCardIssued,
	)

	// Route incoming events through the choreography: the flow reactions
	// advance the checkout saga and the service handlers apply state changes
	router := choreography.NewEventRouter()
	if err := choreography.RegisterCheckoutFlow(router, eventPublisher, config.Gateway.Provider); err != nil {
		return nil, fmt.Errorf("failed to register checkout flow: %w", err)
	}
	if err := router.Register(events.GatewayProviderUpdateEvent, deps.CheckoutEventHandlers); err != nil {
		return nil, fmt.Errorf("failed to register gateway update handler: %w", err)
	}
	if err := router.Register("card.#", deps.CheckoutEventHandlers); err != nil {
		return nil, fmt.Errorf("failed to register card event handler: %w", err)
	}
	deps.EventRouter = router

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
