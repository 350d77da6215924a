package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

// SQSSubscriberAdapter wires an SQSEventSubscriber behind the
// events.Subscriber interface
type SQSSubscriberAdapter struct {
	sqsSubscriber *SQSEventSubscriber
	isRunning     bool
	queueURL      string
}

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter
func NewSQSSubscriberAdapter(queueURL string) (*SQSSubscriberAdapter, error) {
	return &SQSSubscriberAdapter{
		sqsSubscriber: nil, // Created lazily on Subscribe
		isRunning:     false,
		queueURL:      queueURL,
	}, nil
}

// eventHandlerAdapter adapts events.EventHandler to the SQS EventHandler
type eventHandlerAdapter struct {
	handler events.EventHandler
}

func (a *eventHandlerAdapter) HandlerID() string {
	return "event-handler-adapter"
}

func (a *eventHandlerAdapter) Handle(ctx context.Context, event *events.Event) error {
	return a.handler.Handle(ctx, event)
}

// Subscribe implements the events.Subscriber interface. The queue carries all
// event types, so the handler is expected to dispatch on EventType itself.
func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, eventType string, handler events.EventHandler) error {
	if s.isRunning {
		return errors.New("subscriber is already running")
	}

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return errors.Wrap(err, "failed to load AWS config")
	}

	sqsClient := sqs.NewFromConfig(cfg)

	adaptedHandler := &eventHandlerAdapter{handler: handler}

	s.sqsSubscriber = NewSQSEventSubscriber(sqsClient, s.queueURL, adaptedHandler)

	if err := s.sqsSubscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.isRunning = true
	return nil
}

// Close stops the subscriber
func (s *SQSSubscriberAdapter) Close() error {
	if !s.isRunning || s.sqsSubscriber == nil {
		return nil
	}

	ctx := context.Background()
	if err := s.sqsSubscriber.Stop(ctx); err != nil {
		return errors.Wrap(err, "failed to stop SQS subscriber")
	}

	s.isRunning = false
	return nil
}
