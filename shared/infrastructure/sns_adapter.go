package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/bpay/checkout-system/shared/events"
	"github.com/pkg/errors"
)

// SNSPublisherAdapter wires an SNSEventPublisher behind the events.Publisher
// interface with default AWS config loading
type SNSPublisherAdapter struct {
	snsPublisher *SNSEventPublisher
}

// NewSNSPublisherAdapter creates a new SNS publisher adapter. Works with
// LocalStack when AWS_ENDPOINT_URL is set.
func NewSNSPublisherAdapter(topicArn string) (*SNSPublisherAdapter, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	snsClient := sns.NewFromConfig(cfg)

	return &SNSPublisherAdapter{
		snsPublisher: NewSNSEventPublisher(snsClient, topicArn),
	}, nil
}

// Publish implements the events.Publisher interface
func (p *SNSPublisherAdapter) Publish(ctx context.Context, evts ...*events.Event) error {
	return p.snsPublisher.Publish(ctx, evts...)
}

// Close closes the publisher
func (p *SNSPublisherAdapter) Close() error {
	// The SNS client does not need explicit closing.
	return nil
}
