package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/pkg/errors"
)

// HTTPPaymentGateway implements PaymentGateway against the external
// processor's REST API
type HTTPPaymentGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPPaymentGateway creates a new HTTPPaymentGateway
func NewHTTPPaymentGateway(baseURL, apiKey string, timeout time.Duration) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Charge sends a charge request to the processor
func (g *HTTPPaymentGateway) Charge(ctx context.Context, request *domain.ChargeRequest) (*domain.ChargeResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal charge request")
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build charge request")
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+g.apiKey)
	// Reference doubles as the idempotency key so retries never double charge.
	httpRequest.Header.Set("Idempotency-Key", request.Reference)

	httpResponse, err := g.httpClient.Do(httpRequest)
	if err != nil {
		return nil, errors.Wrap(err, "charge request failed")
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode >= http.StatusInternalServerError {
		return nil, errors.Errorf("processor returned status %d", httpResponse.StatusCode)
	}

	var result domain.ChargeResult
	if err := json.NewDecoder(httpResponse.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to decode charge result")
	}

	return &result, nil
}
