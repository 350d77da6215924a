package domain

import (
	"time"

	"github.com/bpay/checkout-system/shared/events"
	"github.com/bpay/checkout-system/shared/models"
)

// GatewayOperationType represents the type of gateway operation
type GatewayOperationType string

const (
	GatewayOperationTypeCharge   GatewayOperationType = "charge"
	GatewayOperationTypeRefund   GatewayOperationType = "refund"
	GatewayOperationTypeReversal GatewayOperationType = "reversal"
)

// GatewayOperationStatus represents the status of a gateway operation
type GatewayOperationStatus string

const (
	GatewayOperationStatusPending    GatewayOperationStatus = "pending"
	GatewayOperationStatusProcessing GatewayOperationStatus = "processing"
	GatewayOperationStatusCompleted  GatewayOperationStatus = "completed"
	GatewayOperationStatusFailed     GatewayOperationStatus = "failed"
)

// GatewayOperation tracks one attempt against the external payment processor
// for a checkout
type GatewayOperation struct {
	ID                    models.ID              `json:"id"`
	CheckoutID            models.ID              `json:"checkout_id"`
	Type                  GatewayOperationType   `json:"type"`
	Status                GatewayOperationStatus `json:"status"`
	Amount                models.Money           `json:"amount"`
	Provider              string                 `json:"provider"`
	ProviderTransactionID string                 `json:"provider_transaction_id"`
	ErrorCode             string                 `json:"error_code,omitempty"`
	ErrorMessage          string                 `json:"error_message,omitempty"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
	Timestamps            models.Timestamps      `json:"timestamps"`
	Version               models.Version         `json:"version"`

	events []*events.Event
}

// NewGatewayOperation creates a new gateway operation
func NewGatewayOperation(
	checkoutID models.ID,
	operationType GatewayOperationType,
	amount models.Money,
	provider string,
) *GatewayOperation {
	operation := &GatewayOperation{
		ID:         models.GenerateUUID(),
		CheckoutID: checkoutID,
		Type:       operationType,
		Status:     GatewayOperationStatusPending,
		Amount:     amount,
		Provider:   provider,
		Metadata:   make(map[string]interface{}),
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}

	event := events.NewEvent(operation.ID, events.GatewayOperationCreatedEvent, GatewayOperationCreatedData{
		OperationID: operation.ID,
		CheckoutID:  operation.CheckoutID,
		Type:        operation.Type,
		Amount:      operation.Amount,
		Provider:    operation.Provider,
	})

	operation.recordEvent(event)
	return operation
}

// Process marks the operation as processing
func (op *GatewayOperation) Process() {
	op.Status = GatewayOperationStatusProcessing
	op.Timestamps = op.Timestamps.Update()
	op.Version = op.Version.Update()

	event := events.NewEvent(op.ID, events.GatewayOperationProcessingEvent, GatewayOperationProcessingData{
		OperationID: op.ID,
		CheckoutID:  op.CheckoutID,
	})

	op.recordEvent(event)
}

// Complete marks the operation as completed
func (op *GatewayOperation) Complete(providerTransactionID string) {
	op.Status = GatewayOperationStatusCompleted
	op.ProviderTransactionID = providerTransactionID
	op.Timestamps = op.Timestamps.Update()
	op.Version = op.Version.Update()

	event := events.NewEvent(op.ID, events.GatewayOperationCompletedEvent, GatewayOperationCompletedData{
		OperationID:           op.ID,
		CheckoutID:            op.CheckoutID,
		Type:                  op.Type,
		Amount:                op.Amount,
		ProviderTransactionID: op.ProviderTransactionID,
		CompletedAt:           time.Now(),
	})

	op.recordEvent(event)
}

// Fail marks the operation as failed
func (op *GatewayOperation) Fail(errorCode, errorMessage string) {
	op.Status = GatewayOperationStatusFailed
	op.ErrorCode = errorCode
	op.ErrorMessage = errorMessage
	op.Timestamps = op.Timestamps.Update()
	op.Version = op.Version.Update()

	event := events.NewEvent(op.ID, events.GatewayOperationFailedEvent, GatewayOperationFailedData{
		OperationID:  op.ID,
		CheckoutID:   op.CheckoutID,
		Type:         op.Type,
		Amount:       op.Amount,
		ErrorCode:    op.ErrorCode,
		ErrorMessage: op.ErrorMessage,
		FailedAt:     time.Now(),
	})

	op.recordEvent(event)
}

// Events returns domain events
func (op *GatewayOperation) Events() []*events.Event {
	return op.events
}

// ClearEvents clears domain events
func (op *GatewayOperation) ClearEvents() {
	op.events = make([]*events.Event, 0)
}

// recordEvent records a domain event
func (op *GatewayOperation) recordEvent(event *events.Event) {
	op.events = append(op.events, event)
}

// Event Data Structures
type GatewayOperationCreatedData struct {
	OperationID models.ID            `json:"operation_id"`
	CheckoutID  models.ID            `json:"checkout_id"`
	Type        GatewayOperationType `json:"type"`
	Amount      models.Money         `json:"amount"`
	Provider    string               `json:"provider"`
}

type GatewayOperationProcessingData struct {
	OperationID models.ID `json:"operation_id"`
	CheckoutID  models.ID `json:"checkout_id"`
}

type GatewayOperationCompletedData struct {
	OperationID           models.ID            `json:"operation_id"`
	CheckoutID            models.ID            `json:"checkout_id"`
	Type                  GatewayOperationType `json:"type"`
	Amount                models.Money         `json:"amount"`
	ProviderTransactionID string               `json:"provider_transaction_id"`
	CompletedAt           time.Time            `json:"completed_at"`
}

type GatewayOperationFailedData struct {
	OperationID  models.ID            `json:"operation_id"`
	CheckoutID   models.ID            `json:"checkout_id"`
	Type         GatewayOperationType `json:"type"`
	Amount       models.Money         `json:"amount"`
	ErrorCode    string               `json:"error_code"`
	ErrorMessage string               `json:"error_message"`
	FailedAt     time.Time            `json:"failed_at"`
}
