package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/materialhub-backend/pkg/config"
	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate, topic and payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topics := map[string]string{
		"preorders":     cfg.PreOrdersTopic,
		"orders":        cfg.OrdersTopic,
		"notifications": cfg.NotificationTopic,
	}
	for name, topic := range topics {
		if topic == "" {
			return nil, fmt.Errorf("%s topic is required", name)
		}
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	descriptors := []EventDescriptor{
		{enums.EventPreOrderSubmitted, enums.AggregatePreOrder, cfg.PreOrdersTopic, func() any { return &payloads.PreOrderSubmittedEvent{} }},
		{enums.EventPreOrderDecided, enums.AggregatePreOrder, cfg.PreOrdersTopic, func() any { return &payloads.PreOrderDecidedEvent{} }},
		{enums.EventPreOrderPaid, enums.AggregatePreOrder, cfg.PreOrdersTopic, func() any { return &payloads.PreOrderPaidEvent{} }},
		{enums.EventPreOrderDelivered, enums.AggregatePreOrder, cfg.PreOrdersTopic, func() any { return &payloads.PreOrderDeliveredEvent{} }},
		{enums.EventPreOrderCancelled, enums.AggregatePreOrder, cfg.PreOrdersTopic, func() any { return &payloads.PreOrderCancelledEvent{} }},
		{enums.EventPreOrdersOverdue, enums.AggregatePreOrder, cfg.PreOrdersTopic, func() any { return &payloads.PreOrdersOverdueEvent{} }},
		{enums.EventOrderPaid, enums.AggregateOrder, cfg.OrdersTopic, func() any { return &payloads.OrderPaidEvent{} }},
		{enums.EventCashCollected, enums.AggregateDelivery, cfg.OrdersTopic, func() any { return &payloads.CashCollectedEvent{} }},
		{enums.EventNotificationRequested, enums.AggregateNotification, cfg.NotificationTopic, func() any { return &payloads.NotificationRequestedEvent{} }},
	}
	for _, desc := range descriptors {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Topics returns the distinct topics referenced by the registry.
func (r *EventRegistry) Topics() []string {
	seen := map[string]struct{}{}
	var topics []string
	for _, desc := range r.entries {
		if _, ok := seen[desc.Topic]; ok {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	return topics
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
