package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/payloads"
)

type fakeMarker struct {
	seen     map[string]bool
	err      error
	released []string
}

func (f *fakeMarker) CheckAndMarkProcessed(ctx context.Context, consumer, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[id] {
		return true, nil
	}
	f.seen[id] = true
	return false, nil
}

func (f *fakeMarker) Release(ctx context.Context, consumer, id string) error {
	delete(f.seen, id)
	f.released = append(f.released, id)
	return nil
}

type noopSource struct{}

func (noopSource) Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error {
	return nil
}

func notificationMessage(t *testing.T, eventID string, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: eventID, OccurredAt: time.Now().UTC(), Data: raw})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-1",
		Data:       body,
		Attributes: map[string]string{"event_type": string(enums.EventNotificationRequested)},
	}
}

func TestConsumerStoresOnceAndDedupes(t *testing.T) {
	var stored []*models.Notification
	repo := &fakeRepository{createFn: func(ctx context.Context, n *models.Notification) error {
		stored = append(stored, n)
		return nil
	}}
	marker := &fakeMarker{}
	consumer, err := NewConsumer(repo, noopSource{}, marker, testLogger())
	require.NoError(t, err)

	userID := uuid.New()
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		UserID:  userID,
		Type:    enums.NotificationTypePreOrderPayment,
		Message: "Pre-order for cement was paid",
	})

	assert.True(t, consumer.process(context.Background(), msg))
	assert.True(t, consumer.process(context.Background(), msg))
	require.Len(t, stored, 1)
	assert.Equal(t, userID, stored[0].UserID)
}

func TestConsumerAcksIrrelevantOrMalformed(t *testing.T) {
	consumer, err := NewConsumer(&fakeRepository{}, noopSource{}, &fakeMarker{}, testLogger())
	require.NoError(t, err)

	other := &pubsub.Message{Attributes: map[string]string{"event_type": string(enums.EventOrderPaid)}}
	assert.True(t, consumer.process(context.Background(), other))

	garbage := &pubsub.Message{Data: []byte("not json"), Attributes: map[string]string{"event_type": string(enums.EventNotificationRequested)}}
	assert.True(t, consumer.process(context.Background(), garbage))

	badID := notificationMessage(t, "not-a-uuid", payloads.NotificationRequestedEvent{})
	assert.True(t, consumer.process(context.Background(), badID))
}

func TestConsumerNacksAndReleasesOnStoreFailure(t *testing.T) {
	repo := &fakeRepository{createFn: func(ctx context.Context, n *models.Notification) error {
		return errors.New("insert failed")
	}}
	marker := &fakeMarker{}
	consumer, err := NewConsumer(repo, noopSource{}, marker, testLogger())
	require.NoError(t, err)

	eventID := uuid.NewString()
	msg := notificationMessage(t, eventID, payloads.NotificationRequestedEvent{
		UserID:  uuid.New(),
		Type:    enums.NotificationTypeOrderDelivery,
		Message: "delivered",
	})
	assert.False(t, consumer.process(context.Background(), msg))
	assert.Equal(t, []string{eventID}, marker.released)
}

func TestConsumerNacksWhenIdempotencyUnavailable(t *testing.T) {
	consumer, err := NewConsumer(&fakeRepository{}, noopSource{}, &fakeMarker{err: errors.New("redis down")}, testLogger())
	require.NoError(t, err)
	msg := notificationMessage(t, uuid.NewString(), payloads.NotificationRequestedEvent{
		UserID:  uuid.New(),
		Type:    enums.NotificationTypeOrderDelivery,
		Message: "delivered",
	})
	assert.False(t, consumer.process(context.Background(), msg))
}
