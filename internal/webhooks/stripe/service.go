package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/materialhub-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
)

type paymentConfirmer interface {
	HandleIntentSucceeded(ctx context.Context, intent *payments.Intent) error
}

// Service routes verified Stripe events to the payment bridge.
type Service struct {
	payments paymentConfirmer
	logg     *logger.Logger
}

func NewService(confirmer paymentConfirmer, logg *logger.Logger) (*Service, error) {
	if confirmer == nil {
		return nil, errors.New("payment confirmer required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Service{payments: confirmer, logg: logg}, nil
}

// HandleEvent processes payment intent events. Other event types are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		return s.payments.HandleIntentSucceeded(ctx, intent)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodeIntent(event)
		if err != nil {
			return err
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"payment_intent_id": intent.ID,
			"target_kind":       intent.Metadata[payments.MetadataTargetKind],
			"target_id":         intent.Metadata[payments.MetadataTargetID],
		}), "payment intent failed")
		return nil
	default:
		s.logg.Debug(s.logg.WithField(ctx, "stripe_event_type", string(event.Type)), "stripe event ignored")
		return nil
	}
}

func decodeIntent(event *stripe.Event) (*payments.Intent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if pi.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return payments.IntentFromStripe(&pi), nil
}
