package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/materialhub-backend/pkg/stripe"
)

// Metadata keys stamped on every intent so webhooks can find the target.
const (
	MetadataTargetKind = "target_kind"
	MetadataTargetID   = "target_id"
)

const intentStatusSucceeded = string(stripe.PaymentIntentStatusSucceeded)

// Intent is the gateway's view of a payment attempt.
type Intent struct {
	ID           string
	Status       string
	Amount       int64
	Currency     string
	ClientSecret string
	Metadata     map[string]string
}

func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == intentStatusSucceeded
}

// Target returns the kind and id stamped in the intent metadata.
func (i *Intent) Target() (enums.PaymentTargetKind, uuid.UUID, error) {
	if i == nil {
		return "", uuid.Nil, errors.New("intent missing")
	}
	kind, err := enums.ParsePaymentTargetKind(i.Metadata[MetadataTargetKind])
	if err != nil {
		return "", uuid.Nil, err
	}
	id, err := uuid.Parse(i.Metadata[MetadataTargetID])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid target id: %w", err)
	}
	return kind, id, nil
}

type CreateIntentRequest struct {
	Kind     enums.PaymentTargetKind
	TargetID uuid.UUID
	Amount   decimal.Decimal
}

// Gateway creates and reads payment intents.
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

type stripeGateway struct {
	currency string
	timeout  time.Duration
	create   func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	get      func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewStripeGateway serves intents from Stripe using the client's currency and timeout.
func NewStripeGateway(client *pkgstripe.Client) (Gateway, error) {
	if client == nil {
		return nil, errors.New("stripe client required")
	}
	return &stripeGateway{
		currency: client.Currency(),
		timeout:  client.Timeout(),
		create:   paymentintent.New,
		get:      paymentintent.Get,
	}, nil
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	amount, err := minorUnits(req.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment amount")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataTargetKind, string(req.Kind))
	params.AddMetadata(MetadataTargetID, req.TargetID.String())

	pi, err := g.create(params)
	if err != nil {
		return nil, gatewayError(ctx, err, "create payment intent")
	}
	return IntentFromStripe(pi), nil
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.get(id, params)
	if err != nil {
		return nil, gatewayError(ctx, err, "retrieve payment intent")
	}
	return IntentFromStripe(pi), nil
}

func gatewayError(ctx context.Context, err error, action string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment gateway timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment gateway error: "+action)
}

// minorUnits converts a decimal amount to the smallest currency unit.
func minorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2).Round(0)
	if !minor.IsPositive() {
		return 0, fmt.Errorf("amount %s must be positive", amount.String())
	}
	return minor.IntPart(), nil
}

// IntentFromStripe converts a Stripe payment intent, as found in webhook payloads.
func IntentFromStripe(pi *stripe.PaymentIntent) *Intent {
	if pi == nil {
		return nil
	}
	return &Intent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
	}
}
