package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/materialhub-backend/internal/orders"
	"github.com/angelmondragon/materialhub-backend/internal/preorders"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// TargetState is the payment-relevant view of a payable entity.
type TargetState struct {
	TargetID        uuid.UUID
	OwnerID         uuid.UUID
	Amount          decimal.Decimal
	Paid            bool
	PaymentIntentID *string
	// Blocked is non-empty when the entity cannot take a payment in its current state.
	Blocked string
}

// Target is one kind of entity the gateway can settle.
type Target interface {
	Kind() enums.PaymentTargetKind
	PaymentState(ctx context.Context, id uuid.UUID) (*TargetState, error)
	AttachIntent(ctx context.Context, id, ownerID uuid.UUID, intentID string) error
	ApplyPayment(ctx context.Context, id uuid.UUID, intentID string) error
}

type preorderPayments interface {
	PaymentState(ctx context.Context, id uuid.UUID) (*preorders.PaymentState, error)
	AttachPaymentIntent(ctx context.Context, id, sellerID uuid.UUID, intentID string) error
	ApplyGatewayPayment(ctx context.Context, id uuid.UUID, intentID string) error
}

type preorderTarget struct {
	svc preorderPayments
}

// NewPreOrderTarget settles pre-order requests for their seller.
func NewPreOrderTarget(svc preorderPayments) Target {
	return preorderTarget{svc: svc}
}

func (preorderTarget) Kind() enums.PaymentTargetKind { return enums.PaymentTargetPreOrder }

func (t preorderTarget) PaymentState(ctx context.Context, id uuid.UUID) (*TargetState, error) {
	state, err := t.svc.PaymentState(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &TargetState{
		TargetID:        state.PreOrderID,
		OwnerID:         state.SellerID,
		Amount:          state.Amount,
		Paid:            state.Paid,
		PaymentIntentID: state.PaymentIntentID,
	}
	switch state.Status {
	case enums.PreOrderStatusAccepted, enums.PreOrderStatusOverdue:
	case enums.PreOrderStatusPending:
		out.Blocked = "awaiting supplier decision"
	default:
		out.Blocked = "preorder is " + string(state.Status)
	}
	return out, nil
}

func (t preorderTarget) AttachIntent(ctx context.Context, id, ownerID uuid.UUID, intentID string) error {
	return t.svc.AttachPaymentIntent(ctx, id, ownerID, intentID)
}

func (t preorderTarget) ApplyPayment(ctx context.Context, id uuid.UUID, intentID string) error {
	return t.svc.ApplyGatewayPayment(ctx, id, intentID)
}

type orderPayments interface {
	PaymentState(ctx context.Context, orderID uuid.UUID) (*orders.PaymentState, error)
	AttachPaymentIntent(ctx context.Context, orderID, buyerID uuid.UUID, intentID string) error
	ApplyPayment(ctx context.Context, orderID uuid.UUID, intentID string) error
}

type orderTarget struct {
	svc orderPayments
}

// NewOrderTarget settles card orders for their buyer.
func NewOrderTarget(svc orderPayments) Target {
	return orderTarget{svc: svc}
}

func (orderTarget) Kind() enums.PaymentTargetKind { return enums.PaymentTargetOrder }

func (t orderTarget) PaymentState(ctx context.Context, id uuid.UUID) (*TargetState, error) {
	state, err := t.svc.PaymentState(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &TargetState{
		TargetID:        state.OrderID,
		OwnerID:         state.BuyerID,
		Amount:          state.Amount,
		Paid:            state.Paid,
		PaymentIntentID: state.PaymentIntentID,
	}
	if state.Method != enums.PaymentMethodCard {
		out.Blocked = "order is settled in cash on delivery"
	}
	return out, nil
}

func (t orderTarget) AttachIntent(ctx context.Context, id, ownerID uuid.UUID, intentID string) error {
	return t.svc.AttachPaymentIntent(ctx, id, ownerID, intentID)
}

func (t orderTarget) ApplyPayment(ctx context.Context, id uuid.UUID, intentID string) error {
	return t.svc.ApplyPayment(ctx, id, intentID)
}
