package payments

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/materialhub-backend/api/middleware"
	"github.com/angelmondragon/materialhub-backend/api/responses"
	"github.com/angelmondragon/materialhub-backend/api/validators"
	internalpayments "github.com/angelmondragon/materialhub-backend/internal/payments"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
)

// Service is the payment bridge as seen by the HTTP layer.
type Service interface {
	CreateIntent(ctx context.Context, input internalpayments.CreateIntentInput) (*internalpayments.CreateIntentResult, error)
	Confirm(ctx context.Context, input internalpayments.ConfirmInput) (*internalpayments.ConfirmResult, error)
}

// paymentRequest carries the target under a kind-specific key so clients keep their existing bodies.
type paymentRequest struct {
	PreOrderID      string `json:"preorderId,omitempty"`
	OrderID         string `json:"orderId,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
}

func (p paymentRequest) targetID(kind enums.PaymentTargetKind) (uuid.UUID, error) {
	field, raw := "orderId", p.OrderID
	if kind == enums.PaymentTargetPreOrder {
		field, raw = "preorderId", p.PreOrderID
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required").
			WithDetails(map[string]string{field: "is required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]string{field: "must be a valid uuid"})
	}
	return id, nil
}

// CreateIntent opens a gateway payment intent for a pre-order or an order.
func CreateIntent(svc Service, kind enums.PaymentTargetKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		_, targetID, actorID, err := decode(r, kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateIntent(ctx, internalpayments.CreateIntentInput{
			Kind:     kind,
			TargetID: targetID,
			ActorID:  actorID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Confirm verifies a succeeded intent with the gateway and settles the target.
func Confirm(svc Service, kind enums.PaymentTargetKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, targetID, actorID, err := decode(r, kind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if strings.TrimSpace(req.PaymentIntentID) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paymentIntentId is required").
				WithDetails(map[string]string{"paymentIntentId": "is required"}))
			return
		}

		result, err := svc.Confirm(ctx, internalpayments.ConfirmInput{
			Kind:            kind,
			TargetID:        targetID,
			PaymentIntentID: req.PaymentIntentID,
			ActorID:         actorID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func decode(r *http.Request, kind enums.PaymentTargetKind) (paymentRequest, uuid.UUID, uuid.UUID, error) {
	actorID := middleware.ActorIDFromContext(r.Context())
	if actorID == uuid.Nil {
		return paymentRequest{}, uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	var req paymentRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return paymentRequest{}, uuid.Nil, uuid.Nil, err
	}
	targetID, err := req.targetID(kind)
	if err != nil {
		return paymentRequest{}, uuid.Nil, uuid.Nil, err
	}
	return req, targetID, actorID, nil
}
