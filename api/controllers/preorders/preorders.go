package preorders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/materialhub-backend/api/middleware"
	"github.com/angelmondragon/materialhub-backend/api/responses"
	"github.com/angelmondragon/materialhub-backend/api/validators"
	internalpreorders "github.com/angelmondragon/materialhub-backend/internal/preorders"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/pagination"
)

const maxCursorLength = 256

type submitRequest struct {
	MaterialName  string          `json:"materialName"`
	Quantity      json.RawMessage `json:"quantity"`
	ContactEmail  string          `json:"email"`
	ContactPhone  string          `json:"contact"`
	PreferredDate string          `json:"preferredDate"`
	PaymentOption string          `json:"paymentOption"`
}

type decideRequest struct {
	Action        string          `json:"action" validate:"required,oneof=accept reject"`
	Price         json.RawMessage `json:"price,omitempty"`
	SupplierNotes *string         `json:"supplierNotes,omitempty"`
}

type payRequest struct {
	PaymentIntentID *string `json:"paymentIntentId,omitempty"`
}

// Submit records a new request for the calling seller.
func Submit(svc internalpreorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req submitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		preferred, err := parseDate(req.PreferredDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.Submit(ctx, sellerID, internalpreorders.SubmitInput{
			MaterialName:          req.MaterialName,
			Quantity:              rawText(req.Quantity),
			ContactEmail:          req.ContactEmail,
			ContactPhone:          req.ContactPhone,
			PreferredDeliveryDate: preferred,
			PaymentOption:         enums.PaymentOption(strings.TrimSpace(req.PaymentOption)),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalpreorders.FromModel(created))
	}
}

// ListByStatus returns one page of requests in the given status for suppliers.
func ListByStatus(svc internalpreorders.Service, status enums.PreOrderStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByStatus(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListForSeller returns the caller's own requests. Sellers cannot read each other's history.
func ListForSeller(svc internalpreorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sellerID, err := validators.ParseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if sellerID != middleware.ActorIDFromContext(ctx) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "sellers may only list their own requests"))
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		list, err := svc.ListForSeller(ctx, sellerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Decide applies the supplier's accept or reject.
func Decide(svc internalpreorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, id, supplierID, err := scopedRequest(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req decideRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var price *string
		if text := rawText(req.Price); text != "" {
			price = &text
		}

		updated, err := svc.Decide(ctx, internalpreorders.DecideInput{
			PreOrderID:    id,
			SupplierID:    supplierID,
			Decision:      enums.PreOrderDecision(req.Action),
			Price:         price,
			SupplierNotes: req.SupplierNotes,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalpreorders.FromModel(updated))
	}
}

// Pay settles an accepted or overdue request outside the gateway flow.
func Pay(svc internalpreorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, id, sellerID, err := scopedRequest(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req payRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		updated, err := svc.Pay(ctx, internalpreorders.PayInput{
			PreOrderID:      id,
			SellerID:        sellerID,
			PaymentIntentID: req.PaymentIntentID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalpreorders.FromModel(updated))
	}
}

// Deliver marks a request delivered by its supplier.
func Deliver(svc internalpreorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, id, supplierID, err := scopedRequest(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		updated, err := svc.MarkDelivered(ctx, id, supplierID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalpreorders.FromModel(updated))
	}
}

// Cancel deletes an unpaid request owned by the caller.
func Cancel(svc internalpreorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, id, sellerID, err := scopedRequest(r, logg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Cancel(ctx, id, sellerID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "cancelled": true})
	}
}

// SweepOverdue runs the overdue sweep on demand.
func SweepOverdue(svc internalpreorders.Service, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		affected, err := svc.SweepOverdue(r.Context(), now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": affected})
	}
}

// scopedRequest parses the {id} path parameter and the caller, tagging the log context with the request id.
func scopedRequest(r *http.Request, logg *logger.Logger) (context.Context, uuid.UUID, uuid.UUID, error) {
	ctx := r.Context()
	id, err := validators.ParseUUIDParam(r, "id")
	if err != nil {
		return ctx, uuid.Nil, uuid.Nil, err
	}
	if logg != nil {
		ctx = logg.WithPreOrderID(ctx, id.String())
	}
	actor, err := actorID(r)
	return ctx, id, actor, err
}

func actorID(r *http.Request) (uuid.UUID, error) {
	id := middleware.ActorIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: validators.ParseQueryString(r, "cursor", maxCursorLength),
	}, nil
}

// rawText accepts either a JSON string or a bare JSON number and returns its text.
func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(trimmed)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid fields").
		WithDetails(map[string]string{"preferredDate": "must be an ISO-8601 date"})
}
