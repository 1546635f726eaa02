package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/materialhub-backend/api/middleware"
	"github.com/angelmondragon/materialhub-backend/api/responses"
	"github.com/angelmondragon/materialhub-backend/api/validators"
	internalorders "github.com/angelmondragon/materialhub-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
)

// Detail returns a single order owned by the calling buyer.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		buyerID := middleware.ActorIDFromContext(ctx)
		if buyerID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required"))
			return
		}

		order, err := svc.Get(ctx, buyerID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.FromModel(order))
	}
}

// CompleteDelivery records a driver's drop-off. Cash orders are settled in the same step.
func CompleteDelivery(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deliveryID, err := validators.ParseUUIDParam(r, "deliveryId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		driverID := middleware.ActorIDFromContext(ctx)
		if driverID == uuid.Nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required"))
			return
		}
		if logg != nil {
			ctx = logg.WithField(ctx, "delivery_id", deliveryID.String())
		}

		result, err := svc.CompleteDelivery(ctx, deliveryID, driverID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result.ToDTO())
	}
}
