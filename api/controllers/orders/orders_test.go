package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/materialhub-backend/api/middleware"
	internalorders "github.com/angelmondragon/materialhub-backend/internal/orders"
	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
)

type stubOrdersService struct {
	internalorders.Service

	order    *models.Order
	getErr   error
	complete func(deliveryID, driverID uuid.UUID) (*internalorders.DeliveryResult, error)
}

func (s *stubOrdersService) Get(_ context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.order, nil
}

func (s *stubOrdersService) CompleteDelivery(_ context.Context, deliveryID, driverID uuid.UUID) (*internalorders.DeliveryResult, error) {
	return s.complete(deliveryID, driverID)
}

func newRequest(actor uuid.UUID, key, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := middleware.WithUserID(req.Context(), actor.String())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, routeCtx))
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestDetailReturnsOrder(t *testing.T) {
	order := &models.Order{
		ID:            uuid.New(),
		BuyerID:       uuid.New(),
		Total:         decimal.RequireFromString("42.50"),
		PaymentMethod: enums.PaymentMethodCard,
		PaymentStatus: enums.OrderPaymentUnpaid,
	}
	resp := httptest.NewRecorder()
	Detail(&stubOrdersService{order: order}, testLogger())(resp, newRequest(order.BuyerID, "orderId", order.ID.String()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["id"] != order.ID.String() {
		t.Fatalf("unexpected order payload %v", envelope.Data)
	}
	if envelope.Data["paymentMethod"] != string(enums.PaymentMethodCard) {
		t.Fatalf("unexpected payment method %v", envelope.Data["paymentMethod"])
	}
}

func TestDetailForbiddenForOtherBuyer(t *testing.T) {
	svc := &stubOrdersService{getErr: pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")}
	resp := httptest.NewRecorder()
	Detail(svc, testLogger())(resp, newRequest(uuid.New(), "orderId", uuid.NewString()))

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCompleteDeliveryReportsCash(t *testing.T) {
	driver := uuid.New()
	deliveryID := uuid.New()
	svc := &stubOrdersService{
		complete: func(did, drv uuid.UUID) (*internalorders.DeliveryResult, error) {
			if did != deliveryID || drv != driver {
				t.Fatalf("unexpected ids %s %s", did, drv)
			}
			return &internalorders.DeliveryResult{
				Delivery:      &models.Delivery{ID: did, DriverID: drv, Status: enums.DeliveryStatusDelivered},
				Order:         &models.Order{ID: uuid.New(), PaymentMethod: enums.PaymentMethodCash, PaymentStatus: enums.OrderPaymentPaid},
				CashCollected: true,
			}, nil
		},
	}
	resp := httptest.NewRecorder()
	CompleteDelivery(svc, testLogger())(resp, newRequest(driver, "deliveryId", deliveryID.String()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			CashCollected bool `json:"cashCollected"`
			Delivery      struct {
				Status string `json:"status"`
			} `json:"delivery"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !envelope.Data.CashCollected || envelope.Data.Delivery.Status != string(enums.DeliveryStatusDelivered) {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestCompleteDeliveryRejectsBadID(t *testing.T) {
	resp := httptest.NewRecorder()
	CompleteDelivery(&stubOrdersService{}, testLogger())(resp, newRequest(uuid.New(), "deliveryId", "nope"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
