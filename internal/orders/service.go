package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines order payment and delivery operations.
type Service interface {
	Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	PaymentState(ctx context.Context, orderID uuid.UUID) (*PaymentState, error)
	AttachPaymentIntent(ctx context.Context, orderID, buyerID uuid.UUID, intentID string) error
	ApplyPayment(ctx context.Context, orderID uuid.UUID, intentID string) error
	CompleteDelivery(ctx context.Context, deliveryID, driverID uuid.UUID) (*DeliveryResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier notifications.Emitter
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, notifier notifications.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outbox,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	return order, nil
}

func (s *service) PaymentState(ctx context.Context, orderID uuid.UUID) (*PaymentState, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	return &PaymentState{
		OrderID:         order.ID,
		BuyerID:         order.BuyerID,
		SellerID:        order.SellerID,
		Amount:          order.Total,
		Method:          order.PaymentMethod,
		Paid:            order.PaymentStatus == enums.OrderPaymentPaid,
		PaymentIntentID: order.PaymentIntentID,
	}, nil
}

func (s *service) AttachPaymentIntent(ctx context.Context, orderID, buyerID uuid.UUID, intentID string) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if _, err := s.Get(ctx, buyerID, orderID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.AttachPaymentIntent(ctx, orderID, intentID, s.now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment intent")
		}
		if rows == 0 {
			return s.paymentRejection(ctx, repo, orderID)
		}
		return nil
	})
}

// ApplyPayment settles a card order the gateway already confirmed. Ownership was checked by the caller.
func (s *service) ApplyPayment(ctx context.Context, orderID uuid.UUID, intentID string) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	paidAt := s.now().UTC()

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if current.PaymentMethod != enums.PaymentMethodCard {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is settled in cash on delivery")
		}
		rows, err := repo.MarkPaid(ctx, orderID, &intentID, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "already paid")
		}
		order, err = s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventOrderPaid, order.ID, nil, payloads.OrderPaidEvent{
			OrderID:         order.ID,
			BuyerID:         order.BuyerID,
			Amount:          order.Total,
			PaymentIntentID: intentID,
			PaidAt:          paidAt,
		})
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "order paid")
	s.notifier.Notify(ctx, notifications.Notice{
		UserID:    order.SellerID,
		Type:      enums.NotificationTypeOrderPayment,
		Message:   fmt.Sprintf("Order %s has been paid. Amount: %s.", shortID(order.ID), order.Total.StringFixed(2)),
		RelatedID: &order.ID,
	})
	return nil
}

// CompleteDelivery closes a delivery for its driver. A cash order is marked paid in the same transaction.
func (s *service) CompleteDelivery(ctx context.Context, deliveryID, driverID uuid.UUID) (*DeliveryResult, error) {
	if deliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	if driverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	completedAt := s.now().UTC()
	actor := &outbox.ActorRef{UserID: driverID, Role: string(enums.UserRoleDriver)}

	result := &DeliveryResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindDelivery(ctx, deliveryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
		}
		if delivery.DriverID != driverID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "delivery is assigned to another driver")
		}
		rows, err := repo.CompleteDelivery(ctx, deliveryID, driverID, completedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete delivery")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "already delivered")
		}
		if result.Delivery, err = repo.FindDelivery(ctx, deliveryID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload delivery")
		}

		order, err := s.loadOrder(ctx, repo, delivery.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentMethod == enums.PaymentMethodCash {
			rows, err := repo.MarkPaid(ctx, order.ID, nil, completedAt)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "collect cash payment")
			}
			if rows == 1 {
				result.CashCollected = true
				if order, err = s.loadOrder(ctx, repo, order.ID); err != nil {
					return err
				}
				if err := s.emit(ctx, tx, enums.EventCashCollected, order.ID, actor, payloads.CashCollectedEvent{
					OrderID:     order.ID,
					DeliveryID:  deliveryID,
					DriverID:    driverID,
					Amount:      order.Total,
					CollectedAt: completedAt,
				}); err != nil {
					return err
				}
			}
		}
		result.Order = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"delivery_id":    deliveryID.String(),
		"order_id":       result.Order.ID.String(),
		"cash_collected": result.CashCollected,
	}), "delivery completed")
	s.notifier.Notify(ctx, notifications.Notice{
		UserID:    result.Order.BuyerID,
		Type:      enums.NotificationTypeOrderDelivery,
		Message:   fmt.Sprintf("Order %s has been delivered.", shortID(result.Order.ID)),
		RelatedID: &result.Order.ID,
		Actor:     actor,
	})
	return result, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) paymentRejection(ctx context.Context, repo Repository, id uuid.UUID) error {
	order, err := s.loadOrder(ctx, repo, id)
	if err != nil {
		return err
	}
	if order.PaymentStatus == enums.OrderPaymentPaid {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "already paid")
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is settled in cash on delivery")
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID uuid.UUID, actor *outbox.ActorRef, data any) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor,
		Data:          data,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
