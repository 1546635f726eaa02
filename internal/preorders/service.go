package preorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/metrics"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/materialhub-backend/pkg/pagination"
)

// Service owns every write to a pre-order request.
type Service interface {
	Submit(ctx context.Context, sellerID uuid.UUID, input SubmitInput) (*models.PreOrderRequest, error)
	Decide(ctx context.Context, input DecideInput) (*models.PreOrderRequest, error)
	Pay(ctx context.Context, input PayInput) (*models.PreOrderRequest, error)
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)
	MarkDelivered(ctx context.Context, preorderID, supplierID uuid.UUID) (*models.PreOrderRequest, error)
	Cancel(ctx context.Context, preorderID, sellerID uuid.UUID) error
	ListByStatus(ctx context.Context, status enums.PreOrderStatus, params pagination.Params) (*ListResult, error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PreOrderRequest, error)
	PaymentState(ctx context.Context, id uuid.UUID) (*PaymentState, error)
	ApplyGatewayPayment(ctx context.Context, id uuid.UUID, intentID string) error
	AttachPaymentIntent(ctx context.Context, id, sellerID uuid.UUID, intentID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Notifier          notifications.Emitter
	Metrics           *metrics.LifecycleMetrics
	Logger            *logger.Logger
	Policy            Policy
	PaymentTermMonths int
	Now               func() time.Time
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	notifier    notifications.Emitter
	metrics     *metrics.LifecycleMetrics
	logg        *logger.Logger
	policy      Policy
	paymentTerm int
	now         func() time.Time
}

var validate = validator.New()

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("preorders repository required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notification emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	term := params.PaymentTermMonths
	if term <= 0 {
		term = 1
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		tx:          params.TransactionRunner,
		outbox:      params.Outbox,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		logg:        params.Logger,
		policy:      params.Policy,
		paymentTerm: term,
		now:         now,
	}, nil
}

func (s *service) Submit(ctx context.Context, sellerID uuid.UUID, input SubmitInput) (*models.PreOrderRequest, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	if err := validateSubmit(input); err != nil {
		s.metrics.Transition(string(ActionSubmit), metrics.ResultRejected)
		return nil, err
	}

	status, err := s.policy.Next(ActionSubmit, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve initial status")
	}

	created := s.now().UTC()
	preorder := &models.PreOrderRequest{
		SellerID:              sellerID,
		MaterialName:          strings.TrimSpace(input.MaterialName),
		Quantity:              strings.TrimSpace(input.Quantity),
		ContactEmail:          strings.TrimSpace(input.ContactEmail),
		ContactPhone:          strings.TrimSpace(input.ContactPhone),
		PreferredDeliveryDate: input.PreferredDeliveryDate.UTC(),
		PaymentOption:         input.PaymentOption,
		DeliveryStatus:        enums.PreOrderDeliveryPending,
		Status:                status,
		CreatedAt:             created,
		UpdatedAt:             created,
	}
	if input.PaymentOption == enums.PaymentOptionPayLater {
		due := paymentDueDate(created, s.paymentTerm)
		preorder.PaymentDueDate = &due
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, preorder); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create preorder")
		}
		return s.emit(ctx, tx, enums.EventPreOrderSubmitted, preorder.ID, sellerActor(sellerID), payloads.PreOrderSubmittedEvent{
			PreOrderID:    preorder.ID,
			SellerID:      sellerID,
			MaterialName:  preorder.MaterialName,
			Quantity:      preorder.Quantity,
			PaymentOption: preorder.PaymentOption,
		})
	})
	if err != nil {
		s.metrics.Transition(string(ActionSubmit), metrics.ResultError)
		return nil, err
	}
	s.metrics.Transition(string(ActionSubmit), metrics.ResultApplied)
	s.logg.Info(s.logg.WithPreOrderID(ctx, preorder.ID.String()), "preorder submitted")
	return preorder, nil
}

// paymentDueDate adds whole calendar months to the creation time.
func paymentDueDate(created time.Time, months int) time.Time {
	return created.AddDate(0, months, 0)
}

func validateSubmit(input SubmitInput) error {
	details := map[string]string{}
	required := map[string]string{
		"materialName": input.MaterialName,
		"quantity":     input.Quantity,
		"email":        input.ContactEmail,
		"contact":      input.ContactPhone,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			details[field] = "is required"
		}
	}
	if _, missing := details["email"]; !missing {
		if err := validate.Var(strings.TrimSpace(input.ContactEmail), "email"); err != nil {
			details["email"] = "must be a valid email"
		}
	}
	if input.PreferredDeliveryDate.IsZero() {
		details["preferredDate"] = "is required"
	}
	if !input.PaymentOption.IsValid() {
		details["paymentOption"] = "must be pay_now or pay_later"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid fields").WithDetails(details)
	}
	return nil
}

func (s *service) Decide(ctx context.Context, input DecideInput) (*models.PreOrderRequest, error) {
	if input.PreOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preorder id required")
	}
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "supplier identity missing")
	}
	action, err := ActionForDecision(input.Decision)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "action must be accept or reject")
	}

	var price *decimal.Decimal
	if action == ActionAccept {
		parsed, err := parsePrice(input.Price)
		if err != nil {
			s.metrics.Transition(string(action), metrics.ResultRejected)
			return nil, err
		}
		price = &parsed
	}

	if _, err := s.load(ctx, input.PreOrderID); err != nil {
		return nil, err
	}

	target, _ := s.policy.Next(action, enums.PreOrderStatusPending)
	respondedAt := s.now().UTC()
	accepted := action == ActionAccept
	updates := map[string]any{
		"status":                target,
		"supplier_id":           input.SupplierID,
		"response_accepted":     accepted,
		"response_responded_at": respondedAt,
		"updated_at":            respondedAt,
	}
	if price != nil {
		updates["response_price"] = *price
	}
	if notes := trimmedPtr(input.SupplierNotes); notes != nil {
		updates["supplier_notes"] = *notes
	}

	updated, err := s.transition(ctx, action, input.PreOrderID, updates, supplierActor(input.SupplierID), func(p *models.PreOrderRequest) (enums.OutboxEventType, any) {
		return enums.EventPreOrderDecided, payloads.PreOrderDecidedEvent{
			PreOrderID: p.ID,
			SellerID:   p.SellerID,
			SupplierID: input.SupplierID,
			Decision:   input.Decision,
			Status:     p.Status,
			Price:      price,
		}
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your pre-order request for %s was rejected.", updated.MaterialName)
	if accepted {
		message = fmt.Sprintf("Your pre-order request for %s was accepted at a price of %s.", updated.MaterialName, price.StringFixed(2))
	}
	s.notify(ctx, notifications.Notice{
		UserID:    updated.SellerID,
		Type:      enums.NotificationTypePreOrderDecision,
		Message:   message,
		RelatedID: &updated.ID,
		Actor:     supplierActor(input.SupplierID),
	})
	return updated, nil
}

// maxQuotedPrice is the largest value a numeric(12,2) column holds.
var maxQuotedPrice = decimal.RequireFromString("9999999999.99")

func parsePrice(raw *string) (decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "price is required to accept").
			WithDetails(map[string]string{"price": "is required"})
	}
	price, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price must be numeric").
			WithDetails(map[string]string{"price": "must be numeric"})
	}
	price = price.Round(2)
	if !price.IsPositive() {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero").
			WithDetails(map[string]string{"price": "must be greater than zero"})
	}
	if price.GreaterThan(maxQuotedPrice) {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "price is too large").
			WithDetails(map[string]string{"price": "must not exceed " + maxQuotedPrice.StringFixed(2)})
	}
	return price, nil
}

func (s *service) Pay(ctx context.Context, input PayInput) (*models.PreOrderRequest, error) {
	if input.PreOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preorder id required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	current, err := s.load(ctx, input.PreOrderID)
	if err != nil {
		return nil, err
	}
	if current.SellerID != input.SellerID {
		s.metrics.Transition(string(ActionPay), metrics.ResultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to pay")
	}
	return s.pay(ctx, input.PreOrderID, trimmedPtr(input.PaymentIntentID), sellerActor(input.SellerID))
}

// ApplyGatewayPayment records a payment the gateway already confirmed. Ownership was checked by the caller.
func (s *service) ApplyGatewayPayment(ctx context.Context, id uuid.UUID, intentID string) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	_, err := s.pay(ctx, id, &intentID, nil)
	return err
}

func (s *service) pay(ctx context.Context, id uuid.UUID, intentID *string, actor *outbox.ActorRef) (*models.PreOrderRequest, error) {
	paidAt := s.now().UTC()
	updates := map[string]any{
		"status":       enums.PreOrderStatusPaid,
		"paid":         true,
		"payment_date": paidAt,
		"updated_at":   paidAt,
	}
	if intentID != nil {
		updates["payment_intent_id"] = *intentID
	}

	updated, err := s.transition(ctx, ActionPay, id, updates, actor, func(p *models.PreOrderRequest) (enums.OutboxEventType, any) {
		return enums.EventPreOrderPaid, payloads.PreOrderPaidEvent{
			PreOrderID:      p.ID,
			SellerID:        p.SellerID,
			SupplierID:      derefUUID(p.SupplierID),
			Amount:          quotedPrice(p),
			PaymentIntentID: p.PaymentIntentID,
			PaidAt:          paidAt,
		}
	})
	if err != nil {
		return nil, err
	}

	if updated.SupplierID != nil {
		s.notify(ctx, notifications.Notice{
			UserID: *updated.SupplierID,
			Type:   enums.NotificationTypePreOrderPayment,
			Message: fmt.Sprintf("Pre-order for %s (quantity: %s) has been paid. Amount: %s.",
				updated.MaterialName, updated.Quantity, quotedPrice(updated).StringFixed(2)),
			RelatedID: &updated.ID,
			Actor:     actor,
		})
	}
	return updated, nil
}

func (s *service) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	var flipped int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).MarkOverdue(ctx, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark overdue preorders")
		}
		flipped = rows
		if rows == 0 {
			return nil
		}
		// The summary event is keyed by a fresh id since it spans many requests.
		return s.emit(ctx, tx, enums.EventPreOrdersOverdue, uuid.New(), nil, payloads.PreOrdersOverdueEvent{
			Count:   rows,
			SweptAt: now,
		})
	})
	if err != nil {
		s.metrics.Transition(string(ActionMarkOverdue), metrics.ResultError)
		return 0, err
	}
	if flipped > 0 {
		s.metrics.Transition(string(ActionMarkOverdue), metrics.ResultApplied)
		s.logg.Info(s.logg.WithField(ctx, "count", flipped), "preorders marked overdue")
	}
	return flipped, nil
}

func (s *service) MarkDelivered(ctx context.Context, preorderID, supplierID uuid.UUID) (*models.PreOrderRequest, error) {
	if preorderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preorder id required")
	}
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "supplier identity missing")
	}
	current, err := s.load(ctx, preorderID)
	if err != nil {
		return nil, err
	}
	if current.SupplierID == nil || *current.SupplierID != supplierID {
		s.metrics.Transition(string(ActionDeliver), metrics.ResultRejected)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not the responding supplier")
	}

	deliveredAt := s.now().UTC()
	updates := map[string]any{
		"status":          enums.PreOrderStatusDelivered,
		"delivery_status": enums.PreOrderDeliveryDelivered,
		"updated_at":      deliveredAt,
	}
	updated, err := s.transition(ctx, ActionDeliver, preorderID, updates, supplierActor(supplierID), func(p *models.PreOrderRequest) (enums.OutboxEventType, any) {
		return enums.EventPreOrderDelivered, payloads.PreOrderDeliveredEvent{
			PreOrderID:  p.ID,
			SellerID:    p.SellerID,
			SupplierID:  supplierID,
			Paid:        p.Paid,
			DeliveredAt: deliveredAt,
		}
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notifications.Notice{
		UserID:    updated.SellerID,
		Type:      enums.NotificationTypePreOrderDelivery,
		Message:   fmt.Sprintf("Your pre-order for %s has been delivered.", updated.MaterialName),
		RelatedID: &updated.ID,
		Actor:     supplierActor(supplierID),
	})
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, preorderID, sellerID uuid.UUID) error {
	if preorderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "preorder id required")
	}
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "seller identity missing")
	}
	current, err := s.load(ctx, preorderID)
	if err != nil {
		return err
	}
	if current.SellerID != sellerID {
		s.metrics.Transition(string(ActionCancel), metrics.ResultRejected)
		return pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to cancel")
	}

	cancelledAt := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		deleted, err := repo.DeleteIfStatus(ctx, preorderID, sellerID, s.policy.AllowedFrom(ActionCancel))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete preorder")
		}
		if deleted == 0 {
			return s.rejection(ctx, repo, ActionCancel, preorderID)
		}
		return s.emit(ctx, tx, enums.EventPreOrderCancelled, preorderID, sellerActor(sellerID), payloads.PreOrderCancelledEvent{
			PreOrderID:     preorderID,
			SellerID:       sellerID,
			PreviousStatus: current.Status,
			CancelledAt:    cancelledAt,
		})
	})
	if err != nil {
		s.recordFailure(ActionCancel, err)
		return err
	}
	s.metrics.Transition(string(ActionCancel), metrics.ResultApplied)

	if current.SupplierID != nil {
		s.notify(ctx, notifications.Notice{
			UserID:    *current.SupplierID,
			Type:      enums.NotificationTypePreOrderCancel,
			Message:   fmt.Sprintf("The pre-order request for %s was cancelled by the seller.", current.MaterialName),
			RelatedID: &current.ID,
			Actor:     sellerActor(sellerID),
		})
	}
	return nil
}

func (s *service) ListByStatus(ctx context.Context, status enums.PreOrderStatus, params pagination.Params) (*ListResult, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByStatus(ctx, status, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list preorders")
	}
	return page(rows, params.Limit), nil
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller preorders")
	}
	return page(rows, params.Limit), nil
}

func page(rows []models.PreOrderRequest, limit int) *ListResult {
	items, next := pagination.Trim(rows, limit, func(p models.PreOrderRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	dtos := make([]PreOrderDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, *FromModel(&items[i]))
	}
	return &ListResult{Items: dtos, Cursor: next}
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PreOrderRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preorder id required")
	}
	return s.load(ctx, id)
}

func (s *service) PaymentState(ctx context.Context, id uuid.UUID) (*PaymentState, error) {
	preorder, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PaymentState{
		PreOrderID:      preorder.ID,
		SellerID:        preorder.SellerID,
		SupplierID:      preorder.SupplierID,
		Status:          preorder.Status,
		Amount:          quotedPrice(preorder),
		Paid:            preorder.Paid,
		PaymentIntentID: preorder.PaymentIntentID,
	}, nil
}

// AttachPaymentIntent stores the gateway intent on a payable request owned by sellerID.
func (s *service) AttachPaymentIntent(ctx context.Context, id, sellerID uuid.UUID, intentID string) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.SellerID != sellerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to pay")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.UpdateIfStatus(ctx, id, s.policy.AllowedFrom(ActionPay), true, map[string]any{
			"payment_intent_id": intentID,
			"updated_at":        s.now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach payment intent")
		}
		if rows == 0 {
			return s.rejection(ctx, repo, ActionPay, id)
		}
		return nil
	})
}

type eventBuilder func(updated *models.PreOrderRequest) (enums.OutboxEventType, any)

// transition runs one conditional update plus its outbox event in a single transaction and returns the updated row.
func (s *service) transition(ctx context.Context, action Action, id uuid.UUID, updates map[string]any, actor *outbox.ActorRef, build eventBuilder) (*models.PreOrderRequest, error) {
	var updated *models.PreOrderRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.UpdateIfStatus(ctx, id, s.policy.AllowedFrom(action), RequiresUnpaid(action), updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s preorder", action))
		}
		if rows == 0 {
			return s.rejection(ctx, repo, action, id)
		}
		updated, err = repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload preorder")
		}
		eventType, data := build(updated)
		return s.emit(ctx, tx, eventType, id, actor, data)
	})
	if err != nil {
		s.recordFailure(action, err)
		return nil, err
	}
	s.metrics.Transition(string(action), metrics.ResultApplied)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"preorder_id": id.String(),
		"action":      string(action),
		"status":      string(updated.Status),
	}), "preorder transitioned")
	return updated, nil
}

// rejection explains why a conditional write matched nothing.
func (s *service) rejection(ctx context.Context, repo Repository, action Action, id uuid.UUID) error {
	current, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "preorder not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preorder")
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, rejectionMessage(action, current.Status, current.Paid)).
		WithDetails(map[string]any{"action": action, "status": current.Status})
}

func (s *service) recordFailure(action Action, err error) {
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		s.metrics.Transition(string(action), metrics.ResultRejected)
	default:
		s.metrics.Transition(string(action), metrics.ResultError)
	}
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.PreOrderRequest, error) {
	preorder, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "preorder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preorder")
	}
	return preorder, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, aggregateID uuid.UUID, actor *outbox.ActorRef, data any) error {
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePreOrder,
		AggregateID:   aggregateID,
		Actor:         actor,
		Data:          data,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit preorder event")
	}
	return nil
}

// notify runs after commit; the emitter never fails the caller.
func (s *service) notify(ctx context.Context, notice notifications.Notice) {
	s.notifier.Notify(ctx, notice)
}

func quotedPrice(p *models.PreOrderRequest) decimal.Decimal {
	if p == nil || p.Response.Price == nil {
		return decimal.Zero
	}
	return *p.Response.Price
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func sellerActor(id uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: id, Role: string(enums.UserRoleSeller)}
}

func supplierActor(id uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: id, Role: string(enums.UserRoleSupplier)}
}
