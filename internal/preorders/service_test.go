package preorders

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/pkg/db"
	"github.com/angelmondragon/materialhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/materialhub-backend/pkg/db/models"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
	"github.com/angelmondragon/materialhub-backend/pkg/pagination"
)

type recordingEmitter struct {
	mu      sync.Mutex
	notices []notifications.Notice
}

func (r *recordingEmitter) Notify(ctx context.Context, notice notifications.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *recordingEmitter) ofType(kind enums.NotificationType) []notifications.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifications.Notice
	for _, n := range r.notices {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	svc     Service
	conn    *gorm.DB
	emitter *recordingEmitter
	clock   *clock
}

func newHarness(t *testing.T, policy Policy) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	emitter := &recordingEmitter{}
	clk := &clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(conn),
		TransactionRunner: db.NewFromConn(conn),
		Outbox:            outbox.NewService(outbox.NewRepository(conn), nil),
		Notifier:          emitter,
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Policy:            policy,
		PaymentTermMonths: 1,
		Now:               clk.Now,
	})
	require.NoError(t, err)
	return &harness{svc: svc, conn: conn, emitter: emitter, clock: clk}
}

func validSubmit(option enums.PaymentOption) SubmitInput {
	return SubmitInput{
		MaterialName:          "Rebar 12mm",
		Quantity:              "2 bundles",
		ContactEmail:          "seller@example.com",
		ContactPhone:          "+15550100",
		PreferredDeliveryDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		PaymentOption:         option,
	}
}

func strPtr(v string) *string { return &v }

func (h *harness) submit(t *testing.T, sellerID uuid.UUID, option enums.PaymentOption) *models.PreOrderRequest {
	t.Helper()
	preorder, err := h.svc.Submit(context.Background(), sellerID, validSubmit(option))
	require.NoError(t, err)
	return preorder
}

func (h *harness) accept(t *testing.T, id, supplierID uuid.UUID, price string) *models.PreOrderRequest {
	t.Helper()
	preorder, err := h.svc.Decide(context.Background(), DecideInput{
		PreOrderID: id,
		SupplierID: supplierID,
		Decision:   enums.PreOrderDecisionAccept,
		Price:      strPtr(price),
	})
	require.NoError(t, err)
	return preorder
}

func (h *harness) outboxCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected %s, got %v", code, err)
	require.Equal(t, code, typed.Code(), "unexpected error %v", err)
	return typed
}

func TestSubmitPayLaterSetsDueDateOneMonthOut(t *testing.T) {
	h := newHarness(t, Policy{})
	h.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayLater)

	assert.Equal(t, enums.PreOrderStatusPending, preorder.Status)
	require.NotNil(t, preorder.PaymentDueDate)
	assert.True(t, preorder.PaymentDueDate.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)), "due %s", preorder.PaymentDueDate)
	assert.EqualValues(t, 1, h.outboxCount(t, enums.EventPreOrderSubmitted))
}

func TestSubmitPayNowHasNoDueDate(t *testing.T) {
	h := newHarness(t, Policy{})
	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)
	assert.Nil(t, preorder.PaymentDueDate)
	assert.False(t, preorder.Paid)
	assert.Equal(t, enums.PreOrderDeliveryPending, preorder.DeliveryStatus)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, uuid.New(), SubmitInput{})
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	for _, field := range []string{"materialName", "quantity", "email", "contact", "preferredDate", "paymentOption"} {
		assert.Contains(t, details, field)
	}

	input := validSubmit(enums.PaymentOptionPayNow)
	input.ContactEmail = "not-an-email"
	_, err = h.svc.Submit(ctx, uuid.New(), input)
	requireCode(t, err, pkgerrors.CodeValidation)

	input = validSubmit("pay_whenever")
	_, err = h.svc.Submit(ctx, uuid.New(), input)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = h.svc.Submit(ctx, uuid.Nil, validSubmit(enums.PaymentOptionPayNow))
	requireCode(t, err, pkgerrors.CodeUnauthorized)

	var count int64
	require.NoError(t, h.conn.Model(&models.PreOrderRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitKeepsFreeTextQuantity(t *testing.T) {
	h := newHarness(t, Policy{})
	input := validSubmit(enums.PaymentOptionPayNow)
	input.Quantity = "  about 3 rolls  "
	preorder, err := h.svc.Submit(context.Background(), uuid.New(), input)
	require.NoError(t, err)
	assert.Equal(t, "about 3 rolls", preorder.Quantity)
}

func TestDecideAcceptRecordsQuote(t *testing.T) {
	h := newHarness(t, Policy{})
	sellerID, supplierID := uuid.New(), uuid.New()
	preorder := h.submit(t, sellerID, enums.PaymentOptionPayNow)

	updated, err := h.svc.Decide(context.Background(), DecideInput{
		PreOrderID:    preorder.ID,
		SupplierID:    supplierID,
		Decision:      enums.PreOrderDecisionAccept,
		Price:         strPtr("5000"),
		SupplierNotes: strPtr("ships from north yard"),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PreOrderStatusAccepted, updated.Status)
	require.NotNil(t, updated.Response.Price)
	assert.True(t, updated.Response.Price.Equal(decimal.NewFromInt(5000)))
	assert.True(t, updated.Response.Price.IsPositive())
	require.NotNil(t, updated.Response.Accepted)
	assert.True(t, *updated.Response.Accepted)
	require.NotNil(t, updated.Response.RespondedAt)
	require.NotNil(t, updated.SupplierID)
	assert.Equal(t, supplierID, *updated.SupplierID)
	require.NotNil(t, updated.SupplierNotes)
	assert.Equal(t, "ships from north yard", *updated.SupplierNotes)

	decisions := h.emitter.ofType(enums.NotificationTypePreOrderDecision)
	require.Len(t, decisions, 1)
	assert.Equal(t, sellerID, decisions[0].UserID)
	assert.Contains(t, decisions[0].Message, "accepted")
	assert.EqualValues(t, 1, h.outboxCount(t, enums.EventPreOrderDecided))
}

func TestDecideReject(t *testing.T) {
	h := newHarness(t, Policy{})
	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)

	updated, err := h.svc.Decide(context.Background(), DecideInput{
		PreOrderID: preorder.ID,
		SupplierID: uuid.New(),
		Decision:   enums.PreOrderDecisionReject,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusRejected, updated.Status)
	assert.Nil(t, updated.Response.Price)
	require.NotNil(t, updated.Response.Accepted)
	assert.False(t, *updated.Response.Accepted)
	assert.Len(t, h.emitter.ofType(enums.NotificationTypePreOrderDecision), 1)
}

func TestDecideAcceptRequiresNumericPositivePrice(t *testing.T) {
	h := newHarness(t, Policy{})
	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)

	for _, price := range []*string{nil, strPtr(""), strPtr("five thousand"), strPtr("0"), strPtr("-10"), strPtr("0.001"), strPtr("0.004"), strPtr("1e12"), strPtr("10000000000")} {
		_, err := h.svc.Decide(context.Background(), DecideInput{
			PreOrderID: preorder.ID,
			SupplierID: uuid.New(),
			Decision:   enums.PreOrderDecisionAccept,
			Price:      price,
		})
		requireCode(t, err, pkgerrors.CodeValidation)
	}

	stored, err := h.svc.Get(context.Background(), preorder.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPending, stored.Status)
	assert.Empty(t, h.emitter.notices)
}

func TestDecideAcceptRoundsPriceToCents(t *testing.T) {
	h := newHarness(t, Policy{})
	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)

	accepted, err := h.svc.Decide(context.Background(), DecideInput{
		PreOrderID: preorder.ID,
		SupplierID: uuid.New(),
		Decision:   enums.PreOrderDecisionAccept,
		Price:      strPtr("9999999999.994"),
	})
	require.NoError(t, err)
	require.NotNil(t, accepted.Response.Price)
	assert.True(t, accepted.Response.Price.Equal(decimal.RequireFromString("9999999999.99")))
}

func TestDecideErrors(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()

	_, err := h.svc.Decide(ctx, DecideInput{PreOrderID: uuid.New(), SupplierID: uuid.New(), Decision: enums.PreOrderDecisionReject})
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = h.svc.Decide(ctx, DecideInput{PreOrderID: uuid.New(), SupplierID: uuid.New(), Decision: "maybe"})
	requireCode(t, err, pkgerrors.CodeValidation)

	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)
	h.accept(t, preorder.ID, uuid.New(), "120.50")
	_, err = h.svc.Decide(ctx, DecideInput{PreOrderID: preorder.ID, SupplierID: uuid.New(), Decision: enums.PreOrderDecisionReject})
	typed := requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, "already decided", typed.Message())
}

func TestConcurrentDecisionsHaveOneWinner(t *testing.T) {
	h := newHarness(t, Policy{})
	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)

	inputs := []DecideInput{
		{PreOrderID: preorder.ID, SupplierID: uuid.New(), Decision: enums.PreOrderDecisionAccept, Price: strPtr("900")},
		{PreOrderID: preorder.ID, SupplierID: uuid.New(), Decision: enums.PreOrderDecisionReject},
	}
	errs := make([]error, len(inputs))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input DecideInput) {
			defer wg.Done()
			<-start
			_, errs[i] = h.svc.Decide(context.Background(), input)
		}(i, input)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		requireCode(t, err, pkgerrors.CodeInvalidTransition)
	}
	assert.Equal(t, 1, winners)
	assert.Len(t, h.emitter.ofType(enums.NotificationTypePreOrderDecision), 1)
	assert.EqualValues(t, 1, h.outboxCount(t, enums.EventPreOrderDecided))
}

func TestPayAcceptedNotifiesSupplierOnce(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID, supplierID := uuid.New(), uuid.New()
	preorder := h.submit(t, sellerID, enums.PaymentOptionPayNow)
	h.accept(t, preorder.ID, supplierID, "5000")

	paidAt := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	h.clock.Set(paidAt)
	paid, err := h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: sellerID})
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPaid, paid.Status)
	assert.True(t, paid.Paid)
	require.NotNil(t, paid.PaymentDate)
	assert.True(t, paid.PaymentDate.Equal(paidAt))

	h.clock.Set(paidAt.Add(time.Hour))
	_, err = h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: sellerID})
	typed := requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, "already paid", typed.Message())

	stored, err := h.svc.Get(ctx, preorder.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaymentDate.Equal(paidAt))

	payments := h.emitter.ofType(enums.NotificationTypePreOrderPayment)
	require.Len(t, payments, 1)
	assert.Equal(t, supplierID, payments[0].UserID)
	assert.Contains(t, payments[0].Message, "Rebar 12mm")
	assert.Contains(t, payments[0].Message, "2 bundles")
	assert.Contains(t, payments[0].Message, "5000.00")
	assert.EqualValues(t, 1, h.outboxCount(t, enums.EventPreOrderPaid))
}

func TestPayGuards(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID := uuid.New()
	preorder := h.submit(t, sellerID, enums.PaymentOptionPayNow)

	_, err := h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: sellerID})
	typed := requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, "awaiting supplier decision", typed.Message())

	h.accept(t, preorder.ID, uuid.New(), "10")
	_, err = h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: uuid.New()})
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = h.svc.Pay(ctx, PayInput{PreOrderID: uuid.New(), SellerID: sellerID})
	requireCode(t, err, pkgerrors.CodeNotFound)

	assert.Empty(t, h.emitter.ofType(enums.NotificationTypePreOrderPayment))
}

func TestCancel(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID := uuid.New()

	own := h.submit(t, sellerID, enums.PaymentOptionPayNow)
	require.NoError(t, h.svc.Cancel(ctx, own.ID, sellerID))
	_, err := h.svc.Get(ctx, own.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
	assert.EqualValues(t, 1, h.outboxCount(t, enums.EventPreOrderCancelled))

	other := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)
	err = h.svc.Cancel(ctx, other.ID, sellerID)
	typed := requireCode(t, err, pkgerrors.CodeForbidden)
	assert.Equal(t, "not authorized to cancel", typed.Message())
	_, err = h.svc.Get(ctx, other.ID)
	require.NoError(t, err)
}

func TestCancelAcceptedNotifiesSupplierAndPaidIsRejected(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID, supplierID := uuid.New(), uuid.New()

	accepted := h.submit(t, sellerID, enums.PaymentOptionPayNow)
	h.accept(t, accepted.ID, supplierID, "75")
	require.NoError(t, h.svc.Cancel(ctx, accepted.ID, sellerID))
	cancelled := h.emitter.ofType(enums.NotificationTypePreOrderCancel)
	require.Len(t, cancelled, 1)
	assert.Equal(t, supplierID, cancelled[0].UserID)

	paid := h.submit(t, sellerID, enums.PaymentOptionPayNow)
	h.accept(t, paid.ID, supplierID, "75")
	_, err := h.svc.Pay(ctx, PayInput{PreOrderID: paid.ID, SellerID: sellerID})
	require.NoError(t, err)
	err = h.svc.Cancel(ctx, paid.ID, sellerID)
	typed := requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, "already paid", typed.Message())
}

func TestSweepOverdue(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	h.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sellerID, supplierID := uuid.New(), uuid.New()

	late := h.submit(t, sellerID, enums.PaymentOptionPayLater)
	h.accept(t, late.ID, supplierID, "300")
	settled := h.submit(t, sellerID, enums.PaymentOptionPayLater)
	h.accept(t, settled.ID, supplierID, "300")
	pending := h.submit(t, sellerID, enums.PaymentOptionPayLater)

	sweepAt := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	flipped, err := h.svc.SweepOverdue(ctx, sweepAt)
	require.NoError(t, err)
	assert.EqualValues(t, 2, flipped)

	stored, err := h.svc.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusOverdue, stored.Status)
	stored, err = h.svc.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPending, stored.Status)

	flipped, err = h.svc.SweepOverdue(ctx, sweepAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, flipped)
	assert.EqualValues(t, 1, h.outboxCount(t, enums.EventPreOrdersOverdue))

	_, err = h.svc.Pay(ctx, PayInput{PreOrderID: settled.ID, SellerID: sellerID})
	require.NoError(t, err)
	flipped, err = h.svc.SweepOverdue(ctx, sweepAt.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, flipped)
	stored, err = h.svc.Get(ctx, settled.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPaid, stored.Status)
}

func TestSweepLeavesPaidRequestAlone(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	h.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sellerID := uuid.New()

	preorder := h.submit(t, sellerID, enums.PaymentOptionPayLater)
	h.accept(t, preorder.ID, uuid.New(), "42")
	_, err := h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: sellerID})
	require.NoError(t, err)

	flipped, err := h.svc.SweepOverdue(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, flipped)
	stored, err := h.svc.Get(ctx, preorder.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPaid, stored.Status)
}

func TestOverdueRequestCanStillBePaid(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	h.clock.Set(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sellerID := uuid.New()
	preorder := h.submit(t, sellerID, enums.PaymentOptionPayLater)
	h.accept(t, preorder.ID, uuid.New(), "42")

	_, err := h.svc.SweepOverdue(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	paid, err := h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: sellerID})
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPaid, paid.Status)
}

func TestMarkDelivered(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID, supplierID := uuid.New(), uuid.New()
	preorder := h.submit(t, sellerID, enums.PaymentOptionPayNow)
	h.accept(t, preorder.ID, supplierID, "250")

	_, err := h.svc.MarkDelivered(ctx, preorder.ID, supplierID)
	typed := requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, "not paid yet", typed.Message())

	_, err = h.svc.MarkDelivered(ctx, preorder.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = h.svc.Pay(ctx, PayInput{PreOrderID: preorder.ID, SellerID: sellerID})
	require.NoError(t, err)
	delivered, err := h.svc.MarkDelivered(ctx, preorder.ID, supplierID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusDelivered, delivered.Status)
	assert.Equal(t, enums.PreOrderDeliveryDelivered, delivered.DeliveryStatus)
	assert.True(t, delivered.Paid)

	notices := h.emitter.ofType(enums.NotificationTypePreOrderDelivery)
	require.Len(t, notices, 1)
	assert.Equal(t, sellerID, notices[0].UserID)

	_, err = h.svc.MarkDelivered(ctx, preorder.ID, supplierID)
	typed = requireCode(t, err, pkgerrors.CodeInvalidTransition)
	assert.Equal(t, "already delivered", typed.Message())
}

func TestMarkDeliveredCashOnDelivery(t *testing.T) {
	h := newHarness(t, Policy{AllowUnpaidDelivery: true})
	supplierID := uuid.New()
	preorder := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)
	h.accept(t, preorder.ID, supplierID, "80")

	delivered, err := h.svc.MarkDelivered(context.Background(), preorder.ID, supplierID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusDelivered, delivered.Status)
	assert.False(t, delivered.Paid)
}

func TestListings(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID := uuid.New()
	for i := 0; i < 3; i++ {
		h.clock.Set(time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC))
		h.submit(t, sellerID, enums.PaymentOptionPayNow)
	}
	accepted := h.submit(t, uuid.New(), enums.PaymentOptionPayNow)
	h.accept(t, accepted.ID, uuid.New(), "1")

	first, err := h.svc.ListForSeller(ctx, sellerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.Cursor)

	second, err := h.svc.ListForSeller(ctx, sellerID, pagination.Params{Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Empty(t, second.Cursor)

	pending, err := h.svc.ListByStatus(ctx, enums.PreOrderStatusPending, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, pending.Items, 3)

	acceptedList, err := h.svc.ListByStatus(ctx, enums.PreOrderStatusAccepted, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, acceptedList.Items, 1)
	assert.True(t, acceptedList.Items[0].SupplierResponse.Price.IsPositive())

	rejected, err := h.svc.ListByStatus(ctx, enums.PreOrderStatusRejected, pagination.Params{})
	require.NoError(t, err)
	assert.NotNil(t, rejected.Items)
	assert.Empty(t, rejected.Items)

	_, err = h.svc.ListByStatus(ctx, "archived", pagination.Params{})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestGatewayHooks(t *testing.T) {
	h := newHarness(t, Policy{})
	ctx := context.Background()
	sellerID, supplierID := uuid.New(), uuid.New()
	preorder := h.submit(t, sellerID, enums.PaymentOptionPayNow)

	err := h.svc.AttachPaymentIntent(ctx, preorder.ID, sellerID, "pi_early")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	h.accept(t, preorder.ID, supplierID, "19.99")
	err = h.svc.AttachPaymentIntent(ctx, preorder.ID, uuid.New(), "pi_1")
	requireCode(t, err, pkgerrors.CodeForbidden)
	require.NoError(t, h.svc.AttachPaymentIntent(ctx, preorder.ID, sellerID, "pi_1"))

	state, err := h.svc.PaymentState(ctx, preorder.ID)
	require.NoError(t, err)
	assert.Equal(t, sellerID, state.SellerID)
	assert.True(t, state.Amount.Equal(decimal.RequireFromString("19.99")))
	require.NotNil(t, state.PaymentIntentID)
	assert.Equal(t, "pi_1", *state.PaymentIntentID)
	assert.False(t, state.Paid)

	require.NoError(t, h.svc.ApplyGatewayPayment(ctx, preorder.ID, "pi_1"))
	err = h.svc.ApplyGatewayPayment(ctx, preorder.ID, "pi_1")
	requireCode(t, err, pkgerrors.CodeInvalidTransition)

	state, err = h.svc.PaymentState(ctx, preorder.ID)
	require.NoError(t, err)
	assert.True(t, state.Paid)
	assert.Equal(t, enums.PreOrderStatusPaid, state.Status)
	payments := h.emitter.ofType(enums.NotificationTypePreOrderPayment)
	require.Len(t, payments, 1)
	assert.True(t, strings.Contains(payments[0].Message, "19.99"))
}
