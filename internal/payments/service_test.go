package payments

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/materialhub-backend/internal/notifications"
	"github.com/angelmondragon/materialhub-backend/internal/preorders"
	"github.com/angelmondragon/materialhub-backend/pkg/db"
	"github.com/angelmondragon/materialhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/outbox"
)

type fakeGateway struct {
	created  []CreateIntentRequest
	intents  map[string]*Intent
	err      error
	retrieve int
}

func (f *fakeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	intent := &Intent{
		ID:           "pi_" + req.TargetID.String()[:8],
		Status:       "requires_payment_method",
		ClientSecret: "secret",
		Currency:     "usd",
		Metadata: map[string]string{
			MetadataTargetKind: string(req.Kind),
			MetadataTargetID:   req.TargetID.String(),
		},
	}
	if f.intents == nil {
		f.intents = map[string]*Intent{}
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	f.retrieve++
	if f.err != nil {
		return nil, f.err
	}
	intent, ok := f.intents[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "payment gateway error: retrieve payment intent")
	}
	return intent, nil
}

func (f *fakeGateway) succeed(id string) {
	f.intents[id].Status = intentStatusSucceeded
}

type fakeTarget struct {
	kind    enums.PaymentTargetKind
	state   *TargetState
	applied []string
	applyFn func(id uuid.UUID, intentID string) error
}

func (f *fakeTarget) Kind() enums.PaymentTargetKind { return f.kind }

func (f *fakeTarget) PaymentState(ctx context.Context, id uuid.UUID) (*TargetState, error) {
	if f.state == nil || f.state.TargetID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target not found")
	}
	copied := *f.state
	return &copied, nil
}

func (f *fakeTarget) AttachIntent(ctx context.Context, id, ownerID uuid.UUID, intentID string) error {
	f.state.PaymentIntentID = &intentID
	return nil
}

func (f *fakeTarget) ApplyPayment(ctx context.Context, id uuid.UUID, intentID string) error {
	if f.applyFn != nil {
		return f.applyFn(id, intentID)
	}
	f.applied = append(f.applied, intentID)
	f.state.Paid = true
	f.state.PaymentIntentID = &intentID
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newFakeService(t *testing.T, gateway *fakeGateway, targets ...Target) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Gateway: gateway, Targets: targets, Logger: testLogger()})
	require.NoError(t, err)
	return svc
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return ""
}

func payableTarget() *fakeTarget {
	return &fakeTarget{
		kind: enums.PaymentTargetOrder,
		state: &TargetState{
			TargetID: uuid.New(),
			OwnerID:  uuid.New(),
			Amount:   decimal.RequireFromString("64.25"),
		},
	}
}

func TestNewServiceRejectsDuplicateKinds(t *testing.T) {
	_, err := NewService(ServiceParams{
		Gateway: &fakeGateway{},
		Targets: []Target{payableTarget(), payableTarget()},
		Logger:  testLogger(),
	})
	require.Error(t, err)
}

func TestCreateIntentThenConfirm(t *testing.T) {
	gateway := &fakeGateway{}
	target := payableTarget()
	svc := newFakeService(t, gateway, target)
	ctx := context.Background()
	owner := target.state.OwnerID

	created, err := svc.CreateIntent(ctx, CreateIntentInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, ActorID: owner})
	require.NoError(t, err)
	require.Len(t, gateway.created, 1)
	assert.True(t, gateway.created[0].Amount.Equal(decimal.RequireFromString("64.25")))
	assert.Equal(t, created.PaymentIntentID, *target.state.PaymentIntentID)

	input := ConfirmInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, PaymentIntentID: created.PaymentIntentID, ActorID: owner}
	_, err = svc.Confirm(ctx, input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUpstream, typed.Code())
	assert.Equal(t, "payment not completed", typed.Message())
	assert.Empty(t, target.applied)

	gateway.succeed(created.PaymentIntentID)
	result, err := svc.Confirm(ctx, input)
	require.NoError(t, err)
	assert.False(t, result.AlreadyPaid)
	assert.Equal(t, []string{created.PaymentIntentID}, target.applied)

	result, err = svc.Confirm(ctx, input)
	require.NoError(t, err)
	assert.True(t, result.AlreadyPaid)
	assert.Len(t, target.applied, 1)
	assert.Equal(t, 2, gateway.retrieve)
}

func TestConfirmGuards(t *testing.T) {
	gateway := &fakeGateway{}
	target := payableTarget()
	svc := newFakeService(t, gateway, target)
	ctx := context.Background()
	owner := target.state.OwnerID
	created, err := svc.CreateIntent(ctx, CreateIntentInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, ActorID: owner})
	require.NoError(t, err)
	gateway.succeed(created.PaymentIntentID)

	_, err = svc.Confirm(ctx, ConfirmInput{Kind: enums.PaymentTargetOrder, TargetID: uuid.New(), PaymentIntentID: created.PaymentIntentID, ActorID: owner})
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))

	_, err = svc.Confirm(ctx, ConfirmInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, PaymentIntentID: "pi_other", ActorID: owner})
	assert.Equal(t, pkgerrors.CodeNotFound, codeOf(err))

	_, err = svc.Confirm(ctx, ConfirmInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, PaymentIntentID: created.PaymentIntentID, ActorID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeForbidden, codeOf(err))

	_, err = svc.Confirm(ctx, ConfirmInput{Kind: enums.PaymentTargetPreOrder, TargetID: target.state.TargetID, PaymentIntentID: created.PaymentIntentID, ActorID: owner})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(err))

	_, err = svc.Confirm(ctx, ConfirmInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, ActorID: owner})
	assert.Equal(t, pkgerrors.CodeValidation, codeOf(err))

	assert.Empty(t, target.applied)
}

func TestConfirmGatewayFailureLeavesTargetUnpaid(t *testing.T) {
	gateway := &fakeGateway{}
	target := payableTarget()
	svc := newFakeService(t, gateway, target)
	ctx := context.Background()
	owner := target.state.OwnerID
	created, err := svc.CreateIntent(ctx, CreateIntentInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, ActorID: owner})
	require.NoError(t, err)

	gateway.err = pkgerrors.New(pkgerrors.CodeUpstream, "payment gateway timed out")
	_, err = svc.Confirm(ctx, ConfirmInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, PaymentIntentID: created.PaymentIntentID, ActorID: owner})
	assert.Equal(t, pkgerrors.CodeUpstream, codeOf(err))
	assert.False(t, target.state.Paid)
	assert.Empty(t, target.applied)
}

func TestCreateIntentRefusesBlockedTargets(t *testing.T) {
	gateway := &fakeGateway{}
	target := payableTarget()
	target.state.Blocked = "order is settled in cash on delivery"
	svc := newFakeService(t, gateway, target)

	_, err := svc.CreateIntent(context.Background(), CreateIntentInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, ActorID: target.state.OwnerID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, typed.Code())
	assert.Equal(t, "order is settled in cash on delivery", typed.Message())

	target.state.Blocked = ""
	target.state.Paid = true
	_, err = svc.CreateIntent(context.Background(), CreateIntentInput{Kind: enums.PaymentTargetOrder, TargetID: target.state.TargetID, ActorID: target.state.OwnerID})
	assert.Equal(t, pkgerrors.CodeInvalidTransition, codeOf(err))
	assert.Empty(t, gateway.created)
}

func TestHandleIntentSucceeded(t *testing.T) {
	gateway := &fakeGateway{}
	target := payableTarget()
	svc := newFakeService(t, gateway, target)
	ctx := context.Background()

	intent := &Intent{
		ID:     "pi_webhook",
		Status: intentStatusSucceeded,
		Metadata: map[string]string{
			MetadataTargetKind: string(enums.PaymentTargetOrder),
			MetadataTargetID:   target.state.TargetID.String(),
		},
	}
	require.NoError(t, svc.HandleIntentSucceeded(ctx, intent))
	require.NoError(t, svc.HandleIntentSucceeded(ctx, intent))
	assert.Equal(t, []string{"pi_webhook"}, target.applied)

	require.NoError(t, svc.HandleIntentSucceeded(ctx, &Intent{ID: "pi_foreign", Status: intentStatusSucceeded}))

	missing := &Intent{ID: "pi_gone", Status: intentStatusSucceeded, Metadata: map[string]string{
		MetadataTargetKind: string(enums.PaymentTargetOrder),
		MetadataTargetID:   uuid.NewString(),
	}}
	require.NoError(t, svc.HandleIntentSucceeded(ctx, missing))
}

func TestHandleIntentSucceededSurfacesStoreErrors(t *testing.T) {
	target := payableTarget()
	target.applyFn = func(uuid.UUID, string) error {
		return pkgerrors.New(pkgerrors.CodeDependency, "mark order paid")
	}
	svc := newFakeService(t, &fakeGateway{}, target)

	err := svc.HandleIntentSucceeded(context.Background(), &Intent{ID: "pi_1", Status: intentStatusSucceeded, Metadata: map[string]string{
		MetadataTargetKind: string(enums.PaymentTargetOrder),
		MetadataTargetID:   target.state.TargetID.String(),
	}})
	assert.Equal(t, pkgerrors.CodeDependency, codeOf(err))
}

type countingEmitter struct {
	mu      sync.Mutex
	notices []notifications.Notice
}

func (c *countingEmitter) Notify(ctx context.Context, notice notifications.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
}

func TestPreOrderConfirmationEndToEnd(t *testing.T) {
	conn := dbtest.Open(t)
	emitter := &countingEmitter{}
	preorderSvc, err := preorders.NewService(preorders.ServiceParams{
		Repo:              preorders.NewRepository(conn),
		TransactionRunner: db.NewFromConn(conn),
		Outbox:            outbox.NewService(outbox.NewRepository(conn), nil),
		Notifier:          emitter,
		Logger:            testLogger(),
		PaymentTermMonths: 1,
	})
	require.NoError(t, err)
	gateway := &fakeGateway{}
	svc := newFakeService(t, gateway, NewPreOrderTarget(preorderSvc))
	ctx := context.Background()

	sellerID, supplierID := uuid.New(), uuid.New()
	preorder, err := preorderSvc.Submit(ctx, sellerID, preorders.SubmitInput{
		MaterialName:          "Cement",
		Quantity:              "40 bags",
		ContactEmail:          "seller@example.com",
		ContactPhone:          "+15550101",
		PreferredDeliveryDate: time.Now().Add(72 * time.Hour),
		PaymentOption:         enums.PaymentOptionPayNow,
	})
	require.NoError(t, err)

	_, err = svc.CreateIntent(ctx, CreateIntentInput{Kind: enums.PaymentTargetPreOrder, TargetID: preorder.ID, ActorID: sellerID})
	require.Equal(t, pkgerrors.CodeInvalidTransition, codeOf(err))

	price := "5000"
	_, err = preorderSvc.Decide(ctx, preorders.DecideInput{PreOrderID: preorder.ID, SupplierID: supplierID, Decision: enums.PreOrderDecisionAccept, Price: &price})
	require.NoError(t, err)

	created, err := svc.CreateIntent(ctx, CreateIntentInput{Kind: enums.PaymentTargetPreOrder, TargetID: preorder.ID, ActorID: sellerID})
	require.NoError(t, err)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(5000)))
	gateway.succeed(created.PaymentIntentID)

	input := ConfirmInput{Kind: enums.PaymentTargetPreOrder, TargetID: preorder.ID, PaymentIntentID: created.PaymentIntentID, ActorID: sellerID}
	first, err := svc.Confirm(ctx, input)
	require.NoError(t, err)
	assert.False(t, first.AlreadyPaid)

	webhookIntent := gateway.intents[created.PaymentIntentID]
	require.NoError(t, svc.HandleIntentSucceeded(ctx, webhookIntent))

	second, err := svc.Confirm(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.AlreadyPaid)

	stored, err := preorderSvc.Get(ctx, preorder.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PreOrderStatusPaid, stored.Status)
	assert.True(t, stored.Paid)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	payments := 0
	for _, notice := range emitter.notices {
		if notice.Type == enums.NotificationTypePreOrderPayment {
			payments++
			assert.Equal(t, supplierID, notice.UserID)
		}
	}
	assert.Equal(t, 1, payments)
}
