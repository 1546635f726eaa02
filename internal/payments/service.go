package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/materialhub-backend/pkg/errors"
	"github.com/angelmondragon/materialhub-backend/pkg/logger"
	"github.com/angelmondragon/materialhub-backend/pkg/metrics"
)

// Confirmation outcomes beyond the lifecycle results.
const resultDuplicate = "duplicate"

type ServiceParams struct {
	Gateway Gateway
	Targets []Target
	Metrics *metrics.LifecycleMetrics
	Logger  *logger.Logger
}

// Service confirms gateway payments against any registered target kind.
type Service struct {
	gateway Gateway
	targets map[enums.PaymentTargetKind]Target
	metrics *metrics.LifecycleMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	if len(params.Targets) == 0 {
		return nil, errors.New("at least one payment target required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	targets := make(map[enums.PaymentTargetKind]Target, len(params.Targets))
	for _, target := range params.Targets {
		if _, dup := targets[target.Kind()]; dup {
			return nil, fmt.Errorf("payment target %s registered twice", target.Kind())
		}
		targets[target.Kind()] = target
	}
	return &Service{
		gateway: params.Gateway,
		targets: targets,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

type CreateIntentInput struct {
	Kind     enums.PaymentTargetKind
	TargetID uuid.UUID
	ActorID  uuid.UUID
}

type CreateIntentResult struct {
	PaymentIntentID string          `json:"paymentIntentId"`
	ClientSecret    string          `json:"clientSecret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// CreateIntent opens a gateway intent for the target's quoted amount and stores its id on the target.
func (s *Service) CreateIntent(ctx context.Context, input CreateIntentInput) (*CreateIntentResult, error) {
	target, err := s.target(input.Kind)
	if err != nil {
		return nil, err
	}
	state, err := s.ownedState(ctx, target, input.TargetID, input.ActorID)
	if err != nil {
		return nil, err
	}
	if state.Paid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "already paid")
	}
	if state.Blocked != "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, state.Blocked)
	}
	if !state.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "no amount to charge")
	}

	intent, err := s.gateway.CreateIntent(ctx, CreateIntentRequest{
		Kind:     input.Kind,
		TargetID: input.TargetID,
		Amount:   state.Amount,
	})
	if err != nil {
		return nil, err
	}
	if err := target.AttachIntent(ctx, input.TargetID, input.ActorID, intent.ID); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"target_kind":       string(input.Kind),
		"target_id":         input.TargetID.String(),
		"payment_intent_id": intent.ID,
	}), "payment intent created")
	return &CreateIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          state.Amount,
		Currency:        intent.Currency,
	}, nil
}

type ConfirmInput struct {
	Kind            enums.PaymentTargetKind
	TargetID        uuid.UUID
	PaymentIntentID string
	ActorID         uuid.UUID
}

type ConfirmResult struct {
	Kind            enums.PaymentTargetKind `json:"kind"`
	TargetID        uuid.UUID               `json:"targetId"`
	PaymentIntentID string                  `json:"paymentIntentId"`
	AlreadyPaid     bool                    `json:"alreadyPaid"`
}

// Confirm checks the intent with the gateway and marks the target paid. Repeating it after success is a no-op.
func (s *Service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	input.PaymentIntentID = strings.TrimSpace(input.PaymentIntentID)
	if input.PaymentIntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	target, err := s.target(input.Kind)
	if err != nil {
		return nil, err
	}

	result, err := s.confirm(ctx, target, input)
	s.record(input.Kind, result, err)
	return result, err
}

func (s *Service) confirm(ctx context.Context, target Target, input ConfirmInput) (*ConfirmResult, error) {
	state, err := s.ownedState(ctx, target, input.TargetID, input.ActorID)
	if err != nil {
		return nil, err
	}
	if state.PaymentIntentID == nil || *state.PaymentIntentID != input.PaymentIntentID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found for target")
	}
	result := &ConfirmResult{Kind: input.Kind, TargetID: input.TargetID, PaymentIntentID: input.PaymentIntentID}
	if state.Paid {
		result.AlreadyPaid = true
		return result, nil
	}

	intent, err := s.gateway.RetrieveIntent(ctx, input.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if !intent.Succeeded() {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "payment not completed").
			WithDetails(map[string]string{"status": intent.Status})
	}
	if kind, id, err := intent.Target(); err == nil && (kind != input.Kind || id != input.TargetID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found for target")
	}

	return s.apply(ctx, target, result)
}

// HandleIntentSucceeded settles the target named in a succeeded intent's metadata. Duplicates are no-ops.
func (s *Service) HandleIntentSucceeded(ctx context.Context, intent *Intent) error {
	kind, id, err := intent.Target()
	if err != nil {
		s.logg.Warn(ctx, "succeeded intent without payment target: "+err.Error())
		return nil
	}
	target, err := s.target(kind)
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"target_kind":       string(kind),
		"target_id":         id.String(),
		"payment_intent_id": intent.ID,
	})

	state, err := target.PaymentState(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(logCtx, "payment target no longer exists")
			s.metrics.PaymentConfirmation(string(kind), metrics.ResultRejected)
			return nil
		}
		return err
	}
	if state.Paid {
		s.metrics.PaymentConfirmation(string(kind), resultDuplicate)
		return nil
	}

	result, err := s.apply(ctx, target, &ConfirmResult{Kind: kind, TargetID: id, PaymentIntentID: intent.ID})
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		s.logg.Warn(logCtx, "gateway payment not applicable: "+err.Error())
		s.metrics.PaymentConfirmation(string(kind), metrics.ResultRejected)
		return nil
	}
	s.record(kind, result, err)
	return err
}

// apply marks the target paid. Losing a race to an identical confirmation counts as already paid.
func (s *Service) apply(ctx context.Context, target Target, result *ConfirmResult) (*ConfirmResult, error) {
	err := target.ApplyPayment(ctx, result.TargetID, result.PaymentIntentID)
	if err == nil {
		return result, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
		return nil, err
	}
	state, stateErr := target.PaymentState(ctx, result.TargetID)
	if stateErr == nil && state.Paid && state.PaymentIntentID != nil && *state.PaymentIntentID == result.PaymentIntentID {
		result.AlreadyPaid = true
		return result, nil
	}
	return nil, err
}

func (s *Service) ownedState(ctx context.Context, target Target, id, actorID uuid.UUID) (*TargetState, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	state, err := target.PaymentState(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to pay")
	}
	return state, nil
}

func (s *Service) target(kind enums.PaymentTargetKind) (Target, error) {
	target, ok := s.targets[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment target %q", kind))
	}
	return target, nil
}

func (s *Service) record(kind enums.PaymentTargetKind, result *ConfirmResult, err error) {
	switch {
	case err == nil && result != nil && result.AlreadyPaid:
		s.metrics.PaymentConfirmation(string(kind), resultDuplicate)
	case err == nil:
		s.metrics.PaymentConfirmation(string(kind), metrics.ResultApplied)
	case pkgerrors.IsCode(err, pkgerrors.CodeUpstream), pkgerrors.IsCode(err, pkgerrors.CodeDependency), pkgerrors.As(err) == nil:
		s.metrics.PaymentConfirmation(string(kind), metrics.ResultError)
	default:
		s.metrics.PaymentConfirmation(string(kind), metrics.ResultRejected)
	}
}
