package preorders

import (
	"fmt"

	"github.com/angelmondragon/materialhub-backend/pkg/enums"
)

// Action names a lifecycle trigger.
type Action string

const (
	ActionSubmit      Action = "submit"
	ActionAccept      Action = "accept"
	ActionReject      Action = "reject"
	ActionPay         Action = "pay"
	ActionMarkOverdue Action = "mark_overdue"
	ActionDeliver     Action = "deliver"
	ActionCancel      Action = "cancel"
)

type transition struct {
	from []enums.PreOrderStatus
	to   enums.PreOrderStatus
	// unpaid adds paid = false to the conditional update.
	unpaid bool
}

// transitions is the complete state machine. Cancel has no target status because the row is deleted.
var transitions = map[Action]transition{
	ActionSubmit: {
		to: enums.PreOrderStatusPending,
	},
	ActionAccept: {
		from: []enums.PreOrderStatus{enums.PreOrderStatusPending},
		to:   enums.PreOrderStatusAccepted,
	},
	ActionReject: {
		from: []enums.PreOrderStatus{enums.PreOrderStatusPending},
		to:   enums.PreOrderStatusRejected,
	},
	ActionPay: {
		from:   []enums.PreOrderStatus{enums.PreOrderStatusAccepted, enums.PreOrderStatusOverdue},
		to:     enums.PreOrderStatusPaid,
		unpaid: true,
	},
	ActionMarkOverdue: {
		from:   []enums.PreOrderStatus{enums.PreOrderStatusAccepted},
		to:     enums.PreOrderStatusOverdue,
		unpaid: true,
	},
	ActionDeliver: {
		from: []enums.PreOrderStatus{enums.PreOrderStatusPaid},
		to:   enums.PreOrderStatusDelivered,
	},
	ActionCancel: {
		from: []enums.PreOrderStatus{
			enums.PreOrderStatusPending,
			enums.PreOrderStatusAccepted,
			enums.PreOrderStatusRejected,
			enums.PreOrderStatusOverdue,
		},
		unpaid: true,
	},
}

// Policy carries the configurable parts of the state machine. The zero value only delivers paid requests.
type Policy struct {
	// AllowUnpaidDelivery lets accepted or overdue requests be delivered, for cash on delivery.
	AllowUnpaidDelivery bool
}

// NewPolicy maps the deployment flag onto a Policy.
func NewPolicy(requirePaidBeforeDelivery bool) Policy {
	return Policy{AllowUnpaidDelivery: !requirePaidBeforeDelivery}
}

// AllowedFrom lists the statuses action may start from under p.
func (p Policy) AllowedFrom(action Action) []enums.PreOrderStatus {
	t, ok := transitions[action]
	if !ok {
		return nil
	}
	from := append([]enums.PreOrderStatus(nil), t.from...)
	if action == ActionDeliver && p.AllowUnpaidDelivery {
		from = append(from, enums.PreOrderStatusAccepted, enums.PreOrderStatusOverdue)
	}
	return from
}

// RequiresUnpaid reports whether action is only legal while paid = false.
func RequiresUnpaid(action Action) bool {
	return transitions[action].unpaid
}

// Next returns the target status of action from current, or an error when the table forbids it.
func (p Policy) Next(action Action, current enums.PreOrderStatus) (enums.PreOrderStatus, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("unknown action %q", action)
	}
	if action == ActionSubmit {
		return t.to, nil
	}
	for _, status := range p.AllowedFrom(action) {
		if status == current {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("%s not allowed from %s", action, current)
}

// ActionForDecision maps a supplier decision onto its lifecycle action.
func ActionForDecision(decision enums.PreOrderDecision) (Action, error) {
	switch decision {
	case enums.PreOrderDecisionAccept:
		return ActionAccept, nil
	case enums.PreOrderDecisionReject:
		return ActionReject, nil
	default:
		return "", fmt.Errorf("invalid decision %q", decision)
	}
}

// rejectionMessage is the client-facing reason action could not run against a request in current.
func rejectionMessage(action Action, current enums.PreOrderStatus, paid bool) string {
	if paid && (action == ActionPay || action == ActionCancel || action == ActionMarkOverdue) {
		return "already paid"
	}
	switch current {
	case enums.PreOrderStatusPending:
		switch action {
		case ActionPay:
			return "awaiting supplier decision"
		case ActionDeliver:
			return "not paid yet"
		default:
			return "request is still pending"
		}
	case enums.PreOrderStatusAccepted:
		switch action {
		case ActionAccept, ActionReject:
			return "already decided"
		case ActionDeliver:
			return "not paid yet"
		default:
			return "request is accepted"
		}
	case enums.PreOrderStatusRejected:
		switch action {
		case ActionAccept, ActionReject:
			return "already decided"
		default:
			return "request was rejected"
		}
	case enums.PreOrderStatusOverdue:
		if action == ActionDeliver {
			return "not paid yet"
		}
		if action == ActionAccept || action == ActionReject {
			return "already decided"
		}
		return "payment overdue"
	case enums.PreOrderStatusPaid:
		if action == ActionAccept || action == ActionReject {
			return "already decided"
		}
		return "already paid"
	case enums.PreOrderStatusDelivered:
		return "already delivered"
	case enums.PreOrderStatusCancelled:
		return "request was cancelled"
	default:
		return fmt.Sprintf("unknown status %q", current)
	}
}
