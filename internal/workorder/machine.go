package workorder

import (
	"errors"
	"fmt"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// ErrInvalidTransition rejects a state change not in the table. The
// order's status is untouched by a failed attempt.
var ErrInvalidTransition = errors.New("invalid work order transition")

var allowedTransitions = map[domain.WorkOrderStatus][]domain.WorkOrderStatus{
	domain.OrderCreated:    {domain.OrderAssigned, domain.OrderCancelled},
	domain.OrderAssigned:   {domain.OrderInProgress, domain.OrderCancelled},
	domain.OrderInProgress: {domain.OrderCompleted, domain.OrderCancelled},
}

// Transition validates and applies a status change on the order.
func Transition(wo *domain.WorkOrder, target domain.WorkOrderStatus) error {
	for _, allowed := range allowedTransitions[wo.Status] {
		if allowed == target {
			wo.Status = target
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, wo.Status, target)
}

// CanTransition reports whether the change would be accepted.
func CanTransition(from, to domain.WorkOrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
