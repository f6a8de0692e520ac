package workorder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

func TestTransitionHappyPath(t *testing.T) {
	wo := &domain.WorkOrder{Status: domain.OrderCreated}

	assert.NoError(t, Transition(wo, domain.OrderAssigned))
	assert.NoError(t, Transition(wo, domain.OrderInProgress))
	assert.NoError(t, Transition(wo, domain.OrderCompleted))
	assert.Equal(t, domain.OrderCompleted, wo.Status)
}

func TestTransitionRejectsBackwards(t *testing.T) {
	wo := &domain.WorkOrder{Status: domain.OrderCompleted}

	err := Transition(wo, domain.OrderInProgress)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	// A rejected transition leaves the status untouched.
	assert.Equal(t, domain.OrderCompleted, wo.Status)
}

func TestTransitionRejectsSkips(t *testing.T) {
	wo := &domain.WorkOrder{Status: domain.OrderCreated}
	assert.ErrorIs(t, Transition(wo, domain.OrderInProgress), ErrInvalidTransition)
	assert.ErrorIs(t, Transition(wo, domain.OrderCompleted), ErrInvalidTransition)
	assert.Equal(t, domain.OrderCreated, wo.Status)
}

func TestTransitionCancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []domain.WorkOrderStatus{
		domain.OrderCreated, domain.OrderAssigned, domain.OrderInProgress,
	} {
		wo := &domain.WorkOrder{Status: from}
		assert.NoError(t, Transition(wo, domain.OrderCancelled), "from %s", from)
	}
}

func TestTransitionTerminalStatesAreFinal(t *testing.T) {
	for _, from := range []domain.WorkOrderStatus{domain.OrderCompleted, domain.OrderCancelled} {
		for _, to := range []domain.WorkOrderStatus{
			domain.OrderCreated, domain.OrderAssigned, domain.OrderInProgress,
			domain.OrderCompleted, domain.OrderCancelled,
		} {
			wo := &domain.WorkOrder{Status: from}
			assert.ErrorIs(t, Transition(wo, to), ErrInvalidTransition, "%s -> %s", from, to)
		}
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(domain.OrderCreated, domain.OrderCancelled))
	assert.True(t, CanTransition(domain.OrderAssigned, domain.OrderInProgress))
	assert.False(t, CanTransition(domain.OrderCompleted, domain.OrderInProgress))
	assert.False(t, CanTransition(domain.OrderCancelled, domain.OrderAssigned))
}
