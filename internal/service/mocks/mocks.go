// Package mocks provides testify-backed mocks for the service
// interfaces, in the shape tests expect from mockery-generated code.
package mocks

import (
	"context"

	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockInitiator mocks service.Initiator
type MockInitiator struct {
	mock.Mock
}

// NewMockInitiator creates a mock wired to the test lifecycle
func NewMockInitiator(t testingT) *MockInitiator {
	m := &MockInitiator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInitiator) Initiate(ctx context.Context, req service.InitiationRequest) (*service.InitiationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InitiationResult), args.Error(1)
}

// MockReconciler mocks service.Reconciler
type MockReconciler struct {
	mock.Mock
}

// NewMockReconciler creates a mock wired to the test lifecycle
func NewMockReconciler(t testingT) *MockReconciler {
	m := &MockReconciler{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockReconciler) Apply(ctx context.Context, event *models.GatewayEvent) (*service.ApplyResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ApplyResult), args.Error(1)
}

func (m *MockReconciler) Refund(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

// MockTransactionQuerier mocks service.TransactionQuerier
type MockTransactionQuerier struct {
	mock.Mock
}

// NewMockTransactionQuerier creates a mock wired to the test lifecycle
func NewMockTransactionQuerier(t testingT) *MockTransactionQuerier {
	m := &MockTransactionQuerier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactionQuerier) GetByID(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionQuerier) ListForBuyer(ctx context.Context, actor models.Actor, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, actor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

// MockHealthChecker mocks service.HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

// NewMockHealthChecker creates a mock wired to the test lifecycle
func NewMockHealthChecker(t testingT) *MockHealthChecker {
	m := &MockHealthChecker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockHealthChecker) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
