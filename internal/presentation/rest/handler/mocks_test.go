package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"promo-server/internal/domain/discount_code"
)

// MockDiscountCodeRepository モック割引コードリポジトリ
type MockDiscountCodeRepository struct {
	mock.Mock
}

func (m *MockDiscountCodeRepository) FindByCode(ctx context.Context, code string) (*discount_code.DiscountCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discount_code.DiscountCode), args.Error(1)
}

func (m *MockDiscountCodeRepository) FindByID(ctx context.Context, id int64) (*discount_code.DiscountCode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discount_code.DiscountCode), args.Error(1)
}

func (m *MockDiscountCodeRepository) AtomicConsume(ctx context.Context, codeID int64, expectedUsedCount int, usage *discount_code.DiscountUsage) error {
	args := m.Called(ctx, codeID, expectedUsedCount, usage)
	return args.Error(0)
}

func (m *MockDiscountCodeRepository) CountUsages(ctx context.Context, codeID int64, userUUID string) (int, error) {
	args := m.Called(ctx, codeID, userUUID)
	return args.Int(0), args.Error(1)
}

func (m *MockDiscountCodeRepository) FindUsageByOrderNo(ctx context.Context, orderNo string) (*discount_code.DiscountUsage, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discount_code.DiscountUsage), args.Error(1)
}

func (m *MockDiscountCodeRepository) FindUsagesByUser(ctx context.Context, userUUID string, limit, offset int) ([]*discount_code.DiscountUsage, error) {
	args := m.Called(ctx, userUUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discount_code.DiscountUsage), args.Error(1)
}

func (m *MockDiscountCodeRepository) Create(ctx context.Context, code *discount_code.DiscountCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockDiscountCodeRepository) FindAll(ctx context.Context, limit, offset int) ([]*discount_code.DiscountCode, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*discount_code.DiscountCode), args.Int(1), args.Error(2)
}

func (m *MockDiscountCodeRepository) Delete(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

// MockOrderRepository モック注文リポジトリ
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) HasPaidOrder(ctx context.Context, userUUID, productID string) (bool, error) {
	args := m.Called(ctx, userUUID, productID)
	return args.Bool(0), args.Error(1)
}
