package eligibility

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"promo-server/internal/domain/order"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
)

// MockOrderRepository モック注文リポジトリ
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) HasPaidOrder(ctx context.Context, userUUID, productID string) (bool, error) {
	args := m.Called(ctx, userUUID, productID)
	return args.Bool(0), args.Error(1)
}

func TestEligibilityApplicationService_Check(t *testing.T) {
	tests := []struct {
		name       string
		req        *CheckRequest
		setupMocks func(*MockOrderRepository)
		wantError  bool
		checkFunc  func(*testing.T, *CheckResponse, error)
	}{
		{
			name: "正常系: 支払い済み注文がないユーザーは対象",
			req:  &CheckRequest{UserUUID: "user-1"},
			setupMocks: func(mor *MockOrderRepository) {
				mor.On("HasPaidOrder", mock.Anything, "user-1", "newcomer-trial").Return(false, nil)
			},
			checkFunc: func(t *testing.T, resp *CheckResponse, err error) {
				require.NoError(t, err)
				assert.True(t, resp.Eligible)
				assert.Equal(t, "user-1", resp.UserUUID)
				assert.Equal(t, "newcomer-trial", resp.ProductID)
			},
		},
		{
			name: "正常系: 支払い済み注文があるユーザーは対象外",
			req:  &CheckRequest{UserUUID: "user-2"},
			setupMocks: func(mor *MockOrderRepository) {
				mor.On("HasPaidOrder", mock.Anything, "user-2", "newcomer-trial").Return(true, nil)
			},
			checkFunc: func(t *testing.T, resp *CheckResponse, err error) {
				require.NoError(t, err)
				assert.False(t, resp.Eligible)
			},
		},
		{
			name:       "異常系: ユーザーUUIDが空",
			req:        &CheckRequest{UserUUID: ""},
			setupMocks: func(mor *MockOrderRepository) {},
			wantError:  true,
		},
		{
			name: "異常系: DBエラー",
			req:  &CheckRequest{UserUUID: "user-1"},
			setupMocks: func(mor *MockOrderRepository) {
				mor.On("HasPaidOrder", mock.Anything, "user-1", "newcomer-trial").Return(false, sql.ErrConnDone)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockOrderRepo := new(MockOrderRepository)
			tt.setupMocks(mockOrderRepo)

			tracer := otel.Tracer("test")
			logger := otelinfra.NewLogger(tracer)

			svc := NewEligibilityApplicationService(mockOrderRepo, logger, "newcomer-trial")

			ctx := context.Background()
			got, err := svc.Check(ctx, tt.req)

			if tt.wantError {
				assert.Error(t, err)
			} else if tt.checkFunc != nil {
				tt.checkFunc(t, got, err)
			}
		})
	}
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, order.OrderStatusPaid.IsPaid())
	assert.False(t, order.OrderStatusPending.IsPaid())
	assert.False(t, order.OrderStatusCancelled.IsPaid())

	assert.Equal(t, "paid", order.OrderStatusPaid.String())
}
