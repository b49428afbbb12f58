package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	discountapp "promo-server/internal/application/discount"
	"promo-server/internal/domain/discount_code"
	otelinfra "promo-server/internal/infrastructure/observability/otel"
	restmiddleware "promo-server/internal/presentation/rest/middleware"
)

func newDiscountTestService(t *testing.T, repo *MockDiscountCodeRepository) *discountapp.DiscountApplicationService {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	return discountapp.NewDiscountApplicationService(repo, nil, logger, metrics, 5)
}

func serveHandler(t *testing.T, handlerFn echo.HandlerFunc, c echo.Context) {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := otelinfra.NewLogger(tracer)

	e := echo.New()
	mw := restmiddleware.ErrorHandlerMiddleware(logger)
	if err := mw(handlerFn)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func testDiscountCode(code string) *discount_code.DiscountCode {
	dc := discount_code.MustNewDiscountCode(
		code,
		discount_code.DiscountTypePercentage,
		10,
		0,
		100,
		time.Now().Add(-24*time.Hour),
		time.Now().Add(24*time.Hour),
		nil,
		0,
	)
	dc.SetID(1)
	return dc
}

func TestDiscountHandler_ValidateCode(t *testing.T) {
	tests := []struct {
		name             string
		tokenUserUUID    string
		requestBody      map[string]interface{}
		setupMock        func(*MockDiscountCodeRepository)
		expectedStatus   int
		validateResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:          "正常系: 割引コード適用可能",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     1000,
			},
			setupMock: func(repo *MockDiscountCodeRepository) {
				repo.On("FindByCode", mock.Anything, "SAVE10").Return(testDiscountCode("SAVE10"), nil)
			},
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Envelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 0, resp.Code)
				assert.Equal(t, "discount applied", resp.Message)

				data := resp.Data.(map[string]interface{})
				assert.Equal(t, true, data["valid"])
				assert.Equal(t, float64(100), data["discount_amount"])
				assert.Equal(t, float64(900), data["final_amount"])
			},
		},
		{
			name:          "正常系: 存在しないコードはvalid=falseで200を返す",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "NOPE",
				"product_id": "prod-001",
				"amount":     1000,
			},
			setupMock: func(repo *MockDiscountCodeRepository) {
				repo.On("FindByCode", mock.Anything, "NOPE").Return(nil, discount_code.ErrCodeNotFound)
			},
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Envelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 0, resp.Code)

				data := resp.Data.(map[string]interface{})
				assert.Equal(t, false, data["valid"])
				assert.Equal(t, "code_not_found", data["reason"])
			},
		},
		{
			name:          "異常系: コード未指定",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"product_id": "prod-001",
				"amount":     1000,
			},
			setupMock:      func(repo *MockDiscountCodeRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:          "異常系: 金額が0以下",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     0,
			},
			setupMock:      func(repo *MockDiscountCodeRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:          "異常系: トークンにuser_uuidがない",
			tokenUserUUID: "",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     1000,
			},
			setupMock:      func(repo *MockDiscountCodeRepository) {},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockDiscountCodeRepository)
			tt.setupMock(mockRepo)

			handler := NewDiscountHandler(newDiscountTestService(t, mockRepo))

			body, _ := json.Marshal(tt.requestBody)
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/validate", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.tokenUserUUID != "" {
				c.Set("user_uuid", tt.tokenUserUUID)
			}

			serveHandler(t, handler.ValidateCode, c)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.validateResponse != nil {
				tt.validateResponse(t, rec)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestDiscountHandler_RedeemCode(t *testing.T) {
	tests := []struct {
		name             string
		tokenUserUUID    string
		requestBody      map[string]interface{}
		setupMock        func(*MockDiscountCodeRepository)
		expectedStatus   int
		validateResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:          "正常系: コード引き換え成功",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     1000,
				"order_no":   "ORD-0001",
			},
			setupMock: func(repo *MockDiscountCodeRepository) {
				repo.On("FindUsageByOrderNo", mock.Anything, "ORD-0001").Return(nil, discount_code.ErrUsageNotFound)
				repo.On("FindByCode", mock.Anything, "SAVE10").Return(testDiscountCode("SAVE10"), nil)
				repo.On("AtomicConsume", mock.Anything, int64(1), 0, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Envelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 0, resp.Code)

				data := resp.Data.(map[string]interface{})
				assert.Equal(t, true, data["valid"])
				assert.Equal(t, float64(900), data["final_amount"])
				assert.Nil(t, data["replayed"])
			},
		},
		{
			name:          "正常系: 同一注文番号の再送には前回と同じ結果を返す",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     1000,
				"order_no":   "ORD-0001",
			},
			setupMock: func(repo *MockDiscountCodeRepository) {
				usage := discount_code.NewDiscountUsage("usage-1", 1, "user-1", "ORD-0001", 100, 0)
				repo.On("FindUsageByOrderNo", mock.Anything, "ORD-0001").Return(usage, nil)
				repo.On("FindByID", mock.Anything, int64(1)).Return(testDiscountCode("SAVE10"), nil)
			},
			expectedStatus: http.StatusOK,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp Envelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

				data := resp.Data.(map[string]interface{})
				assert.Equal(t, true, data["valid"])
				assert.Equal(t, true, data["replayed"])
				assert.Equal(t, float64(900), data["final_amount"])
			},
		},
		{
			name:          "異常系: 競合リトライ上限に達すると409を返す",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     1000,
				"order_no":   "ORD-0002",
			},
			setupMock: func(repo *MockDiscountCodeRepository) {
				repo.On("FindUsageByOrderNo", mock.Anything, "ORD-0002").Return(nil, discount_code.ErrUsageNotFound)
				repo.On("FindByCode", mock.Anything, "SAVE10").Return(testDiscountCode("SAVE10"), nil)
				repo.On("AtomicConsume", mock.Anything, int64(1), 0, mock.Anything).Return(discount_code.ErrUsageConflict)
			},
			expectedStatus: http.StatusConflict,
			validateResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, -1, resp.Code)
			},
		},
		{
			name:          "異常系: order_no未指定",
			tokenUserUUID: "user-1",
			requestBody: map[string]interface{}{
				"code":       "SAVE10",
				"product_id": "prod-001",
				"amount":     1000,
			},
			setupMock:      func(repo *MockDiscountCodeRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockDiscountCodeRepository)
			tt.setupMock(mockRepo)

			handler := NewDiscountHandler(newDiscountTestService(t, mockRepo))

			body, _ := json.Marshal(tt.requestBody)
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/discounts/redeem", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.tokenUserUUID != "" {
				c.Set("user_uuid", tt.tokenUserUUID)
			}

			serveHandler(t, handler.RedeemCode, c)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.validateResponse != nil {
				tt.validateResponse(t, rec)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestDiscountHandler_ListRedemptions(t *testing.T) {
	t.Run("正常系: 履歴を取得できる", func(t *testing.T) {
		mockRepo := new(MockDiscountCodeRepository)
		usages := []*discount_code.DiscountUsage{
			discount_code.NewDiscountUsage("usage-1", 1, "user-1", "ORD-0001", 100, 0),
			discount_code.NewDiscountUsage("usage-2", 1, "user-1", "ORD-0002", 50, 0),
		}
		mockRepo.On("FindUsagesByUser", mock.Anything, "user-1", 50, 0).Return(usages, nil)

		handler := NewDiscountHandler(newDiscountTestService(t, mockRepo))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-1/redemptions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("user_uuid")
		c.SetParamValues("user-1")
		c.Set("user_uuid", "user-1")

		serveHandler(t, handler.ListRedemptions, c)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		items := data["redemptions"].([]interface{})
		assert.Len(t, items, 2)
		first := items[0].(map[string]interface{})
		assert.Equal(t, "ORD-0001", first["order_no"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("異常系: 他ユーザーの履歴は403", func(t *testing.T) {
		mockRepo := new(MockDiscountCodeRepository)
		handler := NewDiscountHandler(newDiscountTestService(t, mockRepo))

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user-2/redemptions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("user_uuid")
		c.SetParamValues("user-2")
		c.Set("user_uuid", "user-1")

		serveHandler(t, handler.ListRedemptions, c)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
