package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway/paystack"
	"app/internal/handler"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "sk_test_handler_secret"

// =====================
// In-memory fakes
// =====================

// 注文をメモリ上に持つフェイク。MarkPaidの条件付き更新の意味も再現する。
type memOrderStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[string]*model.Order
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{nextID: 1, orders: map[string]*model.Order{}}
}

func (s *memOrderStore) Create(ctx context.Context, order model.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = s.nextID
	s.nextID++
	s.orders[order.Reference] = &order
	return order.ID, nil
}

func (s *memOrderStore) FindByReference(ctx context.Context, reference string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[reference]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return *o, nil
}

func (s *memOrderStore) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (s *memOrderStore) MarkPaid(ctx context.Context, reference string, paidAt time.Time, providerRef string, metadata string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[reference]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = model.OrderStatusPaid
	o.PaidAt = &paidAt
	o.ProviderRef = providerRef
	o.Metadata = metadata
	return true, nil
}

func (s *memOrderStore) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (s *memOrderStore) SummarizeSales(ctx context.Context) (repo.SalesSummary, error) {
	return repo.SalesSummary{}, nil
}

type memAuditStore struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (s *memAuditStore) Create(ctx context.Context, log model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func (s *memAuditStore) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.logs...), nil
}

type fakeTxRepos struct {
	orders repo.OrderRepository
	audits repo.AuditLogRepository
}

func (r *fakeTxRepos) Orders() repo.OrderRepository       { return r.orders }
func (r *fakeTxRepos) Users() repo.UserRepository         { panic("not used in handler tests") }
func (r *fakeTxRepos) Products() repo.ProductRepository   { panic("not used in handler tests") }
func (r *fakeTxRepos) AuditLogs() repo.AuditLogRepository { return r.audits }

type fakeTxManager struct{ repos repo.TxRepos }

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// 決済ページURLを即返すフェイクゲートウェイ
type fakeGateway struct {
	lastInitialize paystack.InitializeRequest
}

func (g *fakeGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (paystack.InitializeResult, error) {
	g.lastInitialize = req
	return paystack.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/" + req.Reference,
		AccessCode:       "ac_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (paystack.VerifyResult, error) {
	return paystack.VerifyResult{Status: "success", AmountMinor: 18600, Currency: "NGN"}, nil
}

// =====================
// Harness
// =====================

type paymentHarness struct {
	e       *echo.Echo
	orders  *memOrderStore
	audits  *memAuditStore
	gateway *fakeGateway
}

func newPaymentHarness() *paymentHarness {
	orders := newMemOrderStore()
	audits := &memAuditStore{}
	gateway := &fakeGateway{}

	tx := &fakeTxManager{repos: &fakeTxRepos{orders: orders, audits: audits}}
	uc := usecase.NewPaymentUsecase(tx, orders, gateway, usecase.PaymentConfig{
		SecretKey: testSecret,
		Currency:  "NGN",
		SiteURL:   "https://shop.example.com",
	}, zap.NewNop())

	e := echo.New()
	handler.NewPaymentHandler(uc).RegisterRoutes(e)

	return &paymentHarness{e: e, orders: orders, audits: audits, gateway: gateway}
}

func (h *paymentHarness) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func signHandlerBody(body string) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

// =====================
// Tests
// =====================

func TestPaymentFlow_InitializeThenWebhook(t *testing.T) {
	h := newPaymentHarness()

	// 1. チェックアウト開始
	body := `{"amount":18600,"email":"a@b.com","items":[{"id":1,"name":"S203 1-Seater","price":186,"quantity":1}]}`
	rec := h.do(http.MethodPost, "/payments/initialize", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var initResp struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	assert.NotEmpty(t, initResp.Reference)
	assert.Contains(t, initResp.AuthorizationURL, "https://checkout.paystack.com/")

	// 注文はpendingで作られ、itemsは受け取ったJSONのまま
	order, err := h.orders.FindByReference(context.Background(), initResp.Reference)
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(18600), order.AmountMinor)
	assert.Equal(t, "NGN", order.Currency)
	assert.JSONEq(t, `[{"id":1,"name":"S203 1-Seater","price":186,"quantity":1}]`, order.Items)
	assert.Nil(t, order.PaidAt)

	// 2. charge.successのWebhookで確定
	event := fmt.Sprintf(`{"event":"charge.success","data":{"id":555,"reference":%q,"amount":18600,"currency":"NGN","channel":"card"}}`, initResp.Reference)
	rec = h.do(http.MethodPost, "/payments/webhook", event, map[string]string{
		usecase.SignatureHeader: signHandlerBody(event),
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	order, err = h.orders.FindByReference(context.Background(), initResp.Reference)
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.NotNil(t, order.PaidAt)
	assert.Equal(t, "555", order.ProviderRef)

	var metadata map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(order.Metadata), &metadata))
	ps, ok := metadata["paystack"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "card", ps["channel"])

	// 監査ログが1件残る
	logs, err := h.audits.List(context.Background(), repo.AuditLogFilter{})
	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionOrderPaid, logs[0].Action)
}

func TestInitialize_InvalidBodyReturns400(t *testing.T) {
	h := newPaymentHarness()

	rec := h.do(http.MethodPost, "/payments/initialize", `{"amount":0,"email":"","items":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "amount, email and items[] are required", resp.Error)
}

func TestWebhook_InvalidSignatureReturns401(t *testing.T) {
	h := newPaymentHarness()

	event := `{"event":"charge.success","data":{"id":1,"reference":"ref_1_x","amount":100,"currency":"NGN"}}`
	rec := h.do(http.MethodPost, "/payments/webhook", event, map[string]string{
		usecase.SignatureHeader: "deadbeef",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhook_MissingSignatureReturns401(t *testing.T) {
	h := newPaymentHarness()

	event := `{"event":"charge.success","data":{"reference":"ref_1_x"}}`
	rec := h.do(http.MethodPost, "/payments/webhook", event, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 再配送は200のACKを返すだけで注文は変化しない
func TestWebhook_DuplicateDelivery(t *testing.T) {
	h := newPaymentHarness()

	body := `{"amount":18600,"email":"a@b.com","items":[{"id":1}]}`
	rec := h.do(http.MethodPost, "/payments/initialize", body, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var initResp struct {
		Reference string `json:"reference"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))

	event := fmt.Sprintf(`{"event":"charge.success","data":{"id":555,"reference":%q,"amount":18600,"currency":"NGN","channel":"card"}}`, initResp.Reference)
	headers := map[string]string{usecase.SignatureHeader: signHandlerBody(event)}

	rec = h.do(http.MethodPost, "/payments/webhook", event, headers)
	assert.Equal(t, http.StatusOK, rec.Code)

	order, _ := h.orders.FindByReference(context.Background(), initResp.Reference)
	firstPaidAt := *order.PaidAt

	rec = h.do(http.MethodPost, "/payments/webhook", event, headers)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	order, _ = h.orders.FindByReference(context.Background(), initResp.Reference)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, firstPaidAt, *order.PaidAt)

	// 監査ログも増えない
	logs, _ := h.audits.List(context.Background(), repo.AuditLogFilter{})
	assert.Len(t, logs, 1)
}

func TestWebhook_UnknownReferenceStillAcknowledged(t *testing.T) {
	h := newPaymentHarness()

	event := `{"event":"charge.success","data":{"id":1,"reference":"ref_unknown","amount":100,"currency":"NGN"}}`
	rec := h.do(http.MethodPost, "/payments/webhook", event, map[string]string{
		usecase.SignatureHeader: signHandlerBody(event),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}

func TestVerify_Success(t *testing.T) {
	h := newPaymentHarness()

	rec := h.do(http.MethodGet, "/payments/verify?reference=ref_1_x", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
			Amount int64  `json:"amount"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "success", resp.Data.Status)
	assert.Equal(t, int64(18600), resp.Data.Amount)
}

func TestVerify_MissingReference(t *testing.T) {
	h := newPaymentHarness()

	rec := h.do(http.MethodGet, "/payments/verify", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handler.ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "missing reference", resp.Error)
}
