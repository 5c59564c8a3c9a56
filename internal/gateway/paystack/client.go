package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.paystack.co"

// Paystackが明示的に失敗を返したとき（status=falseや非2xx）のエラー。
// Messageはそのまま呼び出し元（UI）に出せる文言。
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("paystack error: status %d", e.StatusCode)
}

func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	CallbackURL string
	Currency    string
	Metadata    map[string]string
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// verifyの結果。StatusはPaystack内部のトランザクション状態
// （"success" / "failed" / "abandoned" など）。
type VerifyResult struct {
	Status        string
	AmountMinor   int64
	Currency      string
	TransactionID int64
	Channel       string
	PaidAt        string
}

// Client は決済ゲートウェイへの外部呼び出しの約束。
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
}

// HTTPClient はPaystack REST APIを呼ぶ実装。
type HTTPClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// Paystack応答の共通エンベロープ
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Channel  string `json:"channel"`
	PaidAt   string `json:"paid_at"`
}

func NewHTTPClient(baseURL string, secretKey string, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *HTTPClient) Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	payload := map[string]interface{}{
		"email":        req.Email,
		"amount":       req.AmountMinor,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"currency":     req.Currency,
		"metadata":     req.Metadata,
	}

	var data initializeData
	if err := c.post(ctx, "/transaction/initialize", payload, &data); err != nil {
		return InitializeResult{}, err
	}

	return InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (c *HTTPClient) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var data verifyData
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.get(ctx, path, &data); err != nil {
		return VerifyResult{}, err
	}

	return VerifyResult{
		Status:        data.Status,
		AmountMinor:   data.Amount,
		Currency:      data.Currency,
		TransactionID: data.ID,
		Channel:       data.Channel,
		PaidAt:        data.PaidAt,
	}, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		//タイムアウト・接続不可もゲートウェイ失敗として扱う
		return &GatewayError{Message: "payment gateway unreachable"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Error("paystack returned malformed body",
			zap.Int("status", resp.StatusCode),
			zap.String("path", req.URL.Path))
		return &GatewayError{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		c.logger.Error("paystack request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("path", req.URL.Path),
			zap.String("message", env.Message))
		return &GatewayError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return err
		}
	}

	return nil
}
