package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway/paystack"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Paystackが署名に使うヘッダ名
const SignatureHeader = "X-Paystack-Signature"

// pending→paid遷移を起こす唯一のイベント種別
const eventChargeSuccess = "charge.success"

// 決済まわりの設定。SecretKeyはWebhookの共有シークレットも兼ねる。
type PaymentConfig struct {
	SecretKey string
	Currency  string
	SiteURL   string
}

type PaymentUsecase struct {
	tx      repo.TransactionManager
	orders  repo.OrderRepository
	gateway paystack.Client
	cfg     PaymentConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	gateway paystack.Client,
	cfg PaymentConfig,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:      tx,
		orders:  orders,
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

type InitializePaymentInput struct {
	AmountMinor int64
	Email       string
	//カート内容はそのまま保存するので受け取った生のJSONを持ち回る
	ItemsJSON json.RawMessage
	UserID    *int64
}

type InitializePaymentOutput struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// InitializePaymentはpendingの注文行を作り、Paystackの決済ページURLを返す。
// ゲートウェイが失敗しても作った行はpendingのまま残す（確定されないだけ）。
func (u *PaymentUsecase) InitializePayment(ctx context.Context, in InitializePaymentInput) (InitializePaymentOutput, error) {
	if in.AmountMinor <= 0 || strings.TrimSpace(in.Email) == "" || !isNonEmptyJSONArray(in.ItemsJSON) {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "amount, email and items[] are required")
	}
	if u.cfg.SecretKey == "" {
		return InitializePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "payment gateway is not configured")
	}

	reference := newReference(u.now())
	metadata, _ := json.Marshal(map[string]string{"created_via": "checkout"})

	order := model.Order{
		Reference:   reference,
		UserID:      in.UserID,
		Email:       in.Email,
		AmountMinor: in.AmountMinor,
		Currency:    u.cfg.Currency,
		Status:      model.OrderStatusPending,
		Items:       string(in.ItemsJSON),
		Metadata:    string(metadata),
	}
	if _, err := u.orders.Create(ctx, order); err != nil {
		u.logger.Error("create pending order failed", zap.Error(err))
		return InitializePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	res, err := u.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       in.Email,
		AmountMinor: in.AmountMinor,
		Reference:   reference,
		CallbackURL: strings.TrimRight(u.cfg.SiteURL, "/") + "/checkout/success",
		Currency:    u.cfg.Currency,
		Metadata: map[string]string{
			"reference": reference,
			"app":       "storefront",
		},
	})
	if err != nil {
		//注文行はpendingのまま残る。リトライはユーザー操作に任せる。
		u.logger.Error("paystack initialize failed",
			zap.String("reference", reference),
			zap.Error(err))
		return InitializePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "Payment initialization failed")
	}

	return InitializePaymentOutput{
		AuthorizationURL: res.AuthorizationURL,
		Reference:        res.Reference,
	}, nil
}

type VerifyPaymentOutput struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Channel     string `json:"channel"`
	PaidAt      string `json:"paid_at"`
}

// VerifyPaymentは成功ページ向けの参照専用API。注文行は書き換えない。
// 正とするのはWebhook側なので、ここがsuccessでも注文はまだpendingのことがある。
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, reference string) (VerifyPaymentOutput, error) {
	if strings.TrimSpace(reference) == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "missing reference")
	}
	if u.cfg.SecretKey == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "payment gateway is not configured")
	}

	res, err := u.gateway.Verify(ctx, reference)
	if err != nil {
		msg := "Verification failed"
		if ge, ok := paystack.AsGatewayError(err); ok && ge.Message != "" {
			msg = ge.Message
		}
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, msg)
	}

	if res.Status != "success" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "Verification failed")
	}

	return VerifyPaymentOutput{
		Reference:   reference,
		Status:      res.Status,
		AmountMinor: res.AmountMinor,
		Currency:    res.Currency,
		Channel:     res.Channel,
		PaidAt:      res.PaidAt,
	}, nil
}

// Paystackのイベントエンベロープ
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Channel   string `json:"channel"`
	} `json:"data"`
}

// HandleWebhookはPaystackからのサーバー間通知を処理する。
// 署名が正しければ、中身が何であれ最終的にACK（nil）を返すのが原則。
// ここで4xx/5xxを返すとゲートウェイが再送し続けるため。
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if u.cfg.SecretKey == "" {
		return NewHTTPError(http.StatusInternalServerError, "webhook secret is not configured")
	}

	//パースより先に、受信した生のバイト列に対して署名検証する
	if !validSignature(u.cfg.SecretKey, rawBody, signature) {
		return NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		//署名済みだが読めないボディ。ACKして再送ループを避ける。
		u.logger.Warn("webhook body unparseable", zap.Error(err))
		return nil
	}

	if event.Event != eventChargeSuccess {
		return nil
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByReference(ctx, event.Data.Reference)
		if errors.Is(err, repo.ErrNotFound) {
			u.logger.Warn("webhook for unknown reference",
				zap.String("reference", event.Data.Reference))
			return nil
		}
		if err != nil {
			return err
		}

		//金額・通貨は作成時の値が正。違う通知ではpaidにしない。
		if order.AmountMinor != event.Data.Amount || order.Currency != event.Data.Currency {
			u.logger.Warn("webhook amount/currency mismatch",
				zap.String("reference", order.Reference),
				zap.Int64("expected_amount", order.AmountMinor),
				zap.Int64("got_amount", event.Data.Amount),
				zap.String("expected_currency", order.Currency),
				zap.String("got_currency", event.Data.Currency))
			return nil
		}

		if order.Status == model.OrderStatusPaid {
			//同じイベントの再送。何もしないでACK。
			return nil
		}

		paidAt := u.now()
		metadata := mergeChannelMetadata(order.Metadata, event.Data.Channel)

		won, err := r.Orders().MarkPaid(ctx, order.Reference, paidAt, strconv.FormatInt(event.Data.ID, 10), metadata)
		if err != nil {
			return err
		}
		if !won {
			//同時配送の相手が先に遷移させた
			u.logger.Info("webhook transition lost race",
				zap.String("reference", order.Reference))
			return nil
		}

		afterJSON, _ := json.Marshal(map[string]string{
			"status":       string(model.OrderStatusPaid),
			"provider_ref": strconv.FormatInt(event.Data.ID, 10),
		})
		beforeJSON, _ := json.Marshal(map[string]string{
			"status": string(model.OrderStatusPending),
		})
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  0,
			Action:       model.AuditActionOrderPaid,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    paidAt,
		}); err != nil {
			return err
		}

		//会員の購入実績を加算（ゲスト購入はスキップ）
		if order.UserID != nil {
			if err := r.Users().IncrementCustomerTotals(ctx, *order.UserID, order.AmountMinor); err != nil {
				return err
			}
		}

		u.logger.Info("order marked paid",
			zap.String("reference", order.Reference),
			zap.Int64("amount_minor", order.AmountMinor),
			zap.String("currency", order.Currency),
			zap.String("channel", event.Data.Channel))
		return nil
	})
	if err != nil {
		u.logger.Error("webhook processing failed", zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return nil
}

// 時刻成分＋乱数成分。uuid由来なので実用上衝突しない。
func newReference(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("ref_%d_%s", now.UnixMilli(), random)
}

// HMAC-SHA512をhexにしたものがヘッダ値と一致するかを定数時間で見る
func validSignature(secret string, rawBody []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(rawBody)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(signature))
}

// 既存のmetadataにpaystackのチャネル情報をマージする。上書きはしない。
func mergeChannelMetadata(existing string, channel string) string {
	m := map[string]interface{}{}
	if existing != "" {
		//壊れたJSONなら空のバッグから作り直す
		_ = json.Unmarshal([]byte(existing), &m)
	}
	m["paystack"] = map[string]string{"channel": channel}
	merged, _ := json.Marshal(m)
	return string(merged)
}

func isNonEmptyJSONArray(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return false
	}
	return len(items) > 0
}
