package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/payments")
	g.POST("/initialize", h.initialize)
	g.GET("/verify", h.verify)
	g.POST("/webhook", h.webhook)
}

type initializeRequest struct {
	Amount int64           `json:"amount"`
	Email  string          `json:"email"`
	Items  json.RawMessage `json:"items"`
	UserID *int64          `json:"userId"`
}

func (h *PaymentHandler) initialize(c echo.Context) error {
	var req initializeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.InitializePayment(c.Request().Context(), usecase.InitializePaymentInput{
		AmountMinor: req.Amount,
		Email:       req.Email,
		ItemsJSON:   req.Items,
		UserID:      req.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

type verifyResponse struct {
	Success bool                        `json:"success"`
	Data    usecase.VerifyPaymentOutput `json:"data"`
}

func (h *PaymentHandler) verify(c echo.Context) error {
	reference := c.QueryParam("reference")

	out, err := h.uc.VerifyPayment(c.Request().Context(), reference)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, verifyResponse{Success: true, Data: out})
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// Paystackからのサーバー間通知。署名検証は受信した生のボディに対して行うため、
// ここではBindせずにそのまま読む。
func (h *PaymentHandler) webhook(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	signature := c.Request().Header.Get(usecase.SignatureHeader)

	if err := h.uc.HandleWebhook(c.Request().Context(), rawBody, signature); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, webhookResponse{Received: true})
}
