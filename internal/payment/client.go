// Package payment は決済ゲートウェイ（Razorpay互換API）のオーダー作成クライアントを提供する。
// 決済の確定・照合ロジックは持たず、オーダー作成の薄い呼び出しのみを行う。
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// OrderCreator は決済オーダー作成のインターフェース。
type OrderCreator interface {
	// CreateOrder は金額（最小通貨単位）と通貨を指定してオーダーを作成し、オーダーIDを返す。
	CreateOrder(ctx context.Context, amountMinorUnits int, currency string) (string, error)
}

// Client はRazorpay Orders APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	keyID      string
	keySecret  string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, keyID, keySecret string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
	}
}

// orderRequest はオーダー作成エンドポイントのリクエストボディ。
// payment_capture=1で即時キャプチャを指定する。
type orderRequest struct {
	Amount         int    `json:"amount"`
	Currency       string `json:"currency"`
	PaymentCapture int    `json:"payment_capture"`
}

// orderResponse はオーダー作成エンドポイントのレスポンス。
type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder は決済オーダーを作成し、オーダーIDを返す。
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int, currency string) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:         amountMinorUnits,
		Currency:       currency,
		PaymentCapture: 1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("payment gateway request failed",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("payment gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("payment gateway returned error status",
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var parsed orderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse order response: %w", err)
	}

	if parsed.ID == "" {
		return "", fmt.Errorf("empty order id in response")
	}

	return parsed.ID, nil
}

// compile-time interface check
var _ OrderCreator = (*Client)(nil)
