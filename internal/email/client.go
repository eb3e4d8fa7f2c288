// Package email はトランザクションメール配送機能を提供する。
// Resend互換のJSON APIを呼び出してOTPメールを配送する。
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Dispatcher はメール配送のインターフェース。
type Dispatcher interface {
	// Send は指定アドレスへHTMLメールを1通送信する。
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Client はResend APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	sender     string
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにはタイムアウト付きの安全なクライアントを渡すこと。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey, sender string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
		sender:     sender,
	}
}

// sendRequest はResendの送信エンドポイントのリクエストボディ。
type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send は指定アドレスへHTMLメールを1通送信する。
// 2xx以外のレスポンスはエラーとして返す。失敗詳細はログのみに記録する。
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(sendRequest{
		From:    c.sender,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("email delivery request failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("email delivery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("email API returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(respBody)),
		)
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}

	return nil
}

// compile-time interface check
var _ Dispatcher = (*Client)(nil)
