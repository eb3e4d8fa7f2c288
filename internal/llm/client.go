// Package llm はLLMプロバイダーへの単発チャット補完クライアントを提供する。
// ストリーミングは使用せず、1リクエストにつき1応答テキストを取得する。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Completer は単発チャット補完のインターフェース。
type Completer interface {
	// Complete はシステムプロンプトとユーザーメッセージから応答テキストを1件取得する。
	// conversationIDはプロバイダー側のスレッドキーとして送信される。
	Complete(ctx context.Context, conversationID, systemPrompt, userMessage string) (string, error)
}

// Client はchat-completions互換APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	model      string
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにはタイムアウト付きの安全なクライアントを渡すこと。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// completionMessage はリクエスト内の1メッセージ。
type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest はchat-completionsエンドポイントのリクエストボディ。
// Userフィールドには会話スレッドIDを渡し、プロバイダー側の追跡キーとする。
type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
	User     string              `json:"user,omitempty"`
}

// completionResponse はchat-completionsエンドポイントのレスポンス。
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete はシステムプロンプトとユーザーメッセージから応答テキストを1件取得する。
func (c *Client) Complete(ctx context.Context, conversationID, systemPrompt, userMessage string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []completionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		User: conversationID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("llm request failed",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conversationID),
		)
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("llm API returned error status",
			slog.Int("http_status", resp.StatusCode),
			slog.String("conversation_id", conversationID),
		)
		return "", fmt.Errorf("llm API returned status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion in response")
	}

	return parsed.Choices[0].Message.Content, nil
}

// compile-time interface check
var _ Completer = (*Client)(nil)
