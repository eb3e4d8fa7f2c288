package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/saathi/internal/model"
)

// sessionDataPath は外部OAuthバックエンドのセッション交換エンドポイントのパス。
const sessionDataPath = "/auth/v1/env/oauth/session-data"

// GoogleSessionClient は外部OAuthバックエンドとのセッション交換クライアント。
// Google認証フロー自体は外部バックエンドが完結させ、
// こちらは発行済みセッションIDをユーザー情報に交換するだけの信頼境界。
type GoogleSessionClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewGoogleSessionClient はGoogleSessionClientを生成する。
// httpClientにはタイムアウト付きの安全なクライアントを渡すこと。
func NewGoogleSessionClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *GoogleSessionClient {
	return &GoogleSessionClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// sessionDataResponse はセッション交換エンドポイントのレスポンス。
type sessionDataResponse struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// ExchangeSession は外部セッションIDをユーザー情報とトークンに交換する。
// 200以外のレスポンスはInvalidExternalSessionとして返す。
func (c *GoogleSessionClient) ExchangeSession(ctx context.Context, sessionID string) (*ExternalSessionData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sessionDataPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session-data request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("oauth backend request failed",
			slog.String("error", err.Error()),
		)
		return nil, model.NewDependencyError()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("oauth backend rejected session",
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewInvalidExternalSessionError()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read session-data response: %w", err)
	}

	var parsed sessionDataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse session-data response: %w", err)
	}

	if parsed.Email == "" || parsed.SessionToken == "" {
		return nil, fmt.Errorf("incomplete session data in response")
	}

	return &ExternalSessionData{
		Email:        parsed.Email,
		Name:         parsed.Name,
		Picture:      parsed.Picture,
		SessionToken: parsed.SessionToken,
	}, nil
}

// compile-time interface check
var _ ExternalSessionExchanger = (*GoogleSessionClient)(nil)
