package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/saathi/internal/metrics"
	"github.com/hitoshi/saathi/internal/model"
)

type mockChatMessageRepository struct {
	createPairFn func(ctx context.Context, userMsg, assistantMsg *model.ChatMessage) error
	listFn       func(ctx context.Context, conversationID, userID string, limit int) ([]*model.ChatMessage, error)
	deleteFn     func(ctx context.Context, conversationID, userID string) error
}

func (m *mockChatMessageRepository) CreatePair(ctx context.Context, userMsg, assistantMsg *model.ChatMessage) error {
	return m.createPairFn(ctx, userMsg, assistantMsg)
}

func (m *mockChatMessageRepository) ListByConversation(ctx context.Context, conversationID, userID string, limit int) ([]*model.ChatMessage, error) {
	return m.listFn(ctx, conversationID, userID, limit)
}

func (m *mockChatMessageRepository) DeleteByConversation(ctx context.Context, conversationID, userID string) error {
	return m.deleteFn(ctx, conversationID, userID)
}

type mockCompleter struct {
	completeFn func(ctx context.Context, conversationID, systemPrompt, userMessage string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, conversationID, systemPrompt, userMessage string) (string, error) {
	return m.completeFn(ctx, conversationID, systemPrompt, userMessage)
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return raw }

type strippingSanitizer struct{}

func (strippingSanitizer) Sanitize(raw string) string {
	return strings.ReplaceAll(strings.ReplaceAll(raw, "<b>", ""), "</b>", "")
}

func testUser() *model.User {
	return &model.User{UserID: "user_abc123def456", Role: model.RoleUser}
}

func newTestService(repo *mockChatMessageRepository, completer *mockCompleter) *Service {
	svc := NewService(repo, completer, passthroughSanitizer{}, metrics.NopCollector{})
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestRespond_NonCrisis(t *testing.T) {
	var savedUser, savedAssistant *model.ChatMessage
	repo := &mockChatMessageRepository{
		createPairFn: func(_ context.Context, userMsg, assistantMsg *model.ChatMessage) error {
			savedUser = userMsg
			savedAssistant = assistantMsg
			return nil
		},
	}
	completer := &mockCompleter{
		completeFn: func(_ context.Context, conversationID, systemPrompt, userMessage string) (string, error) {
			if conversationID != "conv_abc123def456" {
				t.Errorf("conversationID = %q", conversationID)
			}
			if systemPrompt == "" {
				t.Error("system prompt should not be empty")
			}
			if userMessage != "I am worried about my marriage" {
				t.Errorf("userMessage = %q", userMessage)
			}
			return "It sounds like you are carrying a lot.", nil
		},
	}
	svc := newTestService(repo, completer)

	exchange, err := svc.Respond(context.Background(), testUser(), "conv_abc123def456", "I am worried about my marriage")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if exchange.Reply != "It sounds like you are carrying a lot." {
		t.Errorf("Reply = %q", exchange.Reply)
	}
	if exchange.IsCrisis {
		t.Error("IsCrisis should be false")
	}
	if exchange.Helplines != nil {
		t.Error("Helplines should be nil for non-crisis exchange")
	}

	if savedUser == nil || savedAssistant == nil {
		t.Fatal("both messages should be persisted")
	}
	if savedUser.Role != model.MessageRoleUser || savedAssistant.Role != model.MessageRoleAssistant {
		t.Error("message roles are wrong")
	}
	if savedUser.UserID != "user_abc123def456" || savedAssistant.UserID != "user_abc123def456" {
		t.Error("both messages should be owned by the caller")
	}
	if savedUser.IsCrisis {
		t.Error("user message should not be flagged as crisis")
	}
	if !strings.HasPrefix(savedUser.MessageID, "msg_") || !strings.HasPrefix(savedAssistant.MessageID, "msg_") {
		t.Error("message IDs should carry the msg_ prefix")
	}
	if savedUser.MessageID == savedAssistant.MessageID {
		t.Error("message IDs should be distinct")
	}
	if !savedAssistant.Timestamp.After(savedUser.Timestamp) {
		t.Errorf("assistant timestamp %v should be after user timestamp %v",
			savedAssistant.Timestamp, savedUser.Timestamp)
	}
}

// 固定時計でもアシスタント応答のtimestampがユーザー発話より後になり、
// ts昇順の履歴で往復内の順序が常にuser→assistantになることを検証する。
func TestRespond_AssistantTimestampOrdersAfterUser(t *testing.T) {
	var savedUser, savedAssistant *model.ChatMessage
	repo := &mockChatMessageRepository{
		createPairFn: func(_ context.Context, userMsg, assistantMsg *model.ChatMessage) error {
			savedUser = userMsg
			savedAssistant = assistantMsg
			return nil
		},
	}
	completer := &mockCompleter{
		completeFn: func(_ context.Context, _, _, _ string) (string, error) {
			return "I hear you.", nil
		},
	}
	svc := newTestService(repo, completer)

	if _, err := svc.Respond(context.Background(), testUser(), "conv_abc123def456", "hello"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if savedUser.Timestamp.Equal(savedAssistant.Timestamp) {
		t.Fatal("timestamps must not be identical, ORDER BY ts cannot order the pair")
	}
	if !savedAssistant.Timestamp.After(savedUser.Timestamp) {
		t.Errorf("assistant timestamp %v should be after user timestamp %v",
			savedAssistant.Timestamp, savedUser.Timestamp)
	}
}

func TestRespond_CrisisIncludesHelplines(t *testing.T) {
	var savedUser, savedAssistant *model.ChatMessage
	repo := &mockChatMessageRepository{
		createPairFn: func(_ context.Context, userMsg, assistantMsg *model.ChatMessage) error {
			savedUser = userMsg
			savedAssistant = assistantMsg
			return nil
		},
	}
	completer := &mockCompleter{
		completeFn: func(_ context.Context, _, _, _ string) (string, error) {
			return "Please reach out to someone right now.", nil
		},
	}
	svc := newTestService(repo, completer)

	exchange, err := svc.Respond(context.Background(), testUser(), "conv_abc123def456", "I want to end my life")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !exchange.IsCrisis {
		t.Error("IsCrisis should be true")
	}
	if exchange.Helplines["AASRA"] != "91-9820466726" {
		t.Errorf("Helplines missing AASRA entry: %v", exchange.Helplines)
	}
	if !savedUser.IsCrisis {
		t.Error("user message should be flagged as crisis")
	}
	if savedAssistant.IsCrisis {
		t.Error("assistant message should never be flagged as crisis")
	}
}

func TestRespond_LLMFailure(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		wantCrisis    bool
		wantHelplines bool
	}{
		{"non-crisis message", "how do I talk to my partner", false, false},
		{"crisis message keeps helplines", "I have no reason to live", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairCalled := false
			repo := &mockChatMessageRepository{
				createPairFn: func(_ context.Context, _, _ *model.ChatMessage) error {
					pairCalled = true
					return nil
				},
			}
			completer := &mockCompleter{
				completeFn: func(_ context.Context, _, _, _ string) (string, error) {
					return "", errors.New("upstream timeout")
				},
			}
			svc := newTestService(repo, completer)

			exchange, err := svc.Respond(context.Background(), testUser(), "conv_abc123def456", tt.message)
			if err == nil {
				t.Fatal("Respond() should fail when the LLM call fails")
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDependencyError {
				t.Errorf("error = %v, want code %s", err, model.ErrCodeDependencyError)
			}
			if exchange == nil {
				t.Fatal("a partial exchange should still be returned")
			}
			if exchange.IsCrisis != tt.wantCrisis {
				t.Errorf("IsCrisis = %v, want %v", exchange.IsCrisis, tt.wantCrisis)
			}
			if tt.wantHelplines && exchange.Helplines["AASRA"] == "" {
				t.Error("crisis failure should carry the helpline directory")
			}
			if !tt.wantHelplines && exchange.Helplines != nil {
				t.Error("non-crisis failure should not carry helplines")
			}
			if pairCalled {
				t.Error("nothing should be persisted when the LLM call fails")
			}
		})
	}
}

func TestRespond_SanitizesPersistedUserContent(t *testing.T) {
	var savedUser, savedAssistant *model.ChatMessage
	repo := &mockChatMessageRepository{
		createPairFn: func(_ context.Context, userMsg, assistantMsg *model.ChatMessage) error {
			savedUser = userMsg
			savedAssistant = assistantMsg
			return nil
		},
	}
	completer := &mockCompleter{
		completeFn: func(_ context.Context, _, _, userMessage string) (string, error) {
			if userMessage != "<b>help</b> me" {
				t.Errorf("the LLM should receive the raw message, got %q", userMessage)
			}
			return "reply", nil
		},
	}
	svc := NewService(repo, completer, strippingSanitizer{}, metrics.NopCollector{})

	if _, err := svc.Respond(context.Background(), testUser(), "conv_abc123def456", "<b>help</b> me"); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if savedUser.Content != "help me" {
		t.Errorf("persisted user content = %q, want sanitized text", savedUser.Content)
	}
	if savedAssistant.Content != "reply" {
		t.Errorf("persisted assistant content = %q", savedAssistant.Content)
	}
}

func TestRespond_PersistFailure(t *testing.T) {
	repo := &mockChatMessageRepository{
		createPairFn: func(_ context.Context, _, _ *model.ChatMessage) error {
			return errors.New("connection reset")
		},
	}
	completer := &mockCompleter{
		completeFn: func(_ context.Context, _, _, _ string) (string, error) {
			return "reply", nil
		},
	}
	svc := newTestService(repo, completer)

	exchange, err := svc.Respond(context.Background(), testUser(), "conv_abc123def456", "hello")
	if err == nil {
		t.Fatal("Respond() should propagate persistence failures")
	}
	if exchange != nil {
		t.Error("no exchange should be returned on persistence failure")
	}
}

func TestHistory(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"explicit limit", 10, 10},
		{"zero falls back to default", 0, 50},
		{"negative falls back to default", -3, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockChatMessageRepository{
				listFn: func(_ context.Context, conversationID, userID string, limit int) ([]*model.ChatMessage, error) {
					if conversationID != "conv_abc123def456" || userID != "user_abc123def456" {
						t.Errorf("scope = (%q, %q)", conversationID, userID)
					}
					if limit != tt.wantLimit {
						t.Errorf("limit = %d, want %d", limit, tt.wantLimit)
					}
					return []*model.ChatMessage{{MessageID: "msg_000000000001"}}, nil
				},
			}
			svc := newTestService(repo, &mockCompleter{})

			messages, err := svc.History(context.Background(), "user_abc123def456", "conv_abc123def456", tt.limit)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(messages) != 1 {
				t.Errorf("len(messages) = %d, want 1", len(messages))
			}
		})
	}
}

func TestHistory_RepositoryError(t *testing.T) {
	repo := &mockChatMessageRepository{
		listFn: func(_ context.Context, _, _ string, _ int) ([]*model.ChatMessage, error) {
			return nil, errors.New("query failed")
		},
	}
	svc := newTestService(repo, &mockCompleter{})

	if _, err := svc.History(context.Background(), "user_abc123def456", "conv_abc123def456", 10); err == nil {
		t.Error("History() should propagate repository errors")
	}
}

func TestDeleteHistory(t *testing.T) {
	called := false
	repo := &mockChatMessageRepository{
		deleteFn: func(_ context.Context, conversationID, userID string) error {
			called = true
			if conversationID != "conv_abc123def456" || userID != "user_abc123def456" {
				t.Errorf("scope = (%q, %q)", conversationID, userID)
			}
			return nil
		},
	}
	svc := newTestService(repo, &mockCompleter{})

	if err := svc.DeleteHistory(context.Background(), "user_abc123def456", "conv_abc123def456"); err != nil {
		t.Fatalf("DeleteHistory() error = %v", err)
	}
	if !called {
		t.Error("repository delete should be called")
	}
}

func TestDeleteHistory_RepositoryError(t *testing.T) {
	repo := &mockChatMessageRepository{
		deleteFn: func(_ context.Context, _, _ string) error {
			return errors.New("delete failed")
		},
	}
	svc := newTestService(repo, &mockCompleter{})

	if err := svc.DeleteHistory(context.Background(), "user_abc123def456", "conv_abc123def456"); err == nil {
		t.Error("DeleteHistory() should propagate repository errors")
	}
}
