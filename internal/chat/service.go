package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/saathi/internal/llm"
	"github.com/hitoshi/saathi/internal/metrics"
	"github.com/hitoshi/saathi/internal/model"
	"github.com/hitoshi/saathi/internal/repository"
	"github.com/hitoshi/saathi/internal/security"
)

// defaultHistoryLimit は履歴取得の既定の最大件数。
const defaultHistoryLimit = 50

// Exchange は1回のチャット往復の結果。
// Helplinesはクライシス判定時のみ非nil。
type Exchange struct {
	Reply     string
	IsCrisis  bool
	Helplines map[string]string
}

// Service はクライシス判定・LLM呼び出し・会話ログ保存を編成するゲートウェイ。
type Service struct {
	msgRepo   repository.ChatMessageRepository
	completer llm.Completer
	sanitizer security.ContentSanitizerService
	collector metrics.MetricsCollector
	now       func() time.Time // テストで時計を差し替えるためのフック
}

// NewService はServiceを生成する。
func NewService(
	msgRepo repository.ChatMessageRepository,
	completer llm.Completer,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		msgRepo:   msgRepo,
		completer: completer,
		sanitizer: sanitizer,
		collector: collector,
		now:       time.Now,
	}
}

// Respond は1往復のチャットを処理する。
//  1. クライシス判定（常にLLM呼び出しより先）
//  2. LLMへ単発の応答生成を依頼
//  3. ユーザー発話とアシスタント応答を一括保存
//
// LLM呼び出しの失敗はDependencyErrorとして返すが、
// クライシス判定済みのメッセージについてはエラーでも相談窓口一覧を失わないよう、
// 失敗時のExchangeにもHelplinesを含めて返す。
func (s *Service) Respond(ctx context.Context, user *model.User, conversationID, message string) (*Exchange, error) {
	isCrisis := ClassifyCrisis(message)
	if isCrisis {
		slog.Warn("crisis language detected",
			slog.String("user_id", user.UserID),
			slog.String("conversation_id", conversationID),
		)
	}

	start := s.now()
	reply, err := s.completer.Complete(ctx, conversationID, systemPrompt, message)
	s.collector.RecordLLMLatency(s.now().Sub(start))
	if err != nil {
		s.collector.RecordLLMFailure()
		slog.Error("llm completion failed",
			slog.String("error", err.Error()),
			slog.String("conversation_id", conversationID),
		)
		result := &Exchange{IsCrisis: isCrisis}
		if isCrisis {
			result.Helplines = HelplineDirectory()
		}
		return result, model.NewDependencyError()
	}

	// アシスタント応答のtimestampはユーザー発話より必ず後にする。
	// 履歴はts昇順で返すため、往復内の順序がここで決まる。
	userTS := s.now().UTC()
	assistantTS := s.now().UTC()
	if !assistantTS.After(userTS) {
		assistantTS = userTS.Add(time.Millisecond)
	}

	userMsg := &model.ChatMessage{
		MessageID:      model.NewID("msg"),
		ConversationID: conversationID,
		UserID:         user.UserID,
		Role:           model.MessageRoleUser,
		Content:        s.sanitizer.Sanitize(message),
		IsCrisis:       isCrisis,
		Timestamp:      userTS,
	}
	assistantMsg := &model.ChatMessage{
		MessageID:      model.NewID("msg"),
		ConversationID: conversationID,
		UserID:         user.UserID,
		Role:           model.MessageRoleAssistant,
		Content:        reply,
		IsCrisis:       false,
		Timestamp:      assistantTS,
	}

	if err := s.msgRepo.CreatePair(ctx, userMsg, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist exchange: %w", err)
	}

	s.collector.RecordChatExchange(isCrisis)

	result := &Exchange{
		Reply:    reply,
		IsCrisis: isCrisis,
	}
	if isCrisis {
		result.Helplines = HelplineDirectory()
	}
	return result, nil
}

// History は指定会話のうち呼び出しユーザーが所有するメッセージをtimestamp昇順で返す。
// limitが0以下の場合は既定の50件を使用する。
func (s *Service) History(ctx context.Context, userID, conversationID string, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}

// DeleteHistory は指定会話のうち呼び出しユーザーが所有するメッセージを一括削除する。
func (s *Service) DeleteHistory(ctx context.Context, userID, conversationID string) error {
	if err := s.msgRepo.DeleteByConversation(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}

	slog.Info("chat history deleted",
		slog.String("user_id", userID),
		slog.String("conversation_id", conversationID),
	)
	return nil
}
