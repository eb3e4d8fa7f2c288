// Package booking は心理士セッション予約のドメインロジックを提供する。
// 決済ゲートウェイの呼び出しはオーダー作成のみで、決済の照合・精算は扱わない。
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/saathi/internal/model"
	"github.com/hitoshi/saathi/internal/payment"
	"github.com/hitoshi/saathi/internal/repository"
)

// bookingCurrency は決済オーダーの通貨。
const bookingCurrency = "INR"

// Order はオーダー作成結果。クライアントが決済ウィジェットを起動するための情報を含む。
type Order struct {
	BookingID        string
	OrderID          string
	AmountMinorUnits int
	Currency         string
}

// Service は予約のサービス層。
type Service struct {
	bookingRepo repository.BookingRepository
	psychRepo   repository.PsychologistRepository
	gateway     payment.OrderCreator
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	bookingRepo repository.BookingRepository,
	psychRepo repository.PsychologistRepository,
	gateway payment.OrderCreator,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		psychRepo:   psychRepo,
		gateway:     gateway,
		now:         time.Now,
	}
}

// CreateOrder は心理士の料金から決済オーダーを作成し、pending状態の予約を保存する。
// 金額はルピー建て料金を最小通貨単位（パイサ）に換算して送信する。
func (s *Service) CreateOrder(ctx context.Context, userID, psychologistID, slotDate, slotTime string) (*Order, error) {
	psych, err := s.psychRepo.FindByID(ctx, psychologistID)
	if err != nil {
		return nil, fmt.Errorf("failed to find psychologist: %w", err)
	}
	if psych == nil {
		return nil, model.NewPsychologistNotFoundError(psychologistID)
	}

	amountMinor := psych.Pricing * 100

	orderID, err := s.gateway.CreateOrder(ctx, amountMinor, bookingCurrency)
	if err != nil {
		slog.Error("payment order creation failed",
			slog.String("error", err.Error()),
			slog.String("psychologist_id", psychologistID),
		)
		return nil, model.NewDependencyError()
	}

	booking := &model.Booking{
		BookingID:      model.NewID("booking"),
		UserID:         userID,
		PsychologistID: psychologistID,
		SlotDate:       slotDate,
		SlotTime:       slotTime,
		Status:         model.BookingStatusPending,
		PaymentID:      orderID,
		Amount:         psych.Pricing,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return &Order{
		BookingID:        booking.BookingID,
		OrderID:          orderID,
		AmountMinorUnits: amountMinor,
		Currency:         bookingCurrency,
	}, nil
}

// Confirm は所有者の予約を確定状態にし、支払いIDを記録する。
func (s *Service) Confirm(ctx context.Context, userID, bookingID, paymentID string) error {
	booking, err := s.bookingRepo.FindByIDAndUser(ctx, bookingID, userID)
	if err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	if booking == nil {
		return model.NewBookingNotFoundError(bookingID)
	}

	if err := s.bookingRepo.Confirm(ctx, bookingID, paymentID); err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	slog.Info("booking confirmed",
		slog.String("booking_id", bookingID),
		slog.String("user_id", userID),
	)
	return nil
}

// ListForUser はユーザー自身の予約一覧をcreated_at降順で返す。
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]*model.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.bookingRepo.ListByUserID(ctx, userID, limit)
}
