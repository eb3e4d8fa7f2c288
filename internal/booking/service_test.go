package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/saathi/internal/model"
)

type mockBookingRepository struct {
	createFn       func(ctx context.Context, b *model.Booking) error
	findByIDUserFn func(ctx context.Context, bookingID, userID string) (*model.Booking, error)
	confirmFn      func(ctx context.Context, bookingID, paymentID string) error
	listByUserIDFn func(ctx context.Context, userID string, limit int) ([]*model.Booking, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	return m.createFn(ctx, b)
}

func (m *mockBookingRepository) FindByIDAndUser(ctx context.Context, bookingID, userID string) (*model.Booking, error) {
	return m.findByIDUserFn(ctx, bookingID, userID)
}

func (m *mockBookingRepository) Confirm(ctx context.Context, bookingID, paymentID string) error {
	return m.confirmFn(ctx, bookingID, paymentID)
}

func (m *mockBookingRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Booking, error) {
	return m.listByUserIDFn(ctx, userID, limit)
}

type mockPsychologistRepository struct {
	findByIDFn func(ctx context.Context, psychologistID string) (*model.Psychologist, error)
}

func (m *mockPsychologistRepository) Create(context.Context, *model.Psychologist) error {
	return errors.New("not implemented")
}

func (m *mockPsychologistRepository) FindByID(ctx context.Context, psychologistID string) (*model.Psychologist, error) {
	return m.findByIDFn(ctx, psychologistID)
}

func (m *mockPsychologistRepository) ListApproved(context.Context, int, int) ([]*model.Psychologist, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPsychologistRepository) ListAll(context.Context) ([]*model.Psychologist, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPsychologistRepository) Approve(context.Context, string) error {
	return errors.New("not implemented")
}

type mockOrderCreator struct {
	createOrderFn func(ctx context.Context, amountMinorUnits int, currency string) (string, error)
}

func (m *mockOrderCreator) CreateOrder(ctx context.Context, amountMinorUnits int, currency string) (string, error) {
	return m.createOrderFn(ctx, amountMinorUnits, currency)
}

func approvedPsychologist() *model.Psychologist {
	return &model.Psychologist{
		PsychologistID: "psy_abc123def456",
		Name:           "Dr. Meera Sharma",
		Pricing:        1500,
		Approved:       true,
	}
}

func newTestService(bookingRepo *mockBookingRepository, psychRepo *mockPsychologistRepository, gateway *mockOrderCreator) *Service {
	svc := NewService(bookingRepo, psychRepo, gateway)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestCreateOrder(t *testing.T) {
	var saved *model.Booking
	bookingRepo := &mockBookingRepository{
		createFn: func(_ context.Context, b *model.Booking) error {
			saved = b
			return nil
		},
	}
	psychRepo := &mockPsychologistRepository{
		findByIDFn: func(_ context.Context, psychologistID string) (*model.Psychologist, error) {
			if psychologistID != "psy_abc123def456" {
				t.Errorf("psychologistID = %q", psychologistID)
			}
			return approvedPsychologist(), nil
		},
	}
	gateway := &mockOrderCreator{
		createOrderFn: func(_ context.Context, amountMinorUnits int, currency string) (string, error) {
			if amountMinorUnits != 150000 {
				t.Errorf("amount = %d, want 150000 paise", amountMinorUnits)
			}
			if currency != "INR" {
				t.Errorf("currency = %q", currency)
			}
			return "order_xyz", nil
		},
	}
	svc := newTestService(bookingRepo, psychRepo, gateway)

	order, err := svc.CreateOrder(context.Background(), "user_abc123def456", "psy_abc123def456", "2025-06-15", "14:00")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if order.OrderID != "order_xyz" {
		t.Errorf("OrderID = %q", order.OrderID)
	}
	if order.AmountMinorUnits != 150000 || order.Currency != "INR" {
		t.Errorf("order amount = %d %s", order.AmountMinorUnits, order.Currency)
	}
	if !strings.HasPrefix(order.BookingID, "booking_") {
		t.Errorf("BookingID = %q, want booking_ prefix", order.BookingID)
	}

	if saved == nil {
		t.Fatal("booking should be persisted")
	}
	if saved.Status != model.BookingStatusPending {
		t.Errorf("status = %q, want pending", saved.Status)
	}
	if saved.PaymentID != "order_xyz" {
		t.Errorf("PaymentID = %q, want the gateway order ID", saved.PaymentID)
	}
	if saved.Amount != 1500 {
		t.Errorf("Amount = %d, want rupee price", saved.Amount)
	}
	if saved.UserID != "user_abc123def456" || saved.SlotDate != "2025-06-15" || saved.SlotTime != "14:00" {
		t.Errorf("saved = %+v", saved)
	}
}

func TestCreateOrder_UnknownPsychologist(t *testing.T) {
	psychRepo := &mockPsychologistRepository{
		findByIDFn: func(_ context.Context, _ string) (*model.Psychologist, error) {
			return nil, nil
		},
	}
	svc := newTestService(&mockBookingRepository{}, psychRepo, &mockOrderCreator{})

	_, err := svc.CreateOrder(context.Background(), "user_abc123def456", "psy_missing", "2025-06-15", "14:00")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePsychologistNotFound {
		t.Errorf("error = %v, want %s", err, model.ErrCodePsychologistNotFound)
	}
}

func TestCreateOrder_GatewayFailure(t *testing.T) {
	created := false
	bookingRepo := &mockBookingRepository{
		createFn: func(_ context.Context, _ *model.Booking) error {
			created = true
			return nil
		},
	}
	psychRepo := &mockPsychologistRepository{
		findByIDFn: func(_ context.Context, _ string) (*model.Psychologist, error) {
			return approvedPsychologist(), nil
		},
	}
	gateway := &mockOrderCreator{
		createOrderFn: func(_ context.Context, _ int, _ string) (string, error) {
			return "", errors.New("gateway timeout")
		},
	}
	svc := newTestService(bookingRepo, psychRepo, gateway)

	_, err := svc.CreateOrder(context.Background(), "user_abc123def456", "psy_abc123def456", "2025-06-15", "14:00")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDependencyError {
		t.Errorf("error = %v, want %s", err, model.ErrCodeDependencyError)
	}
	if created {
		t.Error("no booking should be persisted when the gateway fails")
	}
}

func TestConfirm(t *testing.T) {
	t.Run("owner confirms", func(t *testing.T) {
		confirmed := false
		bookingRepo := &mockBookingRepository{
			findByIDUserFn: func(_ context.Context, bookingID, userID string) (*model.Booking, error) {
				if bookingID != "booking_abc123def456" || userID != "user_abc123def456" {
					t.Errorf("lookup = (%q, %q)", bookingID, userID)
				}
				return &model.Booking{BookingID: bookingID, UserID: userID, Status: model.BookingStatusPending}, nil
			},
			confirmFn: func(_ context.Context, bookingID, paymentID string) error {
				confirmed = true
				if paymentID != "pay_123" {
					t.Errorf("paymentID = %q", paymentID)
				}
				return nil
			},
		}
		svc := newTestService(bookingRepo, &mockPsychologistRepository{}, &mockOrderCreator{})

		if err := svc.Confirm(context.Background(), "user_abc123def456", "booking_abc123def456", "pay_123"); err != nil {
			t.Fatalf("Confirm() error = %v", err)
		}
		if !confirmed {
			t.Error("repository confirm should be called")
		}
	})

	t.Run("unknown or foreign booking", func(t *testing.T) {
		bookingRepo := &mockBookingRepository{
			findByIDUserFn: func(_ context.Context, _, _ string) (*model.Booking, error) {
				return nil, nil
			},
		}
		svc := newTestService(bookingRepo, &mockPsychologistRepository{}, &mockOrderCreator{})

		err := svc.Confirm(context.Background(), "user_other", "booking_abc123def456", "pay_123")

		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookingNotFound {
			t.Errorf("error = %v, want %s", err, model.ErrCodeBookingNotFound)
		}
	})
}

func TestListForUser(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"explicit limit", 5, 5},
		{"zero falls back to default", 0, 20},
		{"negative falls back to default", -1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo := &mockBookingRepository{
				listByUserIDFn: func(_ context.Context, userID string, limit int) ([]*model.Booking, error) {
					if userID != "user_abc123def456" {
						t.Errorf("userID = %q", userID)
					}
					if limit != tt.wantLimit {
						t.Errorf("limit = %d, want %d", limit, tt.wantLimit)
					}
					return []*model.Booking{{BookingID: "booking_000000000001"}}, nil
				},
			}
			svc := newTestService(bookingRepo, &mockPsychologistRepository{}, &mockOrderCreator{})

			bookings, err := svc.ListForUser(context.Background(), "user_abc123def456", tt.limit)
			if err != nil {
				t.Fatalf("ListForUser() error = %v", err)
			}
			if len(bookings) != 1 {
				t.Errorf("len(bookings) = %d", len(bookings))
			}
		})
	}
}
