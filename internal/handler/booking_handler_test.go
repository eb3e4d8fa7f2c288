package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/saathi/internal/booking"
	"github.com/hitoshi/saathi/internal/model"
)

type mockBookingService struct {
	createOrderFn func(ctx context.Context, userID, psychologistID, slotDate, slotTime string) (*booking.Order, error)
	confirmFn     func(ctx context.Context, userID, bookingID, paymentID string) error
	listFn        func(ctx context.Context, userID string, limit int) ([]*model.Booking, error)
}

func (m *mockBookingService) CreateOrder(ctx context.Context, userID, psychologistID, slotDate, slotTime string) (*booking.Order, error) {
	return m.createOrderFn(ctx, userID, psychologistID, slotDate, slotTime)
}

func (m *mockBookingService) Confirm(ctx context.Context, userID, bookingID, paymentID string) error {
	return m.confirmFn(ctx, userID, bookingID, paymentID)
}

func (m *mockBookingService) ListForUser(ctx context.Context, userID string, limit int) ([]*model.Booking, error) {
	return m.listFn(ctx, userID, limit)
}

func testBookingConfig() BookingHandlerConfig {
	return BookingHandlerConfig{RazorpayKeyID: "rzp_test_key"}
}

func TestBookingCreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockBookingService{
			createOrderFn: func(_ context.Context, userID, psychologistID, slotDate, slotTime string) (*booking.Order, error) {
				if userID != "user_abc123def456" {
					t.Errorf("userID = %q", userID)
				}
				if psychologistID != "psy_abc123def456" || slotDate != "2025-06-15" || slotTime != "14:00" {
					t.Errorf("slot = (%q, %q, %q)", psychologistID, slotDate, slotTime)
				}
				return &booking.Order{
					BookingID:        "booking_abc123def456",
					OrderID:          "order_xyz",
					AmountMinorUnits: 150000,
					Currency:         "INR",
				}, nil
			},
		}
		h := NewBookingHandler(service, testBookingConfig())

		req := authedRequest(http.MethodPost, "/api/bookings/create-order",
			`{"psychologist_id":"psy_abc123def456","slot_date":"2025-06-15","slot_time":"14:00"}`)
		rec := httptest.NewRecorder()
		h.CreateOrder(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp createOrderResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if resp.BookingID != "booking_abc123def456" || resp.OrderID != "order_xyz" {
			t.Errorf("resp = %+v", resp)
		}
		if resp.Amount != 150000 || resp.Currency != "INR" {
			t.Errorf("amount = %d %s, want 150000 INR", resp.Amount, resp.Currency)
		}
		if resp.Key != "rzp_test_key" {
			t.Errorf("key = %q", resp.Key)
		}
	})

	t.Run("invalid requests", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"malformed body", `{`},
			{"missing psychologist", `{"slot_date":"2025-06-15","slot_time":"14:00"}`},
			{"missing slot date", `{"psychologist_id":"psy_abc123def456","slot_time":"14:00"}`},
			{"missing slot time", `{"psychologist_id":"psy_abc123def456","slot_date":"2025-06-15"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := NewBookingHandler(&mockBookingService{}, testBookingConfig())

				req := authedRequest(http.MethodPost, "/api/bookings/create-order", tt.body)
				rec := httptest.NewRecorder()
				h.CreateOrder(rec, req)

				if rec.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want 400", rec.Code)
				}
			})
		}
	})

	t.Run("no session", func(t *testing.T) {
		h := NewBookingHandler(&mockBookingService{}, testBookingConfig())

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/create-order", nil)
		rec := httptest.NewRecorder()
		h.CreateOrder(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("unknown psychologist", func(t *testing.T) {
		service := &mockBookingService{
			createOrderFn: func(_ context.Context, _, psychologistID, _, _ string) (*booking.Order, error) {
				return nil, model.NewPsychologistNotFoundError(psychologistID)
			},
		}
		h := NewBookingHandler(service, testBookingConfig())

		req := authedRequest(http.MethodPost, "/api/bookings/create-order",
			`{"psychologist_id":"psy_missing","slot_date":"2025-06-15","slot_time":"14:00"}`)
		rec := httptest.NewRecorder()
		h.CreateOrder(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("gateway failure", func(t *testing.T) {
		service := &mockBookingService{
			createOrderFn: func(_ context.Context, _, _, _, _ string) (*booking.Order, error) {
				return nil, model.NewDependencyError()
			},
		}
		h := NewBookingHandler(service, testBookingConfig())

		req := authedRequest(http.MethodPost, "/api/bookings/create-order",
			`{"psychologist_id":"psy_abc123def456","slot_date":"2025-06-15","slot_time":"14:00"}`)
		rec := httptest.NewRecorder()
		h.CreateOrder(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestBookingConfirm(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockBookingService{
			confirmFn: func(_ context.Context, userID, bookingID, paymentID string) error {
				if userID != "user_abc123def456" || bookingID != "booking_abc123def456" || paymentID != "pay_123" {
					t.Errorf("confirm(%q, %q, %q)", userID, bookingID, paymentID)
				}
				return nil
			},
		}
		h := NewBookingHandler(service, testBookingConfig())

		req := authedRequest(http.MethodPost, "/api/bookings/booking_abc123def456/confirm",
			`{"payment_id":"pay_123"}`)
		req = withURLParam(req, "id", "booking_abc123def456")
		rec := httptest.NewRecorder()
		h.Confirm(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["status"] != "success" || body["message"] != "Booking confirmed" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("missing payment id", func(t *testing.T) {
		h := NewBookingHandler(&mockBookingService{}, testBookingConfig())

		req := authedRequest(http.MethodPost, "/api/bookings/booking_abc123def456/confirm", `{}`)
		req = withURLParam(req, "id", "booking_abc123def456")
		rec := httptest.NewRecorder()
		h.Confirm(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not owner or unknown booking", func(t *testing.T) {
		service := &mockBookingService{
			confirmFn: func(_ context.Context, _, bookingID, _ string) error {
				return model.NewBookingNotFoundError(bookingID)
			},
		}
		h := NewBookingHandler(service, testBookingConfig())

		req := authedRequest(http.MethodPost, "/api/bookings/booking_other/confirm",
			`{"payment_id":"pay_123"}`)
		req = withURLParam(req, "id", "booking_other")
		rec := httptest.NewRecorder()
		h.Confirm(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestBookingList(t *testing.T) {
	service := &mockBookingService{
		listFn: func(_ context.Context, userID string, limit int) ([]*model.Booking, error) {
			if userID != "user_abc123def456" {
				t.Errorf("userID = %q", userID)
			}
			if limit != 20 {
				t.Errorf("limit = %d, want default 20", limit)
			}
			return []*model.Booking{
				{
					BookingID:      "booking_abc123def456",
					UserID:         userID,
					PsychologistID: "psy_abc123def456",
					SlotDate:       "2025-06-15",
					SlotTime:       "14:00",
					Status:         model.BookingStatusConfirmed,
					PaymentID:      "order_xyz",
					Amount:         1500,
					CreatedAt:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				},
			}, nil
		},
	}
	h := NewBookingHandler(service, testBookingConfig())

	req := authedRequest(http.MethodGet, "/api/bookings", "")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp []bookingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp) != 1 || resp[0].Status != "confirmed" || resp[0].Amount != 1500 {
		t.Errorf("resp = %+v", resp)
	}
}
