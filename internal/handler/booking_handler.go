package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/saathi/internal/booking"
	"github.com/hitoshi/saathi/internal/middleware"
	"github.com/hitoshi/saathi/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	CreateOrder(ctx context.Context, userID, psychologistID, slotDate, slotTime string) (*booking.Order, error)
	Confirm(ctx context.Context, userID, bookingID, paymentID string) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*model.Booking, error)
}

// BookingHandlerConfig は予約ハンドラーの設定。
type BookingHandlerConfig struct {
	RazorpayKeyID string // 決済ウィジェット初期化用にクライアントへ返す公開キーID
}

// BookingHandler は予約のHTTPハンドラー。
type BookingHandler struct {
	service BookingServiceInterface
	config  BookingHandlerConfig
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface, config BookingHandlerConfig) *BookingHandler {
	return &BookingHandler{
		service: service,
		config:  config,
	}
}

// createOrderRequest はオーダー作成リクエストのボディ。
type createOrderRequest struct {
	PsychologistID string `json:"psychologist_id"`
	SlotDate       string `json:"slot_date"`
	SlotTime       string `json:"slot_time"`
}

// createOrderResponse はオーダー作成のAPIレスポンス。
type createOrderResponse struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"order_id"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	Key       string `json:"key"`
}

// confirmBookingRequest は予約確定リクエストのボディ。
type confirmBookingRequest struct {
	PaymentID string `json:"payment_id"`
}

// bookingResponse は予約情報のAPIレスポンス。
type bookingResponse struct {
	BookingID      string    `json:"booking_id"`
	UserID         string    `json:"user_id"`
	PsychologistID string    `json:"psychologist_id"`
	SlotDate       string    `json:"slot_date"`
	SlotTime       string    `json:"slot_time"`
	Status         string    `json:"status"`
	PaymentID      string    `json:"payment_id"`
	Amount         int       `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateOrder は決済オーダーとpending状態の予約を作成する。
// POST /api/bookings/create-order
func (h *BookingHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}

	if req.PsychologistID == "" || req.SlotDate == "" || req.SlotTime == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("psychologist_id, slot_date and slot_time are required"))
		return
	}

	order, err := h.service.CreateOrder(r.Context(), user.UserID, req.PsychologistID, req.SlotDate, req.SlotTime)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createOrderResponse{
		BookingID: order.BookingID,
		OrderID:   order.OrderID,
		Amount:    order.AmountMinorUnits,
		Currency:  order.Currency,
		Key:       h.config.RazorpayKeyID,
	})
}

// Confirm は自分の予約を確定状態にする。
// POST /api/bookings/{id}/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	bookingID := chi.URLParam(r, "id")

	var req confirmBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to parse request body"))
		return
	}
	if req.PaymentID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("payment_id is required"))
		return
	}

	if err := h.service.Confirm(r.Context(), user.UserID, bookingID, req.PaymentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "Booking confirmed",
	})
}

// List は自分の予約一覧を返す。
// GET /api/bookings?limit=20
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	limit := parseQueryInt(r, "limit", 20)

	bookings, err := h.service.ListForUser(r.Context(), user.UserID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		results[i] = bookingResponse{
			BookingID:      b.BookingID,
			UserID:         b.UserID,
			PsychologistID: b.PsychologistID,
			SlotDate:       b.SlotDate,
			SlotTime:       b.SlotTime,
			Status:         string(b.Status),
			PaymentID:      b.PaymentID,
			Amount:         b.Amount,
			CreatedAt:      b.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
