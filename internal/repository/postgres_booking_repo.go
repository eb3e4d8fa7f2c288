package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/saathi/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

// Create は予約を作成する。
func (r *PostgresBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings
		 (booking_id, user_id, psychologist_id, slot_date, slot_time, status, payment_id, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.BookingID, b.UserID, b.PsychologistID, b.SlotDate, b.SlotTime,
		b.Status, b.PaymentID, b.Amount, b.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// FindByIDAndUser は予約IDと所有者で予約を検索する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByIDAndUser(ctx context.Context, bookingID, userID string) (*model.Booking, error) {
	b := &model.Booking{}
	err := r.db.QueryRowContext(ctx,
		`SELECT booking_id, user_id, psychologist_id, slot_date, slot_time, status, payment_id, amount, created_at
		 FROM bookings WHERE booking_id = $1 AND user_id = $2`,
		bookingID, userID,
	).Scan(
		&b.BookingID, &b.UserID, &b.PsychologistID, &b.SlotDate, &b.SlotTime,
		&b.Status, &b.PaymentID, &b.Amount, &b.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// Confirm は予約を確定状態にし、支払いIDを記録する。
func (r *PostgresBookingRepo) Confirm(ctx context.Context, bookingID, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1, payment_id = $2 WHERE booking_id = $3`,
		model.BookingStatusConfirmed, paymentID, bookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの予約一覧をcreated_at降順で返す。
func (r *PostgresBookingRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT booking_id, user_id, psychologist_id, slot_date, slot_time, status, payment_id, amount, created_at
		 FROM bookings WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var result []*model.Booking
	for rows.Next() {
		b := &model.Booking{}
		if err := rows.Scan(
			&b.BookingID, &b.UserID, &b.PsychologistID, &b.SlotDate, &b.SlotTime,
			&b.Status, &b.PaymentID, &b.Amount, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
