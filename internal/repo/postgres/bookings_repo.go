package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepoImpl struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepoImpl { return &BookingRepoImpl{pool: pool} }

const bookingCols = `id, guest_name, room_id, room_type,
check_in_date, check_out_date, adults, children,
booking_source, price::float8, status, notes,
created_by_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                 domain.Booking
		roomType, notes   *string
		checkIn, checkOut time.Time
		source, status    string
		createdBy         *uuid.UUID
	)
	if err := row.Scan(
		&b.ID, &b.GuestName, &b.RoomID, &roomType,
		&checkIn, &checkOut, &b.Adults, &b.Children,
		&source, &b.Price, &status, &notes,
		&createdBy, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if roomType != nil {
		b.RoomType = domain.RoomType(*roomType)
	}
	if notes != nil {
		b.Notes = *notes
	}
	b.CheckInDate = domain.DateOf(checkIn)
	b.CheckOutDate = domain.DateOf(checkOut)
	b.BookingSource = domain.BookingSource(source)
	b.Status = domain.BookingStatus(status)
	b.CreatedByID = createdBy
	return &b, nil
}

func (r *BookingRepoImpl) List(ctx context.Context, f repo.BookingFilter, p repo.Page) (repo.BookingPage, error) {
	p = p.Normalize()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.GuestName != "" {
		where = append(where, "guest_name ILIKE "+arg("%"+utils.EscapeLike(f.GuestName)+"%"))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.HasDateRange() {
		start, end := arg(f.StartDate.Time), arg(f.EndDate.Time)
		where = append(where, fmt.Sprintf(
			"(check_in_date BETWEEN %[1]s AND %[2]s OR check_out_date BETWEEN %[1]s AND %[2]s)", start, end))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM bookings`+cond, args...).Scan(&total); err != nil {
		return repo.BookingPage{}, fmt.Errorf("count bookings: %w", err)
	}

	q := `SELECT ` + bookingCols + ` FROM bookings` + cond +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(p.Size) + ` OFFSET ` + arg(p.Offset())
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return repo.BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bs := make([]domain.Booking, 0, p.Size)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return repo.BookingPage{}, fmt.Errorf("scan booking: %w", err)
		}
		bs = append(bs, *b)
	}
	if err := rows.Err(); err != nil {
		return repo.BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}
	return repo.NewBookingPage(bs, total, p), nil
}

func (r *BookingRepoImpl) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if isNoRows(err) {
		return nil, bookingNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

func (r *BookingRepoImpl) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
    guest_name, room_id, room_type,
    check_in_date, check_out_date, adults, children,
    booking_source, price, status, notes, created_by_id
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
  RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := scanBooking(r.pool.QueryRow(ctx, q,
		b.GuestName, b.RoomID, nullString(string(b.RoomType)),
		b.CheckInDate.Time, b.CheckOutDate.Time, b.Adults, b.Children,
		string(b.BookingSource), b.Price, string(b.Status), nullString(b.Notes), b.CreatedByID,
	))
	if isNumericOutOfRange(err) {
		return nil, valueOutOfRange()
	}
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return out, nil
}

// Update merges the supplied fields in a single statement.
func (r *BookingRepoImpl) Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	const q = `UPDATE bookings SET
    guest_name     = COALESCE($2::text, guest_name),
    room_id        = COALESCE($3::bigint, room_id),
    room_type      = CASE WHEN $4::text IS NULL THEN room_type ELSE NULLIF($4::text, '') END,
    check_in_date  = COALESCE($5::date, check_in_date),
    check_out_date = COALESCE($6::date, check_out_date),
    adults         = COALESCE($7::int, adults),
    children       = COALESCE($8::int, children),
    booking_source = COALESCE($9::text, booking_source),
    price          = COALESCE($10::numeric, price),
    status         = COALESCE($11::text, status),
    notes          = CASE WHEN $12::boolean THEN NULLIF($13::text, '') ELSE notes END,
    updated_at     = now()
  WHERE id=$1
  RETURNING ` + bookingCols

	var (
		roomType, source, status *string
		checkIn, checkOut        *time.Time
	)
	if patch.RoomType != nil {
		s := string(*patch.RoomType)
		roomType = &s
	}
	if patch.BookingSource != nil {
		s := string(*patch.BookingSource)
		source = &s
	}
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	if patch.CheckInDate != nil {
		checkIn = &patch.CheckInDate.Time
	}
	if patch.CheckOutDate != nil {
		checkOut = &patch.CheckOutDate.Time
	}
	var guestName *string
	if patch.GuestName != nil {
		s := strings.TrimSpace(*patch.GuestName)
		guestName = &s
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id,
		guestName, patch.RoomID, roomType,
		checkIn, checkOut, patch.Adults, patch.Children,
		source, patch.Price, status,
		patch.Notes != nil, patch.Notes,
	))
	if isNoRows(err) {
		return nil, bookingNotFound(id)
	}
	if isCheckViolation(err) {
		return nil, &domain.ValidationError{Fields: map[string]string{"checkOutDate": "must be after checkInDate"}}
	}
	if isNumericOutOfRange(err) {
		return nil, valueOutOfRange()
	}
	if err != nil {
		return nil, fmt.Errorf("update booking %d: %w", id, err)
	}
	return b, nil
}

func (r *BookingRepoImpl) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return bookingNotFound(id)
	}
	return nil
}

func valueOutOfRange() error {
	return domain.NewValidationError("numeric value out of range")
}

func bookingNotFound(id int64) error {
	return &domain.NotFoundError{Resource: "booking", ID: strconv.FormatInt(id, 10)}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ repo.BookingRepository = (*BookingRepoImpl)(nil)
