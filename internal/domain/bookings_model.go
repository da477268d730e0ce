package domain

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upper bounds follow the storage columns: price is NUMERIC(10,2), guest
// counts are INTEGER.
const (
	MaxPrice  = 99999999.99
	MaxGuests = math.MaxInt32
)

type Booking struct {
	ID        int64  `json:"id"`
	GuestName string `json:"guestName" validate:"required,max=255"`

	RoomID   int64    `json:"roomId" validate:"gte=1"`
	RoomType RoomType `json:"roomType,omitempty"`

	CheckInDate  Date `json:"checkInDate"`
	CheckOutDate Date `json:"checkOutDate"`

	Adults   int `json:"adults" validate:"gte=1,lte=2147483647"`
	Children int `json:"children" validate:"gte=0,lte=2147483647"`

	BookingSource BookingSource `json:"bookingSource"`
	Price         float64       `json:"price" validate:"gte=0,lte=99999999.99"`
	Status        BookingStatus `json:"status"`
	Notes         string        `json:"notes"`

	CreatedByID *uuid.UUID `json:"createdById"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Validate checks a complete record: field rules, enums and stay dates.
func (b *Booking) Validate() error {
	errs := fieldErrors{}
	errs.collect(validate.Struct(b))
	if strings.TrimSpace(b.GuestName) == "" {
		errs.add("guestName", "is required")
	}
	if b.RoomType != "" && !b.RoomType.Valid() {
		errs.add("roomType", "must be one of: "+joinEnum(RoomTypes))
	}
	if !b.BookingSource.Valid() {
		errs.add("bookingSource", "must be one of: "+joinEnum(BookingSources))
	}
	if !b.Status.Valid() {
		errs.add("status", "must be one of: "+joinEnum(BookingStatuses))
	}
	if b.CheckInDate.IsZero() {
		errs.add("checkInDate", "is required")
	}
	if b.CheckOutDate.IsZero() {
		errs.add("checkOutDate", "is required")
	}
	if !b.CheckInDate.IsZero() && !b.CheckOutDate.IsZero() && !b.CheckOutDate.After(b.CheckInDate) {
		errs.add("checkOutDate", "must be after checkInDate")
	}
	return errs.err()
}

// Nights is the length of stay.
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate.Time).Hours() / 24)
}

// BookingInput is the create payload. Pointers distinguish an omitted field
// from its zero value.
type BookingInput struct {
	GuestName     string        `json:"guestName" validate:"required"`
	RoomID        *int64        `json:"roomId" validate:"required"`
	RoomType      RoomType      `json:"roomType,omitempty"`
	CheckInDate   *Date         `json:"checkInDate" validate:"required"`
	CheckOutDate  *Date         `json:"checkOutDate" validate:"required"`
	Adults        *int          `json:"adults,omitempty"`
	Children      *int          `json:"children,omitempty"`
	BookingSource BookingSource `json:"bookingSource,omitempty"`
	Price         *float64      `json:"price" validate:"required"`
	Status        BookingStatus `json:"status,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// NewBooking validates in and builds a booking with defaults applied.
// Store-assigned fields (id, timestamps) are left zero.
func NewBooking(in BookingInput, createdBy *uuid.UUID) (*Booking, error) {
	in.GuestName = strings.TrimSpace(in.GuestName)

	errs := fieldErrors{}
	errs.collect(validate.Struct(in))
	if err := errs.err(); err != nil {
		return nil, err
	}

	b := &Booking{
		GuestName:     in.GuestName,
		RoomID:        *in.RoomID,
		RoomType:      in.RoomType,
		CheckInDate:   *in.CheckInDate,
		CheckOutDate:  *in.CheckOutDate,
		Adults:        1,
		Children:      0,
		BookingSource: SourceDirect,
		Price:         *in.Price,
		Status:        StatusConfirmed,
		Notes:         in.Notes,
		CreatedByID:   createdBy,
	}
	if in.Adults != nil {
		b.Adults = *in.Adults
	}
	if in.Children != nil {
		b.Children = *in.Children
	}
	if in.BookingSource != "" {
		b.BookingSource = in.BookingSource
	}
	if in.Status != "" {
		b.Status = in.Status
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// BookingPatch carries a partial update. Nil fields are left unchanged; an
// empty Notes or RoomType clears that field.
type BookingPatch struct {
	GuestName     *string        `json:"guestName,omitempty"`
	RoomID        *int64         `json:"roomId,omitempty"`
	RoomType      *RoomType      `json:"roomType,omitempty"`
	CheckInDate   *Date          `json:"checkInDate,omitempty"`
	CheckOutDate  *Date          `json:"checkOutDate,omitempty"`
	Adults        *int           `json:"adults,omitempty"`
	Children      *int           `json:"children,omitempty"`
	BookingSource *BookingSource `json:"bookingSource,omitempty"`
	Price         *float64       `json:"price,omitempty"`
	Status        *BookingStatus `json:"status,omitempty"`
	Notes         *string        `json:"notes,omitempty"`
}

func (p BookingPatch) IsEmpty() bool {
	return len(p.Changes()) == 0
}

// Changes lists the JSON names of the supplied fields, sorted.
func (p BookingPatch) Changes() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.GuestName != nil, "guestName")
	add(p.RoomID != nil, "roomId")
	add(p.RoomType != nil, "roomType")
	add(p.CheckInDate != nil, "checkInDate")
	add(p.CheckOutDate != nil, "checkOutDate")
	add(p.Adults != nil, "adults")
	add(p.Children != nil, "children")
	add(p.BookingSource != nil, "bookingSource")
	add(p.Price != nil, "price")
	add(p.Status != nil, "status")
	add(p.Notes != nil, "notes")
	sort.Strings(out)
	return out
}

// Merge copies the supplied fields onto b without validating.
func (p BookingPatch) Merge(b *Booking) {
	if p.GuestName != nil {
		b.GuestName = strings.TrimSpace(*p.GuestName)
	}
	if p.RoomID != nil {
		b.RoomID = *p.RoomID
	}
	if p.RoomType != nil {
		b.RoomType = *p.RoomType
	}
	if p.CheckInDate != nil {
		b.CheckInDate = *p.CheckInDate
	}
	if p.CheckOutDate != nil {
		b.CheckOutDate = *p.CheckOutDate
	}
	if p.Adults != nil {
		b.Adults = *p.Adults
	}
	if p.Children != nil {
		b.Children = *p.Children
	}
	if p.BookingSource != nil {
		b.BookingSource = *p.BookingSource
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
}

// Apply merges p onto a copy of current and validates the result. The stay
// dates are checked on the merged record, so moving only one date still has
// to keep check-out after check-in.
func (p BookingPatch) Apply(current Booking) (Booking, error) {
	errs := fieldErrors{}
	if p.GuestName != nil && strings.TrimSpace(*p.GuestName) == "" {
		errs.add("guestName", "must not be empty")
	}
	if p.CheckInDate != nil && p.CheckInDate.IsZero() {
		errs.add("checkInDate", "must not be empty")
	}
	if p.CheckOutDate != nil && p.CheckOutDate.IsZero() {
		errs.add("checkOutDate", "must not be empty")
	}
	if p.CheckInDate != nil && p.CheckOutDate != nil &&
		!p.CheckInDate.IsZero() && !p.CheckOutDate.After(*p.CheckInDate) {
		errs.add("checkOutDate", "must be after checkInDate")
	}
	if err := errs.err(); err != nil {
		return current, err
	}

	next := current
	p.Merge(&next)
	if err := next.Validate(); err != nil {
		return current, err
	}
	return next, nil
}

func joinEnum[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, " ")
}
