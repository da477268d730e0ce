package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/repo"
	"github.com/diagnosis/marketinn/pkg/events"
	"github.com/diagnosis/marketinn/pkg/logger"
	"github.com/diagnosis/marketinn/pkg/metrics"
	"github.com/google/uuid"
)

// BookingService validates booking input, persists it and announces changes.
type BookingService struct {
	bookings  repo.BookingRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewBookingService(bookings repo.BookingRepository, publisher events.Publisher) *BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &BookingService{bookings: bookings, publisher: publisher, now: time.Now}
}

func (s *BookingService) List(ctx context.Context, f repo.BookingFilter, p repo.Page) (repo.BookingPage, error) {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return repo.BookingPage{}, domain.NewValidationError("startDate must not be after endDate")
	}
	page, err := s.bookings.List(ctx, f, p)
	if err != nil {
		return repo.BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}
	return page, nil
}

func (s *BookingService) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) Create(ctx context.Context, in domain.BookingInput, creator *domain.User) (b *domain.Booking, err error) {
	defer func() { metrics.ObserveBookingOperation("create", err) }()

	var createdBy *uuid.UUID
	if creator != nil {
		id := creator.ID
		createdBy = &id
	}
	nb, err := domain.NewBooking(in, createdBy)
	if err != nil {
		return nil, err
	}
	b, err = s.bookings.Create(ctx, nb)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	logger.InfoContext(ctx, "Booking created", "booking_id", b.ID, "room_id", b.RoomID, "nights", b.Nights())
	s.publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:    b.ID,
		GuestName:    b.GuestName,
		RoomID:       b.RoomID,
		CheckInDate:  b.CheckInDate.String(),
		CheckOutDate: b.CheckOutDate.String(),
		Nights:       b.Nights(),
		Status:       string(b.Status),
		Price:        b.Price,
		CreatedBy:    actorID(creator),
		CreatedAt:    b.CreatedAt,
	})
	return b, nil
}

// Update applies patch to the stored booking. The merged record is validated
// before anything is written.
func (s *BookingService) Update(ctx context.Context, id int64, patch domain.BookingPatch, actor *domain.User) (b *domain.Booking, err error) {
	defer func() { metrics.ObserveBookingOperation("update", err) }()

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := patch.Apply(*current); err != nil {
		return nil, err
	}
	b, err = s.bookings.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Booking updated", "booking_id", b.ID, "changes", patch.Changes())
	s.publish(ctx, events.BookingUpdated, events.BookingUpdatedEvent{
		BookingID: b.ID,
		Changes:   patch.Changes(),
		Status:    string(b.Status),
		UpdatedBy: actorID(actor),
		UpdatedAt: b.UpdatedAt,
	})
	return b, nil
}

func (s *BookingService) Delete(ctx context.Context, id int64, actor *domain.User) (err error) {
	defer func() { metrics.ObserveBookingOperation("delete", err) }()

	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Booking deleted", "booking_id", id)
	s.publish(ctx, events.BookingDeleted, events.BookingDeletedEvent{
		BookingID: id,
		DeletedBy: actorID(actor),
		DeletedAt: s.now().UTC(),
	})
	return nil
}

// publish never fails the caller; the write has already happened.
func (s *BookingService) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		metrics.ObservePublishFailure(subject)
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

func actorID(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}
