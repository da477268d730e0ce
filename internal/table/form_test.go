package table

import (
	"errors"
	"testing"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_EmptyDefaults(t *testing.T) {
	f := EmptyForm()
	errs := f.Validate()

	for _, name := range RequiredFields {
		assert.Contains(t, errs, name)
	}
	assert.NotContains(t, errs, FieldAdults)
	assert.NotContains(t, errs, FieldNotes)
	assert.Equal(t, string(domain.StatusConfirmed), f.Status)
}

func TestForm_InputCoerces(t *testing.T) {
	f := EmptyForm()
	f.Set(FieldGuestName, "  Иван Петров ")
	f.Set(FieldRoomID, "3")
	f.Set(FieldCheckInDate, "2024-03-01")
	f.Set(FieldCheckOutDate, "2024-03-04")
	f.Set(FieldPrice, "50000,50")
	f.Set(FieldChildren, "2")
	f.Set(FieldStatus, "pending")

	in, err := f.Input()
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", in.GuestName)
	assert.Equal(t, int64(3), *in.RoomID)
	assert.Equal(t, 50000.5, *in.Price)
	assert.Equal(t, 1, *in.Adults)
	assert.Equal(t, 2, *in.Children)
	assert.Equal(t, domain.StatusPending, in.Status)
	assert.Equal(t, domain.SourceWebsite, in.BookingSource)
	assert.True(t, in.CheckInDate.Equal(domain.NewDate(2024, time.March, 1)))
}

func TestForm_InputRejects(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
	}{
		{"room id not a number", FieldRoomID, "3a"},
		{"room id zero", FieldRoomID, "0"},
		{"bad date", FieldCheckInDate, "01.03.2024"},
		{"negative price", FieldPrice, "-1"},
		{"price not a number", FieldPrice, "NaN"},
		{"price infinite", FieldPrice, "Inf"},
		{"price beyond column", FieldPrice, "1000000000"},
		{"adults beyond column", FieldAdults, "3000000000"},
		{"no adults", FieldAdults, "0"},
		{"unknown room type", FieldRoomType, "penthouse"},
		{"unknown source", FieldBookingSource, "fax"},
		{"unknown status", FieldStatus, "lost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FormFrom(row(1, "A", 1, 2, domain.RoomStandard, domain.StatusConfirmed))
			require.True(t, f.Set(tt.field, tt.value))
			assert.Contains(t, f.Validate(), tt.field)

			_, err := f.Input()
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, string(tt.field))
		})
	}
}

func TestForm_SetUnknownField(t *testing.T) {
	f := EmptyForm()
	assert.False(t, f.Set(Field("color"), "red"))
	assert.Equal(t, "", f.Get(Field("color")))
}

func TestForm_PatchDiffsAgainstOriginal(t *testing.T) {
	orig := row(5, "Анна", 1, 4, domain.RoomDeluxe, domain.StatusPending)
	orig.Notes = "VIP"
	f := FormFrom(orig)

	p, err := f.Patch(orig)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	f.Set(FieldCheckOutDate, "2024-03-06")
	f.Set(FieldStatus, "Confirmed")
	f.Set(FieldNotes, "")
	p, err = f.Patch(orig)
	require.NoError(t, err)
	assert.Equal(t, []string{"checkOutDate", "notes", "status"}, p.Changes())
	assert.Equal(t, "", *p.Notes)

	next, err := p.Apply(orig)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", next.CheckOutDate.String())
	assert.Equal(t, domain.StatusConfirmed, next.Status)
}

func TestForm_PatchClearsRoomType(t *testing.T) {
	orig := row(5, "Анна", 1, 4, domain.RoomDeluxe, domain.StatusPending)
	f := FormFrom(orig)
	f.Set(FieldRoomType, "")

	p, err := f.Patch(orig)
	require.NoError(t, err)
	assert.Equal(t, []string{"roomType"}, p.Changes())
	require.NotNil(t, p.RoomType)
	assert.Equal(t, domain.RoomType(""), *p.RoomType)

	next, err := p.Apply(orig)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomType(""), next.RoomType)

	// Nothing to clear when the booking never had a room type.
	orig.RoomType = ""
	p, err = FormFrom(orig).Patch(orig)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Люкс", RoomLabel(domain.RoomSuite))
	assert.Equal(t, "Личное посещение", SourceLabel(domain.SourceWalkIn))
	assert.Equal(t, "Отменено", StatusLabel(domain.StatusCanceled))
	assert.Equal(t, "penthouse", RoomLabel("penthouse"))
	assert.Equal(t, "", RoomLabel(""))
}
