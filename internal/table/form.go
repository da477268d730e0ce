package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/diagnosis/marketinn/internal/domain"
)

type Field string

const (
	FieldGuestName     Field = "guestName"
	FieldRoomID        Field = "roomId"
	FieldRoomType      Field = "roomType"
	FieldCheckInDate   Field = "checkInDate"
	FieldCheckOutDate  Field = "checkOutDate"
	FieldAdults        Field = "adults"
	FieldChildren      Field = "children"
	FieldBookingSource Field = "bookingSource"
	FieldPrice         Field = "price"
	FieldStatus        Field = "status"
	FieldNotes         Field = "notes"
)

// RequiredFields must be non-empty before the dialog can submit.
var RequiredFields = []Field{FieldGuestName, FieldRoomID, FieldCheckInDate, FieldCheckOutDate, FieldPrice}

// Form holds dialog input exactly as typed. Input and Patch coerce it into
// typed payloads.
type Form struct {
	GuestName     string
	RoomID        string
	RoomType      string
	CheckInDate   string
	CheckOutDate  string
	Adults        string
	Children      string
	BookingSource string
	Price         string
	Status        string
	Notes         string
}

func EmptyForm() Form {
	return Form{
		RoomType:      string(domain.RoomStandard),
		Adults:        "1",
		Children:      "0",
		BookingSource: string(domain.SourceWebsite),
		Status:        string(domain.StatusConfirmed),
	}
}

func FormFrom(b domain.Booking) Form {
	return Form{
		GuestName:     b.GuestName,
		RoomID:        strconv.FormatInt(b.RoomID, 10),
		RoomType:      string(b.RoomType),
		CheckInDate:   b.CheckInDate.String(),
		CheckOutDate:  b.CheckOutDate.String(),
		Adults:        strconv.Itoa(b.Adults),
		Children:      strconv.Itoa(b.Children),
		BookingSource: string(b.BookingSource),
		Price:         strconv.FormatFloat(b.Price, 'f', -1, 64),
		Status:        string(b.Status),
		Notes:         b.Notes,
	}
}

func (f *Form) field(name Field) *string {
	switch name {
	case FieldGuestName:
		return &f.GuestName
	case FieldRoomID:
		return &f.RoomID
	case FieldRoomType:
		return &f.RoomType
	case FieldCheckInDate:
		return &f.CheckInDate
	case FieldCheckOutDate:
		return &f.CheckOutDate
	case FieldAdults:
		return &f.Adults
	case FieldChildren:
		return &f.Children
	case FieldBookingSource:
		return &f.BookingSource
	case FieldPrice:
		return &f.Price
	case FieldStatus:
		return &f.Status
	case FieldNotes:
		return &f.Notes
	}
	return nil
}

// Set assigns a field by name and reports whether the name is known.
func (f *Form) Set(name Field, value string) bool {
	p := f.field(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (f Form) Get(name Field) string {
	if p := f.field(name); p != nil {
		return *p
	}
	return ""
}

// Validate mirrors the server rules: required fields, numeric coercion and
// stay date order. The result maps field to message; empty means valid.
func (f Form) Validate() map[Field]string {
	_, errs := f.coerce()
	return errs
}

const tooLarge = "слишком большое значение"

type coerced struct {
	roomID            int64
	checkIn, checkOut domain.Date
	adults, children  int
	price             float64
}

func (f Form) coerce() (coerced, map[Field]string) {
	var c coerced
	errs := map[Field]string{}
	for _, name := range RequiredFields {
		if strings.TrimSpace(f.Get(name)) == "" {
			errs[name] = "обязательное поле"
		}
	}

	if v := strings.TrimSpace(f.RoomID); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			errs[FieldRoomID] = "должно быть целым числом не меньше 1"
		}
		c.roomID = n
	}
	if v := strings.TrimSpace(f.CheckInDate); v != "" {
		d, err := domain.ParseDate(v)
		if err != nil {
			errs[FieldCheckInDate] = "неверная дата"
		}
		c.checkIn = d
	}
	if v := strings.TrimSpace(f.CheckOutDate); v != "" {
		d, err := domain.ParseDate(v)
		if err != nil {
			errs[FieldCheckOutDate] = "неверная дата"
		}
		c.checkOut = d
	}
	if !c.checkIn.IsZero() && !c.checkOut.IsZero() && !c.checkOut.After(c.checkIn) {
		errs[FieldCheckOutDate] = "дата выезда должна быть позже даты заезда"
	}

	c.adults = 1
	if v := strings.TrimSpace(f.Adults); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n < 1:
			errs[FieldAdults] = "должно быть не меньше 1"
		case n > domain.MaxGuests:
			errs[FieldAdults] = tooLarge
		}
		c.adults = n
	}
	if v := strings.TrimSpace(f.Children); v != "" {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n < 0:
			errs[FieldChildren] = "должно быть не меньше 0"
		case n > domain.MaxGuests:
			errs[FieldChildren] = tooLarge
		}
		c.children = n
	}
	if v := strings.TrimSpace(f.Price); v != "" {
		p, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		switch {
		case err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0):
			errs[FieldPrice] = "должно быть неотрицательным числом"
		case p > domain.MaxPrice:
			errs[FieldPrice] = tooLarge
		}
		c.price = p
	}
	if v := strings.TrimSpace(f.RoomType); v != "" {
		if _, ok := domain.ParseRoomType(v); !ok {
			errs[FieldRoomType] = "неизвестный тип номера"
		}
	}
	if v := f.BookingSource; v != "" {
		if _, ok := domain.ParseBookingSource(v); !ok {
			errs[FieldBookingSource] = "неизвестный источник"
		}
	}
	if v := f.Status; v != "" {
		if _, ok := domain.ParseBookingStatus(v); !ok {
			errs[FieldStatus] = "неизвестный статус"
		}
	}
	return c, errs
}

func validationError(errs map[Field]string) error {
	if len(errs) == 0 {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		fields[string(k)] = v
	}
	return &domain.ValidationError{Fields: fields}
}

// Input builds the create payload.
func (f Form) Input() (domain.BookingInput, error) {
	c, errs := f.coerce()
	if err := validationError(errs); err != nil {
		return domain.BookingInput{}, err
	}
	in := domain.BookingInput{
		GuestName:    strings.TrimSpace(f.GuestName),
		RoomID:       &c.roomID,
		CheckInDate:  &c.checkIn,
		CheckOutDate: &c.checkOut,
		Adults:       &c.adults,
		Children:     &c.children,
		Price:        &c.price,
		Notes:        f.Notes,
	}
	if rt, ok := domain.ParseRoomType(f.RoomType); ok {
		in.RoomType = rt
	}
	if src, ok := domain.ParseBookingSource(f.BookingSource); ok {
		in.BookingSource = src
	}
	if st, ok := domain.ParseBookingStatus(f.Status); ok {
		in.Status = st
	}
	return in, nil
}

// Patch builds an update carrying only the fields that differ from orig.
func (f Form) Patch(orig domain.Booking) (domain.BookingPatch, error) {
	c, errs := f.coerce()
	if err := validationError(errs); err != nil {
		return domain.BookingPatch{}, err
	}
	var p domain.BookingPatch
	if name := strings.TrimSpace(f.GuestName); name != orig.GuestName {
		p.GuestName = &name
	}
	if c.roomID != orig.RoomID {
		p.RoomID = &c.roomID
	}
	if rt, ok := domain.ParseRoomType(f.RoomType); ok && rt != orig.RoomType {
		p.RoomType = &rt
	} else if strings.TrimSpace(f.RoomType) == "" && orig.RoomType != "" {
		// An empty room type clears the stored one.
		none := domain.RoomType("")
		p.RoomType = &none
	}
	if !c.checkIn.Equal(orig.CheckInDate) {
		p.CheckInDate = &c.checkIn
	}
	if !c.checkOut.Equal(orig.CheckOutDate) {
		p.CheckOutDate = &c.checkOut
	}
	if c.adults != orig.Adults {
		p.Adults = &c.adults
	}
	if c.children != orig.Children {
		p.Children = &c.children
	}
	if src, ok := domain.ParseBookingSource(f.BookingSource); ok && src != orig.BookingSource {
		p.BookingSource = &src
	}
	if c.price != orig.Price {
		p.Price = &c.price
	}
	if st, ok := domain.ParseBookingStatus(f.Status); ok && st != orig.Status {
		p.Status = &st
	}
	if f.Notes != orig.Notes {
		notes := f.Notes
		p.Notes = &notes
	}
	return p, nil
}
