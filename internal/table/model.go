// Package table models the booking table screen: a loaded set of rows with
// client-side search, sort and paging, plus the add/edit dialog and the delete
// confirmation. A Model is owned by a single goroutine.
package table

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/internal/utils"
	"github.com/diagnosis/marketinn/pkg/client"
	"github.com/diagnosis/marketinn/pkg/logger"
)

// BookingsAPI is the subset of the API client the table needs.
type BookingsAPI interface {
	List(ctx context.Context, p client.ListParams) (*client.BookingList, error)
	Create(ctx context.Context, in domain.BookingInput) (*domain.Booking, error)
	Update(ctx context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
}

var _ BookingsAPI = (*client.Client)(nil)

// LoadLimit is the page size requested from the server. Load walks every
// server page and search and sort run over the combined rows.
const LoadLimit = 100

// maxLoadPages bounds Load against a server that never reports a last page.
const maxLoadPages = 1000

var RowsPerPageOptions = []int{10, 25, 50}

type Column string

const (
	ColumnGuestName     Column = "guestName"
	ColumnRoomID        Column = "roomId"
	ColumnRoomType      Column = "roomType"
	ColumnCheckInDate   Column = "checkInDate"
	ColumnCheckOutDate  Column = "checkOutDate"
	ColumnAdults        Column = "adults"
	ColumnChildren      Column = "children"
	ColumnBookingSource Column = "bookingSource"
	ColumnPrice         Column = "price"
	ColumnStatus        Column = "status"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

var ErrNoDialog = errors.New("table: no dialog open")

type DialogMode int

const (
	ModeAdd DialogMode = iota
	ModeEdit
)

// Dialog is the add/edit form. Err holds the last failed submit and the form
// keeps whatever the user typed.
type Dialog struct {
	Mode DialogMode
	Form Form
	Err  error

	orig domain.Booking
}

func (d *Dialog) Set(field Field, value string) bool {
	return d.Form.Set(field, value)
}

// BookingID is zero for an add dialog.
func (d *Dialog) BookingID() int64 {
	return d.orig.ID
}

// FieldErrors returns the client-side validation failures for the form.
func (d *Dialog) FieldErrors() map[Field]string {
	return d.Form.Validate()
}

type Model struct {
	api     BookingsAPI
	filters client.ListParams

	rows    []domain.Booking
	loadErr error

	search      string
	orderBy     Column
	order       Direction
	page        int
	rowsPerPage int

	dialog      *Dialog
	deleteID    int64
	deleteError error
}

func NewModel(api BookingsAPI) *Model {
	return &Model{
		api:         api,
		orderBy:     ColumnCheckInDate,
		order:       Asc,
		rowsPerPage: RowsPerPageOptions[0],
	}
}

// SetFilters sets the server-side filters used by the next Load. Page and
// Limit are managed by the model.
func (m *Model) SetFilters(p client.ListParams) {
	p.Page, p.Limit = 0, 0
	m.filters = p
}

// Load replaces the rows with a fresh fetch of every server page. On failure
// the rows are cleared so stale or partial data is never shown.
func (m *Model) Load(ctx context.Context) error {
	p := m.filters
	p.Limit = LoadLimit
	var rows []domain.Booking
	for page := 0; page < maxLoadPages; page++ {
		p.Page = page
		res, err := m.api.List(ctx, p)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to load bookings", "page", page, "error", err)
			m.rows = nil
			m.loadErr = err
			m.page = 0
			return err
		}
		rows = append(rows, res.Bookings...)
		if len(res.Bookings) == 0 || page+1 >= res.TotalPages {
			break
		}
	}
	m.rows = rows
	m.loadErr = nil
	m.clampPage()
	return nil
}

func (m *Model) LoadError() error { return m.loadErr }

func (m *Model) Rows() []domain.Booking { return slices.Clone(m.rows) }

func (m *Model) SetSearch(term string) {
	m.search = term
	m.page = 0
}

func (m *Model) Search() string { return m.search }

// RequestSort sorts by col ascending, or flips the direction when col is
// already the sort column.
func (m *Model) RequestSort(col Column) {
	if m.orderBy == col {
		if m.order == Asc {
			m.order = Desc
		} else {
			m.order = Asc
		}
		return
	}
	m.orderBy = col
	m.order = Asc
}

func (m *Model) SortState() (Column, Direction) { return m.orderBy, m.order }

// Filtered returns the rows matching the search term in sort order.
func (m *Model) Filtered() []domain.Booking {
	term := strings.TrimSpace(m.search)
	out := make([]domain.Booking, 0, len(m.rows))
	for _, b := range m.rows {
		if term == "" || matches(b, term) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Booking) int {
		c := compareBy(m.orderBy, a, b)
		if m.order == Desc {
			return -c
		}
		return c
	})
	return out
}

func matches(b domain.Booking, term string) bool {
	for _, s := range []string{
		b.GuestName,
		RoomLabel(b.RoomType),
		strconv.FormatInt(b.RoomID, 10),
		b.CheckInDate.String(),
		b.CheckOutDate.String(),
		SourceLabel(b.BookingSource),
		StatusLabel(b.Status),
	} {
		if s != "" && utils.ContainsFold(s, term) {
			return true
		}
	}
	return false
}

func compareBy(col Column, a, b domain.Booking) int {
	switch col {
	case ColumnGuestName:
		return cmp.Compare(a.GuestName, b.GuestName)
	case ColumnRoomID:
		return cmp.Compare(a.RoomID, b.RoomID)
	case ColumnRoomType:
		return cmp.Compare(a.RoomType, b.RoomType)
	case ColumnCheckInDate:
		return a.CheckInDate.Time.Compare(b.CheckInDate.Time)
	case ColumnCheckOutDate:
		return a.CheckOutDate.Time.Compare(b.CheckOutDate.Time)
	case ColumnAdults:
		return cmp.Compare(a.Adults, b.Adults)
	case ColumnChildren:
		return cmp.Compare(a.Children, b.Children)
	case ColumnBookingSource:
		return cmp.Compare(a.BookingSource, b.BookingSource)
	case ColumnPrice:
		return cmp.Compare(a.Price, b.Price)
	case ColumnStatus:
		return cmp.Compare(a.Status, b.Status)
	}
	return 0
}

func (m *Model) PageCount() int {
	n := len(m.Filtered())
	if n == 0 {
		return 1
	}
	return (n + m.rowsPerPage - 1) / m.rowsPerPage
}

func (m *Model) Page() int        { return m.page }
func (m *Model) RowsPerPage() int { return m.rowsPerPage }

// SetPage moves to page p, clamped to the available pages.
func (m *Model) SetPage(p int) {
	m.page = p
	m.clampPage()
}

// SetRowsPerPage changes the page size and returns to the first page.
// Sizes outside RowsPerPageOptions are ignored.
func (m *Model) SetRowsPerPage(n int) {
	if !slices.Contains(RowsPerPageOptions, n) {
		return
	}
	m.rowsPerPage = n
	m.page = 0
}

func (m *Model) clampPage() {
	if last := m.PageCount() - 1; m.page > last {
		m.page = last
	}
	if m.page < 0 {
		m.page = 0
	}
}

// Visible returns the current page of filtered, sorted rows.
func (m *Model) Visible() []domain.Booking {
	rows := m.Filtered()
	start := m.page * m.rowsPerPage
	if start >= len(rows) {
		return []domain.Booking{}
	}
	end := min(start+m.rowsPerPage, len(rows))
	return rows[start:end]
}

func (m *Model) OpenAdd() {
	m.dialog = &Dialog{Mode: ModeAdd, Form: EmptyForm()}
}

// OpenEdit opens the dialog prefilled from a loaded row.
func (m *Model) OpenEdit(id int64) error {
	i := m.indexOf(id)
	if i < 0 {
		return &domain.NotFoundError{Resource: "booking", ID: strconv.FormatInt(id, 10)}
	}
	b := m.rows[i]
	m.dialog = &Dialog{Mode: ModeEdit, Form: FormFrom(b), orig: b}
	return nil
}

// Dialog returns the open dialog or nil.
func (m *Model) Dialog() *Dialog { return m.dialog }

func (m *Model) CloseDialog() { m.dialog = nil }

// CanSubmit reports whether the open dialog passes client-side validation.
func (m *Model) CanSubmit() bool {
	return m.dialog != nil && len(m.dialog.Form.Validate()) == 0
}

// Submit sends the dialog to the API. The dialog closes only on success;
// otherwise it stays open with Err set.
func (m *Model) Submit(ctx context.Context) error {
	d := m.dialog
	if d == nil {
		return ErrNoDialog
	}
	d.Err = nil

	var err error
	switch d.Mode {
	case ModeAdd:
		err = m.submitAdd(ctx, d)
	case ModeEdit:
		err = m.submitEdit(ctx, d)
	}
	if err != nil {
		d.Err = err
		return err
	}
	m.dialog = nil
	return nil
}

func (m *Model) submitAdd(ctx context.Context, d *Dialog) error {
	in, err := d.Form.Input()
	if err != nil {
		return err
	}
	created, err := m.api.Create(ctx, in)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create booking", "error", err)
		return err
	}
	m.rows = append(m.rows, *created)
	return nil
}

func (m *Model) submitEdit(ctx context.Context, d *Dialog) error {
	patch, err := d.Form.Patch(d.orig)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	updated, err := m.api.Update(ctx, d.orig.ID, patch)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to update booking", "booking_id", d.orig.ID, "error", err)
		return err
	}
	if i := m.indexOf(updated.ID); i >= 0 {
		m.rows[i] = *updated
	} else {
		m.rows = append(m.rows, *updated)
	}
	return nil
}

// RequestDelete asks for confirmation before deleting id. Nothing is sent
// until ConfirmDelete.
func (m *Model) RequestDelete(id int64) {
	m.deleteID = id
	m.deleteError = nil
}

// PendingDelete returns the id awaiting confirmation, or zero.
func (m *Model) PendingDelete() int64 { return m.deleteID }

func (m *Model) DeleteError() error { return m.deleteError }

func (m *Model) CancelDelete() {
	m.deleteID = 0
	m.deleteError = nil
}

// ConfirmDelete deletes the pending booking. On failure the confirmation
// stays pending with DeleteError set.
func (m *Model) ConfirmDelete(ctx context.Context) error {
	id := m.deleteID
	if id == 0 {
		return nil
	}
	if err := m.api.Delete(ctx, id); err != nil {
		logger.ErrorContext(ctx, "Failed to delete booking", "booking_id", id, "error", err)
		m.deleteError = err
		return err
	}
	if i := m.indexOf(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	m.deleteID = 0
	m.deleteError = nil
	m.clampPage()
	return nil
}

func (m *Model) indexOf(id int64) int {
	return slices.IndexFunc(m.rows, func(b domain.Booking) bool { return b.ID == id })
}
