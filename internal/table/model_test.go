package table

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/diagnosis/marketinn/internal/domain"
	"github.com/diagnosis/marketinn/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	rows   []domain.Booking
	nextID int64

	listErr   error
	// failPage makes List fail from that page on when it is non-zero.
	failPage  int
	createErr error
	updateErr error
	deleteErr error

	lastList    client.ListParams
	listPages   []int
	lastPatch   domain.BookingPatch
	createCalls int
	updateCalls int
	deleteCalls int
}

func (f *fakeAPI) List(_ context.Context, p client.ListParams) (*client.BookingList, error) {
	f.lastList = p
	f.listPages = append(f.listPages, p.Page)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.failPage > 0 && p.Page >= f.failPage {
		return nil, errors.New("page unavailable")
	}
	total := len(f.rows)
	pages := (total + p.Limit - 1) / p.Limit
	start := min(p.Page*p.Limit, total)
	end := min(start+p.Limit, total)
	return &client.BookingList{
		Bookings:    f.rows[start:end],
		TotalItems:  total,
		TotalPages:  pages,
		CurrentPage: p.Page,
	}, nil
}

func (f *fakeAPI) Create(_ context.Context, in domain.BookingInput) (*domain.Booking, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	b, err := domain.NewBooking(in, nil)
	if err != nil {
		return nil, err
	}
	b.ID = 1000 + f.nextID
	return b, nil
}

func (f *fakeAPI) Update(_ context.Context, id int64, patch domain.BookingPatch) (*domain.Booking, error) {
	f.updateCalls++
	f.lastPatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for _, b := range f.rows {
		if b.ID == id {
			next, err := patch.Apply(b)
			return &next, err
		}
	}
	return nil, &client.APIError{StatusCode: 404}
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.deleteCalls++
	return f.deleteErr
}

func row(id int64, guest string, in, out int, room domain.RoomType, status domain.BookingStatus) domain.Booking {
	return domain.Booking{
		ID:            id,
		GuestName:     guest,
		RoomID:        id,
		RoomType:      room,
		CheckInDate:   domain.NewDate(2024, time.March, in),
		CheckOutDate:  domain.NewDate(2024, time.March, out),
		Adults:        2,
		BookingSource: domain.SourceWebsite,
		Price:         float64(1000 * id),
		Status:        status,
	}
}

func sampleRows() []domain.Booking {
	return []domain.Booking{
		row(1, "Иван Петров", 10, 12, domain.RoomSuite, domain.StatusConfirmed),
		row(2, "Мария Сидорова", 5, 8, domain.RoomStandard, domain.StatusPending),
		row(3, "John Smith", 5, 6, domain.RoomDeluxe, domain.StatusCanceled),
		row(4, "Анна Иванова", 20, 22, domain.RoomFamily, domain.StatusCompleted),
	}
}

func loaded(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	m := NewModel(api)
	require.NoError(t, m.Load(context.Background()))
	return m
}

func visibleIDs(m *Model) []int64 {
	var out []int64
	for _, b := range m.Visible() {
		out = append(out, b.ID)
	}
	return out
}

func TestModel_LoadSortsByCheckInAscending(t *testing.T) {
	api := &fakeAPI{rows: sampleRows()}
	m := NewModel(api)
	m.SetFilters(client.ListParams{Status: "Confirmed", Page: 3, Limit: 5})
	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, LoadLimit, api.lastList.Limit)
	assert.Equal(t, []int{0}, api.listPages)
	assert.Equal(t, "Confirmed", api.lastList.Status)

	col, dir := m.SortState()
	assert.Equal(t, ColumnCheckInDate, col)
	assert.Equal(t, Asc, dir)
	// Rows 2 and 3 share a check-in date and keep their loaded order.
	assert.Equal(t, []int64{2, 3, 1, 4}, visibleIDs(m))
}

func TestModel_LoadFailureClearsRows(t *testing.T) {
	api := &fakeAPI{rows: sampleRows()}
	m := loaded(t, api)
	require.Len(t, m.Rows(), 4)

	api.listErr = errors.New("connection refused")
	err := m.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, api.listErr, m.LoadError())
	assert.Empty(t, m.Rows())
	assert.Empty(t, m.Visible())

	api.listErr = nil
	require.NoError(t, m.Load(context.Background()))
	assert.NoError(t, m.LoadError())
}

func TestModel_LoadWalksEveryServerPage(t *testing.T) {
	api := &fakeAPI{}
	for i := 1; i <= LoadLimit+50; i++ {
		api.rows = append(api.rows, row(int64(i), fmt.Sprintf("Гость %d", i), 1+i%20, 22, domain.RoomStandard, domain.StatusConfirmed))
	}
	m := loaded(t, api)

	assert.Equal(t, []int{0, 1}, api.listPages)
	assert.Len(t, m.Rows(), LoadLimit+50)
	assert.NoError(t, m.LoadError())

	m.SetSearch(fmt.Sprintf("Гость %d", LoadLimit+50))
	assert.Equal(t, []int64{LoadLimit + 50}, visibleIDs(m))
}

func TestModel_LoadFailureOnLaterPageClearsRows(t *testing.T) {
	api := &fakeAPI{failPage: 1}
	for i := 1; i <= LoadLimit+1; i++ {
		api.rows = append(api.rows, row(int64(i), "Гость", 1, 2, domain.RoomStandard, domain.StatusConfirmed))
	}
	m := NewModel(api)

	require.Error(t, m.Load(context.Background()))
	assert.Empty(t, m.Rows())
	assert.Error(t, m.LoadError())
}

func TestModel_RequestSortToggles(t *testing.T) {
	m := loaded(t, &fakeAPI{rows: sampleRows()})

	m.RequestSort(ColumnPrice)
	assert.Equal(t, []int64{1, 2, 3, 4}, visibleIDs(m))

	m.RequestSort(ColumnPrice)
	_, dir := m.SortState()
	assert.Equal(t, Desc, dir)
	assert.Equal(t, []int64{4, 3, 2, 1}, visibleIDs(m))

	m.RequestSort(ColumnGuestName)
	_, dir = m.SortState()
	assert.Equal(t, Asc, dir)
	assert.Equal(t, []int64{3, 4, 1, 2}, visibleIDs(m))
}

func TestModel_SearchMatchesLabelsAndDates(t *testing.T) {
	m := loaded(t, &fakeAPI{rows: sampleRows()})

	tests := []struct {
		term string
		want []int64
	}{
		{"иван", []int64{1, 4}},
		// "Делюкс" contains "люкс" too.
		{"Люкс", []int64{3, 1}},
		{"ожидание", []int64{2}},
		{"2024-03-05", []int64{2, 3}},
		{"веб-сайт", []int64{2, 3, 1, 4}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			m.SetSearch(tt.term)
			assert.Equal(t, tt.want, visibleIDs(m))
		})
	}
}

func TestModel_Paging(t *testing.T) {
	api := &fakeAPI{}
	for i := int64(1); i <= 27; i++ {
		api.rows = append(api.rows, row(i, fmt.Sprintf("Guest %02d", i), 1, 2, domain.RoomStandard, domain.StatusConfirmed))
	}
	m := loaded(t, api)

	assert.Equal(t, 10, m.RowsPerPage())
	assert.Equal(t, 3, m.PageCount())
	assert.Len(t, m.Visible(), 10)

	m.SetPage(2)
	assert.Len(t, m.Visible(), 7)

	m.SetPage(9)
	assert.Equal(t, 2, m.Page())

	m.SetRowsPerPage(25)
	assert.Equal(t, 0, m.Page())
	assert.Equal(t, 2, m.PageCount())

	m.SetRowsPerPage(7)
	assert.Equal(t, 25, m.RowsPerPage())

	m.SetPage(1)
	m.SetSearch("Guest 0")
	assert.Equal(t, 0, m.Page())
	assert.Len(t, m.Visible(), 9)
}

func TestModel_AddDialog(t *testing.T) {
	api := &fakeAPI{rows: sampleRows()}
	m := loaded(t, api)

	m.OpenAdd()
	d := m.Dialog()
	require.NotNil(t, d)
	assert.Equal(t, ModeAdd, d.Mode)
	assert.Equal(t, "1", d.Form.Adults)
	assert.False(t, m.CanSubmit())

	d.Set(FieldGuestName, "Пётр Васильев")
	d.Set(FieldRoomID, "7")
	d.Set(FieldCheckInDate, "2024-03-01")
	d.Set(FieldCheckOutDate, "2024-03-01")
	d.Set(FieldPrice, "12000")
	assert.False(t, m.CanSubmit())
	assert.Contains(t, d.FieldErrors(), FieldCheckOutDate)

	d.Set(FieldCheckOutDate, "2024-03-03")
	require.True(t, m.CanSubmit())

	m.CloseDialog()
	assert.Nil(t, m.Dialog())
	assert.Zero(t, api.createCalls)
	m.OpenAdd()
	d = m.Dialog()
	assert.Equal(t, "", d.Form.GuestName)
	for _, kv := range [][2]string{
		{string(FieldGuestName), "Пётр Васильев"},
		{string(FieldRoomID), "7"},
		{string(FieldCheckInDate), "2024-03-01"},
		{string(FieldCheckOutDate), "2024-03-03"},
		{string(FieldPrice), "12000"},
	} {
		d.Set(Field(kv[0]), kv[1])
	}

	api.createErr = &client.APIError{StatusCode: 500, Message: "internal server error"}
	err := m.Submit(context.Background())
	require.Error(t, err)
	require.NotNil(t, m.Dialog())
	assert.Equal(t, err, m.Dialog().Err)
	assert.Equal(t, "Пётр Васильев", m.Dialog().Form.GuestName)
	assert.Len(t, m.Rows(), 4)

	api.createErr = nil
	require.NoError(t, m.Submit(context.Background()))
	assert.Nil(t, m.Dialog())
	require.Len(t, m.Rows(), 5)
	added := m.Rows()[4]
	assert.Equal(t, "Пётр Васильев", added.GuestName)
	assert.Equal(t, domain.SourceWebsite, added.BookingSource)
	assert.Equal(t, domain.RoomStandard, added.RoomType)
	assert.Equal(t, 2, api.createCalls)
}

func TestModel_EditDialogSendsOnlyChanges(t *testing.T) {
	api := &fakeAPI{rows: sampleRows()}
	m := loaded(t, api)

	require.Error(t, m.OpenEdit(99))
	require.NoError(t, m.OpenEdit(2))
	d := m.Dialog()
	assert.Equal(t, ModeEdit, d.Mode)
	assert.Equal(t, int64(2), d.BookingID())
	assert.Equal(t, "Мария Сидорова", d.Form.GuestName)
	assert.Equal(t, "2024-03-05", d.Form.CheckInDate)

	// Nothing changed: closes without a call.
	require.NoError(t, m.Submit(context.Background()))
	assert.Nil(t, m.Dialog())
	assert.Zero(t, api.updateCalls)

	require.NoError(t, m.OpenEdit(2))
	m.Dialog().Set(FieldPrice, "60000")
	require.NoError(t, m.Submit(context.Background()))
	assert.Equal(t, []string{"price"}, api.lastPatch.Changes())
	for _, b := range m.Rows() {
		if b.ID == 2 {
			assert.Equal(t, 60000.0, b.Price)
		}
	}
}

func TestModel_EditFailureKeepsDialog(t *testing.T) {
	api := &fakeAPI{rows: sampleRows(), updateErr: &client.APIError{StatusCode: 400, Message: "validation failed"}}
	m := loaded(t, api)

	require.NoError(t, m.OpenEdit(1))
	m.Dialog().Set(FieldNotes, "поздний заезд")
	err := m.Submit(context.Background())
	require.Error(t, err)
	require.NotNil(t, m.Dialog())
	assert.Equal(t, "поздний заезд", m.Dialog().Form.Notes)
	assert.Equal(t, err, m.Dialog().Err)
	assert.Equal(t, "", m.Rows()[0].Notes)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{rows: sampleRows()}
	m := loaded(t, api)

	m.RequestDelete(3)
	assert.Equal(t, int64(3), m.PendingDelete())
	m.CancelDelete()
	assert.Zero(t, m.PendingDelete())
	assert.Zero(t, api.deleteCalls)
	assert.Len(t, m.Rows(), 4)

	m.RequestDelete(3)
	api.deleteErr = errors.New("boom")
	require.Error(t, m.ConfirmDelete(context.Background()))
	assert.Equal(t, int64(3), m.PendingDelete())
	assert.Equal(t, api.deleteErr, m.DeleteError())
	assert.Len(t, m.Rows(), 4)

	api.deleteErr = nil
	require.NoError(t, m.ConfirmDelete(context.Background()))
	assert.Zero(t, m.PendingDelete())
	assert.NoError(t, m.DeleteError())
	assert.Len(t, m.Rows(), 3)
	assert.NotContains(t, visibleIDs(m), int64(3))
}

func TestModel_SubmitWithoutDialog(t *testing.T) {
	m := NewModel(&fakeAPI{})
	assert.ErrorIs(t, m.Submit(context.Background()), ErrNoDialog)
	assert.False(t, m.CanSubmit())
}
