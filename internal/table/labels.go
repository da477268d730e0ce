package table

import "github.com/diagnosis/marketinn/internal/domain"

var roomLabels = map[domain.RoomType]string{
	domain.RoomStandard:  "Стандартный",
	domain.RoomDeluxe:    "Делюкс",
	domain.RoomSuite:     "Люкс",
	domain.RoomExecutive: "Представительский",
	domain.RoomFamily:    "Семейный",
}

var sourceLabels = map[domain.BookingSource]string{
	domain.SourceDirect:  "Прямое бронирование",
	domain.SourceWebsite: "Веб-сайт",
	domain.SourcePhone:   "Телефон",
	domain.SourceAgency:  "Агентство",
	domain.SourceWalkIn:  "Личное посещение",
	domain.SourceBooking: "Booking.com",
	domain.SourceExpedia: "Expedia",
	domain.SourceAirbnb:  "Airbnb",
}

var statusLabels = map[domain.BookingStatus]string{
	domain.StatusConfirmed: "Подтверждено",
	domain.StatusPending:   "Ожидание",
	domain.StatusCanceled:  "Отменено",
	domain.StatusCompleted: "Завершено",
}

// RoomLabel falls back to the raw value for unknown room types.
func RoomLabel(r domain.RoomType) string {
	if l, ok := roomLabels[r]; ok {
		return l
	}
	return string(r)
}

func SourceLabel(s domain.BookingSource) string {
	if l, ok := sourceLabels[s]; ok {
		return l
	}
	return string(s)
}

func StatusLabel(s domain.BookingStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
