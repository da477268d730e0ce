package domain

import (
	"encoding/json"
	"strings"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "Confirmed"
	StatusPending   BookingStatus = "Pending"
	StatusCanceled  BookingStatus = "Canceled"
	StatusCompleted BookingStatus = "Completed"
)

var BookingStatuses = []BookingStatus{StatusConfirmed, StatusPending, StatusCanceled, StatusCompleted}

var statusAliases = map[string]BookingStatus{
	"confirmed": StatusConfirmed,
	"pending":   StatusPending,
	"canceled":  StatusCanceled,
	"cancelled": StatusCanceled,
	"completed": StatusCompleted,
}

// ParseBookingStatus is case-insensitive and returns the canonical spelling.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

func (s *BookingStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if st, ok := ParseBookingStatus(raw); ok {
		*s = st
		return nil
	}
	// Unknown values are kept so validation can name the field.
	*s = BookingStatus(raw)
	return nil
}

type RoomType string

const (
	RoomStandard  RoomType = "standard"
	RoomDeluxe    RoomType = "deluxe"
	RoomSuite     RoomType = "suite"
	RoomExecutive RoomType = "executive"
	RoomFamily    RoomType = "family"
)

var RoomTypes = []RoomType{RoomStandard, RoomDeluxe, RoomSuite, RoomExecutive, RoomFamily}

func ParseRoomType(s string) (RoomType, bool) {
	rt := RoomType(strings.ToLower(strings.TrimSpace(s)))
	return rt, rt.Valid()
}

func (r RoomType) Valid() bool {
	switch r {
	case RoomStandard, RoomDeluxe, RoomSuite, RoomExecutive, RoomFamily:
		return true
	}
	return false
}

func (r *RoomType) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if rt, ok := ParseRoomType(raw); ok {
		*r = rt
		return nil
	}
	*r = RoomType(raw)
	return nil
}

type BookingSource string

const (
	SourceDirect  BookingSource = "direct"
	SourceWebsite BookingSource = "website"
	SourcePhone   BookingSource = "phone"
	SourceAgency  BookingSource = "agency"
	SourceWalkIn  BookingSource = "walkin"
	SourceBooking BookingSource = "booking"
	SourceExpedia BookingSource = "expedia"
	SourceAirbnb  BookingSource = "airbnb"
)

var BookingSources = []BookingSource{
	SourceDirect, SourceWebsite, SourcePhone, SourceAgency,
	SourceWalkIn, SourceBooking, SourceExpedia, SourceAirbnb,
}

func ParseBookingSource(s string) (BookingSource, bool) {
	src := BookingSource(strings.ToLower(strings.TrimSpace(s)))
	return src, src.Valid()
}

func (s BookingSource) Valid() bool {
	switch s {
	case SourceDirect, SourceWebsite, SourcePhone, SourceAgency,
		SourceWalkIn, SourceBooking, SourceExpedia, SourceAirbnb:
		return true
	}
	return false
}

func (s *BookingSource) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if src, ok := ParseBookingSource(raw); ok {
		*s = src
		return nil
	}
	*s = BookingSource(raw)
	return nil
}
