package app

import "errors"

var (
	// ErrMissingIdentityFields is returned when find-or-create lacks the
	// minimum identity fields (first name, last name, email).
	ErrMissingIdentityFields = errors.New("first name, last name, and email are required")

	ErrUserExists        = errors.New("User already exists.")
	ErrReservationExists = errors.New("Reservation already exists.")
	ErrDonationExists    = errors.New("Donation already exists.")
)
