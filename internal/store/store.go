package store

import (
	"errors"

	"spacebook/pkg/domain"
)

// ErrDuplicate reports a uniqueness violation (id, email, or bg_username).
// Callers racing on create treat it as "already exists".
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound reports that an update targeted a row that does not exist.
// Point lookups return (zero, false, nil) instead.
var ErrNotFound = errors.New("record not found")

// UserFilter narrows user lookups. Zero-value fields are ignored.
type UserFilter struct {
	Email      string
	BGUsername string
	RoleID     int
}

// ReservationFilter narrows reservation lookups.
type ReservationFilter struct {
	UserID string
	RoomID string
}

// DonationFilter narrows donation lookups.
type DonationFilter struct {
	UserID string
	Email  string
}

// Store defines persistence operations over roles, users, rooms,
// reservations, and donations. Uniqueness and referential integrity are
// enforced here (or by the backing database), never by callers.
type Store interface {
	// roles
	SaveRole(domain.Role) error
	GetRole(id int) (domain.Role, bool, error)

	// users
	ListUsers() ([]domain.User, error)
	FindUsers(UserFilter) ([]domain.User, error)
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	CreateUser(domain.User) error
	UpdateUser(id string, patch domain.UserPatch) (domain.User, error)
	DeleteUser(id string) (int64, error)

	// rooms
	SaveRoom(domain.Room) error
	ListRooms() ([]domain.Room, error)
	GetRoomByID(id string) (domain.Room, bool, error)

	// reservations
	ListReservations() ([]domain.Reservation, error)
	FindReservations(ReservationFilter) ([]domain.Reservation, error)
	GetReservationByID(id string) (domain.Reservation, bool, error)
	CreateReservation(domain.Reservation) error
	UpdateReservation(id string, patch domain.ReservationPatch) (domain.Reservation, error)
	DeleteReservation(id string) (int64, error)

	// donations
	ListDonations() ([]domain.Donation, error)
	FindDonations(DonationFilter) ([]domain.Donation, error)
	GetDonationByID(id string) (domain.Donation, bool, error)
	CreateDonation(domain.Donation) error
	UpdateDonation(id string, patch domain.DonationPatch) (domain.Donation, error)
	DeleteDonation(id string) (int64, error)
}
