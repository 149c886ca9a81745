package domain

import "time"

// Role identifiers seeded by default. A role row cannot be deleted while
// users still reference it.
const (
	RoleAdminID = 1
	RoleUserID  = 2
)

type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is a platform member, created explicitly through the users endpoint
// or provisioned lazily on first successful authentication.
type User struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	School           string    `json:"school"`
	BGUsername       string    `json:"bg_username"`
	ProfileURL       string    `json:"profile_url"`
	IsLocked         bool      `json:"isLocked"`
	Praises          int       `json:"praises"`
	Demerits         int       `json:"demerits"`
	UserRating       float64   `json:"user_rating"`
	Visits           int       `json:"visits"`
	ReservationCount int       `json:"reservations"`
	RoleID           int       `json:"role_id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Room is a bookable space. TimeSlotsTaken maps a date key (DDMMYYYY) to the
// start times already reserved on that date.
type Room struct {
	ID             string              `json:"id"`
	RoomType       string              `json:"roomtype"`
	Seats          int                 `json:"seats"`
	TimeSlotsTaken map[string][]string `json:"time_slots_taken"`
}

// Reservation books a room for a user. DonationID is set when the user
// donated during the reservation flow.
type Reservation struct {
	ID         string  `json:"id"`
	Datetime   string  `json:"datetime"`
	Duration   string  `json:"duration"`
	UserID     string  `json:"user_id"`
	RoomID     string  `json:"room_id"`
	DonationID *string `json:"donation_id"`
}

type Donation struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
