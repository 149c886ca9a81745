package domain

// Patch types carry partial updates. Only non-nil fields are applied; the
// persistence layer leaves everything else untouched.

type UserPatch struct {
	FirstName        *string  `json:"first_name"`
	LastName         *string  `json:"last_name"`
	School           *string  `json:"school"`
	BGUsername       *string  `json:"bg_username"`
	ProfileURL       *string  `json:"profile_url"`
	IsLocked         *bool    `json:"isLocked"`
	Praises          *int     `json:"praises"`
	Demerits         *int     `json:"demerits"`
	UserRating       *float64 `json:"user_rating"`
	Visits           *int     `json:"visits"`
	ReservationCount *int     `json:"reservations"`
	RoleID           *int     `json:"role_id"`
	Email            *string  `json:"email"`
	Phone            *string  `json:"phone"`
}

type ReservationPatch struct {
	Datetime   *string `json:"datetime"`
	Duration   *string `json:"duration"`
	UserID     *string `json:"user_id"`
	RoomID     *string `json:"room_id"`
	DonationID *string `json:"donation_id"`
}

type DonationPatch struct {
	Amount *string `json:"amount"`
	UserID *string `json:"user_id"`
	Email  *string `json:"email"`
}
