package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM row models. Column names match the historical schema (bg_username,
// roomtype, time_slots_taken, password).

type roleRow struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"size:64;not null;uniqueIndex"`
}

func (roleRow) TableName() string { return "roles" }

type userRow struct {
	ID               string  `gorm:"primaryKey;size:36"`
	FirstName        string  `gorm:"not null"`
	LastName         string  `gorm:"not null"`
	School           string  `gorm:"not null"`
	BGUsername       string  `gorm:"column:bg_username;not null;uniqueIndex"`
	ProfileURL       string  `gorm:"not null"`
	IsLocked         bool    `gorm:"not null"`
	Praises          int     `gorm:"not null"`
	Demerits         int     `gorm:"not null"`
	UserRating       float64 `gorm:"not null"`
	Visits           int     `gorm:"not null"`
	ReservationCount int     `gorm:"column:reservations;not null"`
	RoleID           int     `gorm:"not null"`
	Email            string  `gorm:"not null;uniqueIndex"`
	Phone            string  `gorm:"not null;index"`
	PasswordHash     string  `gorm:"column:password;not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Role *roleRow `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION"`
}

func (userRow) TableName() string { return "users" }

type roomRow struct {
	ID             string `gorm:"primaryKey;size:36"`
	RoomType       string `gorm:"column:roomtype"`
	Seats          int
	TimeSlotsTaken datatypes.JSONType[map[string][]string] `gorm:"column:time_slots_taken"`
}

func (roomRow) TableName() string { return "rooms" }

type donationRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Amount    string
	UserID    string `gorm:"size:36;not null;index"`
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time

	User *userRow `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (donationRow) TableName() string { return "donations" }

type reservationRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	Datetime   string
	Duration   string
	UserID     string  `gorm:"size:36;not null;index"`
	RoomID     string  `gorm:"size:36;not null;index"`
	DonationID *string `gorm:"size:36"`

	User     *userRow     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Room     *roomRow     `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Donation *donationRow `gorm:"foreignKey:DonationID;constraint:OnDelete:SET NULL"`
}

func (reservationRow) TableName() string { return "reservations" }
