package main

import (
	"fmt"
	"log"
	"log/slog"
	"strings"

	"spacebook/internal/app"
	"spacebook/internal/config"
	"spacebook/internal/util"
	"spacebook/pkg/domain"
)

type seedUser struct {
	id        string
	email     string
	firstName string
	lastName  string
	roleID    int
}

var seedUsers = []seedUser{
	{"57e747fc-a0d0-44af-a9ee-1b90e083a88b", "ana@spacebook.dev", "Ana", "Carillo", domain.RoleAdminID},
	{"d22b9b36-f699-4f46-bd01-6918772b4f59", "alexander@spacebook.dev", "Alexander", "Besse", domain.RoleUserID},
	{"6bcd387f-3448-4d34-8de1-d4c748672ff5", "drake@spacebook.dev", "Drake", "Alia", domain.RoleUserID},
	{"0bc64799-fa50-4110-8c18-83ff6f59fc01", "anthony@spacebook.dev", "Anthony", "Koharian", domain.RoleUserID},
	{"f882279e-1f56-44ca-a04f-1ceea1841c96", "yasir@spacebook.dev", "Yasir", "Hamm", domain.RoleUserID},
}

var seedRooms = []domain.Room{
	{
		ID:       "da3024b3-ad0d-4bda-b45b-7fcf129ab08a",
		RoomType: "Coworking",
		Seats:    10,
		TimeSlotsTaken: map[string][]string{
			"09022020": {"1000", "1400", "1700"},
		},
	},
	{
		ID:       "eccfbc02-b0a8-4cb1-ae42-ee1e91e420fe",
		RoomType: "Media",
		Seats:    20,
		TimeSlotsTaken: map[string][]string{
			"09022020": {"1000", "1200"},
		},
	},
}

var seedReservations = []domain.Reservation{
	{ID: "4d3ffc4c-c32d-4917-8ee9-757fc46e5db7", Datetime: "09022020:1000", Duration: "1h", UserID: "57e747fc-a0d0-44af-a9ee-1b90e083a88b", RoomID: "da3024b3-ad0d-4bda-b45b-7fcf129ab08a"},
	{ID: "5c13ceb8-af60-45bb-84ea-545d4d773fe3", Datetime: "09022020:1400", Duration: "1h", UserID: "d22b9b36-f699-4f46-bd01-6918772b4f59", RoomID: "da3024b3-ad0d-4bda-b45b-7fcf129ab08a"},
	{ID: "36b7210f-9fb1-4941-a3f1-7672df561665", Datetime: "09022020:1700", Duration: "1h", UserID: "6bcd387f-3448-4d34-8de1-d4c748672ff5", RoomID: "da3024b3-ad0d-4bda-b45b-7fcf129ab08a"},
	{ID: "a4e48bf5-9b2b-48f1-ae4e-ffd1dd1dfba8", Datetime: "09022020:1000", Duration: "1h", UserID: "0bc64799-fa50-4110-8c18-83ff6f59fc01", RoomID: "eccfbc02-b0a8-4cb1-ae42-ee1e91e420fe"},
	{ID: "4151cfca-a626-4a99-8ec0-d16d10fd2827", Datetime: "09022020:1200", Duration: "1h", UserID: "f882279e-1f56-44ca-a04f-1ceea1841c96", RoomID: "eccfbc02-b0a8-4cb1-ae42-ee1e91e420fe"},
}

var seedDonations = []domain.Donation{
	{ID: "f497c3b7-01ef-4612-840e-e7f3ffc687d3", Amount: "15.00", UserID: "6bcd387f-3448-4d34-8de1-d4c748672ff5"},
}

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	if err := seed(appCore); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	slog.Info("seed complete",
		"roles", 2,
		"users", len(seedUsers),
		"rooms", len(seedRooms),
		"reservations", len(seedReservations),
		"donations", len(seedDonations),
	)
}

func seed(a *app.App) error {
	roles := []domain.Role{
		{ID: domain.RoleAdminID, Name: "admin"},
		{ID: domain.RoleUserID, Name: "user"},
	}
	for _, role := range roles {
		if err := a.SaveRole(role); err != nil {
			return fmt.Errorf("save role %q: %w", role.Name, err)
		}
	}
	for _, su := range seedUsers {
		user := domain.User{
			ID:         su.id,
			FirstName:  su.firstName,
			LastName:   su.lastName,
			School:     "Lambda School",
			BGUsername: su.firstName + "-" + su.lastName,
			ProfileURL: strings.ToLower(fmt.Sprintf("https://www.bridgegood.dev/%s_%s", su.firstName, su.lastName)),
			Email:      su.email,
			RoleID:     su.roleID,
		}
		if _, err := a.CreateUser(user, "password"); err != nil {
			return fmt.Errorf("create user %q: %w", su.email, err)
		}
	}
	for _, room := range seedRooms {
		if err := a.SaveRoom(room); err != nil {
			return fmt.Errorf("save room %q: %w", room.RoomType, err)
		}
	}
	for _, reservation := range seedReservations {
		if _, err := a.CreateReservation(reservation); err != nil {
			return fmt.Errorf("create reservation %q: %w", reservation.ID, err)
		}
	}
	for _, donation := range seedDonations {
		if _, err := a.CreateDonation(donation); err != nil {
			return fmt.Errorf("create donation %q: %w", donation.ID, err)
		}
	}
	return nil
}
