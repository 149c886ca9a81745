package app

import (
	"testing"

	"spacebook/internal/store"
	"spacebook/pkg/domain"
)

func TestCreateReservationKeepsSuppliedID(t *testing.T) {
	a := newTestApp(t)

	created, err := a.CreateReservation(domain.Reservation{
		ID:       "res-1",
		Datetime: "09022020:1000",
		Duration: "1h",
		UserID:   "user-1",
		RoomID:   "room-1",
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if created.ID != "res-1" {
		t.Fatalf("id = %q, want res-1", created.ID)
	}

	_, err = a.CreateReservation(domain.Reservation{ID: "res-1", UserID: "user-2", RoomID: "room-1"})
	if err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestFindReservationsByFilter(t *testing.T) {
	a := newTestApp(t)

	seed := []domain.Reservation{
		{Datetime: "09022020:1000", Duration: "1h", UserID: "user-1", RoomID: "room-1"},
		{Datetime: "09022020:1400", Duration: "1h", UserID: "user-1", RoomID: "room-2"},
		{Datetime: "09022020:1700", Duration: "2h", UserID: "user-2", RoomID: "room-1"},
	}
	for _, r := range seed {
		if _, err := a.CreateReservation(r); err != nil {
			t.Fatalf("create reservation: %v", err)
		}
	}

	byUser, err := a.FindReservationsByFilter(store.ReservationFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("byUser = %d, want 2", len(byUser))
	}
	byBoth, err := a.FindReservationsByFilter(store.ReservationFilter{UserID: "user-2", RoomID: "room-1"})
	if err != nil {
		t.Fatalf("find by user and room: %v", err)
	}
	if len(byBoth) != 1 || byBoth[0].Duration != "2h" {
		t.Fatalf("byBoth = %+v", byBoth)
	}
}

func TestUpdateReservationPartialPatch(t *testing.T) {
	a := newTestApp(t)

	created, err := a.CreateReservation(domain.Reservation{
		Datetime: "09022020:1000",
		Duration: "1h",
		UserID:   "user-1",
		RoomID:   "room-1",
	})
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	duration := "2h"
	updated, err := a.UpdateReservation(created.ID, domain.ReservationPatch{Duration: &duration})
	if err != nil {
		t.Fatalf("update reservation: %v", err)
	}
	if updated.Duration != "2h" {
		t.Fatalf("duration = %q, want 2h", updated.Duration)
	}
	if updated.Datetime != "09022020:1000" || updated.UserID != "user-1" {
		t.Fatalf("unexpected overwrite: %+v", updated)
	}
}

func TestDonationLifecycle(t *testing.T) {
	a := newTestApp(t)

	created, err := a.CreateDonation(domain.Donation{Amount: "15.00", UserID: "user-1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamps: %+v", created)
	}

	amount := "25.50"
	updated, err := a.UpdateDonation(created.ID, domain.DonationPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("update donation: %v", err)
	}
	if updated.Amount != "25.50" {
		t.Fatalf("amount = %v, want 25.50", updated.Amount)
	}

	byEmail, err := a.FindDonationsByFilter(store.DonationFilter{Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("find donations: %v", err)
	}
	if len(byEmail) != 1 {
		t.Fatalf("byEmail = %d, want 1", len(byEmail))
	}

	count, err := a.RemoveDonation(created.ID)
	if err != nil {
		t.Fatalf("remove donation: %v", err)
	}
	if count != 1 {
		t.Fatalf("removed = %d, want 1", count)
	}
	if _, ok, _ := a.GetDonation(created.ID); ok {
		t.Fatal("expected donation to be gone")
	}
}
