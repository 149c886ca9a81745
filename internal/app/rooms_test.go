package app

import (
	"testing"

	"spacebook/pkg/domain"
)

func TestRoomAndRoleSeeding(t *testing.T) {
	a := newTestApp(t)

	if err := a.SaveRole(domain.Role{ID: domain.RoleAdminID, Name: "admin"}); err != nil {
		t.Fatalf("save role: %v", err)
	}
	room := domain.Room{
		ID:       "da3024b3-ad0d-4bda-b45b-7fcf129ab08a",
		RoomType: "Coworking",
		Seats:    10,
		TimeSlotsTaken: map[string][]string{
			"09022020": {"1000", "1400"},
		},
	}
	if err := a.SaveRoom(room); err != nil {
		t.Fatalf("save room: %v", err)
	}

	rooms, err := a.ListRooms()
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].RoomType != "Coworking" {
		t.Fatalf("rooms = %+v", rooms)
	}

	fetched, ok, err := a.GetRoom(room.ID)
	if err != nil || !ok {
		t.Fatalf("get room: ok=%v err=%v", ok, err)
	}
	if len(fetched.TimeSlotsTaken["09022020"]) != 2 {
		t.Fatalf("time slots = %+v", fetched.TimeSlotsTaken)
	}
	if _, ok, _ := a.GetRoom("missing"); ok {
		t.Fatal("expected missing room to be absent")
	}
}
