package app

import "spacebook/pkg/domain"

// ListRooms returns all bookable rooms.
func (a *App) ListRooms() ([]domain.Room, error) {
	return a.store.ListRooms()
}

// GetRoom returns the room with the given id, or false when absent.
func (a *App) GetRoom(id string) (domain.Room, bool, error) {
	return a.store.GetRoomByID(id)
}

// SaveRoom inserts or replaces a room. Rooms are managed by seeding, not by
// a public endpoint.
func (a *App) SaveRoom(room domain.Room) error {
	return a.store.SaveRoom(room)
}

// SaveRole inserts or replaces a role.
func (a *App) SaveRole(role domain.Role) error {
	return a.store.SaveRole(role)
}
