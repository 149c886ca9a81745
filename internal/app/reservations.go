package app

import (
	"github.com/google/uuid"

	"spacebook/internal/store"
	"spacebook/pkg/domain"
)

// ListReservations returns all reservations.
func (a *App) ListReservations() ([]domain.Reservation, error) {
	return a.store.ListReservations()
}

// GetReservation returns the reservation with the given id, or false when absent.
func (a *App) GetReservation(id string) (domain.Reservation, bool, error) {
	return a.store.GetReservationByID(id)
}

// FindReservationsByFilter returns reservations matching the filter.
func (a *App) FindReservationsByFilter(filter store.ReservationFilter) ([]domain.Reservation, error) {
	return a.store.FindReservations(filter)
}

// CreateReservation inserts a reservation, assigning an id when absent.
func (a *App) CreateReservation(r domain.Reservation) (domain.Reservation, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := a.store.CreateReservation(r); err != nil {
		return domain.Reservation{}, err
	}
	return r, nil
}

// UpdateReservation applies a partial update unconditionally.
func (a *App) UpdateReservation(id string, patch domain.ReservationPatch) (domain.Reservation, error) {
	return a.store.UpdateReservation(id, patch)
}

// RemoveReservation deletes a reservation, returning the rows removed.
func (a *App) RemoveReservation(id string) (int64, error) {
	return a.store.DeleteReservation(id)
}
