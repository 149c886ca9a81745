package app

import (
	"time"

	"github.com/google/uuid"

	"spacebook/internal/store"
	"spacebook/pkg/domain"
)

// ListDonations returns all donations.
func (a *App) ListDonations() ([]domain.Donation, error) {
	return a.store.ListDonations()
}

// GetDonation returns the donation with the given id, or false when absent.
func (a *App) GetDonation(id string) (domain.Donation, bool, error) {
	return a.store.GetDonationByID(id)
}

// FindDonationsByFilter returns donations matching the filter.
func (a *App) FindDonationsByFilter(filter store.DonationFilter) ([]domain.Donation, error) {
	return a.store.FindDonations(filter)
}

// CreateDonation inserts a donation, assigning an id and timestamps when absent.
func (a *App) CreateDonation(d domain.Donation) (domain.Donation, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if err := a.store.CreateDonation(d); err != nil {
		return domain.Donation{}, err
	}
	return d, nil
}

// UpdateDonation applies a partial update unconditionally.
func (a *App) UpdateDonation(id string, patch domain.DonationPatch) (domain.Donation, error) {
	return a.store.UpdateDonation(id, patch)
}

// RemoveDonation deletes a donation, returning the rows removed.
func (a *App) RemoveDonation(id string) (int64, error) {
	return a.store.DeleteDonation(id)
}
