package store

import (
	"fmt"
	"sync"
	"time"

	"spacebook/pkg/domain"
)

// MemoryStore keeps all tables in-process. It mirrors the database's
// uniqueness rules and cascade policy so tests exercise the same semantics.
type MemoryStore struct {
	mu           sync.RWMutex
	roles        map[int]domain.Role
	users        map[string]domain.User
	emails       map[string]string // email -> user ID
	bgUsernames  map[string]string // bg_username -> user ID
	rooms        map[string]domain.Room
	reservations map[string]domain.Reservation
	donations    map[string]domain.Donation
	userOrder    []string
	donOrder     []string
	resvOrder    []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:        make(map[int]domain.Role),
		users:        make(map[string]domain.User),
		emails:       make(map[string]string),
		bgUsernames:  make(map[string]string),
		rooms:        make(map[string]domain.Room),
		reservations: make(map[string]domain.Reservation),
		donations:    make(map[string]domain.Donation),
	}
}

// roles

func (m *MemoryStore) SaveRole(role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.ID] = role
	return nil
}

func (m *MemoryStore) GetRole(id int) (domain.Role, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[id]
	return role, ok, nil
}

// users

func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (m *MemoryStore) FindUsers(filter UserFilter) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0)
	for _, id := range m.userOrder {
		u, ok := m.users[id]
		if !ok {
			continue
		}
		if filter.Email != "" && u.Email != filter.Email {
			continue
		}
		if filter.BGUsername != "" && u.BGUsername != filter.BGUsername {
			continue
		}
		if filter.RoleID != 0 && u.RoleID != filter.RoleID {
			continue
		}
		res = append(res, u)
	}
	return res, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.emails[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; exists {
		return fmt.Errorf("%w: users.id %q", ErrDuplicate, u.ID)
	}
	if _, exists := m.emails[u.Email]; exists {
		return fmt.Errorf("%w: users.email %q", ErrDuplicate, u.Email)
	}
	if _, exists := m.bgUsernames[u.BGUsername]; exists {
		return fmt.Errorf("%w: users.bg_username %q", ErrDuplicate, u.BGUsername)
	}
	m.users[u.ID] = u
	m.emails[u.Email] = u.ID
	m.bgUsernames[u.BGUsername] = u.ID
	m.userOrder = append(m.userOrder, u.ID)
	return nil
}

func (m *MemoryStore) UpdateUser(id string, patch domain.UserPatch) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	if patch.Email != nil && *patch.Email != u.Email {
		if owner, exists := m.emails[*patch.Email]; exists && owner != id {
			return domain.User{}, fmt.Errorf("%w: users.email %q", ErrDuplicate, *patch.Email)
		}
		delete(m.emails, u.Email)
		m.emails[*patch.Email] = id
	}
	if patch.BGUsername != nil && *patch.BGUsername != u.BGUsername {
		if owner, exists := m.bgUsernames[*patch.BGUsername]; exists && owner != id {
			return domain.User{}, fmt.Errorf("%w: users.bg_username %q", ErrDuplicate, *patch.BGUsername)
		}
		delete(m.bgUsernames, u.BGUsername)
		m.bgUsernames[*patch.BGUsername] = id
	}
	applyUserPatch(&u, patch)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return u, nil
}

// DeleteUser cascades to the user's reservations and donations, matching the
// database foreign-key policy.
func (m *MemoryStore) DeleteUser(id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return 0, nil
	}
	delete(m.users, id)
	delete(m.emails, u.Email)
	delete(m.bgUsernames, u.BGUsername)
	for rid, r := range m.reservations {
		if r.UserID == id {
			delete(m.reservations, rid)
		}
	}
	for did, d := range m.donations {
		if d.UserID == id {
			delete(m.donations, did)
		}
	}
	return 1, nil
}

// rooms

func (m *MemoryStore) SaveRoom(room domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

func (m *MemoryStore) ListRooms() ([]domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		res = append(res, r)
	}
	return res, nil
}

func (m *MemoryStore) GetRoomByID(id string) (domain.Room, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok, nil
}

// reservations

func (m *MemoryStore) ListReservations() ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reservation, 0, len(m.resvOrder))
	for _, id := range m.resvOrder {
		if r, ok := m.reservations[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

func (m *MemoryStore) FindReservations(filter ReservationFilter) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Reservation, 0)
	for _, id := range m.resvOrder {
		r, ok := m.reservations[id]
		if !ok {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		res = append(res, r)
	}
	return res, nil
}

func (m *MemoryStore) GetReservationByID(id string) (domain.Reservation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	return r, ok, nil
}

func (m *MemoryStore) CreateReservation(r domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.reservations[r.ID]; exists {
		return fmt.Errorf("%w: reservations.id %q", ErrDuplicate, r.ID)
	}
	m.reservations[r.ID] = r
	m.resvOrder = append(m.resvOrder, r.ID)
	return nil
}

func (m *MemoryStore) UpdateReservation(id string, patch domain.ReservationPatch) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, ErrNotFound
	}
	applyReservationPatch(&r, patch)
	m.reservations[id] = r
	return r, nil
}

func (m *MemoryStore) DeleteReservation(id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return 0, nil
	}
	delete(m.reservations, id)
	return 1, nil
}

// donations

func (m *MemoryStore) ListDonations() ([]domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Donation, 0, len(m.donOrder))
	for _, id := range m.donOrder {
		if d, ok := m.donations[id]; ok {
			res = append(res, d)
		}
	}
	return res, nil
}

func (m *MemoryStore) FindDonations(filter DonationFilter) ([]domain.Donation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Donation, 0)
	for _, id := range m.donOrder {
		d, ok := m.donations[id]
		if !ok {
			continue
		}
		if filter.UserID != "" && d.UserID != filter.UserID {
			continue
		}
		if filter.Email != "" && d.Email != filter.Email {
			continue
		}
		res = append(res, d)
	}
	return res, nil
}

func (m *MemoryStore) GetDonationByID(id string) (domain.Donation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.donations[id]
	return d, ok, nil
}

func (m *MemoryStore) CreateDonation(d domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.donations[d.ID]; exists {
		return fmt.Errorf("%w: donations.id %q", ErrDuplicate, d.ID)
	}
	m.donations[d.ID] = d
	m.donOrder = append(m.donOrder, d.ID)
	return nil
}

func (m *MemoryStore) UpdateDonation(id string, patch domain.DonationPatch) (domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donations[id]
	if !ok {
		return domain.Donation{}, ErrNotFound
	}
	applyDonationPatch(&d, patch)
	d.UpdatedAt = time.Now().UTC()
	m.donations[id] = d
	return d, nil
}

func (m *MemoryStore) DeleteDonation(id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.donations[id]; !ok {
		return 0, nil
	}
	delete(m.donations, id)
	return 1, nil
}

// patch application

func applyUserPatch(u *domain.User, p domain.UserPatch) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.School != nil {
		u.School = *p.School
	}
	if p.BGUsername != nil {
		u.BGUsername = *p.BGUsername
	}
	if p.ProfileURL != nil {
		u.ProfileURL = *p.ProfileURL
	}
	if p.IsLocked != nil {
		u.IsLocked = *p.IsLocked
	}
	if p.Praises != nil {
		u.Praises = *p.Praises
	}
	if p.Demerits != nil {
		u.Demerits = *p.Demerits
	}
	if p.UserRating != nil {
		u.UserRating = *p.UserRating
	}
	if p.Visits != nil {
		u.Visits = *p.Visits
	}
	if p.ReservationCount != nil {
		u.ReservationCount = *p.ReservationCount
	}
	if p.RoleID != nil {
		u.RoleID = *p.RoleID
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}

func applyReservationPatch(r *domain.Reservation, p domain.ReservationPatch) {
	if p.Datetime != nil {
		r.Datetime = *p.Datetime
	}
	if p.Duration != nil {
		r.Duration = *p.Duration
	}
	if p.UserID != nil {
		r.UserID = *p.UserID
	}
	if p.RoomID != nil {
		r.RoomID = *p.RoomID
	}
	if p.DonationID != nil {
		r.DonationID = p.DonationID
	}
}

func applyDonationPatch(d *domain.Donation, p domain.DonationPatch) {
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.UserID != nil {
		d.UserID = *p.UserID
	}
	if p.Email != nil {
		d.Email = *p.Email
	}
}
