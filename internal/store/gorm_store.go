package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spacebook/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&roleRow{}, &userRow{}, &roomRow{}, &donationRow{}, &reservationRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// wrapDuplicate maps the driver's unique-violation error to ErrDuplicate so
// callers can treat racing creates as "already exists".
func wrapDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicate, err.Error())
	}
	return err
}

// roles

func (s *GormStore) SaveRole(role domain.Role) error {
	row := roleRow{ID: role.ID, Name: role.Name}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&row).Error
}

func (s *GormStore) GetRole(id int) (domain.Role, bool, error) {
	var row roleRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Role{}, false, nil
		}
		return domain.Role{}, false, err
	}
	return domain.Role{ID: row.ID, Name: row.Name}, true, nil
}

// users

func (s *GormStore) ListUsers() ([]domain.User, error) {
	var rows []userRow
	if err := s.db.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		res = append(res, userFromRow(row))
	}
	return res, nil
}

func (s *GormStore) FindUsers(filter UserFilter) ([]domain.User, error) {
	tx := s.db.Order("created_at ASC")
	if filter.Email != "" {
		tx = tx.Where("email = ?", filter.Email)
	}
	if filter.BGUsername != "" {
		tx = tx.Where("bg_username = ?", filter.BGUsername)
	}
	if filter.RoleID != 0 {
		tx = tx.Where("role_id = ?", filter.RoleID)
	}
	var rows []userRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		res = append(res, userFromRow(row))
	}
	return res, nil
}

func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var row userRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromRow(row), true, nil
}

func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var row userRow
	if err := s.db.First(&row, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromRow(row), true, nil
}

func (s *GormStore) CreateUser(u domain.User) error {
	row := userToRow(u)
	return wrapDuplicate(s.db.Create(&row).Error)
}

func (s *GormStore) UpdateUser(id string, patch domain.UserPatch) (domain.User, error) {
	updates := userPatchColumns(patch)
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.db.Model(&userRow{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return domain.User{}, wrapDuplicate(err)
		}
	}
	user, ok, err := s.GetUserByID(id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

func (s *GormStore) DeleteUser(id string) (int64, error) {
	res := s.db.Delete(&userRow{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// rooms

func (s *GormStore) SaveRoom(room domain.Room) error {
	row := roomToRow(room)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"roomtype", "seats", "time_slots_taken"}),
	}).Create(&row).Error
}

func (s *GormStore) ListRooms() ([]domain.Room, error) {
	var rows []roomRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Room, 0, len(rows))
	for _, row := range rows {
		res = append(res, roomFromRow(row))
	}
	return res, nil
}

func (s *GormStore) GetRoomByID(id string) (domain.Room, bool, error) {
	var row roomRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Room{}, false, nil
		}
		return domain.Room{}, false, err
	}
	return roomFromRow(row), true, nil
}

// reservations

func (s *GormStore) ListReservations() ([]domain.Reservation, error) {
	var rows []reservationRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Reservation, 0, len(rows))
	for _, row := range rows {
		res = append(res, reservationFromRow(row))
	}
	return res, nil
}

func (s *GormStore) FindReservations(filter ReservationFilter) ([]domain.Reservation, error) {
	tx := s.db.Session(&gorm.Session{})
	if filter.UserID != "" {
		tx = tx.Where("user_id = ?", filter.UserID)
	}
	if filter.RoomID != "" {
		tx = tx.Where("room_id = ?", filter.RoomID)
	}
	var rows []reservationRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Reservation, 0, len(rows))
	for _, row := range rows {
		res = append(res, reservationFromRow(row))
	}
	return res, nil
}

func (s *GormStore) GetReservationByID(id string) (domain.Reservation, bool, error) {
	var row reservationRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Reservation{}, false, nil
		}
		return domain.Reservation{}, false, err
	}
	return reservationFromRow(row), true, nil
}

func (s *GormStore) CreateReservation(r domain.Reservation) error {
	row := reservationToRow(r)
	return wrapDuplicate(s.db.Create(&row).Error)
}

func (s *GormStore) UpdateReservation(id string, patch domain.ReservationPatch) (domain.Reservation, error) {
	updates := reservationPatchColumns(patch)
	if len(updates) > 0 {
		if err := s.db.Model(&reservationRow{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return domain.Reservation{}, wrapDuplicate(err)
		}
	}
	reservation, ok, err := s.GetReservationByID(id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !ok {
		return domain.Reservation{}, ErrNotFound
	}
	return reservation, nil
}

func (s *GormStore) DeleteReservation(id string) (int64, error) {
	res := s.db.Delete(&reservationRow{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// donations

func (s *GormStore) ListDonations() ([]domain.Donation, error) {
	var rows []donationRow
	if err := s.db.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Donation, 0, len(rows))
	for _, row := range rows {
		res = append(res, donationFromRow(row))
	}
	return res, nil
}

func (s *GormStore) FindDonations(filter DonationFilter) ([]domain.Donation, error) {
	tx := s.db.Order("created_at ASC")
	if filter.UserID != "" {
		tx = tx.Where("user_id = ?", filter.UserID)
	}
	if filter.Email != "" {
		tx = tx.Where("email = ?", filter.Email)
	}
	var rows []donationRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Donation, 0, len(rows))
	for _, row := range rows {
		res = append(res, donationFromRow(row))
	}
	return res, nil
}

func (s *GormStore) GetDonationByID(id string) (domain.Donation, bool, error) {
	var row donationRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Donation{}, false, nil
		}
		return domain.Donation{}, false, err
	}
	return donationFromRow(row), true, nil
}

func (s *GormStore) CreateDonation(d domain.Donation) error {
	row := donationToRow(d)
	return wrapDuplicate(s.db.Create(&row).Error)
}

func (s *GormStore) UpdateDonation(id string, patch domain.DonationPatch) (domain.Donation, error) {
	updates := donationPatchColumns(patch)
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.db.Model(&donationRow{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return domain.Donation{}, wrapDuplicate(err)
		}
	}
	donation, ok, err := s.GetDonationByID(id)
	if err != nil {
		return domain.Donation{}, err
	}
	if !ok {
		return domain.Donation{}, ErrNotFound
	}
	return donation, nil
}

func (s *GormStore) DeleteDonation(id string) (int64, error) {
	res := s.db.Delete(&donationRow{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// row mapping

func userToRow(u domain.User) userRow {
	return userRow{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		School:           u.School,
		BGUsername:       u.BGUsername,
		ProfileURL:       u.ProfileURL,
		IsLocked:         u.IsLocked,
		Praises:          u.Praises,
		Demerits:         u.Demerits,
		UserRating:       u.UserRating,
		Visits:           u.Visits,
		ReservationCount: u.ReservationCount,
		RoleID:           u.RoleID,
		Email:            u.Email,
		Phone:            u.Phone,
		PasswordHash:     u.PasswordHash,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func userFromRow(row userRow) domain.User {
	return domain.User{
		ID:               row.ID,
		FirstName:        row.FirstName,
		LastName:         row.LastName,
		School:           row.School,
		BGUsername:       row.BGUsername,
		ProfileURL:       row.ProfileURL,
		IsLocked:         row.IsLocked,
		Praises:          row.Praises,
		Demerits:         row.Demerits,
		UserRating:       row.UserRating,
		Visits:           row.Visits,
		ReservationCount: row.ReservationCount,
		RoleID:           row.RoleID,
		Email:            row.Email,
		Phone:            row.Phone,
		PasswordHash:     row.PasswordHash,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func roomToRow(r domain.Room) roomRow {
	return roomRow{
		ID:             r.ID,
		RoomType:       r.RoomType,
		Seats:          r.Seats,
		TimeSlotsTaken: datatypes.NewJSONType(r.TimeSlotsTaken),
	}
}

func roomFromRow(row roomRow) domain.Room {
	return domain.Room{
		ID:             row.ID,
		RoomType:       row.RoomType,
		Seats:          row.Seats,
		TimeSlotsTaken: row.TimeSlotsTaken.Data(),
	}
}

func reservationToRow(r domain.Reservation) reservationRow {
	return reservationRow{
		ID:         r.ID,
		Datetime:   r.Datetime,
		Duration:   r.Duration,
		UserID:     r.UserID,
		RoomID:     r.RoomID,
		DonationID: r.DonationID,
	}
}

func reservationFromRow(row reservationRow) domain.Reservation {
	return domain.Reservation{
		ID:         row.ID,
		Datetime:   row.Datetime,
		Duration:   row.Duration,
		UserID:     row.UserID,
		RoomID:     row.RoomID,
		DonationID: row.DonationID,
	}
}

func donationToRow(d domain.Donation) donationRow {
	return donationRow{
		ID:        d.ID,
		Amount:    d.Amount,
		UserID:    d.UserID,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func donationFromRow(row donationRow) domain.Donation {
	return domain.Donation{
		ID:        row.ID,
		Amount:    row.Amount,
		UserID:    row.UserID,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// patch mapping

func userPatchColumns(p domain.UserPatch) map[string]any {
	updates := map[string]any{}
	if p.FirstName != nil {
		updates["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		updates["last_name"] = *p.LastName
	}
	if p.School != nil {
		updates["school"] = *p.School
	}
	if p.BGUsername != nil {
		updates["bg_username"] = *p.BGUsername
	}
	if p.ProfileURL != nil {
		updates["profile_url"] = *p.ProfileURL
	}
	if p.IsLocked != nil {
		updates["is_locked"] = *p.IsLocked
	}
	if p.Praises != nil {
		updates["praises"] = *p.Praises
	}
	if p.Demerits != nil {
		updates["demerits"] = *p.Demerits
	}
	if p.UserRating != nil {
		updates["user_rating"] = *p.UserRating
	}
	if p.Visits != nil {
		updates["visits"] = *p.Visits
	}
	if p.ReservationCount != nil {
		updates["reservations"] = *p.ReservationCount
	}
	if p.RoleID != nil {
		updates["role_id"] = *p.RoleID
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.Phone != nil {
		updates["phone"] = *p.Phone
	}
	return updates
}

func reservationPatchColumns(p domain.ReservationPatch) map[string]any {
	updates := map[string]any{}
	if p.Datetime != nil {
		updates["datetime"] = *p.Datetime
	}
	if p.Duration != nil {
		updates["duration"] = *p.Duration
	}
	if p.UserID != nil {
		updates["user_id"] = *p.UserID
	}
	if p.RoomID != nil {
		updates["room_id"] = *p.RoomID
	}
	if p.DonationID != nil {
		updates["donation_id"] = *p.DonationID
	}
	return updates
}

func donationPatchColumns(p domain.DonationPatch) map[string]any {
	updates := map[string]any{}
	if p.Amount != nil {
		updates["amount"] = *p.Amount
	}
	if p.UserID != nil {
		updates["user_id"] = *p.UserID
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	return updates
}
