package repository

import (
	"errors"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository room and membership data access interface.
// Membership is an explicit join table queried directly.
type RoomRepository interface {
	WithTx(tx *gorm.DB) RoomRepository
	Create(room *domain.Room) error
	FindByID(id int64) (*domain.Room, error)
	FindByIDForUpdate(id int64) (*domain.Room, error)
	FindByMember(userID int64) ([]*domain.Room, error)
	SearchByName(pattern string) ([]*domain.Room, error)
	UpdateFields(id int64, fields map[string]interface{}) error
	UpdateOwner(roomID, ownerID int64) error
	Delete(id int64) error

	AddMembers(roomID int64, userIDs []int64) error
	RemoveMember(roomID, userID int64) error
	RemoveAllMembers(roomID int64) error
	MemberIDsOf(roomID int64) ([]int64, error)
	IsMember(roomID, userID int64) (bool, error)
	CountMembers(roomID int64) (int64, error)
	RoomIDsOf(userID int64) ([]int64, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a new RoomRepository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// WithTx returns a RoomRepository scoped to the given transaction
func (r *roomRepository) WithTx(tx *gorm.DB) RoomRepository {
	return &roomRepository{db: tx}
}

// Create creates a new room
func (r *roomRepository) Create(room *domain.Room) error {
	return r.db.Create(room).Error
}

// FindByID finds a room, or nil when absent
func (r *roomRepository) FindByID(id int64) (*domain.Room, error) {
	var room domain.Room
	err := r.db.Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByIDForUpdate finds a room holding a row lock, so concurrent
// exit/delete on the same room serialize. SQLite has no FOR UPDATE;
// its single-writer model serializes there anyway.
func (r *roomRepository) FindByIDForUpdate(id int64) (*domain.Room, error) {
	q := r.db
	if r.db.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room domain.Room
	err := q.Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByMember returns rooms the user belongs to, newest first
func (r *roomRepository) FindByMember(userID int64) ([]*domain.Room, error) {
	var rooms []*domain.Room
	err := r.db.
		Joins("JOIN room_member ON room_member.room_id = room.id").
		Where("room_member.user_id = ?", userID).
		Order("room.id DESC").
		Find(&rooms).Error
	return rooms, err
}

// SearchByName returns rooms matching a name substring, newest first
func (r *roomRepository) SearchByName(pattern string) ([]*domain.Room, error) {
	var rooms []*domain.Room
	err := r.db.Where("name LIKE ?", "%"+pattern+"%").
		Order("id DESC").Find(&rooms).Error
	return rooms, err
}

// UpdateFields partially updates a room
func (r *roomRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&domain.Room{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateOwner reassigns room ownership
func (r *roomRepository) UpdateOwner(roomID, ownerID int64) error {
	return r.db.Model(&domain.Room{}).Where("id = ?", roomID).
		Updates(map[string]interface{}{"owner_id": ownerID, "updated_at": time.Now()}).Error
}

// Delete removes a room row
func (r *roomRepository) Delete(id int64) error {
	result := r.db.Where("id = ?", id).Delete(&domain.Room{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddMembers adds membership rows, ignoring ids already present
func (r *roomRepository) AddMembers(roomID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	now := time.Now()
	members := make([]*domain.RoomMember, 0, len(userIDs))
	for _, uid := range userIDs {
		members = append(members, &domain.RoomMember{RoomID: roomID, UserID: uid, CreatedAt: now})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(members).Error
}

// RemoveMember removes one membership row
func (r *roomRepository) RemoveMember(roomID, userID int64) error {
	result := r.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.RoomMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveAllMembers clears all membership rows of a room
func (r *roomRepository) RemoveAllMembers(roomID int64) error {
	return r.db.Where("room_id = ?", roomID).Delete(&domain.RoomMember{}).Error
}

// MemberIDsOf returns member user ids ordered by join time
func (r *roomRepository) MemberIDsOf(roomID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&domain.RoomMember{}).
		Where("room_id = ?", roomID).
		Order("id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// IsMember checks room membership
func (r *roomRepository) IsMember(roomID, userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&domain.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// CountMembers returns the current member count
func (r *roomRepository) CountMembers(roomID int64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.RoomMember{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// RoomIDsOf returns ids of rooms the user belongs to
func (r *roomRepository) RoomIDsOf(userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&domain.RoomMember{}).
		Where("user_id = ?", userID).
		Pluck("room_id", &ids).Error
	return ids, err
}
