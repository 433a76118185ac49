package repository

import (
	"errors"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemoryRepository memory, memory↔room association and attendance
// data access interface
type MemoryRepository interface {
	WithTx(tx *gorm.DB) MemoryRepository
	Create(memory *domain.Memory) error
	FindAliveByID(id int64) (*domain.Memory, error)
	UpdateFields(id int64, fields map[string]interface{}) error
	SoftDelete(id int64) error

	Attach(memoryID, roomID int64) error
	Detach(memoryID, roomID int64) error
	IsAttached(memoryID, roomID int64) (bool, error)
	RoomIDsOf(memoryID int64) ([]int64, error)
	CountRooms(memoryID int64) (int64, error)
	MemoryIDsInRoom(roomID int64) ([]int64, error)
	FindAliveInRoom(roomID int64) ([]*domain.Memory, error)
	FindAliveInRooms(roomIDs []int64, from, to *time.Time) ([]*domain.Memory, error)

	UpsertAttendance(memoryID, userID int64, status domain.AttendanceStatus) error
	AttendancesOf(memoryID int64) ([]*domain.Attendance, error)
}

type memoryRepository struct {
	db *gorm.DB
}

// NewMemoryRepository creates a new MemoryRepository
func NewMemoryRepository(db *gorm.DB) MemoryRepository {
	return &memoryRepository{db: db}
}

// WithTx returns a MemoryRepository scoped to the given transaction
func (r *memoryRepository) WithTx(tx *gorm.DB) MemoryRepository {
	return &memoryRepository{db: tx}
}

// Create creates a new memory
func (r *memoryRepository) Create(memory *domain.Memory) error {
	return r.db.Create(memory).Error
}

// FindAliveByID finds a non-deleted memory, or nil when absent
func (r *memoryRepository) FindAliveByID(id int64) (*domain.Memory, error) {
	var memory domain.Memory
	err := r.db.Where("id = ? AND used = ?", id, true).First(&memory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

// UpdateFields partially updates a memory
func (r *memoryRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	fields["mod_date"] = time.Now()
	return r.db.Model(&domain.Memory{}).Where("id = ?", id).Updates(fields).Error
}

// SoftDelete marks a memory deleted
func (r *memoryRepository) SoftDelete(id int64) error {
	now := time.Now()
	return r.db.Model(&domain.Memory{}).Where("id = ?", id).
		Updates(map[string]interface{}{"used": false, "mod_date": now}).Error
}

// Attach associates a memory with a room, idempotently
func (r *memoryRepository) Attach(memoryID, roomID int64) error {
	mr := &domain.MemoryRoom{MemoryID: memoryID, RoomID: roomID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(mr).Error
}

// Detach removes one memory↔room association
func (r *memoryRepository) Detach(memoryID, roomID int64) error {
	result := r.db.Where("memory_id = ? AND room_id = ?", memoryID, roomID).
		Delete(&domain.MemoryRoom{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsAttached checks a memory↔room association
func (r *memoryRepository) IsAttached(memoryID, roomID int64) (bool, error) {
	var count int64
	err := r.db.Model(&domain.MemoryRoom{}).
		Where("memory_id = ? AND room_id = ?", memoryID, roomID).
		Count(&count).Error
	return count > 0, err
}

// RoomIDsOf returns room ids the memory is attached to
func (r *memoryRepository) RoomIDsOf(memoryID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&domain.MemoryRoom{}).
		Where("memory_id = ?", memoryID).
		Order("room_id ASC").
		Pluck("room_id", &ids).Error
	return ids, err
}

// CountRooms returns the size of the memory's room set
func (r *memoryRepository) CountRooms(memoryID int64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.MemoryRoom{}).
		Where("memory_id = ?", memoryID).
		Count(&count).Error
	return count, err
}

// MemoryIDsInRoom returns ids of memories attached to the room
func (r *memoryRepository) MemoryIDsInRoom(roomID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&domain.MemoryRoom{}).
		Where("room_id = ?", roomID).
		Pluck("memory_id", &ids).Error
	return ids, err
}

// FindAliveInRoom returns non-deleted memories attached to the room,
// ascending by start date
func (r *memoryRepository) FindAliveInRoom(roomID int64) ([]*domain.Memory, error) {
	var memories []*domain.Memory
	err := r.db.
		Joins("JOIN memory_room ON memory_room.memory_id = memory.id").
		Where("memory_room.room_id = ? AND memory.used = ?", roomID, true).
		Order("memory.start_date ASC, memory.reg_date ASC").
		Find(&memories).Error
	return memories, err
}

// FindAliveInRooms returns deduplicated non-deleted memories attached
// to any of the rooms, optionally restricted to the half-open period
// [from, to) by interval overlap against [start_date, end_date].
// Sorted ascending by start date, ties broken by registration time.
func (r *memoryRepository) FindAliveInRooms(roomIDs []int64, from, to *time.Time) ([]*domain.Memory, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	q := r.db.Distinct("memory.*").
		Joins("JOIN memory_room ON memory_room.memory_id = memory.id").
		Where("memory_room.room_id IN ? AND memory.used = ?", roomIDs, true)
	if from != nil {
		q = q.Where("memory.end_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("memory.start_date < ?", *to)
	}
	var memories []*domain.Memory
	err := q.Order("memory.start_date ASC, memory.reg_date ASC").
		Find(&memories).Error
	return memories, err
}

// UpsertAttendance lazily creates or overwrites an attendance row
func (r *memoryRepository) UpsertAttendance(memoryID, userID int64, status domain.AttendanceStatus) error {
	now := time.Now()
	att := &domain.Attendance{
		MemoryID:  memoryID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: &now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "memory_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": status, "updated_at": now}),
	}).Create(att).Error
}

// AttendancesOf returns all attendance rows of a memory
func (r *memoryRepository) AttendancesOf(memoryID int64) ([]*domain.Attendance, error) {
	var atts []*domain.Attendance
	err := r.db.Where("memory_id = ?", memoryID).Order("id ASC").Find(&atts).Error
	return atts, err
}
