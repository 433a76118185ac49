package repository

import (
	"errors"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository directed friend-relation data access interface.
// Every operation touches exactly one direction; symmetry is the
// service layer's business.
type FriendRepository interface {
	WithTx(tx *gorm.DB) FriendRepository
	Find(ownerID, targetID int64) (*domain.Friend, error)
	Upsert(ownerID, targetID int64, status domain.FriendStatus) (*domain.Friend, error)
	UpdateStatus(ownerID, targetID int64, status domain.FriendStatus) error
	Delete(ownerID, targetID int64) error
	DeleteAllOf(userID int64) error
	FindByOwner(ownerID int64) ([]*domain.Friend, error)
	FindByOwnerAndStatus(ownerID int64, status domain.FriendStatus) ([]*domain.Friend, error)
	FindByTargetAndStatus(targetID int64, status domain.FriendStatus) ([]*domain.Friend, error)
}

type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new FriendRepository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// WithTx returns a FriendRepository scoped to the given transaction
func (r *friendRepository) WithTx(tx *gorm.DB) FriendRepository {
	return &friendRepository{db: tx}
}

// Find returns the owner→target row, or nil when absent
func (r *friendRepository) Find(ownerID, targetID int64) (*domain.Friend, error) {
	var rel domain.Friend
	err := r.db.Where("owner_id = ? AND target_id = ?", ownerID, targetID).First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// Upsert creates or overwrites the owner→target row
func (r *friendRepository) Upsert(ownerID, targetID int64, status domain.FriendStatus) (*domain.Friend, error) {
	now := time.Now()
	rel := &domain.Friend{
		OwnerID:   ownerID,
		TargetID:  targetID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: &now,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "target_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": status, "updated_at": now}),
	}).Create(rel).Error
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// UpdateStatus overwrites the status of an existing row
func (r *friendRepository) UpdateStatus(ownerID, targetID int64, status domain.FriendStatus) error {
	result := r.db.Model(&domain.Friend{}).
		Where("owner_id = ? AND target_id = ?", ownerID, targetID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the owner→target row only
func (r *friendRepository) Delete(ownerID, targetID int64) error {
	result := r.db.Where("owner_id = ? AND target_id = ?", ownerID, targetID).
		Delete(&domain.Friend{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAllOf removes every row referencing the user, both directions
func (r *friendRepository) DeleteAllOf(userID int64) error {
	return r.db.Where("owner_id = ? OR target_id = ?", userID, userID).
		Delete(&domain.Friend{}).Error
}

// FindByOwner returns all rows owned by the user
func (r *friendRepository) FindByOwner(ownerID int64) ([]*domain.Friend, error) {
	var rels []*domain.Friend
	err := r.db.Where("owner_id = ?", ownerID).Find(&rels).Error
	return rels, err
}

// FindByOwnerAndStatus returns owned rows with the given status
func (r *friendRepository) FindByOwnerAndStatus(ownerID int64, status domain.FriendStatus) ([]*domain.Friend, error) {
	var rels []*domain.Friend
	err := r.db.Where("owner_id = ? AND status = ?", ownerID, status).
		Order("id ASC").Find(&rels).Error
	return rels, err
}

// FindByTargetAndStatus returns rows pointing at the user with the given status
func (r *friendRepository) FindByTargetAndStatus(targetID int64, status domain.FriendStatus) ([]*domain.Friend, error) {
	var rels []*domain.Friend
	err := r.db.Where("target_id = ? AND status = ?", targetID, status).Find(&rels).Error
	return rels, err
}
