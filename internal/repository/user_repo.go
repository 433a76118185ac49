package repository

import (
	"errors"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/domain"
	"gorm.io/gorm"
)

// UserRepository user data access interface
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *domain.User) error
	FindByID(id int64) (*domain.User, error)
	FindActiveByID(id int64) (*domain.User, error)
	FindActiveByIDs(ids []int64) ([]*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	Search(filter domain.UserSearchFilter) ([]*domain.User, error)
	UpdateFields(id int64, fields map[string]interface{}) error
	SetPrivateRoom(userID, roomID int64) error
	Deactivate(id int64) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// WithTx returns a UserRepository scoped to the given transaction
func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

// Create creates a new user
func (r *userRepository) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user regardless of active flag
func (r *userRepository) FindByID(id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByID finds an active user
func (r *userRepository) FindActiveByID(id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByIDs finds active users by id set
func (r *userRepository) FindActiveByIDs(ids []int64) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*domain.User
	err := r.db.Where("id IN ? AND is_active = ?", ids, true).Find(&users).Error
	return users, err
}

// FindByEmail finds a user by email
func (r *userRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Search lists active users matching the filter (id exact, name substring)
func (r *userRepository) Search(filter domain.UserSearchFilter) ([]*domain.User, error) {
	q := r.db.Where("is_active = ?", true)
	if filter.UserID != nil {
		q = q.Where("id = ?", *filter.UserID)
	}
	if filter.Name != nil {
		q = q.Where("name LIKE ?", "%"+*filter.Name+"%")
	}
	var users []*domain.User
	err := q.Order("id ASC").Find(&users).Error
	return users, err
}

// UpdateFields partially updates a user
func (r *userRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.Model(&domain.User{}).Where("id = ?", id).Updates(fields).Error
}

// SetPrivateRoom wires the user's private room pointer
func (r *userRepository) SetPrivateRoom(userID, roomID int64) error {
	return r.db.Model(&domain.User{}).Where("id = ?", userID).
		Update("private_room_id", roomID).Error
}

// Deactivate soft-deletes a user
func (r *userRepository) Deactivate(id int64) error {
	result := r.db.Model(&domain.User{}).Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
