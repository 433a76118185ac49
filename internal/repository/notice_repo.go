package repository

import (
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"gorm.io/gorm"
)

// NoticeRepository notice data access interface
type NoticeRepository interface {
	WithTx(tx *gorm.DB) NoticeRepository
	Create(notice *domain.Notice) error
	MarkRead(userID int64, noticeType domain.NoticeType, value string) error
	DeleteByValue(userID int64, noticeType domain.NoticeType, value string) error
	DeleteAllOf(userID int64) error
	FindByUser(userID int64) ([]*domain.Notice, error)
}

type noticeRepository struct {
	db *gorm.DB
}

// NewNoticeRepository creates a new NoticeRepository
func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

// WithTx returns a NoticeRepository scoped to the given transaction
func (r *noticeRepository) WithTx(tx *gorm.DB) NoticeRepository {
	return &noticeRepository{db: tx}
}

// Create creates a notice
func (r *noticeRepository) Create(notice *domain.Notice) error {
	return r.db.Create(notice).Error
}

// MarkRead marks matching unread notices read
func (r *noticeRepository) MarkRead(userID int64, noticeType domain.NoticeType, value string) error {
	return r.db.Model(&domain.Notice{}).
		Where("user_id = ? AND type = ? AND value = ? AND is_read = ?", userID, noticeType, value, false).
		Update("is_read", true).Error
}

// DeleteByValue removes matching notices
func (r *noticeRepository) DeleteByValue(userID int64, noticeType domain.NoticeType, value string) error {
	return r.db.Where("user_id = ? AND type = ? AND value = ?", userID, noticeType, value).
		Delete(&domain.Notice{}).Error
}

// DeleteAllOf removes every notice of the user
func (r *noticeRepository) DeleteAllOf(userID int64) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.Notice{}).Error
}

// FindByUser returns the user's notices, newest first
func (r *noticeRepository) FindByUser(userID int64) ([]*domain.Notice, error) {
	var notices []*domain.Notice
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&notices).Error
	return notices, err
}
