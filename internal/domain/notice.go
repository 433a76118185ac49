package domain

import "time"

// NoticeType represents the kind of a notice
type NoticeType string

// Notice types
const (
	NoticeTypeFriendRequest NoticeType = "FRIEND_REQUEST"
)

// Notice represents a user-visible notification record (알림),
// produced as a side effect of friend-request lifecycle events
type Notice struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	Type      NoticeType `gorm:"column:type;size:30;not null" json:"type"`
	Value     string     `gorm:"column:value;size:255" json:"value"`
	IsRead    bool       `gorm:"column:is_read;default:false" json:"is_read"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (Notice) TableName() string {
	return "notice"
}

// NoticeResponse represents a notice in list responses
type NoticeResponse struct {
	ID        int64      `json:"id"`
	Type      NoticeType `json:"type"`
	Value     string     `json:"value"`
	IsRead    bool       `json:"is_read"`
	CreatedAt string     `json:"created_at"`
}
