package domain

import "time"

// Room represents a room (방). Every user owns exactly one private room,
// created at signup; shared rooms are created explicitly or by sharing
// a memory.
type Room struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OwnerID   int64      `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Name      string     `gorm:"column:name;size:255;not null" json:"name"`
	Opened    bool       `gorm:"column:opened;default:false" json:"opened"`
	IsPrivate bool       `gorm:"column:is_private;default:false" json:"is_private"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
}

// TableName returns the table name
func (Room) TableName() string {
	return "room"
}

// RoomMember represents room membership (room ↔ user join row)
type RoomMember struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RoomID    int64     `gorm:"column:room_id;not null;uniqueIndex:uq_room_member,priority:1" json:"room_id"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uq_room_member,priority:2;index" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (RoomMember) TableName() string {
	return "room_member"
}

// RoomCreateRequest represents request for creating a shared room
type RoomCreateRequest struct {
	Name      string  `json:"name" binding:"required"`
	Opened    bool    `json:"opened"`
	MemberIDs []int64 `json:"member_ids"`
}

// RoomPatchRequest represents a partial room update.
// nil fields are left untouched.
type RoomPatchRequest struct {
	Name   *string `json:"name"`
	Opened *bool   `json:"opened"`
}

// RoomResponse represents room detail with members and attached memories
type RoomResponse struct {
	ID        int64            `json:"id"`
	OwnerID   int64            `json:"owner_id"`
	Name      string           `json:"name"`
	Opened    bool             `json:"opened"`
	IsPrivate bool             `json:"is_private"`
	Members   []*UserResponse  `json:"members"`
	Memories  []*MemorySummary `json:"memories"`
	CreatedAt string           `json:"created_at"`
}

// RoomSummaryResponse represents a room in list responses
type RoomSummaryResponse struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Name        string `json:"name"`
	Opened      bool   `json:"opened"`
	IsPrivate   bool   `json:"is_private"`
	MemberCount int64  `json:"member_count"`
	CreatedAt   string `json:"created_at"`
}
