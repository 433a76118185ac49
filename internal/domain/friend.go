package domain

import "time"

// FriendStatus represents the stored state of one direction of a relation
type FriendStatus string

// Stored friend statuses. FriendStatusRequestedBy is never persisted:
// it is derived at read time from the peer's WAIT row.
const (
	FriendStatusWait        FriendStatus = "WAIT"
	FriendStatusFriend      FriendStatus = "FRIEND"
	FriendStatusBlock       FriendStatus = "BLOCK"
	FriendStatusRequestedBy FriendStatus = "REQUESTED_BY"
)

// Valid reports whether s is a status that may be stored
func (s FriendStatus) Valid() bool {
	switch s {
	case FriendStatusWait, FriendStatusFriend, FriendStatusBlock:
		return true
	}
	return false
}

// Friend represents one direction of a friend relation (친구 관계).
// Each pair keeps two independent rows, one per direction; a missing
// row means no relation from that side.
type Friend struct {
	ID        int64        `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OwnerID   int64        `gorm:"column:owner_id;not null;uniqueIndex:uq_friend_pair,priority:1" json:"owner_id"`
	TargetID  int64        `gorm:"column:target_id;not null;uniqueIndex:uq_friend_pair,priority:2;index" json:"target_id"`
	Status    FriendStatus `gorm:"column:status;size:20;not null" json:"status"`
	CreatedAt time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time   `gorm:"column:updated_at" json:"updated_at,omitempty"`
}

// TableName returns the table name
func (Friend) TableName() string {
	return "friend_relation"
}

// FriendStatusPatchRequest represents a direct status overwrite (used for BLOCK)
type FriendStatusPatchRequest struct {
	Status FriendStatus `json:"status" binding:"required"`
}

// FriendResponse represents a friend projected to their profile
type FriendResponse struct {
	UserID          int64        `json:"user_id"`
	Name            string       `json:"name"`
	ProfileImageURL string       `json:"profile_image_url,omitempty"`
	Status          FriendStatus `json:"status"`
}

// UserSearchFilter narrows a directory search.
// nil fields do not filter.
type UserSearchFilter struct {
	UserID *int64
	Name   *string
	Status *FriendStatus
}

// SearchedUserResponse represents a directory search hit annotated
// with the caller's relation to the user (nil when none)
type SearchedUserResponse struct {
	UserID          int64         `json:"user_id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	ProfileImageURL string        `json:"profile_image_url,omitempty"`
	FriendStatus    *FriendStatus `json:"friend_status,omitempty"`
}
