package domain

import "time"

// User represents a service user (사용자)
type User struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string     `gorm:"column:name;size:100;not null" json:"name"`
	Email           string     `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	ProfileImageURL string     `gorm:"column:profile_image_url;size:500" json:"profile_image_url,omitempty"`
	PushToken       string     `gorm:"column:push_token;size:500" json:"-"`
	DeviceOS        string     `gorm:"column:device_os;size:20" json:"-"`
	PrivateRoomID   *int64     `gorm:"column:private_room_id;index" json:"private_room_id,omitempty"`
	IsActive        bool       `gorm:"column:is_active;default:true;index" json:"is_active"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
}

// TableName returns the table name
func (User) TableName() string {
	return "user"
}

// SignUpRequest represents request for user registration
type SignUpRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	ProfileImageURL string `json:"profile_image_url"`
	PushToken       string `json:"push_token"`
	DeviceOS        string `json:"device_os"`
}

// UserPatchRequest represents a partial user update.
// nil fields are left untouched.
type UserPatchRequest struct {
	Name            *string `json:"name"`
	ProfileImageURL *string `json:"profile_image_url"`
	PushToken       *string `json:"push_token"`
}

// UserResponse represents user profile response
type UserResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	PrivateRoomID   int64  `json:"private_room_id,omitempty"`
}

// SignUpResponse returns the created user with an access token
type SignUpResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}

// ToResponse converts a User to UserResponse
func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
	if u.PrivateRoomID != nil {
		resp.PrivateRoomID = *u.PrivateRoomID
	}
	return resp
}
