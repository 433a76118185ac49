package domain

import "time"

// Memory represents a calendar memory (일정/추억). A memory is always
// attached to the writer's private room and to zero or more shared
// rooms via memory_room join rows. A memory whose room set becomes
// empty is soft-deleted (used = false).
type Memory struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WriterID    int64      `gorm:"column:writer_id;not null;index" json:"writer_id"`
	Name        string     `gorm:"column:name;size:255;not null" json:"name"`
	Contents    string     `gorm:"column:contents;type:text" json:"contents,omitempty"`
	Place       string     `gorm:"column:place;size:255" json:"place,omitempty"`
	StartDate   time.Time  `gorm:"column:start_date;not null;index" json:"start_date"`
	EndDate     time.Time  `gorm:"column:end_date;not null;index" json:"end_date"`
	FirstAlarm  *time.Time `gorm:"column:first_alarm" json:"first_alarm,omitempty"`
	SecondAlarm *time.Time `gorm:"column:second_alarm" json:"second_alarm,omitempty"`
	BgColor     string     `gorm:"column:bg_color;size:20" json:"bg_color,omitempty"`
	Used        bool       `gorm:"column:used;default:true;index" json:"-"`
	RegDate     time.Time  `gorm:"column:reg_date;autoCreateTime" json:"reg_date"`
	ModDate     *time.Time `gorm:"column:mod_date" json:"mod_date,omitempty"`
}

// TableName returns the table name
func (Memory) TableName() string {
	return "memory"
}

// MemoryRoom represents memory ↔ room association (join row)
type MemoryRoom struct {
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MemoryID int64 `gorm:"column:memory_id;not null;uniqueIndex:uq_memory_room,priority:1" json:"memory_id"`
	RoomID   int64 `gorm:"column:room_id;not null;uniqueIndex:uq_memory_room,priority:2;index" json:"room_id"`
}

// TableName returns the table name
func (MemoryRoom) TableName() string {
	return "memory_room"
}

// AttendanceStatus represents per-user attendance on a memory
type AttendanceStatus string

// Attendance statuses. A missing attendance row means undecided.
const (
	AttendanceStatusAttend  AttendanceStatus = "ATTEND"
	AttendanceStatusAbsence AttendanceStatus = "ABSENCE"
)

// Valid reports whether s is a storable attendance status
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusAttend || s == AttendanceStatusAbsence
}

// Attendance represents one user's attendance on a memory
type Attendance struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MemoryID  int64            `gorm:"column:memory_id;not null;uniqueIndex:uq_attendance,priority:1" json:"memory_id"`
	UserID    int64            `gorm:"column:user_id;not null;uniqueIndex:uq_attendance,priority:2;index" json:"user_id"`
	Status    AttendanceStatus `gorm:"column:status;size:20;not null" json:"status"`
	CreatedAt time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time       `gorm:"column:updated_at" json:"updated_at,omitempty"`
}

// TableName returns the table name
func (Attendance) TableName() string {
	return "attendance"
}

// ShareType selects how a memory is fanned out
type ShareType string

// Share types. USERS opens one two-person room per target,
// USER_GROUP opens a single room holding everyone, ROOMS attaches
// the memory to existing rooms.
const (
	ShareTypeUsers     ShareType = "USERS"
	ShareTypeUserGroup ShareType = "USER_GROUP"
	ShareTypeRooms     ShareType = "ROOMS"
)

// Valid reports whether t is a known share type
func (t ShareType) Valid() bool {
	switch t {
	case ShareTypeUsers, ShareTypeUserGroup, ShareTypeRooms:
		return true
	}
	return false
}

// MemoryCreateRequest represents request for creating a memory
type MemoryCreateRequest struct {
	RoomID      *int64     `json:"room_id"`
	Name        string     `json:"name" binding:"required"`
	Contents    string     `json:"contents"`
	Place       string     `json:"place"`
	StartDate   time.Time  `json:"start_date" binding:"required"`
	EndDate     time.Time  `json:"end_date" binding:"required"`
	FirstAlarm  *time.Time `json:"first_alarm"`
	SecondAlarm *time.Time `json:"second_alarm"`
	BgColor     string     `json:"bg_color"`
}

// MemoryPatchRequest represents a partial memory update.
// nil fields are left untouched.
type MemoryPatchRequest struct {
	Name        *string    `json:"name"`
	Contents    *string    `json:"contents"`
	Place       *string    `json:"place"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	FirstAlarm  *time.Time `json:"first_alarm"`
	SecondAlarm *time.Time `json:"second_alarm"`
	BgColor     *string    `json:"bg_color"`
}

// AttendanceRequest represents an attendance upsert
type AttendanceRequest struct {
	UserID int64            `json:"user_id" binding:"required"`
	Status AttendanceStatus `json:"status" binding:"required"`
}

// ShareMemoryRequest represents a share fan-out request
type ShareMemoryRequest struct {
	ShareType ShareType `json:"share_type" binding:"required"`
	TargetIDs []int64   `json:"target_ids" binding:"required"`
}

// AttendanceResponse represents one attendance row in responses
type AttendanceResponse struct {
	UserID int64            `json:"user_id"`
	Status AttendanceStatus `json:"status"`
}

// MemorySummary represents a memory in list responses
type MemorySummary struct {
	ID        int64  `json:"id"`
	WriterID  int64  `json:"writer_id"`
	Name      string `json:"name"`
	Place     string `json:"place,omitempty"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	BgColor   string `json:"bg_color,omitempty"`
}

// MemoryResponse represents full memory detail
type MemoryResponse struct {
	ID          int64                 `json:"id"`
	WriterID    int64                 `json:"writer_id"`
	Name        string                `json:"name"`
	Contents    string                `json:"contents,omitempty"`
	Place       string                `json:"place,omitempty"`
	StartDate   string                `json:"start_date"`
	EndDate     string                `json:"end_date"`
	FirstAlarm  string                `json:"first_alarm,omitempty"`
	SecondAlarm string                `json:"second_alarm,omitempty"`
	BgColor     string                `json:"bg_color,omitempty"`
	RegDate     string                `json:"reg_date"`
	ModDate     string                `json:"mod_date,omitempty"`
	AddedRoomID int64                 `json:"added_room_id,omitempty"`
	RoomIDs     []int64               `json:"room_ids,omitempty"`
	Attendances []*AttendanceResponse `json:"attendances,omitempty"`
}

// ShareMemoryResponse reports the rooms the memory ended up in
type ShareMemoryResponse struct {
	MemoryID  int64     `json:"memory_id"`
	ShareType ShareType `json:"share_type"`
	RoomIDs   []int64   `json:"room_ids"`
}
