package service

import (
	"context"
	"strings"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"github.com/ourmemory/ourmemory-server/pkg/cache"
	"github.com/ourmemory/ourmemory-server/pkg/logger"
	"gorm.io/gorm"
)

// Todo window around now for FindTodos
const (
	todoWindowBefore = 24 * time.Hour
	todoWindowAfter  = 48 * time.Hour
)

// MemoryService business logic for memories, attendance and sharing.
//
// A memory lives in many rooms at once: always the writer's private
// room, plus any shared rooms. Removing its last room soft-deletes it.
// Share fan-outs run in a single transaction; one bad target rolls
// back every room and association created by the call.
type MemoryService interface {
	Create(writerID int64, req *domain.MemoryCreateRequest) (*domain.MemoryResponse, error)
	Find(memoryID, roomID int64) (*domain.MemoryResponse, error)
	FindMemories(userID int64, from, to *time.Time) ([]*domain.MemoryResponse, error)
	FindTodos(userID int64) ([]*domain.MemoryResponse, error)
	Update(memoryID, actorID int64, patch *domain.MemoryPatchRequest) (*domain.MemoryResponse, error)
	Delete(memoryID, actorID, roomID int64) error
	SetAttendanceStatus(memoryID int64, req *domain.AttendanceRequest) (*domain.MemoryResponse, error)
	ShareMemory(memoryID, sharerID int64, req *domain.ShareMemoryRequest) (*domain.ShareMemoryResponse, error)
}

type memoryService struct {
	db         *gorm.DB
	memoryRepo repository.MemoryRepository
	roomRepo   repository.RoomRepository
	userRepo   repository.UserRepository
	cache      cache.Service
}

// NewMemoryService creates a new MemoryService
func NewMemoryService(db *gorm.DB, memoryRepo repository.MemoryRepository, roomRepo repository.RoomRepository, userRepo repository.UserRepository, cacheSvc cache.Service) MemoryService {
	return &memoryService{
		db:         db,
		memoryRepo: memoryRepo,
		roomRepo:   roomRepo,
		userRepo:   userRepo,
		cache:      cacheSvc,
	}
}

// Create creates a memory, attaching it to the writer's private room
// and, when a room id is given, to that room as well. The writer must
// be a member of the given room.
func (s *memoryService) Create(writerID int64, req *domain.MemoryCreateRequest) (*domain.MemoryResponse, error) {
	writer, err := s.userRepo.FindByID(writerID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if writer == nil {
		return nil, common.ErrMemoryWriterNotFound
	}
	if !writer.IsActive {
		return nil, common.ErrMemoryWriterDeactivated
	}
	if writer.PrivateRoomID == nil {
		return nil, common.ErrInternal.WithDetailf("user %d has no private room", writerID)
	}
	privateRoomID := *writer.PrivateRoomID

	memory := &domain.Memory{
		WriterID:    writerID,
		Name:        req.Name,
		Contents:    req.Contents,
		Place:       req.Place,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		FirstAlarm:  req.FirstAlarm,
		SecondAlarm: req.SecondAlarm,
		BgColor:     req.BgColor,
		Used:        true,
	}

	addedRoomID := privateRoomID
	err = s.db.Transaction(func(tx *gorm.DB) error {
		memoryRepo := s.memoryRepo.WithTx(tx)
		if err := memoryRepo.Create(memory); err != nil {
			return err
		}
		if err := memoryRepo.Attach(memory.ID, privateRoomID); err != nil {
			return err
		}
		if req.RoomID == nil || *req.RoomID == privateRoomID {
			return nil
		}

		roomRepo := s.roomRepo.WithTx(tx)
		room, err := roomRepo.FindByID(*req.RoomID)
		if err != nil {
			return err
		}
		if room == nil {
			return common.ErrRoomNotFound
		}
		isMember, err := roomRepo.IsMember(room.ID, writerID)
		if err != nil {
			return err
		}
		if !isMember {
			// 작성자가 속하지 않은 방은 없는 방과 같다
			return common.ErrRoomNotFound
		}
		addedRoomID = room.ID
		return memoryRepo.Attach(memory.ID, room.ID)
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.invalidateRooms(addedRoomID, privateRoomID)
	return s.buildResponse(memory, addedRoomID, false)
}

// Find returns a memory scoped to one of its rooms
func (s *memoryService) Find(memoryID, roomID int64) (*domain.MemoryResponse, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if room == nil {
		return nil, common.ErrRoomNotFound
	}
	memory, err := s.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if memory == nil {
		return nil, common.ErrMemoryNotFound
	}
	attached, err := s.memoryRepo.IsAttached(memoryID, roomID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if !attached {
		return nil, common.ErrMemoryNotInRoom
	}
	return s.buildResponse(memory, 0, true)
}

// FindMemories aggregates memories across every room the user belongs
// to, deduplicated, optionally restricted to the half-open period
// [from, to). An event overlapping a boundary day counts as included.
func (s *memoryService) FindMemories(userID int64, from, to *time.Time) ([]*domain.MemoryResponse, error) {
	user, err := s.userRepo.FindActiveByID(userID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}

	roomIDs, err := s.roomRepo.RoomIDsOf(userID)
	if err != nil {
		return nil, common.Internal(err)
	}
	memories, err := s.memoryRepo.FindAliveInRooms(roomIDs, from, to)
	if err != nil {
		return nil, common.Internal(err)
	}

	responses := make([]*domain.MemoryResponse, 0, len(memories))
	for _, m := range memories {
		resp, err := s.buildResponse(m, 0, false)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// FindTodos returns the user's memories in a floating window around
// now, for the home screen
func (s *memoryService) FindTodos(userID int64) ([]*domain.MemoryResponse, error) {
	now := time.Now()
	from := now.Add(-todoWindowBefore)
	to := now.Add(todoWindowAfter)
	return s.FindMemories(userID, &from, &to)
}

// Update partially updates a memory. Writer only.
func (s *memoryService) Update(memoryID, actorID int64, patch *domain.MemoryPatchRequest) (*domain.MemoryResponse, error) {
	memory, err := s.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if memory == nil {
		return nil, common.ErrMemoryNotFound
	}
	if memory.WriterID != actorID {
		return nil, common.ErrMemoryNotWriter
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Contents != nil {
		fields["contents"] = *patch.Contents
	}
	if patch.Place != nil {
		fields["place"] = *patch.Place
	}
	if patch.StartDate != nil {
		fields["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		fields["end_date"] = *patch.EndDate
	}
	if patch.FirstAlarm != nil {
		fields["first_alarm"] = *patch.FirstAlarm
	}
	if patch.SecondAlarm != nil {
		fields["second_alarm"] = *patch.SecondAlarm
	}
	if patch.BgColor != nil {
		fields["bg_color"] = *patch.BgColor
	}
	if len(fields) > 0 {
		if err := s.memoryRepo.UpdateFields(memoryID, fields); err != nil {
			return nil, common.Internal(err)
		}
		// 이 일정을 보여주던 모든 방의 캐시를 비운다
		roomIDs, err := s.memoryRepo.RoomIDsOf(memoryID)
		if err != nil {
			return nil, common.Internal(err)
		}
		s.invalidateRooms(roomIDs...)
	}

	memory, err = s.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		return nil, common.Internal(err)
	}
	return s.buildResponse(memory, 0, true)
}

// Delete removes the memory↔room association for roomID only. The
// memory itself is soft-deleted once its room set becomes empty.
func (s *memoryService) Delete(memoryID, actorID, roomID int64) error {
	actor, err := s.userRepo.FindActiveByID(actorID)
	if err != nil {
		return common.Internal(err)
	}
	if actor == nil {
		return common.ErrUserNotFound
	}
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return common.Internal(err)
	}
	if room == nil {
		return common.ErrRoomNotFound
	}
	memory, err := s.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		return common.Internal(err)
	}
	if memory == nil {
		return common.ErrMemoryNotFound
	}
	attached, err := s.memoryRepo.IsAttached(memoryID, roomID)
	if err != nil {
		return common.Internal(err)
	}
	if !attached {
		return common.ErrMemoryNotInRoom
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		memoryRepo := s.memoryRepo.WithTx(tx)
		if err := memoryRepo.Detach(memoryID, roomID); err != nil {
			return err
		}
		remaining, err := memoryRepo.CountRooms(memoryID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			return memoryRepo.SoftDelete(memoryID)
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}
	s.invalidateRooms(roomID)
	return nil
}

// SetAttendanceStatus lazily upserts the user's attendance row and
// returns the memory with its full attendance list
func (s *memoryService) SetAttendanceStatus(memoryID int64, req *domain.AttendanceRequest) (*domain.MemoryResponse, error) {
	if !req.Status.Valid() {
		return nil, common.ErrAttendanceStatusInvalid.WithDetailf("%s", req.Status)
	}
	user, err := s.userRepo.FindActiveByID(req.UserID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	memory, err := s.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if memory == nil {
		return nil, common.ErrMemoryNotFound
	}

	if err := s.memoryRepo.UpsertAttendance(memoryID, req.UserID, req.Status); err != nil {
		return nil, common.Internal(err)
	}
	return s.buildResponse(memory, 0, true)
}

// ShareMemory fans the memory out to users, a user group or existing
// rooms. All-or-nothing: any invalid target rolls back every room and
// association created during the call.
func (s *memoryService) ShareMemory(memoryID, sharerID int64, req *domain.ShareMemoryRequest) (*domain.ShareMemoryResponse, error) {
	if !req.ShareType.Valid() {
		return nil, common.ErrShareTypeInvalid
	}
	sharer, err := s.userRepo.FindActiveByID(sharerID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if sharer == nil {
		return nil, common.ErrUserNotFound
	}
	memory, err := s.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if memory == nil {
		return nil, common.ErrMemoryNotFound
	}

	var roomIDs []int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		switch req.ShareType {
		case domain.ShareTypeUsers:
			roomIDs, err = s.shareToUsersTx(tx, memory, sharer, req.TargetIDs)
		case domain.ShareTypeUserGroup:
			roomIDs, err = s.shareToUserGroupTx(tx, memory, sharer, req.TargetIDs)
		case domain.ShareTypeRooms:
			roomIDs, err = s.shareToRoomsTx(tx, memory, req.TargetIDs)
		}
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.invalidateRooms(roomIDs...)
	return &domain.ShareMemoryResponse{
		MemoryID:  memory.ID,
		ShareType: req.ShareType,
		RoomIDs:   roomIDs,
	}, nil
}

// shareToUsersTx opens one two-person room per target and attaches the
// memory to each
func (s *memoryService) shareToUsersTx(tx *gorm.DB, memory *domain.Memory, sharer *domain.User, targetIDs []int64) ([]int64, error) {
	userRepo := s.userRepo.WithTx(tx)
	roomRepo := s.roomRepo.WithTx(tx)
	memoryRepo := s.memoryRepo.WithTx(tx)

	roomIDs := make([]int64, 0, len(targetIDs))
	for _, targetID := range targetIDs {
		target, err := userRepo.FindActiveByID(targetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, common.ErrShareMemberNotFound.WithDetailf("user %d", targetID)
		}
		room := &domain.Room{
			OwnerID:   sharer.ID,
			Name:      sharer.Name + ", " + target.Name,
			CreatedAt: time.Now(),
		}
		if err := roomRepo.Create(room); err != nil {
			return nil, err
		}
		if err := roomRepo.AddMembers(room.ID, []int64{sharer.ID, target.ID}); err != nil {
			return nil, err
		}
		if err := memoryRepo.Attach(memory.ID, room.ID); err != nil {
			return nil, err
		}
		roomIDs = append(roomIDs, room.ID)
	}
	return roomIDs, nil
}

// shareToUserGroupTx opens a single room holding the sharer and every
// target and attaches the memory once
func (s *memoryService) shareToUserGroupTx(tx *gorm.DB, memory *domain.Memory, sharer *domain.User, targetIDs []int64) ([]int64, error) {
	userRepo := s.userRepo.WithTx(tx)
	roomRepo := s.roomRepo.WithTx(tx)
	memoryRepo := s.memoryRepo.WithTx(tx)

	names := []string{sharer.Name}
	memberIDs := []int64{sharer.ID}
	for _, targetID := range targetIDs {
		target, err := userRepo.FindActiveByID(targetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, common.ErrShareMemberNotFound.WithDetailf("user %d", targetID)
		}
		if target.ID == sharer.ID {
			continue
		}
		names = append(names, target.Name)
		memberIDs = append(memberIDs, target.ID)
	}

	room := &domain.Room{
		OwnerID:   sharer.ID,
		Name:      strings.Join(names, ", "),
		CreatedAt: time.Now(),
	}
	if err := roomRepo.Create(room); err != nil {
		return nil, err
	}
	if err := roomRepo.AddMembers(room.ID, memberIDs); err != nil {
		return nil, err
	}
	if err := memoryRepo.Attach(memory.ID, room.ID); err != nil {
		return nil, err
	}
	return []int64{room.ID}, nil
}

// shareToRoomsTx attaches the memory to each existing shared room.
// Private rooms are never share targets; a private target aborts the
// whole fan-out like a missing room would.
func (s *memoryService) shareToRoomsTx(tx *gorm.DB, memory *domain.Memory, targetRoomIDs []int64) ([]int64, error) {
	roomRepo := s.roomRepo.WithTx(tx)
	memoryRepo := s.memoryRepo.WithTx(tx)

	roomIDs := make([]int64, 0, len(targetRoomIDs))
	for _, roomID := range targetRoomIDs {
		room, err := roomRepo.FindByID(roomID)
		if err != nil {
			return nil, err
		}
		if room == nil || room.IsPrivate {
			// 타인의 개인 방은 존재하지 않는 방과 같다
			return nil, common.ErrShareRoomNotFound.WithDetailf("room %d", roomID)
		}
		if err := memoryRepo.Attach(memory.ID, room.ID); err != nil {
			return nil, err
		}
		roomIDs = append(roomIDs, room.ID)
	}
	return roomIDs, nil
}

// buildResponse projects a memory to its response, optionally loading
// room and attendance detail
func (s *memoryService) buildResponse(memory *domain.Memory, addedRoomID int64, withDetail bool) (*domain.MemoryResponse, error) {
	resp := &domain.MemoryResponse{
		ID:          memory.ID,
		WriterID:    memory.WriterID,
		Name:        memory.Name,
		Contents:    memory.Contents,
		Place:       memory.Place,
		StartDate:   memory.StartDate.Format(time.RFC3339),
		EndDate:     memory.EndDate.Format(time.RFC3339),
		BgColor:     memory.BgColor,
		RegDate:     memory.RegDate.Format(time.RFC3339),
		AddedRoomID: addedRoomID,
	}
	if memory.FirstAlarm != nil {
		resp.FirstAlarm = memory.FirstAlarm.Format(time.RFC3339)
	}
	if memory.SecondAlarm != nil {
		resp.SecondAlarm = memory.SecondAlarm.Format(time.RFC3339)
	}
	if memory.ModDate != nil {
		resp.ModDate = memory.ModDate.Format(time.RFC3339)
	}
	if !withDetail {
		return resp, nil
	}

	roomIDs, err := s.memoryRepo.RoomIDsOf(memory.ID)
	if err != nil {
		return nil, common.Internal(err)
	}
	resp.RoomIDs = roomIDs

	atts, err := s.memoryRepo.AttendancesOf(memory.ID)
	if err != nil {
		return nil, common.Internal(err)
	}
	resp.Attendances = make([]*domain.AttendanceResponse, 0, len(atts))
	for _, att := range atts {
		resp.Attendances = append(resp.Attendances, &domain.AttendanceResponse{
			UserID: att.UserID,
			Status: att.Status,
		})
	}
	return resp, nil
}

func (s *memoryService) invalidateRooms(roomIDs ...int64) {
	if len(roomIDs) == 0 {
		return
	}
	if err := s.cache.InvalidateRoom(context.Background(), roomIDs...); err != nil {
		logger.GetLogger().Debug().Err(err).Msg("room cache invalidate failed")
	}
}
