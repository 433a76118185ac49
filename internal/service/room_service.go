package service

import (
	"context"
	"errors"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"github.com/ourmemory/ourmemory-server/pkg/cache"
	"github.com/ourmemory/ourmemory-server/pkg/logger"
	"gorm.io/gorm"
)

// RoomService business logic for rooms, membership and ownership.
//
// Exit and Delete run inside one transaction holding the room row
// lock, so a last-member exit and a concurrent delete cannot both act
// on a stale member count.
type RoomService interface {
	Create(ownerID int64, req *domain.RoomCreateRequest) (*domain.RoomResponse, error)
	Find(roomID int64) (*domain.RoomResponse, error)
	FindRooms(userID *int64, name *string) ([]*domain.RoomSummaryResponse, error)
	RecommendOwner(roomID, newOwnerID int64) error
	Update(roomID int64, patch *domain.RoomPatchRequest) error
	Delete(roomID, actorID int64) error
	Exit(roomID, userID int64, recommendUserID *int64) error

	// Tx variants run inside a caller-held transaction; the caller owns
	// commit and cache invalidation. Used by the user deletion cascade.
	DeleteTx(tx *gorm.DB, roomID, actorID int64) error
	ExitTx(tx *gorm.DB, roomID, userID int64, recommendUserID *int64) error
}

type roomService struct {
	db         *gorm.DB
	roomRepo   repository.RoomRepository
	userRepo   repository.UserRepository
	memoryRepo repository.MemoryRepository
	cache      cache.Service
}

// NewRoomService creates a new RoomService
func NewRoomService(db *gorm.DB, roomRepo repository.RoomRepository, userRepo repository.UserRepository, memoryRepo repository.MemoryRepository, cacheSvc cache.Service) RoomService {
	return &roomService{
		db:         db,
		roomRepo:   roomRepo,
		userRepo:   userRepo,
		memoryRepo: memoryRepo,
		cache:      cacheSvc,
	}
}

// asServiceError passes tagged errors through and wraps the rest
func asServiceError(err error) error {
	var e *common.Error
	if errors.As(err, &e) {
		return e
	}
	return common.Internal(err)
}

// Create creates a shared room. The owner is always a member, even
// when absent from the request's member list; unknown or deactivated
// member ids are dropped.
func (s *roomService) Create(ownerID int64, req *domain.RoomCreateRequest) (*domain.RoomResponse, error) {
	owner, err := s.userRepo.FindActiveByID(ownerID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if owner == nil {
		return nil, common.ErrRoomOwnerNotFound
	}

	memberIDs := []int64{ownerID}
	if len(req.MemberIDs) > 0 {
		members, err := s.userRepo.FindActiveByIDs(req.MemberIDs)
		if err != nil {
			return nil, common.Internal(err)
		}
		for _, m := range members {
			if m.ID != ownerID {
				memberIDs = append(memberIDs, m.ID)
			}
		}
	}

	room := &domain.Room{
		OwnerID:   ownerID,
		Name:      req.Name,
		Opened:    req.Opened,
		CreatedAt: time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.roomRepo.WithTx(tx)
		if err := repo.Create(room); err != nil {
			return err
		}
		return repo.AddMembers(room.ID, memberIDs)
	})
	if err != nil {
		return nil, common.Internal(err)
	}

	return s.Find(room.ID)
}

// Find returns room detail with members and attached memories
func (s *roomService) Find(roomID int64) (*domain.RoomResponse, error) {
	ctx := context.Background()
	var cached domain.RoomResponse
	if err := s.cache.GetRoom(ctx, roomID, &cached); err == nil {
		return &cached, nil
	}

	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return nil, common.Internal(err)
	}
	if room == nil {
		return nil, common.ErrRoomNotFound
	}

	memberIDs, err := s.roomRepo.MemberIDsOf(roomID)
	if err != nil {
		return nil, common.Internal(err)
	}
	members, err := s.userRepo.FindActiveByIDs(memberIDs)
	if err != nil {
		return nil, common.Internal(err)
	}
	memories, err := s.memoryRepo.FindAliveInRoom(roomID)
	if err != nil {
		return nil, common.Internal(err)
	}

	resp := &domain.RoomResponse{
		ID:        room.ID,
		OwnerID:   room.OwnerID,
		Name:      room.Name,
		Opened:    room.Opened,
		IsPrivate: room.IsPrivate,
		Members:   make([]*domain.UserResponse, 0, len(members)),
		Memories:  make([]*domain.MemorySummary, 0, len(memories)),
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, m.ToResponse())
	}
	for _, m := range memories {
		resp.Memories = append(resp.Memories, &domain.MemorySummary{
			ID:        m.ID,
			WriterID:  m.WriterID,
			Name:      m.Name,
			Place:     m.Place,
			StartDate: m.StartDate.Format(time.RFC3339),
			EndDate:   m.EndDate.Format(time.RFC3339),
			BgColor:   m.BgColor,
		})
	}

	if err := s.cache.SetRoom(ctx, roomID, resp); err != nil {
		logger.GetLogger().Debug().Err(err).Int64("room_id", roomID).Msg("room cache set failed")
	}
	return resp, nil
}

// FindRooms lists rooms the user belongs to, or rooms matching a name
// substring, newest first
func (s *roomService) FindRooms(userID *int64, name *string) ([]*domain.RoomSummaryResponse, error) {
	var rooms []*domain.Room
	var err error
	switch {
	case userID != nil:
		rooms, err = s.roomRepo.FindByMember(*userID)
	case name != nil:
		rooms, err = s.roomRepo.SearchByName(*name)
	default:
		return []*domain.RoomSummaryResponse{}, nil
	}
	if err != nil {
		return nil, common.Internal(err)
	}

	responses := make([]*domain.RoomSummaryResponse, 0, len(rooms))
	for _, room := range rooms {
		count, err := s.roomRepo.CountMembers(room.ID)
		if err != nil {
			return nil, common.Internal(err)
		}
		responses = append(responses, &domain.RoomSummaryResponse{
			ID:          room.ID,
			OwnerID:     room.OwnerID,
			Name:        room.Name,
			Opened:      room.Opened,
			IsPrivate:   room.IsPrivate,
			MemberCount: count,
			CreatedAt:   room.CreatedAt.Format(time.RFC3339),
		})
	}
	return responses, nil
}

// RecommendOwner reassigns ownership to a current member
func (s *roomService) RecommendOwner(roomID, newOwnerID int64) error {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return common.Internal(err)
	}
	if room == nil {
		return common.ErrRoomNotFound
	}
	isMember, err := s.roomRepo.IsMember(roomID, newOwnerID)
	if err != nil {
		return common.Internal(err)
	}
	if !isMember {
		return common.ErrRoomMemberNotFound
	}
	if room.OwnerID == newOwnerID {
		return common.ErrRoomAlreadyOwner
	}
	if err := s.roomRepo.UpdateOwner(roomID, newOwnerID); err != nil {
		return common.Internal(err)
	}
	s.invalidate(roomID)
	return nil
}

// Update partially updates room name/opened
func (s *roomService) Update(roomID int64, patch *domain.RoomPatchRequest) error {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return common.Internal(err)
	}
	if room == nil {
		return common.ErrRoomNotFound
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Opened != nil {
		fields["opened"] = *patch.Opened
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.roomRepo.UpdateFields(roomID, fields); err != nil {
		return common.Internal(err)
	}
	s.invalidate(roomID)
	return nil
}

// Delete removes a room. Memories left with an empty room set are
// soft-deleted; memories still attached elsewhere (each participant's
// private room) survive.
func (s *roomService) Delete(roomID, actorID int64) error {
	actor, err := s.userRepo.FindActiveByID(actorID)
	if err != nil {
		return common.Internal(err)
	}
	if actor == nil {
		return common.ErrUserNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.DeleteTx(tx, roomID, actorID)
	})
	if err != nil {
		return asServiceError(err)
	}
	s.invalidate(roomID)
	return nil
}

// DeleteTx is Delete's body inside a caller-held transaction
func (s *roomService) DeleteTx(tx *gorm.DB, roomID, actorID int64) error {
	room, err := s.roomRepo.WithTx(tx).FindByIDForUpdate(roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return common.ErrRoomNotFound
	}
	if room.OwnerID != actorID {
		return common.ErrRoomNotOwner
	}
	return s.deleteRoomTx(tx, roomID)
}

// Exit removes the user's membership. An exiting owner hands ownership
// to the recommended member when that choice is valid, otherwise to an
// arbitrary remaining member; the exit itself never aborts on a bad
// recommendation. The last member leaving deletes the room.
func (s *roomService) Exit(roomID, userID int64, recommendUserID *int64) error {
	user, err := s.userRepo.FindActiveByID(userID)
	if err != nil {
		return common.Internal(err)
	}
	if user == nil {
		return common.ErrUserNotFound
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.ExitTx(tx, roomID, userID, recommendUserID)
	})
	if err != nil {
		return asServiceError(err)
	}
	s.invalidate(roomID)
	return nil
}

// ExitTx is Exit's body inside a caller-held transaction
func (s *roomService) ExitTx(tx *gorm.DB, roomID, userID int64, recommendUserID *int64) error {
	roomRepo := s.roomRepo.WithTx(tx)
	room, err := roomRepo.FindByIDForUpdate(roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return common.ErrRoomNotFound
	}
	isMember, err := roomRepo.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return common.ErrRoomNotParticipant
	}

	count, err := roomRepo.CountMembers(roomID)
	if err != nil {
		return err
	}
	if count <= 1 {
		// 마지막 참여자 퇴장: 방 자체를 정리
		return s.deleteRoomTx(tx, roomID)
	}

	if room.OwnerID == userID {
		newOwner, err := s.pickNewOwner(roomRepo, room, userID, recommendUserID)
		if err != nil {
			return err
		}
		if err := roomRepo.UpdateOwner(roomID, newOwner); err != nil {
			return err
		}
	}
	return roomRepo.RemoveMember(roomID, userID)
}

// pickNewOwner resolves the successor for an exiting owner. An invalid
// or missing recommendation falls back to the longest-standing
// remaining member.
func (s *roomService) pickNewOwner(roomRepo repository.RoomRepository, room *domain.Room, exitingID int64, recommendUserID *int64) (int64, error) {
	if recommendUserID != nil && *recommendUserID != exitingID {
		isMember, err := roomRepo.IsMember(room.ID, *recommendUserID)
		if err != nil {
			return 0, err
		}
		if isMember {
			return *recommendUserID, nil
		}
		logger.GetLogger().Warn().
			Int64("room_id", room.ID).
			Int64("recommend_user_id", *recommendUserID).
			Msg("recommended owner is not a member, falling back")
	}

	memberIDs, err := roomRepo.MemberIDsOf(room.ID)
	if err != nil {
		return 0, err
	}
	for _, id := range memberIDs {
		if id != exitingID {
			return id, nil
		}
	}
	// caller checked count > 1, so this is unreachable
	return 0, common.ErrRoomMemberNotFound
}

// deleteRoomTx detaches the room from every attached memory,
// soft-deletes memories whose room set became empty, then removes the
// memberships and the room row
func (s *roomService) deleteRoomTx(tx *gorm.DB, roomID int64) error {
	memoryRepo := s.memoryRepo.WithTx(tx)
	roomRepo := s.roomRepo.WithTx(tx)

	memoryIDs, err := memoryRepo.MemoryIDsInRoom(roomID)
	if err != nil {
		return err
	}
	for _, memoryID := range memoryIDs {
		if err := memoryRepo.Detach(memoryID, roomID); err != nil {
			return err
		}
		remaining, err := memoryRepo.CountRooms(memoryID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := memoryRepo.SoftDelete(memoryID); err != nil {
				return err
			}
		}
	}
	if err := roomRepo.RemoveAllMembers(roomID); err != nil {
		return err
	}
	return roomRepo.Delete(roomID)
}

func (s *roomService) invalidate(roomID int64) {
	if err := s.cache.InvalidateRoom(context.Background(), roomID); err != nil {
		logger.GetLogger().Debug().Err(err).Int64("room_id", roomID).Msg("room cache invalidate failed")
	}
}
