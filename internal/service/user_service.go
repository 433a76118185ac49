package service

import (
	"context"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"github.com/ourmemory/ourmemory-server/pkg/cache"
	"github.com/ourmemory/ourmemory-server/pkg/logger"
	"gorm.io/gorm"
)

// UserService is the user directory. Signup creates the user together
// with their one private room; deletion cascades through the friend
// graph, room memberships and private-room memories.
type UserService interface {
	SignUp(req *domain.SignUpRequest) (*domain.UserResponse, error)
	GetUser(id int64) (*domain.UserResponse, error)
	UpdateUser(id int64, patch *domain.UserPatchRequest) (*domain.UserResponse, error)
	DeleteUser(id int64) error
	ResolveActiveUser(id int64) (*domain.User, error)
	PrivateRoomOf(userID int64) (int64, error)
}

type userService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	friendRepo  repository.FriendRepository
	roomRepo    repository.RoomRepository
	noticeRepo  repository.NoticeRepository
	roomService RoomService
	cache       cache.Service
}

// NewUserService creates a new UserService
func NewUserService(db *gorm.DB, userRepo repository.UserRepository, friendRepo repository.FriendRepository, roomRepo repository.RoomRepository, noticeRepo repository.NoticeRepository, roomService RoomService, cacheSvc cache.Service) UserService {
	return &userService{
		db:          db,
		userRepo:    userRepo,
		friendRepo:  friendRepo,
		roomRepo:    roomRepo,
		noticeRepo:  noticeRepo,
		roomService: roomService,
		cache:       cacheSvc,
	}
}

// SignUp registers a user and creates their private room atomically
func (s *userService) SignUp(req *domain.SignUpRequest) (*domain.UserResponse, error) {
	existing, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, common.Internal(err)
	}
	if existing != nil {
		return nil, common.ErrUserExists
	}

	user := &domain.User{
		Name:            req.Name,
		Email:           req.Email,
		ProfileImageURL: req.ProfileImageURL,
		PushToken:       req.PushToken,
		DeviceOS:        req.DeviceOS,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		roomRepo := s.roomRepo.WithTx(tx)

		if err := userRepo.Create(user); err != nil {
			return err
		}
		privateRoom := &domain.Room{
			OwnerID:   user.ID,
			Name:      user.Name,
			IsPrivate: true,
			CreatedAt: time.Now(),
		}
		if err := roomRepo.Create(privateRoom); err != nil {
			return err
		}
		if err := roomRepo.AddMembers(privateRoom.ID, []int64{user.ID}); err != nil {
			return err
		}
		if err := userRepo.SetPrivateRoom(user.ID, privateRoom.ID); err != nil {
			return err
		}
		user.PrivateRoomID = &privateRoom.ID
		return nil
	})
	if err != nil {
		return nil, common.Internal(err)
	}
	return user.ToResponse(), nil
}

// GetUser returns an active user's profile
func (s *userService) GetUser(id int64) (*domain.UserResponse, error) {
	ctx := context.Background()
	var cached domain.UserResponse
	if err := s.cache.GetUser(ctx, id, &cached); err == nil {
		return &cached, nil
	}

	user, err := s.ResolveActiveUser(id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	if err := s.cache.SetUser(ctx, id, resp); err != nil {
		logger.GetLogger().Debug().Err(err).Int64("user_id", id).Msg("user cache set failed")
	}
	return resp, nil
}

// UpdateUser partially updates a user's profile
func (s *userService) UpdateUser(id int64, patch *domain.UserPatchRequest) (*domain.UserResponse, error) {
	if _, err := s.ResolveActiveUser(id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.ProfileImageURL != nil {
		fields["profile_image_url"] = *patch.ProfileImageURL
	}
	if patch.PushToken != nil {
		fields["push_token"] = *patch.PushToken
	}
	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(id, fields); err != nil {
			return nil, common.Internal(err)
		}
	}
	s.invalidate(id)

	user, err := s.ResolveActiveUser(id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// DeleteUser deactivates a user and cascades: every friend row
// referencing them goes, they exit every shared room (ownership
// transfers per the room rules), and their private room dies together
// with the memories that lived only there. The whole cascade commits
// as one transaction; any failure rolls everything back.
func (s *userService) DeleteUser(id int64) error {
	user, err := s.ResolveActiveUser(id)
	if err != nil {
		return err
	}

	var roomIDs []int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.friendRepo.WithTx(tx).DeleteAllOf(id); err != nil {
			return err
		}
		if err := s.noticeRepo.WithTx(tx).DeleteAllOf(id); err != nil {
			return err
		}

		var err error
		roomIDs, err = s.roomRepo.WithTx(tx).RoomIDsOf(id)
		if err != nil {
			return err
		}
		for _, roomID := range roomIDs {
			if user.PrivateRoomID != nil && roomID == *user.PrivateRoomID {
				continue // 개인 방은 마지막에 삭제
			}
			if err := s.roomService.ExitTx(tx, roomID, id, nil); err != nil {
				return err
			}
		}
		if user.PrivateRoomID != nil {
			if err := s.roomService.DeleteTx(tx, *user.PrivateRoomID, id); err != nil {
				return err
			}
		}
		return s.userRepo.WithTx(tx).Deactivate(id)
	})
	if err != nil {
		return asServiceError(err)
	}

	s.invalidate(id)
	if err := s.cache.InvalidateRoom(context.Background(), roomIDs...); err != nil {
		logger.GetLogger().Debug().Err(err).Int64("user_id", id).Msg("room cache invalidate failed")
	}
	return nil
}

// ResolveActiveUser returns the active user or a typed failure
func (s *userService) ResolveActiveUser(id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, common.Internal(err)
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, common.ErrUserDeactivated
	}
	return user, nil
}

// PrivateRoomOf returns the user's private room id
func (s *userService) PrivateRoomOf(userID int64) (int64, error) {
	user, err := s.ResolveActiveUser(userID)
	if err != nil {
		return 0, err
	}
	if user.PrivateRoomID == nil {
		return 0, common.ErrRoomNotFound.WithDetailf("user %d has no private room", userID)
	}
	return *user.PrivateRoomID, nil
}

func (s *userService) invalidate(userID int64) {
	if err := s.cache.InvalidateUser(context.Background(), userID); err != nil {
		logger.GetLogger().Debug().Err(err).Int64("user_id", userID).Msg("user cache invalidate failed")
	}
}
