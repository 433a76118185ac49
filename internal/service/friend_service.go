package service

import (
	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"gorm.io/gorm"
)

// FriendService business logic for the friend graph.
//
// A relation is stored as two independent directed rows. Request and
// accept are the only operations that touch both directions; delete is
// deliberately one-sided, so an asymmetric FRIEND leftover is a legal
// persistent state and ReAddFriend is the repair path back to symmetry.
type FriendService interface {
	RequestFriend(ownerID, targetID int64) error
	AcceptRequest(accepterID, requesterID int64) error
	CancelRequest(ownerID, targetID int64) error
	ReAddFriend(ownerID, targetID int64) error
	PatchStatus(ownerID, targetID int64, status domain.FriendStatus) error
	DeleteFriend(ownerID, targetID int64) error
	ListFriends(userID int64) ([]*domain.FriendResponse, error)
	FindUsers(callerID int64, filter domain.UserSearchFilter) ([]*domain.SearchedUserResponse, error)
}

type friendService struct {
	db         *gorm.DB
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	noticeSink NoticeService
}

// NewFriendService creates a new FriendService
func NewFriendService(db *gorm.DB, friendRepo repository.FriendRepository, userRepo repository.UserRepository, noticeSink NoticeService) FriendService {
	return &friendService{
		db:         db,
		friendRepo: friendRepo,
		userRepo:   userRepo,
		noticeSink: noticeSink,
	}
}

// RequestFriend upserts the owner→target row to WAIT and notifies the target
func (s *friendService) RequestFriend(ownerID, targetID int64) error {
	if ownerID == targetID {
		return common.ErrFriendStatus.WithDetailf("cannot request yourself")
	}
	if err := s.resolveBoth(ownerID, targetID); err != nil {
		return err
	}

	forward, err := s.friendRepo.Find(ownerID, targetID)
	if err != nil {
		return common.Internal(err)
	}
	if forward != nil && forward.Status == domain.FriendStatusFriend {
		return common.ErrFriendAlreadyAccepted
	}

	reverse, err := s.friendRepo.Find(targetID, ownerID)
	if err != nil {
		return common.Internal(err)
	}
	if reverse != nil && reverse.Status == domain.FriendStatusBlock {
		return common.ErrFriendBlocked
	}

	// 상대편 행이 일방적으로 FRIEND로 남아있어도 WAIT 요청은 허용된다
	if _, err := s.friendRepo.Upsert(ownerID, targetID, domain.FriendStatusWait); err != nil {
		return common.Internal(err)
	}

	s.noticeSink.NotifyFriendRequest(targetID, ownerID)
	return nil
}

// AcceptRequest sets both directions to FRIEND.
// Only valid while the requester→accepter row is WAIT.
func (s *friendService) AcceptRequest(accepterID, requesterID int64) error {
	if err := s.resolveBoth(accepterID, requesterID); err != nil {
		return err
	}

	request, err := s.friendRepo.Find(requesterID, accepterID)
	if err != nil {
		return common.Internal(err)
	}
	if request == nil {
		return common.ErrFriendNotRequested
	}
	switch request.Status {
	case domain.FriendStatusWait:
		// 수락 가능
	case domain.FriendStatusFriend:
		return common.ErrFriendAlreadyAccepted
	default:
		return common.ErrFriendStatus.WithDetailf("request row is %s", request.Status)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.friendRepo.WithTx(tx)
		if _, err := repo.Upsert(requesterID, accepterID, domain.FriendStatusFriend); err != nil {
			return err
		}
		if _, err := repo.Upsert(accepterID, requesterID, domain.FriendStatusFriend); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return common.Internal(err)
	}

	s.noticeSink.MarkFriendRequestRead(accepterID, requesterID)
	return nil
}

// CancelRequest deletes the owner→target row while it is still WAIT,
// together with the unread notice on the target side
func (s *friendService) CancelRequest(ownerID, targetID int64) error {
	rel, err := s.friendRepo.Find(ownerID, targetID)
	if err != nil {
		return common.Internal(err)
	}
	if rel == nil {
		return common.ErrFriendNotRequested
	}
	if rel.Status != domain.FriendStatusWait {
		return common.ErrFriendStatus.WithDetailf("cannot cancel a %s relation", rel.Status)
	}
	if err := s.friendRepo.Delete(ownerID, targetID); err != nil {
		return common.Internal(err)
	}

	s.noticeSink.RemoveFriendRequestNotice(targetID, ownerID)
	return nil
}

// ReAddFriend restores the owner→target row straight to FRIEND after a
// one-sided delete, skipping WAIT. Blocked by the target's BLOCK row.
func (s *friendService) ReAddFriend(ownerID, targetID int64) error {
	if err := s.resolveBoth(ownerID, targetID); err != nil {
		return err
	}

	reverse, err := s.friendRepo.Find(targetID, ownerID)
	if err != nil {
		return common.Internal(err)
	}
	if reverse != nil && reverse.Status == domain.FriendStatusBlock {
		return common.ErrFriendBlocked
	}

	if _, err := s.friendRepo.Upsert(ownerID, targetID, domain.FriendStatusFriend); err != nil {
		return common.Internal(err)
	}
	return nil
}

// PatchStatus directly overwrites the owner→target row (used for BLOCK)
func (s *friendService) PatchStatus(ownerID, targetID int64, status domain.FriendStatus) error {
	if !status.Valid() {
		return common.ErrFriendStatus.WithDetailf("%s is not a storable status", status)
	}
	err := s.friendRepo.UpdateStatus(ownerID, targetID, status)
	if err == gorm.ErrRecordNotFound {
		return common.ErrFriendNotFound
	}
	if err != nil {
		return common.Internal(err)
	}
	return nil
}

// DeleteFriend removes the owner→target row only; the peer row is left
// untouched. A BLOCK row must be unblocked first.
func (s *friendService) DeleteFriend(ownerID, targetID int64) error {
	rel, err := s.friendRepo.Find(ownerID, targetID)
	if err != nil {
		return common.Internal(err)
	}
	if rel == nil {
		return common.ErrFriendNotFound
	}
	if rel.Status == domain.FriendStatusBlock {
		return common.ErrFriendStatus.WithDetailf("cannot delete a BLOCK relation")
	}
	if err := s.friendRepo.Delete(ownerID, targetID); err != nil {
		return common.Internal(err)
	}
	return nil
}

// ListFriends returns the user's FRIEND rows projected to profiles
func (s *friendService) ListFriends(userID int64) ([]*domain.FriendResponse, error) {
	rels, err := s.friendRepo.FindByOwnerAndStatus(userID, domain.FriendStatusFriend)
	if err != nil {
		return nil, common.Internal(err)
	}
	if len(rels) == 0 {
		return []*domain.FriendResponse{}, nil
	}

	ids := make([]int64, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.TargetID)
	}
	users, err := s.userRepo.FindActiveByIDs(ids)
	if err != nil {
		return nil, common.Internal(err)
	}
	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	responses := make([]*domain.FriendResponse, 0, len(rels))
	for _, rel := range rels {
		user, ok := byID[rel.TargetID]
		if !ok {
			continue // 탈퇴한 사용자는 목록에서 제외
		}
		responses = append(responses, &domain.FriendResponse{
			UserID:          user.ID,
			Name:            user.Name,
			ProfileImageURL: user.ProfileImageURL,
			Status:          rel.Status,
		})
	}
	return responses, nil
}

// FindUsers searches the directory and annotates each hit with the
// caller's relation to it. REQUESTED_BY is derived from the peer's
// WAIT row at read time; it is never stored.
func (s *friendService) FindUsers(callerID int64, filter domain.UserSearchFilter) ([]*domain.SearchedUserResponse, error) {
	users, err := s.userRepo.Search(filter)
	if err != nil {
		return nil, common.Internal(err)
	}

	outgoing, err := s.friendRepo.FindByOwner(callerID)
	if err != nil {
		return nil, common.Internal(err)
	}
	statusByTarget := make(map[int64]domain.FriendStatus, len(outgoing))
	for _, rel := range outgoing {
		statusByTarget[rel.TargetID] = rel.Status
	}

	incomingWaits, err := s.friendRepo.FindByTargetAndStatus(callerID, domain.FriendStatusWait)
	if err != nil {
		return nil, common.Internal(err)
	}
	requestedBy := make(map[int64]bool, len(incomingWaits))
	for _, rel := range incomingWaits {
		requestedBy[rel.OwnerID] = true
	}

	responses := make([]*domain.SearchedUserResponse, 0, len(users))
	for _, user := range users {
		if user.ID == callerID {
			continue
		}
		var status *domain.FriendStatus
		if st, ok := statusByTarget[user.ID]; ok {
			s := st
			status = &s
		} else if requestedBy[user.ID] {
			s := domain.FriendStatusRequestedBy
			status = &s
		}
		if filter.Status != nil {
			if status == nil || *status != *filter.Status {
				continue
			}
		}
		responses = append(responses, &domain.SearchedUserResponse{
			UserID:          user.ID,
			Name:            user.Name,
			Email:           user.Email,
			ProfileImageURL: user.ProfileImageURL,
			FriendStatus:    status,
		})
	}
	return responses, nil
}

// resolveBoth checks both users exist and are active
func (s *friendService) resolveBoth(aID, bID int64) error {
	for _, id := range []int64{aID, bID} {
		user, err := s.userRepo.FindActiveByID(id)
		if err != nil {
			return common.Internal(err)
		}
		if user == nil {
			return common.ErrUserNotFound.WithDetailf("user %d", id)
		}
	}
	return nil
}
