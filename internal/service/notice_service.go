package service

import (
	"strconv"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"github.com/ourmemory/ourmemory-server/pkg/logger"
)

// NoticeService is the notice sink for friend-request lifecycle
// events. Mutations here are fire-and-forget from the friend graph's
// perspective: a failed notice is logged and never rolls back the
// relation change.
type NoticeService interface {
	NotifyFriendRequest(targetID, requesterID int64)
	MarkFriendRequestRead(targetID, requesterID int64)
	RemoveFriendRequestNotice(targetID, requesterID int64)
	ListNotices(userID int64) ([]*domain.NoticeResponse, error)
}

type noticeService struct {
	noticeRepo repository.NoticeRepository
}

// NewNoticeService creates a new NoticeService
func NewNoticeService(noticeRepo repository.NoticeRepository) NoticeService {
	return &noticeService{noticeRepo: noticeRepo}
}

// NotifyFriendRequest records a friend-request notice for the target
func (s *noticeService) NotifyFriendRequest(targetID, requesterID int64) {
	notice := &domain.Notice{
		UserID:    targetID,
		Type:      domain.NoticeTypeFriendRequest,
		Value:     strconv.FormatInt(requesterID, 10),
		CreatedAt: time.Now(),
	}
	if err := s.noticeRepo.Create(notice); err != nil {
		logger.GetLogger().Warn().Err(err).
			Int64("target_id", targetID).
			Int64("requester_id", requesterID).
			Msg("friend request notice failed")
	}
}

// MarkFriendRequestRead marks the originating request notice read
func (s *noticeService) MarkFriendRequestRead(targetID, requesterID int64) {
	value := strconv.FormatInt(requesterID, 10)
	if err := s.noticeRepo.MarkRead(targetID, domain.NoticeTypeFriendRequest, value); err != nil {
		logger.GetLogger().Warn().Err(err).
			Int64("target_id", targetID).
			Int64("requester_id", requesterID).
			Msg("friend request notice read-mark failed")
	}
}

// RemoveFriendRequestNotice deletes the unread request notice on cancel
func (s *noticeService) RemoveFriendRequestNotice(targetID, requesterID int64) {
	value := strconv.FormatInt(requesterID, 10)
	if err := s.noticeRepo.DeleteByValue(targetID, domain.NoticeTypeFriendRequest, value); err != nil {
		logger.GetLogger().Warn().Err(err).
			Int64("target_id", targetID).
			Int64("requester_id", requesterID).
			Msg("friend request notice delete failed")
	}
}

// ListNotices returns the user's notices, newest first
func (s *noticeService) ListNotices(userID int64) ([]*domain.NoticeResponse, error) {
	notices, err := s.noticeRepo.FindByUser(userID)
	if err != nil {
		return nil, common.Internal(err)
	}
	responses := make([]*domain.NoticeResponse, len(notices))
	for i, n := range notices {
		responses[i] = &domain.NoticeResponse{
			ID:        n.ID,
			Type:      n.Type,
			Value:     n.Value,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return responses, nil
}
