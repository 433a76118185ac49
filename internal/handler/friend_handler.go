package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/middleware"
	"github.com/ourmemory/ourmemory-server/internal/service"
)

// FriendHandler handles friend graph requests
type FriendHandler struct {
	friendService service.FriendService
}

// NewFriendHandler creates a new FriendHandler
func NewFriendHandler(friendService service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// RequestFriend handles POST /api/v1/friends/:targetId/request
// @Summary 친구 요청
// @Tags friends
// @Produce json
// @Param targetId path int true "대상 사용자 ID"
// @Success 200 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse
// @Security BearerAuth
// @Router /friends/{targetId}/request [post]
func (h *FriendHandler) RequestFriend(c *gin.Context) {
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}
	if err := h.friendService.RequestFriend(middleware.GetUserID(c), targetID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"requested": true}, nil)
}

// AcceptRequest handles POST /api/v1/friends/:targetId/accept
// @Summary 친구 요청 수락
// @Description 상대의 WAIT 요청을 수락하여 양방향 FRIEND로 만듭니다
// @Tags friends
// @Produce json
// @Param targetId path int true "요청한 사용자 ID"
// @Success 200 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse
// @Security BearerAuth
// @Router /friends/{targetId}/accept [post]
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	requesterID, ok := paramID(c, "targetId")
	if !ok {
		return
	}
	if err := h.friendService.AcceptRequest(middleware.GetUserID(c), requesterID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"accepted": true}, nil)
}

// CancelRequest handles DELETE /api/v1/friends/:targetId/request
// @Summary 친구 요청 취소
// @Tags friends
// @Produce json
// @Param targetId path int true "대상 사용자 ID"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /friends/{targetId}/request [delete]
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}
	if err := h.friendService.CancelRequest(middleware.GetUserID(c), targetID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"canceled": true}, nil)
}

// ReAddFriend handles POST /api/v1/friends/:targetId/readd
// @Summary 친구 재추가
// @Description 일방 삭제 후 WAIT 없이 바로 FRIEND로 복구합니다
// @Tags friends
// @Produce json
// @Param targetId path int true "대상 사용자 ID"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /friends/{targetId}/readd [post]
func (h *FriendHandler) ReAddFriend(c *gin.Context) {
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}
	if err := h.friendService.ReAddFriend(middleware.GetUserID(c), targetID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"added": true}, nil)
}

// PatchStatus handles PATCH /api/v1/friends/:targetId
// @Summary 친구 상태 변경
// @Description 차단 등 상태를 직접 덮어씁니다 (내 방향 행만)
// @Tags friends
// @Accept json
// @Produce json
// @Param targetId path int true "대상 사용자 ID"
// @Param request body domain.FriendStatusPatchRequest true "새 상태"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /friends/{targetId} [patch]
func (h *FriendHandler) PatchStatus(c *gin.Context) {
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}
	var req domain.FriendStatusPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequestResponse(c, "invalid status patch")
		return
	}
	if err := h.friendService.PatchStatus(middleware.GetUserID(c), targetID, req.Status); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"status": req.Status}, nil)
}

// DeleteFriend handles DELETE /api/v1/friends/:targetId
// @Summary 친구 삭제
// @Description 내 방향 행만 삭제합니다. 상대 쪽에는 남습니다.
// @Tags friends
// @Produce json
// @Param targetId path int true "대상 사용자 ID"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /friends/{targetId} [delete]
func (h *FriendHandler) DeleteFriend(c *gin.Context) {
	targetID, ok := paramID(c, "targetId")
	if !ok {
		return
	}
	if err := h.friendService.DeleteFriend(middleware.GetUserID(c), targetID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": true}, nil)
}

// ListFriends handles GET /api/v1/friends
// @Summary 친구 목록
// @Tags friends
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.FriendResponse}
// @Security BearerAuth
// @Router /friends [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friendService.ListFriends(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, friends, nil)
}

// FindUsers handles GET /api/v1/users
// @Summary 사용자 검색
// @Description 검색 결과에 호출자와의 친구 상태를 함께 표시합니다
// @Tags friends
// @Produce json
// @Param userId query int false "ID 일치 검색"
// @Param name query string false "이름 부분 일치 검색"
// @Param status query string false "친구 상태 필터"
// @Success 200 {object} common.APIResponse{data=[]domain.SearchedUserResponse}
// @Security BearerAuth
// @Router /users [get]
func (h *FriendHandler) FindUsers(c *gin.Context) {
	var filter domain.UserSearchFilter
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.BadRequestResponse(c, "invalid userId")
			return
		}
		filter.UserID = &id
	}
	if name := c.Query("name"); name != "" {
		filter.Name = &name
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.FriendStatus(raw)
		filter.Status = &status
	}

	users, err := h.friendService.FindUsers(middleware.GetUserID(c), filter)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, users, nil)
}
