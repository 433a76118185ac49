package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/middleware"
	"github.com/ourmemory/ourmemory-server/internal/service"
	"github.com/ourmemory/ourmemory-server/pkg/jwt"
)

// UserHandler handles user directory requests
type UserHandler struct {
	userService   service.UserService
	noticeService service.NoticeService
	jwtManager    *jwt.Manager
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, noticeService service.NoticeService, jwtManager *jwt.Manager) *UserHandler {
	return &UserHandler{
		userService:   userService,
		noticeService: noticeService,
		jwtManager:    jwtManager,
	}
}

// SignUp handles POST /api/v1/users
// @Summary 회원 가입
// @Description 사용자를 등록하고 개인 방을 함께 생성합니다
// @Tags users
// @Accept json
// @Produce json
// @Param request body domain.SignUpRequest true "가입 정보"
// @Success 200 {object} common.APIResponse{data=domain.SignUpResponse}
// @Failure 409 {object} common.APIResponse
// @Router /users [post]
func (h *UserHandler) SignUp(c *gin.Context) {
	var req domain.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequestResponse(c, "invalid signup request")
		return
	}

	user, err := h.userService.SignUp(&req)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Name)
	if err != nil {
		common.ErrorResponse(c, common.Internal(err))
		return
	}

	common.SuccessResponse(c, &domain.SignUpResponse{User: user, Token: token}, nil)
}

// GetUser handles GET /api/v1/users/:id
// @Summary 사용자 조회
// @Tags users
// @Produce json
// @Param id path int true "사용자 ID"
// @Success 200 {object} common.APIResponse{data=domain.UserResponse}
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.GetUser(id)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, user, nil)
}

// UpdateUser handles PATCH /api/v1/users/:id
// @Summary 사용자 정보 수정
// @Description 전달된 필드만 수정합니다
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "사용자 ID"
// @Param request body domain.UserPatchRequest true "수정 내용"
// @Success 200 {object} common.APIResponse{data=domain.UserResponse}
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if middleware.GetUserID(c) != id {
		common.ErrorResponse(c, common.ErrUserNotFound)
		return
	}

	var patch domain.UserPatchRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.BadRequestResponse(c, "invalid patch request")
		return
	}
	user, err := h.userService.UpdateUser(id, &patch)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, user, nil)
}

// DeleteUser handles DELETE /api/v1/users/:id
// @Summary 회원 탈퇴
// @Description 친구 관계, 방 참여, 개인 방 일정까지 정리합니다
// @Tags users
// @Produce json
// @Param id path int true "사용자 ID"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if middleware.GetUserID(c) != id {
		common.ErrorResponse(c, common.ErrUserNotFound)
		return
	}
	if err := h.userService.DeleteUser(id); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": true}, nil)
}

// ListNotices handles GET /api/v1/users/me/notices
// @Summary 알림 목록
// @Tags users
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.NoticeResponse}
// @Security BearerAuth
// @Router /users/me/notices [get]
func (h *UserHandler) ListNotices(c *gin.Context) {
	userID := middleware.GetUserID(c)
	notices, err := h.noticeService.ListNotices(userID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, notices, nil)
}

// paramID parses an int64 path parameter, writing a 400 on failure
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		common.BadRequestResponse(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
