package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/middleware"
	"github.com/ourmemory/ourmemory-server/internal/service"
)

// RoomHandler handles room requests
type RoomHandler struct {
	roomService service.RoomService
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(roomService service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoom handles POST /api/v1/rooms
// @Summary 방 생성
// @Description 방장은 목록에 없어도 항상 참여자로 포함됩니다
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body domain.RoomCreateRequest true "방 정보"
// @Success 200 {object} common.APIResponse{data=domain.RoomResponse}
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req domain.RoomCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequestResponse(c, "invalid room request")
		return
	}
	room, err := h.roomService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, room, nil)
}

// GetRoom handles GET /api/v1/rooms/:id
// @Summary 방 상세 조회
// @Tags rooms
// @Produce json
// @Param id path int true "방 ID"
// @Success 200 {object} common.APIResponse{data=domain.RoomResponse}
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := h.roomService.Find(id)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, room, nil)
}

// ListRooms handles GET /api/v1/rooms
// @Summary 방 목록
// @Description userId가 주어지면 참여 중인 방, name이 주어지면 이름 검색
// @Tags rooms
// @Produce json
// @Param userId query int false "참여자 ID"
// @Param name query string false "이름 부분 일치 검색"
// @Success 200 {object} common.APIResponse{data=[]domain.RoomSummaryResponse}
// @Security BearerAuth
// @Router /rooms [get]
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var userID *int64
	var name *string
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.BadRequestResponse(c, "invalid userId")
			return
		}
		userID = &id
	}
	if raw := c.Query("name"); raw != "" {
		name = &raw
	}

	rooms, err := h.roomService.FindRooms(userID, name)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, rooms, nil)
}

// UpdateRoom handles PATCH /api/v1/rooms/:id
// @Summary 방 정보 수정
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path int true "방 ID"
// @Param request body domain.RoomPatchRequest true "수정 내용"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /rooms/{id} [patch]
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch domain.RoomPatchRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.BadRequestResponse(c, "invalid patch request")
		return
	}
	if err := h.roomService.Update(id, &patch); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"updated": true}, nil)
}

// RecommendOwner handles PATCH /api/v1/rooms/:id/owner
// @Summary 방장 위임
// @Tags rooms
// @Produce json
// @Param id path int true "방 ID"
// @Param newOwnerId query int true "새 방장 ID"
// @Success 200 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse
// @Security BearerAuth
// @Router /rooms/{id}/owner [patch]
func (h *RoomHandler) RecommendOwner(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	newOwnerID, err := strconv.ParseInt(c.Query("newOwnerId"), 10, 64)
	if err != nil || newOwnerID <= 0 {
		common.BadRequestResponse(c, "invalid newOwnerId")
		return
	}
	if err := h.roomService.RecommendOwner(id, newOwnerID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"owner_id": newOwnerID}, nil)
}

// DeleteRoom handles DELETE /api/v1/rooms/:id
// @Summary 방 삭제
// @Description 방장만 삭제할 수 있습니다. 남은 방이 없는 일정은 함께 삭제됩니다.
// @Tags rooms
// @Produce json
// @Param id path int true "방 ID"
// @Success 200 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Security BearerAuth
// @Router /rooms/{id} [delete]
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.roomService.Delete(id, middleware.GetUserID(c)); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": true}, nil)
}

// ExitRoom handles POST /api/v1/rooms/:id/exit
// @Summary 방 나가기
// @Description 방장이 나가면 recommendUserId 또는 임의 참여자에게 방장이 넘어갑니다
// @Tags rooms
// @Produce json
// @Param id path int true "방 ID"
// @Param recommendUserId query int false "위임 추천 대상 ID"
// @Success 200 {object} common.APIResponse
// @Security BearerAuth
// @Router /rooms/{id}/exit [post]
func (h *RoomHandler) ExitRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var recommendUserID *int64
	if raw := c.Query("recommendUserId"); raw != "" {
		rid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.BadRequestResponse(c, "invalid recommendUserId")
			return
		}
		recommendUserID = &rid
	}
	if err := h.roomService.Exit(id, middleware.GetUserID(c), recommendUserID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"exited": true}, nil)
}
