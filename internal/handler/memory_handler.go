package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/middleware"
	"github.com/ourmemory/ourmemory-server/internal/service"
)

// MemoryHandler handles memory requests
type MemoryHandler struct {
	memoryService service.MemoryService
}

// NewMemoryHandler creates a new MemoryHandler
func NewMemoryHandler(memoryService service.MemoryService) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService}
}

// CreateMemory handles POST /api/v1/memories
// @Summary 일정 생성
// @Description 작성자의 개인 방에 항상 붙고, room_id가 있으면 그 방에도 붙습니다
// @Tags memories
// @Accept json
// @Produce json
// @Param request body domain.MemoryCreateRequest true "일정 정보"
// @Success 200 {object} common.APIResponse{data=domain.MemoryResponse}
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /memories [post]
func (h *MemoryHandler) CreateMemory(c *gin.Context) {
	var req domain.MemoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequestResponse(c, "invalid memory request")
		return
	}
	memory, err := h.memoryService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, memory, nil)
}

// GetMemory handles GET /api/v1/memories/:id
// @Summary 일정 조회
// @Description roomId 기준으로 조회합니다. 그 방에 붙어있지 않으면 404.
// @Tags memories
// @Produce json
// @Param id path int true "일정 ID"
// @Param roomId query int true "방 ID"
// @Success 200 {object} common.APIResponse{data=domain.MemoryResponse}
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /memories/{id} [get]
func (h *MemoryHandler) GetMemory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	roomID, err := strconv.ParseInt(c.Query("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		common.BadRequestResponse(c, "invalid roomId")
		return
	}
	memory, err := h.memoryService.Find(id, roomID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, memory, nil)
}

// ListMemories handles GET /api/v1/memories
// @Summary 일정 목록
// @Description 참여 중인 모든 방의 일정을 중복 없이 모읍니다. 월 범위 필터 지원.
// @Tags memories
// @Produce json
// @Param startMonth query string false "YYYY-MM"
// @Param endMonth query string false "YYYY-MM"
// @Success 200 {object} common.APIResponse{data=[]domain.MemoryResponse}
// @Security BearerAuth
// @Router /memories [get]
func (h *MemoryHandler) ListMemories(c *gin.Context) {
	from, to, ok := monthRange(c)
	if !ok {
		return
	}
	memories, err := h.memoryService.FindMemories(middleware.GetUserID(c), from, to)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, memories, nil)
}

// ListTodos handles GET /api/v1/memories/todos
// @Summary 오늘의 일정
// @Description 현재 시각 전후의 일정을 돌려줍니다
// @Tags memories
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.MemoryResponse}
// @Security BearerAuth
// @Router /memories/todos [get]
func (h *MemoryHandler) ListTodos(c *gin.Context) {
	memories, err := h.memoryService.FindTodos(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, memories, nil)
}

// UpdateMemory handles PATCH /api/v1/memories/:id
// @Summary 일정 수정
// @Description 작성자만 수정할 수 있습니다. 전달된 필드만 반영됩니다.
// @Tags memories
// @Accept json
// @Produce json
// @Param id path int true "일정 ID"
// @Param request body domain.MemoryPatchRequest true "수정 내용"
// @Success 200 {object} common.APIResponse{data=domain.MemoryResponse}
// @Failure 403 {object} common.APIResponse
// @Security BearerAuth
// @Router /memories/{id} [patch]
func (h *MemoryHandler) UpdateMemory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch domain.MemoryPatchRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		common.BadRequestResponse(c, "invalid patch request")
		return
	}
	memory, err := h.memoryService.Update(id, middleware.GetUserID(c), &patch)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, memory, nil)
}

// DeleteMemory handles DELETE /api/v1/memories/:id
// @Summary 일정 삭제
// @Description roomId와의 연결만 끊습니다. 남은 방이 없으면 일정 자체가 삭제됩니다.
// @Tags memories
// @Produce json
// @Param id path int true "일정 ID"
// @Param roomId query int true "방 ID"
// @Success 200 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /memories/{id} [delete]
func (h *MemoryHandler) DeleteMemory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	roomID, err := strconv.ParseInt(c.Query("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		common.BadRequestResponse(c, "invalid roomId")
		return
	}
	if err := h.memoryService.Delete(id, middleware.GetUserID(c), roomID); err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": true}, nil)
}

// SetAttendance handles POST /api/v1/memories/:id/attendance
// @Summary 참석 여부 등록
// @Tags memories
// @Accept json
// @Produce json
// @Param id path int true "일정 ID"
// @Param request body domain.AttendanceRequest true "참석 여부"
// @Success 200 {object} common.APIResponse{data=domain.MemoryResponse}
// @Security BearerAuth
// @Router /memories/{id}/attendance [post]
func (h *MemoryHandler) SetAttendance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req domain.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequestResponse(c, "invalid attendance request")
		return
	}
	memory, err := h.memoryService.SetAttendanceStatus(id, &req)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, memory, nil)
}

// ShareMemory handles POST /api/v1/memories/:id/share
// @Summary 일정 공유
// @Description USERS / USER_GROUP / ROOMS 공유. 대상이 하나라도 잘못되면 전체 롤백.
// @Tags memories
// @Accept json
// @Produce json
// @Param id path int true "일정 ID"
// @Param request body domain.ShareMemoryRequest true "공유 대상"
// @Success 200 {object} common.APIResponse{data=domain.ShareMemoryResponse}
// @Failure 404 {object} common.APIResponse
// @Security BearerAuth
// @Router /memories/{id}/share [post]
func (h *MemoryHandler) ShareMemory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req domain.ShareMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BadRequestResponse(c, "invalid share request")
		return
	}
	result, err := h.memoryService.ShareMemory(id, middleware.GetUserID(c), &req)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}
	common.SuccessResponse(c, result, nil)
}

// monthRange parses optional YYYY-MM query bounds into a half-open
// interval [first day of startMonth, first day after endMonth)
func monthRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if raw := c.Query("startMonth"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			common.BadRequestResponse(c, "invalid startMonth")
			return nil, nil, false
		}
		from = &t
	}
	if raw := c.Query("endMonth"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			common.BadRequestResponse(c, "invalid endMonth")
			return nil, nil, false
		}
		end := t.AddDate(0, 1, 0)
		to = &end
	}
	return from, to, true
}
