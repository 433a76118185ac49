package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ourmemory/ourmemory-server/internal/common"
	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/pkg/cache"
)

func (env *testEnv) createMemory(t *testing.T, writerID int64, roomID *int64, name string, start, end time.Time) *domain.MemoryResponse {
	t.Helper()
	memory, err := env.memories.Create(writerID, &domain.MemoryCreateRequest{
		RoomID:    roomID,
		Name:      name,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		t.Fatalf("create memory %s failed: %v", name, err)
	}
	return memory
}

func TestCreateMemoryAttachesPrivateRoom(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "혼자 일정", start, start.Add(time.Hour))

	if memory.AddedRoomID != a.PrivateRoomID {
		t.Fatalf("expected added room %d, got %d", a.PrivateRoomID, memory.AddedRoomID)
	}
	attached, err := env.memoryRepo.IsAttached(memory.ID, a.PrivateRoomID)
	if err != nil || !attached {
		t.Fatalf("memory must be attached to the private room (attached=%v err=%v)", attached, err)
	}
}

func TestCreateMemoryDualResidency(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	room, err := env.rooms.Create(a.ID, &domain.RoomCreateRequest{
		Name:      "둘이서",
		MemberIDs: []int64{b.ID},
	})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	start := time.Now()
	memory := env.createMemory(t, a.ID, &room.ID, "공유 일정", start, start.Add(time.Hour))

	if memory.AddedRoomID != room.ID {
		t.Fatalf("expected added room %d, got %d", room.ID, memory.AddedRoomID)
	}
	// 개인 방과 공유 방 양쪽에 붙는다
	for _, roomID := range []int64{a.PrivateRoomID, room.ID} {
		attached, err := env.memoryRepo.IsAttached(memory.ID, roomID)
		if err != nil || !attached {
			t.Fatalf("expected attachment to room %d (attached=%v err=%v)", roomID, attached, err)
		}
	}
}

func TestCreateMemoryRoomChecks(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	start := time.Now()
	end := start.Add(time.Hour)

	// 없는 방
	bogus := int64(9999)
	_, err := env.memories.Create(a.ID, &domain.MemoryCreateRequest{
		RoomID: &bogus, Name: "x", StartDate: start, EndDate: end,
	})
	if !errors.Is(err, common.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	// 작성자가 속하지 않은 방도 같은 에러
	_, err = env.memories.Create(a.ID, &domain.MemoryCreateRequest{
		RoomID: &b.PrivateRoomID, Name: "x", StartDate: start, EndDate: end,
	})
	if !errors.Is(err, common.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound for foreign room, got %v", err)
	}

	// 롤백 확인: 실패한 생성은 일정 자체를 남기지 않는다
	var count int64
	env.db.Model(&domain.Memory{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no memory rows after rollback, got %d", count)
	}
}

func TestFindMemoryScopedToRoom(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "내 일정", start, start.Add(time.Hour))

	found, err := env.memories.Find(memory.ID, a.PrivateRoomID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(found.RoomIDs) != 1 || found.RoomIDs[0] != a.PrivateRoomID {
		t.Fatalf("expected room ids [%d], got %v", a.PrivateRoomID, found.RoomIDs)
	}

	// 다른 방 기준으로 조회하면 붙어있지 않으므로 실패
	if _, err := env.memories.Find(memory.ID, b.PrivateRoomID); !errors.Is(err, common.ErrMemoryNotInRoom) {
		t.Fatalf("expected ErrMemoryNotInRoom, got %v", err)
	}
}

// 월 범위는 [from, to) 반개구간과 [start_date, end_date] 구간의 겹침으로
// 판정한다. 경계에 걸친 일정은 양쪽 달 어디서 조회해도 나온다.
func TestFindMemoriesMonthBoundary(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")

	// 3월 31일 23시 ~ 4월 1일 1시
	start := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 1, 1, 0, 0, 0, time.UTC)
	memory := env.createMemory(t, a.ID, nil, "경계 일정", start, end)

	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// 3월 조회에 포함
	got, err := env.memories.FindMemories(a.ID, &march, &april)
	if err != nil {
		t.Fatalf("march query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != memory.ID {
		t.Fatalf("expected boundary memory in march, got %+v", got)
	}

	// 4월 조회에도 포함
	got, err = env.memories.FindMemories(a.ID, &april, &may)
	if err != nil {
		t.Fatalf("april query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected boundary memory in april, got %d", len(got))
	}

	// 5월 조회에는 없음
	june := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err = env.memories.FindMemories(a.ID, &may, &june)
	if err != nil {
		t.Fatalf("may query failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty may, got %d", len(got))
	}
}

// 여러 방에 붙은 일정도 목록에는 한 번만 나온다
func TestFindMemoriesDeduplicates(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	room, err := env.rooms.Create(a.ID, &domain.RoomCreateRequest{
		Name:      "둘이서",
		MemberIDs: []int64{b.ID},
	})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	start := time.Now()
	memory := env.createMemory(t, a.ID, &room.ID, "중복 후보", start, start.Add(time.Hour))

	got, err := env.memories.FindMemories(a.ID, nil, nil)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != memory.ID {
		t.Fatalf("expected one deduplicated memory, got %+v", got)
	}
}

func TestFindTodosWindow(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")

	now := time.Now()
	env.createMemory(t, a.ID, nil, "오늘", now.Add(time.Hour), now.Add(2*time.Hour))
	env.createMemory(t, a.ID, nil, "다음 주", now.Add(7*24*time.Hour), now.Add(8*24*time.Hour))
	env.createMemory(t, a.ID, nil, "지난 주", now.Add(-8*24*time.Hour), now.Add(-7*24*time.Hour))

	todos, err := env.memories.FindTodos(a.ID)
	if err != nil {
		t.Fatalf("todos failed: %v", err)
	}
	if len(todos) != 1 || todos[0].Name != "오늘" {
		t.Fatalf("expected only the upcoming memory, got %+v", todos)
	}
}

func TestUpdateMemoryWriterOnly(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "원래 이름", start, start.Add(time.Hour))

	newName := "바뀐 이름"
	if _, err := env.memories.Update(memory.ID, b.ID, &domain.MemoryPatchRequest{Name: &newName}); !errors.Is(err, common.ErrMemoryNotWriter) {
		t.Fatalf("expected ErrMemoryNotWriter, got %v", err)
	}

	updated, err := env.memories.Update(memory.ID, a.ID, &domain.MemoryPatchRequest{Name: &newName})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("expected name %q, got %q", newName, updated.Name)
	}
	if updated.ModDate == "" {
		t.Fatalf("expected mod date set after update")
	}
}

func TestDeleteMemoryDetachOnly(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	room, err := env.rooms.Create(a.ID, &domain.RoomCreateRequest{
		Name:      "둘이서",
		MemberIDs: []int64{b.ID},
	})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	start := time.Now()
	memory := env.createMemory(t, a.ID, &room.ID, "공유 일정", start, start.Add(time.Hour))

	// 공유 방에서만 떼면 개인 방 덕에 살아 있다
	if err := env.memories.Delete(memory.ID, a.ID, room.ID); err != nil {
		t.Fatalf("delete from shared room failed: %v", err)
	}
	if !env.memoryAlive(t, memory.ID) {
		t.Fatalf("memory must survive while attached to the private room")
	}

	// 마지막 방에서 떼면 소프트 삭제
	if err := env.memories.Delete(memory.ID, a.ID, a.PrivateRoomID); err != nil {
		t.Fatalf("delete from private room failed: %v", err)
	}
	if env.memoryAlive(t, memory.ID) {
		t.Fatalf("memory with empty room set must be soft-deleted")
	}

	// 삭제된 일정은 더 이상 조회되지 않는다
	if _, err := env.memories.Find(memory.ID, a.PrivateRoomID); !errors.Is(err, common.ErrMemoryNotFound) {
		t.Fatalf("expected ErrMemoryNotFound, got %v", err)
	}
}

func TestSetAttendanceStatus(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "모임", start, start.Add(time.Hour))

	// 잘못된 상태
	_, err := env.memories.SetAttendanceStatus(memory.ID, &domain.AttendanceRequest{
		UserID: b.ID, Status: "MAYBE",
	})
	if !errors.Is(err, common.ErrAttendanceStatusInvalid) {
		t.Fatalf("expected ErrAttendanceStatusInvalid, got %v", err)
	}

	resp, err := env.memories.SetAttendanceStatus(memory.ID, &domain.AttendanceRequest{
		UserID: b.ID, Status: domain.AttendanceStatusAttend,
	})
	if err != nil {
		t.Fatalf("set attendance failed: %v", err)
	}
	if len(resp.Attendances) != 1 || resp.Attendances[0].Status != domain.AttendanceStatusAttend {
		t.Fatalf("expected one ATTEND row, got %+v", resp.Attendances)
	}

	// 같은 사용자의 재설정은 행을 덮어쓴다
	resp, err = env.memories.SetAttendanceStatus(memory.ID, &domain.AttendanceRequest{
		UserID: b.ID, Status: domain.AttendanceStatusAbsence,
	})
	if err != nil {
		t.Fatalf("update attendance failed: %v", err)
	}
	if len(resp.Attendances) != 1 || resp.Attendances[0].Status != domain.AttendanceStatusAbsence {
		t.Fatalf("expected single overwritten ABSENCE row, got %+v", resp.Attendances)
	}
}

func TestShareMemoryToUsers(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")
	c := env.signUp(t, "carol")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "공유할 일정", start, start.Add(time.Hour))

	resp, err := env.memories.ShareMemory(memory.ID, a.ID, &domain.ShareMemoryRequest{
		ShareType: domain.ShareTypeUsers,
		TargetIDs: []int64{b.ID, c.ID},
	})
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	// 대상마다 2인 방 하나씩
	if len(resp.RoomIDs) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(resp.RoomIDs))
	}
	for _, roomID := range resp.RoomIDs {
		detail, err := env.rooms.Find(roomID)
		if err != nil {
			t.Fatalf("find shared room failed: %v", err)
		}
		if len(detail.Members) != 2 {
			t.Fatalf("expected 2-person room, got %d members", len(detail.Members))
		}
		attached, err := env.memoryRepo.IsAttached(memory.ID, roomID)
		if err != nil || !attached {
			t.Fatalf("memory must be attached to room %d", roomID)
		}
	}
}

func TestShareMemoryToUserGroup(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")
	c := env.signUp(t, "carol")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "단체 일정", start, start.Add(time.Hour))

	resp, err := env.memories.ShareMemory(memory.ID, a.ID, &domain.ShareMemoryRequest{
		ShareType: domain.ShareTypeUserGroup,
		TargetIDs: []int64{b.ID, c.ID},
	})
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if len(resp.RoomIDs) != 1 {
		t.Fatalf("expected single group room, got %d", len(resp.RoomIDs))
	}
	detail, err := env.rooms.Find(resp.RoomIDs[0])
	if err != nil {
		t.Fatalf("find group room failed: %v", err)
	}
	if len(detail.Members) != 3 {
		t.Fatalf("expected sharer plus 2 targets, got %d members", len(detail.Members))
	}
}

func TestShareMemoryToRooms(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	room, err := env.rooms.Create(b.ID, &domain.RoomCreateRequest{Name: "기존 방"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "일정", start, start.Add(time.Hour))

	resp, err := env.memories.ShareMemory(memory.ID, a.ID, &domain.ShareMemoryRequest{
		ShareType: domain.ShareTypeRooms,
		TargetIDs: []int64{room.ID},
	})
	if err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if len(resp.RoomIDs) != 1 || resp.RoomIDs[0] != room.ID {
		t.Fatalf("expected attach to room %d, got %v", room.ID, resp.RoomIDs)
	}
}

// 개인 방은 공유 대상이 될 수 없다. 섞여 들어오면 호출 전체가
// 롤백되어 유효했던 대상에도 연결이 남지 않는다.
func TestShareMemoryRejectsPrivateRoom(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	shared, err := env.rooms.Create(b.ID, &domain.RoomCreateRequest{Name: "기존 방"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "일정", start, start.Add(time.Hour))

	_, err = env.memories.ShareMemory(memory.ID, a.ID, &domain.ShareMemoryRequest{
		ShareType: domain.ShareTypeRooms,
		TargetIDs: []int64{shared.ID, b.PrivateRoomID},
	})
	if !errors.Is(err, common.ErrShareRoomNotFound) {
		t.Fatalf("expected ErrShareRoomNotFound for private target, got %v", err)
	}

	for _, roomID := range []int64{shared.ID, b.PrivateRoomID} {
		attached, err := env.memoryRepo.IsAttached(memory.ID, roomID)
		if err != nil {
			t.Fatalf("attachment check failed: %v", err)
		}
		if attached {
			t.Fatalf("memory must not be attached to room %d after rollback", roomID)
		}
	}
}

// 공유는 전부-아니면-전무: 대상 하나가 잘못되면 그 호출로 만들어진
// 방과 연결이 전부 롤백된다
func TestShareMemoryAtomicRollback(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "일정", start, start.Add(time.Hour))

	var roomsBefore, linksBefore int64
	env.db.Model(&domain.Room{}).Count(&roomsBefore)
	env.db.Model(&domain.MemoryRoom{}).Count(&linksBefore)

	_, err := env.memories.ShareMemory(memory.ID, a.ID, &domain.ShareMemoryRequest{
		ShareType: domain.ShareTypeUsers,
		TargetIDs: []int64{b.ID, 9999}, // 두 번째 대상이 없음
	})
	if !errors.Is(err, common.ErrShareMemberNotFound) {
		t.Fatalf("expected ErrShareMemberNotFound, got %v", err)
	}

	var roomsAfter, linksAfter int64
	env.db.Model(&domain.Room{}).Count(&roomsAfter)
	env.db.Model(&domain.MemoryRoom{}).Count(&linksAfter)
	if roomsAfter != roomsBefore || linksAfter != linksBefore {
		t.Fatalf("partial share leaked: rooms %d→%d links %d→%d",
			roomsBefore, roomsAfter, linksBefore, linksAfter)
	}
}

func TestShareMemoryInvalidType(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")

	start := time.Now()
	memory := env.createMemory(t, a.ID, nil, "일정", start, start.Add(time.Hour))

	_, err := env.memories.ShareMemory(memory.ID, a.ID, &domain.ShareMemoryRequest{
		ShareType: "BROADCAST",
		TargetIDs: []int64{1},
	})
	if !errors.Is(err, common.ErrShareTypeInvalid) {
		t.Fatalf("expected ErrShareTypeInvalid, got %v", err)
	}
}

// recordingCache는 방 캐시 무효화 호출을 기록한다
type recordingCache struct {
	cache.Service
	invalidated []int64
}

func (c *recordingCache) InvalidateRoom(ctx context.Context, roomIDs ...int64) error {
	c.invalidated = append(c.invalidated, roomIDs...)
	return c.Service.InvalidateRoom(ctx, roomIDs...)
}

func (c *recordingCache) contains(roomID int64) bool {
	for _, id := range c.invalidated {
		if id == roomID {
			return true
		}
	}
	return false
}

// 일정 수정도 그 일정이 붙어 있는 모든 방의 캐시를 비운다
func TestUpdateMemoryInvalidatesRoomCache(t *testing.T) {
	env := setupEnv(t)
	a := env.signUp(t, "alice")
	b := env.signUp(t, "bob")

	room, err := env.rooms.Create(a.ID, &domain.RoomCreateRequest{
		Name:      "둘이서",
		MemberIDs: []int64{b.ID},
	})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	rec := &recordingCache{Service: cache.NewService(nil)}
	memories := NewMemoryService(env.db, env.memoryRepo, env.roomRepo, env.userRepo, rec)

	start := time.Now()
	memory, err := memories.Create(a.ID, &domain.MemoryCreateRequest{
		RoomID: &room.ID, Name: "원래 이름", StartDate: start, EndDate: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create memory failed: %v", err)
	}

	rec.invalidated = nil
	newName := "바뀐 이름"
	if _, err := memories.Update(memory.ID, a.ID, &domain.MemoryPatchRequest{Name: &newName}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	for _, roomID := range []int64{a.PrivateRoomID, room.ID} {
		if !rec.contains(roomID) {
			t.Fatalf("expected room %d cache invalidated, got %v", roomID, rec.invalidated)
		}
	}
}
