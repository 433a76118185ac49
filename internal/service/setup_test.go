package service

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ourmemory/ourmemory-server/internal/domain"
	"github.com/ourmemory/ourmemory-server/internal/repository"
	"github.com/ourmemory/ourmemory-server/pkg/cache"
)

// testEnv wires every service against one in-memory database
type testEnv struct {
	db *gorm.DB

	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	roomRepo   repository.RoomRepository
	memoryRepo repository.MemoryRepository
	noticeRepo repository.NoticeRepository

	users    UserService
	friends  FriendService
	rooms    RoomService
	memories MemoryService
	notices  NoticeService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Friend{},
		&domain.Room{},
		&domain.RoomMember{},
		&domain.Memory{},
		&domain.MemoryRoom{},
		&domain.Attendance{},
		&domain.Notice{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	cacheSvc := cache.NewService(nil) // 캐시 없이 동작

	env := &testEnv{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		friendRepo: repository.NewFriendRepository(db),
		roomRepo:   repository.NewRoomRepository(db),
		memoryRepo: repository.NewMemoryRepository(db),
		noticeRepo: repository.NewNoticeRepository(db),
	}
	env.notices = NewNoticeService(env.noticeRepo)
	env.friends = NewFriendService(db, env.friendRepo, env.userRepo, env.notices)
	env.rooms = NewRoomService(db, env.roomRepo, env.userRepo, env.memoryRepo, cacheSvc)
	env.memories = NewMemoryService(db, env.memoryRepo, env.roomRepo, env.userRepo, cacheSvc)
	env.users = NewUserService(db, env.userRepo, env.friendRepo, env.roomRepo, env.noticeRepo, env.rooms, cacheSvc)
	return env
}

// signUp creates a user through the real signup path so the private
// room exists
func (env *testEnv) signUp(t *testing.T, name string) *domain.UserResponse {
	t.Helper()
	user, err := env.users.SignUp(&domain.SignUpRequest{
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", name),
	})
	if err != nil {
		t.Fatalf("signup %s failed: %v", name, err)
	}
	return user
}

func (env *testEnv) findFriendRow(t *testing.T, ownerID, targetID int64) *domain.Friend {
	t.Helper()
	rel, err := env.friendRepo.Find(ownerID, targetID)
	if err != nil {
		t.Fatalf("find friend row: %v", err)
	}
	return rel
}

func (env *testEnv) memoryAlive(t *testing.T, memoryID int64) bool {
	t.Helper()
	m, err := env.memoryRepo.FindAliveByID(memoryID)
	if err != nil {
		t.Fatalf("find memory: %v", err)
	}
	return m != nil
}
