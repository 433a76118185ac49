package migration

import (
	"gorm.io/gorm"

	"github.com/ourmemory/ourmemory-server/internal/domain"
)

// Run executes AutoMigrate for all tables.
// 테이블 없으면 생성, 있으면 누락 컬럼/인덱스만 추가합니다.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Friend{},
		&domain.Room{},
		&domain.RoomMember{},
		&domain.Memory{},
		&domain.MemoryRoom{},
		&domain.Attendance{},
		&domain.Notice{},
	)
}
