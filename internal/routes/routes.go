package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ourmemory/ourmemory-server/internal/handler"
	"github.com/ourmemory/ourmemory-server/internal/middleware"
	"github.com/ourmemory/ourmemory-server/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	userHandler *handler.UserHandler,
	friendHandler *handler.FriendHandler,
	roomHandler *handler.RoomHandler,
	memoryHandler *handler.MemoryHandler,
	jwtManager *jwt.Manager,
) {
	api := router.Group("/api/v1")

	// 가입은 인증 없이 허용
	api.POST("/users", userHandler.SignUp)

	authed := api.Group("", middleware.JWTAuth(jwtManager))

	// Users (사용자 검색은 친구 상태 표시 때문에 friendHandler가 담당)
	users := authed.Group("/users")
	users.GET("", friendHandler.FindUsers)
	users.GET("/me/notices", userHandler.ListNotices)
	users.GET("/:id", userHandler.GetUser)
	users.PATCH("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	// Friends (친구 관계)
	friends := authed.Group("/friends")
	friends.GET("", friendHandler.ListFriends)
	friends.POST("/:targetId/request", friendHandler.RequestFriend)
	friends.DELETE("/:targetId/request", friendHandler.CancelRequest)
	friends.POST("/:targetId/accept", friendHandler.AcceptRequest)
	friends.POST("/:targetId/readd", friendHandler.ReAddFriend)
	friends.PATCH("/:targetId", friendHandler.PatchStatus)
	friends.DELETE("/:targetId", friendHandler.DeleteFriend)

	// Rooms (방)
	rooms := authed.Group("/rooms")
	rooms.POST("", roomHandler.CreateRoom)
	rooms.GET("", roomHandler.ListRooms)
	rooms.GET("/:id", roomHandler.GetRoom)
	rooms.PATCH("/:id", roomHandler.UpdateRoom)
	rooms.PATCH("/:id/owner", roomHandler.RecommendOwner)
	rooms.DELETE("/:id", roomHandler.DeleteRoom)
	rooms.POST("/:id/exit", roomHandler.ExitRoom)

	// Memories (일정)
	memories := authed.Group("/memories")
	memories.POST("", memoryHandler.CreateMemory)
	memories.GET("", memoryHandler.ListMemories)
	memories.GET("/todos", memoryHandler.ListTodos)
	memories.GET("/:id", memoryHandler.GetMemory)
	memories.PATCH("/:id", memoryHandler.UpdateMemory)
	memories.DELETE("/:id", memoryHandler.DeleteMemory)
	memories.POST("/:id/attendance", memoryHandler.SetAttendance)
	memories.POST("/:id/share", memoryHandler.ShareMemory)
}
