package http

import (
	cacheport "wrenconnect/internal/infrastructure/cache/port"
	qport "wrenconnect/internal/infrastructure/queue/port"
	"wrenconnect/internal/infrastructure/realtime"
	"wrenconnect/internal/pkg/chat/presentation/controller"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes. Paths are frozen for deployed clients.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, client qport.Client, router *realtime.Router, cache cacheport.Cache) {
	accountsCtl := controller.NewListAccountsController(pool, cache)
	createGroupCtl := controller.NewCreateGroupController(pool)
	listGroupsCtl := controller.NewListGroupsController(pool)
	groupMsgsCtl := controller.NewGroupMessagesController(pool)
	saveGroupMsgCtl := controller.NewSaveGroupMessageController(client)
	uploadIconCtl := controller.NewUploadGroupIconController(pool)
	deleteGroupCtl := controller.NewDeleteGroupController(pool)
	initAnalystCtl := controller.NewInitAnalystChatController(pool)
	listAnalystCtl := controller.NewListAnalystChatsController(pool)
	analystMsgsCtl := controller.NewAnalystMessagesController(pool)
	sendAnalystCtl := controller.NewSendAnalystMessageController(pool)
	markReadCtl := controller.NewMarkAnalystReadController(pool)
	closeChatCtl := controller.NewCloseAnalystChatController(pool)
	socketCtl := controller.NewChatSocketController(pool, router, cache)

	// Account directory, with live presence.
	g.GET("/auth/user", accountsCtl.Handle())

	// Group surface.
	g.GET("/chat/groups", listGroupsCtl.Handle())
	g.POST("/chat/groups", createGroupCtl.Handle())
	g.POST("/chat/initgroup", createGroupCtl.Handle())
	g.GET("/chat/getgroup/messages", groupMsgsCtl.Handle())
	g.POST("/chat/savemessage", saveGroupMsgCtl.Handle())
	g.POST("/chat/uploadGroupIcon/:groupId", uploadIconCtl.Handle())
	g.DELETE("/chat/groups/:groupId", deleteGroupCtl.Handle())

	// Analyst surface.
	g.POST("/analyst/initialize", initAnalystCtl.Handle())
	g.GET("/analyst/chats", listAnalystCtl.Handle())
	g.GET("/analyst/messages", analystMsgsCtl.Handle())
	g.POST("/analyst/message", sendAnalystCtl.Handle())
	g.POST("/analyst/read", markReadCtl.Handle())
	g.PUT("/analyst/close/:chatId", closeChatCtl.Handle())

	// Realtime push channel.
	g.GET("/chat/ws", socketCtl.Handle())
}
