package controller

import (
	"context"
	"net/http"
	"time"

	"wrenconnect/internal/pkg/chat/application/usecase"
	chat "wrenconnect/internal/pkg/chat/domain"
	"wrenconnect/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListAnalystChatsController handles analyst chat listings (one controller
// per endpoint). Both sides use it: users pass userId, analysts pass
// analystId. Listings embed the message log so unread counts render without
// a second round trip.
type ListAnalystChatsController struct {
	UC *usecase.ListChatsUseCase
}

func NewListAnalystChatsController(pool *pgxpool.Pool) *ListAnalystChatsController {
	repo := adapter.NewPgChatRepository(pool)
	return &ListAnalystChatsController{UC: usecase.NewListChatsUseCase(repo)}
}

func (h *ListAnalystChatsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.Query("userId")
		if accountID == "" {
			accountID = c.Query("analystId")
		}
		if accountID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId or analystId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		chats, err := h.UC.Execute(ctx, usecase.ListChatsInput{
			AccountID: accountID,
			Kind:      chat.KindAnalyst,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, chats)
	}
}
