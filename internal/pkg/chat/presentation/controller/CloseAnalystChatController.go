package controller

import (
	"context"
	"net/http"
	"time"

	"wrenconnect/internal/pkg/chat/application/usecase"
	"wrenconnect/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CloseAnalystChatController transitions an analyst chat to closed (one
// controller per endpoint). Closed is terminal: further sends 409.
type CloseAnalystChatController struct {
	UC *usecase.CloseChatUseCase
}

func NewCloseAnalystChatController(pool *pgxpool.Pool) *CloseAnalystChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &CloseAnalystChatController{UC: usecase.NewCloseChatUseCase(repo)}
}

func (h *CloseAnalystChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Param("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.CloseChatInput{ChatID: chatID}); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
