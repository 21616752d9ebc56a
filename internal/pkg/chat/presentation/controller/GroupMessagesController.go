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

// GroupMessagesController handles fetching a group's message log (one
// controller per endpoint).
type GroupMessagesController struct {
	UC *usecase.FetchMessagesUseCase
}

func NewGroupMessagesController(pool *pgxpool.Pool) *GroupMessagesController {
	repo := adapter.NewPgChatRepository(pool)
	return &GroupMessagesController{UC: usecase.NewFetchMessagesUseCase(repo)}
}

func (h *GroupMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Query("groupId")
		if groupID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "groupId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, usecase.FetchMessagesInput{ConversationID: groupID})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}
