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

// MarkAnalystReadController flips is_read on counterpart messages (one
// controller per endpoint). Idempotent by construction.
type MarkAnalystReadController struct {
	UC *usecase.MarkReadUseCase
}

func NewMarkAnalystReadController(pool *pgxpool.Pool) *MarkAnalystReadController {
	repo := adapter.NewPgChatRepository(pool)
	return &MarkAnalystReadController{UC: usecase.NewMarkReadUseCase(repo)}
}

// markAnalystReadRequest is the DTO for the HTTP request body.
type markAnalystReadRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

func (h *MarkAnalystReadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req markAnalystReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.MarkReadInput{
			ConversationID: req.ChatID,
			ReaderID:       req.UserID,
		}); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
