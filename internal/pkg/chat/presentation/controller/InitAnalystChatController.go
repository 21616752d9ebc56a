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

// InitAnalystChatController handles idempotent analyst-chat initialization
// (one controller per endpoint). Repeated and concurrent requests for the
// same pair resolve to one chat id.
type InitAnalystChatController struct {
	UC *usecase.InitAnalystChatUseCase
}

func NewInitAnalystChatController(pool *pgxpool.Pool) *InitAnalystChatController {
	repo := adapter.NewPgChatRepository(pool)
	accounts := adapter.NewPgAccountRepository(pool)
	return &InitAnalystChatController{UC: usecase.NewInitAnalystChatUseCase(repo, accounts)}
}

// initAnalystChatRequest is the DTO for the HTTP request body.
type initAnalystChatRequest struct {
	UserID    string `json:"userId" binding:"required"`
	AnalystID string `json:"analystId" binding:"required"`
}

func (h *InitAnalystChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req initAnalystChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.InitAnalystChatInput{
			UserID:    req.UserID,
			AnalystID: req.AnalystID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"chatId": conv.ID, "chat": conv})
	}
}
