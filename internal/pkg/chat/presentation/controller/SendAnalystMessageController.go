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

// SendAnalystMessageController handles the analyst message endpoint (one
// controller per endpoint). Unlike the group path this one persists
// synchronously and returns the stored message, server id and timestamp
// included, so the client can replace its provisional copy.
type SendAnalystMessageController struct {
	UC *usecase.AppendMessageUseCase
}

func NewSendAnalystMessageController(pool *pgxpool.Pool) *SendAnalystMessageController {
	repo := adapter.NewPgChatRepository(pool)
	return &SendAnalystMessageController{UC: usecase.NewAppendMessageUseCase(repo)}
}

// sendAnalystMessageRequest is the DTO for the HTTP request body.
type sendAnalystMessageRequest struct {
	ChatID      string            `json:"chatId" binding:"required"`
	SenderID    string            `json:"senderId" binding:"required"`
	SenderName  string            `json:"senderName"`
	MessageText string            `json:"messageText"`
	Attachment  []chat.Attachment `json:"attachment"`
}

func (h *SendAnalystMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendAnalystMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msg, err := h.UC.Execute(ctx, usecase.AppendMessageInput{
			ConversationID: req.ChatID,
			SenderID:       req.SenderID,
			SenderName:     req.SenderName,
			Content:        req.MessageText,
			Attachments:    req.Attachment,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, msg)
	}
}
