package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wrenconnect/internal/pkg/chat/application/usecase"
	chat "wrenconnect/internal/pkg/chat/domain"
	"wrenconnect/internal/pkg/chat/persistence/repository/adapter"
	repository "wrenconnect/internal/pkg/chat/persistence/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalystMessagesController returns an analyst chat with its embedded
// message log (one controller per endpoint).
type AnalystMessagesController struct {
	Repo repository.ChatRepository
	UC   *usecase.FetchMessagesUseCase
}

func NewAnalystMessagesController(pool *pgxpool.Pool) *AnalystMessagesController {
	repo := adapter.NewPgChatRepository(pool)
	return &AnalystMessagesController{
		Repo: repo,
		UC:   usecase.NewFetchMessagesUseCase(repo),
	}
}

func (h *AnalystMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Query("chatId")
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.Repo.GetConversation(ctx, chatID)
		if err != nil {
			if errors.Is(err, chat.ErrNotFound) {
				respondError(c, err)
			} else {
				respondError(c, usecase.ErrPersistence)
			}
			return
		}

		msgs, err := h.UC.Execute(ctx, usecase.FetchMessagesInput{ConversationID: chatID})
		if err != nil {
			respondError(c, err)
			return
		}
		conv.Messages = msgs

		c.JSON(http.StatusOK, conv)
	}
}
