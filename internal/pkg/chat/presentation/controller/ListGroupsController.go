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

// ListGroupsController handles the group listing endpoint (one controller per
// endpoint). An empty userId lists every group, which is what the legacy
// client expects; it filters membership itself.
type ListGroupsController struct {
	UC *usecase.ListChatsUseCase
}

func NewListGroupsController(pool *pgxpool.Pool) *ListGroupsController {
	repo := adapter.NewPgChatRepository(pool)
	return &ListGroupsController{UC: usecase.NewListChatsUseCase(repo)}
}

func (h *ListGroupsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		groups, err := h.UC.Execute(ctx, usecase.ListChatsInput{
			AccountID: c.Query("userId"),
			Kind:      chat.KindGroup,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"groups": groups})
	}
}
