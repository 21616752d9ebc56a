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

// DeleteGroupController handles group removal (one controller per endpoint).
type DeleteGroupController struct {
	UC *usecase.DeleteGroupUseCase
}

func NewDeleteGroupController(pool *pgxpool.Pool) *DeleteGroupController {
	repo := adapter.NewPgChatRepository(pool)
	return &DeleteGroupController{UC: usecase.NewDeleteGroupUseCase(repo)}
}

func (h *DeleteGroupController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Param("groupId")
		if groupID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "groupId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.DeleteGroupInput{GroupID: groupID}); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
