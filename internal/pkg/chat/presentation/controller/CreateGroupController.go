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

// CreateGroupController handles group creation (one controller per endpoint).
type CreateGroupController struct {
	UC *usecase.CreateGroupUseCase
}

func NewCreateGroupController(pool *pgxpool.Pool) *CreateGroupController {
	repo := adapter.NewPgChatRepository(pool)
	accounts := adapter.NewPgAccountRepository(pool)
	return &CreateGroupController{UC: usecase.NewCreateGroupUseCase(repo, accounts)}
}

// createGroupRequest is the DTO for the HTTP request body.
type createGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	Icon      string   `json:"icon"`
	CreatedBy string   `json:"createdBy" binding:"required"`
	Members   []string `json:"members"`
}

func (h *CreateGroupController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		conv, err := h.UC.Execute(ctx, usecase.CreateGroupInput{
			Name:      req.Name,
			Icon:      req.Icon,
			CreatedBy: req.CreatedBy,
			MemberIDs: req.Members,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"groupId": conv.ID, "group": conv})
	}
}
