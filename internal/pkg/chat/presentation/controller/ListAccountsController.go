package controller

import (
	"context"
	"net/http"
	"time"

	cacheport "wrenconnect/internal/infrastructure/cache/port"
	"wrenconnect/internal/pkg/chat/application/usecase"
	"wrenconnect/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListAccountsController handles the account directory endpoint (one
// controller per endpoint). Presence comes from the cache, not the DB.
type ListAccountsController struct {
	UC *usecase.ListAccountsUseCase
}

func NewListAccountsController(pool *pgxpool.Pool, cache cacheport.Cache) *ListAccountsController {
	repo := adapter.NewPgAccountRepository(pool)
	return &ListAccountsController{UC: usecase.NewListAccountsUseCase(repo, cache)}
}

func (h *ListAccountsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		in := usecase.ListAccountsInput{
			Role:    c.Query("role"),
			Exclude: c.Query("exclude"),
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		accounts, err := h.UC.Execute(ctx, in)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"list": accounts})
	}
}
