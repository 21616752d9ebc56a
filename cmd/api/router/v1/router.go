package v1

import (
	cacheport "wrenconnect/internal/infrastructure/cache/port"
	qport "wrenconnect/internal/infrastructure/queue/port"
	"wrenconnect/internal/infrastructure/realtime"
	httpHandler "wrenconnect/internal/pkg/chat/presentation/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, client qport.Client, router *realtime.Router, cache cacheport.Cache) {
	v1 := r.Group("/api/v1")
	// Pass the shared infrastructure down to the HTTP layer
	httpHandler.RegisterRoutes(v1, pool, client, router, cache)
}
