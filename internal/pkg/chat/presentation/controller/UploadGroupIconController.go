package controller

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"wrenconnect/internal/pkg/chat/application/usecase"
	"wrenconnect/internal/pkg/chat/persistence/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UploadGroupIconController handles group icon upload (one controller per
// endpoint). Accepts either a JSON body with an icon data URI or a multipart
// file, which it converts to a data URI before storing.
type UploadGroupIconController struct {
	UC *usecase.UploadGroupIconUseCase
}

func NewUploadGroupIconController(pool *pgxpool.Pool) *UploadGroupIconController {
	repo := adapter.NewPgChatRepository(pool)
	return &UploadGroupIconController{UC: usecase.NewUploadGroupIconUseCase(repo)}
}

// uploadIconRequest is the JSON form of the upload.
type uploadIconRequest struct {
	Icon string `json:"icon" binding:"required"`
}

const maxIconBytes = 2 << 20 // 2MB

func (h *UploadGroupIconController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID := c.Param("groupId")
		if groupID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "groupId is required"})
			return
		}

		icon, err := readIcon(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := h.UC.Execute(ctx, usecase.UploadGroupIconInput{GroupID: groupID, Icon: icon}); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func readIcon(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("icon")
		if err != nil {
			return "", err
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxIconBytes))
		if err != nil {
			return "", err
		}

		mime := header.Header.Get("Content-Type")
		if mime == "" {
			mime = "application/octet-stream"
		}
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	var req uploadIconRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", err
	}
	return req.Icon, nil
}
