package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	queueport "wrenconnect/internal/infrastructure/queue/port"
	"wrenconnect/internal/pkg/chat/application/task"
	chat "wrenconnect/internal/pkg/chat/domain"

	"github.com/gin-gonic/gin"
)

// SaveGroupMessageController handles the group message persist endpoint (one
// controller per endpoint). Durability goes through the queue: the handler
// acknowledges as soon as the task is enqueued, the worker appends to the
// log. Peers have already received the message over the push channel.
type SaveGroupMessageController struct {
	Q queueport.Client
}

func NewSaveGroupMessageController(client queueport.Client) *SaveGroupMessageController {
	return &SaveGroupMessageController{Q: client}
}

// saveGroupMessageRequest is the DTO for the HTTP request body.
type saveGroupMessageRequest struct {
	GroupID     string            `json:"groupId" binding:"required"`
	SenderID    string            `json:"senderId" binding:"required"`
	SenderName  string            `json:"senderName"`
	MessageText string            `json:"messageText"`
	Attachment  []chat.Attachment `json:"attachment"`
}

func (h *SaveGroupMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req saveGroupMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.MessageText == "" && len(req.Attachment) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageText or attachment is required"})
			return
		}

		payload := task.PersistGroupMessageTaskPayload{
			GroupID:     req.GroupID,
			SenderID:    req.SenderID,
			SenderName:  req.SenderName,
			Content:     req.MessageText,
			Attachments: req.Attachment,
		}
		b, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode task payload"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		opts := queueport.EnqueueOption{Queue: "chat", MaxRetry: 20}
		if _, err := h.Q.Enqueue(ctx, queueport.Task{Type: task.PersistGroupMessageTaskType, Payload: b}, opts); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to enqueue message"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
