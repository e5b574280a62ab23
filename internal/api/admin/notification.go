package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openctf/arena/internal/database"
	"github.com/openctf/arena/internal/database/models"
	"github.com/openctf/arena/internal/pubsub"
	"github.com/openctf/arena/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type notificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Pinned  bool   `json:"pinned"`
}

func (h *Handler) createNotification(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	n := models.Notification{
		ID:      uuid.NewString(),
		Title:   req.Title,
		Message: req.Message,
		Pinned:  req.Pinned,
	}
	if err := database.CreateNotification(h.db, &n); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	h.broker.Publish(pubsub.TopicNotifications, pubsub.Event{
		Type:    "notification:created",
		Payload: n,
	})
	zap.S().Infof("admin published notification %s", n.ID)
	util.Success(c, n, "Notification created")
}

func (h *Handler) updateNotification(c *gin.Context) {
	n, err := database.GetNotificationByID(h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "notification not found")
		} else {
			util.Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	n.Title = req.Title
	n.Message = req.Message
	n.Pinned = req.Pinned
	if err := database.UpdateNotification(h.db, n); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	h.broker.Publish(pubsub.TopicNotifications, pubsub.Event{
		Type:    "notification:updated",
		Payload: n,
	})
	util.Success(c, n, "Notification updated")
}

func (h *Handler) deleteNotification(c *gin.Context) {
	id := c.Param("id")
	if err := database.DeleteNotification(h.db, id); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}

	h.broker.Publish(pubsub.TopicNotifications, pubsub.Event{
		Type:    "notification:deleted",
		Payload: gin.H{"id": id},
	})
	zap.S().Warnf("admin deleted notification %s", id)
	util.Success(c, nil, "Notification deleted")
}
