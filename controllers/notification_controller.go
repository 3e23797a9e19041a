package controllers

import (
	"net/http"
	"sort"

	"code-review-client/models"

	"github.com/gin-gonic/gin"
)

type notificationView struct {
	ID        int              `json:"id"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt models.Timestamp `json:"created_at"`
}

// GetNotifications lists the caller's notifications, newest first.
func (b *Backend) GetNotifications(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	b.mu.RLock()
	items := []notificationView{}
	unread := 0
	for _, n := range b.notifications {
		if n.UserID != uid {
			continue
		}
		if !n.IsRead {
			unread++
		}
		items = append(items, notificationView{
			ID:        n.ID,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: models.NewTimestamp(n.CreatedAt),
		})
	}
	b.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt.Time) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt.Time)
	})

	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"unread_count":  unread,
	})
}

// MarkNotificationRead flags one of the caller's notifications as read.
func (b *Backend) MarkNotificationRead(c *gin.Context) {
	uid, ok := getCurrentUserID(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	id, ok := paramID(c)
	if !ok {
		respondDetail(c, http.StatusNotFound, "Notification not found")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.notifications {
		if n.ID == id && n.UserID == uid {
			n.IsRead = true
			c.JSON(http.StatusOK, gin.H{"detail": "Notification marked as read"})
			return
		}
	}
	respondDetail(c, http.StatusNotFound, "Notification not found")
}

// GetTags lists every tag used so far.
func (b *Backend) GetTags(c *gin.Context) {
	b.mu.RLock()
	tags := make([]models.Tag, len(b.tags))
	copy(tags, b.tags)
	b.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
