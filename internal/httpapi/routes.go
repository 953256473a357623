package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nakliyo/messenger/internal/messaging"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, m *messaging.Messenger, db *gorm.DB) {
	router.GET("/healthz", handleHealth(db))

	api := router.Group("/api")
	api.POST("/conversations", handleFindOrCreateConversation(m))
	api.GET("/conversations", handleListConversations(m))
	api.GET("/conversations/:id/unread-count", handleUnreadCount(m))
	api.DELETE("/conversations/:id/participants/:userID", handleLeaveConversation(m))
	api.POST("/messages", handleSendMessage(m))
	api.GET("/messages", handleListMessages(m))
	api.POST("/messages/:id/read", handleMarkRead(m))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleFindOrCreateConversation(m *messaging.Messenger) gin.HandlerFunc {
	type request struct {
		UserA      string `json:"user_a"`
		UserB      string `json:"user_b"`
		ListingRef string `json:"listing_ref"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		conv, err := m.FindOrCreateConversation(c.Request.Context(), req.UserA, req.UserB, req.ListingRef)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation": toConversationView(conv)})
	}
}

func handleListConversations(m *messaging.Messenger) gin.HandlerFunc {
	return func(c *gin.Context) {
		convs, err := m.ListConversations(c.Request.Context(), c.Query("user_id"))
		if err != nil {
			writeError(c, err)
			return
		}

		views := make([]conversationView, len(convs))
		for i := range convs {
			views[i] = toConversationView(&convs[i])
		}
		c.JSON(http.StatusOK, gin.H{"conversations": views})
	}
}

func handleUnreadCount(m *messaging.Messenger) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := m.UnreadCount(c.Request.Context(), c.Param("id"), c.Query("user_id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func handleLeaveConversation(m *messaging.Messenger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := m.LeaveConversation(c.Request.Context(), c.Param("id"), c.Param("userID"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSendMessage(m *messaging.Messenger) gin.HandlerFunc {
	type request struct {
		SenderID     string                 `json:"sender_id"`
		RecipientID  string                 `json:"recipient_id"`
		Content      string                 `json:"content"`
		ListingRef   string                 `json:"listing_ref"`
		ImageURLs    []string               `json:"image_urls"`
		DocumentURLs []string               `json:"document_urls"`
		Metadata     map[string]interface{} `json:"metadata"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		res, err := m.SendOrStart(c.Request.Context(), messaging.SendOpts{
			SenderID:     req.SenderID,
			RecipientID:  req.RecipientID,
			Content:      req.Content,
			ListingRef:   req.ListingRef,
			ImageURLs:    req.ImageURLs,
			DocumentURLs: req.DocumentURLs,
			Metadata:     req.Metadata,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"conversation": toConversationView(res.Conversation),
			"message":      toMessageView(res.Message),
		})
	}
}

func handleListMessages(m *messaging.Messenger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		msgs, err := m.ListMessages(c.Request.Context(), c.Query("conversation_id"), limit)
		if err != nil {
			writeError(c, err)
			return
		}

		views := make([]messageView, len(msgs))
		for i := range msgs {
			views[i] = toMessageView(&msgs[i])
		}
		c.JSON(http.StatusOK, gin.H{"messages": views})
	}
}

func handleMarkRead(m *messaging.Messenger) gin.HandlerFunc {
	type request struct {
		ReaderID string `json:"reader_id"`
	}
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message ID"})
			return
		}
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		msg, err := m.MarkRead(c.Request.Context(), uint(id), req.ReaderID)
		if err != nil {
			writeError(c, err)
			return
		}
		if msg == nil {
			// Sender reading their own message: nothing changed.
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": toMessageView(msg)})
	}
}

// writeError maps the messaging error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, messaging.ErrAuthentication):
		status = http.StatusUnauthorized
	case errors.Is(err, messaging.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, messaging.ErrValidation):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
