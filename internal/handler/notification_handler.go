package handler

import (
	"net/http"

	"scholarline/internal/domain"
	"scholarline/internal/feed"
	"scholarline/internal/services"
	"scholarline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	messages      *services.MessageService
	source        *services.FeedSource
}

func NewNotificationHandler(notifications *services.NotificationService, messages *services.MessageService, source *services.FeedSource) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, messages: messages, source: source}
}

// Create inserts a system-source notification. The route sits behind the
// staff guard; other product services call it with a staff token.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req httpdto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, err := parseUUID(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user_id", "INVALID_REQUEST"))
		return
	}

	in := services.SystemNotificationInput{
		UserID: userID,
		Title:  req.Title,
		Body:   req.Body,
		Link:   req.Link,
	}
	if req.ConversationID != "" {
		convID, err := parseUUID(req.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation_id", "INVALID_REQUEST"))
			return
		}
		in.ConversationID = &convID
	}

	row, err := h.notifications.CreateSystem(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toNotificationDTO(row)))
}

// Feed returns both sources merged newest-first for the caller.
func (h *NotificationHandler) Feed(c *gin.Context) {
	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	chat, err := h.source.ChatItems(c.Request.Context(), identity.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	system, err := h.source.SystemItems(c.Request.Context(), identity.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	merged, unread := feed.Merge(chat, system)

	resp := httpdto.FeedResponse{Items: make([]httpdto.FeedItemDTO, 0, len(merged)), Unread: unread}
	for _, it := range merged {
		resp.Items = append(resp.Items, toFeedItemDTO(it))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid notification id", "INVALID_REQUEST"))
		return
	}
	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), id, identity.UserID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"read": true}))
}

func (h *NotificationHandler) MarkReadMany(c *gin.Context) {
	var req httpdto.MarkNotificationsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := parseUUID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid notification id", "INVALID_REQUEST"))
			return
		}
		ids = append(ids, id)
	}

	if err := h.notifications.MarkReadMany(c.Request.Context(), ids, identity.UserID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"read": len(ids)}))
}

// UnreadCounts returns the per-counterparty unread map plus the badge
// total, served from the cache when it is warm.
func (h *NotificationHandler) UnreadCounts(c *gin.Context) {
	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	counts, err := h.messages.CachedUnreadCounts(c.Request.Context(), identity.UserID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := httpdto.UnreadCountsResponse{Counts: make(map[string]int, len(counts))}
	for id, n := range counts {
		resp.Counts[id.String()] = n
		resp.Badge += n
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func toNotificationDTO(n domain.Notification) httpdto.NotificationDTO {
	dto := httpdto.NotificationDTO{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		IsRead:    n.IsRead,
		CreatedAt: formatTime(n.CreatedAt),
	}
	if n.Link != nil {
		dto.Link = *n.Link
	}
	if n.ConversationID != nil {
		dto.ConversationID = n.ConversationID.String()
	}
	return dto
}

func toFeedItemDTO(it feed.Item) httpdto.FeedItemDTO {
	dto := httpdto.FeedItemDTO{
		ID:        it.ID.String(),
		Source:    string(it.Source),
		Title:     it.Title,
		Body:      it.Body,
		Link:      it.Link,
		Read:      it.Read,
		CreatedAt: formatTime(it.CreatedAt),
	}
	if it.ConversationID != uuid.Nil {
		dto.ConversationID = it.ConversationID.String()
	}
	return dto
}
