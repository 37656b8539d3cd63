package handler

import (
	"net/http"

	"scholarline/internal/services"
	"scholarline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// Resolve finds or creates the conversation for the caller. An applicant
// may omit counterparty_id and gets the default staff member.
func (h *ConversationHandler) Resolve(c *gin.Context) {
	var req httpdto.ResolveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	counterpartyID := uuid.Nil
	if req.CounterpartyID != "" {
		id, err := parseUUID(req.CounterpartyID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid counterparty_id", "INVALID_REQUEST"))
			return
		}
		counterpartyID = id
	}

	explicitID := uuid.Nil
	if req.ConversationID != "" {
		id, err := parseUUID(req.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation_id", "INVALID_REQUEST"))
			return
		}
		explicitID = id
	}

	conv, err := h.service.Resolve(c.Request.Context(), identity, counterpartyID, explicitID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(toConversationDTO(conv)))
}

func (h *ConversationHandler) List(c *gin.Context) {
	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	convs, err := h.service.List(c.Request.Context(), identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := httpdto.ListConversationsResponse{Conversations: make([]httpdto.ConversationDTO, 0, len(convs))}
	for _, conv := range convs {
		resp.Conversations = append(resp.Conversations, toConversationDTO(conv))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
