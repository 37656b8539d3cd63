package handler

import (
	"net/http"

	"scholarline/internal/domain"
	"scholarline/internal/services"
	"scholarline/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploads       *services.UploadService
	conversations *services.ConversationService
}

func NewUploadHandler(uploads *services.UploadService, conversations *services.ConversationService) *UploadHandler {
	return &UploadHandler{uploads: uploads, conversations: conversations}
}

// Upload stores a multipart file under the conversation's blob prefix and
// returns the attachment reference for the subsequent send.
func (h *UploadHandler) Upload(c *gin.Context) {
	conversationID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}
	identity, ok := services.IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	conv, err := h.conversations.GetByID(c.Request.Context(), conversationID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !conv.HasParty(identity.UserID) && identity.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("permission denied", "FORBIDDEN"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("missing file", "INVALID_REQUEST"))
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable file", "INVALID_REQUEST"))
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(c.Request.Context(), conversationID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UploadResponse{
		StorageKey: result.StorageKey,
		FileURL:    result.FileURL,
		FileName:   result.FileName,
	}))
}
