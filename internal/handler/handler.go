package handler

import (
	"errors"
	"net/http"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/transport/httpdto"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

// writeServiceError maps sentinel errors onto HTTP statuses; anything
// unrecognized falls back to a generic 400.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scholarline_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, scholarline_errors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN"))
	case errors.Is(err, scholarline_errors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse(err.Error(), "UNAUTHORIZED"))
	case errors.Is(err, scholarline_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, scholarline_errors.ErrNoStaffAvailable):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "NO_STAFF_AVAILABLE"))
	case errors.Is(err, scholarline_errors.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, httpdto.NewErrorResponse(err.Error(), "UPLOAD_FAILED"))
	default:
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func toConversationDTO(conv domain.Conversation) httpdto.ConversationDTO {
	dto := httpdto.ConversationDTO{
		ID:          conv.ID.String(),
		StaffID:     conv.StaffID.String(),
		ApplicantID: conv.ApplicantID.String(),
		CreatedAt:   formatTime(conv.CreatedAt),
	}
	if !conv.LastMessageAt.IsZero() {
		dto.LastMessageAt = formatTime(conv.LastMessageAt)
	}
	return dto
}

func toMessageDTO(msg domain.Message) httpdto.MessageDTO {
	dto := httpdto.MessageDTO{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		RecipientID:    msg.RecipientID.String(),
		Content:        msg.Body,
		IsDeleted:      msg.IsDeleted,
		EditedAt:       formatTimePtr(msg.EditedAt),
		ReadAt:         formatTimePtr(msg.ReadAt),
		CreatedAt:      formatTime(msg.CreatedAt),
	}
	for _, a := range msg.Attachments {
		dto.Attachments = append(dto.Attachments, httpdto.AttachmentDTO{
			ID:       a.ID.String(),
			FileURL:  a.FileURL,
			FileName: a.FileName,
		})
	}
	return dto
}
