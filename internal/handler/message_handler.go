package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/participium/participium-api/internal/models"
	"github.com/participium/participium-api/internal/service"
	appErrors "github.com/participium/participium-api/pkg/errors"
	"github.com/participium/participium-api/pkg/response"
)

// MessageHandler wires HTTP endpoints to the report chat service.
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler creates a new handler.
func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// List godoc
// @Summary List report messages
// @Description List a report conversation; the caller must participate in the scope
// @Tags Messages
// @Produce json
// @Param id path string true "Report ID"
// @Param scope query string true "Conversation scope (INTERNAL or EXTERNAL)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	scope := models.MessageScope(c.Query("scope"))
	messages, err := h.service.List(c.Request.Context(), actor, c.Param("id"), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Send godoc
// @Summary Send report message
// @Description Post a message into a report conversation the caller participates in
// @Tags Messages
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body object true "Message payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Scope models.MessageScope `json:"scope" binding:"required"`
		Body  string              `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	message, err := h.service.Send(c.Request.Context(), actor, c.Param("id"), payload.Scope, payload.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}
