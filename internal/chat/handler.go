package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/llm"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the chat service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/session", h.openSession)
	rg.POST("/documents/:id/messages", h.sendMessage)
}

func (h *Handler) openSession(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := strings.TrimSpace(c.Param("id"))

	session, err := h.Svc.Open(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrGenerationInFlight):
			respond.Error(c, http.StatusConflict, "generation_in_flight", "summary generation already running", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open session", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toSessionResponse(session))
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := strings.TrimSpace(c.Param("id"))

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	exchange, err := h.Svc.SendMessage(c.Request.Context(), userID, documentID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrGenerationInFlight):
			respond.Error(c, http.StatusConflict, "generation_in_flight", "a reply is already being generated", nil)
		case errors.Is(err, llm.ErrGeneration):
			respond.Error(c, http.StatusBadGateway, "generation_failed", "failed to generate a reply", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to send message", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"userMessage": toMessageResponse(exchange.UserTurn),
		"reply":       toMessageResponse(exchange.AssistantTurn),
	})
}
