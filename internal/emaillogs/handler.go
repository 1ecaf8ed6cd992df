package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/pkg/response"
)

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo    *Repository
	decider *authz.Decider
	logger  *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, decider *authz.Decider, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, decider: decider, logger: logger}
}

// List handles GET /events/:id/emails.
func (h *Handler) List(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := middleware.OrganiserID(c)
	if !h.decider.Can(c.Request.Context(), actor, authz.ActionRead, authz.ResourceSignup, eventID) {
		response.AccessDenied(c)
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, list)
}
