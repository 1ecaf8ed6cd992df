package memberships

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/mailer"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/pkg/response"
	"github.com/pennine-megagames/backend/pkg/utils"
)

// MembershipStore is the persistence surface the handler needs. Implemented
// by Repository against PostgreSQL.
type MembershipStore interface {
	Create(ctx context.Context, m *models.Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	Get(ctx context.Context, organiserID, eventID uuid.UUID) (*models.Membership, error)
	Update(ctx context.Context, id uuid.UUID, readOnly bool, description string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]MemberRow, error)
}

// OrganiserStore looks up organiser accounts and provisions new ones.
// Implemented by auth.Repository.
type OrganiserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Organiser, error)
	Create(ctx context.Context, email, passwordHash, name string) (*models.Organiser, error)
}

// Handler handles event organiser membership endpoints.
type Handler struct {
	repo       MembershipStore
	organisers OrganiserStore
	decider    *authz.Decider
	sender     mailer.Sender
	publicURL  string
	logger     *zap.Logger
}

// NewHandler creates a memberships handler.
func NewHandler(repo MembershipStore, organisers OrganiserStore, decider *authz.Decider, sender mailer.Sender, publicURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:       repo,
		organisers: organisers,
		decider:    decider,
		sender:     sender,
		publicURL:  publicURL,
		logger:     logger,
	}
}

// List handles GET /events/:id/organisers.
func (h *Handler) List(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := middleware.OrganiserID(c)
	if !h.decider.Can(c.Request.Context(), actor, authz.ActionRead, authz.ResourceMembership, eventID) {
		response.AccessDenied(c)
		return
	}
	rows, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load organisers")
		return
	}
	response.OK(c, rows)
}

// CreateRequest is the body for POST /events/:id/organisers.
type CreateRequest struct {
	Email       string `json:"email" binding:"required,email"`
	ReadOnly    bool   `json:"read_only"`
	Description string `json:"description"`
}

// Create handles POST /events/:id/organisers. An unknown email gets a fresh
// organiser account with a random password, delivered by email.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	actor := middleware.OrganiserID(c)
	ctx := c.Request.Context()
	if !h.decider.Can(ctx, actor, authz.ActionCreate, authz.ResourceMembership, eventID) {
		response.AccessDenied(c)
		return
	}
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "a valid email is required")
		return
	}

	event, err := h.decider.Event(ctx, eventID)
	if err != nil || event == nil {
		response.NotFound(c, "event not found")
		return
	}

	organiser, err := h.organisers.GetByEmail(ctx, body.Email)
	if err != nil {
		response.Internal(c, "failed to look up organiser")
		return
	}
	if organiser == nil {
		organiser, err = h.createAccount(c, event, body.Email)
		if err != nil {
			response.Internal(c, "failed to create organiser account")
			return
		}
	}

	if existing, err := h.repo.Get(ctx, organiser.ID, eventID); err != nil {
		response.Internal(c, "failed to check membership")
		return
	} else if existing != nil {
		response.Conflict(c, "organiser already assigned to event")
		return
	}

	m := &models.Membership{
		OrganiserID: organiser.ID,
		EventID:     eventID,
		ReadOnly:    body.ReadOnly,
		Description: body.Description,
	}
	if err := h.repo.Create(ctx, m); err != nil {
		response.Internal(c, "failed to add organiser to event")
		return
	}
	response.Created(c, MemberRow{Membership: *m, Organiser: organiser.ToPublic()})
}

// createAccount provisions an organiser account for an email that has no
// registration yet and sends them their generated password.
func (h *Handler) createAccount(c *gin.Context, event *models.Event, email string) (*models.Organiser, error) {
	password, err := utils.RandomPassword(12)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	organiser, err := h.organisers.Create(c.Request.Context(), email, hash, "Organiser")
	if err != nil {
		return nil, err
	}

	body, err := mailer.AccountBody(organiser, event, password, h.publicURL)
	if err == nil {
		err = h.sender.Send(organiser.Email, mailer.AccountSubject, body)
	}
	if err != nil {
		// The account exists either way; the organiser can use password reset.
		h.logger.Error("account email failed",
			zap.String("email", organiser.Email), zap.Error(err))
	}
	return organiser, nil
}

// UpdateRequest is the body for PUT /events/:id/organisers/:memberID.
type UpdateRequest struct {
	ReadOnly    bool   `json:"read_only"`
	Description string `json:"description"`
}

// Update handles PUT /events/:id/organisers/:memberID.
func (h *Handler) Update(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	memberID, err := uuid.Parse(c.Param("memberID"))
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}
	actor := middleware.OrganiserID(c)
	ctx := c.Request.Context()
	if !h.decider.Can(ctx, actor, authz.ActionUpdate, authz.ResourceMembership, eventID) {
		response.AccessDenied(c)
		return
	}
	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid body")
		return
	}

	target, event, ok := h.loadTarget(c, memberID, eventID)
	if !ok {
		return
	}
	if !authz.CanEditMembership(actor, target, event) {
		response.AccessDenied(c)
		return
	}
	if err := h.repo.Update(ctx, memberID, body.ReadOnly, body.Description); err != nil {
		response.Internal(c, "failed to update membership")
		return
	}
	response.OK(c, gin.H{"message": "membership updated"})
}

// Delete handles DELETE /events/:id/organisers/:memberID.
func (h *Handler) Delete(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	memberID, err := uuid.Parse(c.Param("memberID"))
	if err != nil {
		response.BadRequest(c, "invalid membership id")
		return
	}
	actor := middleware.OrganiserID(c)
	ctx := c.Request.Context()
	if !h.decider.Can(ctx, actor, authz.ActionDestroy, authz.ResourceMembership, eventID) {
		response.AccessDenied(c)
		return
	}

	target, event, ok := h.loadTarget(c, memberID, eventID)
	if !ok {
		return
	}
	if !authz.CanRemoveMembership(actor, target, event) {
		response.AccessDenied(c)
		return
	}
	if err := h.repo.Delete(ctx, memberID); err != nil {
		response.Internal(c, "failed to remove organiser from event")
		return
	}
	response.NoContent(c)
}

func (h *Handler) loadTarget(c *gin.Context, memberID, eventID uuid.UUID) (*models.Membership, *models.Event, bool) {
	ctx := c.Request.Context()
	target, err := h.repo.GetByID(ctx, memberID)
	if err != nil {
		response.Internal(c, "failed to load membership")
		return nil, nil, false
	}
	if target == nil || target.EventID != eventID {
		response.NotFound(c, "membership not found")
		return nil, nil, false
	}
	event, err := h.decider.Event(ctx, eventID)
	if err != nil || event == nil {
		response.NotFound(c, "event not found")
		return nil, nil, false
	}
	return target, event, true
}
