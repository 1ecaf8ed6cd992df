package roles

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/convert"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/internal/teams"
	"github.com/pennine-megagames/backend/internal/uploads"
	"github.com/pennine-megagames/backend/pkg/response"
	"github.com/pennine-megagames/backend/pkg/storage"
)

// Handler handles role HTTP endpoints.
type Handler struct {
	repo      *Repository
	teams     *teams.Repository
	decider   *authz.Decider
	blobs     convert.BlobStore
	converter *convert.Attachments
	logger    *zap.Logger
}

// NewHandler creates a roles handler.
func NewHandler(repo *Repository, teamRepo *teams.Repository, decider *authz.Decider, blobs convert.BlobStore, converter *convert.Attachments, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, teams: teamRepo, decider: decider, blobs: blobs, converter: converter, logger: logger}
}

func (h *Handler) gate(c *gin.Context, action authz.Action) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	actor := middleware.OrganiserID(c)
	if !h.decider.Can(c.Request.Context(), actor, action, authz.ResourceRole, eventID) {
		response.AccessDenied(c)
		return uuid.Nil, false
	}
	return eventID, true
}

func (h *Handler) load(c *gin.Context, eventID uuid.UUID) (*models.Role, bool) {
	roleID, err := uuid.Parse(c.Param("roleID"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return nil, false
	}
	role, err := h.repo.GetByID(c.Request.Context(), roleID)
	if err != nil {
		response.Internal(c, "failed to load role")
		return nil, false
	}
	if role == nil || role.EventID != eventID {
		response.NotFound(c, "role not found")
		return nil, false
	}
	return role, true
}

// ListByTeam handles GET /events/:id/teams/:teamID/roles.
func (h *Handler) ListByTeam(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	teamID, err := uuid.Parse(c.Param("teamID"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return
	}
	team, err := h.teams.GetByID(c.Request.Context(), teamID)
	if err != nil {
		response.Internal(c, "failed to load team")
		return
	}
	if team == nil || team.EventID != eventID {
		response.NotFound(c, "team not found")
		return
	}
	list, err := h.repo.ListByTeam(c.Request.Context(), teamID)
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id/roles/:roleID.
func (h *Handler) Get(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	role, ok := h.load(c, eventID)
	if !ok {
		return
	}
	response.OK(c, role)
}

// CreateRequest is the body for POST /events/:id/roles.
type CreateRequest struct {
	TeamID uuid.UUID `json:"team_id" binding:"required"`
	Name   string    `json:"name" binding:"required"`
}

// Create handles POST /events/:id/roles. The team must belong to the same
// event; role names are unique within a team only.
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionCreate)
	if !ok {
		return
	}
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "team_id and name are required")
		return
	}
	team, err := h.teams.GetByID(c.Request.Context(), body.TeamID)
	if err != nil {
		response.Internal(c, "failed to load team")
		return
	}
	if team == nil || team.EventID != eventID {
		response.BadRequest(c, "team does not belong to this event")
		return
	}
	role := &models.Role{TeamID: team.ID, EventID: eventID, Name: body.Name}
	if err := h.repo.Create(c.Request.Context(), role); err != nil {
		response.Conflict(c, "a role with that name already exists in this team")
		return
	}
	response.Created(c, role)
}

// NameRequest is the body for role rename.
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Update handles PUT /events/:id/roles/:roleID.
func (h *Handler) Update(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	role, ok := h.load(c, eventID)
	if !ok {
		return
	}
	var body NameRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	if err := h.repo.UpdateName(c.Request.Context(), role.ID, body.Name); err != nil {
		response.Conflict(c, "a role with that name already exists in this team")
		return
	}
	role.Name = body.Name
	response.OK(c, role)
}

// Delete handles DELETE /events/:id/roles/:roleID. Signups referencing the
// role keep their team and lose the role.
func (h *Handler) Delete(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionDestroy)
	if !ok {
		return
	}
	role, ok := h.load(c, eventID)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), role.ID); err != nil {
		response.Internal(c, "failed to delete role")
		return
	}
	response.NoContent(c)
}

// UploadBrief handles POST /events/:id/roles/:roleID/brief.
func (h *Handler) UploadBrief(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	role, ok := h.load(c, eventID)
	if !ok {
		return
	}
	file, err := uploads.ReadBrief(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	key := storage.DocumentKey(eventID.String(), "role-brief", file.Filename)
	if _, err := h.blobs.Put(ctx, key, file.Data, file.ContentType); err != nil {
		h.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to store file")
		return
	}
	if role.Brief.Attached() {
		if err := h.blobs.Delete(ctx, role.Brief.Key); err != nil {
			h.logger.Warn("stale blob not deleted", zap.String("key", role.Brief.Key), zap.Error(err))
		}
	}
	att := models.Attachment{Key: key, Filename: file.Filename, ContentType: file.ContentType}
	if err := h.repo.SetBrief(ctx, role.ID, att); err != nil {
		response.Internal(c, "failed to save role brief")
		return
	}
	role.Brief = att
	response.OK(c, role)
}

// ConvertBrief handles POST /events/:id/roles/:roleID/brief/convert.
// Converting an already-PDF brief is a no-op.
func (h *Handler) ConvertBrief(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	role, ok := h.load(c, eventID)
	if !ok {
		return
	}
	if !role.Brief.Attached() {
		response.BadRequest(c, "role has no brief to convert")
		return
	}
	newKey := storage.DocumentKey(eventID.String(), "role-brief", "brief.pdf")
	att, changed, err := h.converter.ToPDF(c.Request.Context(), role.Brief, newKey)
	if err != nil {
		h.logger.Error("role brief conversion failed",
			zap.String("role_id", role.ID.String()), zap.Error(err))
		response.Internal(c, "conversion failed; the original brief is unchanged")
		return
	}
	if changed {
		if err := h.repo.SetBrief(c.Request.Context(), role.ID, att); err != nil {
			response.Internal(c, "failed to save converted brief")
			return
		}
	}
	role.Brief = att
	response.OK(c, role)
}
