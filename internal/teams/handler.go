package teams

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/convert"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/internal/uploads"
	"github.com/pennine-megagames/backend/pkg/response"
	"github.com/pennine-megagames/backend/pkg/storage"
)

// Handler handles team HTTP endpoints.
type Handler struct {
	repo      *Repository
	decider   *authz.Decider
	blobs     convert.BlobStore
	converter *convert.Attachments
	logger    *zap.Logger
}

// NewHandler creates a teams handler.
func NewHandler(repo *Repository, decider *authz.Decider, blobs convert.BlobStore, converter *convert.Attachments, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, decider: decider, blobs: blobs, converter: converter, logger: logger}
}

func (h *Handler) gate(c *gin.Context, action authz.Action) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	actor := middleware.OrganiserID(c)
	if !h.decider.Can(c.Request.Context(), actor, action, authz.ResourceTeam, eventID) {
		response.AccessDenied(c)
		return uuid.Nil, false
	}
	return eventID, true
}

// load fetches the team and checks it belongs to the event in the path.
func (h *Handler) load(c *gin.Context, eventID uuid.UUID) (*models.Team, bool) {
	teamID, err := uuid.Parse(c.Param("teamID"))
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return nil, false
	}
	team, err := h.repo.GetByID(c.Request.Context(), teamID)
	if err != nil {
		response.Internal(c, "failed to load team")
		return nil, false
	}
	if team == nil || team.EventID != eventID {
		response.NotFound(c, "team not found")
		return nil, false
	}
	return team, true
}

// List handles GET /events/:id/teams.
func (h *Handler) List(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load teams")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id/teams/:teamID.
func (h *Handler) Get(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	team, ok := h.load(c, eventID)
	if !ok {
		return
	}
	response.OK(c, team)
}

// NameRequest is the body for team create and rename.
type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /events/:id/teams.
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionCreate)
	if !ok {
		return
	}
	var body NameRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	team := &models.Team{EventID: eventID, Name: body.Name}
	if err := h.repo.Create(c.Request.Context(), team); err != nil {
		response.Conflict(c, "a team with that name already exists for this event")
		return
	}
	response.Created(c, team)
}

// Update handles PUT /events/:id/teams/:teamID.
func (h *Handler) Update(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	team, ok := h.load(c, eventID)
	if !ok {
		return
	}
	var body NameRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	if err := h.repo.UpdateName(c.Request.Context(), team.ID, body.Name); err != nil {
		response.Conflict(c, "a team with that name already exists for this event")
		return
	}
	team.Name = body.Name
	response.OK(c, team)
}

// Delete handles DELETE /events/:id/teams/:teamID. Roles cascade with the team.
func (h *Handler) Delete(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionDestroy)
	if !ok {
		return
	}
	team, ok := h.load(c, eventID)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), team.ID); err != nil {
		response.Internal(c, "failed to delete team")
		return
	}
	response.NoContent(c)
}

// UploadImage handles POST /events/:id/teams/:teamID/image.
func (h *Handler) UploadImage(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	team, ok := h.load(c, eventID)
	if !ok {
		return
	}
	file, err := uploads.ReadImage(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	att, ok := h.store(c, eventID, "team-image", file, team.Image)
	if !ok {
		return
	}
	if err := h.repo.SetImage(c.Request.Context(), team.ID, att); err != nil {
		response.Internal(c, "failed to save team image")
		return
	}
	team.Image = att
	response.OK(c, team)
}

// UploadBrief handles POST /events/:id/teams/:teamID/brief.
func (h *Handler) UploadBrief(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	team, ok := h.load(c, eventID)
	if !ok {
		return
	}
	file, err := uploads.ReadBrief(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	att, ok := h.store(c, eventID, "team-brief", file, team.Brief)
	if !ok {
		return
	}
	if err := h.repo.SetBrief(c.Request.Context(), team.ID, att); err != nil {
		response.Internal(c, "failed to save team brief")
		return
	}
	team.Brief = att
	response.OK(c, team)
}

// ConvertBrief handles POST /events/:id/teams/:teamID/brief/convert.
// Converting an already-PDF brief is a no-op.
func (h *Handler) ConvertBrief(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	team, ok := h.load(c, eventID)
	if !ok {
		return
	}
	if !team.Brief.Attached() {
		response.BadRequest(c, "team has no brief to convert")
		return
	}
	newKey := storage.DocumentKey(eventID.String(), "team-brief", "brief.pdf")
	att, changed, err := h.converter.ToPDF(c.Request.Context(), team.Brief, newKey)
	if err != nil {
		h.logger.Error("team brief conversion failed",
			zap.String("team_id", team.ID.String()), zap.Error(err))
		response.Internal(c, "conversion failed; the original brief is unchanged")
		return
	}
	if changed {
		if err := h.repo.SetBrief(c.Request.Context(), team.ID, att); err != nil {
			response.Internal(c, "failed to save converted brief")
			return
		}
	}
	team.Brief = att
	response.OK(c, team)
}

// store uploads the file and removes the attachment it replaces.
func (h *Handler) store(c *gin.Context, eventID uuid.UUID, kind string, file *uploads.File, old models.Attachment) (models.Attachment, bool) {
	ctx := c.Request.Context()
	key := storage.DocumentKey(eventID.String(), kind, file.Filename)
	if _, err := h.blobs.Put(ctx, key, file.Data, file.ContentType); err != nil {
		h.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to store file")
		return models.Attachment{}, false
	}
	if old.Attached() {
		if err := h.blobs.Delete(ctx, old.Key); err != nil {
			h.logger.Warn("stale blob not deleted", zap.String("key", old.Key), zap.Error(err))
		}
	}
	return models.Attachment{Key: key, Filename: file.Filename, ContentType: file.ContentType}, true
}
