package events

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/castlist"
	"github.com/pennine-megagames/backend/internal/convert"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/internal/uploads"
	"github.com/pennine-megagames/backend/pkg/response"
	"github.com/pennine-megagames/backend/pkg/storage"
)

// Handler handles event HTTP endpoints.
type Handler struct {
	repo      *Repository
	decider   *authz.Decider
	blobs     convert.BlobStore
	converter *convert.Attachments
	loader    *castlist.Loader
	castlists *castlist.Renderer
	logger    *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, decider *authz.Decider, blobs convert.BlobStore, converter *convert.Attachments, loader *castlist.Loader, castlists *castlist.Renderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:      repo,
		decider:   decider,
		blobs:     blobs,
		converter: converter,
		loader:    loader,
		castlists: castlists,
		logger:    logger,
	}
}

func (h *Handler) gate(c *gin.Context, action authz.Action) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	actor := middleware.OrganiserID(c)
	if !h.decider.Can(c.Request.Context(), actor, action, authz.ResourceEvent, eventID) {
		response.AccessDenied(c)
		return uuid.Nil, false
	}
	return eventID, true
}

func (h *Handler) loadEvent(c *gin.Context, eventID uuid.UUID) (*models.Event, bool) {
	event, err := h.repo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return nil, false
	}
	if event == nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	return event, true
}

// List handles GET /events: the events the actor owns or is a member of.
func (h *Handler) List(c *gin.Context) {
	actor := middleware.OrganiserID(c)
	list, err := h.repo.ListForOrganiser(c.Request.Context(), actor)
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	event, ok := h.loadEvent(c, eventID)
	if !ok {
		return
	}
	response.OK(c, event)
}

// EventRequest is the body for event create and update.
type EventRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date" binding:"required"`
	Location       string    `json:"location" binding:"required"`
	GoogleMapsLink string    `json:"google_maps_link"`
	AdditionalInfo string    `json:"additional_info"`
	Draft          bool      `json:"draft"`
}

// sanitizeMaps reduces the submitted maps embed to its bare URL, rejecting
// anything that is not a Google Maps iframe or URL.
func (h *Handler) sanitizeMaps(c *gin.Context, link string) (string, bool) {
	if link == "" {
		return "", true
	}
	clean, err := SanitizeMapsEmbed(link)
	if err != nil {
		response.UnprocessableEntity(c, []string{"google_maps_link must be a Google Maps embed"})
		return "", false
	}
	return clean, true
}

// Create handles POST /events. The creator becomes the owner and gets the
// non-removable owner membership.
func (h *Handler) Create(c *gin.Context) {
	actor := middleware.OrganiserID(c)
	if !h.decider.CanCreateEvent(actor) {
		response.AccessDenied(c)
		return
	}
	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name, date and location are required")
		return
	}
	mapsLink, ok := h.sanitizeMaps(c, body.GoogleMapsLink)
	if !ok {
		return
	}
	event := &models.Event{
		Name:           body.Name,
		Description:    body.Description,
		Date:           body.Date,
		Location:       body.Location,
		GoogleMapsLink: mapsLink,
		AdditionalInfo: body.AdditionalInfo,
		Draft:          body.Draft,
		OrganiserID:    actor,
	}
	if err := h.repo.Create(c.Request.Context(), event); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, event)
}

// Update handles PUT /events/:id.
func (h *Handler) Update(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	event, ok := h.loadEvent(c, eventID)
	if !ok {
		return
	}
	var body EventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name, date and location are required")
		return
	}
	mapsLink, ok := h.sanitizeMaps(c, body.GoogleMapsLink)
	if !ok {
		return
	}
	event.Name = body.Name
	event.Description = body.Description
	event.Date = body.Date
	event.Location = body.Location
	event.GoogleMapsLink = mapsLink
	event.AdditionalInfo = body.AdditionalInfo
	event.Draft = body.Draft
	if err := h.repo.Update(c.Request.Context(), event); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, event)
}

// Publish handles POST /events/:id/publish, clearing the draft flag so
// email dispatch becomes available.
func (h *Handler) Publish(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	if err := h.repo.SetDraft(c.Request.Context(), eventID, false); err != nil {
		response.Internal(c, "failed to publish event")
		return
	}
	response.OK(c, gin.H{"message": "event published"})
}

// Delete handles DELETE /events/:id. Teams, roles, signups, memberships and
// email logs cascade with the event.
func (h *Handler) Delete(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionDestroy)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), eventID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// UploadRulebook handles POST /events/:id/rulebook.
func (h *Handler) UploadRulebook(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	event, ok := h.loadEvent(c, eventID)
	if !ok {
		return
	}
	file, err := uploads.ReadBrief(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	key := storage.DocumentKey(eventID.String(), "rulebook", file.Filename)
	if _, err := h.blobs.Put(ctx, key, file.Data, file.ContentType); err != nil {
		h.logger.Error("rulebook upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to store file")
		return
	}
	if event.Rulebook.Attached() {
		if err := h.blobs.Delete(ctx, event.Rulebook.Key); err != nil {
			h.logger.Warn("stale blob not deleted", zap.String("key", event.Rulebook.Key), zap.Error(err))
		}
	}
	att := models.Attachment{Key: key, Filename: file.Filename, ContentType: file.ContentType}
	if err := h.repo.SetRulebook(ctx, eventID, att); err != nil {
		response.Internal(c, "failed to save rulebook")
		return
	}
	event.Rulebook = att
	response.OK(c, event)
}

// ConvertRulebook handles POST /events/:id/rulebook/convert. Converting an
// already-PDF rulebook is a no-op.
func (h *Handler) ConvertRulebook(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	event, ok := h.loadEvent(c, eventID)
	if !ok {
		return
	}
	if !event.Rulebook.Attached() {
		response.BadRequest(c, "event has no rulebook to convert")
		return
	}
	newKey := storage.DocumentKey(eventID.String(), "rulebook", "rulebook.pdf")
	att, changed, err := h.converter.ToPDF(c.Request.Context(), event.Rulebook, newKey)
	if err != nil {
		h.logger.Error("rulebook conversion failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "conversion failed; the original rulebook is unchanged")
		return
	}
	if changed {
		if err := h.repo.SetRulebook(c.Request.Context(), eventID, att); err != nil {
			response.Internal(c, "failed to save converted rulebook")
			return
		}
	}
	event.Rulebook = att
	response.OK(c, event)
}

// ListDocuments handles GET /events/:id/documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	docs, err := h.repo.ListDocuments(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load documents")
		return
	}
	response.OK(c, docs)
}

// AddDocument handles POST /events/:id/documents.
func (h *Handler) AddDocument(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	file, err := uploads.ReadBrief(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	key := storage.DocumentKey(eventID.String(), "document", file.Filename)
	if _, err := h.blobs.Put(ctx, key, file.Data, file.ContentType); err != nil {
		h.logger.Error("document upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to store file")
		return
	}
	doc := &models.EventDocument{
		EventID:    eventID,
		Attachment: models.Attachment{Key: key, Filename: file.Filename, ContentType: file.ContentType},
	}
	if err := h.repo.AddDocument(ctx, doc); err != nil {
		response.Internal(c, "failed to save document")
		return
	}
	response.Created(c, doc)
}

// DeleteDocument handles DELETE /events/:id/documents/:docID.
func (h *Handler) DeleteDocument(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	doc, ok := h.loadDocument(c, eventID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.repo.DeleteDocument(ctx, doc.ID); err != nil {
		response.Internal(c, "failed to delete document")
		return
	}
	if err := h.blobs.Delete(ctx, doc.Attachment.Key); err != nil {
		h.logger.Warn("stale blob not deleted", zap.String("key", doc.Attachment.Key), zap.Error(err))
	}
	response.NoContent(c)
}

// ConvertDocument handles POST /events/:id/documents/:docID/convert.
func (h *Handler) ConvertDocument(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	doc, ok := h.loadDocument(c, eventID)
	if !ok {
		return
	}
	newKey := storage.DocumentKey(eventID.String(), "document", "document.pdf")
	att, changed, err := h.converter.ToPDF(c.Request.Context(), doc.Attachment, newKey)
	if err != nil {
		h.logger.Error("document conversion failed", zap.String("document_id", doc.ID.String()), zap.Error(err))
		response.Internal(c, "conversion failed; the original document is unchanged")
		return
	}
	if changed {
		if err := h.repo.ReplaceDocument(c.Request.Context(), doc.ID, att); err != nil {
			response.Internal(c, "failed to save converted document")
			return
		}
	}
	doc.Attachment = att
	response.OK(c, doc)
}

func (h *Handler) loadDocument(c *gin.Context, eventID uuid.UUID) (*models.EventDocument, bool) {
	docID, err := uuid.Parse(c.Param("docID"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return nil, false
	}
	doc, err := h.repo.GetDocument(c.Request.Context(), docID)
	if err != nil {
		response.Internal(c, "failed to load document")
		return nil, false
	}
	if doc == nil || doc.EventID != eventID {
		response.NotFound(c, "document not found")
		return nil, false
	}
	return doc, true
}

// CastList handles GET /events/:id/castlist: the organiser cast list as a
// PDF download, with emails included.
func (h *Handler) CastList(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	event, ok := h.loadEvent(c, eventID)
	if !ok {
		return
	}
	doc, err := h.loader.Load(c.Request.Context(), event)
	if err != nil {
		response.Internal(c, "failed to build cast list")
		return
	}
	pdf, err := h.castlists.RenderPDF(c.Request.Context(), doc, castlist.ViewOrganiser)
	if err != nil {
		h.logger.Error("cast list render failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "failed to render cast list")
		return
	}
	filename := event.FormattedName() + " Cast List.pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

