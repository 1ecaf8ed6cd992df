// Package play serves the unauthenticated player surface. A signup's random
// UUID is the only credential: it grants access to that player's own page,
// the player cast list, and the briefing bundle, and nothing else.
package play

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/bundle"
	"github.com/pennine-megagames/backend/internal/castlist"
	"github.com/pennine-megagames/backend/internal/events"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/internal/roles"
	"github.com/pennine-megagames/backend/internal/signups"
	"github.com/pennine-megagames/backend/internal/teams"
	"github.com/pennine-megagames/backend/pkg/response"
)

// Handler handles player-facing HTTP endpoints.
type Handler struct {
	signups   *signups.Repository
	events    *events.Repository
	teams     *teams.Repository
	roles     *roles.Repository
	loader    *castlist.Loader
	castlists *castlist.Renderer
	bundles   *bundle.Builder
	logger    *zap.Logger
}

// NewHandler creates a play handler.
func NewHandler(signupRepo *signups.Repository, eventRepo *events.Repository, teamRepo *teams.Repository, roleRepo *roles.Repository, loader *castlist.Loader, castlists *castlist.Renderer, bundles *bundle.Builder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		signups:   signupRepo,
		events:    eventRepo,
		teams:     teamRepo,
		roles:     roleRepo,
		loader:    loader,
		castlists: castlists,
		bundles:   bundles,
		logger:    logger,
	}
}

// load resolves the player UUID to a signup and its event. Lookup failures
// all surface as a plain not-found; the UUID is the whole credential and
// nothing more specific should leak.
func (h *Handler) load(c *gin.Context) (*models.EventSignup, *models.Event, bool) {
	publicID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		response.NotFound(c, "player not found")
		return nil, nil, false
	}
	ctx := c.Request.Context()
	signup, err := h.signups.GetByUUID(ctx, publicID)
	if err != nil {
		response.Internal(c, "failed to load player")
		return nil, nil, false
	}
	if signup == nil {
		response.NotFound(c, "player not found")
		return nil, nil, false
	}
	event, err := h.events.GetByID(ctx, signup.EventID)
	if err != nil || event == nil {
		response.NotFound(c, "player not found")
		return nil, nil, false
	}
	return signup, event, true
}

// Show handles GET /players/:uuid.
func (h *Handler) Show(c *gin.Context) {
	signup, event, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var teamName, roleName string
	if signup.TeamID != nil {
		if team, err := h.teams.GetByID(ctx, *signup.TeamID); err == nil && team != nil {
			teamName = team.Name
		}
	}
	if signup.RoleID != nil {
		if role, err := h.roles.GetByID(ctx, *signup.RoleID); err == nil && role != nil {
			roleName = role.Name
		}
	}

	doc, err := h.loader.Load(ctx, event)
	if err != nil {
		response.Internal(c, "failed to build cast list")
		return
	}

	daysUntil := int(time.Until(event.Date).Hours() / 24)
	response.OK(c, gin.H{
		"player": gin.H{
			"uuid": signup.UUID,
			"name": signup.DisplayName(),
			"team": teamName,
			"role": roleName,
		},
		"event": gin.H{
			"name":             event.FormattedName(),
			"description":      event.Description,
			"date":             event.Date,
			"days_until":       daysUntil,
			"location":         event.Location,
			"google_maps_link": event.GoogleMapsLink,
			"additional_info":  event.AdditionalInfo,
		},
		"cast_list": doc.Redact(),
	})
}

// CastList handles GET /players/:uuid/castlist: the player cast list PDF,
// without email addresses.
func (h *Handler) CastList(c *gin.Context) {
	_, event, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	doc, err := h.loader.Load(ctx, event)
	if err != nil {
		response.Internal(c, "failed to build cast list")
		return
	}
	pdf, err := h.castlists.RenderPDF(ctx, doc, castlist.ViewPlayer)
	if err != nil {
		h.logger.Error("player cast list render failed", zap.String("event_id", event.ID.String()), zap.Error(err))
		response.Internal(c, "failed to render cast list")
		return
	}
	filename := event.FormattedName() + " Cast List.pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Bundle handles GET /players/:uuid/bundle: a ZIP of the player's role
// brief, team brief, rulebook, additional documents and the cast list PDF.
func (h *Handler) Bundle(c *gin.Context) {
	signup, event, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var team *models.Team
	var role *models.Role
	var err error
	if signup.TeamID != nil {
		if team, err = h.teams.GetByID(ctx, *signup.TeamID); err != nil {
			response.Internal(c, "failed to load team")
			return
		}
	}
	if signup.RoleID != nil {
		if role, err = h.roles.GetByID(ctx, *signup.RoleID); err != nil {
			response.Internal(c, "failed to load role")
			return
		}
	}
	docs, err := h.events.ListDocuments(ctx, event.ID)
	if err != nil {
		response.Internal(c, "failed to load documents")
		return
	}

	doc, err := h.loader.Load(ctx, event)
	if err != nil {
		response.Internal(c, "failed to build cast list")
		return
	}
	castPDF, err := h.castlists.RenderPDF(ctx, doc, castlist.ViewPlayer)
	if err != nil {
		h.logger.Error("bundle cast list render failed", zap.String("event_id", event.ID.String()), zap.Error(err))
		response.Internal(c, "failed to render cast list")
		return
	}

	b, err := h.bundles.Build(ctx, bundle.Input{
		Event:     event,
		Team:      team,
		Role:      role,
		Documents: docs,
		CastPDF:   castPDF,
	})
	if err != nil {
		h.logger.Error("bundle build failed", zap.String("signup_id", signup.ID.String()), zap.Error(err))
		response.Internal(c, "failed to build bundle")
		return
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			h.logger.Warn("bundle cleanup failed", zap.String("path", b.Path), zap.Error(err))
		}
	}()

	c.FileAttachment(b.Path, b.Filename)
}
