package signups

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pennine-megagames/backend/internal/auth"
	"github.com/pennine-megagames/backend/internal/authz"
	"github.com/pennine-megagames/backend/internal/dispatch"
	"github.com/pennine-megagames/backend/internal/middleware"
	"github.com/pennine-megagames/backend/internal/models"
	"github.com/pennine-megagames/backend/internal/roles"
	"github.com/pennine-megagames/backend/internal/teams"
	"github.com/pennine-megagames/backend/pkg/response"
)

// Handler handles event signup HTTP endpoints.
type Handler struct {
	repo       *Repository
	teams      *teams.Repository
	roles      *roles.Repository
	organisers *auth.Repository
	decider    *authz.Decider
	importer   *Importer
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

// NewHandler creates a signups handler.
func NewHandler(repo *Repository, teamRepo *teams.Repository, roleRepo *roles.Repository, organisers *auth.Repository, decider *authz.Decider, importer *Importer, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:       repo,
		teams:      teamRepo,
		roles:      roleRepo,
		organisers: organisers,
		decider:    decider,
		importer:   importer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (h *Handler) gate(c *gin.Context, action authz.Action) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	actor := middleware.OrganiserID(c)
	if !h.decider.Can(c.Request.Context(), actor, action, authz.ResourceSignup, eventID) {
		response.AccessDenied(c)
		return uuid.Nil, false
	}
	return eventID, true
}

func (h *Handler) load(c *gin.Context, eventID uuid.UUID) (*models.EventSignup, bool) {
	signupID, err := uuid.Parse(c.Param("signupID"))
	if err != nil {
		response.BadRequest(c, "invalid signup id")
		return nil, false
	}
	signup, err := h.repo.GetByID(c.Request.Context(), signupID)
	if err != nil {
		response.Internal(c, "failed to load signup")
		return nil, false
	}
	if signup == nil || signup.EventID != eventID {
		response.NotFound(c, "signup not found")
		return nil, false
	}
	return signup, true
}

// List handles GET /events/:id/signups.
func (h *Handler) List(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load signups")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id/signups/:signupID.
func (h *Handler) Get(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	signup, ok := h.load(c, eventID)
	if !ok {
		return
	}
	response.OK(c, signup)
}

// SignupRequest is the body for signup create and update.
type SignupRequest struct {
	Name   string     `json:"name"`
	Email  string     `json:"email" binding:"required"`
	TeamID *uuid.UUID `json:"team_id"`
	RoleID *uuid.UUID `json:"role_id"`
}

// Create handles POST /events/:id/signups.
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionCreate)
	if !ok {
		return
	}
	var body SignupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email is required")
		return
	}
	signup := &models.EventSignup{
		EventID: eventID,
		Email:   body.Email,
		TeamID:  body.TeamID,
		RoleID:  body.RoleID,
	}
	if body.Name != "" {
		signup.Name = &body.Name
	}
	msgs, err := h.validate(c, signup)
	if err != nil {
		response.Internal(c, "failed to validate signup")
		return
	}
	if msgs != nil {
		response.UnprocessableEntity(c, msgs)
		return
	}
	if err := h.repo.Create(c.Request.Context(), signup); err != nil {
		response.UnprocessableEntity(c, []string{"could not save signup: the email may already be taken, or the role already fulfilled"})
		return
	}
	response.Created(c, signup)
}

// Update handles PUT /events/:id/signups/:signupID.
func (h *Handler) Update(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionUpdate)
	if !ok {
		return
	}
	signup, ok := h.load(c, eventID)
	if !ok {
		return
	}
	var body SignupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "email is required")
		return
	}
	signup.Email = body.Email
	signup.TeamID = body.TeamID
	signup.RoleID = body.RoleID
	signup.Name = nil
	if body.Name != "" {
		name := body.Name
		signup.Name = &name
	}
	signup.NormalizeName()
	msgs, err := h.validate(c, signup)
	if err != nil {
		response.Internal(c, "failed to validate signup")
		return
	}
	if msgs != nil {
		response.UnprocessableEntity(c, msgs)
		return
	}
	if err := h.repo.Update(c.Request.Context(), signup); err != nil {
		response.UnprocessableEntity(c, []string{"could not save signup: the email may already be taken, or the role already fulfilled"})
		return
	}
	response.OK(c, signup)
}

// Delete handles DELETE /events/:id/signups/:signupID.
func (h *Handler) Delete(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionDestroy)
	if !ok {
		return
	}
	signup, ok := h.load(c, eventID)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), signup.ID); err != nil {
		response.Internal(c, "failed to delete signup")
		return
	}
	response.NoContent(c)
}

// TeamGetter loads one team.
type TeamGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// RoleGetter loads one role.
type RoleGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
}

func (h *Handler) validate(c *gin.Context, s *models.EventSignup) ([]string, error) {
	return validateSignup(c.Request.Context(), h.teams, h.roles, s)
}

// validateSignup checks field constraints and the team/role combination. It
// returns nil messages when the signup is valid, and a non-nil error when a
// lookup failed and no verdict could be reached.
func validateSignup(ctx context.Context, teams TeamGetter, roles RoleGetter, s *models.EventSignup) ([]string, error) {
	var msgs []string
	if !validEmail(s.Email) {
		msgs = append(msgs, "email is not a valid email address")
	}
	if s.RoleID != nil && s.TeamID == nil {
		msgs = append(msgs, "a role requires a team")
	}
	if s.TeamID != nil {
		team, err := teams.GetByID(ctx, *s.TeamID)
		if err != nil {
			return nil, err
		}
		if team == nil || team.EventID != s.EventID {
			msgs = append(msgs, "team does not belong to this event")
		}
	}
	if s.RoleID != nil && s.TeamID != nil {
		role, err := roles.GetByID(ctx, *s.RoleID)
		if err != nil {
			return nil, err
		}
		if role == nil || role.EventID != s.EventID || role.TeamID != *s.TeamID {
			msgs = append(msgs, "invalid combination of team and role")
		}
	}
	return msgs, nil
}

// Template handles GET /events/:id/signups/template. The CSV lists every
// unfulfilled role with blank name and email columns.
func (h *Handler) Template(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionRead)
	if !ok {
		return
	}
	event, err := h.decider.Event(c.Request.Context(), eventID)
	if err != nil || event == nil {
		response.NotFound(c, "event not found")
		return
	}
	slots, err := h.roles.ListUnfulfilled(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	data, err := Template(slots)
	if err != nil {
		response.Internal(c, "failed to generate template")
		return
	}
	filename := "Generated Template CSV for " + event.FormattedName() + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// Import handles POST /events/:id/signups/import: multipart form with the
// CSV under "file" plus create_teams and create_roles flags.
func (h *Handler) Import(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionImport)
	if !ok {
		return
	}
	createTeams := c.PostForm("create_teams") == "1" || c.PostForm("create_teams") == "true"
	createRoles := c.PostForm("create_roles") == "1" || c.PostForm("create_roles") == "true"

	var data []byte
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			response.Internal(c, "failed to read file")
			return
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			response.Internal(c, "failed to read file")
			return
		}
	}

	result, err := h.importer.Import(c.Request.Context(), eventID, data, createTeams, createRoles)
	if err != nil {
		var formatErr *FormatError
		switch {
		case errors.Is(err, ErrNoFile), errors.Is(err, ErrRolesWithoutTeams):
			response.BadRequest(c, "unable to upload players: "+err.Error())
		case errors.As(err, &formatErr):
			response.UnprocessableEntity(c, []string{"CSV upload error: " + formatErr.Msg})
		default:
			h.logger.Error("signup import failed", zap.String("event_id", eventID.String()), zap.Error(err))
			response.UnprocessableEntity(c, []string{"CSV upload error: " + err.Error()})
		}
		return
	}
	response.OK(c, result)
}

// EmailRequest is the body for the email dispatch endpoints.
type EmailRequest struct {
	Note string `json:"note"`
}

// EmailAll handles POST /events/:id/signups/email. Small events send inline;
// larger ones queue one job for the worker.
func (h *Handler) EmailAll(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionEmail)
	if !ok {
		return
	}
	var body EmailRequest
	_ = c.ShouldBindJSON(&body)

	ctx := c.Request.Context()
	event, organiser, ok := h.loadDispatchTargets(c, eventID)
	if !ok {
		return
	}
	signups, err := h.repo.ListByEvent(ctx, eventID)
	if err != nil {
		response.Internal(c, "failed to load signups")
		return
	}

	async, err := h.dispatcher.EmailAll(ctx, event, organiser, signups, body.Note)
	if err != nil {
		h.dispatchError(c, err)
		return
	}
	if async {
		response.OK(c, gin.H{"message": "emails queued", "count": len(signups)})
		return
	}
	response.OK(c, gin.H{"message": "emails sent", "count": len(signups)})
}

// EmailOne handles POST /events/:id/signups/:signupID/email.
func (h *Handler) EmailOne(c *gin.Context) {
	eventID, ok := h.gate(c, authz.ActionEmail)
	if !ok {
		return
	}
	signup, ok := h.load(c, eventID)
	if !ok {
		return
	}
	var body EmailRequest
	_ = c.ShouldBindJSON(&body)

	event, organiser, ok := h.loadDispatchTargets(c, eventID)
	if !ok {
		return
	}
	if err := h.dispatcher.EmailOne(c.Request.Context(), event, organiser, signup, body.Note); err != nil {
		h.dispatchError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "email sent"})
}

func (h *Handler) loadDispatchTargets(c *gin.Context, eventID uuid.UUID) (*models.Event, *models.Organiser, bool) {
	ctx := c.Request.Context()
	event, err := h.decider.Event(ctx, eventID)
	if err != nil || event == nil {
		response.NotFound(c, "event not found")
		return nil, nil, false
	}
	organiser, err := h.organisers.GetByID(ctx, event.OrganiserID)
	if err != nil || organiser == nil {
		response.Internal(c, "failed to load event owner")
		return nil, nil, false
	}
	return event, organiser, true
}

func (h *Handler) dispatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dispatch.ErrEventDraft),
		errors.Is(err, dispatch.ErrNoSignups),
		errors.Is(err, dispatch.ErrMissingRole):
		response.UnprocessableEntity(c, []string{err.Error()})
	default:
		h.logger.Error("email dispatch failed", zap.Error(err))
		response.Internal(c, "failed to send emails")
	}
}
