package signups

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/pennine-megagames/backend/internal/models"
)

// ErrNoFile is returned when the upload is absent or empty.
var ErrNoFile = errors.New("no file / an incorrect file type has been provided")

// ErrRolesWithoutTeams is returned when the flag combination is invalid.
var ErrRolesWithoutTeams = errors.New("cannot create roles without also creating teams")

// FormatError reports a structural problem with the uploaded CSV. The message
// names the offending headers or line number and is safe to show to the user.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

// Result summarises a successful import.
type Result struct {
	RowsProcessed int            `json:"rows_processed"`
	TeamsCreated  int            `json:"teams_created"`
	RolesCreated  int            `json:"roles_created"`
	// Missing maps a team name to the role names referenced under it that
	// were neither found nor created. A team that was itself missing appears
	// with an entry even when no roles are listed under it.
	Missing map[string][]string `json:"missing_teams_and_roles"`
}

// ImportStore is the slice of persistence the import pass needs. All calls
// happen inside one transaction so a failed row discards everything,
// synthesized teams and roles included.
type ImportStore interface {
	FindTeam(ctx context.Context, eventID uuid.UUID, name string) (*models.Team, error)
	CreateTeam(ctx context.Context, t *models.Team) error
	FindRole(ctx context.Context, eventID, teamID uuid.UUID, name string) (*models.Role, error)
	CreateRole(ctx context.Context, ro *models.Role) error
	CreateSignup(ctx context.Context, s *models.EventSignup) error
}

// TxRunner runs fn against an ImportStore inside a transaction, committing
// when fn returns nil and rolling back otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ImportStore) error) error
}

// Importer applies bulk player uploads to an event.
type Importer struct {
	tx TxRunner
}

// NewImporter creates an importer over the given transaction runner.
func NewImporter(tx TxRunner) *Importer {
	return &Importer{tx: tx}
}

var wantHeaders = []string{"name", "email", "team", "role"}

// Import validates and applies a CSV upload as one atomic batch of signups
// for the event. Rows are processed in file order; the first failing row
// aborts the whole batch and nothing is kept.
//
// Rows with both name and email blank are placeholders, as produced by the
// signup template export. No signup is persisted for them; their role is
// recorded in the missing report as still unfulfilled.
func (im *Importer) Import(ctx context.Context, eventID uuid.UUID, data []byte, createTeams, createRoles bool) (*Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoFile
	}
	if createRoles && !createTeams {
		return nil, ErrRolesWithoutTeams
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, ErrNoFile
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	result := &Result{Missing: map[string][]string{}}

	err = im.tx.RunInTx(ctx, func(store ImportStore) error {
		for line := 2; ; line++ {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return &FormatError{Msg: fmt.Sprintf("malformed row on line %d", line)}
			}
			if err := im.importRow(ctx, store, eventID, index, record, line, createTeams, createRoles, result); err != nil {
				return err
			}
			result.RowsProcessed++
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// headerIndex validates the header set and maps each wanted column to its
// position. Blank trailing header cells are ignored; anything else outside
// the four known columns is forbidden.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(wantHeaders))
	var forbidden []string
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if contains(wantHeaders, h) {
			index[h] = i
		} else {
			forbidden = append(forbidden, h)
		}
	}
	if len(forbidden) > 0 {
		return nil, &FormatError{Msg: fmt.Sprintf(
			"the uploaded CSV contains the following forbidden header(s): %s; please only provide the 'name', 'email', 'team' and 'role' column headers",
			quoteList(forbidden))}
	}
	var missing []string
	for _, h := range wantHeaders {
		if _, ok := index[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, &FormatError{Msg: fmt.Sprintf(
			"the uploaded CSV does not contain the following header(s): %s; please provide the 'name', 'email', 'team' and 'role' column headers",
			quoteList(missing))}
	}
	return index, nil
}

func (im *Importer) importRow(ctx context.Context, store ImportStore, eventID uuid.UUID, index map[string]int, record []string, line int, createTeams, createRoles bool, result *Result) error {
	cell := func(column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	name := cell("name")
	email := cell("email")
	teamName := cell("team")
	roleName := cell("role")

	fields := 0
	for _, v := range []string{name, email, teamName, roleName} {
		if v != "" {
			fields++
		}
	}
	// A row with name and email both blank is a template placeholder. Any
	// other shortfall is malformed.
	placeholder := name == "" && email == ""
	if fields < 4 && !placeholder {
		return &FormatError{Msg: fmt.Sprintf("malformed row on line %d, not enough fields (%d, should be 4)", line, fields)}
	}
	if placeholder {
		if teamName == "" || roleName == "" {
			return &FormatError{Msg: fmt.Sprintf("malformed row on line %d, not enough fields (%d, should be 4)", line, fields)}
		}
		// No player to sign up, so the role stays unfulfilled either way.
		result.Missing[teamName] = append(result.Missing[teamName], roleName)
		return nil
	}
	if !validEmail(email) {
		return &FormatError{Msg: fmt.Sprintf("malformed row on line %d, the email '%s' is invalid", line, email)}
	}

	team, err := store.FindTeam(ctx, eventID, teamName)
	if err != nil {
		return err
	}
	if team == nil {
		if createTeams {
			team = &models.Team{EventID: eventID, Name: teamName}
			if err := store.CreateTeam(ctx, team); err != nil {
				return err
			}
			result.TeamsCreated++
		} else if _, ok := result.Missing[teamName]; !ok {
			result.Missing[teamName] = []string{}
		}
	}

	var role *models.Role
	if team != nil {
		role, err = store.FindRole(ctx, eventID, team.ID, roleName)
		if err != nil {
			return err
		}
	}
	if role == nil {
		if createRoles && team != nil {
			role = &models.Role{TeamID: team.ID, EventID: eventID, Name: roleName}
			if err := store.CreateRole(ctx, role); err != nil {
				return err
			}
			result.RolesCreated++
		} else {
			result.Missing[teamName] = append(result.Missing[teamName], roleName)
		}
	}

	signup := &models.EventSignup{
		EventID: eventID,
		UUID:    uuid.New(),
		Email:   email,
	}
	if name != "" {
		signup.Name = &name
	}
	if team != nil {
		signup.TeamID = &team.ID
	}
	if role != nil {
		signup.RoleID = &role.ID
	}
	return store.CreateSignup(ctx, signup)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, ", ")
}
