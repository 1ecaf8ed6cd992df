package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/pennine-megagames/backend/internal/models"
)

const briefBody = `<html>
<body style="font-family: sans-serif;">
<p>Hello {{.PlayerName}},</p>
<p>Here is your information for <strong>{{.EventName}}</strong>.</p>
<ul>
<li><strong>Date:</strong> {{.EventDate}}</li>
<li><strong>Location:</strong> {{.Location}}</li>
{{if .MapsLink}}<li><strong>Map:</strong> <a href="{{.MapsLink}}">{{.MapsLink}}</a></li>{{end}}
</ul>
{{if .AdditionalInfo}}<p>{{.AdditionalInfo}}</p>{{end}}
{{if .Note}}<p><em>A note from your organiser:</em></p><p>{{.Note}}</p>{{end}}
<p>Your personal event page, with your briefs and documents, is here:<br>
<a href="{{.PlayerURL}}">{{.PlayerURL}}</a></p>
<p>Any questions, contact {{.OrganiserName}} at <a href="mailto:{{.OrganiserEmail}}">{{.OrganiserEmail}}</a>.</p>
<p>See you there!</p>
</body>
</html>`

var briefTemplate = template.Must(template.New("brief_email").Parse(briefBody))

// BriefSubject is the subject line for signup brief emails.
func BriefSubject(event *models.Event) string {
	return fmt.Sprintf("%s - Pennine Megagames. Event information!", event.Name)
}

// BriefBody renders the brief email body for one signup. publicURL is the
// externally reachable base URL used to build the player page link.
func BriefBody(signup *models.EventSignup, event *models.Event, organiser *models.Organiser, note, publicURL string) (string, error) {
	data := struct {
		PlayerName     string
		EventName      string
		EventDate      string
		Location       string
		MapsLink       string
		AdditionalInfo string
		Note           string
		PlayerURL      string
		OrganiserName  string
		OrganiserEmail string
	}{
		PlayerName:     signup.DisplayName(),
		EventName:      event.Name,
		EventDate:      event.Date.Format("2 January 2006, 15:04"),
		Location:       event.Location,
		MapsLink:       event.GoogleMapsLink,
		AdditionalInfo: event.AdditionalInfo,
		Note:           note,
		PlayerURL:      strings.TrimRight(publicURL, "/") + "/players/" + signup.UUID.String(),
		OrganiserName:  organiser.Name,
		OrganiserEmail: organiser.Email,
	}
	var buf bytes.Buffer
	if err := briefTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render brief email: %w", err)
	}
	return buf.String(), nil
}
