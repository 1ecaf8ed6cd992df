package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/pennine-megagames/backend/internal/models"
)

// AccountSubject is the subject line for auto-created organiser accounts.
const AccountSubject = "An account has been created for you for Pennine Megagames!"

const accountBody = `<html>
<body style="font-family: sans-serif;">
<p>Hello,</p>
<p>You have been added as an organiser of <strong>{{.EventName}}</strong> on Pennine Megagames,
and an account has been created for you.</p>
<p>Sign in at <a href="{{.URL}}">{{.URL}}</a> with:</p>
<ul>
<li><strong>Email:</strong> {{.Email}}</li>
<li><strong>Password:</strong> {{.Password}}</li>
</ul>
<p>Please change your password after your first sign-in.</p>
</body>
</html>`

var accountTemplate = template.Must(template.New("account_email").Parse(accountBody))

// AccountBody renders the welcome email for an organiser account created
// while assigning them to an event. password is the generated plaintext,
// which exists only for this one message.
func AccountBody(organiser *models.Organiser, event *models.Event, password, publicURL string) (string, error) {
	data := struct {
		EventName string
		Email     string
		Password  string
		URL       string
	}{
		EventName: event.FormattedName(),
		Email:     organiser.Email,
		Password:  password,
		URL:       publicURL,
	}
	var buf bytes.Buffer
	if err := accountTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render account email: %w", err)
	}
	return buf.String(), nil
}
