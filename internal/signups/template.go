package signups

import (
	"bytes"
	"encoding/csv"

	"github.com/pennine-megagames/backend/internal/models"
)

// Template renders a fill-in CSV for the given unfulfilled role slots. The
// name and email columns are left blank for the organiser to complete, and
// the output imports cleanly against the same event.
func Template(slots []models.RoleSlot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"name", "email", "team", "role"}); err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if err := w.Write([]string{"", "", slot.TeamName, slot.RoleName}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
