package events

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Handler.Update binds all of these into the event before saving; the UPDATE
// must write each one or the response would claim state the row never got.
func TestUpdateEventSQL_WritesEveryBoundColumn(t *testing.T) {
	for _, column := range []string{"name", "description", "date", "location", "google_maps_link", "additional_info", "draft"} {
		assert.True(t, strings.Contains(updateEventSQL, column+" ="),
			fmt.Sprintf("update statement does not set %s", column))
	}
}
